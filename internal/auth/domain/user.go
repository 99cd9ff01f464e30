package domain

import "time"

type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Bio          string
	Phone        string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	IPAddress string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// Active reports whether the token can still be exchanged at the given
// instant. A revoked or expired row may still exist in storage; callers
// must treat it as absent.
func (rt *RefreshToken) Active(now time.Time) bool {
	return !rt.Revoked && now.Before(rt.ExpiresAt)
}
