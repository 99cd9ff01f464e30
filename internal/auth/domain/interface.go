package domain

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/innovativecursor/szc-sub001/internal/auth/domain UserRepository
//go:generate mockgen -destination=../../mocks/mock_refresh_token_store.go -package=mocks github.com/innovativecursor/szc-sub001/internal/auth/domain RefreshTokenStore

import "context"

// UserRepository is the credential store. Uniqueness of email and username
// is enforced by the backing store, not by callers.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdateProfile(ctx context.Context, user *User) error
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
	UpdateRole(ctx context.Context, userID, role string) error
	ListAll(ctx context.Context) ([]User, error)
}

// RefreshTokenStore is the session registry: the set of refresh tokens a
// user currently holds. Get and Claim treat revoked or expired rows as
// absent even if a lazy purge has not removed them yet.
type RefreshTokenStore interface {
	Store(ctx context.Context, rt *RefreshToken) error
	Get(ctx context.Context, token string) (*RefreshToken, error)
	// Claim atomically revokes an active token and returns it. When the
	// same token is claimed twice concurrently, exactly one call wins;
	// the loser gets ErrRefreshTokenNotFound.
	Claim(ctx context.Context, token string) (*RefreshToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	ListActiveForUser(ctx context.Context, userID string) ([]RefreshToken, error)
	DeleteExpired(ctx context.Context) (int64, error)
}
