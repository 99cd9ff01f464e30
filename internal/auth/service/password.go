package service

//go:generate mockgen -destination=../../mocks/mock_password_hasher.go -package=mocks github.com/innovativecursor/szc-sub001/internal/auth/service PasswordHasher

import (
	"fmt"
	"unicode"

	apperrors "github.com/innovativecursor/szc-sub001/internal/errors"
	"github.com/innovativecursor/szc-sub001/pkg/constant"
	"golang.org/x/crypto/bcrypt"
)

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BcryptHasher hashes with bcrypt. The digest embeds the salt and cost, so
// Verify needs nothing beyond the digest itself.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = constant.DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// ValidatePassword enforces the registration password policy: minimum
// length, at least one uppercase letter, at least one digit. All failed
// checks are reported, not just the first.
func ValidatePassword(password string) *apperrors.ValidationError {
	ve := &apperrors.ValidationError{}

	if len(password) < constant.MinPasswordLength {
		ve.Add("password", fmt.Sprintf("must be at least %d characters", constant.MinPasswordLength))
	}

	var hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		ve.Add("password", "must contain at least one uppercase letter")
	}
	if !hasDigit {
		ve.Add("password", "must contain at least one digit")
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}
