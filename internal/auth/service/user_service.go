package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/innovativecursor/szc-sub001/internal/auth/domain"
	"github.com/innovativecursor/szc-sub001/internal/auth/dto"
	apperrors "github.com/innovativecursor/szc-sub001/internal/errors"
	"github.com/innovativecursor/szc-sub001/pkg/constant"
)

// UserService orchestrates the identity flows. It is the only component
// handlers call directly; persistence detail never leaks past it.
type UserService struct {
	repo     domain.UserRepository
	sessions domain.RefreshTokenStore
	tokens   TokenGenerator
	hasher   PasswordHasher
	logger   *slog.Logger
}

func NewUserService(repo domain.UserRepository, sessions domain.RefreshTokenStore,
	tokens TokenGenerator, hasher PasswordHasher, logger *slog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		logger:   logger,
	}
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	if err := validateRegisterInput(&input); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(input.Email),
		Username:     input.Username,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         constant.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Uniqueness is the database's job: two concurrent registrations with
	// the same email race down to the unique index, and the loser comes
	// back as ErrUserExists.
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	pair, err := s.issueSession(ctx, user, "", "")
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		User:         dto.NewUserOutput(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(input.Email))
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	// Unknown email and wrong password produce the identical error so a
	// caller cannot probe which addresses are registered.
	if user == nil || !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	pair, err := s.issueSession(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		User:         dto.NewUserOutput(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Refresh rotates the presented refresh token: the old token is revoked in
// the same step that reads it, so a replay, concurrent or later, loses.
func (s *UserService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenResponse, error) {
	// Signature first. A forged or malformed token never reaches the
	// registry.
	if _, err := s.tokens.VerifyRefreshToken(input.RefreshToken); err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	token, err := s.sessions.Claim(ctx, input.RefreshToken)
	if err != nil {
		s.logger.Warn("refresh rejected", "reason", err)
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.repo.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	pair, err := s.issueSession(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Logout revokes the presented refresh token, or every session the user
// holds when no token is given. Revoking an already-dead token is not an
// error; logout is idempotent.
func (s *UserService) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		return s.sessions.RevokeAllForUser(ctx, userID)
	}

	if err := s.sessions.Revoke(ctx, refreshToken); err != nil {
		if errors.Is(err, apperrors.ErrRefreshTokenNotFound) {
			return nil
		}
		return err
	}
	return nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*dto.UserOutput, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := dto.NewUserOutput(user)
	return &out, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, input dto.UpdateProfileInput) (*dto.UserOutput, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	user.UpdatedAt = time.Now()

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	out := dto.NewUserOutput(user)
	return &out, nil
}

// ChangePassword re-verifies the current password before accepting the new
// one, then revokes every refresh token the user holds. Stolen sessions do
// not survive a password change.
func (s *UserService) ChangePassword(ctx context.Context, userID string, input dto.ChangePasswordInput) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(input.CurrentPassword, user.PasswordHash) {
		return apperrors.ErrInvalidCredentials
	}

	if ve := ValidatePassword(input.NewPassword); ve != nil {
		return ve
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions after password change",
			"user_id", userID, "error", err)
	}
	return nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]dto.UserOutput, error) {
	users, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.UserOutput, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserOutput(&users[i]))
	}
	return out, nil
}

func (s *UserService) ListSessions(ctx context.Context, userID string) ([]dto.SessionOutput, error) {
	tokens, err := s.sessions.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.SessionOutput, 0, len(tokens))
	for _, rt := range tokens {
		out = append(out, dto.SessionOutput{
			ID:        rt.ID,
			IPAddress: rt.IPAddress,
			UserAgent: rt.UserAgent,
			CreatedAt: rt.CreatedAt,
			ExpiresAt: rt.ExpiresAt,
		})
	}
	return out, nil
}

func (s *UserService) ForceLogout(ctx context.Context, userID string) error {
	return s.sessions.RevokeAllForUser(ctx, userID)
}

func (s *UserService) UpdateRole(ctx context.Context, userID, role string) error {
	if role != constant.RoleUser && role != constant.RoleAdmin {
		ve := &apperrors.ValidationError{}
		ve.Add("role", fmt.Sprintf("unknown role %q", role))
		return ve
	}
	return s.repo.UpdateRole(ctx, userID, role)
}

// SweepExpiredSessions removes refresh-token rows that expired naturally.
// Lookup already treats expired rows as absent; this just keeps the
// registry from growing without bound.
func (s *UserService) SweepExpiredSessions(ctx context.Context) {
	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.logger.Warn("session sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Debug("session sweep removed expired tokens", "count", n)
	}
}

func (s *UserService) issueSession(ctx context.Context, user *domain.User, ip, userAgent string) (*TokenPair, error) {
	pair, err := s.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	now := time.Now()
	rt := &domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     pair.RefreshToken,
		IPAddress: ip,
		UserAgent: userAgent,
		ExpiresAt: pair.RefreshExpiresAt,
		CreatedAt: now,
		Revoked:   false,
	}
	if err := s.sessions.Store(ctx, rt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return pair, nil
}

func validateRegisterInput(input *dto.RegisterInput) error {
	ve := &apperrors.ValidationError{}

	if input.Username == "" {
		ve.Add("username", "is required")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		ve.Add("email", "must be a valid email address")
	}
	if pwErr := ValidatePassword(input.Password); pwErr != nil {
		ve.Fields = append(ve.Fields, pwErr.Fields...)
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}
