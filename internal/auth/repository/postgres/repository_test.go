package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/innovativecursor/szc-sub001/internal/auth/domain"
	repo "github.com/innovativecursor/szc-sub001/internal/auth/repository/postgres"
	apperrors "github.com/innovativecursor/szc-sub001/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{
	"id", "email", "username", "password_hash", "first_name", "last_name",
	"bio", "phone", "role", "created_at", "updated_at",
}

var refreshColumns = []string{
	"id", "user_id", "token", "ip_address", "user_agent", "expires_at", "created_at", "revoked",
}

func userRow(u *domain.User) *pgxmock.Rows {
	return pgxmock.NewRows(userColumns).AddRow(
		u.ID, u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName,
		u.Bio, u.Phone, u.Role, u.CreatedAt, u.UpdatedAt)
}

func TestGetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	expected := &domain.User{
		ID:        "user-123",
		Email:     "test@example.com",
		Username:  "tester",
		Role:      "user",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users").
			WithArgs(expected.Email).
			WillReturnRows(userRow(expected))

		user, err := r.GetByEmail(ctx, expected.Email)
		require.NoError(t, err)
		assert.Equal(t, expected.ID, user.ID)
		assert.Equal(t, expected.Username, user.Username)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users").
			WithArgs("nobody@example.com").
			WillReturnError(pgx.ErrNoRows)

		user, err := r.GetByEmail(ctx, "nobody@example.com")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	now := time.Now()
	user := &domain.User{
		ID:           "user-123",
		Email:        "test@example.com",
		Username:     "tester",
		PasswordHash: "hash",
		Role:         "user",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(user.ID, user.Email, user.Username, user.PasswordHash,
				user.FirstName, user.LastName, user.Bio, user.Phone, user.Role,
				user.CreatedAt, user.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, r.Create(ctx, user))
	})

	t.Run("unique violation maps to UserExists", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(user.ID, user.Email, user.Username, user.PasswordHash,
				user.FirstName, user.LastName, user.Bio, user.Phone, user.Role,
				user.CreatedAt, user.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		err := r.Create(ctx, user)
		assert.ErrorIs(t, err, apperrors.ErrUserExists)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		mock.ExpectExec("INSERT INTO users").
			WithArgs(user.ID, user.Email, user.Username, user.PasswordHash,
				user.FirstName, user.LastName, user.Bio, user.Phone, user.Role,
				user.CreatedAt, user.UpdatedAt).
			WillReturnError(dbErr)

		err := r.Create(ctx, user)
		assert.ErrorIs(t, err, dbErr)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaim(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("active token is revoked and returned", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		r := repo.NewPostgresRepository(mock)

		mock.ExpectQuery("UPDATE refresh_tokens").
			WithArgs("the-token").
			WillReturnRows(pgxmock.NewRows(refreshColumns).AddRow(
				"rt-1", "user-123", "the-token", "10.0.0.1", "curl",
				now.Add(time.Hour), now, true))

		rt, err := r.Claim(ctx, "the-token")
		require.NoError(t, err)
		assert.Equal(t, "rt-1", rt.ID)
		assert.Equal(t, "user-123", rt.UserID)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already revoked classifies as revoked", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		r := repo.NewPostgresRepository(mock)

		mock.ExpectQuery("UPDATE refresh_tokens").
			WithArgs("spent-token").
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
			WithArgs("spent-token").
			WillReturnRows(pgxmock.NewRows(refreshColumns).AddRow(
				"rt-1", "user-123", "spent-token", "", "",
				now.Add(time.Hour), now, true))

		rt, err := r.Claim(ctx, "spent-token")
		assert.Nil(t, rt)
		assert.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired but unpurged classifies as expired", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		r := repo.NewPostgresRepository(mock)

		mock.ExpectQuery("UPDATE refresh_tokens").
			WithArgs("old-token").
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
			WithArgs("old-token").
			WillReturnRows(pgxmock.NewRows(refreshColumns).AddRow(
				"rt-1", "user-123", "old-token", "", "",
				now.Add(-time.Hour), now.Add(-2*time.Hour), false))

		rt, err := r.Claim(ctx, "old-token")
		assert.Nil(t, rt)
		assert.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown token", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		r := repo.NewPostgresRepository(mock)

		mock.ExpectQuery("UPDATE refresh_tokens").
			WithArgs("ghost-token").
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
			WithArgs("ghost-token").
			WillReturnError(pgx.ErrNoRows)

		rt, err := r.Claim(ctx, "ghost-token")
		assert.Nil(t, rt)
		assert.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRevoke(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	t.Run("revokes once", func(t *testing.T) {
		mock.ExpectExec("UPDATE refresh_tokens SET revoked = true").
			WithArgs("the-token").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, r.Revoke(ctx, "the-token"))
	})

	t.Run("second revoke reports not found", func(t *testing.T) {
		mock.ExpectExec("UPDATE refresh_tokens SET revoked = true").
			WithArgs("the-token").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := r.Revoke(ctx, "the-token")
		assert.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRefreshToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	now := time.Now()
	rt := &domain.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-123",
		Token:     "the-token",
		IPAddress: "10.0.0.1",
		UserAgent: "curl",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}

	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(rt.ID, rt.UserID, rt.Token, rt.IPAddress, rt.UserAgent,
			rt.ExpiresAt, rt.CreatedAt, rt.Revoked).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.Store(context.Background(), rt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	n, err := r.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveForUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WithArgs("user-123").
		WillReturnRows(pgxmock.NewRows(refreshColumns).
			AddRow("rt-1", "user-123", "t1", "10.0.0.1", "curl", now.Add(time.Hour), now, false).
			AddRow("rt-2", "user-123", "t2", "10.0.0.2", "curl", now.Add(2*time.Hour), now, false))

	tokens, err := r.ListActiveForUser(context.Background(), "user-123")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "rt-1", tokens[0].ID)
	assert.Equal(t, "rt-2", tokens[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePasswordHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET password_hash").
			WithArgs("user-123", "new-hash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, r.UpdatePasswordHash(context.Background(), "user-123", "new-hash"))
	})

	t.Run("missing user", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET password_hash").
			WithArgs("ghost", "new-hash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := r.UpdatePasswordHash(context.Background(), "ghost", "new-hash")
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
