package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/innovativecursor/szc-sub001/internal/auth/domain"
	apperrors "github.com/innovativecursor/szc-sub001/internal/errors"
	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix   = "refresh:"
	userSetKeyPrefix = "user_sessions:"
)

// Registry is a Redis-backed session registry. Expiry rides on Redis TTLs,
// so an expired token is gone (or about to be) without any sweep; revoking
// is deletion. Claim relies on GETDEL so two concurrent claims of the same
// token cannot both win.
type Registry struct {
	client *redis.Client
}

func NewRegistry(client *redis.Client) *Registry {
	return &Registry{client: client}
}

func tokenKey(token string) string {
	return tokenKeyPrefix + token
}

func userSetKey(userID string) string {
	return userSetKeyPrefix + userID
}

func (r *Registry) Store(ctx context.Context, rt *domain.RefreshToken) error {
	ttl := time.Until(rt.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(rt)
	if err != nil {
		return fmt.Errorf("failed to encode refresh token: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, tokenKey(rt.Token), payload, ttl)
	pipe.SAdd(ctx, userSetKey(rt.UserID), rt.Token)
	// Refresh TTLs are uniform, so the newest member always outlives the
	// rest of the index.
	pipe.Expire(ctx, userSetKey(rt.UserID), ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Registry) Get(ctx context.Context, token string) (*domain.RefreshToken, error) {
	payload, err := r.client.Get(ctx, tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrRefreshTokenNotFound
		}
		return nil, err
	}
	return decode(payload)
}

func (r *Registry) Claim(ctx context.Context, token string) (*domain.RefreshToken, error) {
	payload, err := r.client.GetDel(ctx, tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrRefreshTokenNotFound
		}
		return nil, err
	}

	rt, err := decode(payload)
	if err != nil {
		return nil, err
	}
	r.client.SRem(ctx, userSetKey(rt.UserID), token)
	return rt, nil
}

func (r *Registry) Revoke(ctx context.Context, token string) error {
	_, err := r.Claim(ctx, token)
	return err
}

func (r *Registry) RevokeAllForUser(ctx context.Context, userID string) error {
	tokens, err := r.client.SMembers(ctx, userSetKey(userID)).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, tokenKey(token))
	}
	keys = append(keys, userSetKey(userID))
	return r.client.Del(ctx, keys...).Err()
}

func (r *Registry) ListActiveForUser(ctx context.Context, userID string) ([]domain.RefreshToken, error) {
	members, err := r.client.SMembers(ctx, userSetKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	var tokens []domain.RefreshToken
	for _, token := range members {
		payload, err := r.client.Get(ctx, tokenKey(token)).Result()
		if errors.Is(err, redis.Nil) {
			// Expired under us; drop the stale index entry.
			r.client.SRem(ctx, userSetKey(userID), token)
			continue
		}
		if err != nil {
			return nil, err
		}
		rt, err := decode(payload)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, *rt)
	}
	return tokens, nil
}

// DeleteExpired is a no-op: Redis TTLs already reap expired entries.
func (r *Registry) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func decode(payload string) (*domain.RefreshToken, error) {
	var rt domain.RefreshToken
	if err := json.Unmarshal([]byte(payload), &rt); err != nil {
		return nil, fmt.Errorf("failed to decode refresh token: %w", err)
	}
	return &rt, nil
}
