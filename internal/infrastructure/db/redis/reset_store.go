package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bidgate/rfp-platform/internal/core/domain"
)

// resetGC is the Redis TTL on reset keys. Purely garbage collection: the
// 15-minute expiry decision is made from the entry's expires_at at
// consumption time, never by key eviction.
const resetGC = 24 * time.Hour

// ResetStore holds password-reset entries in Redis.
// Key formats:
//
//	pwreset:token:<token>  → JSON entry
//	pwreset:email:<email>  → live token for that email
//
// The email index enforces at most one live entry per address: a new request
// deletes the token the index pointed to before writing its own.
type ResetStore struct {
	client *redis.Client
}

func NewResetStore(client *redis.Client) *ResetStore {
	return &ResetStore{client: client}
}

func (s *ResetStore) Put(ctx context.Context, entry *domain.PasswordResetEntry) error {
	// Supersede the previous entry for this email, if any.
	prev, err := s.client.Get(ctx, s.emailKey(entry.Email)).Result()
	if err == nil && prev != "" {
		if delErr := s.client.Del(ctx, s.tokenKey(prev)).Err(); delErr != nil {
			return fmt.Errorf("supersede reset entry: %w", delErr)
		}
	} else if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("check reset index: %w", err)
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal reset entry: %w", err)
	}

	if err := s.client.Set(ctx, s.tokenKey(entry.Token), payload, resetGC).Err(); err != nil {
		return fmt.Errorf("store reset entry: %w", err)
	}
	if err := s.client.Set(ctx, s.emailKey(entry.Email), entry.Token, resetGC).Err(); err != nil {
		return fmt.Errorf("store reset index: %w", err)
	}
	return nil
}

func (s *ResetStore) Find(ctx context.Context, token string) (*domain.PasswordResetEntry, error) {
	payload, err := s.client.Get(ctx, s.tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrInvalidResetToken
		}
		return nil, fmt.Errorf("find reset entry: %w", err)
	}

	var entry domain.PasswordResetEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("decode reset entry: %w", err)
	}
	return &entry, nil
}

func (s *ResetStore) Delete(ctx context.Context, token string) error {
	entry, err := s.Find(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidResetToken) {
			return nil
		}
		return err
	}

	if err := s.client.Del(ctx, s.tokenKey(token)).Err(); err != nil {
		return fmt.Errorf("delete reset entry: %w", err)
	}

	// Drop the index only if it still points at this token.
	current, err := s.client.Get(ctx, s.emailKey(entry.Email)).Result()
	if err == nil && current == token {
		if err := s.client.Del(ctx, s.emailKey(entry.Email)).Err(); err != nil {
			return fmt.Errorf("delete reset index: %w", err)
		}
	}
	return nil
}

func (s *ResetStore) tokenKey(token string) string {
	return "pwreset:token:" + token
}

func (s *ResetStore) emailKey(email string) string {
	return "pwreset:email:" + email
}
