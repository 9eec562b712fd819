package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTokenExpired    = errors.New("access token already expired")
)

const keyPrefix = "session:"

// TokenPair is the access/refresh pair issued by the backend.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Record is what a session ID resolves to. Subject is the profile ID the backend returned
// for the access token at login and is the only owner identity the storefront trusts.
type Record struct {
	Subject string `json:"subject"`
	TokenPair
}

// TokenStore keeps session records in redis under session:<id>.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore returns a store whose non-remembered sessions expire after ttl.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Save stores rec and returns the new session ID. Remembered sessions never expire. The
// others live for the store TTL, or until the access token expires if that comes first.
func (s *TokenStore) Save(ctx context.Context, rec Record, rememberMe bool) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal session failed: %w", err)
	}

	var ttl time.Duration
	if !rememberMe {
		ttl = s.ttl
		if exp, ok := ExpiresAt(rec.AccessToken); ok {
			left := time.Until(exp)
			if left <= 0 {
				return "", ErrTokenExpired
			}
			if ttl <= 0 || left < ttl {
				ttl = left
			}
		}
	}

	id := uuid.NewString()
	if err := s.client.Set(ctx, keyPrefix+id, data, ttl).Err(); err != nil {
		return "", fmt.Errorf("redis set failed: %w", err)
	}
	return id, nil
}

func (s *TokenStore) Load(ctx context.Context, id string) (*Record, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &rec, nil
}

func (s *TokenStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// ExpiresAt reads the exp claim of a JWT access token. It is only used to shorten a
// session, never to establish identity, so the signature is not checked. Opaque tokens and
// tokens without exp report false.
func ExpiresAt(accessToken string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
