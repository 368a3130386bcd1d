package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ClaimsStore keeps the latest claim snapshot per profile as a JSON string.
// Snapshots do not expire; every save overwrites them.
type ClaimsStore struct {
	client *redis.Client
}

func NewClaimsStore(client *redis.Client) *ClaimsStore {
	return &ClaimsStore{client: client}
}

func (s *ClaimsStore) Put(ctx context.Context, profileID string, claims map[string]any) error {
	payload, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("encode claims: %w", err)
	}
	if err := s.client.Set(ctx, s.key(profileID), payload, 0).Err(); err != nil {
		return fmt.Errorf("store claims: %w", err)
	}
	return nil
}

func (s *ClaimsStore) Get(ctx context.Context, profileID string) (map[string]any, error) {
	raw, err := s.client.Get(ctx, s.key(profileID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load claims: %w", err)
	}

	var claims map[string]any
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return claims, nil
}

// Delete drops the snapshot of a removed profile.
func (s *ClaimsStore) Delete(ctx context.Context, profileID string) error {
	return s.client.Del(ctx, s.key(profileID)).Err()
}

func (s *ClaimsStore) key(profileID string) string {
	return "claims:" + profileID
}
