package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Debouncer records recent successful syncs as expiring markers.
// Key format: sync:debounce:<sink>:<profile_id>
type Debouncer struct {
	client *redis.Client
}

// NewDebouncer creates a Debouncer wrapping the given Redis client.
func NewDebouncer(client *redis.Client) *Debouncer {
	return &Debouncer{client: client}
}

// Recent reports whether a marker for this profile and sink is still alive.
func (d *Debouncer) Recent(ctx context.Context, sink, profileID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(sink, profileID)).Result()
	if err != nil {
		return false, fmt.Errorf("debounce check: %w", err)
	}
	return n > 0, nil
}

// Mark sets the marker for window. An existing marker is refreshed.
func (d *Debouncer) Mark(ctx context.Context, sink, profileID string, window time.Duration) error {
	if err := d.client.Set(ctx, d.key(sink, profileID), time.Now().UTC().Unix(), window).Err(); err != nil {
		return fmt.Errorf("debounce mark: %w", err)
	}
	return nil
}

func (d *Debouncer) key(sink, profileID string) string {
	return fmt.Sprintf("sync:debounce:%s:%s", sink, profileID)
}
