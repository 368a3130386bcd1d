package ports

import (
	"context"
	"time"

	"github.com/frs/profile-directory/internal/core/domain"
)

// ProfileListener receives a one-way copy of every saved profile.
type ProfileListener interface {
	Name() string
	OnProfileSaved(ctx context.Context, p *domain.Profile) error
}

// ProfileRemover is implemented by listeners that keep per-profile state
// which must be dropped when the profile is deleted.
type ProfileRemover interface {
	OnProfileDeleted(ctx context.Context, profileID string) error
}

// SinkResult reports the outcome of one listener for one save.
type SinkResult struct {
	Sink    string
	Skipped bool
	Err     error
}

// SyncDispatcher fans a saved profile out to every registered listener.
// Listener failures are contained and never returned as an error.
type SyncDispatcher interface {
	Dispatch(ctx context.Context, p *domain.Profile) []SinkResult
	// DispatchDelete notifies every listener implementing ProfileRemover.
	DispatchDelete(ctx context.Context, profileID string) []SinkResult
}

// SyncStatusRepository stores per-profile, per-sink connection state.
type SyncStatusRepository interface {
	// Get returns a fresh disconnected status when nothing is stored.
	Get(ctx context.Context, profileID, sink string) (*domain.SyncStatus, error)
	Upsert(ctx context.Context, status *domain.SyncStatus) error
	// AppendError pushes onto the error ring buffer, keeping the newest
	// domain.MaxSyncErrors entries.
	AppendError(ctx context.Context, profileID, sink string, e domain.SyncError) error
	MarkSynced(ctx context.Context, profileID, sink string, at time.Time) error
	// DeleteForProfile drops every sink's status, stored API keys included.
	DeleteForProfile(ctx context.Context, profileID string) error
}

// Debouncer remembers recent successful syncs.
type Debouncer interface {
	Recent(ctx context.Context, sink, profileID string) (bool, error)
	Mark(ctx context.Context, sink, profileID string, window time.Duration) error
}

// CRMAccount identifies the account behind an API key.
type CRMAccount struct {
	ID    string
	Name  string
	Email string
}

// CRMContact is the contact upserted for a profile, keyed by email.
type CRMContact struct {
	FirstName string
	LastName  string
	Email     string
	Phones    []string
	Tags      []string
	Source    string
}

// CRMLead is an inbound lead forwarded to the CRM events endpoint.
type CRMLead struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Message   string
	Source    string
	PageURL   string
}

// CRMClient talks to the CRM REST API. 401/403 responses are reported as
// domain.ErrCredentialsRevoked.
type CRMClient interface {
	Me(ctx context.Context, apiKey string) (*CRMAccount, error)
	UpsertContact(ctx context.Context, apiKey string, contact CRMContact) (string, error)
	SendEvent(ctx context.Context, apiKey string, lead CRMLead) error
}

// MirrorWriter upserts the flattened attribute map keyed by profile id.
type MirrorWriter interface {
	Mirror(ctx context.Context, profileID string, fields map[string]string) error
	Remove(ctx context.Context, profileID string) error
}

// ClaimsStore keeps the latest claim snapshot per profile.
type ClaimsStore interface {
	Put(ctx context.Context, profileID string, claims map[string]any) error
	// Get returns nil, nil when no snapshot exists.
	Get(ctx context.Context, profileID string) (map[string]any, error)
	Delete(ctx context.Context, profileID string) error
}

// EventPublisher publishes keyed messages to an event stream.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// ResyncEnqueuer schedules profiles for a background resync. EnqueueBatch
// returns without waiting for the ids to be consumed.
type ResyncEnqueuer interface {
	EnqueueBatch(profileIDs []string) error
}
