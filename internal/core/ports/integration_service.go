package ports

import (
	"context"

	"github.com/frs/profile-directory/internal/core/domain"
)

// IntegrationService manages per-profile sink connections.
type IntegrationService interface {
	Status(ctx context.Context, profileID, sink string) (*domain.SyncStatus, error)
	Connect(ctx context.Context, actorID, profileID, sink, apiKey string) (*domain.SyncStatus, error)
	Disconnect(ctx context.Context, actorID, profileID, sink string) (*domain.SyncStatus, error)
	Test(ctx context.Context, profileID, sink string) (*domain.SyncStatus, error)
	SubmitLead(ctx context.Context, profileID string, lead CRMLead) error
}
