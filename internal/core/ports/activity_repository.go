package ports

import (
	"context"

	"github.com/frs/profile-directory/internal/core/domain"
)

// ActivityRepository is append-only: there is no update or delete.
type ActivityRepository interface {
	// Insert stores the entry and returns its new id.
	Insert(ctx context.Context, entry *domain.ActivityEntry) (string, error)
	// ListByOwner returns entries newest first plus the owner's total count.
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]domain.ActivityEntry, int64, error)
}
