package ports

import (
	"context"

	"github.com/frs/profile-directory/internal/core/domain"
)

type ActivityService interface {
	Log(ctx context.Context, entry domain.ActivityEntry) (string, error)
	GetForUser(ctx context.Context, ownerID string, page, perPage int) (*domain.ActivityPage, error)
}
