package ports

import (
	"context"
	"time"

	"github.com/frs/profile-directory/internal/core/domain"
)

// TaskInput carries the writable task fields.
type TaskInput struct {
	Title     string
	Notes     string
	DueAt     *time.Time
	Completed bool
}

type TaskService interface {
	Create(ctx context.Context, actorID, ownerID string, input TaskInput) (*domain.Task, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Task, error)
	List(ctx context.Context, ownerID string) ([]*domain.Task, error)
	Update(ctx context.Context, actorID, ownerID, id string, input TaskInput) (*domain.Task, error)
	Delete(ctx context.Context, actorID, ownerID, id string) error
}
