package ports

import (
	"context"

	"github.com/frs/profile-directory/internal/core/domain"
)

// AuthRepository defines the identity lookups needed for authentication.
type AuthRepository interface {
	FindIdentityByEmail(ctx context.Context, email string) (*domain.Identity, error)
	Create(ctx context.Context, identity *domain.Identity, p *domain.Profile) (*domain.Profile, error)
}
