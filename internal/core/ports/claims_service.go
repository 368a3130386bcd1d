package ports

import (
	"context"

	"github.com/frs/profile-directory/internal/core/domain"
)

// ClaimsService exposes profile data as OIDC claims keyed by scope.
type ClaimsService interface {
	Build(p *domain.Profile) map[string]any
	ClaimsFor(ctx context.Context, profileID string, scopes []string) (map[string]any, error)
}
