package ports

import (
	"context"

	"github.com/frs/profile-directory/internal/core/domain"
)

// ListProfilesFilter carries the query parameters for listing profiles.
type ListProfilesFilter struct {
	PersonType string // optional: exact match on the person type attribute
	Region     string // optional: exact match on the region attribute
	Status     string // optional: exact match on the status attribute
	Search     string // optional: partial match on display name or email
	Page       int    // 1-based
	Limit      int    // capped at 100 by the service
}

// ProfileRepository persists identities and their attribute rows.
//
// Save and Delete are atomic: the identity record and every attribute row are
// written (or removed) together or not at all.
type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Profile, error)
	FindByEmail(ctx context.Context, email string) (*domain.Profile, error)
	// FindBySlug matches the canonical identity slug only.
	FindBySlug(ctx context.Context, slug string) (*domain.Profile, error)
	// FindByAttribute returns the first profile whose attribute key equals value.
	FindByAttribute(ctx context.Context, key, value string) (*domain.Profile, error)
	// SlugExists reports whether an identity other than excludeID holds slug.
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	// Create inserts the identity and the profile attributes, assigning the ID.
	Create(ctx context.Context, identity *domain.Identity, p *domain.Profile) (*domain.Profile, error)
	// Save rewrites the identity-level fields and the full attribute set.
	Save(ctx context.Context, p *domain.Profile) error
	// Delete removes the identity and cascades to its attribute rows.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListProfilesFilter) ([]*domain.Profile, int64, error)
	ListIDs(ctx context.Context) ([]string, error)
}
