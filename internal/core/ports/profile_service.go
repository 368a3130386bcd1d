package ports

import (
	"context"

	"github.com/frs/profile-directory/internal/core/domain"
)

// CreateProfileInput carries the data needed to create an identity and its profile.
type CreateProfileInput struct {
	Email     string
	FirstName string
	LastName  string
	Role      string
	Profile   *domain.Profile // optional initial attributes
}

// ListProfilesInput carries the parameters for the list endpoints.
type ListProfilesInput struct {
	PersonType string
	Region     string
	Status     string
	Search     string
	Page       int
	Limit      int
	// PublicOnly restricts results to active profiles.
	PublicOnly bool
}

// ProfilePage is returned by List.
type ProfilePage struct {
	Items      []*domain.Profile
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ProfileService defines the profile use cases.
type ProfileService interface {
	Find(ctx context.Context, id string) (*domain.Profile, error)
	FindByEmail(ctx context.Context, email string) (*domain.Profile, error)
	// FindBySlug falls back from the canonical slug to the custom slug override.
	FindBySlug(ctx context.Context, slug string) (*domain.Profile, error)
	Create(ctx context.Context, actorID string, input CreateProfileInput) (*domain.Profile, error)
	// Save rewrites every tracked attribute and notifies the sync sinks.
	Save(ctx context.Context, actorID string, p *domain.Profile) error
	Delete(ctx context.Context, actorID, id string) error
	List(ctx context.Context, input ListProfilesInput) (*ProfilePage, error)
	GenerateUniqueSlug(ctx context.Context, first, last, excludeID string) (string, error)
	AllIDs(ctx context.Context) ([]string, error)
}

// ProfileResyncer re-runs the sink fan-out for a stored profile.
type ProfileResyncer interface {
	Resync(ctx context.Context, profileID string) error
}
