package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

// ClaimsMapping maps an OIDC scope to the claim names it releases.
type ClaimsMapping map[string][]string

// DefaultClaimsMapping is used when no mapping file is configured.
func DefaultClaimsMapping() ClaimsMapping {
	return ClaimsMapping{
		"openid":  {"sub"},
		"profile": {"name", "given_name", "family_name", "nickname", "preferred_username", "picture", "website", "updated_at"},
		"email":   {"email"},
		"phone":   {"phone_number"},
		"frs":     {"nmls", "job_title", "person_type", "region", "company", "profile_url"},
	}
}

// ClaimsService builds claim snapshots and filters them by requested scope.
type ClaimsService struct {
	profiles      ports.ProfileRepository
	store         ports.ClaimsStore
	mapping       ClaimsMapping
	media         domain.MediaResolver
	publicBaseURL string
	logger        zerolog.Logger
}

func NewClaimsService(
	profiles ports.ProfileRepository,
	store ports.ClaimsStore,
	mapping ClaimsMapping,
	media domain.MediaResolver,
	publicBaseURL string,
	logger zerolog.Logger,
) *ClaimsService {
	if len(mapping) == 0 {
		mapping = DefaultClaimsMapping()
	}
	return &ClaimsService{
		profiles:      profiles,
		store:         store,
		mapping:       mapping,
		media:         media,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

// Build returns every claim the profile can provide. Empty values are omitted.
func (s *ClaimsService) Build(p *domain.Profile) map[string]any {
	claims := map[string]any{"sub": p.ID}
	put := func(name, value string) {
		if value = strings.TrimSpace(value); value != "" {
			claims[name] = value
		}
	}

	put("name", p.FullName())
	put("given_name", p.FirstName)
	put("family_name", p.LastName)
	put("nickname", p.Slug)
	put("preferred_username", p.PublicSlug())
	put("picture", p.AvatarURL(s.media))
	put("website", p.Website)
	put("email", p.Email)

	phone := p.PhoneNumber
	if phone == "" {
		phone = p.MobileNumber
	}
	put("phone_number", phone)
	put("nmls", p.NMLS)
	put("job_title", p.JobTitle)
	put("person_type", p.PersonType)
	put("region", p.Region)
	put("company", p.Company)
	if s.publicBaseURL != "" && p.PublicSlug() != "" {
		claims["profile_url"] = s.publicBaseURL + "/" + p.PublicSlug()
	}
	if !p.UpdatedAt.IsZero() {
		claims["updated_at"] = p.UpdatedAt.Unix()
	}
	return claims
}

// ClaimsFor returns the claims released by scopes. The stored snapshot is
// preferred; without one the profile is loaded and the snapshot rebuilt.
func (s *ClaimsService) ClaimsFor(ctx context.Context, profileID string, scopes []string) (map[string]any, error) {
	snapshot, err := s.store.Get(ctx, profileID)
	if err != nil {
		s.logger.Warn().Err(err).Str("profile_id", profileID).Msg("claims snapshot read failed, rebuilding")
	}
	if snapshot == nil {
		p, err := s.profiles.FindByID(ctx, profileID)
		if err != nil {
			return nil, fmt.Errorf("claims: %w", err)
		}
		snapshot = s.Build(p)
		if err := s.store.Put(ctx, profileID, snapshot); err != nil {
			s.logger.Warn().Err(err).Str("profile_id", profileID).Msg("claims snapshot write failed")
		}
	}

	allowed := make(map[string]struct{})
	for _, scope := range scopes {
		for _, name := range s.mapping[strings.TrimSpace(scope)] {
			allowed[name] = struct{}{}
		}
	}

	out := make(map[string]any, len(allowed))
	for name := range allowed {
		if v, ok := snapshot[name]; ok {
			out[name] = v
		}
	}
	return out, nil
}
