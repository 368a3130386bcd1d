package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
	"github.com/frs/profile-directory/internal/metrics"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxSlugSuffix    = 10000
)

type ProfileService struct {
	repo       ports.ProfileRepository
	activity   ports.ActivityService
	dispatcher ports.SyncDispatcher
	logger     zerolog.Logger
	now        func() time.Time
}

func NewProfileService(
	repo ports.ProfileRepository,
	activity ports.ActivityService,
	dispatcher ports.SyncDispatcher,
	logger zerolog.Logger,
) *ProfileService {
	return &ProfileService{
		repo:       repo,
		activity:   activity,
		dispatcher: dispatcher,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Find loads a profile by identity id. Missing attributes come back empty.
func (s *ProfileService) Find(ctx context.Context, id string) (*domain.Profile, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrProfileNotFound
	}
	return s.repo.FindByID(ctx, id)
}

func (s *ProfileService) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.ErrProfileNotFound
	}
	return s.repo.FindByEmail(ctx, email)
}

// FindBySlug looks up the canonical slug first and falls back to the custom
// slug override.
func (s *ProfileService) FindBySlug(ctx context.Context, slug string) (*domain.Profile, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, domain.ErrProfileNotFound
	}

	p, err := s.repo.FindBySlug(ctx, slug)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, err
	}
	return s.repo.FindByAttribute(ctx, domain.KeyCustomSlug, slug)
}

// GenerateUniqueSlug slugifies the name and appends -1, -2, … until no
// identity other than excludeID holds the candidate.
func (s *ProfileService) GenerateUniqueSlug(ctx context.Context, first, last, excludeID string) (string, error) {
	base := domain.Slugify(first, last)
	if base == "" {
		base = "profile"
	}

	candidate := base
	for i := 1; i <= maxSlugSuffix; i++ {
		taken, err := s.repo.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("generate slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("generate slug: %w (%s)", domain.ErrSlugTaken, base)
}

// Create inserts a new identity and its profile.
func (s *ProfileService) Create(ctx context.Context, actorID string, in ports.CreateProfileInput) (*domain.Profile, error) {
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = domain.RoleMember
	}
	if role != domain.RoleAdmin && role != domain.RoleMember {
		return nil, fmt.Errorf("create profile: unknown role %q: %w", role, domain.ErrInvalidCredentials)
	}

	p := in.Profile
	if p == nil {
		p = domain.NewProfile("")
	}
	if in.FirstName != "" {
		p.FirstName = in.FirstName
	}
	if in.LastName != "" {
		p.LastName = in.LastName
	}
	p.EnsureCollections()

	slug, err := s.GenerateUniqueSlug(ctx, p.FirstName, p.LastName, "")
	if err != nil {
		return nil, err
	}

	now := s.now()
	p.Email = email
	p.Slug = slug
	if p.DisplayName == "" {
		p.DisplayName = p.FullName()
	}
	if p.DisplayName == "" {
		p.DisplayName = email
	}
	p.CreatedAt, p.UpdatedAt = now, now

	identity := &domain.Identity{
		Username:    email,
		Email:       email,
		DisplayName: p.DisplayName,
		Slug:        slug,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Create(ctx, identity, p)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("profile create failed")
		return nil, err
	}
	metrics.ProfilesCreatedTotal.Inc()

	s.logger.Info().Str("profile_id", created.ID).Str("slug", created.Slug).Msg("profile created")
	s.record(ctx, domain.ActivityEntry{
		OwnerID:    created.ID,
		ActorID:    actorID,
		Action:     domain.ActionProfileCreated,
		EntityType: "profile",
		EntityID:   created.ID,
		Summary:    fmt.Sprintf("Profile %s created", created.FullName()),
	})
	s.dispatch(ctx, created)

	return created, nil
}

// Save rewrites the identity fields and the full tracked attribute set in one
// atomic repository call. Sink failures never change the result.
func (s *ProfileService) Save(ctx context.Context, actorID string, p *domain.Profile) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return domain.ErrProfileNotFound
	}

	email, err := validateEmail(p.Email)
	if err != nil {
		metrics.ProfileSavesTotal.WithLabelValues("invalid").Inc()
		return err
	}
	p.Email = email

	if other, err := s.repo.FindByEmail(ctx, email); err == nil && other.ID != p.ID {
		metrics.ProfileSavesTotal.WithLabelValues("conflict").Inc()
		return domain.ErrEmailTaken
	} else if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		metrics.ProfileSavesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("save profile: %w", err)
	}

	if p.Slug == "" {
		slug, err := s.GenerateUniqueSlug(ctx, p.FirstName, p.LastName, p.ID)
		if err != nil {
			metrics.ProfileSavesTotal.WithLabelValues("error").Inc()
			return err
		}
		p.Slug = slug
	}

	p.CustomSlug = domain.Slugify(p.CustomSlug)
	if p.CustomSlug != "" {
		taken, err := s.repo.SlugExists(ctx, p.CustomSlug, p.ID)
		if err != nil {
			metrics.ProfileSavesTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("save profile: %w", err)
		}
		if taken {
			metrics.ProfileSavesTotal.WithLabelValues("conflict").Inc()
			return domain.ErrSlugTaken
		}
	}

	if p.DisplayName == "" {
		p.DisplayName = p.FullName()
	}
	p.EnsureCollections()
	p.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, p); err != nil {
		result := "error"
		if errors.Is(err, domain.ErrEmailTaken) || errors.Is(err, domain.ErrSlugTaken) {
			result = "conflict"
		}
		metrics.ProfileSavesTotal.WithLabelValues(result).Inc()
		s.logger.Warn().Err(err).Str("profile_id", p.ID).Msg("profile save failed")
		return err
	}
	metrics.ProfileSavesTotal.WithLabelValues("ok").Inc()

	s.logger.Info().Str("profile_id", p.ID).Str("actor_id", actorID).Msg("profile saved")
	s.record(ctx, domain.ActivityEntry{
		OwnerID:    p.ID,
		ActorID:    actorID,
		Action:     domain.ActionProfileUpdated,
		EntityType: "profile",
		EntityID:   p.ID,
		Summary:    "Profile updated",
	})
	s.dispatch(ctx, p)

	return nil
}

// Delete removes the identity together with its attribute rows.
func (s *ProfileService) Delete(ctx context.Context, actorID, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("profile_id", id).Str("actor_id", actorID).Msg("profile deleted")
	if s.dispatcher != nil {
		s.dispatcher.DispatchDelete(ctx, id)
	}
	if actorID != "" && actorID != id {
		s.record(ctx, domain.ActivityEntry{
			OwnerID:    actorID,
			ActorID:    actorID,
			Action:     domain.ActionProfileDeleted,
			EntityType: "profile",
			EntityID:   id,
			Summary:    "Profile deleted",
		})
	}
	return nil
}

// List returns a filtered, paginated page of profiles.
func (s *ProfileService) List(ctx context.Context, in ports.ListProfilesInput) (*ports.ProfilePage, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	status := in.Status
	if in.PublicOnly {
		status = domain.ProfileStatusActive
	}

	items, total, err := s.repo.List(ctx, ports.ListProfilesFilter{
		PersonType: in.PersonType,
		Region:     in.Region,
		Status:     status,
		Search:     strings.TrimSpace(in.Search),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	if items == nil {
		items = []*domain.Profile{}
	}

	return &ports.ProfilePage{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: domain.PageCount(total, limit),
	}, nil
}

func (s *ProfileService) AllIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListIDs(ctx)
}

// Resync re-runs the sink fan-out for a stored profile.
func (s *ProfileService) Resync(ctx context.Context, profileID string) error {
	p, err := s.repo.FindByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("resync %s: %w", profileID, err)
	}
	s.dispatch(ctx, p)
	return nil
}

func (s *ProfileService) dispatch(ctx context.Context, p *domain.Profile) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(ctx, p)
}

// record writes an activity entry. Failures are logged, never returned.
func (s *ProfileService) record(ctx context.Context, entry domain.ActivityEntry) {
	if s.activity == nil {
		return
	}
	if _, err := s.activity.Log(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("profile_id", entry.OwnerID).Str("action", entry.Action).Msg("failed to record activity")
	}
}

func validateEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", domain.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.ErrInvalidEmail
	}
	return domain.NormalizeEmail(email), nil
}
