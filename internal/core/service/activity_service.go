package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
	"github.com/frs/profile-directory/internal/metrics"
)

// ActivityService appends to and pages through the audit trail. There is no
// update or delete path.
type ActivityService struct {
	repo   ports.ActivityRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewActivityService(repo ports.ActivityRepository, logger zerolog.Logger) *ActivityService {
	return &ActivityService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Log inserts a single entry and returns its id.
func (s *ActivityService) Log(ctx context.Context, entry domain.ActivityEntry) (string, error) {
	if !entry.Valid() {
		return "", domain.ErrInvalidActivity
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	id, err := s.repo.Insert(ctx, &entry)
	if err != nil {
		return "", fmt.Errorf("log activity: %w", err)
	}
	metrics.ActivityEntriesTotal.WithLabelValues(entry.Action).Inc()

	s.logger.Debug().
		Str("owner_id", entry.OwnerID).
		Str("action", entry.Action).
		Str("activity_id", id).
		Msg("activity recorded")
	return id, nil
}

// GetForUser returns one page of the owner's entries, newest first.
func (s *ActivityService) GetForUser(ctx context.Context, ownerID string, page, perPage int) (*domain.ActivityPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPageLimit
	}
	if perPage > maxPageLimit {
		perPage = maxPageLimit
	}

	entries, total, err := s.repo.ListByOwner(ctx, ownerID, (page-1)*perPage, perPage)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	if entries == nil {
		entries = []domain.ActivityEntry{}
	}

	return &domain.ActivityPage{
		Data:    entries,
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   domain.PageCount(total, perPage),
	}, nil
}
