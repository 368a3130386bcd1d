package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
	"github.com/frs/profile-directory/internal/metrics"
)

// DefaultDebounceWindow absorbs rapid repeated saves of the same profile.
const DefaultDebounceWindow = 5 * time.Second

// CRMSink upserts the profile as a CRM contact, keyed by email, using the
// profile's own connected credentials.
type CRMSink struct {
	client   ports.CRMClient
	statuses ports.SyncStatusRepository
	debounce ports.Debouncer
	window   time.Duration
	source   string
	log      zerolog.Logger
	now      func() time.Time
}

// NewCRMSink returns a CRMSink. A non-positive window uses DefaultDebounceWindow.
func NewCRMSink(
	client ports.CRMClient,
	statuses ports.SyncStatusRepository,
	debounce ports.Debouncer,
	window time.Duration,
	source string,
	log zerolog.Logger,
) *CRMSink {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &CRMSink{
		client:   client,
		statuses: statuses,
		debounce: debounce,
		window:   window,
		source:   source,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *CRMSink) Name() string { return domain.SinkFollowUpBoss }

func (s *CRMSink) OnProfileSaved(ctx context.Context, p *domain.Profile) error {
	status, err := s.statuses.Get(ctx, p.ID, s.Name())
	if err != nil {
		return fmt.Errorf("load sync status: %w", err)
	}
	if !status.Connected() {
		return fmt.Errorf("%w: not connected", ErrSkipped)
	}
	if p.Email == "" {
		return fmt.Errorf("%w: profile has no email", ErrSkipped)
	}

	recent, err := s.debounce.Recent(ctx, s.Name(), p.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("profile_id", p.ID).Msg("debounce check failed, syncing anyway")
	} else if recent {
		metrics.SinkDebouncedTotal.WithLabelValues(s.Name()).Inc()
		return fmt.Errorf("%w: synced within %s", ErrSkipped, s.window)
	}

	contactID, err := s.client.UpsertContact(ctx, status.APIKey, contactFromProfile(p, s.source))
	if err != nil {
		if errors.Is(err, domain.ErrCredentialsRevoked) {
			s.revoke(ctx, status)
		}
		return fmt.Errorf("upsert contact: %w", err)
	}

	if err := s.statuses.MarkSynced(ctx, p.ID, s.Name(), s.now()); err != nil {
		s.log.Warn().Err(err).Str("profile_id", p.ID).Msg("failed to mark profile synced")
	}
	if err := s.debounce.Mark(ctx, s.Name(), p.ID, s.window); err != nil {
		s.log.Warn().Err(err).Str("profile_id", p.ID).Msg("failed to set debounce marker")
	}

	s.log.Info().Str("profile_id", p.ID).Str("contact_id", contactID).Msg("crm contact upserted")
	return nil
}

// revoke drops the status back to disconnected; later saves skip the sink
// until the profile reconnects.
func (s *CRMSink) revoke(ctx context.Context, status *domain.SyncStatus) {
	if err := status.Transition(domain.SyncDisconnected); err != nil {
		return
	}
	status.UpdatedAt = s.now()
	if err := s.statuses.Upsert(ctx, status); err != nil {
		s.log.Warn().Err(err).Str("profile_id", status.ProfileID).Msg("failed to persist revoked credentials")
		return
	}
	s.log.Warn().Str("profile_id", status.ProfileID).Str("sink", s.Name()).Msg("crm credentials revoked, sink disconnected")
}

func contactFromProfile(p *domain.Profile, source string) ports.CRMContact {
	c := ports.CRMContact{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Source:    source,
	}
	for _, phone := range []string{p.PhoneNumber, p.MobileNumber} {
		if phone != "" {
			c.Phones = append(c.Phones, phone)
		}
	}
	if p.PersonType != "" {
		c.Tags = append(c.Tags, p.PersonType)
	}
	if p.Region != "" {
		c.Tags = append(c.Tags, p.Region)
	}
	return c
}
