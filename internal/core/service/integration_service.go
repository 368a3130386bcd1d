package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

const (
	minAPIKeyLength = 20
	maxAPIKeyLength = 128
)

var knownSinks = map[string]struct{}{
	domain.SinkFollowUpBoss: {},
	domain.SinkMetaMirror:   {},
	domain.SinkClaims:       {},
	domain.SinkEventStream:  {},
}

// IntegrationService drives the per-profile connection state machine:
// disconnected → connecting → connected, and back to disconnected on an
// explicit disconnect or revoked credentials. There is no timed retry.
type IntegrationService struct {
	statuses ports.SyncStatusRepository
	crm      ports.CRMClient
	profiles ports.ProfileRepository
	activity ports.ActivityService
	logger   zerolog.Logger
	now      func() time.Time
}

func NewIntegrationService(
	statuses ports.SyncStatusRepository,
	crm ports.CRMClient,
	profiles ports.ProfileRepository,
	activity ports.ActivityService,
	logger zerolog.Logger,
) *IntegrationService {
	return &IntegrationService{
		statuses: statuses,
		crm:      crm,
		profiles: profiles,
		activity: activity,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Status returns the connection state and recent errors of a sink.
func (s *IntegrationService) Status(ctx context.Context, profileID, sink string) (*domain.SyncStatus, error) {
	if _, ok := knownSinks[sink]; !ok {
		return nil, domain.ErrUnknownSink
	}
	if _, err := s.profiles.FindByID(ctx, profileID); err != nil {
		return nil, err
	}
	return s.statuses.Get(ctx, profileID, sink)
}

// Connect validates apiKey against the CRM and stores it on success.
func (s *IntegrationService) Connect(ctx context.Context, actorID, profileID, sink, apiKey string) (*domain.SyncStatus, error) {
	if !domain.IsConnectableSink(sink) {
		return nil, domain.ErrUnknownSink
	}
	apiKey = strings.TrimSpace(apiKey)
	if err := validateAPIKey(apiKey); err != nil {
		return nil, err
	}
	if _, err := s.profiles.FindByID(ctx, profileID); err != nil {
		return nil, err
	}

	status, err := s.statuses.Get(ctx, profileID, sink)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", sink, err)
	}
	if err := status.Transition(domain.SyncConnecting); err != nil {
		return nil, err
	}
	if err := s.save(ctx, status); err != nil {
		return nil, err
	}

	account, err := s.crm.Me(ctx, apiKey)
	if err != nil {
		_ = status.Transition(domain.SyncDisconnected)
		status.AppendError(domain.SyncError{At: s.now(), Message: "connect: " + err.Error()})
		if saveErr := s.save(ctx, status); saveErr != nil {
			s.logger.Warn().Err(saveErr).Str("profile_id", profileID).Msg("failed to persist failed connect")
		}
		if errors.Is(err, domain.ErrCredentialsRevoked) {
			return status, domain.ErrInvalidAPIKey
		}
		return status, fmt.Errorf("connect %s: %w", sink, err)
	}

	status.APIKey = apiKey
	status.AccountID = account.ID
	if err := status.Transition(domain.SyncConnected); err != nil {
		return nil, err
	}
	if err := s.save(ctx, status); err != nil {
		return nil, err
	}

	s.logger.Info().Str("profile_id", profileID).Str("sink", sink).Str("account_id", account.ID).Msg("integration connected")
	s.record(ctx, actorID, profileID, domain.ActionIntegrationConnect, sink, "Connected "+sink)
	return status, nil
}

// Disconnect clears stored credentials and the error buffer.
func (s *IntegrationService) Disconnect(ctx context.Context, actorID, profileID, sink string) (*domain.SyncStatus, error) {
	if !domain.IsConnectableSink(sink) {
		return nil, domain.ErrUnknownSink
	}

	if _, err := s.profiles.FindByID(ctx, profileID); err != nil {
		return nil, err
	}

	status, err := s.statuses.Get(ctx, profileID, sink)
	if err != nil {
		return nil, fmt.Errorf("disconnect %s: %w", sink, err)
	}
	status.Reset()
	if err := s.save(ctx, status); err != nil {
		return nil, err
	}

	s.logger.Info().Str("profile_id", profileID).Str("sink", sink).Msg("integration disconnected")
	s.record(ctx, actorID, profileID, domain.ActionIntegrationDisconnect, sink, "Disconnected "+sink)
	return status, nil
}

// Test re-validates the stored credentials. Revoked credentials move the
// status to disconnected; the returned status carries the outcome.
func (s *IntegrationService) Test(ctx context.Context, profileID, sink string) (*domain.SyncStatus, error) {
	if !domain.IsConnectableSink(sink) {
		return nil, domain.ErrUnknownSink
	}

	if _, err := s.profiles.FindByID(ctx, profileID); err != nil {
		return nil, err
	}

	status, err := s.statuses.Get(ctx, profileID, sink)
	if err != nil {
		return nil, fmt.Errorf("test %s: %w", sink, err)
	}
	if !status.Connected() {
		return status, domain.ErrNotConnected
	}

	if _, err := s.crm.Me(ctx, status.APIKey); err != nil {
		status.AppendError(domain.SyncError{At: s.now(), Message: "test: " + err.Error()})
		if errors.Is(err, domain.ErrCredentialsRevoked) {
			_ = status.Transition(domain.SyncDisconnected)
		}
		if saveErr := s.save(ctx, status); saveErr != nil {
			return nil, saveErr
		}
		if errors.Is(err, domain.ErrCredentialsRevoked) {
			return status, nil
		}
		return status, fmt.Errorf("test %s: %w", sink, err)
	}
	return status, nil
}

// SubmitLead forwards an inbound lead to the profile's connected CRM.
func (s *IntegrationService) SubmitLead(ctx context.Context, profileID string, lead ports.CRMLead) error {
	if _, err := s.profiles.FindByID(ctx, profileID); err != nil {
		return err
	}

	status, err := s.statuses.Get(ctx, profileID, domain.SinkFollowUpBoss)
	if err != nil {
		return fmt.Errorf("submit lead: %w", err)
	}
	if !status.Connected() {
		return domain.ErrNotConnected
	}

	if err := s.crm.SendEvent(ctx, status.APIKey, lead); err != nil {
		if errors.Is(err, domain.ErrCredentialsRevoked) {
			_ = status.Transition(domain.SyncDisconnected)
			if saveErr := s.save(ctx, status); saveErr != nil {
				s.logger.Warn().Err(saveErr).Str("profile_id", profileID).Msg("failed to persist revoked credentials")
			}
		}
		if appendErr := s.statuses.AppendError(ctx, profileID, domain.SinkFollowUpBoss, domain.SyncError{
			At: s.now(), Message: "lead: " + err.Error(),
		}); appendErr != nil {
			s.logger.Warn().Err(appendErr).Str("profile_id", profileID).Msg("failed to record lead error")
		}
		return fmt.Errorf("submit lead: %w", err)
	}

	s.record(ctx, "", profileID, domain.ActionLeadReceived, "lead", "Lead received from "+strings.TrimSpace(lead.FirstName+" "+lead.LastName))
	return nil
}

func (s *IntegrationService) save(ctx context.Context, status *domain.SyncStatus) error {
	status.UpdatedAt = s.now()
	if err := s.statuses.Upsert(ctx, status); err != nil {
		return fmt.Errorf("save sync status: %w", err)
	}
	return nil
}

func (s *IntegrationService) record(ctx context.Context, actorID, profileID, action, entityType, summary string) {
	if s.activity == nil {
		return
	}
	_, err := s.activity.Log(ctx, domain.ActivityEntry{
		OwnerID:    profileID,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		Summary:    summary,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("profile_id", profileID).Str("action", action).Msg("failed to record activity")
	}
}

func validateAPIKey(key string) error {
	if len(key) < minAPIKeyLength || len(key) > maxAPIKeyLength {
		return fmt.Errorf("%w: must be %d-%d characters", domain.ErrInvalidAPIKey, minAPIKeyLength, maxAPIKeyLength)
	}
	for _, r := range key {
		if unicode.IsSpace(r) || r > unicode.MaxASCII {
			return fmt.Errorf("%w: unexpected character", domain.ErrInvalidAPIKey)
		}
	}
	return nil
}
