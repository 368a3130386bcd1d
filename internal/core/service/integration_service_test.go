package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

const validAPIKey = "fka_0123456789abcdefghij"

type memStatusRepo struct {
	statuses map[string]domain.SyncStatus
}

func newMemStatusRepo() *memStatusRepo {
	return &memStatusRepo{statuses: make(map[string]domain.SyncStatus)}
}

func (r *memStatusRepo) Get(_ context.Context, profileID, sink string) (*domain.SyncStatus, error) {
	if s, ok := r.statuses[profileID+"/"+sink]; ok {
		s.Errors = append([]domain.SyncError{}, s.Errors...)
		return &s, nil
	}
	return domain.NewSyncStatus(profileID, sink), nil
}

func (r *memStatusRepo) Upsert(_ context.Context, status *domain.SyncStatus) error {
	r.statuses[status.ProfileID+"/"+status.Sink] = *status
	return nil
}

func (r *memStatusRepo) AppendError(ctx context.Context, profileID, sink string, e domain.SyncError) error {
	s, _ := r.Get(ctx, profileID, sink)
	s.AppendError(e)
	return r.Upsert(ctx, s)
}

func (r *memStatusRepo) MarkSynced(ctx context.Context, profileID, sink string, at time.Time) error {
	s, _ := r.Get(ctx, profileID, sink)
	s.LastSyncedAt = at
	return r.Upsert(ctx, s)
}

func (r *memStatusRepo) DeleteForProfile(_ context.Context, profileID string) error {
	for key, s := range r.statuses {
		if s.ProfileID == profileID {
			delete(r.statuses, key)
		}
	}
	return nil
}

type stubCRM struct {
	meErr    error
	eventErr error
	leads    []ports.CRMLead
}

func (c *stubCRM) Me(context.Context, string) (*ports.CRMAccount, error) {
	if c.meErr != nil {
		return nil, c.meErr
	}
	return &ports.CRMAccount{ID: "acct-1", Name: "Jane's CRM"}, nil
}

func (c *stubCRM) UpsertContact(context.Context, string, ports.CRMContact) (string, error) {
	return "contact-1", nil
}

func (c *stubCRM) SendEvent(_ context.Context, _ string, lead ports.CRMLead) error {
	if c.eventErr != nil {
		return c.eventErr
	}
	c.leads = append(c.leads, lead)
	return nil
}

func newIntegrationServiceUnderTest(t *testing.T) (*IntegrationService, *memStatusRepo, *stubCRM, string) {
	t.Helper()
	profiles := newStubProfileRepo()
	p, err := profiles.Create(context.Background(), &domain.Identity{Email: "jane@example.com"}, &domain.Profile{Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	statuses := newMemStatusRepo()
	crm := &stubCRM{}
	svc := NewIntegrationService(statuses, crm, profiles, &recordingActivity{}, zerolog.Nop())
	return svc, statuses, crm, p.ID
}

func TestIntegrationService_ConnectAndDisconnect(t *testing.T) {
	svc, statuses, _, id := newIntegrationServiceUnderTest(t)
	ctx := context.Background()

	status, err := svc.Connect(ctx, id, id, domain.SinkFollowUpBoss, "  "+validAPIKey+" ")
	if err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	if !status.Connected() || status.AccountID != "acct-1" || status.APIKey != validAPIKey {
		t.Fatalf("unexpected status after connect: %+v", status)
	}
	stored := statuses.statuses[id+"/"+domain.SinkFollowUpBoss]
	if stored.State != domain.SyncConnected {
		t.Fatalf("expected stored state connected, got %s", stored.State)
	}

	status, err = svc.Disconnect(ctx, id, id, domain.SinkFollowUpBoss)
	if err != nil {
		t.Fatalf("Disconnect returned error: %v", err)
	}
	if status.Connected() || status.APIKey != "" || len(status.Errors) != 0 {
		t.Fatalf("disconnect left credentials behind: %+v", status)
	}
}

func TestIntegrationService_ConnectValidation(t *testing.T) {
	svc, _, _, id := newIntegrationServiceUnderTest(t)
	ctx := context.Background()

	if _, err := svc.Connect(ctx, id, id, domain.SinkFollowUpBoss, "short"); !errors.Is(err, domain.ErrInvalidAPIKey) {
		t.Fatalf("expected ErrInvalidAPIKey for short key, got %v", err)
	}
	if _, err := svc.Connect(ctx, id, id, domain.SinkFollowUpBoss, "fka_0123456789 abcdefghij"); !errors.Is(err, domain.ErrInvalidAPIKey) {
		t.Fatalf("expected ErrInvalidAPIKey for key with spaces, got %v", err)
	}
	if _, err := svc.Connect(ctx, id, id, domain.SinkMetaMirror, validAPIKey); err != domain.ErrUnknownSink {
		t.Fatalf("expected ErrUnknownSink for non-connectable sink, got %v", err)
	}
	if _, err := svc.Connect(ctx, "x", "missing", domain.SinkFollowUpBoss, validAPIKey); err != domain.ErrProfileNotFound {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestIntegrationService_ConnectRejectedKey(t *testing.T) {
	svc, _, crm, id := newIntegrationServiceUnderTest(t)
	crm.meErr = domain.ErrCredentialsRevoked

	status, err := svc.Connect(context.Background(), id, id, domain.SinkFollowUpBoss, validAPIKey)
	if err != domain.ErrInvalidAPIKey {
		t.Fatalf("expected ErrInvalidAPIKey, got %v", err)
	}
	if status.State != domain.SyncDisconnected || len(status.Errors) != 1 || status.APIKey != "" {
		t.Fatalf("unexpected status after rejected key: %+v", status)
	}
}

func TestIntegrationService_Test(t *testing.T) {
	svc, _, crm, id := newIntegrationServiceUnderTest(t)
	ctx := context.Background()

	if _, err := svc.Test(ctx, id, domain.SinkFollowUpBoss); err != domain.ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}

	if _, err := svc.Connect(ctx, id, id, domain.SinkFollowUpBoss, validAPIKey); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	status, err := svc.Test(ctx, id, domain.SinkFollowUpBoss)
	if err != nil || !status.Connected() {
		t.Fatalf("expected healthy connection, got %+v (%v)", status, err)
	}

	crm.meErr = errors.New("crm timeout")
	status, err = svc.Test(ctx, id, domain.SinkFollowUpBoss)
	if err == nil {
		t.Fatalf("expected transient error to be returned")
	}
	if !status.Connected() || len(status.Errors) != 1 {
		t.Fatalf("transient failure should keep the connection and record an error: %+v", status)
	}

	crm.meErr = domain.ErrCredentialsRevoked
	status, err = svc.Test(ctx, id, domain.SinkFollowUpBoss)
	if err != nil {
		t.Fatalf("revocation is reported through the status, got %v", err)
	}
	if status.Connected() || len(status.Errors) != 2 {
		t.Fatalf("expected revoked credentials to disconnect: %+v", status)
	}
}

func TestIntegrationService_Status(t *testing.T) {
	svc, _, _, id := newIntegrationServiceUnderTest(t)

	status, err := svc.Status(context.Background(), id, domain.SinkMetaMirror)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status.State != domain.SyncDisconnected || status.Errors == nil {
		t.Fatalf("expected fresh disconnected status, got %+v", status)
	}
	if _, err := svc.Status(context.Background(), id, "myspace"); err != domain.ErrUnknownSink {
		t.Fatalf("expected ErrUnknownSink, got %v", err)
	}
}

func TestIntegrationService_SubmitLead(t *testing.T) {
	svc, statuses, crm, id := newIntegrationServiceUnderTest(t)
	ctx := context.Background()
	lead := ports.CRMLead{FirstName: "Sam", LastName: "Buyer", Email: "sam@example.com"}

	if err := svc.SubmitLead(ctx, id, lead); err != domain.ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}

	if _, err := svc.Connect(ctx, id, id, domain.SinkFollowUpBoss, validAPIKey); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	if err := svc.SubmitLead(ctx, id, lead); err != nil {
		t.Fatalf("SubmitLead returned error: %v", err)
	}
	if len(crm.leads) != 1 || crm.leads[0].Email != "sam@example.com" {
		t.Fatalf("lead not forwarded: %+v", crm.leads)
	}

	crm.eventErr = domain.ErrCredentialsRevoked
	if err := svc.SubmitLead(ctx, id, lead); !errors.Is(err, domain.ErrCredentialsRevoked) {
		t.Fatalf("expected ErrCredentialsRevoked, got %v", err)
	}
	stored := statuses.statuses[id+"/"+domain.SinkFollowUpBoss]
	if stored.State != domain.SyncDisconnected || len(stored.Errors) != 1 {
		t.Fatalf("expected revoked lead to disconnect and record error: %+v", stored)
	}
}

func TestIntegrationService_UnknownProfile(t *testing.T) {
	svc, statuses, _, _ := newIntegrationServiceUnderTest(t)
	ctx := context.Background()

	if _, err := svc.Disconnect(ctx, "", "404", domain.SinkFollowUpBoss); err != domain.ErrProfileNotFound {
		t.Fatalf("Disconnect: expected ErrProfileNotFound, got %v", err)
	}
	if _, err := svc.Test(ctx, "404", domain.SinkFollowUpBoss); err != domain.ErrProfileNotFound {
		t.Fatalf("Test: expected ErrProfileNotFound, got %v", err)
	}
	if len(statuses.statuses) != 0 {
		t.Fatalf("expected no status written for an unknown profile, got %v", statuses.statuses)
	}
}
