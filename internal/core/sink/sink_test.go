package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

type stubStatusRepo struct {
	mu       sync.Mutex
	statuses map[string]*domain.SyncStatus
}

func newStubStatusRepo() *stubStatusRepo {
	return &stubStatusRepo{statuses: make(map[string]*domain.SyncStatus)}
}

func statusKey(profileID, sink string) string { return profileID + "/" + sink }

func (r *stubStatusRepo) Get(_ context.Context, profileID, sink string) (*domain.SyncStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.statuses[statusKey(profileID, sink)]; ok {
		clone := *s
		clone.Errors = append([]domain.SyncError(nil), s.Errors...)
		return &clone, nil
	}
	return domain.NewSyncStatus(profileID, sink), nil
}

func (r *stubStatusRepo) Upsert(_ context.Context, s *domain.SyncStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *s
	r.statuses[statusKey(s.ProfileID, s.Sink)] = &clone
	return nil
}

func (r *stubStatusRepo) AppendError(ctx context.Context, profileID, sink string, e domain.SyncError) error {
	s, _ := r.Get(ctx, profileID, sink)
	s.AppendError(e)
	return r.Upsert(ctx, s)
}

func (r *stubStatusRepo) MarkSynced(ctx context.Context, profileID, sink string, at time.Time) error {
	s, _ := r.Get(ctx, profileID, sink)
	s.LastSyncedAt = at
	return r.Upsert(ctx, s)
}

func (r *stubStatusRepo) DeleteForProfile(_ context.Context, profileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, s := range r.statuses {
		if s.ProfileID == profileID {
			delete(r.statuses, key)
		}
	}
	return nil
}

type memDebouncer struct {
	marks map[string]time.Time
	now   func() time.Time
}

func newMemDebouncer() *memDebouncer {
	return &memDebouncer{marks: make(map[string]time.Time), now: time.Now}
}

func (d *memDebouncer) Recent(_ context.Context, sink, profileID string) (bool, error) {
	until, ok := d.marks[sink+":"+profileID]
	return ok && d.now().Before(until), nil
}

func (d *memDebouncer) Mark(_ context.Context, sink, profileID string, window time.Duration) error {
	d.marks[sink+":"+profileID] = d.now().Add(window)
	return nil
}

type stubCRM struct {
	upserts   int
	upsertErr error
	lastKey   string
	lastSent  ports.CRMContact
}

func (c *stubCRM) Me(context.Context, string) (*ports.CRMAccount, error) {
	return &ports.CRMAccount{ID: "acct_1"}, nil
}

func (c *stubCRM) UpsertContact(_ context.Context, apiKey string, contact ports.CRMContact) (string, error) {
	c.upserts++
	c.lastKey = apiKey
	c.lastSent = contact
	if c.upsertErr != nil {
		return "", c.upsertErr
	}
	return "contact_1", nil
}

func (c *stubCRM) SendEvent(context.Context, string, ports.CRMLead) error { return nil }

type funcListener struct {
	name  string
	fn    func(context.Context, *domain.Profile) error
	calls int
}

func (l *funcListener) Name() string { return l.name }

func (l *funcListener) OnProfileSaved(ctx context.Context, p *domain.Profile) error {
	l.calls++
	return l.fn(ctx, p)
}

type memMirror struct {
	rows map[string]map[string]string
}

func (m *memMirror) Mirror(_ context.Context, id string, fields map[string]string) error {
	if m.rows == nil {
		m.rows = make(map[string]map[string]string)
	}
	m.rows[id] = fields
	return nil
}

func (m *memMirror) Remove(_ context.Context, id string) error {
	delete(m.rows, id)
	return nil
}

func connectedStatus(t *testing.T, repo *stubStatusRepo, profileID string) {
	t.Helper()
	s := domain.NewSyncStatus(profileID, domain.SinkFollowUpBoss)
	s.State = domain.SyncConnected
	s.APIKey = "fka_0123456789abcdefghij"
	if err := repo.Upsert(context.Background(), s); err != nil {
		t.Fatalf("seed status: %v", err)
	}
}

func testProfile() *domain.Profile {
	p := domain.NewProfile("42")
	p.Email = "jane@example.com"
	p.FirstName = "Jane"
	p.LastName = "Doe"
	p.PhoneNumber = "555-0100"
	p.PersonType = "loan_officer"
	p.Slug = "jane-doe"
	return p
}

func TestCRMSink_SkipsWhenNotConnected(t *testing.T) {
	crm := &stubCRM{}
	s := NewCRMSink(crm, newStubStatusRepo(), newMemDebouncer(), 0, "directory", zerolog.Nop())

	err := s.OnProfileSaved(context.Background(), testProfile())
	if !errors.Is(err, ErrSkipped) {
		t.Fatalf("expected ErrSkipped, got %v", err)
	}
	if crm.upserts != 0 {
		t.Fatalf("expected no CRM calls, got %d", crm.upserts)
	}
}

func TestCRMSink_DebouncesRepeatedSaves(t *testing.T) {
	repo := newStubStatusRepo()
	connectedStatus(t, repo, "42")
	crm := &stubCRM{}
	deb := newMemDebouncer()
	s := NewCRMSink(crm, repo, deb, 5*time.Second, "directory", zerolog.Nop())
	p := testProfile()

	if err := s.OnProfileSaved(context.Background(), p); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.OnProfileSaved(context.Background(), p); !errors.Is(err, ErrSkipped) {
		t.Fatalf("second save: expected ErrSkipped, got %v", err)
	}
	if crm.upserts != 1 {
		t.Fatalf("expected exactly one CRM call, got %d", crm.upserts)
	}
	if crm.lastSent.Email != "jane@example.com" || len(crm.lastSent.Phones) != 1 {
		t.Fatalf("unexpected contact: %+v", crm.lastSent)
	}

	status, _ := repo.Get(context.Background(), "42", domain.SinkFollowUpBoss)
	if status.LastSyncedAt.IsZero() {
		t.Fatalf("expected last synced time to be recorded")
	}

	deb.now = func() time.Time { return time.Now().Add(6 * time.Second) }
	if err := s.OnProfileSaved(context.Background(), p); err != nil {
		t.Fatalf("save after window: %v", err)
	}
	if crm.upserts != 2 {
		t.Fatalf("expected a second CRM call after the window, got %d", crm.upserts)
	}
}

func TestCRMSink_RevokedCredentialsDisconnect(t *testing.T) {
	repo := newStubStatusRepo()
	connectedStatus(t, repo, "42")
	crm := &stubCRM{upsertErr: fmt.Errorf("upsert: %w", domain.ErrCredentialsRevoked)}
	s := NewCRMSink(crm, repo, newMemDebouncer(), 0, "directory", zerolog.Nop())

	err := s.OnProfileSaved(context.Background(), testProfile())
	if !errors.Is(err, domain.ErrCredentialsRevoked) {
		t.Fatalf("expected ErrCredentialsRevoked, got %v", err)
	}
	status, _ := repo.Get(context.Background(), "42", domain.SinkFollowUpBoss)
	if status.State != domain.SyncDisconnected {
		t.Fatalf("expected disconnected, got %s", status.State)
	}
}

func TestDispatcher_IsolatesFailures(t *testing.T) {
	repo := newStubStatusRepo()
	mirror := &memMirror{}
	failing := &funcListener{name: "crm", fn: func(context.Context, *domain.Profile) error {
		return errors.New("remote unavailable")
	}}
	panicking := &funcListener{name: "claims", fn: func(context.Context, *domain.Profile) error {
		panic("boom")
	}}

	d := NewDispatcher(repo, zerolog.Nop(), failing, panicking, NewMirrorSink(mirror, "mirror_"))
	results := d.Dispatch(context.Background(), testProfile())

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err == nil || results[1].Err == nil {
		t.Fatalf("expected failing and panicking sinks to report errors: %+v", results)
	}
	if results[2].Err != nil || results[2].Skipped {
		t.Fatalf("expected mirror to succeed, got %+v", results[2])
	}
	if got := mirror.rows["42"]["mirror_first_name"]; got != "Jane" {
		t.Fatalf("expected mirrored first name, got %q", got)
	}

	status, _ := repo.Get(context.Background(), "42", "crm")
	if len(status.Errors) != 1 || status.Errors[0].Message != "remote unavailable" {
		t.Fatalf("expected recorded crm error, got %+v", status.Errors)
	}
	status, _ = repo.Get(context.Background(), "42", "claims")
	if len(status.Errors) != 1 {
		t.Fatalf("expected recorded panic, got %+v", status.Errors)
	}
}

func TestDispatcher_SkipIsNotAnError(t *testing.T) {
	repo := newStubStatusRepo()
	skipper := &funcListener{name: "crm", fn: func(context.Context, *domain.Profile) error {
		return fmt.Errorf("%w: not connected", ErrSkipped)
	}}

	results := NewDispatcher(repo, zerolog.Nop(), skipper).Dispatch(context.Background(), testProfile())
	if !results[0].Skipped || results[0].Err != nil {
		t.Fatalf("expected skipped result, got %+v", results[0])
	}
	status, _ := repo.Get(context.Background(), "42", "crm")
	if len(status.Errors) != 0 {
		t.Fatalf("expected no recorded errors, got %+v", status.Errors)
	}
}

func TestDispatcher_IgnoresCancelledRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sawErr error
	l := &funcListener{name: "probe", fn: func(ctx context.Context, _ *domain.Profile) error {
		sawErr = ctx.Err()
		return nil
	}}
	NewDispatcher(nil, zerolog.Nop(), l).Dispatch(ctx, testProfile())
	if sawErr != nil {
		t.Fatalf("expected listener context to survive cancellation, got %v", sawErr)
	}
}

func TestDispatcher_DeleteReachesRemoversOnly(t *testing.T) {
	mirror := &memMirror{}
	plain := &funcListener{name: "crm", fn: func(context.Context, *domain.Profile) error { return nil }}
	d := NewDispatcher(newStubStatusRepo(), zerolog.Nop(), plain, NewMirrorSink(mirror, "mirror_"))

	d.Dispatch(context.Background(), testProfile())
	if _, ok := mirror.rows["42"]; !ok {
		t.Fatalf("expected mirrored row")
	}

	results := d.DispatchDelete(context.Background(), "42")
	if len(results) != 1 || results[0].Sink != domain.SinkMetaMirror || results[0].Err != nil {
		t.Fatalf("unexpected delete results: %+v", results)
	}
	if _, ok := mirror.rows["42"]; ok {
		t.Fatalf("expected mirrored row to be removed")
	}
	if plain.calls != 1 {
		t.Fatalf("expected plain listener to be called once, got %d", plain.calls)
	}
}

func TestDispatcher_DeleteDropsSyncStatuses(t *testing.T) {
	statuses := newStubStatusRepo()
	ctx := context.Background()

	connected := domain.NewSyncStatus("42", domain.SinkFollowUpBoss)
	connected.State = domain.SyncConnected
	connected.APIKey = "fka_0123456789abcdefghij"
	_ = statuses.Upsert(ctx, connected)
	_ = statuses.Upsert(ctx, domain.NewSyncStatus("7", domain.SinkFollowUpBoss))

	failing := &failingRemover{funcListener: funcListener{name: domain.SinkMetaMirror, fn: func(context.Context, *domain.Profile) error { return nil }}}
	d := NewDispatcher(statuses, zerolog.Nop(), failing)

	results := d.DispatchDelete(ctx, "42")
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("expected the remover failure to be reported, got %+v", results)
	}

	for key, s := range statuses.statuses {
		if s.ProfileID == "42" {
			t.Fatalf("expected no status left for the deleted profile, found %s", key)
		}
	}
	if _, ok := statuses.statuses[statusKey("7", domain.SinkFollowUpBoss)]; !ok {
		t.Fatalf("expected other profiles' statuses to be kept")
	}
}

type failingRemover struct {
	funcListener
}

func (f *failingRemover) OnProfileDeleted(context.Context, string) error {
	return errors.New("mirror unavailable")
}
