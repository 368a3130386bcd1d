package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/frs/profile-directory/internal/core/domain"
)

type recordingQueue struct {
	ids []string
	err error
}

func (q *recordingQueue) EnqueueBatch(ids []string) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, ids...)
	return nil
}

type stubClaimsService struct {
	scopes []string
}

func (s *stubClaimsService) Build(p *domain.Profile) map[string]any {
	return map[string]any{"sub": p.ID}
}

func (s *stubClaimsService) ClaimsFor(ctx context.Context, profileID string, scopes []string) (map[string]any, error) {
	s.scopes = scopes
	return map[string]any{"sub": profileID}, nil
}

func TestAdminHandler_Resync_AllProfiles(t *testing.T) {
	e := newTestEcho()
	queue := &recordingQueue{}
	svc := &stubProfileService{
		allIDsFn: func(ctx context.Context) ([]string, error) { return []string{"a", "b", "c"}, nil },
	}
	handler := NewAdminHandler(svc, queue)

	rec := httptest.NewRecorder()
	c := authedContext(e, httptest.NewRequest(http.MethodPost, "/v1/admin/resync", nil), rec, "admin-1", domain.RoleAdmin)

	if err := handler.Resync(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if !reflect.DeepEqual(queue.ids, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected enqueued ids: %v", queue.ids)
	}

	var resp acceptedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Count != 3 {
		t.Fatalf("expected count 3, got %d", resp.Count)
	}
}

func TestAdminHandler_Resync_SelectedProfiles(t *testing.T) {
	e := newTestEcho()
	queue := &recordingQueue{}
	svc := &stubProfileService{
		allIDsFn: func(ctx context.Context) ([]string, error) {
			t.Fatalf("should not list every profile")
			return nil, nil
		},
	}
	handler := NewAdminHandler(svc, queue)

	c := authedContext(e, jsonRequest(http.MethodPost, "/v1/admin/resync", `{"profile_ids":["p9"]}`), httptest.NewRecorder(), "admin-1", domain.RoleAdmin)

	if err := handler.Resync(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !reflect.DeepEqual(queue.ids, []string{"p9"}) {
		t.Fatalf("unexpected enqueued ids: %v", queue.ids)
	}
}

func TestAdminHandler_Resync_QueueStopped(t *testing.T) {
	e := newTestEcho()
	queue := &recordingQueue{err: errors.New("resync queue is not running")}
	handler := NewAdminHandler(&stubProfileService{}, queue)

	c := authedContext(e, jsonRequest(http.MethodPost, "/v1/admin/resync", `{"profile_ids":["p9"]}`), httptest.NewRecorder(), "admin-1", domain.RoleAdmin)

	err := handler.Resync(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %v", err)
	}
}

func TestParseScopes(t *testing.T) {
	cases := map[string][]string{
		"":                     {"openid"},
		"openid profile":       {"openid", "profile"},
		"openid,email , phone": {"openid", "email", "phone"},
		"  frs  ":              {"frs"},
	}
	for raw, want := range cases {
		if got := parseScopes(raw); !reflect.DeepEqual(got, want) {
			t.Fatalf("parseScopes(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestClaimsHandler_Get(t *testing.T) {
	e := newTestEcho()
	svc := &stubClaimsService{}
	handler := NewClaimsHandler(svc)

	rec := httptest.NewRecorder()
	c := authedContext(e, httptest.NewRequest(http.MethodGet, "/?scope=openid+email", nil), rec, "p1", domain.RoleMember)
	c.SetParamNames("id")
	c.SetParamValues("p1")

	if err := handler.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !reflect.DeepEqual(svc.scopes, []string{"openid", "email"}) {
		t.Fatalf("unexpected scopes: %v", svc.scopes)
	}
}

func TestHealthDependencies_Degraded(t *testing.T) {
	e := echo.New()
	h := (&HealthDependenciesHandler{}).
		WithCheck("postgres", func(ctx context.Context) error { return nil }).
		WithCheck("kafka", func(ctx context.Context) error { return errors.New("no brokers") })

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "degraded" || resp.Dependencies["postgres"].Status != "ok" || resp.Dependencies["kafka"].Error != "no brokers" {
		t.Fatalf("unexpected readiness: %+v", resp)
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
