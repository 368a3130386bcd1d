package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

type stubIntegrationService struct {
	statusFn  func(ctx context.Context, profileID, sink string) (*domain.SyncStatus, error)
	connectFn func(ctx context.Context, actorID, profileID, sink, apiKey string) (*domain.SyncStatus, error)
	leadFn    func(ctx context.Context, profileID string, lead ports.CRMLead) error
}

func (s *stubIntegrationService) Status(ctx context.Context, profileID, sink string) (*domain.SyncStatus, error) {
	return s.statusFn(ctx, profileID, sink)
}

func (s *stubIntegrationService) Connect(ctx context.Context, actorID, profileID, sink, apiKey string) (*domain.SyncStatus, error) {
	return s.connectFn(ctx, actorID, profileID, sink, apiKey)
}

func (s *stubIntegrationService) Disconnect(ctx context.Context, actorID, profileID, sink string) (*domain.SyncStatus, error) {
	return domain.NewSyncStatus(profileID, sink), nil
}

func (s *stubIntegrationService) Test(ctx context.Context, profileID, sink string) (*domain.SyncStatus, error) {
	return nil, domain.ErrNotConnected
}

func (s *stubIntegrationService) SubmitLead(ctx context.Context, profileID string, lead ports.CRMLead) error {
	return s.leadFn(ctx, profileID, lead)
}

func TestIntegrationHandler_Status_HidesAPIKey(t *testing.T) {
	e := newTestEcho()
	svc := &stubIntegrationService{
		statusFn: func(ctx context.Context, profileID, sink string) (*domain.SyncStatus, error) {
			st := domain.NewSyncStatus(profileID, sink)
			st.State = domain.SyncConnected
			st.APIKey = "fka_secret_key_value_123"
			st.AccountID = "42"
			st.LastSyncedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			st.AppendError(domain.SyncError{At: st.LastSyncedAt, Message: "boom"})
			return st, nil
		},
	}
	handler := NewIntegrationHandler(svc)

	rec := httptest.NewRecorder()
	c := authedContext(e, httptest.NewRequest(http.MethodGet, "/", nil), rec, "p1", domain.RoleMember)
	c.SetParamNames("id", "sink")
	c.SetParamValues("p1", domain.SinkFollowUpBoss)

	if err := handler.Status(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	body := rec.Body.String()
	if strings.Contains(body, "fka_secret_key_value_123") {
		t.Fatalf("api key leaked: %s", body)
	}
	if !strings.Contains(body, `"connected":true`) || !strings.Contains(body, `"boom"`) {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestIntegrationHandler_Connect(t *testing.T) {
	e := newTestEcho()
	svc := &stubIntegrationService{
		connectFn: func(ctx context.Context, actorID, profileID, sink, apiKey string) (*domain.SyncStatus, error) {
			if actorID != "p1" || apiKey != "fka_0123456789abcdefghij" {
				t.Fatalf("unexpected connect args: %s %s", actorID, apiKey)
			}
			return nil, domain.ErrInvalidAPIKey
		},
	}
	handler := NewIntegrationHandler(svc)

	c := authedContext(e, jsonRequest(http.MethodPost, "/", `{"api_key":"fka_0123456789abcdefghij"}`), httptest.NewRecorder(), "p1", domain.RoleMember)
	c.SetParamNames("id", "sink")
	c.SetParamValues("p1", domain.SinkFollowUpBoss)

	if err := handler.Connect(c); !errors.Is(err, domain.ErrInvalidAPIKey) {
		t.Fatalf("expected ErrInvalidAPIKey, got %v", err)
	}
}

func TestIntegrationHandler_Test_NotConnected(t *testing.T) {
	e := newTestEcho()
	handler := NewIntegrationHandler(&stubIntegrationService{})

	c := authedContext(e, httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder(), "p1", domain.RoleMember)
	c.SetParamNames("id", "sink")
	c.SetParamValues("p1", domain.SinkFollowUpBoss)

	if err := handler.Test(c); !errors.Is(err, domain.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestLeadHandler_Submit(t *testing.T) {
	e := newTestEcho()
	var got ports.CRMLead
	svc := &stubIntegrationService{
		leadFn: func(ctx context.Context, profileID string, lead ports.CRMLead) error {
			if profileID != "p1" {
				t.Fatalf("unexpected profile %s", profileID)
			}
			got = lead
			return nil
		},
	}
	handler := NewLeadHandler(svc, "Profile Directory")

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/", `{"first_name":" Sam ","email":"sam@example.com","message":"hi"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("p1")

	if err := handler.Submit(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if got.FirstName != "Sam" || got.Source != "Profile Directory" {
		t.Fatalf("unexpected lead: %+v", got)
	}
}

func TestLeadHandler_Submit_RequiresEmail(t *testing.T) {
	e := newTestEcho()
	handler := NewLeadHandler(&stubIntegrationService{}, "")

	c := e.NewContext(jsonRequest(http.MethodPost, "/", `{"first_name":"Sam"}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("p1")

	if code := httpErrorCode(t, handler.Submit(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}
