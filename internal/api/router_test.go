package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/frs/profile-directory/internal/core/domain"
)

const testSecret = "router-test-secret"

func bearer(t *testing.T, sub, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

// The router registers Prometheus collectors globally, so it is built once
// and exercised only on paths that never reach a service.
func TestRouter_AccessControl(t *testing.T) {
	e := NewRouter(Dependencies{JWTSecret: testSecret, Logger: zerolog.Nop()})

	cases := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{"liveness", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"profile without token", http.MethodGet, "/v1/profiles/p1", "", http.StatusUnauthorized},
		{"member on another profile", http.MethodGet, "/v1/profiles/p1", bearer(t, "p2", domain.RoleMember), http.StatusForbidden},
		{"member on another profile's tasks", http.MethodGet, "/v1/profiles/p1/tasks", bearer(t, "p2", domain.RoleMember), http.StatusForbidden},
		{"member listing profiles", http.MethodGet, "/v1/profiles", bearer(t, "p2", domain.RoleMember), http.StatusForbidden},
		{"member deleting own profile", http.MethodDelete, "/v1/profiles/p2", bearer(t, "p2", domain.RoleMember), http.StatusForbidden},
		{"member resync", http.MethodPost, "/v1/admin/resync", bearer(t, "p2", domain.RoleMember), http.StatusForbidden},
		{"bad token", http.MethodGet, "/v1/profiles/p1/claims", "Bearer nope", http.StatusUnauthorized},
		{"unknown route", http.MethodGet, "/v1/nothing-here", "", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}
