package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recoverydesk/internal/auth"
	"recoverydesk/internal/models"
	"recoverydesk/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	adminPrincipal    = &auth.Principal{ID: 1, Kind: auth.KindUser, Role: models.RoleAdmin, Name: "Admin", Login: "admin"}
	employeePrincipal = &auth.Principal{ID: 2, Kind: auth.KindUser, Role: models.RoleEmployee, Name: "Nadia", Login: "nadia"}
	clientPrincipal   = &auth.Principal{ID: 5, Kind: auth.KindClient, Role: models.RoleClient, Name: "Atlas Trading", Login: "atlas"}
)

type stubDirectory struct{}

func (stubDirectory) LoadPrincipal(_ context.Context, kind string, id uint) (*auth.Principal, error) {
	for _, p := range []*auth.Principal{adminPrincipal, employeePrincipal, clientPrincipal} {
		if p.Kind == kind && p.ID == id {
			return p, nil
		}
	}
	return nil, auth.ErrPrincipalNotFound
}

func (stubDirectory) FindActiveUserByEmail(context.Context, string) (*auth.Principal, error) {
	return nil, auth.ErrPrincipalNotFound
}

type stubGeocoder struct {
	geo *models.GeoPoint
	err error
}

func (g stubGeocoder) Geocode(context.Context, string) (*models.GeoPoint, error) {
	return g.geo, g.err
}

func (g stubGeocoder) ValidatePlace(context.Context, string) (*models.GeoPoint, error) {
	return g.geo, g.err
}

type testServer struct {
	router *gin.Engine
	tokens *auth.TokenService
}

// newTestServer wires the real routes without a database. Only paths that
// answer before any query are exercised.
func newTestServer(t *testing.T, geocoder services.Geocoder) *testServer {
	t.Helper()
	tokens := auth.NewTokenService("test-secret", time.Hour)
	h := New(Deps{
		Tokens:     tokens,
		Principals: stubDirectory{},
		Geocoder:   geocoder,
		Search:     services.NewSearchService(nil, zap.NewNop()),
		Logger:     zap.NewNop(),
	})
	router := gin.New()
	h.RegisterRoutes(router, RouteOptions{})
	return &testServer{router: router, tokens: tokens}
}

func (s *testServer) do(t *testing.T, as *auth.Principal, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		token, err := s.tokens.Issue(as.Kind, as.ID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, nil, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, nil)

	for _, target := range []string{"/api/files", "/api/auth/me", "/api/notifications", "/api/tasks/my-tasks"} {
		w := s.do(t, nil, http.MethodGet, target, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
	}
}

func TestMeReturnsPrincipal(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, employeePrincipal, http.MethodGet, "/api/auth/me", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"login":"nadia"`)
}

func TestRoleGuards(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		as     *auth.Principal
		method string
		target string
	}{
		{"client cannot list files", clientPrincipal, http.MethodGet, "/api/files"},
		{"client cannot list tasks", clientPrincipal, http.MethodGet, "/api/tasks"},
		{"client cannot create expenses", clientPrincipal, http.MethodPost, "/api/expenses"},
		{"client cannot read stats", clientPrincipal, http.MethodGet, "/api/stats/dashboard"},
		{"client cannot search", clientPrincipal, http.MethodGet, "/api/search?q=atlas"},
		{"employee cannot manage users", employeePrincipal, http.MethodGet, "/api/users"},
		{"employee cannot delete case types", employeePrincipal, http.MethodDelete, "/api/case-types/3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.as, tt.method, tt.target, "")
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}
}

func TestClientScopedToOwnRecords(t *testing.T) {
	s := newTestServer(t, nil)

	for _, target := range []string{
		"/api/cases/client/6",
		"/api/documents/client/6",
		"/api/clients/6/files",
		"/api/clients/6/stats",
	} {
		w := s.do(t, clientPrincipal, http.MethodGet, target, "")
		assert.Equal(t, http.StatusForbidden, w.Code, target)
		assert.Equal(t, "access denied", errorBody(t, w))
	}
}

func TestClientsHaveNoInbox(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, clientPrincipal, http.MethodGet, "/api/notifications/unread-count", "")

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGoogleRoutesAbsentWhenNotConfigured(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, nil, http.MethodGet, "/api/auth/google/login", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInputValidation(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		wantErr string
	}{
		{"login without password", http.MethodPost, "/api/auth/login", `{"login":"admin"}`, "invalid input"},
		{"non numeric file id", http.MethodGet, "/api/files/abc", "", "invalid id"},
		{"malformed json", http.MethodPost, "/api/files", `{"debtor":`, "invalid input"},
		{"bad deposit date", http.MethodPost, "/api/files", `{"deposit_date":"2025-13-01","client_id":1,"debtor":"X","total_amount":10}`, "invalid input"},
		{"non positive amount", http.MethodPost, "/api/expenses", `{"file_id":1,"expense_type_id":2,"amount":0}`, "invalid input"},
		{"negative recovery", http.MethodPost, "/api/files/4/move-to-paid", `{"recovered_amount":-1}`, "invalid input"},
		{"task without assignee", http.MethodPost, "/api/tasks", `{"title":"Call debtor"}`, "invalid input"},
		{"bad task priority", http.MethodPost, "/api/tasks", `{"title":"Call debtor","assigned_to":2,"priority":"urgent"}`, "invalid input"},
		{"bad event time", http.MethodPost, "/api/case-events", `{"case_id":1,"title":"Hearing","event_date":"2025-03-10","event_time":"25:00"}`, "invalid input"},
		{"blank case type", http.MethodPost, "/api/case-types", `{"name":"   "}`, "case type name is required"},
		{"empty case update", http.MethodPut, "/api/cases/3", `{}`, "no fields to update"},
		{"bad year", http.MethodGet, "/api/stats/monthly/abc", "", "invalid year"},
		{"upload without file", http.MethodPost, "/api/documents/upload", "", "no file uploaded"},
		{"bad notification id", http.MethodPut, "/api/notifications/x/read", "", "invalid id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, adminPrincipal, tt.method, tt.target, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, errorBody(t, w), tt.wantErr)
		})
	}
}

func TestSearchBlankQuery(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, employeePrincipal, http.MethodGet, "/api/search?q=%20", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"clients":[],"files":[],"cases":[]}}`, w.Body.String())
}

func TestLocationLookups(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		s := newTestServer(t, nil)
		w := s.do(t, adminPrincipal, http.MethodGet, "/api/locations/geocode?address=court", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("missing parameter", func(t *testing.T) {
		s := newTestServer(t, stubGeocoder{})
		w := s.do(t, adminPrincipal, http.MethodGet, "/api/locations/validate", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("address not found", func(t *testing.T) {
		s := newTestServer(t, stubGeocoder{err: services.ErrAddressNotFound})
		w := s.do(t, adminPrincipal, http.MethodGet, "/api/locations/geocode?address=nowhere", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("resolved", func(t *testing.T) {
		geo := &models.GeoPoint{PlaceID: "abc", FormattedAddress: "Court of First Instance", Latitude: 33.57, Longitude: -7.59}
		s := newTestServer(t, stubGeocoder{geo: geo})
		w := s.do(t, employeePrincipal, http.MethodGet, "/api/locations/validate?place_id=abc", "")

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data models.GeoPoint `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, *geo, body.Data)
	})
}

func TestGeocodeHelperSwallowsFailures(t *testing.T) {
	h := New(Deps{Geocoder: stubGeocoder{err: services.ErrAddressNotFound}, Logger: zap.NewNop()})
	assert.Nil(t, h.geocode(context.Background(), "unknown street"))

	h = New(Deps{Logger: zap.NewNop()})
	assert.Nil(t, h.geocode(context.Background(), "any street"), "no geocoder configured")

	geo := &models.GeoPoint{Latitude: 1, Longitude: 2}
	h = New(Deps{Geocoder: stubGeocoder{geo: geo}, Logger: zap.NewNop()})
	assert.Nil(t, h.geocode(context.Background(), "   "), "blank address is not looked up")
	assert.Equal(t, geo, h.geocode(context.Background(), "1 Court Street"))
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC+1", 3600)
	h := New(Deps{Location: loc, Logger: zap.NewNop()})
	h.now = func() time.Time { return time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC) }

	assert.Equal(t, "2025-03-10", h.today())
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "nf", errorMessage(services.ErrNotFound, "nf", "c", "o"))
	assert.Equal(t, "c", errorMessage(services.ErrConflict, "nf", "c", "o"))
	assert.Equal(t, "o", errorMessage(assert.AnError, "nf", "c", "o"))
}
