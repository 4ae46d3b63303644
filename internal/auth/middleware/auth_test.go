package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bellgas/internal/audit"
	auditstore "bellgas/internal/audit/store"
	"bellgas/internal/auth/models"
	"bellgas/internal/auth/resolver"
	id "bellgas/pkg/domain"
	"bellgas/pkg/requestcontext"
)

type stubResolver struct {
	principal  *models.Principal
	seen       resolver.RequestContext
	promoted   []string
	promoteErr error
}

func (s *stubResolver) Resolve(_ context.Context, rc resolver.RequestContext) (*models.Principal, error) {
	s.seen = rc
	if s.principal == nil {
		return nil, resolver.ErrUnauthenticated
	}
	return s.principal, nil
}

func (s *stubResolver) Promote(_ context.Context, sessionID string, p *models.Principal) error {
	if p.Source != models.SourcePrimarySession && sessionID != "" {
		s.promoted = append(s.promoted, sessionID)
	}
	return s.promoteErr
}

func principal(role id.Role, source models.Source) *models.Principal {
	return &models.Principal{
		ID:       id.UserID(uuid.New()),
		Email:    "sam@bellgas.test",
		Role:     role,
		IsActive: true,
		Source:   source,
	}
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, p.ID, requestcontext.UserID(r.Context()))
		assert.Equal(t, p.Role, requestcontext.Role(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Bearer ", "", false},
		{"Basic dXNlcjpwdw==", "", false},
		{"", "", false},
		{"Bearerabc", "", false},
	}
	for _, tc := range cases {
		token, ok := ExtractBearerToken(tc.header)
		assert.Equal(t, tc.ok, ok, tc.header)
		assert.Equal(t, tc.token, token, tc.header)
	}
}

func TestRequireAuth_CollectsEvidence(t *testing.T) {
	stub := &stubResolver{principal: principal(id.RoleCustomer, models.SourcePrimarySession)}
	auth := New(stub, WithLogger(quiet), WithCookieName("sid"))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "session-1"})
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()

	auth.RequireAuth(ModeJSON)(okHandler(t)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, resolver.RequestContext{SessionID: "session-1", BearerToken: "tok"}, stub.seen)
	assert.Empty(t, stub.promoted, "promotion is opt-in")
}

func TestRequireAuth_Unauthenticated(t *testing.T) {
	auth := New(&stubResolver{}, WithLogger(quiet), WithLoginURL("/login"))

	t.Run("json mode returns 401 envelope", func(t *testing.T) {
		rr := httptest.NewRecorder()
		auth.RequireAuth(ModeJSON)(okHandler(t)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))
		var body map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "unauthorized", body["error"])
	})

	t.Run("redirect mode sends browser to login", func(t *testing.T) {
		rr := httptest.NewRecorder()
		auth.RequireAuth(ModeRedirect)(okHandler(t)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/dashboard?tab=1", nil))

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/login?next=%2Fadmin%2Fdashboard%3Ftab%3D1", rr.Header().Get("Location"))
	})

	t.Run("negotiate mode follows the Accept header", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
		req.Header.Set("Accept", "application/json")
		auth.RequireAuth(ModeNegotiate)(okHandler(t)).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		rr = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
		req.Header.Set("Accept", "text/html")
		auth.RequireAuth(ModeNegotiate)(okHandler(t)).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusFound, rr.Code)
	})
}

func TestRequireAuth_Promotion(t *testing.T) {
	t.Run("fallback principal is promoted", func(t *testing.T) {
		events := auditstore.NewInMemoryStore()
		stub := &stubResolver{principal: principal(id.RoleCustomer, models.SourceBearerToken)}
		auth := New(stub, WithLogger(quiet), WithPromotion(), WithAuditPublisher(audit.NewPublisher(events)))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieName(), Value: "session-9"})
		rr := httptest.NewRecorder()

		auth.RequireAuth(ModeJSON)(okHandler(t)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, []string{"session-9"}, stub.promoted)

		recent, err := events.ListRecent(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, audit.ActionPromoted, recent[0].Action)
		assert.Equal(t, "from bearer_token", recent[0].Reason)
	})

	t.Run("primary session principal is not promoted", func(t *testing.T) {
		stub := &stubResolver{principal: principal(id.RoleCustomer, models.SourcePrimarySession)}
		auth := New(stub, WithLogger(quiet), WithPromotion())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieName(), Value: "session-9"})

		auth.RequireAuth(ModeJSON)(okHandler(t)).ServeHTTP(httptest.NewRecorder(), req)

		assert.Empty(t, stub.promoted)
	})

	t.Run("promotion failure does not fail the request", func(t *testing.T) {
		stub := &stubResolver{
			principal:  principal(id.RoleCustomer, models.SourceSessionToken),
			promoteErr: errors.New("redis down"),
		}
		auth := New(stub, WithLogger(quiet), WithPromotion())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieName(), Value: "session-9"})
		rr := httptest.NewRecorder()

		auth.RequireAuth(ModeJSON)(okHandler(t)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("unknown session is neither written nor audited", func(t *testing.T) {
		events := auditstore.NewInMemoryStore()
		stub := &stubResolver{
			principal:  principal(id.RoleAdmin, models.SourceBearerToken),
			promoteErr: resolver.ErrUnknownSession,
		}
		auth := New(stub, WithLogger(quiet), WithPromotion(), WithAuditPublisher(audit.NewPublisher(events)))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieName(), Value: "attacker-chosen"})
		rr := httptest.NewRecorder()

		auth.RequireAuth(ModeJSON)(okHandler(t)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		recent, err := events.ListRecent(context.Background(), 10)
		require.NoError(t, err)
		assert.Empty(t, recent)
	})
}

func TestRequireRole(t *testing.T) {
	events := auditstore.NewInMemoryStore()
	pub := audit.NewPublisher(events)

	guard := func(p *models.Principal, mode Mode, roles ...id.Role) *httptest.ResponseRecorder {
		auth := New(&stubResolver{principal: p}, WithLogger(quiet), WithAuditPublisher(pub))
		h := auth.RequireAuth(mode)(auth.RequireRole(mode, roles...)(okHandler(t)))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
		return rr
	}

	t.Run("permitted role passes", func(t *testing.T) {
		rr := guard(principal(id.RoleAdmin, models.SourceBearerToken), ModeJSON, id.RoleAdmin)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("other role gets 403 json", func(t *testing.T) {
		rr := guard(principal(id.RoleCustomer, models.SourceBearerToken), ModeJSON, id.RoleAdmin, id.RoleMerchant)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "forbidden", body["error"])

		recent, err := events.ListRecent(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, audit.ActionAccessDenied, recent[0].Action)
	})

	t.Run("other role gets plain 403 in redirect mode", func(t *testing.T) {
		rr := guard(principal(id.RoleMerchant, models.SourcePrimarySession), ModeRedirect, id.RoleAdmin)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), "Forbidden")
	})

	t.Run("missing principal is unauthenticated", func(t *testing.T) {
		auth := New(&stubResolver{}, WithLogger(quiet))
		rr := httptest.NewRecorder()
		auth.RequireRole(ModeJSON, id.RoleAdmin)(okHandler(t)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
