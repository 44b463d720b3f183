package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medilink/medilink/internal/platform/auth"
	"github.com/medilink/medilink/internal/platform/db"
	"github.com/medilink/medilink/internal/domain/user"
	"github.com/medilink/medilink/internal/platform/web"
)

type stubResolver struct {
	users map[uuid.UUID]*auth.CurrentUser
}

func (s *stubResolver) ResolveUser(_ context.Context, id uuid.UUID) (*auth.CurrentUser, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return u, nil
}

type httpFixture struct {
	e        *echo.Echo
	issuer   *auth.TokenIssuer
	resolver *stubResolver
	users    *mockUsers
}

func newHTTPFixture(t *testing.T) *httpFixture {
	t.Helper()
	users := &mockUsers{}
	stats := &mockStats{stats: &Stats{TotalUsers: 1, UsersByRole: map[auth.Role]int{auth.RoleAdmin: 1}}}
	svc := NewService(stats, users, mockPatients{}, mockReports{}, mockPrescriptions{})

	resolver := &stubResolver{users: make(map[uuid.UUID]*auth.CurrentUser)}
	issuer := auth.NewTokenIssuer("test-secret")

	e := echo.New()
	e.HTTPErrorHandler = web.ErrorHandler(zerolog.Nop(), false)
	NewHandler(svc).RegisterRoutes(e.Group("/api"), auth.Middleware(issuer, resolver))
	return &httpFixture{e: e, issuer: issuer, resolver: resolver, users: users}
}

func (f *httpFixture) login(t *testing.T, role auth.Role) string {
	t.Helper()
	id := uuid.New()
	f.resolver.users[id] = &auth.CurrentUser{ID: id, Role: role}
	token, err := f.issuer.Issue(id, "t@clinic.test", role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func (f *httpFixture) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func TestHandlerAdminOnly(t *testing.T) {
	f := newHTTPFixture(t)

	for _, role := range []auth.Role{auth.RoleDoctor, auth.RoleLab, auth.RolePharmacy, auth.RolePatient} {
		token := f.login(t, role)
		if rec := f.do(http.MethodGet, "/api/admin/stats", token); rec.Code != http.StatusForbidden {
			t.Errorf("role %s: expected 403, got %d", role, rec.Code)
		}
	}
	if rec := f.do(http.MethodGet, "/api/admin/stats", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
}

func TestHandlerStats(t *testing.T) {
	f := newHTTPFixture(t)
	token := f.login(t, auth.RoleAdmin)

	rec := f.do(http.MethodGet, "/api/admin/stats", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if got.TotalUsers != 1 || got.UsersByRole[auth.RoleAdmin] != 1 {
		t.Errorf("unexpected stats %+v", got)
	}
}

func TestHandlerUsers_PaginatedWithoutPasswords(t *testing.T) {
	f := newHTTPFixture(t)
	f.users.users = []*user.User{
		{ID: uuid.New(), Name: "Ada", Email: "ada@clinic.test", PasswordHash: "$2a$10$secret", Role: auth.RoleDoctor},
	}
	token := f.login(t, auth.RoleAdmin)

	rec := f.do(http.MethodGet, "/api/admin/users?limit=10", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data  []map[string]any `json:"data"`
		Total int              `json:"total"`
		Limit int              `json:"limit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Total != 1 || envelope.Limit != 10 || len(envelope.Data) != 1 {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
	for _, key := range []string{"password", "passwordHash"} {
		if _, ok := envelope.Data[0][key]; ok {
			t.Errorf("response leaks %s", key)
		}
	}
}

func TestHandlerDeleteUser(t *testing.T) {
	f := newHTTPFixture(t)
	target := uuid.New()
	f.users.users = []*user.User{{ID: target, Role: auth.RoleLab}}
	token := f.login(t, auth.RoleAdmin)

	rec := f.do(http.MethodDelete, "/api/admin/user/"+target.String(), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.users.deleted) != 1 || f.users.deleted[0] != target {
		t.Errorf("unexpected deletions %v", f.users.deleted)
	}

	if rec := f.do(http.MethodDelete, "/api/admin/user/not-a-uuid", token); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad id, got %d", rec.Code)
	}
}
