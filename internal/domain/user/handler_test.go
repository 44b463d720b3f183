package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medilink/medilink/internal/platform/auth"
	"github.com/medilink/medilink/internal/platform/web"
)

func setupTestServer(t *testing.T) (*echo.Echo, *Service) {
	t.Helper()
	svc, _ := newTestService()
	e := echo.New()
	e.HTTPErrorHandler = web.ErrorHandler(zerolog.Nop(), false)

	issuer := auth.NewTokenIssuer("test-secret")
	authMW := auth.Middleware(issuer, svc)
	NewHandler(svc).RegisterRoutes(e.Group("/api"), authMW)
	return e, svc
}

func doJSON(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRegister(t *testing.T) {
	e, _ := setupTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/auth/register",
		`{"name":"Dr. Ada","email":"ada@clinic.test","password":"secret1","role":"doctor"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var res authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if res.Token == "" || res.User.Email != "ada@clinic.test" {
		t.Errorf("unexpected response: %+v", res)
	}
	if strings.Contains(rec.Body.String(), "secret1") {
		t.Error("response leaks the password")
	}
}

func TestHandlerRegister_PatientForbidden(t *testing.T) {
	e, _ := setupTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/auth/register",
		`{"name":"Pat","email":"pat@clinic.test","password":"secret1","role":"patient"}`, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerLogin(t *testing.T) {
	e, _ := setupTestServer(t)
	doJSON(e, http.MethodPost, "/api/auth/register",
		`{"name":"Dr. Ada","email":"ada@clinic.test","password":"secret1","role":"doctor"}`, "")

	rec := doJSON(e, http.MethodPost, "/api/auth/login",
		`{"email":"ada@clinic.test","password":"secret1"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodPost, "/api/auth/login",
		`{"email":"ada@clinic.test","password":"wrong"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestHandlerMe(t *testing.T) {
	e, _ := setupTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/auth/register",
		`{"name":"Dr. Ada","email":"ada@clinic.test","password":"secret1","role":"doctor"}`, "")
	var res authResponse
	json.Unmarshal(rec.Body.Bytes(), &res)

	rec = doJSON(e, http.MethodGet, "/api/auth/me", "", res.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var profile Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if profile.Email != "ada@clinic.test" || profile.Role != auth.RoleDoctor {
		t.Errorf("unexpected profile: %+v", profile)
	}

	rec = doJSON(e, http.MethodGet, "/api/auth/me", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
}
