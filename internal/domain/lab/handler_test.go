package lab

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medilink/medilink/internal/platform/auth"
	"github.com/medilink/medilink/internal/platform/db"
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
	*labFixture
	e        *echo.Echo
	issuer   *auth.TokenIssuer
	resolver *stubResolver
}

func newHTTPFixture(t *testing.T) *httpFixture {
	t.Helper()
	f := newFixture()
	resolver := &stubResolver{users: make(map[uuid.UUID]*auth.CurrentUser)}
	issuer := auth.NewTokenIssuer("test-secret")

	e := echo.New()
	e.HTTPErrorHandler = web.ErrorHandler(zerolog.Nop(), false)
	NewHandler(f.svc).RegisterRoutes(e.Group("/api"), auth.Middleware(issuer, resolver))
	return &httpFixture{labFixture: f, e: e, issuer: issuer, resolver: resolver}
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

func TestHandlerUpload(t *testing.T) {
	f := newHTTPFixture(t)
	token := f.login(t, auth.RoleLab)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	w.WriteField("patientId", "JOHN199001")
	w.WriteField("testName", "CBC")
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="report"; filename="result.pdf"`)
	hdr.Set("Content-Type", "application/pdf")
	part, _ := w.CreatePart(hdr)
	part.Write([]byte("%PDF-1.4 test"))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/lab/upload", buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Report Report `json:"report"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if res.Report.FileURL == "" || res.Report.PatientID != "JOHN199001" {
		t.Errorf("unexpected report %+v", res.Report)
	}
}

func TestHandlerAssignments_LabOnly(t *testing.T) {
	f := newHTTPFixture(t)

	for _, tc := range []struct {
		role auth.Role
		want int
	}{
		{auth.RoleLab, http.StatusOK},
		{auth.RoleDoctor, http.StatusForbidden},
		{auth.RoleAdmin, http.StatusForbidden},
	} {
		token := f.login(t, tc.role)
		req := httptest.NewRequest(http.MethodGet, "/api/lab/assignments", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()
		f.e.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("role %s: expected %d, got %d", tc.role, tc.want, rec.Code)
		}
	}
}

func TestHandlerAssignTest(t *testing.T) {
	f := newHTTPFixture(t)
	token := f.login(t, auth.RoleDoctor)

	body := bytes.NewReader([]byte(`{"patientId":"JOHN199001","testName":"CBC"}`))
	req := httptest.NewRequest(http.MethodPost, "/api/doctor/assign-lab-test", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Lab technicians cannot use the doctor surface.
	labToken := f.login(t, auth.RoleLab)
	req = httptest.NewRequest(http.MethodPost, "/api/doctor/assign-lab-test", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+labToken)
	rec = httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for lab role, got %d", rec.Code)
	}
}
