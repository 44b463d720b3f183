package patient

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medilink/medilink/internal/domain/user"
	"github.com/medilink/medilink/internal/platform/auth"
	"github.com/medilink/medilink/internal/platform/blobstore"
	"github.com/medilink/medilink/internal/platform/db"
	"github.com/medilink/medilink/internal/platform/idcard"
	"github.com/medilink/medilink/internal/platform/web"
)

// -- Mocks --

type mockRepo struct {
	byID       map[uuid.UUID]*Patient
	createErr  error
	alwaysSeen bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.byID {
		if existing.PatientID == p.PatientID {
			return db.ErrConflict
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.byID[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) GetByPatientID(_ context.Context, patientID string) (*Patient, error) {
	if m.alwaysSeen {
		return &Patient{PatientID: patientID}, nil
	}
	for _, p := range m.byID {
		if p.PatientID == patientID {
			return p, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*Patient, error) {
	for _, p := range m.byID {
		if p.UserID != nil && *p.UserID == userID {
			return p, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.byID[p.ID]; !ok {
		return db.ErrNotFound
	}
	m.byID[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type mockAccounts struct {
	created   []*user.User
	deleted   []uuid.UUID
	createErr error
}

func (m *mockAccounts) CreatePatientAccount(_ context.Context, name, email, password string) (*user.User, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	u := &user.User{ID: uuid.New(), Name: name, Email: email, Role: auth.RolePatient}
	m.created = append(m.created, u)
	return u, nil
}

func (m *mockAccounts) DeleteAccount(_ context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func newTestService() (*Service, *mockRepo, *mockAccounts) {
	repo := newMockRepo()
	accounts := &mockAccounts{}
	svc := NewService(repo, accounts, blobstore.NewInMemoryBlobStore(), idcard.NewGenerator(), zerolog.Nop())
	return svc, repo, accounts
}

func validInput() CreateInput {
	return CreateInput{
		Name:      "John Smith",
		Age:       34,
		Gender:    "male",
		Contact:   "555-0100",
		BirthYear: 1990,
		Email:     "john@clinic.test",
		Password:  "secret1",
	}
}

func webStatus(t *testing.T, err error) int {
	t.Helper()
	var appErr *web.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *web.Error, got %v", err)
	}
	return appErr.Status()
}

// -- Tests --

func TestCreate_Success(t *testing.T) {
	svc, _, accounts := newTestService()

	res, err := svc.Create(context.Background(), validInput(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := res.Patient
	if !strings.HasPrefix(p.PatientID, "JOHN1990") || len(p.PatientID) != 10 {
		t.Errorf("unexpected patient id %q", p.PatientID)
	}
	if p.UserID == nil || *p.UserID != accounts.created[0].ID {
		t.Error("patient must link to the created account")
	}
	if len(accounts.deleted) != 0 {
		t.Error("no compensation expected on success")
	}
}

func TestCreate_MissingFields(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	in := validInput()
	in.Email = ""
	res, err := svc.Create(ctx, in, uuid.New())
	if webStatus(t, mustErr(t, res, err)) != http.StatusBadRequest {
		t.Error("expected 400 for missing email")
	}

	in = validInput()
	in.Password = " "
	res, err = svc.Create(ctx, in, uuid.New())
	if webStatus(t, mustErr(t, res, err)) != http.StatusBadRequest {
		t.Error("expected 400 for missing password")
	}

	in = validInput()
	in.BirthYear = 0
	res, err = svc.Create(ctx, in, uuid.New())
	if webStatus(t, mustErr(t, res, err)) != http.StatusBadRequest {
		t.Error("expected 400 for missing birth year")
	}
}

func mustErr(t *testing.T, _ *CreateResult, err error) error {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	return err
}

func TestCreate_AccountFailureStopsFlow(t *testing.T) {
	svc, repo, accounts := newTestService()
	accounts.createErr = web.Conflict("Email already exists. Please use a different email.")

	_, err := svc.Create(context.Background(), validInput(), uuid.New())
	if webStatus(t, err) != http.StatusConflict {
		t.Errorf("expected 409, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Error("no patient row expected when the account write fails")
	}
}

func TestCreate_CompensatesAccountOnPatientFailure(t *testing.T) {
	svc, repo, accounts := newTestService()
	repo.createErr = errors.New("connection reset")

	_, err := svc.Create(context.Background(), validInput(), uuid.New())
	if webStatus(t, err) != http.StatusInternalServerError {
		t.Errorf("expected 500, got %v", err)
	}
	if len(accounts.created) != 1 || len(accounts.deleted) != 1 {
		t.Fatalf("expected the account to be created then deleted, got created=%d deleted=%d",
			len(accounts.created), len(accounts.deleted))
	}
	if accounts.deleted[0] != accounts.created[0].ID {
		t.Error("compensation must delete the account it created")
	}
}

func TestCreate_IDCollisionRetriesTenTimes(t *testing.T) {
	svc, repo, accounts := newTestService()
	repo.alwaysSeen = true // every candidate collides
	repo.createErr = db.ErrConflict

	var generated int
	svc.newID = func(name string, birthYear int) string {
		generated++
		return NewPatientID(name, birthYear, fixedRand(generated%100))
	}

	_, err := svc.Create(context.Background(), validInput(), uuid.New())
	if webStatus(t, err) != http.StatusConflict {
		t.Errorf("expected 409 after exhausted retries, got %v", err)
	}
	// One initial candidate plus exactly ten regenerations.
	if generated != maxIDAttempts+1 {
		t.Errorf("expected %d generations, got %d", maxIDAttempts+1, generated)
	}
	if len(accounts.deleted) != 1 {
		t.Error("the orphaned account must be compensated")
	}
}

func TestGet_PatientOwnRecordOnly(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	owner := uuid.New()
	p := &Patient{PatientID: "JOHN199001", Name: "John", UserID: &owner}
	repo.Create(ctx, p)

	doctor := &auth.CurrentUser{ID: uuid.New(), Role: auth.RoleDoctor}
	if _, err := svc.Get(ctx, p.ID, doctor); err != nil {
		t.Errorf("doctor read should succeed: %v", err)
	}

	self := &auth.CurrentUser{ID: owner, Role: auth.RolePatient}
	if _, err := svc.Get(ctx, p.ID, self); err != nil {
		t.Errorf("own read should succeed: %v", err)
	}

	other := &auth.CurrentUser{ID: uuid.New(), Role: auth.RolePatient}
	if _, err := svc.Get(ctx, p.ID, other); webStatus(t, err) != http.StatusForbidden {
		t.Errorf("expected 403 for another patient, got %v", err)
	}

	if _, err := svc.Get(ctx, uuid.New(), doctor); webStatus(t, err) != http.StatusNotFound {
		t.Errorf("expected 404 for unknown id, got %v", err)
	}
}

func TestOwnProfile(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	owner := uuid.New()
	repo.Create(ctx, &Patient{PatientID: "JOHN199001", UserID: &owner})

	if _, err := svc.OwnProfile(ctx, owner); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := svc.OwnProfile(ctx, uuid.New()); webStatus(t, err) != http.StatusNotFound {
		t.Errorf("expected 404 without a linked record, got %v", err)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	p := &Patient{PatientID: "JOHN199001", Name: "John", Age: 34, Gender: "male", Contact: "555-0100", BirthYear: 1990}
	repo.Create(ctx, p)

	updated, err := svc.Update(ctx, p.ID, UpdateInput{Contact: "555-0199"}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Contact != "555-0199" || updated.Name != "John" || updated.Age != 34 {
		t.Errorf("partial update mangled the record: %+v", updated)
	}
}

func TestIDCard(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	owner := uuid.New()
	p := &Patient{PatientID: "JOHN199001", Name: "John Smith", Age: 34, Gender: "male", UserID: &owner}
	repo.Create(ctx, p)

	admin := &auth.CurrentUser{ID: uuid.New(), Role: auth.RoleAdmin}
	pdf, filename, err := svc.IDCard(ctx, "JOHN199001", admin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("expected a PDF document")
	}
	if filename != "ID_JOHN199001.pdf" {
		t.Errorf("unexpected filename %q", filename)
	}

	// "me" resolves the caller's own record for patients.
	self := &auth.CurrentUser{ID: owner, Role: auth.RolePatient}
	if _, _, err := svc.IDCard(ctx, "me", self); err != nil {
		t.Errorf("own card via me alias should succeed: %v", err)
	}

	other := &auth.CurrentUser{ID: uuid.New(), Role: auth.RolePatient}
	if _, _, err := svc.IDCard(ctx, "JOHN199001", other); webStatus(t, err) != http.StatusForbidden {
		t.Errorf("expected 403 for another patient's card, got %v", err)
	}

	if _, _, err := svc.IDCard(ctx, "NOPE000000", admin); webStatus(t, err) != http.StatusNotFound {
		t.Errorf("expected 404 for unknown patient, got %v", err)
	}
}
