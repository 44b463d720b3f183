package patient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medilink/medilink/internal/domain/user"
	"github.com/medilink/medilink/internal/platform/auth"
	"github.com/medilink/medilink/internal/platform/blobstore"
	"github.com/medilink/medilink/internal/platform/db"
	"github.com/medilink/medilink/internal/platform/idcard"
	"github.com/medilink/medilink/internal/platform/web"
)

// Accounts is the slice of the user service the patient flow needs: creating
// the login account before the patient row and deleting it again when the
// second write fails.
type Accounts interface {
	CreatePatientAccount(ctx context.Context, name, email, password string) (*user.User, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

// PhotoUpload is an optional multipart photo attached to a create or update.
type PhotoUpload struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

type Service struct {
	repo     Repository
	accounts Accounts
	blobs    blobstore.BlobStore
	cards    *idcard.Generator
	log      zerolog.Logger

	newID func(name string, birthYear int) string
}

func NewService(repo Repository, accounts Accounts, blobs blobstore.BlobStore, cards *idcard.Generator, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		blobs:    blobs,
		cards:    cards,
		log:      log,
		newID: func(name string, birthYear int) string {
			return NewPatientID(name, birthYear, defaultRand)
		},
	}
}

type CreateInput struct {
	Name      string
	Age       int
	Gender    string
	Contact   string
	BirthYear int
	Email     string
	Password  string
	Photo     *PhotoUpload
}

// CreateResult carries the new record plus the login credentials summary
// returned to the creating staff member.
type CreateResult struct {
	Patient *Patient
	Email   string
}

// Create provisions a login account and the patient record in that order.
// The two writes are not transactional; if the patient insert fails the
// account is deleted best-effort so the email can be reused.
func (s *Service) Create(ctx context.Context, in CreateInput, createdBy uuid.UUID) (*CreateResult, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, web.Validation("Email is required to create patient login credentials")
	}
	if strings.TrimSpace(in.Password) == "" {
		return nil, web.Validation("Password is required to create patient login credentials")
	}
	if in.Name == "" || in.Age == 0 || in.Gender == "" || in.Contact == "" || in.BirthYear == 0 {
		return nil, web.Validation("Name, age, gender, contact, and birth year are required")
	}

	var photoURL *string
	if in.Photo != nil {
		blob, err := s.blobs.Upload(ctx, blobstore.BucketPhotos, in.Photo.FileName, in.Photo.ContentType, createdBy, in.Photo.Content)
		switch {
		case errors.Is(err, blobstore.ErrFileTooLarge), errors.Is(err, blobstore.ErrInvalidContentType):
			return nil, web.Validation(err.Error())
		case err != nil:
			// Photo is optional; the record is still created without one.
			s.log.Warn().Err(err).Msg("patient photo upload failed, continuing without photo")
		default:
			url := blob.URL()
			photoURL = &url
		}
	}

	account, err := s.accounts.CreatePatientAccount(ctx, in.Name, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	patientID, err := s.uniquePatientID(ctx, in.Name, in.BirthYear)
	if err != nil {
		s.compensateAccount(ctx, account.ID)
		return nil, err
	}

	p := &Patient{
		PatientID: patientID,
		Name:      in.Name,
		Age:       in.Age,
		Gender:    in.Gender,
		Contact:   in.Contact,
		BirthYear: in.BirthYear,
		PhotoURL:  photoURL,
		UserID:    &account.ID,
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.compensateAccount(ctx, account.ID)
		if errors.Is(err, db.ErrConflict) {
			return nil, web.Conflict(fmt.Sprintf("Patient ID %s already exists. Please try again.", patientID))
		}
		if db.IsMissingRelation(err) {
			return nil, web.Upstream("Failed to create patient", err).
				WithHint("Database tables may not exist. Run: medilink-server migrate up")
		}
		return nil, web.Upstream("Failed to create patient", err)
	}

	return &CreateResult{Patient: p, Email: account.Email}, nil
}

// uniquePatientID generates an identifier and regenerates on collision, up
// to maxIDAttempts extra tries. The last candidate is returned even if still
// taken; the insert's unique constraint is the final arbiter.
func (s *Service) uniquePatientID(ctx context.Context, name string, birthYear int) (string, error) {
	id := s.newID(name, birthYear)
	for attempts := 0; attempts < maxIDAttempts; attempts++ {
		_, err := s.repo.GetByPatientID(ctx, id)
		if errors.Is(err, db.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", web.Upstream("Failed to create patient", err)
		}
		id = s.newID(name, birthYear)
	}
	return id, nil
}

func (s *Service) compensateAccount(ctx context.Context, id uuid.UUID) {
	if err := s.accounts.DeleteAccount(ctx, id); err != nil {
		s.log.Error().Err(err).Str("user_id", id.String()).Msg("failed to clean up patient account after create failure")
	}
}

// Get returns a patient by row id. Patients may only read their own record.
func (s *Service) Get(ctx context.Context, id uuid.UUID, current *auth.CurrentUser) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, web.NotFound("Patient not found")
		}
		return nil, web.Upstream("Failed to fetch patient", err)
	}
	if err := s.checkOwnRecord(p, current, "Access denied. You can only view your own profile."); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByPatientID resolves the human-readable identifier, with the same
// own-record restriction for patients.
func (s *Service) GetByPatientID(ctx context.Context, patientID string, current *auth.CurrentUser) (*Patient, error) {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, web.NotFound("Patient not found")
		}
		return nil, web.Upstream("Failed to fetch patient", err)
	}
	if err := s.checkOwnRecord(p, current, "Access denied. You can only view your own profile."); err != nil {
		return nil, err
	}
	return p, nil
}

// OwnProfile returns the record linked to the logged-in patient account.
func (s *Service) OwnProfile(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, web.NotFound("Patient profile not found. Please contact your doctor.")
		}
		return nil, web.Upstream("Failed to fetch patient profile", err)
	}
	return p, nil
}

type UpdateInput struct {
	Name      string
	Age       int
	Gender    string
	Contact   string
	BirthYear int
	Photo     *PhotoUpload
}

// Update applies the non-zero fields of in to the record.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, updatedBy uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, web.NotFound("Patient not found")
		}
		return nil, web.Upstream("Failed to update patient", err)
	}

	if in.Name != "" {
		p.Name = in.Name
	}
	if in.Age != 0 {
		p.Age = in.Age
	}
	if in.Gender != "" {
		p.Gender = in.Gender
	}
	if in.Contact != "" {
		p.Contact = in.Contact
	}
	if in.BirthYear != 0 {
		p.BirthYear = in.BirthYear
	}
	if in.Photo != nil {
		blob, err := s.blobs.Upload(ctx, blobstore.BucketPhotos, in.Photo.FileName, in.Photo.ContentType, updatedBy, in.Photo.Content)
		if err != nil {
			if errors.Is(err, blobstore.ErrFileTooLarge) || errors.Is(err, blobstore.ErrInvalidContentType) {
				return nil, web.Validation(err.Error())
			}
			return nil, web.Upstream("Failed to upload patient photo", err)
		}
		url := blob.URL()
		p.PhotoURL = &url
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, web.Upstream("Failed to update patient", err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return web.NotFound("Patient not found")
		}
		return web.Upstream("Failed to delete patient", err)
	}
	return nil
}

// List returns a page of patients, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	patients, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, web.Upstream("Failed to fetch patients", err)
	}
	return patients, total, nil
}

// IDCard renders the identity card PDF for patientID. Patients may pass "me"
// to get their own card and cannot download anyone else's.
func (s *Service) IDCard(ctx context.Context, patientID string, current *auth.CurrentUser) ([]byte, string, error) {
	var (
		p   *Patient
		err error
	)
	if patientID == "me" && current.Role == auth.RolePatient {
		p, err = s.repo.GetByUserID(ctx, current.ID)
		if errors.Is(err, db.ErrNotFound) {
			return nil, "", web.NotFound("Patient profile not found. Please contact your doctor to create your patient record.")
		}
	} else {
		p, err = s.repo.GetByPatientID(ctx, patientID)
		if errors.Is(err, db.ErrNotFound) {
			return nil, "", web.NotFound("Patient not found")
		}
	}
	if err != nil {
		return nil, "", web.Upstream("Failed to generate ID card", err)
	}
	if err := s.checkOwnRecord(p, current, "Access denied. You can only download your own ID card."); err != nil {
		return nil, "", err
	}

	photo, photoType := s.loadPhoto(ctx, p)
	pdf, err := s.cards.Generate(idcard.CardData{
		PatientID: p.PatientID,
		Name:      p.Name,
		Age:       p.Age,
		Gender:    p.Gender,
	}, photo, photoType)
	if err != nil {
		return nil, "", web.Upstream("Failed to generate ID card", err)
	}
	return pdf, fmt.Sprintf("ID_%s.pdf", p.PatientID), nil
}

// loadPhoto fetches the stored photo bytes, or returns nil when the patient
// has no photo or the blob cannot be read. The card renders a placeholder in
// that case.
func (s *Service) loadPhoto(ctx context.Context, p *Patient) ([]byte, string) {
	if p.PhotoURL == nil {
		return nil, ""
	}
	id, err := uuid.Parse(strings.TrimPrefix(*p.PhotoURL, "/files/"))
	if err != nil {
		return nil, ""
	}
	rc, blob, err := s.blobs.Download(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("patient_id", p.PatientID).Msg("could not load patient photo for ID card")
		return nil, ""
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, ""
	}
	if blob.ContentType == "image/png" {
		return data, "PNG"
	}
	return data, "JPG"
}

func (s *Service) checkOwnRecord(p *Patient, current *auth.CurrentUser, denied string) error {
	if current.Role != auth.RolePatient {
		return nil
	}
	if p.UserID == nil || *p.UserID != current.ID {
		return web.Forbidden(denied)
	}
	return nil
}
