package lab

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medilink/medilink/internal/domain/patient"
	"github.com/medilink/medilink/internal/platform/blobstore"
	"github.com/medilink/medilink/internal/platform/db"
	"github.com/medilink/medilink/internal/platform/web"
)

// ReuploadWindow is how long after the upload a report may be replaced by
// its uploader. A successful re-upload restarts the window.
const ReuploadWindow = 24 * time.Hour

// Patients is the patient lookup the lab flows need to verify the
// human-readable identifier before attaching work to it.
type Patients interface {
	GetByPatientID(ctx context.Context, patientID string) (*patient.Patient, error)
}

// FileUpload is a multipart report document.
type FileUpload struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

type Service struct {
	tests    TestRepository
	reports  ReportRepository
	patients Patients
	blobs    blobstore.BlobStore
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(tests TestRepository, reports ReportRepository, patients Patients, blobs blobstore.BlobStore, log zerolog.Logger) *Service {
	return &Service{
		tests:    tests,
		reports:  reports,
		patients: patients,
		blobs:    blobs,
		log:      log,
		now:      time.Now,
	}
}

// AssignTest records a doctor's lab test order for a patient.
func (s *Service) AssignTest(ctx context.Context, patientID, testName string, assignedBy uuid.UUID) (*LabTest, error) {
	if patientID == "" || testName == "" {
		return nil, web.Validation("Patient ID and test name are required")
	}
	if err := s.checkPatient(ctx, patientID); err != nil {
		return nil, err
	}

	t := &LabTest{
		PatientID:  patientID,
		TestName:   testName,
		AssignedBy: assignedBy,
		Status:     TestPending,
	}
	if err := s.tests.Create(ctx, t); err != nil {
		return nil, web.Upstream("Failed to assign lab test", err)
	}
	return t, nil
}

// PendingAssignments lists the open work queue for lab technicians.
func (s *Service) PendingAssignments(ctx context.Context) ([]*LabTest, error) {
	tests, err := s.tests.GetPending(ctx)
	if err != nil {
		return nil, web.Upstream("Failed to fetch lab assignments", err)
	}
	if tests == nil {
		tests = []*LabTest{}
	}
	return tests, nil
}

type UploadInput struct {
	PatientID string
	TestName  string
	TestID    *uuid.UUID
	File      *FileUpload
}

// UploadReport stores a report document. When TestID is given the matching
// assignment is linked and marked completed.
func (s *Service) UploadReport(ctx context.Context, in UploadInput, uploadedBy uuid.UUID) (*Report, error) {
	if in.PatientID == "" || in.TestName == "" || in.File == nil {
		return nil, web.Validation("Patient ID, test name, and report file are required")
	}
	if err := s.checkPatient(ctx, in.PatientID); err != nil {
		return nil, err
	}

	if in.TestID != nil {
		t, err := s.tests.GetByID(ctx, *in.TestID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, web.NotFound("Lab test assignment not found")
			}
			return nil, web.Upstream("Failed to fetch lab test", err)
		}
		if t.PatientID != in.PatientID {
			return nil, web.NotFound("Lab test assignment not found")
		}
	}

	fileURL, err := s.storeFile(ctx, in.File, uploadedBy)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		PatientID:  in.PatientID,
		TestName:   in.TestName,
		FileURL:    fileURL,
		UploadedBy: uploadedBy,
		UploadDate: s.now(),
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		return nil, web.Upstream("Failed to upload report", err)
	}

	if in.TestID != nil {
		if err := s.tests.LinkReport(ctx, *in.TestID, rep.ID); err != nil {
			// The report itself is stored; the assignment just stays open.
			s.log.Error().Err(err).Str("test_id", in.TestID.String()).Msg("failed to link report to lab test")
		}
	}
	return rep, nil
}

type ReuploadInput struct {
	TestName string
	File     *FileUpload
}

// Reupload replaces a report document. Only the original uploader may do
// this, and only while the re-upload window is open.
func (s *Service) Reupload(ctx context.Context, reportID uuid.UUID, in ReuploadInput, by uuid.UUID) (*Report, error) {
	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, web.NotFound("Report not found")
		}
		return nil, web.Upstream("Failed to re-upload report", err)
	}

	if rep.UploadedBy != by {
		return nil, web.Forbidden("You can only re-upload your own reports")
	}
	if s.now().Sub(rep.UploadDate) > ReuploadWindow {
		return nil, web.Validation("Re-upload window expired. Reports can only be re-uploaded within 24 hours of initial upload.")
	}
	if in.File == nil {
		return nil, web.Validation("Report file is required")
	}

	fileURL, err := s.storeFile(ctx, in.File, by)
	if err != nil {
		return nil, err
	}

	rep.FileURL = fileURL
	if in.TestName != "" {
		rep.TestName = in.TestName
	}
	rep.UploadDate = s.now()
	if err := s.reports.Update(ctx, rep); err != nil {
		return nil, web.Upstream("Failed to re-upload report", err)
	}
	return rep, nil
}

// ReportsByPatient lists a patient's reports, newest first.
func (s *Service) ReportsByPatient(ctx context.Context, patientID string) ([]*Report, error) {
	reports, err := s.reports.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, web.Upstream("Failed to fetch reports", err)
	}
	if reports == nil {
		reports = []*Report{}
	}
	return reports, nil
}

// PatientByID is the doctor's patient search by human-readable identifier.
func (s *Service) PatientByID(ctx context.Context, patientID string) (*patient.Patient, error) {
	p, err := s.patients.GetByPatientID(ctx, patientID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, web.NotFound("Patient not found")
		}
		return nil, web.Upstream("Failed to fetch patient", err)
	}
	return p, nil
}

func (s *Service) checkPatient(ctx context.Context, patientID string) error {
	if _, err := s.patients.GetByPatientID(ctx, patientID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return web.NotFound("Patient not found")
		}
		return web.Upstream("Failed to fetch patient", err)
	}
	return nil
}

func (s *Service) storeFile(ctx context.Context, f *FileUpload, by uuid.UUID) (string, error) {
	blob, err := s.blobs.Upload(ctx, blobstore.BucketReports, f.FileName, f.ContentType, by, f.Content)
	if err != nil {
		if errors.Is(err, blobstore.ErrFileTooLarge) || errors.Is(err, blobstore.ErrInvalidContentType) {
			return "", web.Validation(err.Error())
		}
		return "", web.Upstream("Failed to store report file", err)
	}
	return blob.URL(), nil
}
