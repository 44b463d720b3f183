package prescription

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores prescriptions.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	GetByPatientID(ctx context.Context, patientID string) ([]*Prescription, error)
	List(ctx context.Context, limit, offset int) ([]*Prescription, int, error)
}

// StatusRepository stores per-medicine pharmacy status rows.
type StatusRepository interface {
	Create(ctx context.Context, s *PharmacyStatus) error
	Update(ctx context.Context, s *PharmacyStatus) error
	// Find returns the row for one medicine position, or db.ErrNotFound.
	Find(ctx context.Context, prescriptionID uuid.UUID, medicineIndex int) (*PharmacyStatus, error)
	GetByPrescriptionID(ctx context.Context, prescriptionID uuid.UUID) ([]*PharmacyStatus, error)
}
