package lab

import (
	"context"

	"github.com/google/uuid"
)

// TestRepository stores lab test assignments.
type TestRepository interface {
	Create(ctx context.Context, t *LabTest) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabTest, error)
	GetPending(ctx context.Context) ([]*LabTest, error)
	GetByPatientID(ctx context.Context, patientID string) ([]*LabTest, error)
	// LinkReport attaches a report to the test and marks it completed.
	LinkReport(ctx context.Context, testID, reportID uuid.UUID) error
}

// ReportRepository stores uploaded report documents.
type ReportRepository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	GetByPatientID(ctx context.Context, patientID string) ([]*Report, error)
	Update(ctx context.Context, r *Report) error
	List(ctx context.Context, limit, offset int) ([]*Report, int, error)
}
