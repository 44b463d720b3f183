package admin

import (
	"context"

	"github.com/google/uuid"

	"github.com/medilink/medilink/internal/domain/lab"
	"github.com/medilink/medilink/internal/domain/patient"
	"github.com/medilink/medilink/internal/domain/prescription"
	"github.com/medilink/medilink/internal/domain/user"
)

// StatsRepository aggregates the dashboard counters in the store.
type StatsRepository interface {
	Counts(ctx context.Context) (*Stats, error)
}

// The list interfaces below are the read slices of the per-domain
// repositories; each is satisfied by the owning domain's pg repository.

type Users interface {
	List(ctx context.Context, limit, offset int) ([]*user.User, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Patients interface {
	List(ctx context.Context, limit, offset int) ([]*patient.Patient, int, error)
}

type Reports interface {
	List(ctx context.Context, limit, offset int) ([]*lab.Report, int, error)
}

type Prescriptions interface {
	List(ctx context.Context, limit, offset int) ([]*prescription.Prescription, int, error)
}
