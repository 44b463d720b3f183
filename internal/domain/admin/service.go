package admin

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medilink/medilink/internal/domain/lab"
	"github.com/medilink/medilink/internal/domain/patient"
	"github.com/medilink/medilink/internal/domain/prescription"
	"github.com/medilink/medilink/internal/domain/user"
	"github.com/medilink/medilink/internal/platform/db"
	"github.com/medilink/medilink/internal/platform/web"
)

type Service struct {
	stats         StatsRepository
	users         Users
	patients      Patients
	reports       Reports
	prescriptions Prescriptions
}

func NewService(stats StatsRepository, users Users, patients Patients, reports Reports, prescriptions Prescriptions) *Service {
	return &Service{
		stats:         stats,
		users:         users,
		patients:      patients,
		reports:       reports,
		prescriptions: prescriptions,
	}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.stats.Counts(ctx)
	if err != nil {
		return nil, web.Upstream("Failed to fetch statistics", err)
	}
	return stats, nil
}

// ListUsers returns a page of accounts with password hashes stripped.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]user.Profile, int, error) {
	users, total, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, web.Upstream("Failed to fetch users", err)
	}
	profiles := make([]user.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, total, nil
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*patient.Patient, int, error) {
	patients, total, err := s.patients.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, web.Upstream("Failed to fetch patients", err)
	}
	if patients == nil {
		patients = []*patient.Patient{}
	}
	return patients, total, nil
}

func (s *Service) ListReports(ctx context.Context, limit, offset int) ([]*lab.Report, int, error) {
	reports, total, err := s.reports.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, web.Upstream("Failed to fetch reports", err)
	}
	if reports == nil {
		reports = []*lab.Report{}
	}
	return reports, total, nil
}

func (s *Service) ListPrescriptions(ctx context.Context, limit, offset int) ([]*prescription.Prescription, int, error) {
	prescriptions, total, err := s.prescriptions.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, web.Upstream("Failed to fetch prescriptions", err)
	}
	if prescriptions == nil {
		prescriptions = []*prescription.Prescription{}
	}
	return prescriptions, total, nil
}

// DeleteUser removes an account. Self-deletion is rejected before any
// mutation happens.
func (s *Service) DeleteUser(ctx context.Context, id, currentID uuid.UUID) error {
	if id == currentID {
		return web.Validation("You cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return web.NotFound("User not found")
		}
		return web.Upstream("Failed to delete user", err)
	}
	return nil
}
