package prescription

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medilink/medilink/internal/domain/patient"
	"github.com/medilink/medilink/internal/platform/db"
	"github.com/medilink/medilink/internal/platform/web"
)

// Patients verifies the human-readable patient identifier before a
// prescription is written against it.
type Patients interface {
	GetByPatientID(ctx context.Context, patientID string) (*patient.Patient, error)
}

type Service struct {
	repo     Repository
	statuses StatusRepository
	patients Patients
	log      zerolog.Logger
}

func NewService(repo Repository, statuses StatusRepository, patients Patients, log zerolog.Logger) *Service {
	return &Service{repo: repo, statuses: statuses, patients: patients, log: log}
}

// Create writes the prescription and then one pending status row per
// medicine, sequentially. The two phases are not atomic; a failed fan-out
// leaves earlier rows in place and the read side fills gaps with a pending
// default.
func (s *Service) Create(ctx context.Context, patientID string, medicines []MedicineEntry, doctorID uuid.UUID) (*Prescription, error) {
	if patientID == "" || medicines == nil {
		return nil, web.Validation("Patient ID and medicines are required")
	}
	if len(medicines) == 0 {
		return nil, web.Validation("Medicines must be a non-empty array")
	}
	if _, err := s.patients.GetByPatientID(ctx, patientID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, web.NotFound("Patient not found")
		}
		return nil, web.Upstream("Failed to fetch patient", err)
	}

	p := &Prescription{
		PatientID: patientID,
		DoctorID:  doctorID,
		Medicines: medicines,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, web.Upstream("Failed to create prescription", err)
	}

	for i, med := range medicines {
		err := s.upsertStatus(ctx, &PharmacyStatus{
			PatientID:      patientID,
			PrescriptionID: p.ID,
			MedicineName:   med.Name,
			MedicineIndex:  i,
			Status:         StatusPending,
			UpdatedBy:      doctorID,
		})
		if err != nil {
			return nil, web.Upstream("Failed to create prescription", err)
		}
	}
	return p, nil
}

// ForPatient returns the patient's prescriptions with the merged
// per-medicine pharmacy view.
func (s *Service) ForPatient(ctx context.Context, patientID string) ([]*WithStatus, error) {
	prescriptions, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, web.Upstream("Failed to fetch prescriptions", err)
	}
	out := make([]*WithStatus, 0, len(prescriptions))
	for _, p := range prescriptions {
		merged, err := s.merge(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, merged)
	}
	return out, nil
}

// PharmacyView is the pharmacy counter's read: same merge as ForPatient but
// an empty result is a 404.
func (s *Service) PharmacyView(ctx context.Context, patientID string) ([]*WithStatus, error) {
	out, err := s.ForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, web.NotFound("No prescriptions found for this patient")
	}
	return out, nil
}

// List returns a page of all prescriptions, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	prescriptions, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, web.Upstream("Failed to fetch prescriptions", err)
	}
	if prescriptions == nil {
		prescriptions = []*Prescription{}
	}
	return prescriptions, total, nil
}

// merge joins a prescription's ordered medicine list with whatever status
// rows exist. Every index appears in the result; missing rows read as
// pending with a null statusId.
func (s *Service) merge(ctx context.Context, p *Prescription) (*WithStatus, error) {
	statuses, err := s.statuses.GetByPrescriptionID(ctx, p.ID)
	if err != nil {
		return nil, web.Upstream("Failed to fetch prescriptions", err)
	}
	byIndex := make(map[int]*PharmacyStatus, len(statuses))
	for _, st := range statuses {
		byIndex[st.MedicineIndex] = st
	}

	merged := make([]MedicineWithStatus, len(p.Medicines))
	for i, med := range p.Medicines {
		m := MedicineWithStatus{Name: med.Name, Status: StatusPending, MedicineIndex: i}
		if st, ok := byIndex[i]; ok {
			m.Status = st.Status
			id := st.ID
			m.StatusID = &id
		}
		merged[i] = m
	}
	return &WithStatus{Prescription: p, MedicinesWithStatus: merged}, nil
}

type UpdateStatusInput struct {
	PatientID      string
	PrescriptionID uuid.UUID
	MedicineIndex  *int
	MedicineName   string
	Status         Status
}

// UpdateStatus sets the dispensing state of one medicine, addressed by
// position or by case-insensitive name. The write is an upsert keyed on
// (prescription, index).
func (s *Service) UpdateStatus(ctx context.Context, in UpdateStatusInput, updatedBy uuid.UUID) (*PharmacyStatus, error) {
	if in.PatientID == "" || in.PrescriptionID == uuid.Nil ||
		(in.MedicineIndex == nil && in.MedicineName == "") || in.Status == "" {
		return nil, web.Validation("Patient ID, prescription ID, medicine (index or name), and status are required")
	}
	if !in.Status.Valid() {
		return nil, web.Validation(`Status must be either "issued" or "pending"`)
	}

	p, err := s.repo.GetByID(ctx, in.PrescriptionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, web.NotFound("Prescription not found")
		}
		return nil, web.Upstream("Failed to fetch prescription", err)
	}
	if p.PatientID != in.PatientID {
		return nil, web.NotFound("Prescription not found")
	}

	index := -1
	if in.MedicineIndex != nil {
		index = *in.MedicineIndex
	} else {
		for i, med := range p.Medicines {
			if strings.EqualFold(med.Name, in.MedicineName) {
				index = i
				break
			}
		}
	}
	if index < 0 || index >= len(p.Medicines) {
		return nil, web.NotFound("Medicine not found in prescription")
	}

	name := in.MedicineName
	if name == "" {
		name = p.Medicines[index].Name
	}

	st := &PharmacyStatus{
		PatientID:      in.PatientID,
		PrescriptionID: in.PrescriptionID,
		MedicineName:   name,
		MedicineIndex:  index,
		Status:         in.Status,
		UpdatedBy:      updatedBy,
	}
	if err := s.upsertStatus(ctx, st); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, web.Conflict("Medicine status was updated concurrently, please retry")
		}
		return nil, web.Upstream("Failed to update medicine status", err)
	}
	return st, nil
}

// upsertStatus is a read-then-write upsert. A concurrent insert between the
// read and the write trips the unique (prescription_id, medicine_index)
// constraint and surfaces as db.ErrConflict.
func (s *Service) upsertStatus(ctx context.Context, st *PharmacyStatus) error {
	existing, err := s.statuses.Find(ctx, st.PrescriptionID, st.MedicineIndex)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return s.statuses.Create(ctx, st)
	case err != nil:
		return err
	default:
		existing.Status = st.Status
		existing.UpdatedBy = st.UpdatedBy
		if err := s.statuses.Update(ctx, existing); err != nil {
			return err
		}
		*st = *existing
		return nil
	}
}
