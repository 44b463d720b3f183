package prescription

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the pharmacy dispensing state of a single medicine.
type Status string

const (
	StatusPending Status = "pending"
	StatusIssued  Status = "issued"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusIssued
}

// MedicineEntry is one line of a prescription. The wire format accepts both
// a bare string ("Paracetamol") and a structured record; bare entries
// round-trip back out as strings.
type MedicineEntry struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage,omitempty"`
	Frequency    string `json:"frequency,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Instructions string `json:"instructions,omitempty"`

	bare bool
}

func (m *MedicineEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = MedicineEntry{Name: s, bare: true}
		return nil
	}
	type entry MedicineEntry
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	*m = MedicineEntry(e)
	return nil
}

func (m MedicineEntry) MarshalJSON() ([]byte, error) {
	if m.bare {
		return json.Marshal(m.Name)
	}
	type entry MedicineEntry
	return json.Marshal(entry(m))
}

// Prescription is an ordered medicine list written by a doctor. The list is
// immutable after creation; the position of each entry is the join key for
// pharmacy status rows.
type Prescription struct {
	ID        uuid.UUID       `json:"id"`
	PatientID string          `json:"patientId"`
	DoctorID  uuid.UUID       `json:"doctorId"`
	Medicines []MedicineEntry `json:"medicines"`
	Date      time.Time       `json:"date"`
}

// PharmacyStatus tracks dispensing of one medicine, keyed by the medicine's
// position in the prescription. At most one row exists per
// (prescription, index) pair.
type PharmacyStatus struct {
	ID             uuid.UUID `json:"id"`
	PatientID      string    `json:"patientId"`
	PrescriptionID uuid.UUID `json:"prescriptionId"`
	MedicineName   string    `json:"medicineName"`
	MedicineIndex  int       `json:"medicineIndex"`
	Status         Status    `json:"status"`
	UpdatedBy      uuid.UUID `json:"updatedBy"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// MedicineWithStatus is the merged read-side view of one medicine. StatusID
// is null when no pharmacy row exists yet; the status then defaults to
// pending.
type MedicineWithStatus struct {
	Name          string     `json:"name"`
	Status        Status     `json:"status"`
	StatusID      *uuid.UUID `json:"statusId"`
	MedicineIndex int        `json:"medicineIndex"`
}

// WithStatus is a prescription joined with its per-medicine pharmacy state.
type WithStatus struct {
	*Prescription
	MedicinesWithStatus []MedicineWithStatus `json:"medicinesWithStatus"`
}
