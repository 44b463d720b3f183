package lab

import (
	"time"

	"github.com/google/uuid"
)

// TestStatus tracks a lab test assignment through its lifecycle.
type TestStatus string

const (
	TestPending   TestStatus = "pending"
	TestCompleted TestStatus = "completed"
)

// LabTest is a doctor's order for a lab test. PatientID is the
// human-readable patient identifier, not the row id.
type LabTest struct {
	ID           uuid.UUID  `json:"id"`
	PatientID    string     `json:"patientId"`
	TestName     string     `json:"testName"`
	AssignedBy   uuid.UUID  `json:"assignedBy"`
	AssignedDate time.Time  `json:"assignedDate"`
	Status       TestStatus `json:"status"`
	ReportID     *uuid.UUID `json:"reportId"`
}

// Report is an uploaded lab result document. UploadDate moves forward on
// re-upload, which also restarts the re-upload window.
type Report struct {
	ID         uuid.UUID `json:"id"`
	PatientID  string    `json:"patientId"`
	TestName   string    `json:"testName"`
	FileURL    string    `json:"fileUrl"`
	UploadedBy uuid.UUID `json:"uploadedBy"`
	UploadDate time.Time `json:"uploadDate"`
}
