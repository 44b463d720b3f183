package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a clinic patient record. PatientID is the human-readable
// business key printed on the identity card; UserID links the record to the
// login account created alongside it.
type Patient struct {
	ID        uuid.UUID  `json:"id"`
	PatientID string     `json:"patientId"`
	Name      string     `json:"name"`
	Age       int        `json:"age"`
	Gender    string     `json:"gender"`
	Contact   string     `json:"contact"`
	BirthYear int        `json:"birthYear"`
	PhotoURL  *string    `json:"photoUrl"`
	UserID    *uuid.UUID `json:"userId"`
	CreatedBy uuid.UUID  `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
