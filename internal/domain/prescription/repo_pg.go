package prescription

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medilink/medilink/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	p := &Prescription{}
	var medicines []byte
	if err := row.Scan(&p.ID, &p.PatientID, &p.DoctorID, &medicines, &p.Date); err != nil {
		return nil, db.Normalize(err)
	}
	if err := json.Unmarshal(medicines, &p.Medicines); err != nil {
		return nil, fmt.Errorf("decode medicines: %w", err)
	}
	return p, nil
}

const prescriptionCols = `id, patient_id, doctor_id, medicines, date`

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	medicines, err := json.Marshal(p.Medicines)
	if err != nil {
		return fmt.Errorf("encode medicines: %w", err)
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO prescriptions (id, patient_id, doctor_id, medicines)
		VALUES ($1, $2, $3, $4)
		RETURNING date`,
		p.ID, p.PatientID, p.DoctorID, medicines,
	).Scan(&p.Date)
	if err != nil {
		return fmt.Errorf("insert prescription: %w", db.Normalize(err))
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.pool.QueryRow(ctx, `SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1`, id))
}

func (r *repoPG) GetByPatientID(ctx context.Context, patientID string) ([]*Prescription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+prescriptionCols+` FROM prescriptions
		WHERE patient_id = $1
		ORDER BY date DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query prescriptions: %w", err)
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count prescriptions: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+prescriptionCols+` FROM prescriptions
		ORDER BY date DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list prescriptions: %w", err)
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

type statusRepoPG struct {
	pool *pgxpool.Pool
}

func NewStatusRepo(pool *pgxpool.Pool) StatusRepository {
	return &statusRepoPG{pool: pool}
}

const statusCols = `id, patient_id, prescription_id, medicine_name, medicine_index, status, updated_by, updated_at`

func scanStatus(row pgx.Row) (*PharmacyStatus, error) {
	s := &PharmacyStatus{}
	err := row.Scan(&s.ID, &s.PatientID, &s.PrescriptionID, &s.MedicineName,
		&s.MedicineIndex, &s.Status, &s.UpdatedBy, &s.UpdatedAt)
	if err != nil {
		return nil, db.Normalize(err)
	}
	return s, nil
}

func (r *statusRepoPG) Create(ctx context.Context, s *PharmacyStatus) error {
	s.ID = uuid.New()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pharmacy_status (id, patient_id, prescription_id, medicine_name, medicine_index, status, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING updated_at`,
		s.ID, s.PatientID, s.PrescriptionID, s.MedicineName, s.MedicineIndex, s.Status, s.UpdatedBy,
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert pharmacy status: %w", db.Normalize(err))
	}
	return nil
}

func (r *statusRepoPG) Update(ctx context.Context, s *PharmacyStatus) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE pharmacy_status
		SET status = $2, updated_by = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		s.ID, s.Status, s.UpdatedBy,
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update pharmacy status: %w", db.Normalize(err))
	}
	return nil
}

func (r *statusRepoPG) Find(ctx context.Context, prescriptionID uuid.UUID, medicineIndex int) (*PharmacyStatus, error) {
	return scanStatus(r.pool.QueryRow(ctx, `
		SELECT `+statusCols+` FROM pharmacy_status
		WHERE prescription_id = $1 AND medicine_index = $2`,
		prescriptionID, medicineIndex))
}

func (r *statusRepoPG) GetByPrescriptionID(ctx context.Context, prescriptionID uuid.UUID) ([]*PharmacyStatus, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+statusCols+` FROM pharmacy_status
		WHERE prescription_id = $1
		ORDER BY medicine_index ASC`, prescriptionID)
	if err != nil {
		return nil, fmt.Errorf("query pharmacy status: %w", err)
	}
	defer rows.Close()

	var out []*PharmacyStatus
	for rows.Next() {
		s, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
