package lab

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medilink/medilink/internal/platform/db"
)

type testRepoPG struct {
	pool *pgxpool.Pool
}

func NewTestRepo(pool *pgxpool.Pool) TestRepository {
	return &testRepoPG{pool: pool}
}

const testCols = `id, patient_id, test_name, assigned_by, assigned_date, status, report_id`

func scanTest(row pgx.Row) (*LabTest, error) {
	t := &LabTest{}
	err := row.Scan(&t.ID, &t.PatientID, &t.TestName, &t.AssignedBy, &t.AssignedDate, &t.Status, &t.ReportID)
	if err != nil {
		return nil, db.Normalize(err)
	}
	return t, nil
}

func (r *testRepoPG) Create(ctx context.Context, t *LabTest) error {
	t.ID = uuid.New()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lab_tests (id, patient_id, test_name, assigned_by, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING assigned_date`,
		t.ID, t.PatientID, t.TestName, t.AssignedBy, t.Status,
	).Scan(&t.AssignedDate)
	if err != nil {
		return fmt.Errorf("insert lab test: %w", db.Normalize(err))
	}
	return nil
}

func (r *testRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabTest, error) {
	return scanTest(r.pool.QueryRow(ctx, `SELECT `+testCols+` FROM lab_tests WHERE id = $1`, id))
}

func (r *testRepoPG) GetPending(ctx context.Context) ([]*LabTest, error) {
	return r.query(ctx, `SELECT `+testCols+` FROM lab_tests WHERE status = $1 ORDER BY assigned_date DESC`, TestPending)
}

func (r *testRepoPG) GetByPatientID(ctx context.Context, patientID string) ([]*LabTest, error) {
	return r.query(ctx, `SELECT `+testCols+` FROM lab_tests WHERE patient_id = $1 ORDER BY assigned_date DESC`, patientID)
}

func (r *testRepoPG) query(ctx context.Context, sql string, args ...any) ([]*LabTest, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query lab tests: %w", err)
	}
	defer rows.Close()

	var tests []*LabTest
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

func (r *testRepoPG) LinkReport(ctx context.Context, testID, reportID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lab_tests SET report_id = $2, status = $3 WHERE id = $1`,
		testID, reportID, TestCompleted)
	if err != nil {
		return fmt.Errorf("link report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

type reportRepoPG struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

const reportCols = `id, patient_id, test_name, file_url, uploaded_by, upload_date`

func scanReport(row pgx.Row) (*Report, error) {
	rep := &Report{}
	err := row.Scan(&rep.ID, &rep.PatientID, &rep.TestName, &rep.FileURL, &rep.UploadedBy, &rep.UploadDate)
	if err != nil {
		return nil, db.Normalize(err)
	}
	return rep, nil
}

func (r *reportRepoPG) Create(ctx context.Context, rep *Report) error {
	rep.ID = uuid.New()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO reports (id, patient_id, test_name, file_url, uploaded_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING upload_date`,
		rep.ID, rep.PatientID, rep.TestName, rep.FileURL, rep.UploadedBy,
	).Scan(&rep.UploadDate)
	if err != nil {
		return fmt.Errorf("insert report: %w", db.Normalize(err))
	}
	return nil
}

func (r *reportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return scanReport(r.pool.QueryRow(ctx, `SELECT `+reportCols+` FROM reports WHERE id = $1`, id))
}

func (r *reportRepoPG) GetByPatientID(ctx context.Context, patientID string) ([]*Report, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reportCols+` FROM reports
		WHERE patient_id = $1
		ORDER BY upload_date DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func (r *reportRepoPG) Update(ctx context.Context, rep *Report) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reports SET test_name = $2, file_url = $3, upload_date = $4 WHERE id = $1`,
		rep.ID, rep.TestName, rep.FileURL, rep.UploadDate)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *reportRepoPG) List(ctx context.Context, limit, offset int) ([]*Report, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reports`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+reportCols+` FROM reports
		ORDER BY upload_date DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		reports = append(reports, rep)
	}
	return reports, total, rows.Err()
}
