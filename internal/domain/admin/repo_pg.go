package admin

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medilink/medilink/internal/platform/auth"
)

type statsRepoPG struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) StatsRepository {
	return &statsRepoPG{pool: pool}
}

func (r *statsRepoPG) Counts(ctx context.Context) (*Stats, error) {
	stats := &Stats{UsersByRole: make(map[auth.Role]int, len(auth.AllRoles))}
	for _, role := range auth.AllRoles {
		stats.UsersByRole[role] = 0
	}

	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM patients),
			(SELECT COUNT(*) FROM reports),
			(SELECT COUNT(*) FROM prescriptions)`,
	).Scan(&stats.TotalUsers, &stats.TotalPatients, &stats.TotalReports, &stats.TotalPrescriptions)
	if err != nil {
		return nil, fmt.Errorf("count totals: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var role auth.Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		stats.UsersByRole[role] = n
	}
	return stats, rows.Err()
}
