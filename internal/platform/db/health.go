package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats summarizes connection pool state for the health endpoint.
type PoolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
}

func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
	}
}

// HealthHandler returns the unauthenticated liveness probe. The process is
// reported OK even when the database ping fails so that load balancers keep
// routing; the degraded state is visible in the body.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		resp := map[string]interface{}{
			"status":  "OK",
			"message": "MediLink API is running",
		}
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				resp["database"] = "unreachable"
			} else {
				resp["database"] = "connected"
				resp["pool"] = GetPoolStats(pool)
			}
		}
		return c.JSON(http.StatusOK, resp)
	}
}
