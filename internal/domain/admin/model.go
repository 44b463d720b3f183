package admin

import (
	"github.com/medilink/medilink/internal/platform/auth"
)

// Stats is the dashboard summary for administrators. UsersByRole always
// carries every role, zero-valued when absent.
type Stats struct {
	TotalUsers         int               `json:"totalUsers"`
	TotalPatients      int               `json:"totalPatients"`
	TotalReports       int               `json:"totalReports"`
	TotalPrescriptions int               `json:"totalPrescriptions"`
	UsersByRole        map[auth.Role]int `json:"usersByRole"`
}
