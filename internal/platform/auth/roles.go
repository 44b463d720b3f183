package auth

// Role is the closed set of account roles. Route permissions are expressed
// as a set of allowed roles checked by RequireRole before handler logic runs.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleDoctor   Role = "doctor"
	RolePatient  Role = "patient"
	RoleLab      Role = "lab"
	RolePharmacy Role = "pharmacy"
)

// AllRoles lists every valid role, in the order reported by admin stats.
var AllRoles = []Role{RoleAdmin, RoleDoctor, RolePatient, RoleLab, RolePharmacy}

// Valid reports whether r is one of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient, RoleLab, RolePharmacy:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
