package actor

// Role is the coarse authorization level carried with each request. The
// boundary layer authenticates the caller; the core only ever sees the
// resulting id/role pair.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

type Actor struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the actor may act beyond resources it owns.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
