package domain

// Role is the privilege level granted to a tenant database user.
type Role string

const (
	RoleRead      Role = "read"
	RoleReadWrite Role = "readWrite"
	RoleDBAdmin   Role = "dbAdmin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleRead, RoleReadWrite, RoleDBAdmin:
		return true
	}
	return false
}

// DatabaseUser identifies a provisioned account. The password hash lives in
// the backing store, never here.
type DatabaseUser struct {
	Tenant   string
	Username string
	Role     Role
}
