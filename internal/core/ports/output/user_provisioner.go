package ports

import (
	"context"

	"model-registry/internal/core/domain"
)

// UserProvisioner manages tenant-scoped database accounts against an
// administrative connection. Implementations acquire the elevated handle per
// call and release it on every exit path.
type UserProvisioner interface {
	// CreateUser provisions an account that can authenticate against the
	// tenant with exactly the privileges implied by role.
	// domain.ErrUserAlreadyExists when the (tenant, username) pair is taken.
	CreateUser(ctx context.Context, tenant, username, password string, role domain.Role) error

	// DeleteUser removes the account. domain.ErrUserNotFound when absent,
	// distinct from connectivity failures.
	DeleteUser(ctx context.Context, tenant, username string) error
}
