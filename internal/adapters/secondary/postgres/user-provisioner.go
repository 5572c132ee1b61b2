package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"model-registry/internal/core/domain"
	"model-registry/internal/core/ports/output"
)

// SQLSTATE codes the provisioner classifies.
const (
	codeDuplicateObject       = "42710"
	codeUndefinedObject       = "42704"
	codeInsufficientPrivilege = "42501"
)

// userProvisioner maps the tenant user model onto Postgres: a tenant is a
// schema, a tenant user is a login role named <tenant>_<username> whose
// grants never reach outside the tenant schema.
type userProvisioner struct {
	pool *pgxpool.Pool
}

func NewUserProvisioner(pool *pgxpool.Pool) ports.UserProvisioner {
	return &userProvisioner{pool: pool}
}

// CreateUser provisions the login role and grants exactly the privileges the
// role string implies. DDL takes no bind parameters, so identifiers are
// sanitized and the password is quoted as a literal; inputs were validated
// against the identifier pattern by the core before reaching this adapter.
func (p *userProvisioner) CreateUser(ctx context.Context, tenant, username, password string, role domain.Role) error {
	roleName, err := tenantRoleName(tenant, username)
	if err != nil {
		return err
	}

	// The elevated handle is scoped to this call and released on every exit
	// path; it is never cached across tenants.
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: acquire admin connection: %w", domain.ErrConnection, err)
	}
	defer conn.Release()

	schema := pgx.Identifier{tenant}.Sanitize()
	if _, err := conn.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
		return classifyPgError("create tenant schema", err)
	}

	create := fmt.Sprintf("CREATE ROLE %s LOGIN PASSWORD %s",
		pgx.Identifier{roleName}.Sanitize(), quoteLiteral(password))
	if _, err := conn.Exec(ctx, create); err != nil {
		return classifyPgError("create role", err)
	}

	for _, stmt := range grantStatements(tenant, roleName, role) {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			// Leave no half-privileged account behind.
			dropRole(ctx, conn, roleName)
			return classifyPgError("grant privileges", err)
		}
	}
	return nil
}

// DeleteUser drops the role. DROP OWNED revokes every privilege the role
// holds first, otherwise the grants block the drop.
func (p *userProvisioner) DeleteUser(ctx context.Context, tenant, username string) error {
	roleName, err := tenantRoleName(tenant, username)
	if err != nil {
		return err
	}

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: acquire admin connection: %w", domain.ErrConnection, err)
	}
	defer conn.Release()

	ident := pgx.Identifier{roleName}.Sanitize()
	if _, err := conn.Exec(ctx, "DROP OWNED BY "+ident); err != nil {
		return classifyPgError("revoke privileges", err)
	}
	if _, err := conn.Exec(ctx, "DROP ROLE "+ident); err != nil {
		return classifyPgError("drop role", err)
	}
	return nil
}

// grantStatements builds the least-privilege grant set for a role level.
// Levels are cumulative: readWrite includes read, dbAdmin includes readWrite.
func grantStatements(tenant, roleName string, role domain.Role) []string {
	schema := pgx.Identifier{tenant}.Sanitize()
	target := pgx.Identifier{roleName}.Sanitize()

	stmts := []string{
		fmt.Sprintf("GRANT USAGE ON SCHEMA %s TO %s", schema, target),
		fmt.Sprintf("GRANT SELECT ON ALL TABLES IN SCHEMA %s TO %s", schema, target),
		fmt.Sprintf("ALTER DEFAULT PRIVILEGES IN SCHEMA %s GRANT SELECT ON TABLES TO %s", schema, target),
	}
	if role == domain.RoleReadWrite || role == domain.RoleDBAdmin {
		stmts = append(stmts,
			fmt.Sprintf("GRANT INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA %s TO %s", schema, target),
			fmt.Sprintf("GRANT USAGE ON ALL SEQUENCES IN SCHEMA %s TO %s", schema, target),
			fmt.Sprintf("ALTER DEFAULT PRIVILEGES IN SCHEMA %s GRANT INSERT, UPDATE, DELETE ON TABLES TO %s", schema, target),
		)
	}
	if role == domain.RoleDBAdmin {
		stmts = append(stmts,
			fmt.Sprintf("GRANT CREATE ON SCHEMA %s TO %s", schema, target),
		)
	}
	return stmts
}

// tenantRoleName namespaces the cluster-wide role by tenant so a username is
// unique within a tenant but free across tenants.
func tenantRoleName(tenant, username string) (string, error) {
	name := tenant + "_" + username
	if len(name) > 63 {
		return "", domain.ErrInvalidName
	}
	return name, nil
}

func dropRole(ctx context.Context, conn *pgxpool.Conn, roleName string) {
	ident := pgx.Identifier{roleName}.Sanitize()
	_, _ = conn.Exec(ctx, "DROP OWNED BY "+ident)
	_, _ = conn.Exec(ctx, "DROP ROLE IF EXISTS "+ident)
}

// quoteLiteral quotes a string literal for DDL. standard_conforming_strings
// is on by default, so doubling single quotes is sufficient.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func classifyPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeDuplicateObject:
			return domain.ErrUserAlreadyExists
		case codeUndefinedObject:
			return domain.ErrUserNotFound
		case codeInsufficientPrivilege:
			return domain.ErrUnauthorized
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrConnection, op, err)
}
