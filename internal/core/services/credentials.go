package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"model-registry/internal/core/domain"
	"model-registry/internal/core/password"
	"model-registry/internal/core/ports/output"
)

// CredentialService owns the tenant user lifecycle and password generation.
type CredentialService struct {
	provisioner ports.UserProvisioner
}

func NewCredentialService(provisioner ports.UserProvisioner) *CredentialService {
	return &CredentialService{provisioner: provisioner}
}

// CreateUser provisions a tenant-scoped account. Retrying after a prior
// success reports domain.ErrUserAlreadyExists rather than silently
// succeeding; callers wanting idempotent provisioning ignore that error.
func (s *CredentialService) CreateUser(ctx context.Context, tenant, username, pass string, role domain.Role) error {
	if err := domain.ValidateName(tenant); err != nil {
		return err
	}
	if err := domain.ValidateName(username); err != nil {
		return err
	}
	if !role.Valid() {
		return domain.ErrInvalidRole
	}

	if err := s.provisioner.CreateUser(ctx, tenant, username, pass, role); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"tenant":   tenant,
		"username": username,
		"role":     string(role),
	}).Info("tenant user created")
	return nil
}

// DeleteUser removes a tenant-scoped account. A missing user surfaces as
// domain.ErrUserNotFound, distinct from connectivity failures.
func (s *CredentialService) DeleteUser(ctx context.Context, tenant, username string) error {
	if err := domain.ValidateName(tenant); err != nil {
		return err
	}
	if err := domain.ValidateName(username); err != nil {
		return err
	}

	if err := s.provisioner.DeleteUser(ctx, tenant, username); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"tenant":   tenant,
		"username": username,
	}).Info("tenant user deleted")
	return nil
}

// GeneratePassword produces a cryptographically random password.
func (s *CredentialService) GeneratePassword(length int, includeSpecial bool) (string, error) {
	return password.Generate(length, includeSpecial)
}
