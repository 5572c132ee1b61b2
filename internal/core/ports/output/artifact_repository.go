package ports

import (
	"context"

	"github.com/google/uuid"

	"model-registry/internal/core/domain"
)

// ArtifactRepository is the metadata index plus the content reference count.
// Both mutations are single transactions so concurrent stores and deletes on
// the same content serialize on the blob row instead of check-then-act races.
type ArtifactRepository interface {
	// LinkContent inserts the artifact row and atomically increments the
	// reference count of its content, creating the blob row on first use.
	// Returns true when this call created the first reference.
	LinkContent(ctx context.Context, artifact *domain.Artifact) (firstRef bool, err error)

	// GetByID returns the artifact or domain.ErrArtifactNotFound.
	GetByID(ctx context.Context, tenant, collection string, id uuid.UUID) (*domain.Artifact, error)

	// DeleteByID removes the artifact row and decrements its content reference
	// count, deleting the blob row when it reaches zero. Returns the content
	// fingerprint and whether the last reference was just dropped.
	// domain.ErrArtifactNotFound when no such artifact exists.
	DeleteByID(ctx context.Context, tenant, collection string, id uuid.UUID) (contentRef string, lastRef bool, err error)
}
