package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// ArtifactMetadata is the caller-supplied description of a stored model.
type ArtifactMetadata struct {
	ModelArchitecture string
	ModelVersion      float64
	ProjectName       string
}

// Artifact is a stored binary payload plus its descriptive metadata.
// ContentRef is the sha256 hex fingerprint of the payload; several artifacts
// in the same (tenant, collection) scope may share one ContentRef.
type Artifact struct {
	ID         uuid.UUID
	Tenant     string
	Collection string
	Metadata   ArtifactMetadata
	ContentRef string
	SizeBytes  int64
	CreatedAt  time.Time
}

var namePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// ValidateName checks tenant, collection and username identifiers.
// These end up in SQL identifiers and blob keys, so the character set is
// restricted up front.
func ValidateName(name string) error {
	if len(name) == 0 || len(name) > 63 || !namePattern.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}
