package dto

import (
	"time"

	"github.com/google/uuid"

	"model-registry/internal/core/domain"
)

// SearchModelRequest is the body of the POST search endpoint.
type SearchModelRequest struct {
	Database   string `json:"database" binding:"required"`
	Collection string `json:"collection" binding:"required"`
	ModelID    string `json:"modelId" binding:"required"`
}

type ArtifactResponse struct {
	ID                uuid.UUID `json:"id"`
	Database          string    `json:"database"`
	Collection        string    `json:"collection"`
	ModelArchitecture string    `json:"model_architecture"`
	ModelVersion      float64   `json:"model_version"`
	ProjectName       string    `json:"project_name"`
	ContentRef        string    `json:"content_ref"`
	SizeBytes         int64     `json:"size_bytes"`
	CreatedAt         string    `json:"created_at"`
}

type StoreModelResponse struct {
	Stored  bool             `json:"stored"`
	Deduped bool             `json:"deduped"`
	Model   ArtifactResponse `json:"model"`
}

func ToArtifactResponse(a *domain.Artifact) ArtifactResponse {
	return ArtifactResponse{
		ID:                a.ID,
		Database:          a.Tenant,
		Collection:        a.Collection,
		ModelArchitecture: a.Metadata.ModelArchitecture,
		ModelVersion:      a.Metadata.ModelVersion,
		ProjectName:       a.Metadata.ProjectName,
		ContentRef:        a.ContentRef,
		SizeBytes:         a.SizeBytes,
		CreatedAt:         a.CreatedAt.Format(time.RFC3339),
	}
}
