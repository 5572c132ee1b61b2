package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"model-registry/internal/adapters/primary/http/dto"
	"model-registry/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// StoreModel accepts a multipart upload: form fields carry the scope and
// metadata, the "file" part carries the model payload.
func (h *Handler) StoreModel(c *gin.Context) {
	tenant := c.PostForm("database")
	collection := c.PostForm("collection")

	version, err := strconv.ParseFloat(c.PostForm("modelVersion"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidVersion.Error()})
		return
	}
	meta := domain.ArtifactMetadata{
		ModelArchitecture: c.PostForm("modelArchitecture"),
		ModelVersion:      version,
		ProjectName:       c.PostForm("project_name"),
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing model file"})
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("open uploaded file: %v", err)})
		return
	}
	defer src.Close()

	artifact, deduped, err := h.registrySvc.Store(c.Request.Context(), tenant, collection, meta, src)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"tenant":     tenant,
			"collection": collection,
		}).Error("store model failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.StoreModelResponse{
		Stored:  true,
		Deduped: deduped,
		Model:   dto.ToArtifactResponse(artifact),
	})
}

func (h *Handler) GetModel(c *gin.Context) {
	tenant, collection, id, ok := artifactScope(c, c.Param("id"))
	if !ok {
		return
	}

	artifact, err := h.registrySvc.Get(c.Request.Context(), tenant, collection, id)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToArtifactResponse(artifact))
}

// SearchModel shares Get's contract; it keeps the POST body shape callers of
// the search endpoint already use.
func (h *Handler) SearchModel(c *gin.Context) {
	var req dto.SearchModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := uuid.Parse(req.ModelID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidArtifactID.Error()})
		return
	}

	artifact, err := h.registrySvc.Get(c.Request.Context(), req.Database, req.Collection, id)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToArtifactResponse(artifact))
}

// DownloadModel streams the stored bytes back to the caller.
func (h *Handler) DownloadModel(c *gin.Context) {
	tenant, collection, id, ok := artifactScope(c, c.Param("id"))
	if !ok {
		return
	}

	artifact, rc, err := h.registrySvc.Open(c.Request.Context(), tenant, collection, id)
	if err != nil {
		mapDomainError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, artifact.SizeBytes, "application/octet-stream", rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", artifact.ID.String()),
	})
}

func (h *Handler) DeleteModel(c *gin.Context) {
	tenant, collection, id, ok := artifactScope(c, c.Param("id"))
	if !ok {
		return
	}

	err := h.registrySvc.Delete(c.Request.Context(), tenant, collection, id)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"tenant":     tenant,
			"collection": collection,
			"model_id":   id,
		}).Warn("delete model failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Message: fmt.Sprintf("Model with ID %q deleted successfully.", id.String()),
	})
}

// artifactScope pulls the (tenant, collection, id) tuple shared by the
// single-artifact routes; it writes the error response itself on failure.
func artifactScope(c *gin.Context, rawID string) (string, string, uuid.UUID, bool) {
	tenant := c.Query("database")
	collection := c.Query("collection")
	if tenant == "" || collection == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "database and collection query parameters are required"})
		return "", "", uuid.Nil, false
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidArtifactID.Error()})
		return "", "", uuid.Nil, false
	}
	return tenant, collection, id, true
}
