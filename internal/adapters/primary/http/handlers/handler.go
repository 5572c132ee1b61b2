package handlers

import (
	"model-registry/internal/core/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	registrySvc   *services.RegistryService
	credentialSvc *services.CredentialService
}

func New(registrySvc *services.RegistryService, credentialSvc *services.CredentialService) *Handler {
	return &Handler{
		registrySvc:   registrySvc,
		credentialSvc: credentialSvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Tenant users
	r.POST("/users", h.CreateUser)
	r.DELETE("/users", h.DeleteUser)
	r.GET("/password", h.GeneratePassword)

	// Model artifacts
	r.POST("/models", h.StoreModel)
	r.POST("/models/search", h.SearchModel)
	r.GET("/models/:id", h.GetModel)
	r.GET("/models/:id/content", h.DownloadModel)
	r.DELETE("/models/:id", h.DeleteModel)
}
