package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"model-registry/internal/adapters/primary/http/dto"
	"model-registry/internal/core/domain"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.credentialSvc.CreateUser(c.Request.Context(), req.Database, req.Username, req.Password, domain.Role(req.Role))
	if err != nil {
		log.WithError(err).WithField("tenant", req.Database).Error("create user failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.MessageResponse{
		Message: fmt.Sprintf("User %q created successfully in database %q.", req.Username, req.Database),
	})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	var req dto.DeleteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.credentialSvc.DeleteUser(c.Request.Context(), req.Database, req.Username)
	if err != nil {
		log.WithError(err).WithField("tenant", req.Database).Error("delete user failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Message: fmt.Sprintf("User %q deleted successfully from database %q.", req.Username, req.Database),
	})
}

func (h *Handler) GeneratePassword(c *gin.Context) {
	length, err := strconv.Atoi(c.DefaultQuery("length", "12"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "length must be an integer"})
		return
	}
	special, err := strconv.ParseBool(c.DefaultQuery("special_chars", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "special_chars must be a boolean"})
		return
	}

	pw, err := h.credentialSvc.GeneratePassword(length, special)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PasswordResponse{Password: pw})
}
