package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/heraerp/platform/internal/platform/apierr"
	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/services"
)

// ResourceHandler serves every registered config-type resource through one
// generic CRUD surface. Routes are registered per resource, so each handler
// method is a factory closing over the resource name.
type ResourceHandler struct {
	log     *logger.Logger
	factory services.ConfigFactory
}

func NewResourceHandler(log *logger.Logger, factory services.ConfigFactory) *ResourceHandler {
	return &ResourceHandler{
		log:     log.With("handler", "ResourceHandler"),
		factory: factory,
	}
}

// GET /api/v1/resources
func (h *ResourceHandler) ListResources(c *gin.Context) {
	RespondOK(c, gin.H{"resources": h.factory.Resources()})
}

// GET /api/v1/:resource?organization_id=
func (h *ResourceHandler) List(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := uuid.Parse(c.Query("organization_id"))
		if err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("organization_id query parameter is required"))
			return
		}
		result, err := h.factory.List(c.Request.Context(), resource, orgID)
		if err != nil {
			RespondAPIError(c, err)
			return
		}
		RespondOK(c, result)
	}
}

// POST /api/v1/:resource
func (h *ResourceHandler) Create(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("invalid request body"))
			return
		}
		orgRaw, _ := body["organization_id"].(string)
		orgID, err := uuid.Parse(orgRaw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("organization_id is required"))
			return
		}
		created, err := h.factory.Create(c.Request.Context(), resource, orgID, body)
		if err != nil {
			RespondAPIError(c, err)
			return
		}
		RespondCreated(c, gin.H{"message": "created", "data": created})
	}
}

// PUT /api/v1/:resource?id=
func (h *ResourceHandler) Update(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Query("id"))
		if err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("id query parameter is required"))
			return
		}
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("invalid request body"))
			return
		}
		if err := h.factory.Update(c.Request.Context(), resource, id, body); err != nil {
			RespondAPIError(c, err)
			return
		}
		RespondOK(c, gin.H{"message": "updated"})
	}
}

// DELETE /api/v1/:resource?id=
func (h *ResourceHandler) Delete(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Query("id"))
		if err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("id query parameter is required"))
			return
		}
		if err := h.factory.Delete(c.Request.Context(), resource, id); err != nil {
			RespondAPIError(c, err)
			return
		}
		RespondOK(c, gin.H{"message": "deleted"})
	}
}

// POST /api/v1/:resource/bulk-import
func (h *ResourceHandler) BulkImport(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			OrganizationID string                   `json:"organization_id"`
			Rows           []map[string]interface{} `json:"rows"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("invalid request body"))
			return
		}
		orgID, err := uuid.Parse(req.OrganizationID)
		if err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("organization_id is required"))
			return
		}
		result, err := h.factory.BulkImport(c.Request.Context(), resource, orgID, req.Rows)
		if err != nil {
			RespondAPIError(c, err)
			return
		}
		RespondOK(c, result)
	}
}
