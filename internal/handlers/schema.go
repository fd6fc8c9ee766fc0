package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/heraerp/platform/internal/platform/apierr"
	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/services"
	"github.com/heraerp/platform/internal/types"
)

type SchemaHandler struct {
	log    *logger.Logger
	schema services.SchemaManager
}

func NewSchemaHandler(log *logger.Logger, schema services.SchemaManager) *SchemaHandler {
	return &SchemaHandler{
		log:    log.With("handler", "SchemaHandler"),
		schema: schema,
	}
}

// GET /api/v1/schema/:kind?code=
func (h *SchemaHandler) GetSystemSchema(c *gin.Context) {
	defs, err := h.schema.GetSystemSchema(c.Request.Context(), types.SchemaKind(c.Param("kind")), c.Query("code"))
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"definitions": defs})
}

// GET /api/v1/smart-codes/resolve?code=
func (h *SchemaHandler) ResolveSmartCode(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("code query parameter is required"))
		return
	}
	def, err := h.schema.ResolveSmartCode(c.Request.Context(), code)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"definition": def})
}

// GET /api/v1/organizations/:org_id/config
func (h *SchemaHandler) GetOrgConfig(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("org_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("invalid organization id"))
		return
	}
	cfg, err := h.schema.GetOrgConfig(c.Request.Context(), orgID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	// nil config means the org runs on system defaults.
	RespondOK(c, gin.H{"config": cfg})
}

// PUT /api/v1/organizations/:org_id/config
func (h *SchemaHandler) UpsertOrgConfig(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("org_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("invalid organization id"))
		return
	}
	var patch services.OrgConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("invalid request body"))
		return
	}
	cfg, err := h.schema.UpsertOrgConfig(c.Request.Context(), orgID, patch, c.GetHeader("X-Actor"))
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"config": cfg})
}

// GET /api/v1/organizations/:org_id/effective-config?entity_type=&selection_type=
func (h *SchemaHandler) EffectiveConfig(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("org_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("invalid organization id"))
		return
	}
	entityType := c.Query("entity_type")
	if entityType == "" {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("entity_type query parameter is required"))
		return
	}
	cfg, err := h.schema.EffectiveFieldConfig(c.Request.Context(), orgID, entityType, c.Query("selection_type"))
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, cfg)
}
