package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/heraerp/platform/internal/platform/apierr"
	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/services"
)

type RelationshipHandler struct {
	log  *logger.Logger
	rels services.RelationshipService
}

func NewRelationshipHandler(log *logger.Logger, rels services.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{
		log:  log.With("handler", "RelationshipHandler"),
		rels: rels,
	}
}

// POST /api/v1/relationships
func (h *RelationshipHandler) Create(c *gin.Context) {
	var input services.LinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("invalid request body"))
		return
	}
	rel, err := h.rels.Link(c.Request.Context(), input)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, gin.H{"message": "relationship created", "data": rel})
}

// GET /api/v1/relationships?organization_id=&type=&from=&to=
func (h *RelationshipHandler) List(c *gin.Context) {
	orgID, err := uuid.Parse(c.Query("organization_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("organization_id query parameter is required"))
		return
	}
	query := services.RelationshipQuery{
		OrganizationID:   orgID,
		RelationshipType: c.Query("type"),
	}
	if raw := c.Query("from"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("invalid from entity id"))
			return
		}
		query.FromEntityID = id
	}
	if raw := c.Query("to"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("invalid to entity id"))
			return
		}
		query.ToEntityID = id
	}
	rels, err := h.rels.List(c.Request.Context(), query)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"relationships": rels})
}
