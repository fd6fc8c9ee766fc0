package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/heraerp/platform/internal/platform/apierr"
	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/services"
)

type MappingHandler struct {
	log     *logger.Logger
	mapping services.MappingEngine
}

func NewMappingHandler(log *logger.Logger, mapping services.MappingEngine) *MappingHandler {
	return &MappingHandler{
		log:     log.With("handler", "MappingHandler"),
		mapping: mapping,
	}
}

// POST /api/v1/mapping/analyze
func (h *MappingHandler) Analyze(c *gin.Context) {
	var req struct {
		Records []map[string]interface{} `json:"records"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("invalid request body"))
		return
	}
	if len(req.Records) == 0 {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("records must not be empty"))
		return
	}
	RespondOK(c, h.mapping.Analyze(req.Records))
}
