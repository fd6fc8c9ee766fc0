package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/heraerp/platform/internal/platform/apierr"
	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/services"
	"github.com/heraerp/platform/internal/types"
)

type PostingHandler struct {
	log     *logger.Logger
	posting services.PostingEngine
	txns    services.TransactionService
}

func NewPostingHandler(log *logger.Logger, posting services.PostingEngine, txns services.TransactionService) *PostingHandler {
	return &PostingHandler{
		log:     log.With("handler", "PostingHandler"),
		posting: posting,
		txns:    txns,
	}
}

// POST /api/v1/posting/apply
//
// Dry run: returns the lines the engine would generate without persisting
// anything. Record is the persisting counterpart.
func (h *PostingHandler) Apply(c *gin.Context) {
	var req struct {
		SmartCode   string          `json:"smart_code"`
		TotalAmount decimal.Decimal `json:"total_amount"`
		Conditions  map[string]bool `json:"conditions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("invalid request body"))
		return
	}
	txn := &types.Transaction{
		SmartCode:   req.SmartCode,
		TotalAmount: req.TotalAmount,
	}
	lines, err := h.posting.Apply(c.Request.Context(), txn, req.Conditions)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"lines": lines})
}

// POST /api/v1/posting/transactions
func (h *PostingHandler) Record(c *gin.Context) {
	var input services.RecordTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("invalid request body"))
		return
	}
	txn, err := h.txns.Record(c.Request.Context(), input)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, gin.H{"message": "transaction recorded", "data": txn})
}

// GET /api/v1/posting/transactions?organization_id=&type=
func (h *PostingHandler) ListTransactions(c *gin.Context) {
	orgID, err := uuid.Parse(c.Query("organization_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidation, apierr.Validation("organization_id query parameter is required"))
		return
	}
	txns, err := h.txns.ListByOrg(c.Request.Context(), orgID, c.Query("type"))
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"transactions": txns})
}

// GET /api/v1/posting/rules
func (h *PostingHandler) Rules(c *gin.Context) {
	RespondOK(c, gin.H{"rules": h.posting.Rules()})
}
