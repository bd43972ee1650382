package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/scicent/backend/internal/models"
	"github.com/scicent/backend/internal/services/commission"
	"github.com/scicent/backend/internal/services/ledger"
	"github.com/scicent/backend/internal/services/volunteer"
	"github.com/scicent/backend/internal/utils"
	"gorm.io/gorm"
)

// SaleHandler handles external token sale reports and manual ledger
// adjustments. Both are admin surfaces fed by the organization's
// store or back office.
type SaleHandler struct {
	distributor *commission.Distributor
	ledger      *ledger.LedgerService
	profiles    *volunteer.ProfileService
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(distributor *commission.Distributor, ledgerSvc *ledger.LedgerService, profiles *volunteer.ProfileService) *SaleHandler {
	return &SaleHandler{
		distributor: distributor,
		ledger:      ledgerSvc,
		profiles:    profiles,
	}
}

// RecordSale posts a token purchase for a volunteer and distributes
// commissions up the referral chain. Replaying the same reference is a
// successful no-op, so upstream systems may retry freely.
func (h *SaleHandler) RecordSale(c *gin.Context) {
	var input struct {
		VolunteerID uuid.UUID `json:"volunteer_id" binding:"required"`
		Amount      float64   `json:"amount" binding:"required"`
		Reference   string    `json:"reference" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.distributor.RecordExternalSale(input.VolunteerID, input.Amount, input.Reference)
	if err != nil {
		switch {
		case errors.Is(err, commission.ErrInvalidProfile):
			c.JSON(http.StatusNotFound, gin.H{"error": "volunteer not found"})
		case errors.Is(err, commission.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		case errors.Is(err, commission.ErrEmptyReference):
			c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record sale"})
		}
		return
	}

	status := http.StatusCreated
	if summary.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, summary)
}

// ManualAdjustment posts a signed manual_adjustment ledger entry.
func (h *SaleHandler) ManualAdjustment(c *gin.Context) {
	var input struct {
		VolunteerID uuid.UUID `json:"volunteer_id" binding:"required"`
		Amount      float64   `json:"amount" binding:"required"`
		Description string    `json:"description" binding:"required"`
		Reference   string    `json:"reference"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.profiles.GetProfile(input.VolunteerID); err != nil {
		if errors.Is(err, volunteer.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "volunteer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load volunteer"})
		return
	}

	entry := ledger.Entry{
		VolunteerID: input.VolunteerID,
		Type:        models.TransactionManualAdjustment,
		Amount:      input.Amount,
		Description: input.Description,
	}
	reference := input.Reference
	if reference == "" {
		reference = utils.GenerateReference("adj")
	}
	entry.ExternalReference = &reference

	posted, err := h.ledger.Append(entry)
	if err != nil {
		// The ledger's unique reference index rejects a replayed
		// adjustment reference.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "reference already used"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to post adjustment"})
		return
	}

	c.JSON(http.StatusCreated, posted)
}
