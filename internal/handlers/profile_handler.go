package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/scicent/backend/internal/services/ledger"
	"github.com/scicent/backend/internal/services/referral"
	"github.com/scicent/backend/internal/services/volunteer"
)

// ProfileHandler handles volunteer profile requests
type ProfileHandler struct {
	profiles *volunteer.ProfileService
	chains   *referral.ChainService
	ledger   *ledger.LedgerService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles *volunteer.ProfileService, chains *referral.ChainService, ledgerSvc *ledger.LedgerService) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		chains:   chains,
		ledger:   ledgerSvc,
	}
}

// profileIDFromContext extracts the authenticated profile ID set by
// the auth middleware.
func profileIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("profile_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

// CreateProfile registers a volunteer profile. Passing a referral code
// links the new profile under the code's owner and materializes the
// commission chain in the same request.
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	var input struct {
		IdentityRef    string    `json:"identity_ref" binding:"required"`
		OrganizationID uuid.UUID `json:"organization_id" binding:"required"`
		DisplayName    string    `json:"display_name" binding:"required"`
		ReferralCode   string    `json:"referral_code"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profiles.CreateProfile(input.IdentityRef, input.OrganizationID, input.DisplayName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create profile"})
		return
	}

	if input.ReferralCode != "" {
		referrer, err := h.profiles.GetProfileByReferralCode(input.ReferralCode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown referral code"})
			return
		}
		if _, err := h.chains.BuildChain(referrer.ID, profile.ID); err != nil {
			status, msg := referralErrorStatus(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
	}

	c.JSON(http.StatusCreated, profile)
}

// GetSnapshot returns the dashboard projection for the authenticated
// profile: level, XP, progress, multiplier and referral code.
func (h *ProfileHandler) GetSnapshot(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	snapshot, err := h.profiles.GetSnapshot(profileID)
	if err != nil {
		if errors.Is(err, volunteer.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load snapshot"})
		return
	}

	balance, err := h.ledger.BalanceOf(profileID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshot": snapshot,
		"balance":  balance,
	})
}

// GetLedgerHistory returns the authenticated profile's ledger entries,
// newest first.
func (h *ProfileHandler) GetLedgerHistory(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	entries, total, err := h.ledger.History(profileID, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ledger history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":   entries,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// RecalculateMultiplier forces a synchronous multiplier recomputation.
// Admin-only; the normal path is the background job.
func (h *ProfileHandler) RecalculateMultiplier(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile ID"})
		return
	}

	value, err := h.profiles.RecalculateMultiplier(profileID, false)
	if err != nil {
		if errors.Is(err, volunteer.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to recalculate multiplier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile_id": profileID, "multiplier": value})
}

// RetireProfile soft-retires a profile and deactivates its referral
// edges. Historic ledger entries stay untouched.
func (h *ProfileHandler) RetireProfile(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile ID"})
		return
	}

	if err := h.profiles.Retire(profileID); err != nil {
		if errors.Is(err, volunteer.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retire profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "retired"})
}
