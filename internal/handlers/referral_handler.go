package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scicent/backend/internal/services/referral"
	"github.com/scicent/backend/internal/services/volunteer"
)

// ReferralHandler handles referral linking requests
type ReferralHandler struct {
	profiles *volunteer.ProfileService
	chains   *referral.ChainService
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(profiles *volunteer.ProfileService, chains *referral.ChainService) *ReferralHandler {
	return &ReferralHandler{
		profiles: profiles,
		chains:   chains,
	}
}

// referralErrorStatus maps chain-building errors to HTTP responses.
func referralErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, referral.ErrSelfReferral):
		return http.StatusBadRequest, "cannot refer yourself"
	case errors.Is(err, referral.ErrDuplicateReferral):
		return http.StatusConflict, "profile is already referred"
	case errors.Is(err, referral.ErrCycle):
		return http.StatusBadRequest, "referral would create a cycle"
	case errors.Is(err, referral.ErrProfileNotFound):
		return http.StatusNotFound, "profile not found"
	default:
		return http.StatusInternalServerError, "failed to build referral chain"
	}
}

// LinkReferral places the authenticated profile under the owner of the
// supplied referral code. The full chain of edges up to five levels is
// materialized in one transaction.
func (h *ReferralHandler) LinkReferral(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var input struct {
		ReferralCode string `json:"referral_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	referrer, err := h.profiles.GetProfileByReferralCode(input.ReferralCode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown referral code"})
		return
	}

	edges, err := h.chains.BuildChain(referrer.ID, profileID)
	if err != nil {
		status, msg := referralErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"referrer_id": referrer.ID,
		"levels":      len(edges),
	})
}

// ListDirectReferrals returns the profiles directly referred by the
// authenticated volunteer.
func (h *ReferralHandler) ListDirectReferrals(c *gin.Context) {
	profileID, ok := profileIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	referrals, err := h.chains.DirectReferrals(profileID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list referrals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"referrals": referrals})
}
