package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/scicent/backend/internal/services/referral"
	"github.com/stretchr/testify/assert"
)

func TestReferralErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"self referral", referral.ErrSelfReferral, http.StatusBadRequest},
		{"duplicate", referral.ErrDuplicateReferral, http.StatusConflict},
		{"cycle", referral.ErrCycle, http.StatusBadRequest},
		{"missing profile", referral.ErrProfileNotFound, http.StatusNotFound},
		{"wrapped cycle", fmt.Errorf("building chain: %w", referral.ErrCycle), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := referralErrorStatus(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.NotEmpty(t, msg)
		})
	}
}
