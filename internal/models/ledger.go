package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType is the closed set of ledger entry kinds. Every
// consumer switches over these exhaustively; there is no free-form
// type string.
type TransactionType string

const (
	TransactionTaskCompletion       TransactionType = "task_completion"
	TransactionReferralCommission   TransactionType = "referral_commission"
	TransactionLevelBonus           TransactionType = "level_bonus"
	TransactionMultiplierAdjustment TransactionType = "activity_multiplier_adjustment"
	TransactionManualAdjustment     TransactionType = "manual_adjustment"
	TransactionTokenPurchase        TransactionType = "token_purchase"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTaskCompletion,
		TransactionReferralCommission,
		TransactionLevelBonus,
		TransactionMultiplierAdjustment,
		TransactionManualAdjustment,
		TransactionTokenPurchase:
		return true
	}
	return false
}

// ScicentTransaction is one append-only ledger entry. Entries are never
// mutated or deleted; a profile's balance is the sum of its entries.
// There is deliberately no DeletedAt column and no update path.
type ScicentTransaction struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	VolunteerID uuid.UUID        `gorm:"type:uuid;index;not null" json:"volunteer_id"`
	Volunteer   VolunteerProfile `gorm:"foreignKey:VolunteerID" json:"-"`
	Type        TransactionType  `gorm:"type:varchar(50);not null" json:"type"`
	// Amount is signed: credits positive, debits negative.
	Amount float64 `gorm:"type:decimal(20,2);not null" json:"amount"`
	// ExternalReference carries the idempotency key of the originating
	// event. One event may fan out into several entries (one per chain
	// level), so uniqueness is per (reference, volunteer) and the
	// distributor probes the ledger before any write.
	ExternalReference *string `gorm:"type:varchar(100);index" json:"external_reference,omitempty"`
	Description       string  `gorm:"type:text" json:"description"`
	Metadata          JSON    `gorm:"type:jsonb" json:"metadata,omitempty"`
	BalanceBefore     float64 `gorm:"type:decimal(20,2)" json:"balance_before"`
	BalanceAfter      float64 `gorm:"type:decimal(20,2)" json:"balance_after"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}
