package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxReferralDepth bounds the upline chain: edges exist for levels 1..5
// and walking any upline terminates within 5 hops.
const MaxReferralDepth = 5

// Referral is one materialized edge in the upline chain. When B is
// referred by A, a level-1 edge A→B is created along with edges at
// levels 2..5 for each of A's own ancestors. Edges are immutable after
// creation except for the Active flag.
type Referral struct {
	ID         uuid.UUID        `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ReferrerID uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_referral_pair" json:"referrer_id"`
	Referrer   VolunteerProfile `gorm:"foreignKey:ReferrerID" json:"-"`
	ReferredID uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_referral_pair" json:"referred_id"`
	Referred   VolunteerProfile `gorm:"foreignKey:ReferredID" json:"-"`
	Level      int              `gorm:"not null" json:"level"`
	// CommissionRate is fixed at chain-build time from the per-level
	// configuration, stored so historic payouts stay auditable after a
	// rate change.
	CommissionRate float64        `gorm:"type:decimal(5,4);not null" json:"commission_rate"`
	Active         bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
