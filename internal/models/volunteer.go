package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VolunteerProfile represents one participant in an organization's
// rewards program. Level is always derived from TotalXP via the
// configured threshold table; ActivityMultiplier stays within
// [1.0, max_multiplier].
type VolunteerProfile struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	IdentityRef       string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"identity_ref"`
	OrganizationID    uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	DisplayName       string    `gorm:"type:varchar(100)" json:"display_name"`
	Level             int       `gorm:"not null;default:1" json:"level"`
	TotalXP           int64     `gorm:"not null;default:0" json:"total_xp"`
	ActivityMultiplier float64  `gorm:"type:decimal(6,4);not null;default:1.0" json:"activity_multiplier"`
	// ReferralCode is issued once at creation and never changes.
	ReferralCode string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"referral_code"`
	UplineID     *uuid.UUID `gorm:"type:uuid;index" json:"upline_id,omitempty"`
	Upline       *VolunteerProfile `gorm:"foreignKey:UplineID" json:"-"`

	LastActivityAt              *time.Time `json:"last_activity_at"`
	LastMultiplierCalculationAt *time.Time `json:"last_multiplier_calculation_at"`

	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsActive reports whether the profile counts as active for commission
// scaling: not soft-retired and with activity inside the last 30 days.
func (p *VolunteerProfile) IsActive(now time.Time) bool {
	if p.DeletedAt.Valid {
		return false
	}
	if p.LastActivityAt == nil {
		return false
	}
	return now.Sub(*p.LastActivityAt) <= 30*24*time.Hour
}
