package commission

import (
	"fmt"
	"time"

	"github.com/scicent/backend/internal/models"
	"gorm.io/gorm"
)

// FraudFlagKind labels one advisory anti-fraud signal. Flags are
// surfaced to the external review process, never enforced here.
type FraudFlagKind string

const (
	FlagPurchaseVelocity FraudFlagKind = "purchase_velocity"
	FlagOutlierSale      FraudFlagKind = "outlier_sale"
	FlagFreshUpline      FraudFlagKind = "fresh_upline"
)

// FraudFlag is one advisory signal raised during a distribution.
type FraudFlag struct {
	Kind   FraudFlagKind `json:"kind"`
	Detail string        `json:"detail"`
}

const (
	purchaseVelocityWindow = time.Hour
	purchaseVelocityLimit  = 10
	outlierSaleFactor      = 10.0
	outlierSaleWindow      = 30 * 24 * time.Hour
	freshUplineWindow      = 24 * time.Hour
	freshUplineLimit       = 2
)

// checkSaleAdvisories gathers the purchase-velocity and outlier-sale
// flags for a token sale against one profile.
func (d *Distributor) checkSaleAdvisories(tx *gorm.DB, profile *models.VolunteerProfile, amount float64, now time.Time) []FraudFlag {
	var flags []FraudFlag

	count, err := d.ledger.PurchaseCountSince(tx, profile.ID, now.Add(-purchaseVelocityWindow))
	if err == nil && purchaseVelocityExceeded(count) {
		flags = append(flags, FraudFlag{
			Kind:   FlagPurchaseVelocity,
			Detail: fmt.Sprintf("%d token purchases within the last hour", count+1),
		})
	}

	avg, err := d.ledger.AveragePurchaseSince(tx, profile.ID, now.Add(-outlierSaleWindow))
	if err == nil && avg > 0 && amount > outlierSaleFactor*avg {
		flags = append(flags, FraudFlag{
			Kind:   FlagOutlierSale,
			Detail: fmt.Sprintf("sale of %.2f exceeds 10x the 30-day average of %.2f", amount, avg),
		})
	}

	return flags
}

// purchaseVelocityExceeded counts the sale being recorded on top of
// the prior purchases in the window, so the 11th purchase in an hour
// trips the limit of 10.
func purchaseVelocityExceeded(prior int64) bool {
	return prior+1 > purchaseVelocityLimit
}

// checkUplineAdvisory flags an upline where more than two ancestors
// were created inside the last 24 hours, a common shape for farmed
// chains.
func checkUplineAdvisory(ancestors []models.VolunteerProfile, now time.Time) []FraudFlag {
	fresh := 0
	for _, a := range ancestors {
		if now.Sub(a.CreatedAt) < freshUplineWindow {
			fresh++
		}
	}
	if fresh <= freshUplineLimit {
		return nil
	}
	return []FraudFlag{{
		Kind:   FlagFreshUpline,
		Detail: fmt.Sprintf("%d upline ancestors created within 24h", fresh),
	}}
}
