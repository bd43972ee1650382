package commission

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/scicent/backend/internal/models"
	"github.com/scicent/backend/internal/services/ledger"
	"gorm.io/gorm"
)

var (
	// ErrInvalidProfile is returned when the sale target does not exist.
	ErrInvalidProfile = errors.New("volunteer profile not found")
	// ErrInvalidAmount is returned for zero or negative base amounts.
	ErrInvalidAmount = errors.New("base amount must be positive")
	// ErrEmptyReference is returned when no idempotency reference was given.
	ErrEmptyReference = errors.New("external reference required")
)

// EventKind distinguishes what triggered a distribution.
type EventKind string

const (
	EventTaskApproval EventKind = "task_approval"
	EventTokenSale    EventKind = "token_sale"
)

// Dispatcher enqueues follow-up work (multiplier recalculation for the
// credited referrers). The jobs package adapts the queue to this.
type Dispatcher interface {
	DispatchMultiplierRecalc(profileID uuid.UUID, propagate bool) error
}

// DistributionSummary reports what a distribution did.
type DistributionSummary struct {
	Reference        string      `json:"reference"`
	Kind             EventKind   `json:"kind"`
	BaseAmount       float64     `json:"base_amount"`
	Postings         []Posting   `json:"postings"`
	TotalDistributed float64     `json:"total_distributed"`
	Duplicate        bool        `json:"duplicate"`
	Flags            []FraudFlag `json:"flags,omitempty"`
}

// Distributor walks a referral chain and posts per-level commission
// entries to the ledger.
type Distributor struct {
	db         *gorm.DB
	ledger     *ledger.LedgerService
	dispatcher Dispatcher
	cfg        Config
}

// NewDistributor creates a new commission distributor
func NewDistributor(db *gorm.DB, ledgerSvc *ledger.LedgerService, dispatcher Dispatcher, cfg Config) *Distributor {
	return &Distributor{db: db, ledger: ledgerSvc, dispatcher: dispatcher, cfg: cfg}
}

// Distribute runs one commission distribution for a qualifying event
// against volunteerID with the given base amount. The whole
// distribution is idempotent per reference: re-invocation is a
// success no-op checked against the ledger before any write.
func (d *Distributor) Distribute(volunteerID uuid.UUID, baseAmount float64, reference string, kind EventKind) (*DistributionSummary, error) {
	return d.distribute(volunteerID, baseAmount, reference, kind, nil)
}

// RecordExternalSale posts the token_purchase entry for an externally
// settled sale and distributes commissions up the chain, all under one
// reference and one transaction.
func (d *Distributor) RecordExternalSale(volunteerID uuid.UUID, amount float64, reference string) (*DistributionSummary, error) {
	return d.distribute(volunteerID, amount, reference, EventTokenSale, func(tx *gorm.DB, summary *DistributionSummary, profile *models.VolunteerProfile, now time.Time) error {
		summary.Flags = append(summary.Flags, d.checkSaleAdvisories(tx, profile, amount, now)...)

		_, err := d.ledger.AppendWithTx(tx, ledger.Entry{
			VolunteerID:       volunteerID,
			Type:              models.TransactionTokenPurchase,
			Amount:            amount,
			ExternalReference: &reference,
			Description:       "external token sale",
			Metadata:          models.JSON{"reference": reference},
		})
		return err
	})
}

func (d *Distributor) distribute(volunteerID uuid.UUID, baseAmount float64, reference string, kind EventKind, before func(*gorm.DB, *DistributionSummary, *models.VolunteerProfile, time.Time) error) (*DistributionSummary, error) {
	if baseAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	if reference == "" {
		return nil, ErrEmptyReference
	}

	now := time.Now()
	summary := &DistributionSummary{Reference: reference, Kind: kind, BaseAmount: baseAmount}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		// A task approval posts its task_completion entry under the same
		// reference before the distribution job runs, so the duplicate
		// probe is scoped to what this code path writes.
		probeType := models.TransactionReferralCommission
		if kind == EventTokenSale {
			probeType = models.TransactionTokenPurchase
		}
		exists, err := d.ledger.HasReferenceOfTypeTx(tx, reference, probeType)
		if err != nil {
			return err
		}
		if exists {
			summary.Duplicate = true
			return nil
		}

		var profile models.VolunteerProfile
		if err := tx.First(&profile, "id = ?", volunteerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidProfile
			}
			return fmt.Errorf("error finding profile: %w", err)
		}

		if before != nil {
			if err := before(tx, summary, &profile, now); err != nil {
				return err
			}
		}

		chain, ancestors, err := d.loadChain(tx, volunteerID)
		if err != nil {
			return err
		}
		summary.Flags = append(summary.Flags, checkUplineAdvisory(ancestors, now)...)

		summary.Postings = Plan(chain, baseAmount, d.cfg)
		for _, posting := range summary.Postings {
			_, err := d.ledger.AppendWithTx(tx, ledger.Entry{
				VolunteerID:       posting.ReferrerID,
				Type:              models.TransactionReferralCommission,
				Amount:            posting.Amount,
				ExternalReference: &reference,
				Description:       fmt.Sprintf("level %d commission on %s", posting.Level, kind),
				Metadata: models.JSON{
					"source_volunteer_id": volunteerID.String(),
					"level":               posting.Level,
					"rate":                posting.Rate,
					"base_amount":         baseAmount,
				},
			})
			if err != nil {
				return err
			}
			summary.TotalDistributed += posting.Amount
		}

		return nil
	})
	if err != nil {
		// A concurrent delivery of the same reference won the race and
		// our insert hit the ledger's unique reference index. The work
		// is done; report it as the duplicate it is.
		if duplicateWrite(err) {
			summary.Postings = nil
			summary.Flags = nil
			summary.TotalDistributed = 0
			summary.Duplicate = true
		} else {
			return nil, err
		}
	}

	if summary.Duplicate {
		log.Printf("distribution for reference %s already processed, skipping", reference)
		return summary, nil
	}

	// Commissions change referrer activity standing; refresh their
	// multipliers off the synchronous path.
	if d.dispatcher != nil {
		for _, posting := range summary.Postings {
			if err := d.dispatcher.DispatchMultiplierRecalc(posting.ReferrerID, false); err != nil {
				log.Printf("failed to enqueue multiplier recalc for %s: %v", posting.ReferrerID, err)
			}
		}
	}

	return summary, nil
}

// duplicateWrite reports whether the transaction failed because a
// ledger insert collided with the unique reference index, meaning a
// concurrent delivery already posted under this reference.
func duplicateWrite(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// loadChain materializes the upline as planner input. It reads the
// referral edges (levels 1..5) with their referrer profiles.
func (d *Distributor) loadChain(tx *gorm.DB, volunteerID uuid.UUID) ([]ChainLink, []models.VolunteerProfile, error) {
	var edges []models.Referral
	if err := tx.Preload("Referrer").
		Where("referred_id = ? AND active = ?", volunteerID, true).
		Order("level ASC").
		Limit(models.MaxReferralDepth).
		Find(&edges).Error; err != nil {
		return nil, nil, fmt.Errorf("error loading referral chain: %w", err)
	}

	now := time.Now()
	chain := make([]ChainLink, 0, len(edges))
	ancestors := make([]models.VolunteerProfile, 0, len(edges))
	for _, edge := range edges {
		chain = append(chain, ChainLink{
			ReferrerID:         edge.ReferrerID,
			Level:              edge.Level,
			Rate:               edge.CommissionRate,
			ReferrerActive:     edge.Referrer.IsActive(now),
			ReferrerMultiplier: edge.Referrer.ActivityMultiplier,
		})
		ancestors = append(ancestors, edge.Referrer)
	}
	return chain, ancestors, nil
}
