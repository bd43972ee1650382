package referral

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/scicent/backend/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrSelfReferral is returned when a profile tries to refer itself.
	ErrSelfReferral = errors.New("referrer and referred must differ")
	// ErrDuplicateReferral is returned when the pair already has an edge.
	ErrDuplicateReferral = errors.New("referral pair already exists")
	// ErrCycle is returned when the referred profile is already an
	// ancestor of the referrer.
	ErrCycle = errors.New("referral would create a cycle")
	// ErrProfileNotFound is returned when either side does not exist.
	ErrProfileNotFound = errors.New("volunteer profile not found")
)

// ChainService builds and walks the upline chain.
type ChainService struct {
	db    *gorm.DB
	rates RateTable
}

// NewChainService creates a new chain service
func NewChainService(db *gorm.DB, rates RateTable) *ChainService {
	if rates == nil {
		rates = DefaultRates()
	}
	return &ChainService{db: db, rates: rates}
}

// BuildChain records that referred was brought in by referrer. It
// creates the level-1 edge plus edges at levels 2..5 for each of the
// referrer's own ancestors, all inside one transaction: a partial
// chain is never persisted. The referred profile's upline pointer is
// set in the same transaction.
func (s *ChainService) BuildChain(referrerID, referredID uuid.UUID) ([]models.Referral, error) {
	if referrerID == referredID {
		return nil, ErrSelfReferral
	}

	var created []models.Referral
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var referrer, referred models.VolunteerProfile
		if err := tx.First(&referrer, "id = ?", referrerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfileNotFound
			}
			return fmt.Errorf("error finding referrer: %w", err)
		}
		if err := tx.First(&referred, "id = ?", referredID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfileNotFound
			}
			return fmt.Errorf("error finding referred profile: %w", err)
		}

		if referred.UplineID != nil {
			return ErrDuplicateReferral
		}

		var existing int64
		if err := tx.Model(&models.Referral{}).
			Where("referrer_id = ? AND referred_id = ?", referrerID, referredID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("error checking existing referral: %w", err)
		}
		if existing > 0 {
			return ErrDuplicateReferral
		}

		// Collect the referrer plus its ancestors, bounded at depth 5.
		// Seeing the referred profile anywhere in that walk means the
		// new edge would close a loop.
		ancestors, err := s.uplineTx(tx, referrerID, models.MaxReferralDepth)
		if err != nil {
			return err
		}
		chain := append([]models.VolunteerProfile{referrer}, ancestors...)
		if containsProfile(chain, referredID) {
			return ErrCycle
		}

		for level, ancestor := range chain {
			if level+1 > models.MaxReferralDepth {
				break
			}
			edge := models.Referral{
				ID:             uuid.New(),
				ReferrerID:     ancestor.ID,
				ReferredID:     referredID,
				Level:          level + 1,
				CommissionRate: s.rates.Rate(level + 1),
				Active:         true,
			}
			if err := tx.Create(&edge).Error; err != nil {
				return fmt.Errorf("error creating level %d referral: %w", level+1, err)
			}
			created = append(created, edge)
		}

		if err := tx.Model(&models.VolunteerProfile{}).
			Where("id = ?", referredID).
			Update("upline_id", referrerID).Error; err != nil {
			return fmt.Errorf("error setting upline: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Upline walks the chain from a profile, bounded at maxDepth hops. The
// returned slice is ordered nearest ancestor first.
func (s *ChainService) Upline(profileID uuid.UUID, maxDepth int) ([]models.VolunteerProfile, error) {
	return s.uplineTx(s.db, profileID, maxDepth)
}

func (s *ChainService) uplineTx(tx *gorm.DB, profileID uuid.UUID, maxDepth int) ([]models.VolunteerProfile, error) {
	if maxDepth <= 0 || maxDepth > models.MaxReferralDepth {
		maxDepth = models.MaxReferralDepth
	}

	var current models.VolunteerProfile
	if err := tx.First(&current, "id = ?", profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("error walking upline: %w", err)
	}

	var chain []models.VolunteerProfile
	seen := map[uuid.UUID]bool{profileID: true}

	for len(chain) < maxDepth && current.UplineID != nil {
		next := *current.UplineID
		// A revisit means stored data already violates the acyclicity
		// invariant; stop rather than loop forever.
		if seen[next] {
			return nil, fmt.Errorf("upline of %s revisits %s: %w", profileID, next, ErrCycle)
		}
		seen[next] = true

		var ancestor models.VolunteerProfile
		if err := tx.First(&ancestor, "id = ?", next).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return nil, fmt.Errorf("error loading ancestor: %w", err)
		}
		chain = append(chain, ancestor)
		current = ancestor
	}

	return chain, nil
}

// ActiveReferralCount counts a profile's active direct (level 1)
// referrals. Feeds the multiplier's referral bonus.
func (s *ChainService) ActiveReferralCount(profileID uuid.UUID) (int, error) {
	var count int64
	err := s.db.Model(&models.Referral{}).
		Where("referrer_id = ? AND level = 1 AND active = ?", profileID, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting referrals: %w", err)
	}
	return int(count), nil
}

// DirectReferrals returns the profiles directly referred by profileID.
// Used for the downward leg of multiplier propagation.
func (s *ChainService) DirectReferrals(profileID uuid.UUID) ([]models.VolunteerProfile, error) {
	var profiles []models.VolunteerProfile
	err := s.db.Where("upline_id = ?", profileID).Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("error finding direct referrals: %w", err)
	}
	return profiles, nil
}

// DeactivateFor flips the Active flag off on every edge pointing at a
// soft-retired profile, so it stops feeding referral bonuses.
func (s *ChainService) DeactivateFor(referredID uuid.UUID) error {
	err := s.db.Model(&models.Referral{}).
		Where("referred_id = ?", referredID).
		Update("active", false).Error
	if err != nil {
		return fmt.Errorf("error deactivating referrals: %w", err)
	}
	return nil
}

func containsProfile(profiles []models.VolunteerProfile, id uuid.UUID) bool {
	for _, p := range profiles {
		if p.ID == id {
			return true
		}
	}
	return false
}
