package volunteer

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/scicent/backend/internal/models"
	"github.com/scicent/backend/internal/services/ledger"
	"github.com/scicent/backend/internal/services/leveling"
	"github.com/scicent/backend/internal/services/multiplier"
	"github.com/scicent/backend/internal/services/referral"
	"github.com/scicent/backend/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrProfileNotFound is returned when the profile does not exist.
var ErrProfileNotFound = errors.New("volunteer profile not found")

// multiplierTolerance is the smallest change worth persisting; smaller
// drifts only refresh the calculation timestamp to avoid audit noise.
const multiplierTolerance = 0.01

// Dispatcher enqueues asynchronous follow-up work.
type Dispatcher interface {
	DispatchMultiplierRecalc(profileID uuid.UUID, propagate bool) error
}

// ProfileService owns VolunteerProfile lifecycle and the XP/multiplier
// mutations around it.
type ProfileService struct {
	db         *gorm.DB
	ledger     *ledger.LedgerService
	chains     *referral.ChainService
	dispatcher Dispatcher
	thresholds leveling.Thresholds
	multCfg    multiplier.Config
	levelBonus float64
}

// NewProfileService creates a new profile service
func NewProfileService(db *gorm.DB, ledgerSvc *ledger.LedgerService, chains *referral.ChainService, dispatcher Dispatcher, thresholds leveling.Thresholds, multCfg multiplier.Config, levelBonus float64) *ProfileService {
	return &ProfileService{
		db:         db,
		ledger:     ledgerSvc,
		chains:     chains,
		dispatcher: dispatcher,
		thresholds: thresholds,
		multCfg:    multCfg,
		levelBonus: levelBonus,
	}
}

// CreateProfile creates the profile for a confirmed identity. It is
// idempotent against retries: a second call with the same identity
// reference returns the existing profile unchanged.
func (s *ProfileService) CreateProfile(identityRef string, organizationID uuid.UUID, displayName string) (*models.VolunteerProfile, error) {
	var existing models.VolunteerProfile
	err := s.db.Where("identity_ref = ?", identityRef).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error finding profile: %w", err)
	}

	profile := models.VolunteerProfile{
		ID:                 uuid.New(),
		IdentityRef:        identityRef,
		OrganizationID:     organizationID,
		DisplayName:        displayName,
		Level:              1,
		TotalXP:            0,
		ActivityMultiplier: s.multCfg.Base,
		ReferralCode:       generateReferralCode(displayName),
	}

	if err := s.db.Create(&profile).Error; err != nil {
		// A concurrent retry may have won the insert; surface its row.
		var winner models.VolunteerProfile
		if ferr := s.db.Where("identity_ref = ?", identityRef).First(&winner).Error; ferr == nil {
			return &winner, nil
		}
		return nil, fmt.Errorf("error creating profile: %w", err)
	}

	return &profile, nil
}

// GetProfile loads one profile by ID.
func (s *ProfileService) GetProfile(profileID uuid.UUID) (*models.VolunteerProfile, error) {
	var profile models.VolunteerProfile
	if err := s.db.First(&profile, "id = ?", profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("error finding profile: %w", err)
	}
	return &profile, nil
}

// GetProfileByReferralCode resolves a referral code to its owner.
func (s *ProfileService) GetProfileByReferralCode(code string) (*models.VolunteerProfile, error) {
	var profile models.VolunteerProfile
	if err := s.db.Where("referral_code = ?", code).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("error finding profile by code: %w", err)
	}
	return &profile, nil
}

// XPAwardResult reports what an XP award changed.
type XPAwardResult struct {
	XPAwarded    int64 `json:"xp_awarded"`
	TotalXP      int64 `json:"total_xp"`
	OldLevel     int   `json:"old_level"`
	NewLevel     int   `json:"new_level"`
	LevelsGained int   `json:"levels_gained"`
}

// AwardXPWithTx credits XP to a row-locked profile, re-derives the
// level from the threshold table and posts a level_bonus ledger entry
// per level gained. Runs inside the caller's transaction so the award
// commits atomically with whatever triggered it.
func (s *ProfileService) AwardXPWithTx(tx *gorm.DB, profileID uuid.UUID, xp int64, now time.Time) (*XPAwardResult, error) {
	var profile models.VolunteerProfile
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&profile, "id = ?", profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("error locking profile: %w", err)
	}

	result := &XPAwardResult{XPAwarded: xp, OldLevel: profile.Level}

	profile.TotalXP += xp
	profile.Level = s.thresholds.LevelForXP(profile.TotalXP)
	profile.LastActivityAt = &now

	result.TotalXP = profile.TotalXP
	result.NewLevel = profile.Level
	result.LevelsGained = result.NewLevel - result.OldLevel

	if err := tx.Save(&profile).Error; err != nil {
		return nil, fmt.Errorf("error saving profile: %w", err)
	}

	if result.LevelsGained > 0 && s.levelBonus > 0 {
		bonus := s.levelBonus * float64(result.LevelsGained)
		_, err := s.ledger.AppendWithTx(tx, ledger.Entry{
			VolunteerID: profileID,
			Type:        models.TransactionLevelBonus,
			Amount:      bonus,
			Description: fmt.Sprintf("level bonus for reaching level %d", result.NewLevel),
			Metadata: models.JSON{
				"old_level": result.OldLevel,
				"new_level": result.NewLevel,
			},
		})
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// RecalculateMultiplier recomputes a profile's activity multiplier
// from scratch and persists it only when it moved more than the
// tolerance. The calculation timestamp is recorded either way. When
// propagate is set, recalculation jobs are dispatched for the upline
// (bounded) and the direct referrals, since their bonuses depend on
// this profile's standing.
func (s *ProfileService) RecalculateMultiplier(profileID uuid.UUID, propagate bool) (float64, error) {
	profile, err := s.GetProfile(profileID)
	if err != nil {
		return 0, err
	}

	approved, err := s.approvedTasksSince(profileID, time.Now().Add(-30*24*time.Hour))
	if err != nil {
		return 0, err
	}
	activeReferrals, err := s.chains.ActiveReferralCount(profileID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	value := multiplier.Compute(multiplier.Inputs{
		Level:               profile.Level,
		ApprovedTasksLast30: approved,
		ActiveReferrals:     activeReferrals,
		LastActivityAt:      profile.LastActivityAt,
	}, s.multCfg, now)

	updates := map[string]interface{}{
		"last_multiplier_calculation_at": now,
	}
	changed := math.Abs(value-profile.ActivityMultiplier) > multiplierTolerance
	if changed {
		updates["activity_multiplier"] = value
	}

	if err := s.db.Model(&models.VolunteerProfile{}).Where("id = ?", profileID).Updates(updates).Error; err != nil {
		return 0, fmt.Errorf("error saving multiplier: %w", err)
	}

	if changed {
		_, err := s.ledger.Append(ledger.Entry{
			VolunteerID: profileID,
			Type:        models.TransactionMultiplierAdjustment,
			Amount:      0,
			Description: "activity multiplier recalculated",
			Metadata: models.JSON{
				"old_multiplier": profile.ActivityMultiplier,
				"new_multiplier": value,
			},
		})
		if err != nil {
			log.Printf("failed to record multiplier adjustment for %s: %v", profileID, err)
		}
	}

	if propagate {
		s.propagate(profileID)
	}

	return value, nil
}

// propagate fans recalculation out to the immediate neighbourhood:
// up to 5 ancestors and the direct referrals. Each target gets its own
// job with propagation off, which bounds the ripple to one hop of
// fan-out per activity change.
func (s *ProfileService) propagate(profileID uuid.UUID) {
	if s.dispatcher == nil {
		return
	}

	ancestors, err := s.chains.Upline(profileID, models.MaxReferralDepth)
	if err != nil {
		log.Printf("failed to load upline of %s for propagation: %v", profileID, err)
	}
	for _, ancestor := range ancestors {
		if err := s.dispatcher.DispatchMultiplierRecalc(ancestor.ID, false); err != nil {
			log.Printf("failed to enqueue multiplier recalc for %s: %v", ancestor.ID, err)
		}
	}

	referrals, err := s.chains.DirectReferrals(profileID)
	if err != nil {
		log.Printf("failed to load referrals of %s for propagation: %v", profileID, err)
	}
	for _, referred := range referrals {
		if err := s.dispatcher.DispatchMultiplierRecalc(referred.ID, false); err != nil {
			log.Printf("failed to enqueue multiplier recalc for %s: %v", referred.ID, err)
		}
	}
}

// Snapshot is the read-only projection dashboards consume.
type Snapshot struct {
	ProfileID    uuid.UUID `json:"profile_id"`
	Level        int       `json:"level"`
	TotalXP      int64     `json:"total_xp"`
	Multiplier   float64   `json:"multiplier"`
	ProgressPct  float64   `json:"progress_pct"`
	XPToNext     *int64    `json:"xp_to_next_level,omitempty"`
	ReferralCode string    `json:"referral_code"`
}

// GetSnapshot builds the dashboard projection for one profile.
func (s *ProfileService) GetSnapshot(profileID uuid.UUID) (*Snapshot, error) {
	profile, err := s.GetProfile(profileID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ProfileID:    profile.ID,
		Level:        profile.Level,
		TotalXP:      profile.TotalXP,
		Multiplier:   profile.ActivityMultiplier,
		ProgressPct:  s.thresholds.ProgressPercentage(profile.TotalXP, profile.Level),
		XPToNext:     s.thresholds.XPToNextLevel(profile.TotalXP, profile.Level),
		ReferralCode: profile.ReferralCode,
	}, nil
}

// Retire soft-deletes a profile and deactivates the referral edges
// pointing at it. Ledger entries referencing the profile stay; the row
// is never hard-deleted.
func (s *ProfileService) Retire(profileID uuid.UUID) error {
	if _, err := s.GetProfile(profileID); err != nil {
		return err
	}
	if err := s.db.Delete(&models.VolunteerProfile{}, "id = ?", profileID).Error; err != nil {
		return fmt.Errorf("error retiring profile: %w", err)
	}
	return s.chains.DeactivateFor(profileID)
}

func (s *ProfileService) approvedTasksSince(profileID uuid.UUID, since time.Time) (int, error) {
	var count int64
	err := s.db.Model(&models.TaskAssignment{}).
		Where("volunteer_id = ? AND status = ? AND reviewed_at >= ?", profileID, models.AssignmentStatusApproved, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting approved tasks: %w", err)
	}
	return int(count), nil
}

// generateReferralCode derives a readable, unique code from the display
// name plus a random suffix.
func generateReferralCode(displayName string) string {
	base := slug.Make(displayName)
	if base == "" {
		base = "volunteer"
	}
	if len(base) > 20 {
		base = base[:20]
	}
	suffix := strings.ToLower(utils.RandomString(6))
	return fmt.Sprintf("%s-%s", base, suffix)
}
