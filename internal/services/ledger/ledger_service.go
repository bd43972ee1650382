package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/scicent/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidType is returned when an entry carries an unknown
// transaction type.
var ErrInvalidType = errors.New("invalid transaction type")

// LedgerService appends ScicentTransaction entries. The ledger is
// append-only: there is no update or delete API, and balances are
// always the sum of entries.
type LedgerService struct {
	db *gorm.DB
}

// NewLedgerService creates a new ledger service
func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// Entry describes one posting to be appended.
type Entry struct {
	VolunteerID       uuid.UUID
	Type              models.TransactionType
	Amount            float64
	ExternalReference *string
	Description       string
	Metadata          models.JSON
}

// Append posts a single entry inside its own transaction.
func (s *LedgerService) Append(entry Entry) (*models.ScicentTransaction, error) {
	var posted *models.ScicentTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		posted, err = s.AppendWithTx(tx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	return posted, nil
}

// AppendWithTx posts an entry using an existing transaction. The
// volunteer row is locked so concurrent appends serialize and the
// balance-before/after snapshot stays consistent.
func (s *LedgerService) AppendWithTx(tx *gorm.DB, entry Entry) (*models.ScicentTransaction, error) {
	if !entry.Type.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidType, entry.Type)
	}

	var profile models.VolunteerProfile
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&profile, "id = ?", entry.VolunteerID).Error; err != nil {
		return nil, fmt.Errorf("error finding volunteer profile: %w", err)
	}

	balanceBefore, err := s.balanceOf(tx, entry.VolunteerID)
	if err != nil {
		return nil, err
	}

	transaction := models.ScicentTransaction{
		ID:                uuid.New(),
		VolunteerID:       entry.VolunteerID,
		Type:              entry.Type,
		Amount:            entry.Amount,
		ExternalReference: entry.ExternalReference,
		Description:       entry.Description,
		Metadata:          entry.Metadata,
		BalanceBefore:     balanceBefore,
		BalanceAfter:      balanceBefore + entry.Amount,
	}

	if err := tx.Create(&transaction).Error; err != nil {
		return nil, fmt.Errorf("error creating ledger entry: %w", err)
	}

	return &transaction, nil
}

// HasExternalReference reports whether any entry was already posted
// under the given idempotency reference.
func (s *LedgerService) HasExternalReference(reference string) (bool, error) {
	return s.hasReference(s.db, reference)
}

// HasExternalReferenceTx is the in-transaction variant used by the
// distributor so the probe and the writes share one view.
func (s *LedgerService) HasExternalReferenceTx(tx *gorm.DB, reference string) (bool, error) {
	return s.hasReference(tx, reference)
}

// HasReferenceOfTypeTx reports whether an entry of the given type was
// already posted under the reference. One event reference can carry
// entries of several types (a sale posts a purchase plus commissions),
// so idempotence probes are scoped to the type being written.
func (s *LedgerService) HasReferenceOfTypeTx(tx *gorm.DB, reference string, txType models.TransactionType) (bool, error) {
	var count int64
	if err := tx.Model(&models.ScicentTransaction{}).
		Where("external_reference = ? AND type = ?", reference, txType).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("error checking external reference: %w", err)
	}
	return count > 0, nil
}

func (s *LedgerService) hasReference(db *gorm.DB, reference string) (bool, error) {
	var count int64
	if err := db.Model(&models.ScicentTransaction{}).
		Where("external_reference = ?", reference).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("error checking external reference: %w", err)
	}
	return count > 0, nil
}

// BalanceOf sums all entries for a profile.
func (s *LedgerService) BalanceOf(volunteerID uuid.UUID) (float64, error) {
	return s.balanceOf(s.db, volunteerID)
}

func (s *LedgerService) balanceOf(db *gorm.DB, volunteerID uuid.UUID) (float64, error) {
	var balance float64
	err := db.Model(&models.ScicentTransaction{}).
		Where("volunteer_id = ?", volunteerID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&balance).Error
	if err != nil {
		return 0, fmt.Errorf("error summing ledger entries: %w", err)
	}
	return balance, nil
}

// History returns paginated entries for a profile, newest first.
func (s *LedgerService) History(volunteerID uuid.UUID, page, pageSize int) ([]models.ScicentTransaction, int64, error) {
	var entries []models.ScicentTransaction
	var total int64

	if err := s.db.Model(&models.ScicentTransaction{}).Where("volunteer_id = ?", volunteerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting ledger entries: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	if err := s.db.Where("volunteer_id = ?", volunteerID).
		Order("created_at DESC").
		Offset(offset).Limit(pageSize).
		Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("error finding ledger entries: %w", err)
	}

	return entries, total, nil
}

// PurchaseCountSince counts token_purchase entries for a profile since
// the given cutoff. Used by the anti-fraud advisories.
func (s *LedgerService) PurchaseCountSince(tx *gorm.DB, volunteerID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := tx.Model(&models.ScicentTransaction{}).
		Where("volunteer_id = ? AND type = ? AND created_at >= ?", volunteerID, models.TransactionTokenPurchase, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting purchases: %w", err)
	}
	return count, nil
}

// AveragePurchaseSince returns the mean token_purchase amount for a
// profile since the cutoff, zero when there are none.
func (s *LedgerService) AveragePurchaseSince(tx *gorm.DB, volunteerID uuid.UUID, since time.Time) (float64, error) {
	var avg float64
	err := tx.Model(&models.ScicentTransaction{}).
		Where("volunteer_id = ? AND type = ? AND created_at >= ?", volunteerID, models.TransactionTokenPurchase, since).
		Select("COALESCE(AVG(amount), 0)").
		Scan(&avg).Error
	if err != nil {
		return 0, fmt.Errorf("error averaging purchases: %w", err)
	}
	return avg, nil
}
