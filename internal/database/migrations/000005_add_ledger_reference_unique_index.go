package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// The plain external_reference index cannot stop two concurrent
// distributions of the same event from both passing the duplicate
// probe and both posting. The partial unique index makes the second
// insert fail, which the distributor treats as a duplicate delivery.
func addLedgerReferenceUniqueIndex() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000005_add_ledger_reference_unique_index",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP INDEX IF EXISTS idx_scicent_transactions_external_reference;

				CREATE UNIQUE INDEX idx_scicent_transactions_reference_unique
					ON scicent_transactions(external_reference, type, volunteer_id)
					WHERE external_reference IS NOT NULL;
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP INDEX IF EXISTS idx_scicent_transactions_reference_unique;

				CREATE INDEX idx_scicent_transactions_external_reference
					ON scicent_transactions(external_reference);
			`).Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, addLedgerReferenceUniqueIndex())
}
