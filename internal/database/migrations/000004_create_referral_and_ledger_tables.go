package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createReferralAndLedgerTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_referral_and_ledger_tables",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS referrals (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					referrer_id UUID NOT NULL REFERENCES volunteer_profiles(id),
					referred_id UUID NOT NULL REFERENCES volunteer_profiles(id),
					level INT NOT NULL,
					commission_rate DECIMAL(5,4) NOT NULL,
					active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE,
					CONSTRAINT idx_referral_pair UNIQUE (referrer_id, referred_id)
				);

				CREATE INDEX idx_referrals_referrer_id ON referrals(referrer_id);
				CREATE INDEX idx_referrals_referred_id ON referrals(referred_id);
			`).Error; err != nil {
				return err
			}

			// The ledger is append-only: no updated_at, no deleted_at,
			// and no UPDATE path anywhere in the codebase.
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS scicent_transactions (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					volunteer_id UUID NOT NULL REFERENCES volunteer_profiles(id),
					type VARCHAR(50) NOT NULL,
					amount DECIMAL(20,2) NOT NULL,
					external_reference VARCHAR(100),
					description TEXT,
					metadata JSONB,
					balance_before DECIMAL(20,2),
					balance_after DECIMAL(20,2),
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX idx_scicent_transactions_volunteer_id ON scicent_transactions(volunteer_id);
				CREATE INDEX idx_scicent_transactions_external_reference ON scicent_transactions(external_reference);
				CREATE INDEX idx_scicent_transactions_type ON scicent_transactions(type);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Exec("DROP TABLE IF EXISTS scicent_transactions").Error; err != nil {
				return err
			}
			return tx.Exec("DROP TABLE IF EXISTS referrals").Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createReferralAndLedgerTables())
}
