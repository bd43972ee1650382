package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createVolunteerProfilesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_volunteer_profiles_table",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

				CREATE TABLE IF NOT EXISTS volunteer_profiles (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					identity_ref VARCHAR(128) NOT NULL UNIQUE,
					organization_id UUID NOT NULL,
					display_name VARCHAR(100),
					level INT NOT NULL DEFAULT 1,
					total_xp BIGINT NOT NULL DEFAULT 0,
					activity_multiplier DECIMAL(6,4) NOT NULL DEFAULT 1.0,
					referral_code VARCHAR(50) NOT NULL UNIQUE,
					upline_id UUID REFERENCES volunteer_profiles(id),
					last_activity_at TIMESTAMP WITH TIME ZONE,
					last_multiplier_calculation_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_volunteer_profiles_organization_id ON volunteer_profiles(organization_id);
				CREATE INDEX idx_volunteer_profiles_upline_id ON volunteer_profiles(upline_id);
				CREATE INDEX idx_volunteer_profiles_deleted_at ON volunteer_profiles(deleted_at);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS volunteer_profiles").Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createVolunteerProfilesTable())
}
