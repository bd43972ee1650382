package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createTaskTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_task_tables",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS task_templates (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					organization_id UUID NOT NULL,
					title VARCHAR(200) NOT NULL,
					slug VARCHAR(220) NOT NULL UNIQUE,
					description TEXT,
					xp_reward BIGINT NOT NULL,
					level_required INT NOT NULL DEFAULT 1,
					status VARCHAR(20) NOT NULL DEFAULT 'draft',
					frequency VARCHAR(20) NOT NULL DEFAULT 'once',
					deadline_days INT NOT NULL DEFAULT 7,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_task_templates_organization_id ON task_templates(organization_id);
				CREATE INDEX idx_task_templates_status ON task_templates(status);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS task_assignments (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					template_id UUID NOT NULL REFERENCES task_templates(id) ON DELETE CASCADE,
					volunteer_id UUID NOT NULL REFERENCES volunteer_profiles(id),
					status VARCHAR(20) NOT NULL DEFAULT 'pending',
					assigned_at TIMESTAMP WITH TIME ZONE NOT NULL,
					due_date TIMESTAMP WITH TIME ZONE NOT NULL,
					submitted_at TIMESTAMP WITH TIME ZONE,
					reviewed_at TIMESTAMP WITH TIME ZONE,
					reviewer_id UUID,
					review_notes TEXT,
					submission JSONB,
					xp_awarded BIGINT DEFAULT 0,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_task_assignments_template_id ON task_assignments(template_id);
				CREATE INDEX idx_task_assignments_volunteer_id ON task_assignments(volunteer_id);
				CREATE INDEX idx_task_assignments_status ON task_assignments(status);
				CREATE INDEX idx_task_assignments_due_date ON task_assignments(due_date);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Exec("DROP TABLE IF EXISTS task_assignments").Error; err != nil {
				return err
			}
			return tx.Exec("DROP TABLE IF EXISTS task_templates").Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createTaskTables())
}
