// Package migrate owns the database schema. Migrations are append-only:
// never edit one that has been released, add a new ID instead.
package migrate

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/raids-lab/approvalflow/dao/model"
)

func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202410150001_approval_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&model.ApprovalTemplate{}, &model.ApprovalRequest{}, &model.ApprovalLog{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&model.ApprovalLog{}, &model.ApprovalRequest{}, &model.ApprovalTemplate{})
			},
		},
		{
			ID: "202410150002_approval_log_timeline_index",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec("CREATE INDEX IF NOT EXISTS idx_approval_logs_timeline ON approval_logs (request_id, created_at, id)").Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP INDEX IF EXISTS idx_approval_logs_timeline").Error
			},
		},
	}
}

// Migrate brings the schema up to date.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// RollbackLast undoes the most recent migration.
func RollbackLast(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations())
	if err := m.RollbackLast(); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
