package migrate

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/raids-lab/approvalflow/dao/model"
)

func TestMigrateAndRollback(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "migrate.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	// running again is a no-op
	require.NoError(t, Migrate(db))

	for _, table := range []any{&model.ApprovalTemplate{}, &model.ApprovalRequest{}, &model.ApprovalLog{}} {
		require.True(t, db.Migrator().HasTable(table))
	}
	require.True(t, db.Migrator().HasIndex(&model.ApprovalLog{}, "idx_approval_logs_timeline"))

	require.NoError(t, RollbackLast(db))
	require.False(t, db.Migrator().HasIndex(&model.ApprovalLog{}, "idx_approval_logs_timeline"))
	require.True(t, db.Migrator().HasTable(&model.ApprovalLog{}))
}
