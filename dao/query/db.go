package query

import (
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/raids-lab/approvalflow/pkg/config"
	"github.com/raids-lab/approvalflow/pkg/logutils"
)

var (
	once     sync.Once
	instance *gorm.DB
)

// GetDB returns the singleton instance of the database connection.
func GetDB() *gorm.DB {
	once.Do(func() {
		var err error
		instance, err = Open(&config.GetConfig().Postgres)
		if err != nil {
			panic(err)
		}
		logutils.Log.Info("Postgres init success!")
	})
	return instance
}

// Open connects to the primary and, if any are configured, registers the
// replicas for reads. Writes and transactions always go to the primary.
func Open(pg *config.PostgresConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(pg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if len(pg.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(pg.Replicas))
		for _, dsn := range pg.Replicas {
			replicas = append(replicas, postgres.Open(dsn))
		}
		resolver := dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}).
			SetMaxIdleConns(maxIdleConns).
			SetMaxOpenConns(maxOpenConns).
			SetConnMaxLifetime(time.Hour)
		if err := db.Use(resolver); err != nil {
			return nil, err
		}
		logutils.Log.WithField("replicas", len(replicas)).Info("read replicas registered")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

const (
	maxIdleConns = 5
	maxOpenConns = 10
)
