package database

import (
	"github.com/fixcity/api/internal/config"
	"github.com/fixcity/api/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Report{},
		&model.ReportEvidence{},
		&model.MergeLog{},
		&model.Category{},
		&model.User{},
		&model.RefreshToken{},
	)
	if err != nil {
		return err
	}

	// Candidate loads always filter on canonicity; a partial index keeps the
	// hot path off merged-away rows.
	db.Exec("CREATE INDEX IF NOT EXISTS idx_reports_canonical_created ON reports(created_at) WHERE parent_report_id IS NULL")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_reports_category_lower ON reports(lower(category)) WHERE parent_report_id IS NULL")

	// Create unique index for users (provider, provider_id)
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_users_provider_provider_id ON users(provider, provider_id)")

	return nil
}
