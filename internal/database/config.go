package database

import (
	"context"
	"fmt"
	"time"

	"recoverydesk/internal/config"
	"recoverydesk/internal/models"
	"recoverydesk/internal/services"
	"recoverydesk/internal/utils"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	maxRetries = 5
	retryDelay = 5 * time.Second
)

// InitDB opens the postgres connection, migrates the schema and seeds the
// reference tables.
func InitDB(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.IsDevelopment() {
		level = logger.Info
	}

	gormConfig := &gorm.Config{
		// The sweep's selection queries run daily and are logged by the sweep itself.
		Logger:                                   utils.NewZapGormLogger(log, level, services.SweepQueryMarker),
		PrepareStmt:                              true,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: false,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
		if err == nil {
			break
		}
		log.Warn("database connection attempt failed", zap.Int("attempt", i+1), zap.Error(err))
		if i < maxRetries-1 {
			log.Info("retrying database connection", zap.Duration("in", retryDelay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdle)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpen)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	if err := Seed(ctx, db); err != nil {
		return nil, err
	}

	log.Info("database connection established and migrations completed")
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Client{},
		&models.File{},
		&models.PaidFile{},
		&models.ExpenseType{},
		&models.FileExpense{},
		&models.Task{},
		&models.Document{},
		&models.Notification{},
		&models.CaseType{},
		&models.Case{},
		&models.CaseEvent{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Seed inserts the roles and expense types. Existing rows are left alone.
func Seed(ctx context.Context, db *gorm.DB) error {
	roles := []models.Role{
		{Name: models.RoleAdmin, Description: "Full access including user management"},
		{Name: models.RoleEmployee, Description: "Office staff"},
		{Name: models.RoleClient, Description: "Creditor following its own files"},
	}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&roles).Error; err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	types := make([]models.ExpenseType, 0, len(models.DefaultExpenseTypes))
	for _, name := range models.DefaultExpenseTypes {
		types = append(types, models.ExpenseType{Name: name})
	}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&types).Error; err != nil {
		return fmt.Errorf("seed expense types: %w", err)
	}
	return nil
}

// Close releases the pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
