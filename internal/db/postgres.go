package db

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	config "github.com/Keoroanthony/go-storefront/configs"
	"github.com/Keoroanthony/go-storefront/internal/models"
)

var DB *gorm.DB

// Init opens the Postgres connection described by cfg and migrates the schema.
func Init(cfg config.DBConfig) error {
	conn, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	if err := Migrate(conn); err != nil {
		return err
	}

	DB = conn
	zap.L().Info("Database connected and migrated successfully",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
	)
	return nil
}

func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

func SetTestDB(testDB *gorm.DB) {
	DB = testDB
}
