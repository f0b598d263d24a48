// Package dbtest opens isolated in-memory SQLite databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Keoroanthony/go-storefront/internal/auth"
	"github.com/Keoroanthony/go-storefront/internal/db"
	"github.com/Keoroanthony/go-storefront/internal/models"
)

var seq atomic.Int64

// Open returns a migrated database private to t and installs it as db.DB
// until the test finishes.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=1", name, seq.Add(1))

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to connect test database")
	require.NoError(t, db.Migrate(conn), "failed to auto-migrate models")

	sqlDB, err := conn.DB()
	require.NoError(t, err)

	original := db.DB
	db.SetTestDB(conn)
	t.Cleanup(func() {
		db.SetTestDB(original)
		_ = sqlDB.Close()
	})

	return conn
}

// Fixture seeds the rows most tests need.
type Fixture struct {
	User     models.User
	Other    models.User
	Admin    models.User
	Address  models.Address
	Category models.Category
	Product  models.Product
}

const Password = "correct-horse-42"

func Seed(t *testing.T, conn *gorm.DB) Fixture {
	t.Helper()

	hash, err := auth.HashPassword(Password)
	require.NoError(t, err)

	f := Fixture{
		User:  models.User{Username: "alice", Name: "Alice", Email: "alice@example.com", PasswordHash: hash, Role: models.RoleCustomer},
		Other: models.User{Username: "bob", Name: "Bob", Email: "bob@example.com", PasswordHash: hash, Role: models.RoleCustomer},
		Admin: models.User{Username: "root", Name: "Root", Email: "root@example.com", PasswordHash: hash, Role: models.RoleAdmin},
	}
	require.NoError(t, conn.Create(&f.User).Error)
	require.NoError(t, conn.Create(&f.Other).Error)
	require.NoError(t, conn.Create(&f.Admin).Error)

	f.Address = models.Address{UserID: f.User.ID, Street: "1 Moi Avenue", City: "Nairobi", State: "Nairobi", Country: "Kenya", PostalCode: "00100", IsDefault: true}
	require.NoError(t, conn.Create(&f.Address).Error)

	f.Category = models.Category{Name: "Computers"}
	require.NoError(t, conn.Create(&f.Category).Error)

	f.Product = models.Product{Name: "Keyboard", Price: decimal.RequireFromString("10.00"), Stock: 5, CategoryID: f.Category.ID}
	require.NoError(t, conn.Create(&f.Product).Error)

	return f
}
