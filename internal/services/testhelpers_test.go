package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Moosa-5616/Library-management-system/internal/models"
	"github.com/Moosa-5616/Library-management-system/internal/repositories"
)

// openTestDB opens a private in-memory SQLite database. The pool is capped
// at one connection so concurrent service calls serialize the same way a
// per-row lock would in PostgreSQL.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

type fixture struct {
	db          *gorm.DB
	catalog     CatalogService
	circulation CirculationService
	directory   DirectoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := openTestDB(t)
	userRepo := repositories.NewUserRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	txnRepo := repositories.NewTransactionRepository(db)

	return &fixture{
		db:          db,
		catalog:     NewCatalogService(db, bookRepo, txnRepo),
		circulation: NewCirculationService(db, userRepo, bookRepo, txnRepo),
		directory:   NewDirectoryService(db, userRepo),
	}
}

func (f *fixture) createStudent(t *testing.T, name string) *models.User {
	t.Helper()
	user := &models.User{
		Role:            models.RoleStudent,
		Name:            name,
		AdmissionNumber: uuid.NewString()[:8],
		Password:        "secret",
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *fixture) addBook(t *testing.T, title, author, code string) *models.Book {
	t.Helper()
	book, err := f.catalog.AddBook(title, "Fiction", author, code)
	require.NoError(t, err)
	return book
}

// requireAvailabilityInvariant asserts that for every book, available is
// false exactly when one issued transaction references it.
func requireAvailabilityInvariant(t *testing.T, db *gorm.DB) {
	t.Helper()

	var books []models.Book
	require.NoError(t, db.Find(&books).Error)
	for _, book := range books {
		var open int64
		require.NoError(t, db.Model(&models.Transaction{}).
			Where("book_id = ? AND status = ?", book.ID, models.TransactionStatusIssued).
			Count(&open).Error)
		if book.Available {
			require.Zero(t, open, "book %s (%s) is available but has %d open loan(s)", book.Code, book.ID, open)
		} else {
			require.EqualValues(t, 1, open, "book %s (%s) is unavailable but has %d open loan(s)", book.Code, book.ID, open)
		}
	}
}
