package services

import (
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Moosa-5616/Library-management-system/internal/models"
	"github.com/Moosa-5616/Library-management-system/internal/repositories"
)

// ─── Service Interface ────────────────────────────────────────────────────────

// CatalogService manages the book catalog. Availability flags are owned by
// the CirculationService; the catalog only ever reads them.
type CatalogService interface {
	AddBook(title, category, author, code string) (*models.Book, error)
	RemoveBook(bookID uuid.UUID) error
	ListAvailable() ([]models.Book, error)
	ListAll() ([]models.Book, error)
	Search(query string) ([]models.Book, error)
}

// ─── Implementation ───────────────────────────────────────────────────────────

type catalogService struct {
	db       *gorm.DB
	bookRepo repositories.BookRepository
	txnRepo  repositories.TransactionRepository
}

// NewCatalogService wires up the catalog service.
func NewCatalogService(
	db *gorm.DB,
	bookRepo repositories.BookRepository,
	txnRepo repositories.TransactionRepository,
) CatalogService {
	return &catalogService{
		db:       db,
		bookRepo: bookRepo,
		txnRepo:  txnRepo,
	}
}

// AddBook creates a catalogued title with a single available copy. The code
// must be unique across the catalog.
func (s *catalogService) AddBook(title, category, author, code string) (*models.Book, error) {
	book := &models.Book{
		Title:     title,
		Category:  category,
		Author:    author,
		Code:      code,
		Available: true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.bookRepo.GetByCode(tx, code); err == nil {
			return ErrDuplicateCode
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := s.bookRepo.Create(tx, book); err != nil {
			if isUniqueViolation(err) {
				// Concurrent insert claimed the code between check and create.
				return ErrDuplicateCode
			}
			log.Printf("[ERROR] AddBook: failed to create book record: %v", err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] AddBook: created book %q (id=%s, code=%s)", book.Title, book.ID, book.Code)
	return book, nil
}

// RemoveBook deletes a book that has no open loan. Past (returned) loan
// records are kept untouched; only the book row goes.
func (s *catalogService) RemoveBook(bookID uuid.UUID) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.bookRepo.GetByID(tx, bookID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		open, err := s.txnRepo.CountIssuedForBook(tx, bookID)
		if err != nil {
			return err
		}
		if open > 0 {
			log.Printf("[WARN] RemoveBook: book %s has %d open loan(s), refusing removal", bookID, open)
			return ErrBookInUse
		}

		// The delete itself re-checks availability. The count above can go
		// stale under read-committed isolation if an issue commits between
		// the two statements; the guarded delete then matches no row.
		deleted, err := s.bookRepo.DeleteAvailable(tx, bookID)
		if err != nil {
			return err
		}
		if !deleted {
			log.Printf("[WARN] RemoveBook: book %s was claimed by a concurrent issue, refusing removal", bookID)
			return ErrBookInUse
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[INFO] RemoveBook: removed book %s", bookID)
	return nil
}

// ListAvailable returns books currently on the shelf, ordered by title
// (case-insensitive).
func (s *catalogService) ListAvailable() ([]models.Book, error) {
	return s.bookRepo.List(nil, true)
}

// ListAll returns the whole catalog in the same ordering.
func (s *catalogService) ListAll() ([]models.Book, error) {
	return s.bookRepo.List(nil, false)
}

// Search matches a case-insensitive substring against title, author, or
// code. An empty query means no filter; whether to reject it is the
// caller's decision.
func (s *catalogService) Search(query string) ([]models.Book, error) {
	if strings.TrimSpace(query) == "" {
		return s.bookRepo.List(nil, false)
	}
	return s.bookRepo.Search(nil, query)
}

// isUniqueViolation checks whether a unique-constraint error occurred.
// PostgreSQL reports error code 23505; SQLite (used in tests) reports a
// "UNIQUE constraint failed" message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "UNIQUE constraint")
}
