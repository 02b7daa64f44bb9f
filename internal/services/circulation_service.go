package services

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Moosa-5616/Library-management-system/internal/models"
	"github.com/Moosa-5616/Library-management-system/internal/repositories"
)

// ─── Read Models ──────────────────────────────────────────────────────────────

// Loan pairs a transaction with the book it covers. Fine is the accrued
// overdue amount as of the query date; it is always 0 for closed loans.
type Loan struct {
	Transaction models.Transaction `json:"transaction"`
	Book        models.Book        `json:"book"`
	Fine        int                `json:"fine"`
}

// BorrowerLoan extends Loan with the borrower's identity for the
// administrator-wide views.
type BorrowerLoan struct {
	Loan
	BorrowerName string      `json:"borrower_name"`
	BorrowerRole models.Role `json:"borrower_role"`
}

// ─── Service Interface ────────────────────────────────────────────────────────

// CirculationService is the loan state machine. It is the only component
// that mutates Book.Available, and it does so in the same database
// transaction as the corresponding ledger write, so availability and open
// loans can never disagree.
type CirculationService interface {
	Issue(userID, bookID uuid.UUID, today time.Time) (*models.Transaction, error)
	Return(transactionID uuid.UUID, today time.Time) error

	OpenLoansFor(userID uuid.UUID, today time.Time) ([]Loan, error)
	ReturnedLoansFor(userID uuid.UUID) ([]Loan, error)
	AllOpenLoans(today time.Time) ([]BorrowerLoan, error)
	AllReturnedLoans() ([]BorrowerLoan, error)
	TotalFineFor(userID uuid.UUID, today time.Time) (int, error)
}

// ─── Implementation ───────────────────────────────────────────────────────────

type circulationService struct {
	db       *gorm.DB
	userRepo repositories.UserRepository
	bookRepo repositories.BookRepository
	txnRepo  repositories.TransactionRepository
}

// NewCirculationService wires up the circulation service.
func NewCirculationService(
	db *gorm.DB,
	userRepo repositories.UserRepository,
	bookRepo repositories.BookRepository,
	txnRepo repositories.TransactionRepository,
) CirculationService {
	return &circulationService{
		db:       db,
		userRepo: userRepo,
		bookRepo: bookRepo,
		txnRepo:  txnRepo,
	}
}

// ─── Issue ────────────────────────────────────────────────────────────────────

// Issue lends a book to a user, dated today (calendar-day granularity).
//
// The availability flip and the ledger insert run in one database
// transaction, with the flip done as a guarded UPDATE so that concurrent
// issue attempts on the same book get exactly one winner; every loser sees
// ErrBookUnavailable. A nonexistent book takes the same error path: the
// guarded UPDATE matches no row either way.
func (s *circulationService) Issue(userID, bookID uuid.UUID, today time.Time) (*models.Transaction, error) {
	txn := &models.Transaction{
		UserID:    userID,
		BookID:    bookID,
		IssueDate: civilDate(today),
		Status:    models.TransactionStatusIssued,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.userRepo.GetByID(tx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		claimed, err := s.bookRepo.ClaimAvailable(tx, bookID)
		if err != nil {
			log.Printf("[ERROR] Issue: failed to claim book %s: %v", bookID, err)
			return err
		}
		if !claimed {
			log.Printf("[WARN] Issue: book %s is not available for user %s", bookID, userID)
			return ErrBookUnavailable
		}

		if err := s.txnRepo.Create(tx, txn); err != nil {
			log.Printf("[ERROR] Issue: failed to create transaction record: %v", err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Issue: created transaction %s (user=%s, book=%s, issued=%s)",
		txn.ID, userID, bookID, txn.IssueDate.Format("2006-01-02"))
	return txn, nil
}

// ─── Return ───────────────────────────────────────────────────────────────────

// Return closes an open loan, dated today, and puts the book back on the
// shelf. A closed loan is immutable: returning it again fails with
// ErrAlreadyReturned and changes nothing. A later loan of the same book is a
// new transaction.
func (s *circulationService) Return(transactionID uuid.UUID, today time.Time) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		txn, err := s.txnRepo.GetByID(tx, transactionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if txn.Status == models.TransactionStatusReturned {
			log.Printf("[WARN] Return: transaction %s already returned", transactionID)
			return ErrAlreadyReturned
		}

		closed, err := s.txnRepo.Close(tx, transactionID, civilDate(today))
		if err != nil {
			log.Printf("[ERROR] Return: failed to close transaction %s: %v", transactionID, err)
			return err
		}
		if !closed {
			// Lost a race against a concurrent return of the same loan.
			return ErrAlreadyReturned
		}

		if err := s.bookRepo.Release(tx, txn.BookID); err != nil {
			log.Printf("[ERROR] Return: failed to release book %s: %v", txn.BookID, err)
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[INFO] Return: closed transaction %s as of %s", transactionID, civilDate(today).Format("2006-01-02"))
	return nil
}

// ─── Query Views ──────────────────────────────────────────────────────────────

// OpenLoansFor returns a user's open loans with the fine accrued on each as
// of today, in the order the loans were created.
func (s *circulationService) OpenLoansFor(userID uuid.UUID, today time.Time) ([]Loan, error) {
	txns, err := s.txnRepo.ListByUser(nil, userID, models.TransactionStatusIssued)
	if err != nil {
		return nil, err
	}
	return s.toLoans(txns, today), nil
}

// ReturnedLoansFor returns a user's closed loans in the order they were
// created.
func (s *circulationService) ReturnedLoansFor(userID uuid.UUID) ([]Loan, error) {
	txns, err := s.txnRepo.ListByUser(nil, userID, models.TransactionStatusReturned)
	if err != nil {
		return nil, err
	}
	return s.toLoans(txns, time.Time{}), nil
}

// AllOpenLoans is the administrator view of every open loan, newest issue
// first, joined with the borrower's display identity.
func (s *circulationService) AllOpenLoans(today time.Time) ([]BorrowerLoan, error) {
	txns, err := s.txnRepo.ListByStatus(nil, models.TransactionStatusIssued)
	if err != nil {
		return nil, err
	}
	return s.toBorrowerLoans(txns, today), nil
}

// AllReturnedLoans is the administrator view of every closed loan, newest
// return first.
func (s *circulationService) AllReturnedLoans() ([]BorrowerLoan, error) {
	txns, err := s.txnRepo.ListByStatus(nil, models.TransactionStatusReturned)
	if err != nil {
		return nil, err
	}
	return s.toBorrowerLoans(txns, time.Time{}), nil
}

// TotalFineFor sums the fines accrued on a user's open loans as of today.
// Records with malformed issue dates contribute nothing and are logged.
func (s *circulationService) TotalFineFor(userID uuid.UUID, today time.Time) (int, error) {
	txns, err := s.txnRepo.ListByUser(nil, userID, models.TransactionStatusIssued)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, txn := range txns {
		total += s.fineOn(txn, today)
	}
	return total, nil
}

// ─── Internal Helpers ─────────────────────────────────────────────────────────

// fineOn computes the fine for one transaction, downgrading malformed issue
// dates to a logged warning.
func (s *circulationService) fineOn(txn models.Transaction, today time.Time) int {
	if txn.Status != models.TransactionStatusIssued {
		return 0
	}
	fine, err := FineFor(txn.IssueDate, today)
	if err != nil {
		log.Printf("[WARN] fine calculation: transaction %s: %v", txn.ID, err)
		return 0
	}
	return fine
}

func (s *circulationService) toLoans(txns []models.Transaction, today time.Time) []Loan {
	loans := make([]Loan, 0, len(txns))
	for _, txn := range txns {
		loans = append(loans, Loan{
			Transaction: txn,
			Book:        txn.Book,
			Fine:        s.fineOn(txn, today),
		})
	}
	return loans
}

func (s *circulationService) toBorrowerLoans(txns []models.Transaction, today time.Time) []BorrowerLoan {
	loans := make([]BorrowerLoan, 0, len(txns))
	for _, txn := range txns {
		loans = append(loans, BorrowerLoan{
			Loan: Loan{
				Transaction: txn,
				Book:        txn.Book,
				Fine:        s.fineOn(txn, today),
			},
			BorrowerName: txn.User.DisplayName(),
			BorrowerRole: txn.User.Role,
		})
	}
	return loans
}
