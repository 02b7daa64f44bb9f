package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Moosa-5616/Library-management-system/internal/models"
)

func TestIssueAndReturnLifecycle(t *testing.T) {
	f := newFixture(t)
	user := f.createStudent(t, "Moosa")
	book := f.addBook(t, "To Kill a Mockingbird", "Harper Lee", "FIC001")

	issueDay := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	txn, err := f.circulation.Issue(user.ID, book.ID, issueDay)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusIssued, txn.Status)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), txn.IssueDate)
	assert.Nil(t, txn.ReturnDate)

	var onLoan models.Book
	require.NoError(t, f.db.First(&onLoan, "id = ?", book.ID).Error)
	assert.False(t, onLoan.Available)
	requireAvailabilityInvariant(t, f.db)

	returnDay := time.Date(2024, 1, 5, 17, 0, 0, 0, time.UTC)
	require.NoError(t, f.circulation.Return(txn.ID, returnDay))

	var closed models.Transaction
	require.NoError(t, f.db.First(&closed, "id = ?", txn.ID).Error)
	assert.Equal(t, models.TransactionStatusReturned, closed.Status)
	require.NotNil(t, closed.ReturnDate)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), closed.ReturnDate.UTC())

	var back models.Book
	require.NoError(t, f.db.First(&back, "id = ?", book.ID).Error)
	assert.True(t, back.Available)
	requireAvailabilityInvariant(t, f.db)
}

func TestIssueUnavailableBook(t *testing.T) {
	f := newFixture(t)
	first := f.createStudent(t, "Moosa")
	second := f.createStudent(t, "Asha")
	book := f.addBook(t, "The Great Gatsby", "F. Scott Fitzgerald", "FIC003")

	_, err := f.circulation.Issue(first.ID, book.ID, time.Now().UTC())
	require.NoError(t, err)

	_, err = f.circulation.Issue(second.ID, book.ID, time.Now().UTC())
	assert.ErrorIs(t, err, ErrBookUnavailable)
	requireAvailabilityInvariant(t, f.db)
}

func TestIssueNonexistentBook(t *testing.T) {
	f := newFixture(t)
	user := f.createStudent(t, "Moosa")

	_, err := f.circulation.Issue(user.ID, uuid.New(), time.Now().UTC())
	assert.ErrorIs(t, err, ErrBookUnavailable)
}

func TestIssueUnknownUser(t *testing.T) {
	f := newFixture(t)
	book := f.addBook(t, "Animal Farm", "George Orwell", "FIC006")

	_, err := f.circulation.Issue(uuid.New(), book.ID, time.Now().UTC())
	assert.ErrorIs(t, err, ErrUserNotFound)

	// A failed issue must not leave the book claimed.
	var fresh models.Book
	require.NoError(t, f.db.First(&fresh, "id = ?", book.ID).Error)
	assert.True(t, fresh.Available)
}

func TestDoubleReturnFailsAndChangesNothing(t *testing.T) {
	f := newFixture(t)
	user := f.createStudent(t, "Moosa")
	book := f.addBook(t, "Frankenstein", "Mary Shelley", "HOR002")

	txn, err := f.circulation.Issue(user.ID, book.ID, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	firstReturn := time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.circulation.Return(txn.ID, firstReturn))

	err = f.circulation.Return(txn.ID, time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrAlreadyReturned)

	var closed models.Transaction
	require.NoError(t, f.db.First(&closed, "id = ?", txn.ID).Error)
	require.NotNil(t, closed.ReturnDate)
	assert.Equal(t, firstReturn, closed.ReturnDate.UTC())
	requireAvailabilityInvariant(t, f.db)
}

func TestReturnUnknownTransaction(t *testing.T) {
	f := newFixture(t)
	err := f.circulation.Return(uuid.New(), time.Now().UTC())
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestReissueAfterReturnCreatesNewTransaction(t *testing.T) {
	f := newFixture(t)
	user := f.createStudent(t, "Moosa")
	book := f.addBook(t, "Dracula", "Bram Stoker", "HOR001")

	first, err := f.circulation.Issue(user.ID, book.ID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, f.circulation.Return(first.ID, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)))

	second, err := f.circulation.Issue(user.ID, book.ID, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	var count int64
	require.NoError(t, f.db.Model(&models.Transaction{}).
		Where("book_id = ?", book.ID).
		Count(&count).Error)
	assert.EqualValues(t, 2, count)
	requireAvailabilityInvariant(t, f.db)
}

func TestConcurrentIssueHasExactlyOneWinner(t *testing.T) {
	f := newFixture(t)
	book := f.addBook(t, "Moby Dick", "Herman Melville", "ADV004")

	const attempts = 8
	users := make([]*models.User, attempts)
	for i := range users {
		users[i] = f.createStudent(t, "Reader")
	}

	errs := make([]error, attempts)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			_, errs[idx] = f.circulation.Issue(users[idx].ID, book.ID, time.Now().UTC())
		}(i)
	}
	close(start)
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrBookUnavailable):
			lost++
		default:
			t.Fatalf("unexpected issue error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, attempts-1, lost)
	requireAvailabilityInvariant(t, f.db)
}

func TestTotalFineForOpenLoans(t *testing.T) {
	f := newFixture(t)
	user := f.createStudent(t, "Moosa")
	overdue := f.addBook(t, "The Count of Monte Cristo", "Alexandre Dumas", "ADV006")
	recent := f.addBook(t, "The Three Musketeers", "Alexandre Dumas", "ADV007")

	today := time.Date(2024, 4, 20, 12, 0, 0, 0, time.UTC)
	_, err := f.circulation.Issue(user.ID, overdue.ID, today.AddDate(0, 0, -13))
	require.NoError(t, err)
	_, err = f.circulation.Issue(user.ID, recent.ID, today.AddDate(0, 0, -3))
	require.NoError(t, err)

	total, err := f.circulation.TotalFineFor(user.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 12, total)

	loans, err := f.circulation.OpenLoansFor(user.ID, today)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, 12, loans[0].Fine)
	assert.Equal(t, 0, loans[1].Fine)
}

func TestTotalFineSkipsMalformedIssueDates(t *testing.T) {
	f := newFixture(t)
	user := f.createStudent(t, "Moosa")
	overdue := f.addBook(t, "War and Peace", "Leo Tolstoy", "HIS003")

	today := time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)
	_, err := f.circulation.Issue(user.ID, overdue.ID, today.AddDate(0, 0, -10))
	require.NoError(t, err)

	// A corrupt row written by some earlier bug: open loan, zero issue date.
	corrupt := &models.Transaction{
		UserID: user.ID,
		BookID: uuid.New(),
		Status: models.TransactionStatusIssued,
	}
	require.NoError(t, f.db.Create(corrupt).Error)

	total, err := f.circulation.TotalFineFor(user.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
}

func TestAdminViewsJoinBorrowerAndOrderNewestFirst(t *testing.T) {
	f := newFixture(t)
	student := f.createStudent(t, "Moosa")
	employee := &models.User{
		Role:       models.RoleEmployee,
		Name:       "Mehraj ud din mir",
		Department: "ICT",
		Password:   "secret",
	}
	require.NoError(t, f.db.Create(employee).Error)

	older := f.addBook(t, "The Odyssey", "Homer", "EPI001")
	newer := f.addBook(t, "The Iliad", "Homer", "EPI002")
	closedBook := f.addBook(t, "Hamlet", "William Shakespeare", "DRA003")

	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	_, err := f.circulation.Issue(student.ID, older.ID, today.AddDate(0, 0, -9))
	require.NoError(t, err)
	_, err = f.circulation.Issue(employee.ID, newer.ID, today.AddDate(0, 0, -2))
	require.NoError(t, err)

	early, err := f.circulation.Issue(student.ID, closedBook.ID, today.AddDate(0, 0, -20))
	require.NoError(t, err)
	require.NoError(t, f.circulation.Return(early.ID, today.AddDate(0, 0, -15)))
	late, err := f.circulation.Issue(employee.ID, closedBook.ID, today.AddDate(0, 0, -14))
	require.NoError(t, err)
	require.NoError(t, f.circulation.Return(late.ID, today.AddDate(0, 0, -1)))

	open, err := f.circulation.AllOpenLoans(today)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "The Iliad", open[0].Book.Title)
	assert.Equal(t, "Mehraj ud din mir", open[0].BorrowerName)
	assert.Equal(t, models.RoleEmployee, open[0].BorrowerRole)
	assert.Equal(t, "The Odyssey", open[1].Book.Title)
	assert.Equal(t, 4, open[1].Fine)

	returned, err := f.circulation.AllReturnedLoans()
	require.NoError(t, err)
	require.Len(t, returned, 2)
	assert.Equal(t, late.ID, returned[0].Transaction.ID)
	assert.Equal(t, early.ID, returned[1].Transaction.ID)
	assert.Zero(t, returned[0].Fine)
}

func TestReturnedLoansForKeepsInsertionOrder(t *testing.T) {
	f := newFixture(t)
	user := f.createStudent(t, "Moosa")
	first := f.addBook(t, "Oliver Twist", "Charles Dickens", "FIC008")
	second := f.addBook(t, "Great Expectations", "Charles Dickens", "FIC007")

	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a, err := f.circulation.Issue(user.ID, first.ID, today.AddDate(0, 0, -5))
	require.NoError(t, err)
	b, err := f.circulation.Issue(user.ID, second.ID, today.AddDate(0, 0, -4))
	require.NoError(t, err)
	require.NoError(t, f.circulation.Return(b.ID, today.AddDate(0, 0, -2)))
	require.NoError(t, f.circulation.Return(a.ID, today.AddDate(0, 0, -1)))

	loans, err := f.circulation.ReturnedLoansFor(user.ID)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, a.ID, loans[0].Transaction.ID)
	assert.Equal(t, b.ID, loans[1].Transaction.ID)
}
