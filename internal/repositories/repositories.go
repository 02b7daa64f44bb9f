package repositories

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Moosa-5616/Library-management-system/internal/models"
)

// Each repository method takes an optional *gorm.DB: pass the transaction
// handle when running inside db.Transaction, or nil to use the default
// connection.

type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.User, error)
	FindStudentByAdmissionNumber(db *gorm.DB, admissionNumber string) (*models.User, error)
	FindEmployeeByNameAndDepartment(db *gorm.DB, name, department string) (*models.User, error)
	FindAdminByPhone(db *gorm.DB, phone string) (*models.User, error)
	ListBorrowers(db *gorm.DB) ([]models.User, error)
}

type BookRepository interface {
	Create(db *gorm.DB, book *models.Book) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Book, error)
	GetByCode(db *gorm.DB, code string) (*models.Book, error)
	List(db *gorm.DB, onlyAvailable bool) ([]models.Book, error)
	Search(db *gorm.DB, query string) ([]models.Book, error)
	ClaimAvailable(db *gorm.DB, id uuid.UUID) (bool, error)
	Release(db *gorm.DB, id uuid.UUID) error
	DeleteAvailable(db *gorm.DB, id uuid.UUID) (bool, error)
}

type TransactionRepository interface {
	Create(db *gorm.DB, txn *models.Transaction) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Transaction, error)
	CountIssuedForBook(db *gorm.DB, bookID uuid.UUID) (int64, error)
	Close(db *gorm.DB, id uuid.UUID, returnDate time.Time) (bool, error)
	ListByUser(db *gorm.DB, userID uuid.UUID, status models.TransactionStatus) ([]models.Transaction, error)
	ListByStatus(db *gorm.DB, status models.TransactionStatus) ([]models.Transaction, error)
}

// concrete implementations

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(db *gorm.DB, user *models.User) error {
	if db == nil {
		db = r.db
	}
	return db.Create(user).Error
}

func (r *userRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	if db == nil {
		db = r.db
	}
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindStudentByAdmissionNumber(db *gorm.DB, admissionNumber string) (*models.User, error) {
	if db == nil {
		db = r.db
	}
	var user models.User
	err := db.Where("role = ? AND admission_number = ?", models.RoleStudent, admissionNumber).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindEmployeeByNameAndDepartment(db *gorm.DB, name, department string) (*models.User, error) {
	if db == nil {
		db = r.db
	}
	var user models.User
	err := db.Where("role = ? AND name = ? AND department = ?", models.RoleEmployee, name, department).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindAdminByPhone(db *gorm.DB, phone string) (*models.User, error) {
	if db == nil {
		db = r.db
	}
	var user models.User
	err := db.Where("role = ? AND phone = ?", models.RoleAdmin, phone).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListBorrowers(db *gorm.DB) ([]models.User, error) {
	if db == nil {
		db = r.db
	}
	var users []models.User
	err := db.Where("role <> ?", models.RoleAdmin).
		Order("role, COALESCE(NULLIF(name, ''), admission_number)").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(db *gorm.DB, book *models.Book) error {
	if db == nil {
		db = r.db
	}
	return db.Create(book).Error
}

func (r *bookRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.Book, error) {
	if db == nil {
		db = r.db
	}
	var book models.Book
	if err := db.First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) GetByCode(db *gorm.DB, code string) (*models.Book, error) {
	if db == nil {
		db = r.db
	}
	var book models.Book
	if err := db.First(&book, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) List(db *gorm.DB, onlyAvailable bool) ([]models.Book, error) {
	if db == nil {
		db = r.db
	}
	q := db.Model(&models.Book{})
	if onlyAvailable {
		q = q.Where("available = ?", true)
	}
	var books []models.Book
	if err := q.Order("LOWER(title) ASC").Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepository) Search(db *gorm.DB, query string) ([]models.Book, error) {
	if db == nil {
		db = r.db
	}
	pattern := "%" + strings.ToLower(query) + "%"
	var books []models.Book
	err := db.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(code) LIKE ?",
		pattern, pattern, pattern).
		Order("LOWER(title) ASC").
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

// ClaimAvailable flips available to false iff it is currently true, and
// reports whether this call won the flip. The guarded UPDATE is the
// serialization point that makes concurrent issue attempts on one book
// resolve to a single winner.
func (r *bookRepository) ClaimAvailable(db *gorm.DB, id uuid.UUID) (bool, error) {
	if db == nil {
		db = r.db
	}
	res := db.Model(&models.Book{}).
		Where("id = ? AND available = ?", id, true).
		Update("available", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Release marks the book available again after its open loan is closed.
func (r *bookRepository) Release(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Model(&models.Book{}).
		Where("id = ?", id).
		Update("available", true).
		Error
}

// DeleteAvailable removes the book iff it is on the shelf, and reports
// whether a row was deleted. The availability predicate is what makes
// removal and issue mutually exclusive: a concurrent issue that claims the
// book between the caller's open-loan check and this delete flips available
// to false, so the delete matches nothing.
func (r *bookRepository) DeleteAvailable(db *gorm.DB, id uuid.UUID) (bool, error) {
	if db == nil {
		db = r.db
	}
	res := db.Where("id = ? AND available = ?", id, true).Delete(&models.Book{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(db *gorm.DB, txn *models.Transaction) error {
	if db == nil {
		db = r.db
	}
	return db.Create(txn).Error
}

func (r *transactionRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.Transaction, error) {
	if db == nil {
		db = r.db
	}
	var txn models.Transaction
	if err := db.Preload("Book").First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) CountIssuedForBook(db *gorm.DB, bookID uuid.UUID) (int64, error) {
	if db == nil {
		db = r.db
	}
	var count int64
	err := db.Model(&models.Transaction{}).
		Where("book_id = ? AND status = ?", bookID, models.TransactionStatusIssued).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Close moves the transaction from issued to returned iff it is still open,
// and reports whether this call performed the move. The status guard makes a
// concurrent double-return resolve to a single winner.
func (r *transactionRepository) Close(db *gorm.DB, id uuid.UUID, returnDate time.Time) (bool, error) {
	if db == nil {
		db = r.db
	}
	res := db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TransactionStatusIssued).
		Updates(map[string]interface{}{
			"status":      models.TransactionStatusReturned,
			"return_date": returnDate,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *transactionRepository) ListByUser(db *gorm.DB, userID uuid.UUID, status models.TransactionStatus) ([]models.Transaction, error) {
	if db == nil {
		db = r.db
	}
	var txns []models.Transaction
	err := db.Preload("Book").
		Where("user_id = ? AND status = ?", userID, status).
		Order("created_at ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *transactionRepository) ListByStatus(db *gorm.DB, status models.TransactionStatus) ([]models.Transaction, error) {
	if db == nil {
		db = r.db
	}
	order := "issue_date DESC, created_at DESC"
	if status == models.TransactionStatusReturned {
		order = "return_date DESC, created_at DESC"
	}
	var txns []models.Transaction
	err := db.Preload("Book").Preload("User").
		Where("status = ?", status).
		Order(order).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}
