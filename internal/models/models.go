package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent  Role = "student"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusIssued   TransactionStatus = "issued"
	TransactionStatusReturned TransactionStatus = "returned"
)

// User is a library account. Which identifying fields are populated depends
// on the role: students carry an admission number (plus class details),
// employees a name and department, admins a phone number.
type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Role            Role      `gorm:"size:16;not null;index" json:"role"`
	Name            string    `gorm:"size:255" json:"name,omitempty"`
	AdmissionNumber string    `gorm:"size:64;index" json:"admission_number,omitempty"`
	ClassName       string    `gorm:"size:64" json:"class_name,omitempty"`
	Section         string    `gorm:"size:64" json:"section,omitempty"`
	RollNumber      string    `gorm:"size:64" json:"roll_number,omitempty"`
	Department      string    `gorm:"size:255" json:"department,omitempty"`
	Subject         string    `gorm:"size:255" json:"subject,omitempty"`
	Phone           string    `gorm:"size:32" json:"phone,omitempty"`
	Password        string    `gorm:"size:255" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// DisplayName is the label shown in loan views: the name when present,
// otherwise the admission number (students registered by the admin have no
// name on record).
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.AdmissionNumber
}

// Book is a catalogued title with a single circulating copy. Available is
// owned by the circulation service and flips exactly with the lifecycle of
// the one open transaction that may reference the book.
type Book struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Category  string    `gorm:"size:255;not null" json:"category"`
	Author    string    `gorm:"size:255;not null" json:"author"`
	Code      string    `gorm:"size:64;not null;uniqueIndex" json:"code"`
	Available bool      `gorm:"not null;default:true" json:"available"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Transaction is one loan of one book. It is created in state issued and
// moves exactly once to returned; returned records are never modified again.
// ReturnDate is nil iff Status is issued.
type Transaction struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	User       User              `json:"-"`
	BookID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"book_id"`
	Book       Book              `json:"-"`
	IssueDate  time.Time         `gorm:"not null" json:"issue_date"`
	ReturnDate *time.Time        `json:"return_date,omitempty"`
	Status     TransactionStatus `gorm:"size:16;not null;default:issued;index" json:"status"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// AutoMigrate creates or updates the schema for all circulation tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Book{}, &Transaction{})
}
