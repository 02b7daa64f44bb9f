package services

import (
	"errors"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Moosa-5616/Library-management-system/internal/models"
	"github.com/Moosa-5616/Library-management-system/internal/repositories"
)

// Credentials carries the role-specific login fields. Only the fields for
// the role being authenticated are consulted.
type Credentials struct {
	AdmissionNumber string `json:"admission_number,omitempty"`
	Name            string `json:"name,omitempty"`
	Department      string `json:"department,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Password        string `json:"password"`
}

// ─── Service Interface ────────────────────────────────────────────────────────

// DirectoryService owns user records and authentication. The circulation
// core only ever sees a user id and role; credential handling stops here.
type DirectoryService interface {
	Authenticate(role models.Role, creds Credentials) (*models.User, error)
	RegisterStudent(admissionNumber, password string) (*models.User, error)
	RegisterEmployee(name, department, password string) (*models.User, error)
	GetUser(id uuid.UUID) (*models.User, error)
	ListBorrowers() ([]models.User, error)
}

// ─── Implementation ───────────────────────────────────────────────────────────

type directoryService struct {
	db       *gorm.DB
	userRepo repositories.UserRepository
}

// NewDirectoryService wires up the directory service.
func NewDirectoryService(db *gorm.DB, userRepo repositories.UserRepository) DirectoryService {
	return &directoryService{db: db, userRepo: userRepo}
}

// Authenticate resolves role-specific credentials to a user record. All
// failure modes collapse into ErrInvalidCredentials.
func (s *directoryService) Authenticate(role models.Role, creds Credentials) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	switch role {
	case models.RoleStudent:
		user, err = s.userRepo.FindStudentByAdmissionNumber(nil, creds.AdmissionNumber)
	case models.RoleEmployee:
		user, err = s.userRepo.FindEmployeeByNameAndDepartment(nil, creds.Name, creds.Department)
	case models.RoleAdmin:
		user, err = s.userRepo.FindAdminByPhone(nil, creds.Phone)
	default:
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if creds.Password == "" || user.Password != creds.Password {
		log.Printf("[WARN] Authenticate: password mismatch for %s %s", role, user.ID)
		return nil, ErrInvalidCredentials
	}
	log.Printf("[INFO] Authenticate: %s %s logged in", role, user.ID)
	return user, nil
}

// RegisterStudent creates a student account. Students are unique by
// admission number.
func (s *directoryService) RegisterStudent(admissionNumber, password string) (*models.User, error) {
	user := &models.User{
		Role:            models.RoleStudent,
		AdmissionNumber: admissionNumber,
		Password:        password,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.userRepo.FindStudentByAdmissionNumber(tx, admissionNumber); err == nil {
			return ErrDuplicateAdmissionNumber
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return s.userRepo.Create(tx, user)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] RegisterStudent: registered student %s (admission=%s)", user.ID, admissionNumber)
	return user, nil
}

// RegisterEmployee creates an employee account. Unlike students, employees
// are unique by the name+department pair, not a single field.
func (s *directoryService) RegisterEmployee(name, department, password string) (*models.User, error) {
	user := &models.User{
		Role:       models.RoleEmployee,
		Name:       name,
		Department: department,
		Password:   password,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.userRepo.FindEmployeeByNameAndDepartment(tx, name, department); err == nil {
			return ErrDuplicateEmployee
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return s.userRepo.Create(tx, user)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] RegisterEmployee: registered employee %s (%s, %s)", user.ID, name, department)
	return user, nil
}

// GetUser fetches a user by id.
func (s *directoryService) GetUser(id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListBorrowers returns the non-admin roster, ordered by role then display
// name, for the administrator's issue form.
func (s *directoryService) ListBorrowers() ([]models.User, error) {
	return s.userRepo.ListBorrowers(nil)
}
