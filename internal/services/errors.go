package services

import "errors"

// ─── Sentinel Errors ──────────────────────────────────────────────────────────

var (
	// ErrDuplicateCode is returned when adding a book whose code is already
	// catalogued.
	ErrDuplicateCode = errors.New("book code already exists")

	// ErrBookNotFound is returned when the requested book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrBookInUse is returned when removing a book that has an open loan.
	ErrBookInUse = errors.New("book is currently issued")

	// ErrBookUnavailable is returned when issuing a book that is on loan or
	// does not exist.
	ErrBookUnavailable = errors.New("book is not available")

	// ErrTransactionNotFound is returned when the referenced loan record does
	// not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrAlreadyReturned is returned when a return is attempted on a loan
	// that has already been closed.
	ErrAlreadyReturned = errors.New("transaction already returned")

	// ErrDataIntegrity reports a stored loan with a malformed issue date. It
	// is a warning, not a failure: fine calculation treats the loan as
	// incurring no fine and carries on.
	ErrDataIntegrity = errors.New("transaction has a malformed issue date")

	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned when authentication fails. It does
	// not distinguish an unknown user from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateAdmissionNumber is returned when registering a student
	// whose admission number is already on record.
	ErrDuplicateAdmissionNumber = errors.New("student with this admission number already exists")

	// ErrDuplicateEmployee is returned when registering an employee whose
	// name and department combination is already on record. Employees are
	// keyed by the pair: the same name may recur across departments.
	ErrDuplicateEmployee = errors.New("employee with this name and department already exists")
)
