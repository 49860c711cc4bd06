package errs

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound = errors.New("not found")

	ErrLendingLimit    = errors.New("you already have 3 books checked out")
	ErrOverdueBook     = errors.New("you have an overdue book, please return it first")
	ErrLocationUsed    = errors.New("location already used")
	ErrEmailExists     = errors.New("a user with this email already exists")
	ErrWrongPassword   = errors.New("wrong password")
	ErrAlreadyReturned = errors.New("checkout already returned")

	ErrAdminDelete = errors.New("admins cannot be deleted")
)

// Status maps the error taxonomy onto HTTP statuses. Anything untyped is a
// server fault.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrLendingLimit),
		errors.Is(err, ErrOverdueBook),
		errors.Is(err, ErrLocationUsed),
		errors.Is(err, ErrEmailExists),
		errors.Is(err, ErrWrongPassword),
		errors.Is(err, ErrAlreadyReturned):
		return http.StatusBadRequest
	case errors.Is(err, ErrAdminDelete):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
