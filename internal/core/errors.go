package core

import "errors"

// Error taxonomy shared by the service and HTTP layers. Services wrap these
// with entity context; the HTTP layer maps them to status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrDatabase     = errors.New("internal database error")
)

var validationErrs = []error{
	ErrEmptyTitle,
	ErrTitleTooLong,
	ErrNegativeCash,
	ErrInvalidType,
	ErrInvalidID,
	ErrInvalidMonth,
	ErrInvalidDate,
	ErrMalformedBody,
	ErrEmptyName,
	ErrNameTooLong,
	ErrShortPassword,
}

// IsValidation reports whether err stems from input validation rather than
// from the state of the system.
func IsValidation(err error) bool {
	for _, sentinel := range validationErrs {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
