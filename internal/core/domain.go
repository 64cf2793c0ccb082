package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	MaxNameLen          = 50
	MaxCategoryTitleLen = 100
	MaxTitleLen         = 100
)

type (
	TransactionType string

	User struct {
		ID           int64
		Name         string
		Email        string // optional, empty when not provided
		PasswordHash string
		IsActive     bool
		IsSuperuser  bool
		CreatedAt    time.Time
	}

	Category struct {
		ID     int64
		Title  string
		UserID int64
	}

	Transaction struct {
		ID         int64
		Title      string
		Cash       float64
		Type       TransactionType
		CategoryID int64
		UserID     int64
		CreatedAt  time.Time
	}
)

var (
	ErrEmptyTitle    = errors.New("empty title")
	ErrTitleTooLong  = errors.New("title too long")
	ErrNegativeCash  = errors.New("cash must be non-negative")
	ErrInvalidType   = errors.New("type must be income or expense")
	ErrInvalidID     = errors.New("id must be positive")
	ErrInvalidMonth  = errors.New("month must be between 1 and 12")
	ErrInvalidDate   = errors.New("date must be YYYY-MM-DD")
	ErrMalformedBody = errors.New("malformed request body")
	ErrEmptyName     = errors.New("empty name")
	ErrNameTooLong   = errors.New("name too long")
	ErrShortPassword = errors.New("password too short (min 8 characters)")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// NewTransactionInput carries the caller-supplied fields of a transaction.
// The owner and creation timestamp are assigned server-side.
type NewTransactionInput struct {
	Title      string
	Cash       float64
	Type       TransactionType
	CategoryID int64
}

func (in NewTransactionInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrEmptyTitle
	}
	if len(in.Title) > MaxTitleLen {
		return ErrTitleTooLong
	}
	if in.Cash < 0 {
		return ErrNegativeCash
	}
	if !in.Type.Valid() {
		return ErrInvalidType
	}
	if in.CategoryID < 1 {
		return ErrInvalidID
	}
	return nil
}

// TransactionPatch is a partial update; nil fields are left untouched.
type TransactionPatch struct {
	Title      *string
	Cash       *float64
	Type       *TransactionType
	CategoryID *int64
}

func (p TransactionPatch) Validate() error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return ErrEmptyTitle
		}
		if len(*p.Title) > MaxTitleLen {
			return ErrTitleTooLong
		}
	}
	if p.Cash != nil && *p.Cash < 0 {
		return ErrNegativeCash
	}
	if p.Type != nil && !p.Type.Valid() {
		return ErrInvalidType
	}
	if p.CategoryID != nil && *p.CategoryID < 1 {
		return ErrInvalidID
	}
	return nil
}

type NewCategoryInput struct {
	Title string
}

func (in NewCategoryInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrEmptyTitle
	}
	if len(in.Title) > MaxCategoryTitleLen {
		return ErrTitleTooLong
	}
	return nil
}

type CategoryPatch struct {
	Title *string
}

func (p CategoryPatch) Validate() error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return ErrEmptyTitle
		}
		if len(*p.Title) > MaxCategoryTitleLen {
			return ErrTitleTooLong
		}
	}
	return nil
}

type Credentials struct {
	Name     string
	Password string
	Email    string
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > MaxNameLen {
		return ErrNameTooLong
	}
	if len(c.Password) < 8 {
		return ErrShortPassword
	}
	return nil
}
