package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// TransactionService manages income and expense records. It enforces
// ownership of both the transaction and the category it is filed under.
type TransactionService struct {
	repo   *storage.SQLiteRepository
	logger *log.Logger
}

func NewTransactionService(repo *storage.SQLiteRepository, logger *log.Logger) *TransactionService {
	return &TransactionService{
		repo:   repo,
		logger: logger.WithComponent(log.ComponentApp),
	}
}

func (s *TransactionService) Create(ctx context.Context, userID int64, in core.NewTransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(ctx, userID, in.CategoryID); err != nil {
		return core.Transaction{}, err
	}

	transaction, err := s.repo.CreateTransaction(ctx, core.Transaction{
		Title:      in.Title,
		Cash:       in.Cash,
		Type:       in.Type,
		CategoryID: in.CategoryID,
		UserID:     userID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return core.Transaction{}, storageErr(ctx, s.logger, "create transaction", err)
	}

	s.logger.InfoContext(ctx, "transaction created",
		log.FieldUserID, userID,
		log.FieldTransactionID, transaction.ID)
	return transaction, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.owned(ctx, userID, id)
}

func (s *TransactionService) Update(ctx context.Context, userID, id int64, patch core.TransactionPatch) (core.Transaction, error) {
	if err := patch.Validate(); err != nil {
		return core.Transaction{}, err
	}

	transaction, err := s.owned(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	if patch.Title != nil {
		transaction.Title = *patch.Title
	}
	if patch.Cash != nil {
		transaction.Cash = *patch.Cash
	}
	if patch.Type != nil {
		transaction.Type = *patch.Type
	}
	if patch.CategoryID != nil {
		if err := s.checkCategory(ctx, userID, *patch.CategoryID); err != nil {
			return core.Transaction{}, err
		}
		transaction.CategoryID = *patch.CategoryID
	}

	updated, err := s.repo.UpdateTransaction(ctx, transaction)
	if err != nil {
		return core.Transaction{}, storageErr(ctx, s.logger, "update transaction", err)
	}
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return storageErr(ctx, s.logger, "delete transaction", err)
	}

	s.logger.InfoContext(ctx, "transaction deleted",
		log.FieldUserID, userID,
		log.FieldTransactionID, id)
	return nil
}

// List returns one page of the user's transactions. The page is normalized
// here so storage can trust its bounds.
func (s *TransactionService) List(ctx context.Context, userID int64, filter core.TransactionFilter, page core.Page) ([]core.Transaction, error) {
	transactions, err := s.repo.ListTransactions(ctx, userID, filter, page.Normalize())
	if err != nil {
		return nil, storageErr(ctx, s.logger, "list transactions", err)
	}
	return transactions, nil
}

// All returns every transaction of the user, ordered by id. Used by the
// export paths, which never paginate.
func (s *TransactionService) All(ctx context.Context, userID int64) ([]core.Transaction, error) {
	transactions, err := s.repo.AllTransactions(ctx, userID)
	if err != nil {
		return nil, storageErr(ctx, s.logger, "load all transactions", err)
	}
	return transactions, nil
}

// Balance returns income minus expense up to and including asOf. A zero
// asOf means today.
func (s *TransactionService) Balance(ctx context.Context, userID int64, asOf time.Time) (float64, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	balance, err := s.repo.Balance(ctx, userID, asOf)
	if err != nil {
		return 0, storageErr(ctx, s.logger, "compute balance", err)
	}
	return balance, nil
}

func (s *TransactionService) MonthSummary(ctx context.Context, userID int64, year, month int) (core.MonthSummary, error) {
	if month < 1 || month > 12 {
		return core.MonthSummary{}, fmt.Errorf("month %d: %w", month, core.ErrInvalidMonth)
	}
	summary, err := s.repo.MonthSummary(ctx, userID, year, month)
	if err != nil {
		return core.MonthSummary{}, storageErr(ctx, s.logger, "month summary", err)
	}
	return summary, nil
}

func (s *TransactionService) CategorySummary(ctx context.Context, userID int64, filter core.TransactionFilter) (core.CategorySummary, error) {
	if filter.CategoryID != nil {
		if err := s.checkCategory(ctx, userID, *filter.CategoryID); err != nil {
			return core.CategorySummary{}, err
		}
	}
	summary, err := s.repo.CategorySummary(ctx, userID, filter)
	if err != nil {
		return core.CategorySummary{}, storageErr(ctx, s.logger, "category summary", err)
	}
	return summary, nil
}

func (s *TransactionService) owned(ctx context.Context, userID, id int64) (core.Transaction, error) {
	transaction, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, storageErr(ctx, s.logger, "get transaction", err)
	}
	if transaction.UserID != userID {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrForbidden)
	}
	return transaction, nil
}

// checkCategory verifies the target category exists and belongs to the
// user before a transaction is filed under it.
func (s *TransactionService) checkCategory(ctx context.Context, userID, categoryID int64) error {
	category, err := s.repo.GetCategory(ctx, categoryID)
	if err != nil {
		return storageErr(ctx, s.logger, "check category", err)
	}
	if category.UserID != userID {
		return fmt.Errorf("category %d: %w", categoryID, core.ErrForbidden)
	}
	return nil
}
