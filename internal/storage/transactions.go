package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
)

const transactionColumns = `id, title, cash, type, category_id, user_id, created_at`

// sortColumns whitelists the ORDER BY targets; anything else never reaches
// the SQL string.
var sortColumns = map[core.SortField]string{
	core.SortByCreatedAt: "created_at",
	core.SortByCash:      "cash",
	core.SortByID:        "id",
	core.SortByType:      "type",
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO transactions (title, cash, type, category_id, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`, t.Title, t.Cash, string(t.Type), t.CategoryID, t.UserID, formatTime(t.CreatedAt)).Scan(&t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	t.CreatedAt = t.CreatedAt.UTC().Truncate(time.Second)
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id,
	)
	t, err := scanTransaction(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
		}
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET title = ?, cash = ?, type = ?, category_id = ?
		WHERE id = ?
	`, t.Title, t.Cash, string(t.Type), t.CategoryID, t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", t.ID, core.ErrNotFound)
	}
	return r.GetTransaction(ctx, t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// ListTransactions returns one page of the owner's transactions matching
// the filter. The page is assumed normalized by the caller.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, f core.TransactionFilter, p core.Page) ([]core.Transaction, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`)
	args := []any{userID}
	appendFilter(&sb, &args, f)

	column, ok := sortColumns[p.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if p.Order == "desc" {
		direction = "DESC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s LIMIT ? OFFSET ?", column, direction)
	args = append(args, p.Limit, p.Offset)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// AllTransactions returns every transaction of the owner ordered by id,
// used by both export paths.
func (r *SQLiteRepository) AllTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("load transactions for export: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// Balance returns income minus expense over the owner's transactions
// created on or before asOf. The comparison is date-only.
func (r *SQLiteRepository) Balance(ctx context.Context, userID int64, asOf time.Time) (float64, error) {
	var income, expense float64
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN cash ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN cash ELSE 0 END), 0)
		FROM transactions
		WHERE user_id = ? AND date(created_at) <= date(?)
	`, userID, asOf.UTC().Format(dateLayout)).Scan(&income, &expense)
	if err != nil {
		return 0, fmt.Errorf("compute balance: %w", err)
	}
	return income - expense, nil
}

// MonthSummary sums income and expense for transactions created in the
// given calendar month, ignoring any other filters.
func (r *SQLiteRepository) MonthSummary(ctx context.Context, userID int64, year, month int) (core.MonthSummary, error) {
	key := fmt.Sprintf("%04d-%02d", year, month)
	s := core.MonthSummary{Month: key}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN cash ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN cash ELSE 0 END), 0)
		FROM transactions
		WHERE user_id = ? AND strftime('%Y-%m', created_at) = ?
	`, userID, key).Scan(&s.Income, &s.Expense)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("month summary: %w", err)
	}
	return s, nil
}

// CategorySummary sums income and expense over the owner's transactions,
// applying whichever of start date, end date and category id are present.
// With no category the totals cover all of the owner's transactions.
func (r *SQLiteRepository) CategorySummary(ctx context.Context, userID int64, f core.TransactionFilter) (core.CategorySummary, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN cash ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN cash ELSE 0 END), 0)
		FROM transactions
		WHERE user_id = ?`)
	args := []any{userID}
	appendFilter(&sb, &args, f)

	s := core.CategorySummary{CategoryID: f.CategoryID}
	if err := r.db.QueryRowContext(ctx, sb.String(), args...).Scan(&s.Income, &s.Expense); err != nil {
		return core.CategorySummary{}, fmt.Errorf("category summary: %w", err)
	}
	return s, nil
}

// appendFilter adds the optional conjunctive predicates shared by listing
// and aggregation queries.
func appendFilter(sb *strings.Builder, args *[]any, f core.TransactionFilter) {
	if f.Type != nil {
		sb.WriteString(" AND type = ?")
		*args = append(*args, string(*f.Type))
	}
	if f.StartDate != nil {
		sb.WriteString(" AND date(created_at) >= date(?)")
		*args = append(*args, f.StartDate.UTC().Format(dateLayout))
	}
	if f.EndDate != nil {
		sb.WriteString(" AND date(created_at) <= date(?)")
		*args = append(*args, f.EndDate.UTC().Format(dateLayout))
	}
	if f.CategoryID != nil {
		sb.WriteString(" AND category_id = ?")
		*args = append(*args, *f.CategoryID)
	}
}

func scanTransaction(scan func(...any) error) (core.Transaction, error) {
	var (
		t         core.Transaction
		typ       string
		createdAt string
	)
	if err := scan(&t.ID, &t.Title, &t.Cash, &typ, &t.CategoryID, &t.UserID, &createdAt); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)

	parsed, err := parseTime(createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.CreatedAt = parsed
	return t, nil
}
