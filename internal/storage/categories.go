package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

// CreateCategory inserts a new category. Titles are unique across all
// users; a duplicate surfaces as core.ErrConflict.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (title, user_id) VALUES (?, ?) RETURNING id`,
		c.Title, c.UserID,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, fmt.Errorf("category title %q already exists: %w", c.Title, core.ErrConflict)
		}
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, user_id FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Title, &c.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
		}
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, user_id FROM categories WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Title, &c.UserID); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET title = ? WHERE id = ?`, c.Title, c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, fmt.Errorf("category title %q already exists: %w", c.Title, core.ErrConflict)
		}
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Category{}, fmt.Errorf("category %d: %w", c.ID, core.ErrNotFound)
	}
	return r.GetCategory(ctx, c.ID)
}

// DeleteCategory removes a category together with its transactions. The
// cascade is an explicit step inside one storage transaction so the
// invariant stays visible and testable.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE category_id = ?`, id); err != nil {
		return fmt.Errorf("delete category transactions: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}

	return tx.Commit()
}
