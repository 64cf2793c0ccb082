package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// CreateUser inserts a new user and returns it with the assigned id.
// A taken name or email surfaces as core.ErrConflict.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, is_active, is_superuser, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		u.Name, nullable(u.Email), u.PasswordHash, u.IsActive, u.IsSuperuser, formatTime(u.CreatedAt),
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, fmt.Errorf("user %q already registered: %w", u.Name, core.ErrConflict)
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC().Truncate(time.Second)
	return u, nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, is_active, is_superuser, created_at
		FROM users WHERE id = ?
	`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, fmt.Errorf("user %d: %w", id, core.ErrNotFound)
		}
		return core.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUserByName(ctx context.Context, name string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, is_active, is_superuser, created_at
		FROM users WHERE name = ?
	`, name)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, fmt.Errorf("user %q: %w", name, core.ErrNotFound)
		}
		return core.User{}, fmt.Errorf("get user by name: %w", err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (core.User, error) {
	var (
		u         core.User
		email     sql.NullString
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.Name, &email, &u.PasswordHash, &u.IsActive, &u.IsSuperuser, &createdAt); err != nil {
		return core.User{}, err
	}
	u.Email = email.String

	t, err := parseTime(createdAt)
	if err != nil {
		return core.User{}, err
	}
	u.CreatedAt = t
	return u, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
