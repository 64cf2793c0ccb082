package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"fintrack/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RepositoryTestSuite struct {
	suite.Suite
	repo *SQLiteRepository
	ctx  context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	repo, err := NewSQLiteRepository(":memory:")
	require.NoError(s.T(), err, "failed to open test database")
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	if s.repo != nil {
		s.repo.Close()
	}
}

func (s *RepositoryTestSuite) newUser(name string) core.User {
	u, err := s.repo.CreateUser(s.ctx, core.User{
		Name:         name,
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(s.T(), err)
	return u
}

func (s *RepositoryTestSuite) newCategory(userID int64, title string) core.Category {
	c, err := s.repo.CreateCategory(s.ctx, core.Category{Title: title, UserID: userID})
	require.NoError(s.T(), err)
	return c
}

func (s *RepositoryTestSuite) newTransaction(userID, categoryID int64, title string, cash float64, typ core.TransactionType, createdAt time.Time) core.Transaction {
	t, err := s.repo.CreateTransaction(s.ctx, core.Transaction{
		Title:      title,
		Cash:       cash,
		Type:       typ,
		CategoryID: categoryID,
		UserID:     userID,
		CreatedAt:  createdAt,
	})
	require.NoError(s.T(), err)
	return t
}

func (s *RepositoryTestSuite) TestCreateUserAndFetch() {
	u := s.newUser("alice")
	assert.NotZero(s.T(), u.ID)

	byName, err := s.repo.GetUserByName(s.ctx, "alice")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), u.ID, byName.ID)
	assert.Empty(s.T(), byName.Email, "email is optional")
	assert.True(s.T(), byName.IsActive)

	byID, err := s.repo.GetUserByID(s.ctx, u.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice", byID.Name)
}

func (s *RepositoryTestSuite) TestDuplicateUserNameConflicts() {
	s.newUser("alice")

	_, err := s.repo.CreateUser(s.ctx, core.User{Name: "alice", PasswordHash: "x", CreatedAt: time.Now()})
	assert.ErrorIs(s.T(), err, core.ErrConflict)
}

func (s *RepositoryTestSuite) TestTwoUsersWithoutEmail() {
	// The email column is UNIQUE but optional; absent emails must not collide.
	s.newUser("alice")
	s.newUser("bob")
}

func (s *RepositoryTestSuite) TestUserNotFound() {
	_, err := s.repo.GetUserByID(s.ctx, 999)
	assert.ErrorIs(s.T(), err, core.ErrNotFound)

	_, err = s.repo.GetUserByName(s.ctx, "nobody")
	assert.ErrorIs(s.T(), err, core.ErrNotFound)
}

func (s *RepositoryTestSuite) TestCategoryTitleGloballyUnique() {
	alice := s.newUser("alice")
	bob := s.newUser("bob")
	s.newCategory(alice.ID, "Food")

	// Even a different user cannot reuse the title.
	_, err := s.repo.CreateCategory(s.ctx, core.Category{Title: "Food", UserID: bob.ID})
	assert.ErrorIs(s.T(), err, core.ErrConflict)
}

func (s *RepositoryTestSuite) TestUpdateCategory() {
	alice := s.newUser("alice")
	c := s.newCategory(alice.ID, "Food")

	c.Title = "Groceries"
	updated, err := s.repo.UpdateCategory(s.ctx, c)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Groceries", updated.Title)
	assert.Equal(s.T(), alice.ID, updated.UserID)

	_, err = s.repo.UpdateCategory(s.ctx, core.Category{ID: 999, Title: "Ghost"})
	assert.ErrorIs(s.T(), err, core.ErrNotFound)
}

func (s *RepositoryTestSuite) TestDeleteCategoryCascadesTransactions() {
	alice := s.newUser("alice")
	food := s.newCategory(alice.ID, "Food")
	rent := s.newCategory(alice.ID, "Rent")
	now := time.Now().UTC()

	inFood := s.newTransaction(alice.ID, food.ID, "Lunch", 12.5, core.Expense, now)
	inRent := s.newTransaction(alice.ID, rent.ID, "March rent", 800, core.Expense, now)

	require.NoError(s.T(), s.repo.DeleteCategory(s.ctx, food.ID))

	_, err := s.repo.GetCategory(s.ctx, food.ID)
	assert.ErrorIs(s.T(), err, core.ErrNotFound)
	_, err = s.repo.GetTransaction(s.ctx, inFood.ID)
	assert.ErrorIs(s.T(), err, core.ErrNotFound, "transactions of the category must be gone")

	// The other category's transaction is untouched.
	kept, err := s.repo.GetTransaction(s.ctx, inRent.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "March rent", kept.Title)
}

func (s *RepositoryTestSuite) TestTransactionRoundTrip() {
	alice := s.newUser("alice")
	food := s.newCategory(alice.ID, "Food")
	created := s.newTransaction(alice.ID, food.ID, "Lunch", 12.5, core.Expense, time.Date(2025, 3, 10, 13, 45, 2, 0, time.UTC))

	got, err := s.repo.GetTransaction(s.ctx, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), created, got, "stored fields must round-trip exactly")
	assert.Equal(s.T(), time.Date(2025, 3, 10, 13, 45, 2, 0, time.UTC), got.CreatedAt)
}

func (s *RepositoryTestSuite) TestListFiltersAreConjunctive() {
	alice := s.newUser("alice")
	food := s.newCategory(alice.ID, "Food")
	rent := s.newCategory(alice.ID, "Rent")
	now := time.Now().UTC()

	s.newTransaction(alice.ID, food.ID, "Salary", 100, core.Income, now)
	s.newTransaction(alice.ID, food.ID, "Lunch", 10, core.Expense, now)
	want := s.newTransaction(alice.ID, rent.ID, "Deposit back", 50, core.Income, now)

	income := core.Income
	f := core.TransactionFilter{Type: &income, CategoryID: &rent.ID}
	got, err := s.repo.ListTransactions(s.ctx, alice.ID, f, core.Page{}.Normalize())
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 1)
	assert.Equal(s.T(), want.ID, got[0].ID)
}

func (s *RepositoryTestSuite) TestListScopedToOwner() {
	alice := s.newUser("alice")
	bob := s.newUser("bob")
	cat := s.newCategory(alice.ID, "Food")
	bobCat := s.newCategory(bob.ID, "Bob food")
	now := time.Now().UTC()

	s.newTransaction(alice.ID, cat.ID, "Lunch", 10, core.Expense, now)
	s.newTransaction(bob.ID, bobCat.ID, "Dinner", 20, core.Expense, now)

	got, err := s.repo.ListTransactions(s.ctx, alice.ID, core.TransactionFilter{}, core.Page{}.Normalize())
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 1)
	assert.Equal(s.T(), alice.ID, got[0].UserID)
}

func (s *RepositoryTestSuite) TestListDateRange() {
	alice := s.newUser("alice")
	cat := s.newCategory(alice.ID, "Food")

	s.newTransaction(alice.ID, cat.ID, "old", 1, core.Expense, time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC))
	mid := s.newTransaction(alice.ID, cat.ID, "mid", 2, core.Expense, time.Date(2025, 2, 5, 23, 59, 59, 0, time.UTC))
	s.newTransaction(alice.ID, cat.ID, "new", 3, core.Expense, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))

	start := time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)
	got, err := s.repo.ListTransactions(s.ctx, alice.ID, core.TransactionFilter{StartDate: &start, EndDate: &end}, core.Page{}.Normalize())
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 1, "bounds are inclusive and date-only")
	assert.Equal(s.T(), mid.ID, got[0].ID)
}

func (s *RepositoryTestSuite) TestListPagination() {
	alice := s.newUser("alice")
	cat := s.newCategory(alice.ID, "Food")
	now := time.Now().UTC()

	first := s.newTransaction(alice.ID, cat.ID, "first", 1, core.Expense, now)
	second := s.newTransaction(alice.ID, cat.ID, "second", 2, core.Expense, now)
	third := s.newTransaction(alice.ID, cat.ID, "third", 3, core.Expense, now)
	_ = first
	_ = third

	page := core.Page{Limit: 1, Offset: 1, SortBy: core.SortByID, Order: "asc"}.Normalize()
	got, err := s.repo.ListTransactions(s.ctx, alice.ID, core.TransactionFilter{}, page)
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 1)
	assert.Equal(s.T(), second.ID, got[0].ID, "limit=1 offset=1 by id asc is the second row")
}

func (s *RepositoryTestSuite) TestListSortByCashDesc() {
	alice := s.newUser("alice")
	cat := s.newCategory(alice.ID, "Food")
	now := time.Now().UTC()

	s.newTransaction(alice.ID, cat.ID, "small", 5, core.Expense, now)
	s.newTransaction(alice.ID, cat.ID, "big", 50, core.Expense, now)
	s.newTransaction(alice.ID, cat.ID, "medium", 20, core.Expense, now)

	page := core.Page{Limit: 10, SortBy: core.SortByCash, Order: "desc"}.Normalize()
	got, err := s.repo.ListTransactions(s.ctx, alice.ID, core.TransactionFilter{}, page)
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 3)
	assert.Equal(s.T(), []float64{50, 20, 5}, []float64{got[0].Cash, got[1].Cash, got[2].Cash})
}

func (s *RepositoryTestSuite) TestBalance() {
	alice := s.newUser("alice")
	cat := s.newCategory(alice.ID, "Food")

	s.newTransaction(alice.ID, cat.ID, "Salary", 100, core.Income, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	s.newTransaction(alice.ID, cat.ID, "Lunch", 12.5, core.Expense, time.Date(2025, 3, 2, 13, 0, 0, 0, time.UTC))
	s.newTransaction(alice.ID, cat.ID, "Later", 40, core.Expense, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))

	// As-of bound is inclusive and ignores time of day.
	balance, err := s.repo.Balance(s.ctx, alice.ID, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(s.T(), err)
	assert.InDelta(s.T(), 87.5, balance, 1e-9)

	balance, err = s.repo.Balance(s.ctx, alice.ID, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(s.T(), err)
	assert.InDelta(s.T(), 47.5, balance, 1e-9)
}

func (s *RepositoryTestSuite) TestBalanceEmptyIsZero() {
	alice := s.newUser("alice")
	balance, err := s.repo.Balance(s.ctx, alice.ID, time.Now())
	require.NoError(s.T(), err)
	assert.Zero(s.T(), balance)
}

func (s *RepositoryTestSuite) TestMonthSummary() {
	alice := s.newUser("alice")
	cat := s.newCategory(alice.ID, "Food")

	s.newTransaction(alice.ID, cat.ID, "Salary", 1000, core.Income, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	s.newTransaction(alice.ID, cat.ID, "Lunch", 100, core.Expense, time.Date(2025, 3, 20, 13, 0, 0, 0, time.UTC))
	s.newTransaction(alice.ID, cat.ID, "April rent", 800, core.Expense, time.Date(2025, 4, 1, 13, 0, 0, 0, time.UTC))

	got, err := s.repo.MonthSummary(s.ctx, alice.ID, 2025, 3)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), core.MonthSummary{Month: "2025-03", Income: 1000, Expense: 100}, got)
}

func (s *RepositoryTestSuite) TestCategorySummary() {
	alice := s.newUser("alice")
	food := s.newCategory(alice.ID, "Food")
	rent := s.newCategory(alice.ID, "Rent")
	day := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

	s.newTransaction(alice.ID, food.ID, "Salary", 100, core.Income, day)
	s.newTransaction(alice.ID, food.ID, "Lunch", 30, core.Expense, day)
	s.newTransaction(alice.ID, rent.ID, "Rent", 800, core.Expense, day)

	// Category given: restricted to it.
	got, err := s.repo.CategorySummary(s.ctx, alice.ID, core.TransactionFilter{CategoryID: &food.ID})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 100.0, got.Income)
	assert.Equal(s.T(), 30.0, got.Expense)
	require.NotNil(s.T(), got.CategoryID)
	assert.Equal(s.T(), food.ID, *got.CategoryID)

	// Category omitted: totals cover everything the user owns.
	got, err = s.repo.CategorySummary(s.ctx, alice.ID, core.TransactionFilter{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 100.0, got.Income)
	assert.Equal(s.T(), 830.0, got.Expense)
	assert.Nil(s.T(), got.CategoryID)
}

func (s *RepositoryTestSuite) TestForeignKeysEnforced() {
	alice := s.newUser("alice")

	// The database itself refuses rows pointing at missing parents.
	_, err := s.repo.CreateTransaction(s.ctx, core.Transaction{
		Title:      "Orphan",
		Cash:       1,
		Type:       core.Expense,
		CategoryID: 9999,
		UserID:     alice.ID,
		CreatedAt:  time.Now().UTC(),
	})
	assert.Error(s.T(), err)

	_, err = s.repo.CreateCategory(s.ctx, core.Category{Title: "Ghost owner", UserID: 9999})
	assert.Error(s.T(), err)
}

func (s *RepositoryTestSuite) TestExportJobLifecycle() {
	alice := s.newUser("alice")
	job := ExportJob{ID: "job-123", UserID: alice.ID, CreatedAt: time.Now().UTC()}
	require.NoError(s.T(), s.repo.CreateExportJob(s.ctx, job))

	got, err := s.repo.GetExportJob(s.ctx, "job-123")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), JobStatusPending, got.Status)

	require.NoError(s.T(), s.repo.MarkExportJobStarted(s.ctx, "job-123"))
	got, err = s.repo.GetExportJob(s.ctx, "job-123")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), JobStatusStarted, got.Status)

	require.NoError(s.T(), s.repo.MarkExportJobCompleted(s.ctx, "job-123", "/static/exports/1_abc.csv"))
	got, err = s.repo.GetExportJob(s.ctx, "job-123")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), JobStatusCompleted, got.Status)
	assert.Equal(s.T(), "/static/exports/1_abc.csv", got.FilePath)
	assert.Empty(s.T(), got.Error)
}

func (s *RepositoryTestSuite) TestExportJobFailure() {
	alice := s.newUser("alice")
	require.NoError(s.T(), s.repo.CreateExportJob(s.ctx, ExportJob{ID: "job-err", UserID: alice.ID, CreatedAt: time.Now().UTC()}))

	require.NoError(s.T(), s.repo.MarkExportJobFailed(s.ctx, "job-err", "disk full"))
	got, err := s.repo.GetExportJob(s.ctx, "job-err")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), JobStatusFailed, got.Status)
	assert.Equal(s.T(), "disk full", got.Error)
}

func (s *RepositoryTestSuite) TestUnknownExportJob() {
	_, err := s.repo.GetExportJob(s.ctx, "missing")
	assert.ErrorIs(s.T(), err, sql.ErrNoRows)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
