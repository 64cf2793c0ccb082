package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type txFixture struct {
	repo         *storage.SQLiteRepository
	transactions *TransactionService
	categories   *CategoryService
	alice        core.User
	bob          core.User
	aliceCat     core.Category
	bobCat       core.Category
}

func newTxFixture(t *testing.T) txFixture {
	t.Helper()
	ctx := context.Background()
	repo := newTestRepo(t)
	logger := newTestLogger()
	auth := NewAuthService(repo, "test-secret", time.Hour, logger)
	categories := NewCategoryService(repo, logger)

	alice, err := auth.Register(ctx, "alice", "", "s3cretpass")
	require.NoError(t, err)
	bob, err := auth.Register(ctx, "bob", "", "s3cretpass")
	require.NoError(t, err)

	aliceCat, err := categories.Create(ctx, alice.ID, core.NewCategoryInput{Title: "Food"})
	require.NoError(t, err)
	bobCat, err := categories.Create(ctx, bob.ID, core.NewCategoryInput{Title: "Bob food"})
	require.NoError(t, err)

	return txFixture{
		repo:         repo,
		transactions: NewTransactionService(repo, logger),
		categories:   categories,
		alice:        alice,
		bob:          bob,
		aliceCat:     aliceCat,
		bobCat:       bobCat,
	}
}

func TestCreateTransaction(t *testing.T) {
	ctx := context.Background()
	f := newTxFixture(t)

	created, err := f.transactions.Create(ctx, f.alice.ID, core.NewTransactionInput{
		Title:      "Lunch",
		Cash:       12.5,
		Type:       core.Expense,
		CategoryID: f.aliceCat.ID,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, f.alice.ID, created.UserID)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestCreateTransactionCategoryChecks(t *testing.T) {
	ctx := context.Background()
	f := newTxFixture(t)

	// Someone else's category.
	_, err := f.transactions.Create(ctx, f.alice.ID, core.NewTransactionInput{
		Title: "Lunch", Cash: 10, Type: core.Expense, CategoryID: f.bobCat.ID,
	})
	assert.ErrorIs(t, err, core.ErrForbidden)

	// A category that does not exist.
	_, err = f.transactions.Create(ctx, f.alice.ID, core.NewTransactionInput{
		Title: "Lunch", Cash: 10, Type: core.Expense, CategoryID: 999,
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTransactionOwnership(t *testing.T) {
	ctx := context.Background()
	f := newTxFixture(t)

	created, err := f.transactions.Create(ctx, f.alice.ID, core.NewTransactionInput{
		Title: "Lunch", Cash: 10, Type: core.Expense, CategoryID: f.aliceCat.ID,
	})
	require.NoError(t, err)

	_, err = f.transactions.Get(ctx, f.bob.ID, created.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	title := "Stolen"
	_, err = f.transactions.Update(ctx, f.bob.ID, created.ID, core.TransactionPatch{Title: &title})
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = f.transactions.Delete(ctx, f.bob.ID, created.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	// The owner still sees the untouched record.
	got, err := f.transactions.Get(ctx, f.alice.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lunch", got.Title)
}

func TestUpdateTransactionPatch(t *testing.T) {
	ctx := context.Background()
	f := newTxFixture(t)

	created, err := f.transactions.Create(ctx, f.alice.ID, core.NewTransactionInput{
		Title: "Lunch", Cash: 10, Type: core.Expense, CategoryID: f.aliceCat.ID,
	})
	require.NoError(t, err)

	cash := 15.0
	updated, err := f.transactions.Update(ctx, f.alice.ID, created.ID, core.TransactionPatch{Cash: &cash})
	require.NoError(t, err)
	assert.Equal(t, 15.0, updated.Cash)
	assert.Equal(t, "Lunch", updated.Title, "unset fields stay as they were")

	// Moving to someone else's category is refused.
	_, err = f.transactions.Update(ctx, f.alice.ID, created.ID, core.TransactionPatch{CategoryID: &f.bobCat.ID})
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestUpdateTransactionToMissingCategory(t *testing.T) {
	ctx := context.Background()
	f := newTxFixture(t)

	created, err := f.transactions.Create(ctx, f.alice.ID, core.NewTransactionInput{
		Title: "Lunch", Cash: 10, Type: core.Expense, CategoryID: f.aliceCat.ID,
	})
	require.NoError(t, err)

	missing := int64(9999)
	_, err = f.transactions.Update(ctx, f.alice.ID, created.ID, core.TransactionPatch{CategoryID: &missing})
	assert.ErrorIs(t, err, core.ErrNotFound)

	// The stored row is untouched.
	got, err := f.transactions.Get(ctx, f.alice.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, f.aliceCat.ID, got.CategoryID)
	assert.Equal(t, "Lunch", got.Title)
}

func TestBalanceIncomeMinusExpense(t *testing.T) {
	ctx := context.Background()
	f := newTxFixture(t)

	_, err := f.transactions.Create(ctx, f.alice.ID, core.NewTransactionInput{
		Title: "Salary", Cash: 100, Type: core.Income, CategoryID: f.aliceCat.ID,
	})
	require.NoError(t, err)
	_, err = f.transactions.Create(ctx, f.alice.ID, core.NewTransactionInput{
		Title: "Lunch", Cash: 12.5, Type: core.Expense, CategoryID: f.aliceCat.ID,
	})
	require.NoError(t, err)

	balance, err := f.transactions.Balance(ctx, f.alice.ID, time.Time{})
	require.NoError(t, err)
	assert.InDelta(t, 87.5, balance, 1e-9)

	// Bob's ledger is empty and unaffected.
	balance, err = f.transactions.Balance(ctx, f.bob.ID, time.Time{})
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestMonthSummaryRange(t *testing.T) {
	ctx := context.Background()
	f := newTxFixture(t)

	_, err := f.transactions.MonthSummary(ctx, f.alice.ID, 2025, 13)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	summary, err := f.transactions.MonthSummary(ctx, f.alice.ID, 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, "2025-03", summary.Month)
}

func TestCategorySummaryChecksOwnership(t *testing.T) {
	ctx := context.Background()
	f := newTxFixture(t)

	_, err := f.transactions.CategorySummary(ctx, f.alice.ID, core.TransactionFilter{CategoryID: &f.bobCat.ID})
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestCategoryServiceOwnership(t *testing.T) {
	ctx := context.Background()
	f := newTxFixture(t)

	_, err := f.categories.Get(ctx, f.bob.ID, f.aliceCat.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = f.categories.Delete(ctx, f.bob.ID, f.aliceCat.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestCategoryDeleteRemovesTransactions(t *testing.T) {
	ctx := context.Background()
	f := newTxFixture(t)

	created, err := f.transactions.Create(ctx, f.alice.ID, core.NewTransactionInput{
		Title: "Lunch", Cash: 10, Type: core.Expense, CategoryID: f.aliceCat.ID,
	})
	require.NoError(t, err)

	require.NoError(t, f.categories.Delete(ctx, f.alice.ID, f.aliceCat.ID))

	_, err = f.transactions.Get(ctx, f.alice.ID, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
