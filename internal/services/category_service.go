package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// CategoryService manages a user's categories. Every read and write is
// checked against the requesting user before it touches storage.
type CategoryService struct {
	repo   *storage.SQLiteRepository
	logger *log.Logger
}

func NewCategoryService(repo *storage.SQLiteRepository, logger *log.Logger) *CategoryService {
	return &CategoryService{
		repo:   repo,
		logger: logger.WithComponent(log.ComponentApp),
	}
}

func (s *CategoryService) Create(ctx context.Context, userID int64, in core.NewCategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}

	category, err := s.repo.CreateCategory(ctx, core.Category{Title: in.Title, UserID: userID})
	if err != nil {
		return core.Category{}, storageErr(ctx, s.logger, "create category", err)
	}

	s.logger.InfoContext(ctx, "category created",
		log.FieldUserID, userID,
		log.FieldCategoryID, category.ID)
	return category, nil
}

func (s *CategoryService) Get(ctx context.Context, userID, id int64) (core.Category, error) {
	return s.owned(ctx, userID, id)
}

func (s *CategoryService) List(ctx context.Context, userID int64) ([]core.Category, error) {
	categories, err := s.repo.ListCategories(ctx, userID)
	if err != nil {
		return nil, storageErr(ctx, s.logger, "list categories", err)
	}
	return categories, nil
}

func (s *CategoryService) Update(ctx context.Context, userID, id int64, patch core.CategoryPatch) (core.Category, error) {
	if err := patch.Validate(); err != nil {
		return core.Category{}, err
	}

	category, err := s.owned(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}

	if patch.Title != nil {
		category.Title = *patch.Title
	}
	updated, err := s.repo.UpdateCategory(ctx, category)
	if err != nil {
		return core.Category{}, storageErr(ctx, s.logger, "update category", err)
	}
	return updated, nil
}

// Delete removes the category and all transactions filed under it.
func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return storageErr(ctx, s.logger, "delete category", err)
	}

	s.logger.InfoContext(ctx, "category deleted",
		log.FieldUserID, userID,
		log.FieldCategoryID, id)
	return nil
}

func (s *CategoryService) owned(ctx context.Context, userID, id int64) (core.Category, error) {
	category, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, storageErr(ctx, s.logger, "get category", err)
	}
	if category.UserID != userID {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrForbidden)
	}
	return category, nil
}
