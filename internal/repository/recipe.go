package repository

import (
	"context"
	"errors"

	"recipe-gallery/internal/domain"
)

// ErrNotFound is returned when a referenced recipe does not exist.
var ErrNotFound = errors.New("recipe not found")

// ListFilter narrows and pages a recipe listing. Search matches the title
// case-insensitively; Categories filters with OR (overlap) semantics.
type ListFilter struct {
	Search     string
	Categories []domain.Category
	Limit      int
	Offset     int
}

// RecipeRepository exposes persistence operations for Recipe aggregates.
type RecipeRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, recipe *domain.Recipe) (string, error)
	Update(ctx context.Context, id string, update domain.RecipeUpdate) (*domain.Recipe, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Recipe, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Recipe, int, error)
}
