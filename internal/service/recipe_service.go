package service

import (
	"context"
	"fmt"
	"strings"

	"recipe-gallery/internal/domain"
	"recipe-gallery/internal/repository"
)

const (
	defaultPageLimit = 12
	maxPageLimit     = 100
)

// ValidationError marks a client-correctable payload problem. Handlers map
// it to a 400 with the message intact.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func newValidationError(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// ListParams narrows and pages a recipe listing.
type ListParams struct {
	Search     string
	Categories []domain.Category
	Page       int
	Limit      int
}

// ListResult is a single page of the filtered set. Total counts the whole
// filtered set, not the page.
type ListResult struct {
	Items      []domain.Recipe
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// RecipeService coordinates recipe reads and guarded mutations.
type RecipeService interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, id string) (*domain.Recipe, error)
	Create(ctx context.Context, draft domain.Recipe) (*domain.Recipe, error)
	Update(ctx context.Context, id string, update domain.RecipeUpdate) (*domain.Recipe, error)
	Delete(ctx context.Context, id string) error
}

type recipeService struct {
	recipes repository.RecipeRepository
}

func NewRecipeService(recipes repository.RecipeRepository) RecipeService {
	return &recipeService{recipes: recipes}
}

func (s *recipeService) List(ctx context.Context, params ListParams) (*ListResult, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	categories := make([]domain.Category, 0, len(params.Categories))
	for _, category := range params.Categories {
		if category.Valid() {
			categories = append(categories, category)
		}
	}

	items, total, err := s.recipes.List(ctx, repository.ListFilter{
		Search:     strings.TrimSpace(params.Search),
		Categories: categories,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func (s *recipeService) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	return s.recipes.Get(ctx, id)
}

func (s *recipeService) Create(ctx context.Context, draft domain.Recipe) (*domain.Recipe, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)
	if draft.Notes != nil && strings.TrimSpace(*draft.Notes) == "" {
		draft.Notes = nil
	}

	if _, err := s.recipes.Create(ctx, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (s *recipeService) Update(ctx context.Context, id string, update domain.RecipeUpdate) (*domain.Recipe, error) {
	if update.Empty() {
		return nil, newValidationError("update payload is empty")
	}
	if err := validateUpdate(update); err != nil {
		return nil, err
	}
	return s.recipes.Update(ctx, id, update)
}

func (s *recipeService) Delete(ctx context.Context, id string) error {
	// deleting an unknown id reports not found rather than silent success
	return s.recipes.Delete(ctx, id)
}

func validateDraft(draft domain.Recipe) error {
	if strings.TrimSpace(draft.Title) == "" {
		return newValidationError("title is required")
	}
	if !draft.Difficulty.Valid() {
		return newValidationError("difficulty must be one of easy, medium, hard")
	}
	if strings.TrimSpace(draft.Description) == "" {
		return newValidationError("description is required")
	}
	if err := validateCategories(draft.Categories); err != nil {
		return err
	}
	if err := validateIngredients(draft.Ingredients); err != nil {
		return err
	}
	if err := validateSteps(draft.Steps); err != nil {
		return err
	}
	if strings.TrimSpace(draft.ImageURL) == "" {
		return newValidationError("image url is required")
	}
	return nil
}

// validateUpdate checks only the fields the payload touches. A partial
// update must never empty categories, ingredients, steps or the image url.
func validateUpdate(update domain.RecipeUpdate) error {
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return newValidationError("title cannot be empty")
	}
	if update.Difficulty != nil && !update.Difficulty.Valid() {
		return newValidationError("difficulty must be one of easy, medium, hard")
	}
	if update.Description != nil && strings.TrimSpace(*update.Description) == "" {
		return newValidationError("description cannot be empty")
	}
	if update.Categories != nil {
		if err := validateCategories(update.Categories); err != nil {
			return err
		}
	}
	if update.Ingredients != nil {
		if err := validateIngredients(update.Ingredients); err != nil {
			return err
		}
	}
	if update.Steps != nil {
		if err := validateSteps(update.Steps); err != nil {
			return err
		}
	}
	if update.ImageURL != nil && strings.TrimSpace(*update.ImageURL) == "" {
		return newValidationError("image url cannot be empty")
	}
	return nil
}

func validateCategories(categories []domain.Category) error {
	if len(categories) == 0 {
		return newValidationError("at least one category is required")
	}
	seen := make(map[domain.Category]struct{}, len(categories))
	for _, category := range categories {
		if !category.Valid() {
			return newValidationError("unknown category %q", category)
		}
		if _, dup := seen[category]; dup {
			return newValidationError("duplicate category %q", category)
		}
		seen[category] = struct{}{}
	}
	return nil
}

func validateIngredients(ingredients []domain.Ingredient) error {
	if len(ingredients) == 0 {
		return newValidationError("at least one ingredient is required")
	}
	for i, ingredient := range ingredients {
		if strings.TrimSpace(ingredient.Name) == "" {
			return newValidationError("ingredient %d is missing a name", i+1)
		}
		if strings.TrimSpace(ingredient.Quantity) == "" {
			return newValidationError("ingredient %d is missing a quantity", i+1)
		}
	}
	return nil
}

func validateSteps(steps []string) error {
	if len(steps) == 0 {
		return newValidationError("at least one step is required")
	}
	for i, step := range steps {
		if strings.TrimSpace(step) == "" {
			return newValidationError("step %d is blank", i+1)
		}
	}
	return nil
}
