package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"recipe-gallery/internal/domain"
	"recipe-gallery/internal/repository"
)

const (
	createRecipesTable = `
CREATE TABLE IF NOT EXISTS recipes (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	difficulty TEXT NOT NULL,
	description TEXT NOT NULL,
	ingredients TEXT NOT NULL,
	steps TEXT NOT NULL,
	notes TEXT NULL,
	image_url TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`
	createRecipeCategoriesTable = `
CREATE TABLE IF NOT EXISTS recipe_categories (
	recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
	category TEXT NOT NULL,
	PRIMARY KEY (recipe_id, category)
);
`
	createCategoryIndex = `
CREATE INDEX IF NOT EXISTS idx_recipe_categories_category ON recipe_categories(category);
`
	createCreatedAtIndex = `
CREATE INDEX IF NOT EXISTS idx_recipes_created_at ON recipes(created_at);
`
)

const recipeColumns = `id, title, difficulty, description, ingredients, steps, notes, image_url, created_at, updated_at`

type RecipeRepository struct {
	db *sql.DB
}

func NewRecipeRepository(db *sql.DB) repository.RecipeRepository {
	return &RecipeRepository{db: db}
}

func (r *RecipeRepository) Init(ctx context.Context) error {
	for _, stmt := range []string{
		createRecipesTable,
		createRecipeCategoriesTable,
		createCategoryIndex,
		createCreatedAtIndex,
	} {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init recipes schema: %w", err)
		}
	}
	return nil
}

func (r *RecipeRepository) Create(ctx context.Context, recipe *domain.Recipe) (string, error) {
	now := time.Now().UTC()
	recipe.ID = uuid.NewString()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	ingredients, err := json.Marshal(recipe.Ingredients)
	if err != nil {
		return "", fmt.Errorf("marshal ingredients: %w", err)
	}
	steps, err := json.Marshal(recipe.Steps)
	if err != nil {
		return "", fmt.Errorf("marshal steps: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO recipes (id, title, difficulty, description, ingredients, steps, notes, image_url, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recipe.ID,
		recipe.Title,
		string(recipe.Difficulty),
		recipe.Description,
		string(ingredients),
		string(steps),
		nullString(recipe.Notes),
		recipe.ImageURL,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert recipe: %w", err)
	}

	if err := replaceCategories(ctx, tx, recipe.ID, recipe.Categories); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit recipe insert: %w", err)
	}
	return recipe.ID, nil
}

func (r *RecipeRepository) Update(ctx context.Context, id string, update domain.RecipeUpdate) (*domain.Recipe, error) {
	sets := []string{"updated_at=?"}
	args := []any{time.Now().UTC()}

	appendSet := func(column string, value any) {
		sets = append(sets, column+"=?")
		args = append(args, value)
	}

	if update.Title != nil {
		appendSet("title", *update.Title)
	}
	if update.Difficulty != nil {
		appendSet("difficulty", string(*update.Difficulty))
	}
	if update.Description != nil {
		appendSet("description", *update.Description)
	}
	if update.Ingredients != nil {
		encoded, err := json.Marshal(update.Ingredients)
		if err != nil {
			return nil, fmt.Errorf("marshal ingredients: %w", err)
		}
		appendSet("ingredients", string(encoded))
	}
	if update.Steps != nil {
		encoded, err := json.Marshal(update.Steps)
		if err != nil {
			return nil, fmt.Errorf("marshal steps: %w", err)
		}
		appendSet("steps", string(encoded))
	}
	if update.Notes != nil {
		// empty string clears the column; a recipe never carries empty notes
		if strings.TrimSpace(*update.Notes) == "" {
			appendSet("notes", nil)
		} else {
			appendSet("notes", *update.Notes)
		}
	}
	if update.ImageURL != nil {
		appendSet("image_url", *update.ImageURL)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE recipes SET %s WHERE id=?`, strings.Join(sets, ", ")),
		append(args, id)...,
	)
	if err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update recipe rows affected: %w", err)
	}
	if affected == 0 {
		return nil, repository.ErrNotFound
	}

	if update.Categories != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_categories WHERE recipe_id=?`, id); err != nil {
			return nil, fmt.Errorf("clear recipe categories: %w", err)
		}
		if err := replaceCategories(ctx, tx, id, update.Categories); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit recipe update: %w", err)
	}

	return r.Get(ctx, id)
}

func (r *RecipeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recipe rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *RecipeRepository) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+recipeColumns+`
FROM recipes
WHERE id = ?`,
		id,
	)
	recipe, err := scanRecipe(row)
	if err != nil {
		return nil, err
	}

	categories, err := r.loadCategories(ctx, recipe.ID)
	if err != nil {
		return nil, err
	}
	recipe.Categories = categories
	return recipe, nil
}

func (r *RecipeRepository) List(ctx context.Context, filter repository.ListFilter) ([]domain.Recipe, int, error) {
	var conditions []string
	var args []any

	if strings.TrimSpace(filter.Search) != "" {
		conditions = append(conditions, `instr(lower(title), lower(?)) > 0`)
		args = append(args, filter.Search)
	}
	if len(filter.Categories) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(filter.Categories)), ", ")
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM recipe_categories c WHERE c.recipe_id = recipes.id AND c.category IN (%s))`,
			placeholders,
		))
		for _, category := range filter.Categories {
			args = append(args, string(category))
		}
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	query := `
SELECT ` + recipeColumns + `
FROM recipes` + where + `
ORDER BY created_at DESC, id
LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []domain.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, 0, err
		}
		recipes = append(recipes, *recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate recipes: %w", err)
	}

	for i := range recipes {
		categories, err := r.loadCategories(ctx, recipes[i].ID)
		if err != nil {
			return nil, 0, err
		}
		recipes[i].Categories = categories
	}

	return recipes, total, nil
}

func (r *RecipeRepository) loadCategories(ctx context.Context, recipeID string) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT category
FROM recipe_categories
WHERE recipe_id = ?
ORDER BY rowid`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list recipe categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("scan recipe category: %w", err)
		}
		categories = append(categories, domain.Category(category))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipe categories: %w", err)
	}
	return categories, nil
}

func replaceCategories(ctx context.Context, tx *sql.Tx, recipeID string, categories []domain.Category) error {
	for _, category := range categories {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO recipe_categories (recipe_id, category)
VALUES (?, ?)`,
			recipeID,
			string(category),
		); err != nil {
			return fmt.Errorf("insert recipe category: %w", err)
		}
	}
	return nil
}

func scanRecipe(row interface {
	Scan(dest ...any) error
}) (*domain.Recipe, error) {
	var (
		recipe      domain.Recipe
		difficulty  string
		ingredients string
		steps       string
		notes       sql.NullString
	)
	if err := row.Scan(
		&recipe.ID,
		&recipe.Title,
		&difficulty,
		&recipe.Description,
		&ingredients,
		&steps,
		&notes,
		&recipe.ImageURL,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan recipe: %w", err)
	}

	recipe.Difficulty = domain.Difficulty(difficulty)
	if err := json.Unmarshal([]byte(ingredients), &recipe.Ingredients); err != nil {
		return nil, fmt.Errorf("unmarshal ingredients: %w", err)
	}
	if err := json.Unmarshal([]byte(steps), &recipe.Steps); err != nil {
		return nil, fmt.Errorf("unmarshal steps: %w", err)
	}
	if notes.Valid {
		recipe.Notes = &notes.String
	}
	return &recipe, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
