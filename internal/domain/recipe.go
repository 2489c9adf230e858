package domain

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Category string

const (
	CategoryBreakfast Category = "breakfast"
	CategoryLunch     Category = "lunch"
	CategoryDinner    Category = "dinner"
	CategoryDrinks    Category = "drinks"
	CategorySnacks    Category = "snacks"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryBreakfast, CategoryLunch, CategoryDinner, CategoryDrinks, CategorySnacks:
		return true
	}
	return false
}

// Ingredient is a single entry of a recipe's ingredient list.
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// Recipe is the sole domain entity. The repository is the only writer of
// ID, CreatedAt and UpdatedAt; the application owns every other field.
type Recipe struct {
	ID          string
	Title       string
	Difficulty  Difficulty
	Categories  []Category
	Description string
	Ingredients []Ingredient
	Steps       []string
	Notes       *string
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RecipeUpdate is a partial-replacement payload. A nil pointer or nil slice
// leaves the field unchanged. Notes set to an empty string clears the column.
type RecipeUpdate struct {
	Title       *string
	Difficulty  *Difficulty
	Categories  []Category
	Description *string
	Ingredients []Ingredient
	Steps       []string
	Notes       *string
	ImageURL    *string
}

// Empty reports whether the update touches no fields at all.
func (u RecipeUpdate) Empty() bool {
	return u.Title == nil &&
		u.Difficulty == nil &&
		u.Categories == nil &&
		u.Description == nil &&
		u.Ingredients == nil &&
		u.Steps == nil &&
		u.Notes == nil &&
		u.ImageURL == nil
}
