package domain

import (
	"context"

	"github.com/cozinhalabs/radar/internal/recipe/costing"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, recipe *Recipe) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Recipe, error)
	List(ctx context.Context, db *gorm.DB, search string) ([]Recipe, error)
	Update(ctx context.Context, db *gorm.DB, recipe *Recipe) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error

	ReplaceLines(ctx context.Context, db *gorm.DB, recipeID int64, lines []Line) error
	FindLineDetails(ctx context.Context, db *gorm.DB, recipeID int64) ([]LineDetail, error)

	// FindRecipeIDsByIngredients returns the distinct recipes consuming any of
	// the given ingredients.
	FindRecipeIDsByIngredients(ctx context.Context, db *gorm.DB, ingredientIDs []int64) ([]int64, error)

	AppendSnapshot(ctx context.Context, db *gorm.DB, snapshot *CostSnapshot) error
	ListSnapshots(ctx context.Context, db *gorm.DB, recipeID int64) ([]CostSnapshot, error)

	// LoadGraph materializes the composition graph for cycle detection.
	LoadGraph(ctx context.Context, db *gorm.DB) (costing.Graph, error)
}
