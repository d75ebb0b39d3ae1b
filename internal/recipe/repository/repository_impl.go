package repository

import (
	"context"
	"strings"

	"github.com/cozinhalabs/radar/internal/recipe/costing"
	"github.com/cozinhalabs/radar/internal/recipe/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const recipeColumns = `id, name, sku, yield_units, production_unit, is_pre_preparo, derived_ingredient_id,
	 labor_cost, ingredients_cost, packaging_cost, current_cost, total_weight_kg,
	 cmv_per_unit, cmv_per_kg, last_calculated, created_at, updated_at`

func (r *repo) Create(ctx context.Context, db *gorm.DB, recipe *domain.Recipe) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO recipes (`+recipeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recipe.ID,
		recipe.Name,
		recipe.SKU,
		recipe.YieldUnits,
		recipe.ProductionUnit,
		recipe.IsPrePreparo,
		recipe.DerivedIngredientID,
		recipe.LaborCost,
		recipe.IngredientsCost,
		recipe.PackagingCost,
		recipe.CurrentCost,
		recipe.TotalWeightKg,
		recipe.CMVPerUnit,
		recipe.CMVPerKg,
		recipe.LastCalculated,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Recipe, error) {
	var recipe domain.Recipe
	err := db.WithContext(ctx).Raw(
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ?`,
		id,
	).Scan(&recipe).Error
	if err != nil {
		return nil, err
	}
	if recipe.ID == 0 {
		return nil, nil
	}
	return &recipe, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, search string) ([]domain.Recipe, error) {
	var recipes []domain.Recipe
	stmt := db.WithContext(ctx).Model(&domain.Recipe{})
	if search != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if err := stmt.Order("name ASC").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, recipe *domain.Recipe) error {
	if recipe == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE recipes
		 SET name = ?, sku = ?, yield_units = ?, production_unit = ?, is_pre_preparo = ?,
		     derived_ingredient_id = ?, labor_cost = ?, ingredients_cost = ?, packaging_cost = ?,
		     current_cost = ?, total_weight_kg = ?, cmv_per_unit = ?, cmv_per_kg = ?,
		     last_calculated = ?, updated_at = ?
		 WHERE id = ?`,
		recipe.Name,
		recipe.SKU,
		recipe.YieldUnits,
		recipe.ProductionUnit,
		recipe.IsPrePreparo,
		recipe.DerivedIngredientID,
		recipe.LaborCost,
		recipe.IngredientsCost,
		recipe.PackagingCost,
		recipe.CurrentCost,
		recipe.TotalWeightKg,
		recipe.CMVPerUnit,
		recipe.CMVPerKg,
		recipe.LastCalculated,
		recipe.UpdatedAt,
		recipe.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM recipe_lines WHERE recipe_id = ?`, id).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM recipes WHERE id = ?`, id).Error
}

func (r *repo) ReplaceLines(ctx context.Context, db *gorm.DB, recipeID int64, lines []domain.Line) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM recipe_lines WHERE recipe_id = ?`, recipeID).Error; err != nil {
			return err
		}
		for i := range lines {
			line := lines[i]
			err := tx.Exec(
				`INSERT INTO recipe_lines (id, recipe_id, ingredient_id, quantity, created_at)
				 VALUES (?, ?, ?, ?, ?)`,
				line.ID,
				line.RecipeID,
				line.IngredientID,
				line.Quantity,
				line.CreatedAt,
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) FindLineDetails(ctx context.Context, db *gorm.DB, recipeID int64) ([]domain.LineDetail, error) {
	var details []domain.LineDetail
	err := db.WithContext(ctx).Raw(
		`SELECT l.id AS line_id, l.ingredient_id, l.quantity,
		        i.name AS ingredient_name, i.category, i.unit,
		        i.current_price, i.yield_coefficient, i.nutrition_ref_id
		 FROM recipe_lines l
		 JOIN ingredients i ON i.id = l.ingredient_id
		 WHERE l.recipe_id = ?
		 ORDER BY l.id ASC`,
		recipeID,
	).Scan(&details).Error
	if err != nil {
		return nil, err
	}
	return details, nil
}

func (r *repo) FindRecipeIDsByIngredients(ctx context.Context, db *gorm.DB, ingredientIDs []int64) ([]int64, error) {
	if len(ingredientIDs) == 0 {
		return nil, nil
	}

	var ids []int64
	err := db.WithContext(ctx).Raw(
		`SELECT DISTINCT recipe_id FROM recipe_lines WHERE ingredient_id IN ? ORDER BY recipe_id ASC`,
		ingredientIDs,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) AppendSnapshot(ctx context.Context, db *gorm.DB, snapshot *domain.CostSnapshot) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO cost_snapshots (id, recipe_id, ingredients_cost, packaging_cost, labor_cost,
		 current_cost, cmv_per_unit, cmv_per_kg, trigger_source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.ID,
		snapshot.RecipeID,
		snapshot.IngredientsCost,
		snapshot.PackagingCost,
		snapshot.LaborCost,
		snapshot.CurrentCost,
		snapshot.CMVPerUnit,
		snapshot.CMVPerKg,
		snapshot.Trigger,
		snapshot.CreatedAt,
	).Error
}

func (r *repo) ListSnapshots(ctx context.Context, db *gorm.DB, recipeID int64) ([]domain.CostSnapshot, error) {
	var snapshots []domain.CostSnapshot
	err := db.WithContext(ctx).
		Model(&domain.CostSnapshot{}).
		Where("recipe_id = ?", recipeID).
		Order("created_at DESC, id DESC").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *repo) LoadGraph(ctx context.Context, db *gorm.DB) (costing.Graph, error) {
	graph := costing.Graph{
		ProducedBy: map[int64]int64{},
		Consumes:   map[int64][]int64{},
	}

	type producerRow struct {
		ID                  int64
		DerivedIngredientID int64
	}
	var producers []producerRow
	err := db.WithContext(ctx).Raw(
		`SELECT id, derived_ingredient_id FROM recipes WHERE derived_ingredient_id IS NOT NULL`,
	).Scan(&producers).Error
	if err != nil {
		return graph, err
	}
	for _, p := range producers {
		graph.ProducedBy[p.DerivedIngredientID] = p.ID
	}

	type lineRow struct {
		RecipeID     int64
		IngredientID int64
	}
	var lines []lineRow
	err = db.WithContext(ctx).Raw(
		`SELECT recipe_id, ingredient_id FROM recipe_lines`,
	).Scan(&lines).Error
	if err != nil {
		return graph, err
	}
	for _, l := range lines {
		graph.Consumes[l.RecipeID] = append(graph.Consumes[l.RecipeID], l.IngredientID)
	}

	return graph, nil
}
