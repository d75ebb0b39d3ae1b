package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe is a costed batch definition. Cost fields are derived from the lines
// and the consumed ingredients' current prices; they are rewritten on every
// recalculation, never edited directly.
type Recipe struct {
	ID                  int64           `json:"id" gorm:"primaryKey"`
	Name                string          `json:"name" gorm:"type:text;not null;uniqueIndex:ux_recipes_name"`
	SKU                 *string         `json:"sku,omitempty" gorm:"type:text;uniqueIndex:ux_recipes_sku"`
	YieldUnits          int64           `json:"yield_units" gorm:"not null;default:1"`
	ProductionUnit      string          `json:"production_unit" gorm:"type:text;not null;default:UN"`
	IsPrePreparo        bool            `json:"is_pre_preparo" gorm:"not null;default:false"`
	DerivedIngredientID *int64          `json:"derived_ingredient_id,omitempty"`
	LaborCost           decimal.Decimal `json:"labor_cost" gorm:"type:decimal(12,2);not null;default:0"`
	IngredientsCost     decimal.Decimal `json:"ingredients_cost" gorm:"type:decimal(12,2);not null;default:0"`
	PackagingCost       decimal.Decimal `json:"packaging_cost" gorm:"type:decimal(12,2);not null;default:0"`
	CurrentCost         decimal.Decimal `json:"current_cost" gorm:"type:decimal(12,2);not null;default:0"`
	TotalWeightKg       decimal.Decimal `json:"total_weight_kg" gorm:"type:decimal(10,3);not null;default:0"`
	CMVPerUnit          decimal.Decimal `json:"cmv_per_unit" gorm:"type:decimal(12,4);not null;default:0"`
	CMVPerKg            decimal.Decimal `json:"cmv_per_kg" gorm:"type:decimal(12,4);not null;default:0"`
	LastCalculated      *time.Time      `json:"last_calculated,omitempty"`
	CreatedAt           time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Recipe) TableName() string { return "recipes" }

// Line binds one ingredient and its batch quantity to a recipe. Quantity is in
// the ingredient's purchase unit, kg for weighed goods.
type Line struct {
	ID           int64           `json:"id" gorm:"primaryKey"`
	RecipeID     int64           `json:"recipe_id" gorm:"not null;index:ix_recipe_lines_recipe"`
	IngredientID int64           `json:"ingredient_id" gorm:"not null;index:ix_recipe_lines_ingredient"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"type:decimal(10,3);not null"`
	CreatedAt    time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Line) TableName() string { return "recipe_lines" }

// CostSnapshot is one append-only entry of the cost history. A row is written
// every time a recipe is recalculated, whatever the trigger.
type CostSnapshot struct {
	ID              int64           `json:"id" gorm:"primaryKey"`
	RecipeID        int64           `json:"recipe_id" gorm:"not null;index:ix_cost_snapshots_recipe"`
	IngredientsCost decimal.Decimal `json:"ingredients_cost" gorm:"type:decimal(12,2);not null;default:0"`
	PackagingCost   decimal.Decimal `json:"packaging_cost" gorm:"type:decimal(12,2);not null;default:0"`
	LaborCost       decimal.Decimal `json:"labor_cost" gorm:"type:decimal(12,2);not null;default:0"`
	CurrentCost     decimal.Decimal `json:"current_cost" gorm:"type:decimal(12,2);not null;default:0"`
	CMVPerUnit      decimal.Decimal `json:"cmv_per_unit" gorm:"type:decimal(12,4);not null;default:0"`
	CMVPerKg        decimal.Decimal `json:"cmv_per_kg" gorm:"type:decimal(12,4);not null;default:0"`
	Trigger         string          `json:"trigger" gorm:"column:trigger_source;type:text;not null"`
	CreatedAt       time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CostSnapshot) TableName() string { return "cost_snapshots" }

// LineDetail is a recipe line joined with the pricing fields of its
// ingredient, as costing consumes it.
type LineDetail struct {
	LineID           int64           `gorm:"column:line_id"`
	IngredientID     int64           `gorm:"column:ingredient_id"`
	IngredientName   string          `gorm:"column:ingredient_name"`
	Category         string          `gorm:"column:category"`
	Unit             string          `gorm:"column:unit"`
	Quantity         decimal.Decimal `gorm:"column:quantity"`
	CurrentPrice     decimal.Decimal `gorm:"column:current_price"`
	YieldCoefficient decimal.Decimal `gorm:"column:yield_coefficient"`
	NutritionRefID   *int64          `gorm:"column:nutrition_ref_id"`
}
