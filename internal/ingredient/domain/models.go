package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryEmbalagem marks packaging supplies. Their cost counts toward a
// recipe's packaging cost and stays out of the batch weight.
const CategoryEmbalagem = "EMBALAGEM"

// CategoryPrePreparo marks ingredients produced by an in-house recipe. Their
// price is the producing recipe's cost per unit, never a receipt price.
const CategoryPrePreparo = "PRE-PREPARO"

type Ingredient struct {
	ID               int64           `json:"id" gorm:"primaryKey"`
	Name             string          `json:"name" gorm:"type:text;not null;uniqueIndex:ux_ingredients_name"`
	Category         string          `json:"category" gorm:"type:text;not null;default:OUTROS"`
	CurrentPrice     decimal.Decimal `json:"current_price" gorm:"type:decimal(12,2);not null;default:0"`
	YieldCoefficient decimal.Decimal `json:"yield_coefficient" gorm:"type:decimal(8,4);not null;default:1"`
	Unit             string          `json:"unit" gorm:"type:text;not null;default:KG"`
	NutritionRefID   *int64          `json:"nutrition_ref_id,omitempty"`
	LastUpdated      time.Time       `json:"last_updated" gorm:"not null;default:CURRENT_TIMESTAMP"`
	CreatedAt        time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Ingredient) TableName() string { return "ingredients" }

// IsPackaging reports whether the ingredient is a packaging supply.
func (i Ingredient) IsPackaging() bool { return i.Category == CategoryEmbalagem }

type Category struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:text;not null;uniqueIndex:ux_ingredient_categories_name"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Category) TableName() string { return "ingredient_categories" }

// ProductMap is one learned association between a receipt raw name and an
// ingredient. Rows are written on validation with confidence pinned to 1.00.
type ProductMap struct {
	ID           int64           `json:"id" gorm:"primaryKey"`
	RawName      string          `json:"raw_name" gorm:"type:text;not null;uniqueIndex:ux_product_map_raw_ingredient,priority:1;index:ix_product_map_raw_name"`
	IngredientID int64           `json:"ingredient_id" gorm:"not null;uniqueIndex:ux_product_map_raw_ingredient,priority:2"`
	Confidence   decimal.Decimal `json:"confidence" gorm:"type:decimal(3,2);not null;default:1"`
	CreatedAt    time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ProductMap) TableName() string { return "product_map" }
