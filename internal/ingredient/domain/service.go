package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	List(ctx context.Context, req ListRequest) ([]Response, error)
	ListIncomplete(ctx context.Context) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)

	// Match suggests the ingredient previously learned for a receipt raw name.
	// A nil result with a nil error means no mapping exists yet.
	Match(ctx context.Context, rawName string) (*Matched, error)
	// Learn records a confirmed raw name to ingredient association.
	Learn(ctx context.Context, rawName string, ingredientID int64) error
	// UpdatePrice sets a new current price and returns the previous one.
	UpdatePrice(ctx context.Context, ingredientID int64, price decimal.Decimal) (*PriceChange, error)
	// UpsertDerived creates or refreshes the ingredient a pre-preparo recipe
	// produces, keeping its price in step with the recipe's cost per unit.
	UpsertDerived(ctx context.Context, req UpsertDerivedRequest) (int64, error)

	ListCategories(ctx context.Context, search string) ([]CategoryResponse, error)
	CreateCategory(ctx context.Context, name string) (*CategoryResponse, error)
}

type ListRequest struct {
	Search   string
	Category string
}

type CreateRequest struct {
	Name             string          `json:"name"`
	Category         string          `json:"category"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	YieldCoefficient decimal.Decimal `json:"yield_coefficient"`
	Unit             string          `json:"unit"`
}

type UpdateRequest struct {
	ID               string           `json:"-"`
	Name             *string          `json:"name"`
	Category         *string          `json:"category"`
	CurrentPrice     *decimal.Decimal `json:"current_price"`
	YieldCoefficient *decimal.Decimal `json:"yield_coefficient"`
	Unit             *string          `json:"unit"`
	NutritionRefID   *string          `json:"nutrition_ref_id"`
}

type Response struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Category         string          `json:"category"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	YieldCoefficient decimal.Decimal `json:"yield_coefficient"`
	Unit             string          `json:"unit"`
	NutritionRefID   *string         `json:"nutrition_ref_id,omitempty"`
	LastUpdated      time.Time       `json:"last_updated"`
	CreatedAt        time.Time       `json:"created_at"`
}

// UpsertDerivedRequest carries the producing recipe's outputs. ID is the
// derived ingredient already linked to the recipe, when one exists.
type UpsertDerivedRequest struct {
	ID             *int64
	Name           string
	Unit           string
	Price          decimal.Decimal
	NutritionRefID *int64
}

// Matched is a matcher suggestion surfaced on staged receipt items.
type Matched struct {
	ID       int64  `json:"id,string"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// PriceChange reports a price update together with the price it replaced.
type PriceChange struct {
	IngredientID int64
	Name         string
	OldPrice     decimal.Decimal
	NewPrice     decimal.Decimal
}

type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidID        = errors.New("invalid_ingredient_id")
	ErrInvalidName      = errors.New("invalid_ingredient_name")
	ErrInvalidPrice     = errors.New("invalid_ingredient_price")
	ErrNotFound         = errors.New("ingredient_not_found")
	ErrDuplicateName    = errors.New("ingredient_name_taken")
	ErrCategoryExists   = errors.New("category_exists")
	ErrNothingToUpdate  = errors.New("nothing_to_update")
	ErrInvalidCategory  = errors.New("invalid_category_name")
	ErrInvalidRawName   = errors.New("invalid_raw_name")
	ErrInvalidYieldCoef = errors.New("invalid_yield_coefficient")
)
