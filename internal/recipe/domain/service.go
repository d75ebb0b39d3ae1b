package domain

import (
	"context"
	"errors"
	"io"
	"time"

	nutritiondomain "github.com/cozinhalabs/radar/internal/nutrition/domain"
	"github.com/shopspring/decimal"
)

// Trigger values recorded on cost snapshots.
const (
	TriggerCreate      = "create"
	TriggerUpdate      = "update"
	TriggerManual      = "manual"
	TriggerPriceUpdate = "price_update"
	TriggerCascade     = "cascade"
)

type Service interface {
	List(ctx context.Context, search string) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error

	// Recalculate reprices one recipe on demand and cascades into recipes
	// consuming its derived ingredient when the unit cost moved.
	Recalculate(ctx context.Context, id string) (*Response, error)

	// RecalculateAffected reprices every recipe consuming any of the given
	// ingredients, following pre-preparo chains transitively. It returns how
	// many recipes were repriced.
	RecalculateAffected(ctx context.Context, ingredientIDs []int64, trigger string) (int, error)

	History(ctx context.Context, id string) ([]SnapshotResponse, error)

	Label(ctx context.Context, id string, portionG decimal.Decimal) (*nutritiondomain.Label, error)
	RenderLabelPDF(ctx context.Context, id string, portionG decimal.Decimal) (io.Reader, error)
}

type LineRequest struct {
	IngredientID string          `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

type CreateRequest struct {
	Name           string          `json:"name"`
	SKU            *string         `json:"sku"`
	YieldUnits     int64           `json:"yield_units"`
	ProductionUnit string          `json:"production_unit"`
	LaborCost      decimal.Decimal `json:"labor_cost"`
	IsPrePreparo   bool            `json:"is_pre_preparo"`
	Lines          []LineRequest   `json:"lines"`
}

type UpdateRequest struct {
	ID             string           `json:"-"`
	Name           *string          `json:"name"`
	SKU            *string          `json:"sku"`
	YieldUnits     *int64           `json:"yield_units"`
	ProductionUnit *string          `json:"production_unit"`
	LaborCost      *decimal.Decimal `json:"labor_cost"`
	Lines          *[]LineRequest   `json:"lines"`
}

type LineResponse struct {
	IngredientID   string          `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	LineCost       decimal.Decimal `json:"line_cost"`
	IsPackaging    bool            `json:"is_packaging"`
}

type Response struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	SKU                 *string         `json:"sku,omitempty"`
	YieldUnits          int64           `json:"yield_units"`
	ProductionUnit      string          `json:"production_unit"`
	IsPrePreparo        bool            `json:"is_pre_preparo"`
	DerivedIngredientID *string         `json:"derived_ingredient_id,omitempty"`
	LaborCost           decimal.Decimal `json:"labor_cost"`
	IngredientsCost     decimal.Decimal `json:"ingredients_cost"`
	PackagingCost       decimal.Decimal `json:"packaging_cost"`
	CurrentCost         decimal.Decimal `json:"current_cost"`
	TotalWeightKg       decimal.Decimal `json:"total_weight_kg"`
	CMVPerUnit          decimal.Decimal `json:"cmv_per_unit"`
	CMVPerKg            decimal.Decimal `json:"cmv_per_kg"`
	LastCalculated      *time.Time      `json:"last_calculated,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Lines               []LineResponse  `json:"lines,omitempty"`
}

type SnapshotResponse struct {
	IngredientsCost decimal.Decimal `json:"ingredients_cost"`
	PackagingCost   decimal.Decimal `json:"packaging_cost"`
	LaborCost       decimal.Decimal `json:"labor_cost"`
	CurrentCost     decimal.Decimal `json:"current_cost"`
	CMVPerUnit      decimal.Decimal `json:"cmv_per_unit"`
	CMVPerKg        decimal.Decimal `json:"cmv_per_kg"`
	Trigger         string          `json:"trigger"`
	CreatedAt       time.Time       `json:"created_at"`
}

var (
	ErrInvalidID         = errors.New("invalid_recipe_id")
	ErrInvalidName       = errors.New("invalid_recipe_name")
	ErrInvalidYield      = errors.New("invalid_yield_units")
	ErrInvalidLaborCost  = errors.New("invalid_labor_cost")
	ErrInvalidLine       = errors.New("invalid_recipe_line")
	ErrNotFound          = errors.New("recipe_not_found")
	ErrDuplicateName     = errors.New("recipe_name_taken")
	ErrIngredientMissing = errors.New("recipe_ingredient_not_found")
	ErrCompositionCycle  = errors.New("composition_cycle")
	ErrNothingToUpdate   = errors.New("nothing_to_update")
)
