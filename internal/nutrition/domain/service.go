package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	// Materialize computes and stores the per-100g vector for a derived
	// ingredient from the lines of the recipe that produces it. It returns
	// the existing reference id unchanged when no line carries nutrition
	// data, so recipes without references never lose what they had.
	Materialize(ctx context.Context, req MaterializeRequest) (*int64, error)

	// Label builds the per-portion ANVISA panel for a recipe batch.
	Label(ctx context.Context, req LabelRequest) (*Label, error)
	// RenderLabelPDF renders the panel as a downloadable PDF.
	RenderLabelPDF(ctx context.Context, req LabelRequest) (io.Reader, error)

	List(ctx context.Context, search string) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
}

// MaterializeLine carries one recipe line's quantity and its ingredient's
// nutrition reference, when it has one.
type MaterializeLine struct {
	QuantityKg decimal.Decimal
	RefID      *int64
}

type MaterializeRequest struct {
	Name          string
	Lines         []MaterializeLine
	TotalWeightKg decimal.Decimal
	ExistingRefID *int64
}

type LabelRequest struct {
	RecipeName    string
	PortionG      decimal.Decimal
	TotalWeightKg decimal.Decimal
	Lines         []MaterializeLine
}

// Label is the computed per-portion disclosure. Amounts are rounded to one
// decimal place; percentages are whole numbers against the reference table.
type Label struct {
	RecipeName string     `json:"recipe_name"`
	PortionG   string     `json:"portion_g"`
	Rows       []LabelRow `json:"rows"`
}

type LabelRow struct {
	Nutrient  string `json:"nutrient"`
	Amount    string `json:"amount"`
	PercentDV string `json:"percent_dv,omitempty"`
}

type CreateRequest struct {
	Name          string          `json:"name"`
	EnergyKcal    decimal.Decimal `json:"energy_kcal"`
	EnergyKJ      decimal.Decimal `json:"energy_kj"`
	ProteinG      decimal.Decimal `json:"protein_g"`
	CarbG         decimal.Decimal `json:"carb_g"`
	LipidG        decimal.Decimal `json:"lipid_g"`
	SaturatedFatG decimal.Decimal `json:"saturated_fat_g"`
	TransFatG     decimal.Decimal `json:"trans_fat_g"`
	FiberG        decimal.Decimal `json:"fiber_g"`
	SodiumMG      decimal.Decimal `json:"sodium_mg"`
}

type UpdateRequest struct {
	ID            string           `json:"-"`
	Name          *string          `json:"name"`
	EnergyKcal    *decimal.Decimal `json:"energy_kcal"`
	EnergyKJ      *decimal.Decimal `json:"energy_kj"`
	ProteinG      *decimal.Decimal `json:"protein_g"`
	CarbG         *decimal.Decimal `json:"carb_g"`
	LipidG        *decimal.Decimal `json:"lipid_g"`
	SaturatedFatG *decimal.Decimal `json:"saturated_fat_g"`
	TransFatG     *decimal.Decimal `json:"trans_fat_g"`
	FiberG        *decimal.Decimal `json:"fiber_g"`
	SodiumMG      *decimal.Decimal `json:"sodium_mg"`
}

type Response struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	BaseQtyG      decimal.Decimal `json:"base_qty_g"`
	EnergyKcal    decimal.Decimal `json:"energy_kcal"`
	EnergyKJ      decimal.Decimal `json:"energy_kj"`
	ProteinG      decimal.Decimal `json:"protein_g"`
	CarbG         decimal.Decimal `json:"carb_g"`
	LipidG        decimal.Decimal `json:"lipid_g"`
	SaturatedFatG decimal.Decimal `json:"saturated_fat_g"`
	TransFatG     decimal.Decimal `json:"trans_fat_g"`
	FiberG        decimal.Decimal `json:"fiber_g"`
	SodiumMG      decimal.Decimal `json:"sodium_mg"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

var (
	ErrInvalidID        = errors.New("invalid_nutrition_ref_id")
	ErrInvalidName      = errors.New("invalid_nutrition_ref_name")
	ErrInvalidValue     = errors.New("invalid_nutrition_value")
	ErrInvalidPortion   = errors.New("invalid_portion")
	ErrNotFound         = errors.New("nutrition_ref_not_found")
	ErrInsufficientData = errors.New("insufficient_nutrition_data")
)
