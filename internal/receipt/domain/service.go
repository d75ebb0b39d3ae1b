package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	// Upload runs OCR over the scanned image, parses the text and stages the
	// receipt for validation with matcher suggestions attached.
	Upload(ctx context.Context, req UploadRequest) (*Response, error)

	// Validate confirms item to ingredient associations, feeds the learned
	// mappings and new prices back, and cascades recipe recalculation.
	Validate(ctx context.Context, req ValidateRequest) (*ValidateResponse, error)

	ListPending(ctx context.Context) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Reject(ctx context.Context, id string) error
}

type UploadRequest struct {
	Image    []byte
	Filename string
}

// ValidateItem confirms that one staged item is the given ingredient.
type ValidateItem struct {
	ItemID       string `json:"item_id"`
	IngredientID string `json:"ingredient_id"`
}

type ValidateRequest struct {
	ID    string         `json:"-"`
	Items []ValidateItem `json:"items"`
}

type ValidateResponse struct {
	ReceiptID           string `json:"receipt_id"`
	UpdatedIngredients  int    `json:"updated_ingredients"`
	PriceAlerts         int    `json:"price_alerts"`
	RecalculatedRecipes int    `json:"recalculated_recipes"`
}

type ItemResponse struct {
	ID                    string          `json:"id"`
	RawName               string          `json:"raw_name"`
	Quantity              decimal.Decimal `json:"quantity"`
	Price                 decimal.Decimal `json:"price"`
	SuggestedIngredientID *string         `json:"suggested_ingredient_id,omitempty"`
	SuggestedName         *string         `json:"suggested_name,omitempty"`
}

type Response struct {
	ID          string              `json:"id"`
	RequestID   string              `json:"request_id"`
	MarketName  string              `json:"market_name"`
	TotalAmount decimal.NullDecimal `json:"total_amount"`
	Status      string              `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	ValidatedAt *time.Time          `json:"validated_at,omitempty"`
	Items       []ItemResponse      `json:"items,omitempty"`
}

var (
	ErrInvalidID        = errors.New("invalid_receipt_id")
	ErrEmptyImage       = errors.New("empty_receipt_image")
	ErrUnreadableScan   = errors.New("unreadable_scan")
	ErrNoItemsDetected  = errors.New("no_items_detected")
	ErrNotFound         = errors.New("receipt_not_found")
	ErrAlreadyValidated = errors.New("receipt_already_validated")
	ErrNoItemsConfirmed = errors.New("no_items_confirmed")
)
