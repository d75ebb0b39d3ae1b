package notify

import (
	"context"

	"github.com/shopspring/decimal"
)

// Notifier delivers price and cost movement alerts to the kitchen's channel.
// Delivery is best effort: callers log failures and move on.
type Notifier interface {
	SendPriceAlert(ctx context.Context, alert PriceAlert) error
	SendCMVUpdate(ctx context.Context, update CMVUpdate) error
}

// PriceAlert reports an ingredient price that moved past the alert threshold.
type PriceAlert struct {
	IngredientName string
	OldPrice       decimal.Decimal
	NewPrice       decimal.Decimal
	ChangePercent  decimal.Decimal
}

// CMVUpdate reports a recipe whose unit cost changed after recalculation.
type CMVUpdate struct {
	RecipeName          string
	OldCMVPerUnit       decimal.Decimal
	NewCMVPerUnit       decimal.Decimal
	AffectedIngredients []string
}

// NoOpNotifier swallows notifications. Used when no webhook is configured.
type NoOpNotifier struct{}

func (NoOpNotifier) SendPriceAlert(context.Context, PriceAlert) error { return nil }

func (NoOpNotifier) SendCMVUpdate(context.Context, CMVUpdate) error { return nil }
