package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	ingredientdomain "github.com/cozinhalabs/radar/internal/ingredient/domain"
	"github.com/cozinhalabs/radar/internal/providers/notify"
	"github.com/cozinhalabs/radar/internal/providers/ocr"
	"github.com/cozinhalabs/radar/internal/receipt/domain"
	"github.com/cozinhalabs/radar/internal/receipt/parser"
	"github.com/cozinhalabs/radar/internal/recipe/costing"
	recipedomain "github.com/cozinhalabs/radar/internal/recipe/domain"
	"github.com/cozinhalabs/radar/pkg/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// alertThresholdPct is the absolute price movement, in percent, above which a
// validated price change raises an alert.
var alertThresholdPct = decimal.NewFromInt(10)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	OCR         ocr.Engine
	Ingredients ingredientdomain.Service
	Recipes     recipedomain.Service
	Notifier    notify.Notifier
	Metrics     *telemetry.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        domain.Repository
	genID       *snowflake.Node
	ocr         ocr.Engine
	ingredients ingredientdomain.Service
	recipes     recipedomain.Service
	notifier    notify.Notifier
	metrics     *telemetry.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("receipt.service"),
		repo:        p.Repo,
		genID:       p.GenID,
		ocr:         p.OCR,
		ingredients: p.Ingredients,
		recipes:     p.Recipes,
		notifier:    p.Notifier,
		metrics:     p.Metrics,
	}
}

func (s *Service) Upload(ctx context.Context, req domain.UploadRequest) (*domain.Response, error) {
	if len(req.Image) == 0 {
		return nil, domain.ErrEmptyImage
	}

	requestID := uuid.NewString()
	log := s.log.With(zap.String("request_id", requestID))

	text, err := s.ocr.ExtractText(ctx, req.Image)
	if err != nil {
		s.metrics.ObserveReceipt("ocr_error", 0)
		return nil, err
	}
	if len(strings.TrimSpace(text)) < parser.MinTextLength {
		s.metrics.ObserveReceipt("unreadable", 0)
		log.Warn("ocr output too short to parse", zap.Int("chars", len(text)))
		return nil, domain.ErrUnreadableScan
	}

	result := parser.Parse(text)
	if len(result.Items) == 0 {
		s.metrics.ObserveReceipt("no_items", 0)
		log.Warn("no items recovered from receipt text")
		return nil, domain.ErrNoItemsDetected
	}

	now := time.Now().UTC()
	receipt := &domain.Receipt{
		ID:          s.genID.Generate().Int64(),
		RequestID:   requestID,
		MarketName:  result.MarketName,
		TotalAmount: result.TotalAmount,
		Status:      domain.StatusPendingValidation,
		RawText:     text,
		Metadata: datatypes.JSONMap{
			"filename":   req.Filename,
			"item_count": len(result.Items),
			"ocr_chars":  len(text),
		},
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, s.db, receipt); err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(result.Items))
	for _, parsed := range result.Items {
		item := domain.Item{
			ID:        s.genID.Generate().Int64(),
			ReceiptID: receipt.ID,
			RawName:   parsed.RawName,
			Quantity:  parsed.Quantity,
			Price:     parsed.Price,
			CreatedAt: now,
		}

		matched, err := s.ingredients.Match(ctx, parsed.RawName)
		if err != nil {
			return nil, err
		}
		if matched != nil {
			item.SuggestedIngredientID = &matched.ID
		}
		s.metrics.ObserveItemMatch(matched != nil)

		items = append(items, item)
	}
	if err := s.repo.CreateItems(ctx, s.db, items); err != nil {
		return nil, err
	}

	s.metrics.ObserveReceipt("staged", len(items))
	log.Info("receipt staged for validation",
		zap.Int64("receipt_id", receipt.ID),
		zap.String("market", receipt.MarketName),
		zap.Int("items", len(items)),
	)

	return s.Get(ctx, snowflake.ID(receipt.ID).String())
}

func (s *Service) Validate(ctx context.Context, req domain.ValidateRequest) (*domain.ValidateResponse, error) {
	receipt, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if receipt.Status == domain.StatusVerified {
		return nil, domain.ErrAlreadyValidated
	}
	if len(req.Items) == 0 {
		return nil, domain.ErrNoItemsConfirmed
	}

	details, err := s.repo.FindItemDetails(ctx, s.db, receipt.ID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.ItemDetail, len(details))
	for _, dt := range details {
		byID[dt.ID] = dt
	}

	var updated []int64
	alerts := 0
	for _, confirm := range req.Items {
		itemID, err := snowflake.ParseString(strings.TrimSpace(confirm.ItemID))
		if err != nil {
			s.log.Warn("skipping confirmation with bad item id", zap.String("item_id", confirm.ItemID))
			continue
		}
		ingredientID, err := snowflake.ParseString(strings.TrimSpace(confirm.IngredientID))
		if err != nil {
			s.log.Warn("skipping confirmation with bad ingredient id", zap.String("ingredient_id", confirm.IngredientID))
			continue
		}

		item, ok := byID[itemID.Int64()]
		if !ok {
			// The receipt does not carry this item. Keep going so one stale
			// row never blocks the whole validation.
			s.log.Warn("confirmed item not on receipt",
				zap.Int64("receipt_id", receipt.ID),
				zap.Int64("item_id", itemID.Int64()),
			)
			continue
		}

		if err := s.ingredients.Learn(ctx, item.RawName, ingredientID.Int64()); err != nil {
			return nil, err
		}

		change, err := s.ingredients.UpdatePrice(ctx, ingredientID.Int64(), unitPrice(item))
		if err != nil {
			if err == ingredientdomain.ErrNotFound {
				s.log.Warn("confirmed ingredient no longer exists",
					zap.Int64("ingredient_id", ingredientID.Int64()),
				)
				continue
			}
			return nil, err
		}
		updated = append(updated, ingredientID.Int64())

		if s.alertOnChange(ctx, change) {
			alerts++
		}
	}

	recalculated := 0
	if len(updated) > 0 {
		recalculated, err = s.recipes.RecalculateAffected(ctx, updated, recipedomain.TriggerPriceUpdate)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	receipt.Status = domain.StatusVerified
	receipt.ValidatedAt = &now
	if err := s.repo.Update(ctx, s.db, receipt); err != nil {
		return nil, err
	}

	s.log.Info("receipt validated",
		zap.Int64("receipt_id", receipt.ID),
		zap.Int("updated_ingredients", len(updated)),
		zap.Int("price_alerts", alerts),
		zap.Int("recalculated_recipes", recalculated),
	)

	return &domain.ValidateResponse{
		ReceiptID:           snowflake.ID(receipt.ID).String(),
		UpdatedIngredients:  len(updated),
		PriceAlerts:         alerts,
		RecalculatedRecipes: recalculated,
	}, nil
}

// alertOnChange raises a price alert when the confirmed price moved past the
// threshold. Alert delivery is best effort.
func (s *Service) alertOnChange(ctx context.Context, change *ingredientdomain.PriceChange) bool {
	if !change.OldPrice.IsPositive() {
		return false
	}
	pct := costing.ChangePercentage(change.OldPrice, change.NewPrice)
	if pct.Abs().LessThan(alertThresholdPct) {
		return false
	}

	s.metrics.ObservePriceAlert()
	err := s.notifier.SendPriceAlert(ctx, notify.PriceAlert{
		IngredientName: change.Name,
		OldPrice:       change.OldPrice,
		NewPrice:       change.NewPrice,
		ChangePercent:  pct,
	})
	s.metrics.ObserveNotification("price_alert", err)
	if err != nil {
		s.log.Warn("price alert delivery failed",
			zap.Int64("ingredient_id", change.IngredientID),
			zap.Error(err),
		)
	}
	return true
}

// unitPrice normalizes a line's total price to the ingredient's purchase unit.
func unitPrice(item domain.ItemDetail) decimal.Decimal {
	if item.Quantity.IsPositive() {
		return item.Price.DivRound(item.Quantity, 2)
	}
	return item.Price
}

func (s *Service) ListPending(ctx context.Context) ([]domain.Response, error) {
	receipts, err := s.repo.ListByStatus(ctx, s.db, domain.StatusPendingValidation)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(receipts))
	for i := range receipts {
		details, err := s.repo.FindItemDetails(ctx, s.db, receipts[i].ID)
		if err != nil {
			return nil, err
		}
		resp = append(resp, toResponse(&receipts[i], details))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	receipt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	details, err := s.repo.FindItemDetails(ctx, s.db, receipt.ID)
	if err != nil {
		return nil, err
	}

	resp := toResponse(receipt, details)
	return &resp, nil
}

func (s *Service) Reject(ctx context.Context, id string) error {
	receipt, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if receipt.Status == domain.StatusVerified {
		return domain.ErrAlreadyValidated
	}

	receipt.Status = domain.StatusRejected
	return s.repo.Update(ctx, s.db, receipt)
}

func (s *Service) load(ctx context.Context, id string) (*domain.Receipt, error) {
	receiptID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	receipt, err := s.repo.FindByID(ctx, s.db, receiptID.Int64())
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, domain.ErrNotFound
	}
	return receipt, nil
}

func toResponse(receipt *domain.Receipt, details []domain.ItemDetail) domain.Response {
	resp := domain.Response{
		ID:          snowflake.ID(receipt.ID).String(),
		RequestID:   receipt.RequestID,
		MarketName:  receipt.MarketName,
		TotalAmount: receipt.TotalAmount,
		Status:      receipt.Status,
		CreatedAt:   receipt.CreatedAt,
		ValidatedAt: receipt.ValidatedAt,
	}
	for _, dt := range details {
		item := domain.ItemResponse{
			ID:            snowflake.ID(dt.ID).String(),
			RawName:       dt.RawName,
			Quantity:      dt.Quantity,
			Price:         dt.Price,
			SuggestedName: dt.SuggestedName,
		}
		if dt.SuggestedIngredientID != nil {
			suggested := snowflake.ID(*dt.SuggestedIngredientID).String()
			item.SuggestedIngredientID = &suggested
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}
