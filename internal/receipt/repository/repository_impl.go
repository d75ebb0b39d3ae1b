package repository

import (
	"context"

	"github.com/cozinhalabs/radar/internal/receipt/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, receipt *domain.Receipt) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO receipts (id, request_id, market_name, total_amount, status, raw_text, metadata, created_at, validated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		receipt.ID,
		receipt.RequestID,
		receipt.MarketName,
		receipt.TotalAmount,
		receipt.Status,
		receipt.RawText,
		receipt.Metadata,
		receipt.CreatedAt,
		receipt.ValidatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Receipt, error) {
	var receipt domain.Receipt
	err := db.WithContext(ctx).
		Model(&domain.Receipt{}).
		Where("id = ?", id).
		Scan(&receipt).Error
	if err != nil {
		return nil, err
	}
	if receipt.ID == 0 {
		return nil, nil
	}
	return &receipt, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, receipt *domain.Receipt) error {
	if receipt == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE receipts SET market_name = ?, total_amount = ?, status = ?, metadata = ?, validated_at = ?
		 WHERE id = ?`,
		receipt.MarketName,
		receipt.TotalAmount,
		receipt.Status,
		receipt.Metadata,
		receipt.ValidatedAt,
		receipt.ID,
	).Error
}

func (r *repo) ListByStatus(ctx context.Context, db *gorm.DB, status string) ([]domain.Receipt, error) {
	var receipts []domain.Receipt
	err := db.WithContext(ctx).
		Model(&domain.Receipt{}).
		Where("status = ?", status).
		Order("created_at DESC, id DESC").
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *repo) CreateItems(ctx context.Context, db *gorm.DB, items []domain.Item) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range items {
			item := items[i]
			err := tx.Exec(
				`INSERT INTO receipt_items (id, receipt_id, raw_name, quantity, price, suggested_ingredient_id, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				item.ID,
				item.ReceiptID,
				item.RawName,
				item.Quantity,
				item.Price,
				item.SuggestedIngredientID,
				item.CreatedAt,
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) FindItemDetails(ctx context.Context, db *gorm.DB, receiptID int64) ([]domain.ItemDetail, error) {
	var details []domain.ItemDetail
	err := db.WithContext(ctx).Raw(
		`SELECT t.id, t.receipt_id, t.raw_name, t.quantity, t.price, t.suggested_ingredient_id,
		        i.name AS suggested_name
		 FROM receipt_items t
		 LEFT JOIN ingredients i ON i.id = t.suggested_ingredient_id
		 WHERE t.receipt_id = ?
		 ORDER BY t.id ASC`,
		receiptID,
	).Scan(&details).Error
	if err != nil {
		return nil, err
	}
	return details, nil
}
