package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, receipt *Receipt) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Receipt, error)
	Update(ctx context.Context, db *gorm.DB, receipt *Receipt) error

	// ListByStatus returns receipts in the given status, newest first.
	ListByStatus(ctx context.Context, db *gorm.DB, status string) ([]Receipt, error)

	CreateItems(ctx context.Context, db *gorm.DB, items []Item) error
	FindItemDetails(ctx context.Context, db *gorm.DB, receiptID int64) ([]ItemDetail, error)
}
