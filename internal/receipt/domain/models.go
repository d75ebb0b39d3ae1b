package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	StatusPendingValidation = "pending_validation"
	StatusVerified          = "verified"
	StatusRejected          = "rejected"
)

// Receipt is one uploaded supermarket receipt. It stays pending until a person
// confirms the item to ingredient associations.
type Receipt struct {
	ID          int64               `json:"id" gorm:"primaryKey"`
	RequestID   string              `json:"request_id" gorm:"type:text;not null;uniqueIndex:ux_receipts_request_id"`
	MarketName  string              `json:"market_name" gorm:"type:text;not null;default:''"`
	TotalAmount decimal.NullDecimal `json:"total_amount" gorm:"type:decimal(12,2)"`
	Status      string              `json:"status" gorm:"type:text;not null;default:pending_validation;index:ix_receipts_status"`
	RawText     string              `json:"-" gorm:"type:text;not null;default:''"`
	Metadata    datatypes.JSONMap   `json:"metadata,omitempty"`
	CreatedAt   time.Time           `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	ValidatedAt *time.Time          `json:"validated_at,omitempty"`
}

func (Receipt) TableName() string { return "receipts" }

// Item is one extracted receipt line. The suggested ingredient comes from the
// learned product map and is only a hint until validation confirms it.
type Item struct {
	ID                    int64           `json:"id" gorm:"primaryKey"`
	ReceiptID             int64           `json:"receipt_id" gorm:"not null;index:ix_receipt_items_receipt"`
	RawName               string          `json:"raw_name" gorm:"type:text;not null"`
	Quantity              decimal.Decimal `json:"quantity" gorm:"type:decimal(10,3);not null;default:1"`
	Price                 decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
	SuggestedIngredientID *int64          `json:"suggested_ingredient_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Item) TableName() string { return "receipt_items" }

// ItemDetail is an item joined with its suggested ingredient's name.
type ItemDetail struct {
	ID                    int64           `gorm:"column:id"`
	ReceiptID             int64           `gorm:"column:receipt_id"`
	RawName               string          `gorm:"column:raw_name"`
	Quantity              decimal.Decimal `gorm:"column:quantity"`
	Price                 decimal.Decimal `gorm:"column:price"`
	SuggestedIngredientID *int64          `gorm:"column:suggested_ingredient_id"`
	SuggestedName         *string         `gorm:"column:suggested_name"`
}
