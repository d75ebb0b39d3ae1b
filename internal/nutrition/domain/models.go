package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ref is a per-100g nutrition vector. Raw ingredients get their references
// supplied externally; derived ingredients get theirs materialized from the
// recipe that produces them.
type Ref struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	Code          string          `json:"code" gorm:"type:text;not null;uniqueIndex:ux_nutrition_refs_code"`
	Name          string          `json:"name" gorm:"type:text;not null"`
	BaseQtyG      decimal.Decimal `json:"base_qty_g" gorm:"type:decimal(10,2);not null;default:100"`
	EnergyKcal    decimal.Decimal `json:"energy_kcal" gorm:"type:decimal(10,2);not null;default:0"`
	EnergyKJ      decimal.Decimal `json:"energy_kj" gorm:"type:decimal(10,2);not null;default:0"`
	ProteinG      decimal.Decimal `json:"protein_g" gorm:"type:decimal(10,2);not null;default:0"`
	CarbG         decimal.Decimal `json:"carb_g" gorm:"type:decimal(10,2);not null;default:0"`
	LipidG        decimal.Decimal `json:"lipid_g" gorm:"type:decimal(10,2);not null;default:0"`
	SaturatedFatG decimal.Decimal `json:"saturated_fat_g" gorm:"type:decimal(10,2);not null;default:0"`
	TransFatG     decimal.Decimal `json:"trans_fat_g" gorm:"type:decimal(10,2);not null;default:0"`
	FiberG        decimal.Decimal `json:"fiber_g" gorm:"type:decimal(10,2);not null;default:0"`
	SodiumMG      decimal.Decimal `json:"sodium_mg" gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Ref) TableName() string { return "nutrition_refs" }
