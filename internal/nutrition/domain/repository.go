package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, ref *Ref) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Ref, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) (map[int64]Ref, error)
	List(ctx context.Context, db *gorm.DB, search string) ([]Ref, error)
	Update(ctx context.Context, db *gorm.DB, ref *Ref) error
}
