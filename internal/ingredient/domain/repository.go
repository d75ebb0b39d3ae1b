package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, ingredient *Ingredient) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Ingredient, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Ingredient, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Ingredient, error)
	Update(ctx context.Context, db *gorm.DB, ingredient *Ingredient) error
	FindIncomplete(ctx context.Context, db *gorm.DB) ([]Ingredient, error)

	FindMapping(ctx context.Context, db *gorm.DB, rawNamePrefix string) (*ProductMap, error)
	UpsertMapping(ctx context.Context, db *gorm.DB, mapping *ProductMap) error

	ListCategories(ctx context.Context, db *gorm.DB, search string) ([]Category, error)
	CreateCategory(ctx context.Context, db *gorm.DB, category *Category) error
}
