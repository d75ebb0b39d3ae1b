package repository

import (
	"context"
	"strings"

	"github.com/cozinhalabs/radar/internal/ingredient/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, ingredient *domain.Ingredient) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO ingredients (id, name, category, current_price, yield_coefficient, unit, nutrition_ref_id, last_updated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ingredient.ID,
		ingredient.Name,
		ingredient.Category,
		ingredient.CurrentPrice,
		ingredient.YieldCoefficient,
		ingredient.Unit,
		ingredient.NutritionRefID,
		ingredient.LastUpdated,
		ingredient.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Ingredient, error) {
	var i domain.Ingredient
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, category, current_price, yield_coefficient, unit, nutrition_ref_id, last_updated, created_at
		 FROM ingredients WHERE id = ?`,
		id,
	).Scan(&i).Error
	if err != nil {
		return nil, err
	}
	if i.ID == 0 {
		return nil, nil
	}
	return &i, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.Ingredient, error) {
	var i domain.Ingredient
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, category, current_price, yield_coefficient, unit, nutrition_ref_id, last_updated, created_at
		 FROM ingredients WHERE LOWER(name) = LOWER(?)`,
		name,
	).Scan(&i).Error
	if err != nil {
		return nil, err
	}
	if i.ID == 0 {
		return nil, nil
	}
	return &i, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Ingredient, error) {
	var items []domain.Ingredient
	stmt := db.WithContext(ctx).Model(&domain.Ingredient{})

	if filter.Search != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Category != "" {
		stmt = stmt.Where("category = ?", filter.Category)
	}

	if err := stmt.Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, ingredient *domain.Ingredient) error {
	if ingredient == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE ingredients
		 SET name = ?, category = ?, current_price = ?, yield_coefficient = ?, unit = ?, nutrition_ref_id = ?, last_updated = ?
		 WHERE id = ?`,
		ingredient.Name,
		ingredient.Category,
		ingredient.CurrentPrice,
		ingredient.YieldCoefficient,
		ingredient.Unit,
		ingredient.NutritionRefID,
		ingredient.LastUpdated,
		ingredient.ID,
	).Error
}

func (r *repo) FindIncomplete(ctx context.Context, db *gorm.DB) ([]domain.Ingredient, error) {
	var items []domain.Ingredient
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, category, current_price, yield_coefficient, unit, nutrition_ref_id, last_updated, created_at
		 FROM ingredients
		 WHERE category IS NULL OR category = '' OR unit IS NULL OR unit = ''
		 ORDER BY name ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindMapping returns the learned mapping whose raw name contains the prefix,
// case-insensitively. Oldest mapping wins so suggestions stay stable.
func (r *repo) FindMapping(ctx context.Context, db *gorm.DB, rawNamePrefix string) (*domain.ProductMap, error) {
	var m domain.ProductMap
	err := db.WithContext(ctx).Raw(
		`SELECT id, raw_name, ingredient_id, confidence, created_at
		 FROM product_map
		 WHERE LOWER(raw_name) LIKE ?
		 ORDER BY created_at ASC
		 LIMIT 1`,
		"%"+strings.ToLower(rawNamePrefix)+"%",
	).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *repo) UpsertMapping(ctx context.Context, db *gorm.DB, mapping *domain.ProductMap) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO product_map (id, raw_name, ingredient_id, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (raw_name, ingredient_id) DO UPDATE SET confidence = excluded.confidence`,
		mapping.ID,
		mapping.RawName,
		mapping.IngredientID,
		mapping.Confidence,
		mapping.CreatedAt,
	).Error
}

func (r *repo) ListCategories(ctx context.Context, db *gorm.DB, search string) ([]domain.Category, error) {
	var items []domain.Category
	stmt := db.WithContext(ctx).Model(&domain.Category{})
	if search != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if err := stmt.Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CreateCategory(ctx context.Context, db *gorm.DB, category *domain.Category) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO ingredient_categories (id, name, created_at) VALUES (?, ?, ?)`,
		category.ID,
		category.Name,
		category.CreatedAt,
	).Error
}
