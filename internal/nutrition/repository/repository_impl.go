package repository

import (
	"context"
	"strings"

	"github.com/cozinhalabs/radar/internal/nutrition/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const refColumns = `id, code, name, base_qty_g, energy_kcal, energy_kj, protein_g, carb_g, lipid_g,
	 saturated_fat_g, trans_fat_g, fiber_g, sodium_mg, created_at, updated_at`

func (r *repo) Create(ctx context.Context, db *gorm.DB, ref *domain.Ref) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO nutrition_refs (`+refColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ref.ID,
		ref.Code,
		ref.Name,
		ref.BaseQtyG,
		ref.EnergyKcal,
		ref.EnergyKJ,
		ref.ProteinG,
		ref.CarbG,
		ref.LipidG,
		ref.SaturatedFatG,
		ref.TransFatG,
		ref.FiberG,
		ref.SodiumMG,
		ref.CreatedAt,
		ref.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Ref, error) {
	var ref domain.Ref
	err := db.WithContext(ctx).Raw(
		`SELECT `+refColumns+` FROM nutrition_refs WHERE id = ?`,
		id,
	).Scan(&ref).Error
	if err != nil {
		return nil, err
	}
	if ref.ID == 0 {
		return nil, nil
	}
	return &ref, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) (map[int64]domain.Ref, error) {
	result := make(map[int64]domain.Ref, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var refs []domain.Ref
	err := db.WithContext(ctx).
		Model(&domain.Ref{}).
		Where("id IN ?", ids).
		Find(&refs).Error
	if err != nil {
		return nil, err
	}

	for _, ref := range refs {
		result[ref.ID] = ref
	}
	return result, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, search string) ([]domain.Ref, error) {
	var refs []domain.Ref
	stmt := db.WithContext(ctx).Model(&domain.Ref{})
	if search != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if err := stmt.Order("name ASC").Find(&refs).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, ref *domain.Ref) error {
	if ref == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE nutrition_refs
		 SET name = ?, base_qty_g = ?, energy_kcal = ?, energy_kj = ?, protein_g = ?, carb_g = ?,
		     lipid_g = ?, saturated_fat_g = ?, trans_fat_g = ?, fiber_g = ?, sodium_mg = ?, updated_at = ?
		 WHERE id = ?`,
		ref.Name,
		ref.BaseQtyG,
		ref.EnergyKcal,
		ref.EnergyKJ,
		ref.ProteinG,
		ref.CarbG,
		ref.LipidG,
		ref.SaturatedFatG,
		ref.TransFatG,
		ref.FiberG,
		ref.SodiumMG,
		ref.UpdatedAt,
		ref.ID,
	).Error
}
