package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	ingredientdomain "github.com/cozinhalabs/radar/internal/ingredient/domain"
)

// defaultCategories covers the sections of a typical Brazilian grocery receipt
// plus the internal ones the cost engine relies on.
var defaultCategories = []string{
	"MERCADO",
	"HORTIFRUTI",
	"ACOUGUE",
	"LATICINIOS",
	"LIMPEZA",
	ingredientdomain.CategoryEmbalagem,
	ingredientdomain.CategoryPrePreparo,
	"OUTROS",
}

// EnsureDefaultCategories seeds the ingredient category list so a fresh
// install can classify ingredients without manual setup. Existing rows are
// left untouched.
func EnsureDefaultCategories(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range defaultCategories {
			var existing ingredientdomain.Category
			err := tx.WithContext(ctx).
				Where("name = ?", name).
				First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			category := ingredientdomain.Category{
				ID:        node.Generate().Int64(),
				Name:      name,
				CreatedAt: time.Now().UTC(),
			}
			if err := tx.WithContext(ctx).Create(&category).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
