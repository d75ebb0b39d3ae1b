package migration

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/cozinhalabs/radar/internal/config"
	ingredientdomain "github.com/cozinhalabs/radar/internal/ingredient/domain"
	nutritiondomain "github.com/cozinhalabs/radar/internal/nutrition/domain"
	receiptdomain "github.com/cozinhalabs/radar/internal/receipt/domain"
	recipedomain "github.com/cozinhalabs/radar/internal/recipe/domain"
	"github.com/cozinhalabs/radar/internal/seed"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node) error {
		if cfg.DBType != "postgres" {
			// SQLite and MySQL are development conveniences; the versioned
			// migration set targets PostgreSQL.
			if err := conn.AutoMigrate(
				&ingredientdomain.Ingredient{},
				&ingredientdomain.Category{},
				&ingredientdomain.ProductMap{},
				&nutritiondomain.Ref{},
				&recipedomain.Recipe{},
				&recipedomain.Line{},
				&recipedomain.CostSnapshot{},
				&receiptdomain.Receipt{},
				&receiptdomain.Item{},
			); err != nil {
				return err
			}
			return seed.EnsureDefaultCategories(conn, node)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
		return seed.EnsureDefaultCategories(conn, node)
	}),
)
