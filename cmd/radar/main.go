package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/cozinhalabs/radar/internal/config"
	"github.com/cozinhalabs/radar/internal/ingredient"
	"github.com/cozinhalabs/radar/internal/migration"
	"github.com/cozinhalabs/radar/internal/nutrition"
	"github.com/cozinhalabs/radar/internal/providers"
	"github.com/cozinhalabs/radar/internal/ratelimit"
	"github.com/cozinhalabs/radar/internal/recalc"
	"github.com/cozinhalabs/radar/internal/receipt"
	"github.com/cozinhalabs/radar/internal/recipe"
	"github.com/cozinhalabs/radar/internal/server"
	"github.com/cozinhalabs/radar/pkg/db"
	"github.com/cozinhalabs/radar/pkg/log"
	"github.com/cozinhalabs/radar/pkg/telemetry"
)

func main() {
	app := fx.New(
		// Core infrastructure
		fx.Provide(config.Load),
		fx.Provide(config.LoadDailyValues),
		fx.Provide(newSnowflakeNode),
		log.Module,
		telemetry.Module,
		db.Module,
		migration.Module,
		recalc.Module,
		ratelimit.Module,
		providers.Module,

		// Functional domains
		ingredient.Module,
		nutrition.Module,
		recipe.Module,
		receipt.Module,

		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
