package recipe

import (
	"github.com/cozinhalabs/radar/internal/recipe/repository"
	"github.com/cozinhalabs/radar/internal/recipe/service"
	"go.uber.org/fx"
)

var Module = fx.Module("recipe.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
