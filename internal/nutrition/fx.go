package nutrition

import (
	"github.com/cozinhalabs/radar/internal/nutrition/repository"
	"github.com/cozinhalabs/radar/internal/nutrition/service"
	"go.uber.org/fx"
)

var Module = fx.Module("nutrition.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
