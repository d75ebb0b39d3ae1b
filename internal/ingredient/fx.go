package ingredient

import (
	"github.com/cozinhalabs/radar/internal/ingredient/repository"
	"github.com/cozinhalabs/radar/internal/ingredient/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ingredient.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
