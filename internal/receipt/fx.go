package receipt

import (
	"github.com/cozinhalabs/radar/internal/receipt/repository"
	"github.com/cozinhalabs/radar/internal/receipt/service"
	"go.uber.org/fx"
)

var Module = fx.Module("receipt.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
