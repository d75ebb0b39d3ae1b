package providers

import (
	"context"

	"github.com/cozinhalabs/radar/internal/config"
	"github.com/cozinhalabs/radar/internal/providers/notify"
	"github.com/cozinhalabs/radar/internal/providers/ocr"
	"github.com/cozinhalabs/radar/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers",
	fx.Provide(NewOCREngine),
	fx.Provide(NewNotifier),
	fx.Provide(pdf.NewLabelRenderer),
)

// NewOCREngine selects the OCR backend from configuration.
func NewOCREngine(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (ocr.Engine, error) {
	if cfg.OCRProvider == "static" {
		log.Info("using static OCR engine")
		return ocr.NewStatic(), nil
	}

	engine, err := ocr.NewVision(context.Background())
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return engine.Close()
		},
	})

	log.Info("using google vision OCR engine")
	return engine, nil
}

// NewNotifier selects the notification backend. Without a webhook URL alerts
// are dropped silently.
func NewNotifier(cfg config.Config, log *zap.Logger) notify.Notifier {
	if cfg.DiscordWebhookURL == "" {
		log.Info("discord webhook not configured, notifications disabled")
		return notify.NoOpNotifier{}
	}
	return notify.NewDiscord(cfg.DiscordWebhookURL)
}
