package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	webhookTimeout = 10 * time.Second

	colorRed    = 15158332
	colorGreen  = 3066993
	colorPurple = 5793266
)

// DiscordProvider posts alerts to a Discord webhook as rich embeds.
type DiscordProvider struct {
	webhookURL string
	client     *http.Client
}

func NewDiscord(webhookURL string) *DiscordProvider {
	return &DiscordProvider{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: webhookTimeout},
	}
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func (p *DiscordProvider) SendPriceAlert(ctx context.Context, alert PriceAlert) error {
	title := "✅ Alerta de Preço: " + alert.IngredientName
	color := colorGreen
	if alert.ChangePercent.IsPositive() {
		title = "🚨 Alerta de Preço: " + alert.IngredientName
		color = colorRed
	}

	payload := webhookPayload{Embeds: []embed{{
		Title:       title,
		Description: fmt.Sprintf("O preço mudou **%s%%**", alert.ChangePercent.Abs().StringFixed(1)),
		Color:       color,
		Fields: []embedField{
			{Name: "Preço Anterior", Value: "R$ " + alert.OldPrice.StringFixed(2), Inline: true},
			{Name: "Novo Preço", Value: "R$ " + alert.NewPrice.StringFixed(2), Inline: true},
			{Name: "Variação", Value: signedPercent(alert.ChangePercent), Inline: true},
		},
	}}}

	return p.post(ctx, payload)
}

func (p *DiscordProvider) SendCMVUpdate(ctx context.Context, update CMVUpdate) error {
	changePercent := decimal.Zero
	if update.OldCMVPerUnit.IsPositive() {
		changePercent = update.NewCMVPerUnit.Sub(update.OldCMVPerUnit).
			Div(update.OldCMVPerUnit).Mul(decimal.NewFromInt(100))
	}

	ingredients := update.AffectedIngredients
	ingredientsText := strings.Join(truncateList(ingredients, 3), ", ")
	if len(ingredients) > 3 {
		ingredientsText += fmt.Sprintf(" +%d outros", len(ingredients)-3)
	}

	payload := webhookPayload{Embeds: []embed{{
		Title:       "📊 CMV Atualizado: " + update.RecipeName,
		Description: "Ingredientes afetados: " + ingredientsText,
		Color:       colorPurple,
		Fields: []embedField{
			{Name: "CMV Anterior", Value: "R$ " + update.OldCMVPerUnit.StringFixed(2) + "/un", Inline: true},
			{Name: "Novo CMV", Value: "R$ " + update.NewCMVPerUnit.StringFixed(2) + "/un", Inline: true},
			{Name: "Mudança", Value: signedPercent(changePercent), Inline: true},
		},
	}}}

	return p.post(ctx, payload)
}

func (p *DiscordProvider) post(ctx context.Context, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("discord webhook returned %d", resp.StatusCode)
	}
	return nil
}

func signedPercent(value decimal.Decimal) string {
	text := value.StringFixed(1) + "%"
	if value.IsPositive() {
		text = "+" + text
	}
	return text
}

func truncateList(values []string, max int) []string {
	if len(values) <= max {
		return values
	}
	return values[:max]
}
