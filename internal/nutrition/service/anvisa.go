package service

import (
	"context"
	"io"
	"strings"

	"github.com/cozinhalabs/radar/internal/nutrition/domain"
	"github.com/cozinhalabs/radar/internal/providers/pdf"
	"github.com/shopspring/decimal"
)

// Label computes the per-portion panel at the requested portion size. The
// batch totals are accumulated at actual line quantities and then scaled by
// portion_g / total_weight_g.
func (s *Service) Label(ctx context.Context, req domain.LabelRequest) (*domain.Label, error) {
	if !req.PortionG.IsPositive() {
		return nil, domain.ErrInvalidPortion
	}
	if !req.TotalWeightKg.IsPositive() {
		return nil, domain.ErrInsufficientData
	}

	batch, hasData, err := s.accumulate(ctx, req.Lines)
	if err != nil {
		return nil, err
	}
	if !hasData {
		return nil, domain.ErrInsufficientData
	}

	totalWeightG := req.TotalWeightKg.Mul(grams)
	portion := batch.scale(req.PortionG.Div(totalWeightG), 1)

	label := &domain.Label{
		RecipeName: strings.TrimSpace(req.RecipeName),
		PortionG:   req.PortionG.Round(0).StringFixed(0) + " g",
		Rows: []domain.LabelRow{
			{
				Nutrient:  "Valor energético",
				Amount:    portion.EnergyKcal.StringFixed(1) + " kcal = " + portion.EnergyKJ.StringFixed(1) + " kJ",
				PercentDV: percentDV(portion.EnergyKcal, s.dailyValues.EnergyKcal),
			},
			{
				Nutrient:  "Carboidratos",
				Amount:    portion.CarbG.StringFixed(1) + " g",
				PercentDV: percentDV(portion.CarbG, s.dailyValues.CarbG),
			},
			{
				Nutrient:  "Proteínas",
				Amount:    portion.ProteinG.StringFixed(1) + " g",
				PercentDV: percentDV(portion.ProteinG, s.dailyValues.ProteinG),
			},
			{
				Nutrient:  "Gorduras totais",
				Amount:    portion.LipidG.StringFixed(1) + " g",
				PercentDV: percentDV(portion.LipidG, s.dailyValues.LipidG),
			},
			{
				Nutrient:  "Gorduras saturadas",
				Amount:    portion.SaturatedFatG.StringFixed(1) + " g",
				PercentDV: percentDV(portion.SaturatedFatG, s.dailyValues.SaturatedFatG),
			},
			{
				// RDC 360/2003 defines no daily value for trans fat.
				Nutrient: "Gorduras trans",
				Amount:   portion.TransFatG.StringFixed(1) + " g",
			},
			{
				Nutrient:  "Fibra alimentar",
				Amount:    portion.FiberG.StringFixed(1) + " g",
				PercentDV: percentDV(portion.FiberG, s.dailyValues.FiberG),
			},
			{
				Nutrient:  "Sódio",
				Amount:    portion.SodiumMG.StringFixed(1) + " mg",
				PercentDV: percentDV(portion.SodiumMG, s.dailyValues.SodiumMG),
			},
		},
	}
	return label, nil
}

func (s *Service) RenderLabelPDF(ctx context.Context, req domain.LabelRequest) (io.Reader, error) {
	label, err := s.Label(ctx, req)
	if err != nil {
		return nil, err
	}

	data := pdf.LabelData{
		RecipeName: label.RecipeName,
		PortionG:   label.PortionG,
	}
	for _, row := range label.Rows {
		data.Rows = append(data.Rows, pdf.LabelRow{
			Nutrient:  row.Nutrient,
			Amount:    row.Amount,
			PercentDV: row.PercentDV,
		})
	}
	return s.renderer.RenderLabel(ctx, data)
}

func percentDV(value, daily decimal.Decimal) string {
	if !daily.IsPositive() {
		return ""
	}
	return value.Div(daily).Mul(oneHundred).Round(0).StringFixed(0) + "%"
}
