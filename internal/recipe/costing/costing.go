package costing

import "github.com/shopspring/decimal"

// Line is one recipe line priced for costing. Quantity is expressed in the
// ingredient's purchase unit (kg for weighed goods). Packaging lines contribute
// to cost but never to batch weight.
type Line struct {
	IngredientID     int64
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	YieldCoefficient decimal.Decimal
	IsPackaging      bool
}

// Totals is the full cost breakdown of a recipe batch.
type Totals struct {
	IngredientsCost decimal.Decimal
	PackagingCost   decimal.Decimal
	LaborCost       decimal.Decimal
	CurrentCost     decimal.Decimal
	TotalWeightKg   decimal.Decimal
	CMVPerUnit      decimal.Decimal
	CMVPerKg        decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// ComputeRecipeTotals prices a batch from its lines. The effective unit price
// divides the purchase price by the yield coefficient, so losses to cleaning
// and trimming surface in the cost. A yield coefficient of zero or less is
// treated as 1 rather than poisoning the batch with a division by zero.
func ComputeRecipeTotals(yieldUnits int64, lines []Line, laborCost decimal.Decimal) Totals {
	totals := Totals{LaborCost: laborCost}

	for _, line := range lines {
		coefficient := line.YieldCoefficient
		if !coefficient.IsPositive() {
			coefficient = decimal.NewFromInt(1)
		}
		lineCost := line.Quantity.Mul(line.UnitPrice.Div(coefficient))

		if line.IsPackaging {
			totals.PackagingCost = totals.PackagingCost.Add(lineCost)
			continue
		}
		totals.IngredientsCost = totals.IngredientsCost.Add(lineCost)
		totals.TotalWeightKg = totals.TotalWeightKg.Add(line.Quantity)
	}

	totals.IngredientsCost = totals.IngredientsCost.Round(2)
	totals.PackagingCost = totals.PackagingCost.Round(2)
	totals.CurrentCost = totals.IngredientsCost.
		Add(totals.PackagingCost).
		Add(totals.LaborCost).
		Round(2)

	if yieldUnits > 0 {
		totals.CMVPerUnit = totals.CurrentCost.DivRound(decimal.NewFromInt(yieldUnits), 4)
	}
	if totals.TotalWeightKg.IsPositive() {
		totals.CMVPerKg = totals.CurrentCost.DivRound(totals.TotalWeightKg, 4)
	}

	return totals
}

// ChangePercentage returns how far newValue moved from oldValue, in percent,
// rounded to two decimal places. A zero old value yields zero so that first
// prices never read as an infinite spike.
func ChangePercentage(oldValue, newValue decimal.Decimal) decimal.Decimal {
	if oldValue.IsZero() {
		return decimal.Zero
	}
	return newValue.Sub(oldValue).Div(oldValue).Mul(oneHundred).Round(2)
}
