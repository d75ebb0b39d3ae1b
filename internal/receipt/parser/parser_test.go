package parser

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReceipt = `
SENORS DISTRIBUIDORA S/A
Av Presidente Kennedy, 1000
Água Verde - Curitiba - PR

DOCUMENTO AUXILIAR
DA NOTA FISCAL DE CONSUMIDOR ELETRONICA

001 2275 MUSS LACTOPAR Kg
    4.086 Kg x 26,90 109,91

002 7793440702964 VHO BENJ 750ML CAB
    1.000 Gf x 29,90 29,90

003 7896982100059 OVO BCO GRANDE C/30
    1.000 Un x 15,79 15779

QTD. TOTAL DE ITENS 3
VALOR TOTAL R$ 155,60
FORMA DE PAGAMENTO VALOR PAGO
Cart Credito 155,60
`

func TestParse_SampleReceipt(t *testing.T) {
	result := Parse(sampleReceipt)

	assert.Equal(t, "SENORS DISTRIBUIDORA S/A", result.MarketName)

	require.True(t, result.TotalAmount.Valid)
	assert.True(t, result.TotalAmount.Decimal.Equal(decimal.RequireFromString("155.60")),
		"total = %s", result.TotalAmount.Decimal)

	require.Len(t, result.Items, 3)

	assert.Equal(t, "MUSS LACTOPAR Kg", result.Items[0].RawName)
	assert.True(t, result.Items[0].Quantity.Equal(decimal.RequireFromString("4.086")))
	assert.True(t, result.Items[0].Price.Equal(decimal.RequireFromString("109.91")))

	assert.Equal(t, "VHO BENJ 750ML CAB", result.Items[1].RawName)
	assert.True(t, result.Items[1].Price.Equal(decimal.RequireFromString("29.90")))

	// "15779" is the OCR reading of "15,79" with the decimal point dropped.
	assert.Equal(t, "OVO BCO GRANDE C/30", result.Items[2].RawName)
	assert.True(t, result.Items[2].Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, result.Items[2].Price.Equal(decimal.RequireFromString("157.79")),
		"price = %s", result.Items[2].Price)
}

func TestParse_SingleLineFallback(t *testing.T) {
	result := Parse("LEITE INTEGRAL 1L    5.99\nTOTAL: R$ 5.99")

	require.True(t, result.TotalAmount.Valid)
	assert.True(t, result.TotalAmount.Decimal.Equal(decimal.RequireFromString("5.99")))

	require.Len(t, result.Items, 1)
	assert.Contains(t, result.Items[0].RawName, "LEITE")
	assert.True(t, result.Items[0].Price.Equal(decimal.RequireFromString("5.99")))
	assert.True(t, result.Items[0].Quantity.Equal(decimal.NewFromInt(1)))
}

func TestParse_SingleLineGuards(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"price below range", "BALA AVULSA 0.25"},
		{"price above range", "GERADOR INDUSTRIAL 9999.00"},
		{"digits in name tail", "FONE 3342-1187 102.00"},
		{"name too short", "AB 12.50"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Parse(tc.line + "\npadding line so text is long enough")
			assert.Empty(t, result.Items)
		})
	}
}

func TestParse_StopKeywordsSkipLines(t *testing.T) {
	text := `MERCADINHO DO BAIRRO
TROCO 10,00
DINHEIRO 50,00
CPF 123.456.789-00
PAO FRANCES 8,40
`
	result := Parse(text)

	require.Len(t, result.Items, 1)
	assert.Equal(t, "PAO FRANCES", result.Items[0].RawName)
	assert.True(t, result.Items[0].Price.Equal(decimal.RequireFromString("8.40")))
}

func TestParse_TwoLineConsumesQuantityLine(t *testing.T) {
	text := `EMPORIO CENTRAL
001 QUEIJO MINAS Kg
2,000 Kg x 39,90 79,80
`
	result := Parse(text)

	// The quantity line must not also register as a single-line item.
	require.Len(t, result.Items, 1)
	assert.Equal(t, "QUEIJO MINAS Kg", result.Items[0].RawName)
	assert.True(t, result.Items[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, result.Items[0].Price.Equal(decimal.RequireFromString("79.80")))
}

func TestParse_MarketName(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"first line wins", "SUPERMERCADO EXEMPLO LTDA\nRUA TESTE, 123", "SUPERMERCADO EXEMPLO LTDA"},
		{"numeric first line skipped", "123.456\nMERCADO BOM PRECO", "MERCADO BOM PRECO"},
		{"short line skipped", "AB\nQUITANDA DA PRACA", "QUITANDA DA PRACA"},
		{"nothing usable", "12\n34.5\n..", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractMarketName(tc.text))
		})
	}
}

func TestExtractTotalAmount(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		valid bool
	}{
		{"plain total", "TOTAL 54,29", "54.29", true},
		{"valor total with currency", "VALOR TOTAL R$ 202,97", "202.97", true},
		{"thousands separator", "TOTAL: R$ 1.234,56", "1234.56", true},
		{"dot as decimal", "TOTAL: R$ 54.29", "54.29", true},
		{"no total", "nada por aqui", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := extractTotalAmount(tc.text)
			assert.Equal(t, tc.valid, got.Valid)
			if tc.valid {
				assert.True(t, got.Decimal.Equal(decimal.RequireFromString(tc.want)),
					"total = %s", got.Decimal)
			}
		})
	}
}

func TestRepairDroppedDecimal(t *testing.T) {
	assert.Equal(t, "157.79", repairDroppedDecimal("15779"))
	assert.Equal(t, "15.79", repairDroppedDecimal("15.79"))
	// Three digits or fewer stay untouched: "790" is more likely a real price
	// fragment than a mangled decimal.
	assert.Equal(t, "790", repairDroppedDecimal("790"))
}

func TestParse_Deterministic(t *testing.T) {
	first := Parse(sampleReceipt)
	second := Parse(sampleReceipt)
	assert.Equal(t, first, second)
}
