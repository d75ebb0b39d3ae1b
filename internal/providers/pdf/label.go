package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// LabelData is a rendered ANVISA nutrition facts panel. Values arrive already
// scaled to the portion and formatted upstream.
type LabelData struct {
	RecipeName string
	PortionG   string
	Rows       []LabelRow
}

// LabelRow is one nutrient line. PercentDV is empty for nutrients without a
// reference daily value (trans fat).
type LabelRow struct {
	Nutrient  string
	Amount    string
	PercentDV string
}

// LabelRenderer produces the printable nutrition label PDF.
type LabelRenderer struct{}

func NewLabelRenderer() *LabelRenderer { return &LabelRenderer{} }

func (r *LabelRenderer) RenderLabel(ctx context.Context, data LabelData) (io.Reader, error) {
	cfg := config.NewBuilder().Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(12, "INFORMAÇÃO NUTRICIONAL", props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, data.RecipeName, props.Text{
			Size:  10,
			Align: align.Center,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, fmt.Sprintf("Porção de %s", data.PortionG), props.Text{
			Size:  9,
			Align: align.Center,
		}),
	)

	m.AddRow(4, line.NewCol(12))

	m.AddRow(8,
		text.NewCol(6, "", props.Text{Size: 8}),
		text.NewCol(3, "Quantidade por porção", props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(3, "%VD*", props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right}),
	)

	for _, row := range data.Rows {
		m.AddRow(7,
			text.NewCol(6, row.Nutrient, props.Text{Size: 9}),
			text.NewCol(3, row.Amount, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, row.PercentDV, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(4, line.NewCol(12))

	m.AddRow(10,
		col.New(12).Add(
			text.New("*Percentual de valores diários fornecidos pela porção.", props.Text{Size: 7}),
			text.New("Valores diários de referência com base em uma dieta de 2.000 kcal.", props.Text{Size: 7, Top: 3}),
		),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
