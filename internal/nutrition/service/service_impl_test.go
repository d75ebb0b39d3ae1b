package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/cozinhalabs/radar/internal/config"
	"github.com/cozinhalabs/radar/internal/nutrition/domain"
	"github.com/cozinhalabs/radar/internal/nutrition/repository"
	"github.com/cozinhalabs/radar/internal/providers/pdf"
	dbpkg "github.com/cozinhalabs/radar/pkg/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Ref{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        repository.Provide(),
		DailyValues: config.DefaultDailyValues(),
		Renderer:    pdf.NewLabelRenderer(),
	}).(*Service)
	return svc, db
}

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func createRef(t *testing.T, svc *Service, name string, req domain.CreateRequest) int64 {
	t.Helper()
	req.Name = name
	resp, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	id, err := snowflake.ParseString(resp.ID)
	require.NoError(t, err)
	return id.Int64()
}

func TestMaterialize_NormalizesTo100g(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	refID := createRef(t, svc, "Farinha de Trigo", domain.CreateRequest{
		EnergyKcal: d("100"),
		EnergyKJ:   d("418"),
		ProteinG:   d("10"),
		CarbG:      d("20"),
	})

	// 2 kg of the reference in a 4 kg batch: twenty base portions worth of
	// nutrients spread over forty base portions of weight.
	id, err := svc.Materialize(ctx, domain.MaterializeRequest{
		Name: "Massa Base",
		Lines: []domain.MaterializeLine{
			{QuantityKg: d("2"), RefID: &refID},
			{QuantityKg: d("2"), RefID: nil},
		},
		TotalWeightKg: d("4"),
	})
	require.NoError(t, err)
	require.NotNil(t, id)

	got, err := svc.Get(ctx, snowflake.ID(*id).String())
	require.NoError(t, err)
	assert.Equal(t, "Massa Base", got.Name)
	assert.True(t, got.EnergyKcal.Equal(d("50")), "kcal: %s", got.EnergyKcal)
	assert.True(t, got.EnergyKJ.Equal(d("209")), "kJ: %s", got.EnergyKJ)
	assert.True(t, got.ProteinG.Equal(d("5")), "protein: %s", got.ProteinG)
	assert.True(t, got.CarbG.Equal(d("10")), "carb: %s", got.CarbG)
	assert.Contains(t, got.Code, "massa-base-")
}

func TestMaterialize_NoNutritionDataKeepsExisting(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	existing := int64(42)
	id, err := svc.Materialize(ctx, domain.MaterializeRequest{
		Name:          "Calda Neutra",
		Lines:         []domain.MaterializeLine{{QuantityKg: d("1")}},
		TotalWeightKg: d("1"),
		ExistingRefID: &existing,
	})
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, existing, *id)

	id, err = svc.Materialize(ctx, domain.MaterializeRequest{
		Name:          "Calda Neutra",
		Lines:         []domain.MaterializeLine{{QuantityKg: d("1")}},
		TotalWeightKg: d("1"),
	})
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestMaterialize_ZeroWeightKeepsExisting(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	refID := createRef(t, svc, "Cacau", domain.CreateRequest{EnergyKcal: d("300")})

	id, err := svc.Materialize(ctx, domain.MaterializeRequest{
		Name:          "Cobertura",
		Lines:         []domain.MaterializeLine{{QuantityKg: d("1"), RefID: &refID}},
		TotalWeightKg: d("0"),
	})
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestMaterialize_UpdatesExistingInPlace(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	refID := createRef(t, svc, "Açúcar", domain.CreateRequest{EnergyKcal: d("400"), CarbG: d("100")})

	first, err := svc.Materialize(ctx, domain.MaterializeRequest{
		Name:          "Ganache",
		Lines:         []domain.MaterializeLine{{QuantityKg: d("1"), RefID: &refID}},
		TotalWeightKg: d("2"),
	})
	require.NoError(t, err)
	require.NotNil(t, first)

	before, err := svc.Get(ctx, snowflake.ID(*first).String())
	require.NoError(t, err)

	second, err := svc.Materialize(ctx, domain.MaterializeRequest{
		Name:          "Ganache",
		Lines:         []domain.MaterializeLine{{QuantityKg: d("1"), RefID: &refID}},
		TotalWeightKg: d("1"),
	})
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)

	after, err := svc.Get(ctx, snowflake.ID(*second).String())
	require.NoError(t, err)
	assert.Equal(t, before.Code, after.Code)
	assert.True(t, after.EnergyKcal.Equal(d("400")), "kcal: %s", after.EnergyKcal)
	assert.True(t, before.EnergyKcal.Equal(d("200")), "kcal before: %s", before.EnergyKcal)
}

func TestLabel_AmountsAndPercentDV(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	refID := createRef(t, svc, "Bolo Pronto", domain.CreateRequest{
		EnergyKcal:    d("200"),
		EnergyKJ:      d("836"),
		ProteinG:      d("10"),
		CarbG:         d("50"),
		LipidG:        d("11"),
		SaturatedFatG: d("2.2"),
		TransFatG:     d("0.5"),
		FiberG:        d("2.5"),
		SodiumMG:      d("240"),
	})

	label, err := svc.Label(ctx, domain.LabelRequest{
		RecipeName:    "Bolo de Cenoura",
		PortionG:      d("100"),
		TotalWeightKg: d("1"),
		Lines:         []domain.MaterializeLine{{QuantityKg: d("1"), RefID: &refID}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bolo de Cenoura", label.RecipeName)
	assert.Equal(t, "100 g", label.PortionG)
	require.Len(t, label.Rows, 8)

	rows := make(map[string]domain.LabelRow, len(label.Rows))
	for _, row := range label.Rows {
		rows[row.Nutrient] = row
	}

	assert.Equal(t, "200.0 kcal = 836.0 kJ", rows["Valor energético"].Amount)
	assert.Equal(t, "10%", rows["Valor energético"].PercentDV)
	assert.Equal(t, "50.0 g", rows["Carboidratos"].Amount)
	assert.Equal(t, "17%", rows["Carboidratos"].PercentDV)
	assert.Equal(t, "10.0 g", rows["Proteínas"].Amount)
	assert.Equal(t, "13%", rows["Proteínas"].PercentDV)
	assert.Equal(t, "11.0 g", rows["Gorduras totais"].Amount)
	assert.Equal(t, "20%", rows["Gorduras totais"].PercentDV)
	assert.Equal(t, "2.2 g", rows["Gorduras saturadas"].Amount)
	assert.Equal(t, "10%", rows["Gorduras saturadas"].PercentDV)
	assert.Equal(t, "0.5 g", rows["Gorduras trans"].Amount)
	assert.Empty(t, rows["Gorduras trans"].PercentDV)
	assert.Equal(t, "2.5 g", rows["Fibra alimentar"].Amount)
	assert.Equal(t, "10%", rows["Fibra alimentar"].PercentDV)
	assert.Equal(t, "240.0 mg", rows["Sódio"].Amount)
	assert.Equal(t, "10%", rows["Sódio"].PercentDV)
}

func TestLabel_ScalesToPortion(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	refID := createRef(t, svc, "Recheio", domain.CreateRequest{EnergyKcal: d("100")})

	// 2 kg of a 100 kcal/100g reference in a 2 kg batch, 50 g portion.
	label, err := svc.Label(ctx, domain.LabelRequest{
		RecipeName:    "Torta",
		PortionG:      d("50"),
		TotalWeightKg: d("2"),
		Lines:         []domain.MaterializeLine{{QuantityKg: d("2"), RefID: &refID}},
	})
	require.NoError(t, err)
	assert.Equal(t, "50.0 kcal = 0.0 kJ", label.Rows[0].Amount)
}

func TestLabel_Errors(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	refID := createRef(t, svc, "Base", domain.CreateRequest{EnergyKcal: d("100")})
	withRef := []domain.MaterializeLine{{QuantityKg: d("1"), RefID: &refID}}

	_, err := svc.Label(ctx, domain.LabelRequest{
		PortionG:      d("0"),
		TotalWeightKg: d("1"),
		Lines:         withRef,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPortion)

	_, err = svc.Label(ctx, domain.LabelRequest{
		PortionG:      d("100"),
		TotalWeightKg: d("0"),
		Lines:         withRef,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	_, err = svc.Label(ctx, domain.LabelRequest{
		PortionG:      d("100"),
		TotalWeightKg: d("1"),
		Lines:         []domain.MaterializeLine{{QuantityKg: d("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestRenderLabelPDF(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	refID := createRef(t, svc, "Massa", domain.CreateRequest{EnergyKcal: d("150")})

	reader, err := svc.RenderLabelPDF(ctx, domain.LabelRequest{
		RecipeName:    "Pão Caseiro",
		PortionG:      d("50"),
		TotalWeightKg: d("1"),
		Lines:         []domain.MaterializeLine{{QuantityKg: d("1"), RefID: &refID}},
	})
	require.NoError(t, err)
	require.NotNil(t, reader)
}

func TestUpdateRef(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	refID := createRef(t, svc, "Manteiga", domain.CreateRequest{EnergyKcal: d("700")})

	newKcal := d("720")
	updated, err := svc.Update(ctx, domain.UpdateRequest{
		ID:         snowflake.ID(refID).String(),
		EnergyKcal: &newKcal,
	})
	require.NoError(t, err)
	assert.True(t, updated.EnergyKcal.Equal(newKcal))

	negative := d("-1")
	_, err = svc.Update(ctx, domain.UpdateRequest{
		ID:       snowflake.ID(refID).String(),
		ProteinG: &negative,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	_, err = svc.Update(ctx, domain.UpdateRequest{ID: "not-a-number"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
