package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/cozinhalabs/radar/internal/config"
	ingredientdomain "github.com/cozinhalabs/radar/internal/ingredient/domain"
	ingredientrepo "github.com/cozinhalabs/radar/internal/ingredient/repository"
	ingredientsvc "github.com/cozinhalabs/radar/internal/ingredient/service"
	nutritiondomain "github.com/cozinhalabs/radar/internal/nutrition/domain"
	nutritionrepo "github.com/cozinhalabs/radar/internal/nutrition/repository"
	nutritionsvc "github.com/cozinhalabs/radar/internal/nutrition/service"
	"github.com/cozinhalabs/radar/internal/providers/notify"
	"github.com/cozinhalabs/radar/internal/providers/pdf"
	"github.com/cozinhalabs/radar/internal/recipe/domain"
	"github.com/cozinhalabs/radar/internal/recipe/repository"
	dbpkg "github.com/cozinhalabs/radar/pkg/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubNotifier struct {
	priceAlerts []notify.PriceAlert
	cmvUpdates  []notify.CMVUpdate
}

func (n *stubNotifier) SendPriceAlert(_ context.Context, alert notify.PriceAlert) error {
	n.priceAlerts = append(n.priceAlerts, alert)
	return nil
}

func (n *stubNotifier) SendCMVUpdate(_ context.Context, update notify.CMVUpdate) error {
	n.cmvUpdates = append(n.cmvUpdates, update)
	return nil
}

type fixture struct {
	svc         *Service
	ingredients ingredientdomain.Service
	notifier    *stubNotifier
	db          *gorm.DB
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&ingredientdomain.Ingredient{},
		&ingredientdomain.Category{},
		&ingredientdomain.ProductMap{},
		&nutritiondomain.Ref{},
		&domain.Recipe{},
		&domain.Line{},
		&domain.CostSnapshot{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	ingredients := ingredientsvc.New(ingredientsvc.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  ingredientrepo.Provide(),
	})
	nutrition := nutritionsvc.New(nutritionsvc.Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Repo:        nutritionrepo.Provide(),
		DailyValues: config.DefaultDailyValues(),
		Renderer:    pdf.NewLabelRenderer(),
	})

	notifier := &stubNotifier{}
	svc := New(Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Repo:        repository.Provide(),
		Ingredients: ingredients,
		Nutrition:   nutrition,
		Notifier:    notifier,
	}).(*Service)

	return &fixture{svc: svc, ingredients: ingredients, notifier: notifier, db: db}
}

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func (f *fixture) createIngredient(t *testing.T, name, category, price string) (string, int64) {
	t.Helper()
	resp, err := f.ingredients.Create(context.Background(), ingredientdomain.CreateRequest{
		Name:         name,
		Category:     category,
		CurrentPrice: d(price),
	})
	require.NoError(t, err)
	id, err := snowflake.ParseString(resp.ID)
	require.NoError(t, err)
	return resp.ID, id.Int64()
}

func (f *fixture) snapshotCount(t *testing.T, recipeID string) int64 {
	t.Helper()
	id, err := snowflake.ParseString(recipeID)
	require.NoError(t, err)
	var count int64
	require.NoError(t, f.db.Model(&domain.CostSnapshot{}).Where("recipe_id = ?", id.Int64()).Count(&count).Error)
	return count
}

func TestCreateComputesCosts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	flourID, _ := f.createIngredient(t, "Farinha de Trigo", "MERCADO", "4.50")
	boxID, _ := f.createIngredient(t, "Caixa Kraft", ingredientdomain.CategoryEmbalagem, "2.00")

	created, err := f.svc.Create(ctx, domain.CreateRequest{
		Name:       "Pão Caseiro",
		YieldUnits: 10,
		LaborCost:  d("5.00"),
		Lines: []domain.LineRequest{
			{IngredientID: flourID, Quantity: d("2")},
			{IngredientID: boxID, Quantity: d("1")},
		},
	})
	require.NoError(t, err)

	assert.True(t, created.IngredientsCost.Equal(d("9.00")), "ingredients: %s", created.IngredientsCost)
	assert.True(t, created.PackagingCost.Equal(d("2.00")), "packaging: %s", created.PackagingCost)
	assert.True(t, created.CurrentCost.Equal(d("16.00")), "current: %s", created.CurrentCost)
	assert.True(t, created.TotalWeightKg.Equal(d("2")), "weight: %s", created.TotalWeightKg)
	assert.True(t, created.CMVPerUnit.Equal(d("1.60")), "per unit: %s", created.CMVPerUnit)
	assert.True(t, created.CMVPerKg.Equal(d("8.00")), "per kg: %s", created.CMVPerKg)
	require.NotNil(t, created.LastCalculated)
	require.Len(t, created.Lines, 2)
	assert.True(t, created.Lines[1].IsPackaging)

	assert.Equal(t, int64(1), f.snapshotCount(t, created.ID))

	history, err := f.svc.History(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.TriggerCreate, history[0].Trigger)

	// Cost movements during creation are not announced.
	assert.Empty(t, f.notifier.cmvUpdates)
}

func TestCreateValidations(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	flourID, _ := f.createIngredient(t, "Farinha", "MERCADO", "4.00")
	line := domain.LineRequest{IngredientID: flourID, Quantity: d("1")}

	_, err := f.svc.Create(ctx, domain.CreateRequest{Name: "", YieldUnits: 1, Lines: []domain.LineRequest{line}})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = f.svc.Create(ctx, domain.CreateRequest{Name: "Bolo", YieldUnits: 0, Lines: []domain.LineRequest{line}})
	assert.ErrorIs(t, err, domain.ErrInvalidYield)

	_, err = f.svc.Create(ctx, domain.CreateRequest{Name: "Bolo", YieldUnits: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidLine)

	_, err = f.svc.Create(ctx, domain.CreateRequest{
		Name:       "Bolo",
		YieldUnits: 1,
		Lines:      []domain.LineRequest{{IngredientID: flourID, Quantity: d("0")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidLine)

	_, err = f.svc.Create(ctx, domain.CreateRequest{
		Name:       "Bolo",
		YieldUnits: 1,
		Lines:      []domain.LineRequest{{IngredientID: "999999999", Quantity: d("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrIngredientMissing)

	_, err = f.svc.Create(ctx, domain.CreateRequest{Name: "Torta", YieldUnits: 1, Lines: []domain.LineRequest{line}})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, domain.CreateRequest{Name: "Torta", YieldUnits: 1, Lines: []domain.LineRequest{line}})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestRecalculateAffectedCascades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	flourID, flourNum := f.createIngredient(t, "Farinha de Trigo", "MERCADO", "4.00")
	sugarID, _ := f.createIngredient(t, "Açúcar", "MERCADO", "3.00")

	bread, err := f.svc.Create(ctx, domain.CreateRequest{
		Name:       "Pão",
		YieldUnits: 10,
		Lines:      []domain.LineRequest{{IngredientID: flourID, Quantity: d("2")}},
	})
	require.NoError(t, err)

	cake, err := f.svc.Create(ctx, domain.CreateRequest{
		Name:       "Bolo",
		YieldUnits: 5,
		Lines: []domain.LineRequest{
			{IngredientID: flourID, Quantity: d("1")},
			{IngredientID: sugarID, Quantity: d("1")},
		},
	})
	require.NoError(t, err)

	candy, err := f.svc.Create(ctx, domain.CreateRequest{
		Name:       "Bala",
		YieldUnits: 100,
		Lines:      []domain.LineRequest{{IngredientID: sugarID, Quantity: d("1")}},
	})
	require.NoError(t, err)

	_, err = f.ingredients.UpdatePrice(ctx, flourNum, d("5.00"))
	require.NoError(t, err)

	count, err := f.svc.RecalculateAffected(ctx, []int64{flourNum}, domain.TriggerPriceUpdate)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	breadAfter, err := f.svc.Get(ctx, bread.ID)
	require.NoError(t, err)
	assert.True(t, breadAfter.CurrentCost.Equal(d("10.00")), "bread: %s", breadAfter.CurrentCost)

	cakeAfter, err := f.svc.Get(ctx, cake.ID)
	require.NoError(t, err)
	assert.True(t, cakeAfter.CurrentCost.Equal(d("8.00")), "cake: %s", cakeAfter.CurrentCost)

	candyAfter, err := f.svc.Get(ctx, candy.ID)
	require.NoError(t, err)
	assert.True(t, candyAfter.CurrentCost.Equal(d("3.00")), "candy: %s", candyAfter.CurrentCost)

	assert.Equal(t, int64(2), f.snapshotCount(t, bread.ID))
	assert.Equal(t, int64(2), f.snapshotCount(t, cake.ID))
	assert.Equal(t, int64(1), f.snapshotCount(t, candy.ID))

	require.Len(t, f.notifier.cmvUpdates, 2)
	assert.Contains(t, f.notifier.cmvUpdates[0].AffectedIngredients, "Farinha de Trigo")
}

func TestPrePreparoCascadesTransitively(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	flourID, flourNum := f.createIngredient(t, "Farinha de Trigo", "MERCADO", "4.00")

	dough, err := f.svc.Create(ctx, domain.CreateRequest{
		Name:         "Massa de Pastel",
		YieldUnits:   1,
		IsPrePreparo: true,
		Lines:        []domain.LineRequest{{IngredientID: flourID, Quantity: d("2")}},
	})
	require.NoError(t, err)
	require.NotNil(t, dough.DerivedIngredientID)
	assert.True(t, dough.CMVPerUnit.Equal(d("8.00")), "dough: %s", dough.CMVPerUnit)

	derived, err := f.ingredients.Get(ctx, *dough.DerivedIngredientID)
	require.NoError(t, err)
	assert.Equal(t, "Massa de Pastel", derived.Name)
	assert.Equal(t, ingredientdomain.CategoryPrePreparo, derived.Category)
	assert.True(t, derived.CurrentPrice.Equal(d("8.00")))

	pastry, err := f.svc.Create(ctx, domain.CreateRequest{
		Name:       "Pastel de Queijo",
		YieldUnits: 4,
		Lines:      []domain.LineRequest{{IngredientID: *dough.DerivedIngredientID, Quantity: d("1")}},
	})
	require.NoError(t, err)
	assert.True(t, pastry.CurrentCost.Equal(d("8.00")), "pastry: %s", pastry.CurrentCost)

	_, err = f.ingredients.UpdatePrice(ctx, flourNum, d("5.00"))
	require.NoError(t, err)

	count, err := f.svc.RecalculateAffected(ctx, []int64{flourNum}, domain.TriggerPriceUpdate)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	doughAfter, err := f.svc.Get(ctx, dough.ID)
	require.NoError(t, err)
	assert.True(t, doughAfter.CMVPerUnit.Equal(d("10.00")), "dough after: %s", doughAfter.CMVPerUnit)

	derivedAfter, err := f.ingredients.Get(ctx, *dough.DerivedIngredientID)
	require.NoError(t, err)
	assert.True(t, derivedAfter.CurrentPrice.Equal(d("10.00")))

	pastryAfter, err := f.svc.Get(ctx, pastry.ID)
	require.NoError(t, err)
	assert.True(t, pastryAfter.CurrentCost.Equal(d("10.00")), "pastry after: %s", pastryAfter.CurrentCost)
}

func TestCompositionCycleRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	flourID, _ := f.createIngredient(t, "Farinha", "MERCADO", "4.00")

	dough, err := f.svc.Create(ctx, domain.CreateRequest{
		Name:         "Massa Base",
		YieldUnits:   1,
		IsPrePreparo: true,
		Lines:        []domain.LineRequest{{IngredientID: flourID, Quantity: d("1")}},
	})
	require.NoError(t, err)
	require.NotNil(t, dough.DerivedIngredientID)

	// A recipe cannot consume its own output.
	_, err = f.svc.Update(ctx, domain.UpdateRequest{
		ID: dough.ID,
		Lines: &[]domain.LineRequest{
			{IngredientID: *dough.DerivedIngredientID, Quantity: d("1")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrCompositionCycle)

	filling, err := f.svc.Create(ctx, domain.CreateRequest{
		Name:         "Recheio Base",
		YieldUnits:   1,
		IsPrePreparo: true,
		Lines:        []domain.LineRequest{{IngredientID: *dough.DerivedIngredientID, Quantity: d("1")}},
	})
	require.NoError(t, err)
	require.NotNil(t, filling.DerivedIngredientID)

	// Nor may it consume a recipe that already consumes it.
	_, err = f.svc.Update(ctx, domain.UpdateRequest{
		ID: dough.ID,
		Lines: &[]domain.LineRequest{
			{IngredientID: flourID, Quantity: d("1")},
			{IngredientID: *filling.DerivedIngredientID, Quantity: d("1")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrCompositionCycle)
}

func TestUpdateRepricesAndKeepsLines(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	flourID, _ := f.createIngredient(t, "Farinha", "MERCADO", "4.00")

	created, err := f.svc.Create(ctx, domain.CreateRequest{
		Name:       "Pão",
		YieldUnits: 10,
		Lines:      []domain.LineRequest{{IngredientID: flourID, Quantity: d("2")}},
	})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, domain.UpdateRequest{ID: created.ID})
	assert.ErrorIs(t, err, domain.ErrNothingToUpdate)

	yield := int64(20)
	updated, err := f.svc.Update(ctx, domain.UpdateRequest{ID: created.ID, YieldUnits: &yield})
	require.NoError(t, err)
	assert.True(t, updated.CMVPerUnit.Equal(d("0.4000")), "per unit: %s", updated.CMVPerUnit)
	require.Len(t, updated.Lines, 1)
}

func TestDeleteRemovesRecipeAndLines(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	flourID, _ := f.createIngredient(t, "Farinha", "MERCADO", "4.00")

	created, err := f.svc.Create(ctx, domain.CreateRequest{
		Name:       "Pão",
		YieldUnits: 10,
		Lines:      []domain.LineRequest{{IngredientID: flourID, Quantity: d("2")}},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, created.ID))

	_, err = f.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var lines int64
	require.NoError(t, f.db.Model(&domain.Line{}).Count(&lines).Error)
	assert.Equal(t, int64(0), lines)
}

func TestLabelFromRecipeLines(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	flourID, flourNum := f.createIngredient(t, "Farinha", "MERCADO", "4.00")

	nutrition := f.svc.nutrition
	ref, err := nutrition.Create(ctx, nutritiondomain.CreateRequest{
		Name:       "Farinha de Trigo",
		EnergyKcal: d("360"),
		CarbG:      d("75"),
	})
	require.NoError(t, err)

	_, err = f.ingredients.Update(ctx, ingredientdomain.UpdateRequest{
		ID:             snowflake.ID(flourNum).String(),
		NutritionRefID: &ref.ID,
	})
	require.NoError(t, err)

	created, err := f.svc.Create(ctx, domain.CreateRequest{
		Name:       "Pão",
		YieldUnits: 10,
		Lines:      []domain.LineRequest{{IngredientID: flourID, Quantity: d("1")}},
	})
	require.NoError(t, err)

	label, err := f.svc.Label(ctx, created.ID, d("100"))
	require.NoError(t, err)
	assert.Equal(t, "Pão", label.RecipeName)
	assert.Equal(t, "360.0 kcal = 0.0 kJ", label.Rows[0].Amount)

	_, err = f.svc.Label(ctx, created.ID, d("0"))
	assert.ErrorIs(t, err, nutritiondomain.ErrInvalidPortion)

	reader, err := f.svc.RenderLabelPDF(ctx, created.ID, d("100"))
	require.NoError(t, err)
	require.NotNil(t, reader)
}
