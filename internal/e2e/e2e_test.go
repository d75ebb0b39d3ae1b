package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cozinhalabs/radar/internal/config"
	ingredientdomain "github.com/cozinhalabs/radar/internal/ingredient/domain"
	ingredientrepo "github.com/cozinhalabs/radar/internal/ingredient/repository"
	ingredientsvc "github.com/cozinhalabs/radar/internal/ingredient/service"
	nutritiondomain "github.com/cozinhalabs/radar/internal/nutrition/domain"
	nutritionrepo "github.com/cozinhalabs/radar/internal/nutrition/repository"
	nutritionsvc "github.com/cozinhalabs/radar/internal/nutrition/service"
	"github.com/cozinhalabs/radar/internal/providers/notify"
	"github.com/cozinhalabs/radar/internal/providers/pdf"
	receiptdomain "github.com/cozinhalabs/radar/internal/receipt/domain"
	receiptrepo "github.com/cozinhalabs/radar/internal/receipt/repository"
	receiptsvc "github.com/cozinhalabs/radar/internal/receipt/service"
	recipedomain "github.com/cozinhalabs/radar/internal/recipe/domain"
	reciperepo "github.com/cozinhalabs/radar/internal/recipe/repository"
	recipesvc "github.com/cozinhalabs/radar/internal/recipe/service"
	"github.com/cozinhalabs/radar/internal/server"
	dbpkg "github.com/cozinhalabs/radar/pkg/db"
)

const receiptText = `SENORS DISTRIBUIDORA
CNPJ 12.345.678/0001-90
QUEIJO MUSS LACTOPAR Kg
4,086 Kg x 26,90 109,91
OVO BCO GRANDE C/30
1 x 15,50 15,50
VALOR TOTAL R$ 125,41`

type fixedOCR struct{ text string }

func (f *fixedOCR) ExtractText(context.Context, []byte) (string, error) {
	return f.text, nil
}

type silentNotifier struct {
	priceAlerts int
	cmvUpdates  int
}

func (n *silentNotifier) SendPriceAlert(context.Context, notify.PriceAlert) error {
	n.priceAlerts++
	return nil
}

func (n *silentNotifier) SendCMVUpdate(context.Context, notify.CMVUpdate) error {
	n.cmvUpdates++
	return nil
}

func newTestEnv(t *testing.T) (*gin.Engine, *silentNotifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&ingredientdomain.Ingredient{},
		&ingredientdomain.Category{},
		&ingredientdomain.ProductMap{},
		&nutritiondomain.Ref{},
		&recipedomain.Recipe{},
		&recipedomain.Line{},
		&recipedomain.CostSnapshot{},
		&receiptdomain.Receipt{},
		&receiptdomain.Item{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	notifier := &silentNotifier{}

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
	recipes := recipesvc.New(recipesvc.Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Repo:        reciperepo.Provide(),
		Ingredients: ingredients,
		Nutrition:   nutrition,
		Notifier:    notifier,
	})
	receipts := receiptsvc.New(receiptsvc.Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Repo:        receiptrepo.Provide(),
		OCR:         &fixedOCR{text: receiptText},
		Ingredients: ingredients,
		Recipes:     recipes,
		Notifier:    notifier,
	})

	engine := gin.New()
	engine.Use(server.ErrorHandlingMiddleware())
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server.NewServer(server.ServerParams{
		Gin:           engine,
		DB:            db,
		GenID:         node,
		IngredientSvc: ingredients,
		NutritionSvc:  nutrition,
		RecipeSvc:     recipes,
		ReceiptSvc:    receipts,
	})

	return engine, notifier
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var wrapper struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))
	return wrapper.Data
}

func TestReceiptToRecipeFlow(t *testing.T) {
	engine, notifier := newTestEnv(t)

	w := doJSON(t, engine, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Seed ingredients at stale prices.
	w = doJSON(t, engine, http.MethodPost, "/api/ingredients", gin.H{
		"name":          "Queijo Mussarela",
		"category":      "LATICINIOS",
		"current_price": "20.00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	queijo := decodeData[ingredientdomain.Response](t, w)

	w = doJSON(t, engine, http.MethodPost, "/api/ingredients", gin.H{
		"name":          "Ovos",
		"category":      "MERCADO",
		"current_price": "15.00",
		"unit":          "PCT",
	})
	require.Equal(t, http.StatusOK, w.Code)
	ovos := decodeData[ingredientdomain.Response](t, w)

	// A recipe consuming the cheese at the stale price.
	w = doJSON(t, engine, http.MethodPost, "/api/recipes", gin.H{
		"name":        "Pizza Quatro Queijos",
		"yield_units": 1,
		"lines": []gin.H{
			{"ingredient_id": queijo.ID, "quantity": "1"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pizza := decodeData[recipedomain.Response](t, w)
	assert.True(t, pizza.CurrentCost.Equal(decimal.RequireFromString("20.00")),
		"cost %s", pizza.CurrentCost)

	// Upload a receipt scan; the OCR stub returns the canned text.
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "nota.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("scanned-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/receipts/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	staged := decodeData[receiptdomain.Response](t, w)
	assert.Equal(t, receiptdomain.StatusPendingValidation, staged.Status)
	assert.Equal(t, "SENORS DISTRIBUIDORA", staged.MarketName)
	require.Len(t, staged.Items, 2)

	w = doJSON(t, engine, http.MethodGet, "/api/receipts/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decodeData[[]receiptdomain.Response](t, w)
	require.Len(t, pending, 1)

	// Confirm both items against the seeded ingredients.
	w = doJSON(t, engine, http.MethodPut, "/api/receipts/"+staged.ID+"/validate", gin.H{
		"items": []gin.H{
			{"item_id": staged.Items[0].ID, "ingredient_id": queijo.ID},
			{"item_id": staged.Items[1].ID, "ingredient_id": ovos.ID},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	validated := decodeData[receiptdomain.ValidateResponse](t, w)
	assert.Equal(t, 2, validated.UpdatedIngredients)
	assert.Equal(t, 1, validated.RecalculatedRecipes)
	assert.Equal(t, 1, validated.PriceAlerts)
	assert.Equal(t, 1, notifier.priceAlerts)

	// 109,91 over 4,086 kg normalizes to 26.90 per kg.
	w = doJSON(t, engine, http.MethodGet, "/api/ingredients/"+queijo.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	repriced := decodeData[ingredientdomain.Response](t, w)
	assert.True(t, repriced.CurrentPrice.Equal(decimal.RequireFromString("26.90")),
		"price %s", repriced.CurrentPrice)

	// The recipe followed the cheese price.
	w = doJSON(t, engine, http.MethodGet, "/api/recipes/"+pizza.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	recalced := decodeData[recipedomain.Response](t, w)
	assert.True(t, recalced.CurrentCost.Equal(decimal.RequireFromString("26.90")),
		"cost %s", recalced.CurrentCost)

	w = doJSON(t, engine, http.MethodGet, "/api/recipes/"+pizza.ID+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decodeData[[]recipedomain.SnapshotResponse](t, w)
	require.Len(t, history, 2)

	// Validating twice conflicts.
	w = doJSON(t, engine, http.MethodPut, "/api/receipts/"+staged.ID+"/validate", gin.H{
		"items": []gin.H{{"item_id": staged.Items[0].ID, "ingredient_id": queijo.ID}},
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestRecipeLabelWithoutNutritionData(t *testing.T) {
	engine, _ := newTestEnv(t)

	w := doJSON(t, engine, http.MethodPost, "/api/ingredients", gin.H{
		"name":          "Farinha",
		"category":      "MERCADO",
		"current_price": "4.50",
	})
	require.Equal(t, http.StatusOK, w.Code)
	farinha := decodeData[ingredientdomain.Response](t, w)

	w = doJSON(t, engine, http.MethodPost, "/api/recipes", gin.H{
		"name":        "Massa Simples",
		"yield_units": 10,
		"lines": []gin.H{
			{"ingredient_id": farinha.ID, "quantity": "2"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	recipe := decodeData[recipedomain.Response](t, w)

	// No line carries a nutrition reference, so the label is refused rather
	// than rendered as all zeroes.
	w = doJSON(t, engine, http.MethodGet, "/api/recipes/"+recipe.ID+"/label?portion_g=100", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient_nutrition_data")
}
