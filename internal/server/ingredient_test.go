package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ingredientdomain "github.com/cozinhalabs/radar/internal/ingredient/domain"
)

type fakeIngredientService struct {
	createErr   error
	getErr      error
	created     []ingredientdomain.CreateRequest
	getResponse *ingredientdomain.Response
}

func (f *fakeIngredientService) List(ctx context.Context, req ingredientdomain.ListRequest) ([]ingredientdomain.Response, error) {
	return nil, nil
}

func (f *fakeIngredientService) ListIncomplete(ctx context.Context) ([]ingredientdomain.Response, error) {
	return nil, nil
}

func (f *fakeIngredientService) Get(ctx context.Context, id string) (*ingredientdomain.Response, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getResponse, nil
}

func (f *fakeIngredientService) Create(ctx context.Context, req ingredientdomain.CreateRequest) (*ingredientdomain.Response, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &ingredientdomain.Response{ID: "100", Name: req.Name}, nil
}

func (f *fakeIngredientService) Update(ctx context.Context, req ingredientdomain.UpdateRequest) (*ingredientdomain.Response, error) {
	return &ingredientdomain.Response{ID: req.ID}, nil
}

func (f *fakeIngredientService) Match(ctx context.Context, rawName string) (*ingredientdomain.Matched, error) {
	return nil, nil
}

func (f *fakeIngredientService) Learn(ctx context.Context, rawName string, ingredientID int64) error {
	return nil
}

func (f *fakeIngredientService) UpdatePrice(ctx context.Context, ingredientID int64, price decimal.Decimal) (*ingredientdomain.PriceChange, error) {
	return nil, nil
}

func (f *fakeIngredientService) UpsertDerived(ctx context.Context, req ingredientdomain.UpsertDerivedRequest) (int64, error) {
	return 0, nil
}

func (f *fakeIngredientService) ListCategories(ctx context.Context, search string) ([]ingredientdomain.CategoryResponse, error) {
	return nil, nil
}

func (f *fakeIngredientService) CreateCategory(ctx context.Context, name string) (*ingredientdomain.CategoryResponse, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*Server, *fakeIngredientService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := &fakeIngredientService{}
	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	s := &Server{
		engine:        engine,
		ingredientSvc: fake,
	}
	s.registerAPIRoutes()
	return s, fake
}

func performJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
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

func TestCreateIngredientHandler(t *testing.T) {
	s, fake := newTestServer(t)

	w := performJSON(t, s.Engine(), http.MethodPost, "/api/ingredients", gin.H{
		"name":          "  Farinha de Trigo  ",
		"category":      "MERCEARIA",
		"current_price": "4.50",
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, fake.created, 1)
	assert.Equal(t, "Farinha de Trigo", fake.created[0].Name)
	assert.True(t, fake.created[0].YieldCoefficient.Equal(decimal.NewFromInt(1)))
}

func TestCreateIngredientHandlerValidation(t *testing.T) {
	s, fake := newTestServer(t)
	fake.createErr = ingredientdomain.ErrInvalidName

	w := performJSON(t, s.Engine(), http.MethodPost, "/api/ingredients", gin.H{"name": ""})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error.Type)
	require.Len(t, resp.Error.Errors, 1)
	assert.Equal(t, "invalid_ingredient_name", resp.Error.Errors[0].Code)
	assert.Equal(t, "ingredient_name", resp.Error.Errors[0].Field)
}

func TestCreateIngredientHandlerConflict(t *testing.T) {
	s, fake := newTestServer(t)
	fake.createErr = ingredientdomain.ErrDuplicateName

	w := performJSON(t, s.Engine(), http.MethodPost, "/api/ingredients", gin.H{"name": "Ovos"})

	require.Equal(t, http.StatusConflict, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "conflict", resp.Error.Type)
}

func TestGetIngredientHandlerNotFound(t *testing.T) {
	s, fake := newTestServer(t)
	fake.getErr = ingredientdomain.ErrNotFound

	w := performJSON(t, s.Engine(), http.MethodGet, "/api/ingredients/123", nil)

	require.Equal(t, http.StatusNotFound, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error.Type)
}

func TestUpdateIngredientHandlerBadBody(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPut, "/api/ingredients/123", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
