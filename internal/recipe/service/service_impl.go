package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	ingredientdomain "github.com/cozinhalabs/radar/internal/ingredient/domain"
	nutritiondomain "github.com/cozinhalabs/radar/internal/nutrition/domain"
	"github.com/cozinhalabs/radar/internal/providers/notify"
	"github.com/cozinhalabs/radar/internal/recalc"
	"github.com/cozinhalabs/radar/internal/recipe/costing"
	"github.com/cozinhalabs/radar/internal/recipe/domain"
	"github.com/cozinhalabs/radar/pkg/db"
	"github.com/cozinhalabs/radar/pkg/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	Ingredients ingredientdomain.Service
	Nutrition   nutritiondomain.Service
	Notifier    notify.Notifier
	Locker      *recalc.Locker     `optional:"true"`
	Metrics     *telemetry.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        domain.Repository
	genID       *snowflake.Node
	ingredients ingredientdomain.Service
	nutrition   nutritiondomain.Service
	notifier    notify.Notifier
	locker      *recalc.Locker
	metrics     *telemetry.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("recipe.service"),
		repo:        p.Repo,
		genID:       p.GenID,
		ingredients: p.Ingredients,
		nutrition:   p.Nutrition,
		notifier:    p.Notifier,
		locker:      p.Locker,
		metrics:     p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, search string) ([]domain.Response, error) {
	recipes, err := s.repo.List(ctx, s.db, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(recipes))
	for i := range recipes {
		resp = append(resp, toResponse(&recipes[i], nil))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	details, err := s.repo.FindLineDetails(ctx, s.db, recipe.ID)
	if err != nil {
		return nil, err
	}

	resp := toResponse(recipe, details)
	return &resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.YieldUnits <= 0 {
		return nil, domain.ErrInvalidYield
	}
	if req.LaborCost.IsNegative() {
		return nil, domain.ErrInvalidLaborCost
	}

	ingredientIDs, err := s.validateLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	unit := strings.ToUpper(strings.TrimSpace(req.ProductionUnit))
	if unit == "" {
		unit = "UN"
	}

	now := time.Now().UTC()
	recipe := &domain.Recipe{
		ID:             s.genID.Generate().Int64(),
		Name:           name,
		SKU:            normalizeSKU(req.SKU),
		YieldUnits:     req.YieldUnits,
		ProductionUnit: unit,
		IsPrePreparo:   req.IsPrePreparo,
		LaborCost:      req.LaborCost,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.checkCycle(ctx, recipe.ID, 0, ingredientIDs); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, s.db, recipe); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, err
	}
	if err := s.repo.ReplaceLines(ctx, s.db, recipe.ID, s.buildLines(recipe.ID, req.Lines, now)); err != nil {
		return nil, err
	}

	if _, err := s.reprice(ctx, recipe, domain.TriggerCreate, nil); err != nil {
		return nil, err
	}

	s.log.Info("recipe created",
		zap.Int64("recipe_id", recipe.ID),
		zap.String("name", recipe.Name),
		zap.Bool("is_pre_preparo", recipe.IsPrePreparo),
	)

	return s.Get(ctx, snowflake.ID(recipe.ID).String())
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	recipe, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name == nil && req.SKU == nil && req.YieldUnits == nil &&
		req.ProductionUnit == nil && req.LaborCost == nil && req.Lines == nil {
		return nil, domain.ErrNothingToUpdate
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		recipe.Name = name
	}
	if req.SKU != nil {
		recipe.SKU = normalizeSKU(req.SKU)
	}
	if req.YieldUnits != nil {
		if *req.YieldUnits <= 0 {
			return nil, domain.ErrInvalidYield
		}
		recipe.YieldUnits = *req.YieldUnits
	}
	if req.ProductionUnit != nil {
		unit := strings.ToUpper(strings.TrimSpace(*req.ProductionUnit))
		if unit == "" {
			return nil, domain.ErrInvalidLine
		}
		recipe.ProductionUnit = unit
	}
	if req.LaborCost != nil {
		if req.LaborCost.IsNegative() {
			return nil, domain.ErrInvalidLaborCost
		}
		recipe.LaborCost = *req.LaborCost
	}

	if req.Lines != nil {
		ingredientIDs, err := s.validateLines(ctx, *req.Lines)
		if err != nil {
			return nil, err
		}

		derivedID := int64(0)
		if recipe.DerivedIngredientID != nil {
			derivedID = *recipe.DerivedIngredientID
		}
		if err := s.checkCycle(ctx, recipe.ID, derivedID, ingredientIDs); err != nil {
			return nil, err
		}

		if err := s.repo.ReplaceLines(ctx, s.db, recipe.ID, s.buildLines(recipe.ID, *req.Lines, time.Now().UTC())); err != nil {
			return nil, err
		}
	}

	outcome, err := s.reprice(ctx, recipe, domain.TriggerUpdate, nil)
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, err
	}

	if outcome.derivedChanged && recipe.DerivedIngredientID != nil {
		if _, err := s.RecalculateAffected(ctx, []int64{*recipe.DerivedIngredientID}, domain.TriggerCascade); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, req.ID)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if recipe.DerivedIngredientID != nil {
		// The derived ingredient stays behind with its last price so recipes
		// consuming it keep costing until it is replaced.
		s.log.Warn("deleting pre-preparo recipe, derived ingredient price is now frozen",
			zap.Int64("recipe_id", recipe.ID),
			zap.Int64("derived_ingredient_id", *recipe.DerivedIngredientID),
		)
	}

	return s.repo.Delete(ctx, s.db, recipe.ID)
}

func (s *Service) History(ctx context.Context, id string) ([]domain.SnapshotResponse, error) {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	snapshots, err := s.repo.ListSnapshots(ctx, s.db, recipe.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.SnapshotResponse, 0, len(snapshots))
	for _, snap := range snapshots {
		resp = append(resp, domain.SnapshotResponse{
			IngredientsCost: snap.IngredientsCost,
			PackagingCost:   snap.PackagingCost,
			LaborCost:       snap.LaborCost,
			CurrentCost:     snap.CurrentCost,
			CMVPerUnit:      snap.CMVPerUnit,
			CMVPerKg:        snap.CMVPerKg,
			Trigger:         snap.Trigger,
			CreatedAt:       snap.CreatedAt,
		})
	}
	return resp, nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.Recipe, error) {
	recipeID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	recipe, err := s.repo.FindByID(ctx, s.db, recipeID.Int64())
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, domain.ErrNotFound
	}
	return recipe, nil
}

func (s *Service) validateLines(ctx context.Context, lines []domain.LineRequest) ([]int64, error) {
	if len(lines) == 0 {
		return nil, domain.ErrInvalidLine
	}

	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			return nil, domain.ErrInvalidLine
		}
		id, err := snowflake.ParseString(strings.TrimSpace(line.IngredientID))
		if err != nil {
			return nil, domain.ErrInvalidLine
		}
		if _, err := s.ingredients.Get(ctx, line.IngredientID); err != nil {
			if err == ingredientdomain.ErrNotFound || err == ingredientdomain.ErrInvalidID {
				return nil, domain.ErrIngredientMissing
			}
			return nil, err
		}
		ids = append(ids, id.Int64())
	}
	return ids, nil
}

func (s *Service) buildLines(recipeID int64, lines []domain.LineRequest, now time.Time) []domain.Line {
	built := make([]domain.Line, 0, len(lines))
	for _, line := range lines {
		id, err := snowflake.ParseString(strings.TrimSpace(line.IngredientID))
		if err != nil {
			continue
		}
		built = append(built, domain.Line{
			ID:           s.genID.Generate().Int64(),
			RecipeID:     recipeID,
			IngredientID: id.Int64(),
			Quantity:     line.Quantity,
			CreatedAt:    now,
		})
	}
	return built
}

// checkCycle rejects line sets that would make a recipe feed on its own
// output through any chain of pre-preparo recipes.
func (s *Service) checkCycle(ctx context.Context, recipeID, derivedID int64, ingredientIDs []int64) error {
	graph, err := s.repo.LoadGraph(ctx, s.db)
	if err != nil {
		return err
	}
	graph.Consumes[recipeID] = ingredientIDs

	if offending, found := graph.DetectCycle(recipeID, derivedID); found {
		s.log.Warn("recipe composition cycle rejected",
			zap.Int64("recipe_id", recipeID),
			zap.Int64("ingredient_id", offending),
		)
		return domain.ErrCompositionCycle
	}
	return nil
}

func normalizeSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*sku)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toResponse(recipe *domain.Recipe, details []domain.LineDetail) domain.Response {
	resp := domain.Response{
		ID:              snowflake.ID(recipe.ID).String(),
		Name:            recipe.Name,
		SKU:             recipe.SKU,
		YieldUnits:      recipe.YieldUnits,
		ProductionUnit:  recipe.ProductionUnit,
		IsPrePreparo:    recipe.IsPrePreparo,
		LaborCost:       recipe.LaborCost,
		IngredientsCost: recipe.IngredientsCost,
		PackagingCost:   recipe.PackagingCost,
		CurrentCost:     recipe.CurrentCost,
		TotalWeightKg:   recipe.TotalWeightKg,
		CMVPerUnit:      recipe.CMVPerUnit,
		CMVPerKg:        recipe.CMVPerKg,
		LastCalculated:  recipe.LastCalculated,
		CreatedAt:       recipe.CreatedAt,
		UpdatedAt:       recipe.UpdatedAt,
	}
	if recipe.DerivedIngredientID != nil {
		derived := snowflake.ID(*recipe.DerivedIngredientID).String()
		resp.DerivedIngredientID = &derived
	}

	for _, dt := range details {
		coefficient := dt.YieldCoefficient
		if !coefficient.IsPositive() {
			coefficient = decimal.NewFromInt(1)
		}
		resp.Lines = append(resp.Lines, domain.LineResponse{
			IngredientID:   snowflake.ID(dt.IngredientID).String(),
			IngredientName: dt.IngredientName,
			Quantity:       dt.Quantity,
			UnitPrice:      dt.CurrentPrice,
			LineCost:       dt.Quantity.Mul(dt.CurrentPrice.Div(coefficient)).Round(2),
			IsPackaging:    dt.Category == ingredientdomain.CategoryEmbalagem,
		})
	}
	return resp
}

func toCostingLines(details []domain.LineDetail) []costing.Line {
	lines := make([]costing.Line, 0, len(details))
	for _, dt := range details {
		lines = append(lines, costing.Line{
			IngredientID:     dt.IngredientID,
			Quantity:         dt.Quantity,
			UnitPrice:        dt.CurrentPrice,
			YieldCoefficient: dt.YieldCoefficient,
			IsPackaging:      dt.Category == ingredientdomain.CategoryEmbalagem,
		})
	}
	return lines
}
