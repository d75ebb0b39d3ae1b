package service

import (
	"context"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	ingredientdomain "github.com/cozinhalabs/radar/internal/ingredient/domain"
	nutritiondomain "github.com/cozinhalabs/radar/internal/nutrition/domain"
	"github.com/cozinhalabs/radar/internal/providers/notify"
	"github.com/cozinhalabs/radar/internal/recalc"
	"github.com/cozinhalabs/radar/internal/recipe/costing"
	"github.com/cozinhalabs/radar/internal/recipe/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type repriceOutcome struct {
	totals         costing.Totals
	oldCMVPerUnit  decimal.Decimal
	oldCurrentCost decimal.Decimal
	derivedChanged bool
	details        []domain.LineDetail
}

// reprice recomputes one recipe's cost from current ingredient prices, writes
// the result and a cost snapshot, and for pre-preparo recipes pushes the new
// unit cost into the derived ingredient.
func (s *Service) reprice(ctx context.Context, recipe *domain.Recipe, trigger string, causes map[int64]bool) (*repriceOutcome, error) {
	details, err := s.repo.FindLineDetails(ctx, s.db, recipe.ID)
	if err != nil {
		return nil, err
	}

	totals := costing.ComputeRecipeTotals(recipe.YieldUnits, toCostingLines(details), recipe.LaborCost)

	outcome := &repriceOutcome{
		totals:         totals,
		oldCMVPerUnit:  recipe.CMVPerUnit,
		oldCurrentCost: recipe.CurrentCost,
		details:        details,
	}

	if recipe.IsPrePreparo {
		refID, err := s.materializeNutrition(ctx, recipe, details, totals.TotalWeightKg)
		if err != nil {
			return nil, err
		}

		derivedID, err := s.ingredients.UpsertDerived(ctx, ingredientdomain.UpsertDerivedRequest{
			ID:             recipe.DerivedIngredientID,
			Name:           recipe.Name,
			Unit:           recipe.ProductionUnit,
			Price:          totals.CMVPerUnit,
			NutritionRefID: refID,
		})
		if err != nil {
			return nil, err
		}
		recipe.DerivedIngredientID = &derivedID
		outcome.derivedChanged = !outcome.oldCMVPerUnit.Equal(totals.CMVPerUnit)
	}

	now := time.Now().UTC()
	recipe.IngredientsCost = totals.IngredientsCost
	recipe.PackagingCost = totals.PackagingCost
	recipe.CurrentCost = totals.CurrentCost
	recipe.TotalWeightKg = totals.TotalWeightKg
	recipe.CMVPerUnit = totals.CMVPerUnit
	recipe.CMVPerKg = totals.CMVPerKg
	recipe.LastCalculated = &now
	recipe.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, recipe); err != nil {
		return nil, err
	}
	if err := s.repo.AppendSnapshot(ctx, s.db, &domain.CostSnapshot{
		ID:              s.genID.Generate().Int64(),
		RecipeID:        recipe.ID,
		IngredientsCost: totals.IngredientsCost,
		PackagingCost:   totals.PackagingCost,
		LaborCost:       recipe.LaborCost,
		CurrentCost:     totals.CurrentCost,
		CMVPerUnit:      totals.CMVPerUnit,
		CMVPerKg:        totals.CMVPerKg,
		Trigger:         trigger,
		CreatedAt:       now,
	}); err != nil {
		return nil, err
	}

	s.notifyCostChange(ctx, recipe, outcome, trigger, causes)
	return outcome, nil
}

// notifyCostChange announces a moved unit cost. Delivery failures never fail
// the recalculation.
func (s *Service) notifyCostChange(ctx context.Context, recipe *domain.Recipe, outcome *repriceOutcome, trigger string, causes map[int64]bool) {
	if trigger == domain.TriggerCreate || trigger == domain.TriggerUpdate {
		return
	}
	if outcome.oldCMVPerUnit.Equal(recipe.CMVPerUnit) {
		return
	}

	var affected []string
	for _, dt := range outcome.details {
		if causes[dt.IngredientID] {
			affected = append(affected, dt.IngredientName)
		}
	}

	err := s.notifier.SendCMVUpdate(ctx, notify.CMVUpdate{
		RecipeName:          recipe.Name,
		OldCMVPerUnit:       outcome.oldCMVPerUnit,
		NewCMVPerUnit:       recipe.CMVPerUnit,
		AffectedIngredients: affected,
	})
	s.metrics.ObserveNotification("cmv_update", err)
	if err != nil {
		s.log.Warn("cmv update notification failed",
			zap.Int64("recipe_id", recipe.ID),
			zap.Error(err),
		)
	}
}

func (s *Service) materializeNutrition(ctx context.Context, recipe *domain.Recipe, details []domain.LineDetail, totalWeightKg decimal.Decimal) (*int64, error) {
	lines := make([]nutritiondomain.MaterializeLine, 0, len(details))
	for _, dt := range details {
		if dt.Category == ingredientdomain.CategoryEmbalagem {
			continue
		}
		lines = append(lines, nutritiondomain.MaterializeLine{
			QuantityKg: dt.Quantity,
			RefID:      dt.NutritionRefID,
		})
	}

	return s.nutrition.Materialize(ctx, nutritiondomain.MaterializeRequest{
		Name:          recipe.Name,
		Lines:         lines,
		TotalWeightKg: totalWeightKg,
		ExistingRefID: s.derivedNutritionRef(ctx, recipe),
	})
}

// derivedNutritionRef returns the nutrition reference already attached to the
// recipe's derived ingredient, so materialization updates it in place.
func (s *Service) derivedNutritionRef(ctx context.Context, recipe *domain.Recipe) *int64 {
	if recipe.DerivedIngredientID == nil {
		return nil
	}

	derived, err := s.ingredients.Get(ctx, snowflake.ID(*recipe.DerivedIngredientID).String())
	if err != nil || derived == nil || derived.NutritionRefID == nil {
		return nil
	}
	refID, err := snowflake.ParseString(*derived.NutritionRefID)
	if err != nil {
		return nil
	}
	id := refID.Int64()
	return &id
}

func (s *Service) Recalculate(ctx context.Context, id string) (*domain.Response, error) {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	outcome, skipped, err := s.repriceLocked(ctx, recipe, domain.TriggerManual, nil)
	if err != nil {
		return nil, err
	}
	if !skipped && outcome.derivedChanged && recipe.DerivedIngredientID != nil {
		if _, err := s.RecalculateAffected(ctx, []int64{*recipe.DerivedIngredientID}, domain.TriggerCascade); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, id)
}

func (s *Service) RecalculateAffected(ctx context.Context, ingredientIDs []int64, trigger string) (int, error) {
	start := time.Now()
	visited := map[int64]bool{}
	causes := map[int64]bool{}
	count := 0

	worklist := append([]int64(nil), ingredientIDs...)
	for len(worklist) > 0 {
		wave := worklist
		worklist = nil
		for _, id := range wave {
			causes[id] = true
		}

		recipeIDs, err := s.repo.FindRecipeIDsByIngredients(ctx, s.db, wave)
		if err != nil {
			return count, err
		}

		for _, recipeID := range recipeIDs {
			if visited[recipeID] {
				continue
			}
			visited[recipeID] = true

			recipe, err := s.repo.FindByID(ctx, s.db, recipeID)
			if err != nil {
				return count, err
			}
			if recipe == nil {
				continue
			}

			outcome, skipped, err := s.repriceLocked(ctx, recipe, trigger, causes)
			if err != nil {
				return count, err
			}
			if skipped {
				continue
			}
			count++

			if outcome.derivedChanged && recipe.DerivedIngredientID != nil {
				worklist = append(worklist, *recipe.DerivedIngredientID)
			}
		}
	}

	s.metrics.ObserveRecalculation(trigger, count, time.Since(start))
	s.log.Info("recalculation cascade finished",
		zap.String("trigger", trigger),
		zap.Int("recipes", count),
	)
	return count, nil
}

// repriceLocked guards one recipe's recalculation with the distributed lock
// when one is configured. A recipe already locked by another instance is
// skipped; that instance recomputes from the same current prices.
func (s *Service) repriceLocked(ctx context.Context, recipe *domain.Recipe, trigger string, causes map[int64]bool) (*repriceOutcome, bool, error) {
	if s.locker != nil {
		key := recalc.RecipeKey(recipe.ID)
		token, ok, err := s.locker.TryLock(ctx, key, recalc.LockTTL)
		if err != nil {
			s.log.Warn("recalc lock unavailable, proceeding unguarded",
				zap.Int64("recipe_id", recipe.ID),
				zap.Error(err),
			)
		} else if !ok {
			s.log.Info("recipe locked by another instance, skipping",
				zap.Int64("recipe_id", recipe.ID),
			)
			return nil, true, nil
		} else {
			defer func() {
				if err := s.locker.Release(ctx, key, token); err != nil {
					s.log.Warn("recalc lock release failed",
						zap.Int64("recipe_id", recipe.ID),
						zap.Error(err),
					)
				}
			}()
		}
	}

	outcome, err := s.reprice(ctx, recipe, trigger, causes)
	if err != nil {
		return nil, false, err
	}
	return outcome, false, nil
}

func (s *Service) Label(ctx context.Context, id string, portionG decimal.Decimal) (*nutritiondomain.Label, error) {
	req, err := s.labelRequest(ctx, id, portionG)
	if err != nil {
		s.metrics.ObserveLabelRender("error")
		return nil, err
	}

	label, err := s.nutrition.Label(ctx, *req)
	if err != nil {
		s.metrics.ObserveLabelRender(labelOutcome(err))
		return nil, err
	}
	s.metrics.ObserveLabelRender("ok")
	return label, nil
}

func (s *Service) RenderLabelPDF(ctx context.Context, id string, portionG decimal.Decimal) (io.Reader, error) {
	req, err := s.labelRequest(ctx, id, portionG)
	if err != nil {
		s.metrics.ObserveLabelRender("error")
		return nil, err
	}

	reader, err := s.nutrition.RenderLabelPDF(ctx, *req)
	if err != nil {
		s.metrics.ObserveLabelRender(labelOutcome(err))
		return nil, err
	}
	s.metrics.ObserveLabelRender("ok")
	return reader, nil
}

func (s *Service) labelRequest(ctx context.Context, id string, portionG decimal.Decimal) (*nutritiondomain.LabelRequest, error) {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	details, err := s.repo.FindLineDetails(ctx, s.db, recipe.ID)
	if err != nil {
		return nil, err
	}

	lines := make([]nutritiondomain.MaterializeLine, 0, len(details))
	for _, dt := range details {
		if dt.Category == ingredientdomain.CategoryEmbalagem {
			continue
		}
		lines = append(lines, nutritiondomain.MaterializeLine{
			QuantityKg: dt.Quantity,
			RefID:      dt.NutritionRefID,
		})
	}

	return &nutritiondomain.LabelRequest{
		RecipeName:    recipe.Name,
		PortionG:      portionG,
		TotalWeightKg: recipe.TotalWeightKg,
		Lines:         lines,
	}, nil
}

func labelOutcome(err error) string {
	if err == nutritiondomain.ErrInsufficientData {
		return "insufficient_data"
	}
	return "error"
}
