package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cozinhalabs/radar/internal/config"
	"github.com/cozinhalabs/radar/internal/nutrition/domain"
	"github.com/cozinhalabs/radar/internal/providers/pdf"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
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
	DailyValues config.DailyValues
	Renderer    *pdf.LabelRenderer
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        domain.Repository
	genID       *snowflake.Node
	dailyValues config.DailyValues
	renderer    *pdf.LabelRenderer
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("nutrition.service"),
		repo:        p.Repo,
		genID:       p.GenID,
		dailyValues: p.DailyValues,
		renderer:    p.Renderer,
	}
}

var (
	grams      = decimal.NewFromInt(1000)
	oneHundred = decimal.NewFromInt(100)
)

// vector accumulates the eight nutrient fields during aggregation.
type vector struct {
	EnergyKcal    decimal.Decimal
	EnergyKJ      decimal.Decimal
	ProteinG      decimal.Decimal
	CarbG         decimal.Decimal
	LipidG        decimal.Decimal
	SaturatedFatG decimal.Decimal
	TransFatG     decimal.Decimal
	FiberG        decimal.Decimal
	SodiumMG      decimal.Decimal
}

func (v *vector) addScaled(ref domain.Ref, multiplier decimal.Decimal) {
	v.EnergyKcal = v.EnergyKcal.Add(ref.EnergyKcal.Mul(multiplier))
	v.EnergyKJ = v.EnergyKJ.Add(ref.EnergyKJ.Mul(multiplier))
	v.ProteinG = v.ProteinG.Add(ref.ProteinG.Mul(multiplier))
	v.CarbG = v.CarbG.Add(ref.CarbG.Mul(multiplier))
	v.LipidG = v.LipidG.Add(ref.LipidG.Mul(multiplier))
	v.SaturatedFatG = v.SaturatedFatG.Add(ref.SaturatedFatG.Mul(multiplier))
	v.TransFatG = v.TransFatG.Add(ref.TransFatG.Mul(multiplier))
	v.FiberG = v.FiberG.Add(ref.FiberG.Mul(multiplier))
	v.SodiumMG = v.SodiumMG.Add(ref.SodiumMG.Mul(multiplier))
}

func (v *vector) scale(factor decimal.Decimal, places int32) vector {
	round := func(d decimal.Decimal) decimal.Decimal { return d.Mul(factor).Round(places) }
	return vector{
		EnergyKcal:    round(v.EnergyKcal),
		EnergyKJ:      round(v.EnergyKJ),
		ProteinG:      round(v.ProteinG),
		CarbG:         round(v.CarbG),
		LipidG:        round(v.LipidG),
		SaturatedFatG: round(v.SaturatedFatG),
		TransFatG:     round(v.TransFatG),
		FiberG:        round(v.FiberG),
		SodiumMG:      round(v.SodiumMG),
	}
}

// accumulate sums every line's reference contribution at its batch quantity.
// The boolean reports whether any line carried nutrition data at all.
func (s *Service) accumulate(ctx context.Context, lines []domain.MaterializeLine) (vector, bool, error) {
	var ids []int64
	for _, line := range lines {
		if line.RefID != nil {
			ids = append(ids, *line.RefID)
		}
	}

	var batch vector
	if len(ids) == 0 {
		return batch, false, nil
	}

	refs, err := s.repo.FindByIDs(ctx, s.db, ids)
	if err != nil {
		return batch, false, err
	}

	hasData := false
	for _, line := range lines {
		if line.RefID == nil {
			continue
		}
		ref, ok := refs[*line.RefID]
		if !ok {
			continue
		}

		baseQty := ref.BaseQtyG
		if !baseQty.IsPositive() {
			baseQty = oneHundred
		}
		quantityG := line.QuantityKg.Mul(grams)
		multiplier := quantityG.Div(baseQty)
		batch.addScaled(ref, multiplier)
		hasData = true
	}
	return batch, hasData, nil
}

func (s *Service) Materialize(ctx context.Context, req domain.MaterializeRequest) (*int64, error) {
	if !req.TotalWeightKg.IsPositive() {
		return req.ExistingRefID, nil
	}

	batch, hasData, err := s.accumulate(ctx, req.Lines)
	if err != nil {
		return nil, err
	}
	if !hasData {
		return req.ExistingRefID, nil
	}

	totalWeightG := req.TotalWeightKg.Mul(grams)
	per100 := batch.scale(oneHundred.Div(totalWeightG), 2)

	now := time.Now().UTC()
	name := strings.TrimSpace(req.Name)

	if req.ExistingRefID != nil {
		existing, err := s.repo.FindByID(ctx, s.db, *req.ExistingRefID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			applyVector(existing, name, per100, now)
			if err := s.repo.Update(ctx, s.db, existing); err != nil {
				return nil, err
			}
			return &existing.ID, nil
		}
	}

	ref := &domain.Ref{
		ID:        s.genID.Generate().Int64(),
		Code:      generateCode(name),
		BaseQtyG:  oneHundred,
		CreatedAt: now,
	}
	applyVector(ref, name, per100, now)
	if err := s.repo.Create(ctx, s.db, ref); err != nil {
		return nil, err
	}

	s.log.Info("nutrition reference materialized",
		zap.Int64("ref_id", ref.ID),
		zap.String("code", ref.Code),
	)
	return &ref.ID, nil
}

func applyVector(ref *domain.Ref, name string, values vector, now time.Time) {
	if name != "" {
		ref.Name = name
	}
	ref.BaseQtyG = oneHundred
	ref.EnergyKcal = values.EnergyKcal
	ref.EnergyKJ = values.EnergyKJ
	ref.ProteinG = values.ProteinG
	ref.CarbG = values.CarbG
	ref.LipidG = values.LipidG
	ref.SaturatedFatG = values.SaturatedFatG
	ref.TransFatG = values.TransFatG
	ref.FiberG = values.FiberG
	ref.SodiumMG = values.SodiumMG
	ref.UpdatedAt = now
}

func generateCode(name string) string {
	base := slug.Make(name)
	if base == "" {
		base = "ref"
	}
	return base + "-" + uuid.NewString()[:8]
}

func (s *Service) List(ctx context.Context, search string) ([]domain.Response, error) {
	refs, err := s.repo.List(ctx, s.db, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(refs))
	for i := range refs {
		resp = append(resp, toResponse(&refs[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	refID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	ref, err := s.repo.FindByID(ctx, s.db, refID.Int64())
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(ref)
	return &resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	values := []decimal.Decimal{
		req.EnergyKcal, req.EnergyKJ, req.ProteinG, req.CarbG, req.LipidG,
		req.SaturatedFatG, req.TransFatG, req.FiberG, req.SodiumMG,
	}
	for _, value := range values {
		if value.IsNegative() {
			return nil, domain.ErrInvalidValue
		}
	}

	now := time.Now().UTC()
	ref := &domain.Ref{
		ID:            s.genID.Generate().Int64(),
		Code:          generateCode(name),
		Name:          name,
		BaseQtyG:      oneHundred,
		EnergyKcal:    req.EnergyKcal,
		EnergyKJ:      req.EnergyKJ,
		ProteinG:      req.ProteinG,
		CarbG:         req.CarbG,
		LipidG:        req.LipidG,
		SaturatedFatG: req.SaturatedFatG,
		TransFatG:     req.TransFatG,
		FiberG:        req.FiberG,
		SodiumMG:      req.SodiumMG,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, s.db, ref); err != nil {
		return nil, err
	}

	resp := toResponse(ref)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	refID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	ref, err := s.repo.FindByID(ctx, s.db, refID.Int64())
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		ref.Name = name
	}

	fields := map[*decimal.Decimal]*decimal.Decimal{
		&ref.EnergyKcal:    req.EnergyKcal,
		&ref.EnergyKJ:      req.EnergyKJ,
		&ref.ProteinG:      req.ProteinG,
		&ref.CarbG:         req.CarbG,
		&ref.LipidG:        req.LipidG,
		&ref.SaturatedFatG: req.SaturatedFatG,
		&ref.TransFatG:     req.TransFatG,
		&ref.FiberG:        req.FiberG,
		&ref.SodiumMG:      req.SodiumMG,
	}
	for target, value := range fields {
		if value == nil {
			continue
		}
		if value.IsNegative() {
			return nil, domain.ErrInvalidValue
		}
		*target = *value
	}

	ref.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, ref); err != nil {
		return nil, err
	}

	resp := toResponse(ref)
	return &resp, nil
}

func toResponse(ref *domain.Ref) domain.Response {
	return domain.Response{
		ID:            snowflake.ID(ref.ID).String(),
		Code:          ref.Code,
		Name:          ref.Name,
		BaseQtyG:      ref.BaseQtyG,
		EnergyKcal:    ref.EnergyKcal,
		EnergyKJ:      ref.EnergyKJ,
		ProteinG:      ref.ProteinG,
		CarbG:         ref.CarbG,
		LipidG:        ref.LipidG,
		SaturatedFatG: ref.SaturatedFatG,
		TransFatG:     ref.TransFatG,
		FiberG:        ref.FiberG,
		SodiumMG:      ref.SodiumMG,
		CreatedAt:     ref.CreatedAt,
		UpdatedAt:     ref.UpdatedAt,
	}
}
