package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cozinhalabs/radar/internal/ingredient/domain"
	"github.com/cozinhalabs/radar/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// matchPrefixLen bounds how much of a raw receipt name feeds the mapping
// lookup. OCR noise concentrates in the tail of long lines.
const matchPrefixLen = 20

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ingredient.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	items, err := s.repo.List(ctx, s.db, domain.ListRequest{
		Search:   strings.TrimSpace(req.Search),
		Category: strings.TrimSpace(req.Category),
	})
	if err != nil {
		return nil, err
	}
	return s.toResponses(items), nil
}

func (s *Service) ListIncomplete(ctx context.Context) ([]domain.Response, error) {
	items, err := s.repo.FindIncomplete(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return s.toResponses(items), nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	ingredientID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, ingredientID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.CurrentPrice.IsNegative() {
		return nil, domain.ErrInvalidPrice
	}

	coefficient := req.YieldCoefficient
	if coefficient.IsZero() {
		coefficient = decimal.NewFromInt(1)
	}
	if coefficient.IsNegative() {
		return nil, domain.ErrInvalidYieldCoef
	}

	unit := strings.ToUpper(strings.TrimSpace(req.Unit))
	if unit == "" {
		unit = "KG"
	}

	now := time.Now().UTC()
	item := &domain.Ingredient{
		ID:               s.genID.Generate().Int64(),
		Name:             name,
		Category:         strings.TrimSpace(req.Category),
		CurrentPrice:     req.CurrentPrice,
		YieldCoefficient: coefficient,
		Unit:             unit,
		LastUpdated:      now,
		CreatedAt:        now,
	}
	if err := s.repo.Create(ctx, s.db, item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, err
	}

	s.log.Info("ingredient created", zap.Int64("ingredient_id", item.ID), zap.String("name", item.Name))

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	ingredientID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	if req.Name == nil && req.Category == nil && req.CurrentPrice == nil &&
		req.YieldCoefficient == nil && req.Unit == nil && req.NutritionRefID == nil {
		return nil, domain.ErrNothingToUpdate
	}

	item, err := s.repo.FindByID(ctx, s.db, ingredientID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Category != nil {
		item.Category = strings.TrimSpace(*req.Category)
	}
	if req.CurrentPrice != nil {
		if req.CurrentPrice.IsNegative() {
			return nil, domain.ErrInvalidPrice
		}
		item.CurrentPrice = *req.CurrentPrice
	}
	if req.YieldCoefficient != nil {
		if !req.YieldCoefficient.IsPositive() {
			return nil, domain.ErrInvalidYieldCoef
		}
		item.YieldCoefficient = *req.YieldCoefficient
	}
	if req.Unit != nil {
		item.Unit = strings.ToUpper(strings.TrimSpace(*req.Unit))
	}
	if req.NutritionRefID != nil {
		// An empty string detaches the reference.
		if strings.TrimSpace(*req.NutritionRefID) == "" {
			item.NutritionRefID = nil
		} else {
			refID, err := snowflake.ParseString(strings.TrimSpace(*req.NutritionRefID))
			if err != nil {
				return nil, domain.ErrInvalidID
			}
			id := refID.Int64()
			item.NutritionRefID = &id
		}
	}

	item.LastUpdated = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, err
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) Match(ctx context.Context, rawName string) (*domain.Matched, error) {
	rawName = strings.TrimSpace(rawName)
	if rawName == "" {
		return nil, nil
	}

	prefix := rawName
	if len(prefix) > matchPrefixLen {
		prefix = prefix[:matchPrefixLen]
	}

	mapping, err := s.repo.FindMapping(ctx, s.db, prefix)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, nil
	}

	item, err := s.repo.FindByID(ctx, s.db, mapping.IngredientID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		// Mapping points at a removed ingredient. Treat as unmatched.
		s.log.Warn("product map references missing ingredient",
			zap.Int64("ingredient_id", mapping.IngredientID),
			zap.String("raw_name", mapping.RawName),
		)
		return nil, nil
	}

	return &domain.Matched{ID: item.ID, Name: item.Name, Category: item.Category}, nil
}

func (s *Service) Learn(ctx context.Context, rawName string, ingredientID int64) error {
	rawName = strings.TrimSpace(rawName)
	if rawName == "" {
		return domain.ErrInvalidRawName
	}

	return s.repo.UpsertMapping(ctx, s.db, &domain.ProductMap{
		ID:           s.genID.Generate().Int64(),
		RawName:      rawName,
		IngredientID: ingredientID,
		Confidence:   decimal.NewFromInt(1),
		CreatedAt:    time.Now().UTC(),
	})
}

func (s *Service) UpdatePrice(ctx context.Context, ingredientID int64, price decimal.Decimal) (*domain.PriceChange, error) {
	if price.IsNegative() {
		return nil, domain.ErrInvalidPrice
	}

	item, err := s.repo.FindByID(ctx, s.db, ingredientID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	change := &domain.PriceChange{
		IngredientID: item.ID,
		Name:         item.Name,
		OldPrice:     item.CurrentPrice,
		NewPrice:     price,
	}

	item.CurrentPrice = price
	item.LastUpdated = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	return change, nil
}

func (s *Service) UpsertDerived(ctx context.Context, req domain.UpsertDerivedRequest) (int64, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return 0, domain.ErrInvalidName
	}
	if req.Price.IsNegative() {
		return 0, domain.ErrInvalidPrice
	}

	unit := strings.ToUpper(strings.TrimSpace(req.Unit))
	if unit == "" {
		unit = "KG"
	}

	now := time.Now().UTC()

	if req.ID != nil {
		item, err := s.repo.FindByID(ctx, s.db, *req.ID)
		if err != nil {
			return 0, err
		}
		if item != nil {
			item.Name = name
			item.Category = domain.CategoryPrePreparo
			item.CurrentPrice = req.Price
			item.Unit = unit
			item.NutritionRefID = req.NutritionRefID
			item.LastUpdated = now
			if err := s.repo.Update(ctx, s.db, item); err != nil {
				return 0, err
			}
			return item.ID, nil
		}
	}

	item := &domain.Ingredient{
		ID:               s.genID.Generate().Int64(),
		Name:             name,
		Category:         domain.CategoryPrePreparo,
		CurrentPrice:     req.Price,
		YieldCoefficient: decimal.NewFromInt(1),
		Unit:             unit,
		NutritionRefID:   req.NutritionRefID,
		LastUpdated:      now,
		CreatedAt:        now,
	}
	if err := s.repo.Create(ctx, s.db, item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return 0, domain.ErrDuplicateName
		}
		return 0, err
	}

	s.log.Info("derived ingredient created",
		zap.Int64("ingredient_id", item.ID),
		zap.String("name", item.Name),
	)
	return item.ID, nil
}

func (s *Service) ListCategories(ctx context.Context, search string) ([]domain.CategoryResponse, error) {
	items, err := s.repo.ListCategories(ctx, s.db, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}

	resp := make([]domain.CategoryResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.CategoryResponse{
			ID:        snowflake.ID(item.ID).String(),
			Name:      item.Name,
			CreatedAt: item.CreatedAt,
		})
	}
	return resp, nil
}

func (s *Service) CreateCategory(ctx context.Context, name string) (*domain.CategoryResponse, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, domain.ErrInvalidCategory
	}

	category := &domain.Category{
		ID:        s.genID.Generate().Int64(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateCategory(ctx, s.db, category); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrCategoryExists
		}
		return nil, err
	}

	return &domain.CategoryResponse{
		ID:        snowflake.ID(category.ID).String(),
		Name:      category.Name,
		CreatedAt: category.CreatedAt,
	}, nil
}

func (s *Service) toResponses(items []domain.Ingredient) []domain.Response {
	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, s.toResponse(&items[i]))
	}
	return resp
}

func (s *Service) toResponse(i *domain.Ingredient) domain.Response {
	resp := domain.Response{
		ID:               snowflake.ID(i.ID).String(),
		Name:             i.Name,
		Category:         i.Category,
		CurrentPrice:     i.CurrentPrice,
		YieldCoefficient: i.YieldCoefficient,
		Unit:             i.Unit,
		LastUpdated:      i.LastUpdated,
		CreatedAt:        i.CreatedAt,
	}
	if i.NutritionRefID != nil {
		refID := snowflake.ID(*i.NutritionRefID).String()
		resp.NutritionRefID = &refID
	}
	return resp
}
