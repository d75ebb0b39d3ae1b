package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cozinhalabs/radar/internal/config"
	ingredientdomain "github.com/cozinhalabs/radar/internal/ingredient/domain"
	"github.com/cozinhalabs/radar/internal/ratelimit"
	nutritiondomain "github.com/cozinhalabs/radar/internal/nutrition/domain"
	receiptdomain "github.com/cozinhalabs/radar/internal/receipt/domain"
	recipedomain "github.com/cozinhalabs/radar/internal/recipe/domain"
	"github.com/cozinhalabs/radar/pkg/telemetry"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

type EngineParams struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Metrics *telemetry.Metrics `optional:"true"`
}

func NewEngine(p EngineParams) *gin.Engine {
	if p.Cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CorrelationMiddleware())
	r.Use(TracingMiddleware())
	r.Use(RequestLogging(p.Log))
	r.Use(MetricsMiddleware(p.Metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if p.Cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	genID         *snowflake.Node
	ingredientSvc ingredientdomain.Service
	nutritionSvc  nutritiondomain.Service
	recipeSvc     recipedomain.Service
	receiptSvc    receiptdomain.Service
	uploadLimiter *ratelimit.UploadLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	IngredientSvc ingredientdomain.Service
	NutritionSvc  nutritiondomain.Service
	RecipeSvc     recipedomain.Service
	ReceiptSvc    receiptdomain.Service
	UploadLimiter *ratelimit.UploadLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		ingredientSvc: p.IngredientSvc,
		nutritionSvc:  p.NutritionSvc,
		recipeSvc:     p.RecipeSvc,
		receiptSvc:    p.ReceiptSvc,
		uploadLimiter: p.UploadLimiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Receipts --------
	api.POST("/receipts/upload", s.UploadRateLimit(), s.UploadReceipt)
	api.GET("/receipts/pending", s.ListPendingReceipts)
	api.GET("/receipts/:id", s.GetReceiptByID)
	api.PUT("/receipts/:id/validate", s.ValidateReceipt)
	api.PUT("/receipts/:id/reject", s.RejectReceipt)

	// -------- Ingredients --------
	api.GET("/ingredients", s.ListIngredients)
	api.POST("/ingredients", s.CreateIngredient)
	api.GET("/ingredients/pending", s.ListIncompleteIngredients)
	api.GET("/ingredients/:id", s.GetIngredientByID)
	api.PUT("/ingredients/:id", s.UpdateIngredient)

	// -------- Categories --------
	api.GET("/categories", s.ListCategories)
	api.POST("/categories", s.CreateCategory)

	// -------- Recipes --------
	api.GET("/recipes", s.ListRecipes)
	api.POST("/recipes", s.CreateRecipe)
	api.GET("/recipes/:id", s.GetRecipeByID)
	api.PUT("/recipes/:id", s.UpdateRecipe)
	api.DELETE("/recipes/:id", s.DeleteRecipe)
	api.POST("/recipes/:id/recalculate", s.RecalculateRecipe)
	api.GET("/recipes/:id/history", s.GetRecipeHistory)
	api.GET("/recipes/:id/label", s.GetRecipeLabel)

	// -------- Nutrition references --------
	api.GET("/nutrition-refs", s.ListNutritionRefs)
	api.POST("/nutrition-refs", s.CreateNutritionRef)
	api.GET("/nutrition-refs/:id", s.GetNutritionRefByID)
	api.PUT("/nutrition-refs/:id", s.UpdateNutritionRef)
}
