package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	ingredientdomain "github.com/cozinhalabs/radar/internal/ingredient/domain"
)

type createIngredientRequest struct {
	Name             string           `json:"name"`
	Category         string           `json:"category"`
	CurrentPrice     decimal.Decimal  `json:"current_price"`
	YieldCoefficient *decimal.Decimal `json:"yield_coefficient"`
	Unit             string           `json:"unit"`
}

func (s *Server) CreateIngredient(c *gin.Context) {
	var req createIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	yield := decimal.NewFromInt(1)
	if req.YieldCoefficient != nil {
		yield = *req.YieldCoefficient
	}

	resp, err := s.ingredientSvc.Create(c.Request.Context(), ingredientdomain.CreateRequest{
		Name:             strings.TrimSpace(req.Name),
		Category:         strings.TrimSpace(req.Category),
		CurrentPrice:     req.CurrentPrice,
		YieldCoefficient: yield,
		Unit:             strings.TrimSpace(req.Unit),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListIngredients(c *gin.Context) {
	var query struct {
		Search   string `form:"search"`
		Category string `form:"category"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ingredientSvc.List(c.Request.Context(), ingredientdomain.ListRequest{
		Search:   strings.TrimSpace(query.Search),
		Category: strings.TrimSpace(query.Category),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ListIncompleteIngredients returns ingredients still carrying a zero price,
// typically placeholders created during receipt validation.
func (s *Server) ListIncompleteIngredients(c *gin.Context) {
	resp, err := s.ingredientSvc.ListIncomplete(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetIngredientByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.ingredientSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateIngredient(c *gin.Context) {
	var req ingredientdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.ingredientSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCategories(c *gin.Context) {
	var query struct {
		Search string `form:"search"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ingredientSvc.ListCategories(c.Request.Context(), strings.TrimSpace(query.Search))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ingredientSvc.CreateCategory(c.Request.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isIngredientValidationError(err error) bool {
	switch err {
	case ingredientdomain.ErrInvalidID,
		ingredientdomain.ErrInvalidName,
		ingredientdomain.ErrInvalidPrice,
		ingredientdomain.ErrInvalidCategory,
		ingredientdomain.ErrInvalidRawName,
		ingredientdomain.ErrInvalidYieldCoef,
		ingredientdomain.ErrNothingToUpdate:
		return true
	default:
		return false
	}
}
