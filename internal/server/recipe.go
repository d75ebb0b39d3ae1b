package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	recipedomain "github.com/cozinhalabs/radar/internal/recipe/domain"
)

func (s *Server) ListRecipes(c *gin.Context) {
	var query struct {
		Search string `form:"search"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recipeSvc.List(c.Request.Context(), strings.TrimSpace(query.Search))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateRecipe(c *gin.Context) {
	var req recipedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	resp, err := s.recipeSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRecipeByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.recipeSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateRecipe(c *gin.Context) {
	var req recipedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.recipeSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteRecipe(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.recipeSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

// RecalculateRecipe reprices one recipe on demand and cascades into dependent
// recipes when it feeds a pre-preparo ingredient.
func (s *Server) RecalculateRecipe(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.recipeSvc.Recalculate(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRecipeHistory(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.recipeSvc.History(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetRecipeLabel builds the per-portion nutrition panel. With format=pdf the
// response is the rendered document instead of JSON.
func (s *Server) GetRecipeLabel(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	portionG := decimal.NewFromInt(100)
	if raw := strings.TrimSpace(c.Query("portion_g")); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("portion_g", "invalid_portion", "invalid portion"))
			return
		}
		portionG = parsed
	}

	if strings.EqualFold(strings.TrimSpace(c.Query("format")), "pdf") {
		reader, err := s.recipeSvc.RenderLabelPDF(c.Request.Context(), id, portionG)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		doc, err := io.ReadAll(reader)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Header("Content-Disposition", `attachment; filename="nutrition-label.pdf"`)
		c.Data(http.StatusOK, "application/pdf", doc)
		return
	}

	resp, err := s.recipeSvc.Label(c.Request.Context(), id, portionG)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isRecipeValidationError(err error) bool {
	switch err {
	case recipedomain.ErrInvalidID,
		recipedomain.ErrInvalidName,
		recipedomain.ErrInvalidYield,
		recipedomain.ErrInvalidLaborCost,
		recipedomain.ErrInvalidLine,
		recipedomain.ErrIngredientMissing,
		recipedomain.ErrCompositionCycle,
		recipedomain.ErrNothingToUpdate:
		return true
	default:
		return false
	}
}
