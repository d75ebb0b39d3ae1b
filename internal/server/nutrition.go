package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	nutritiondomain "github.com/cozinhalabs/radar/internal/nutrition/domain"
)

func (s *Server) ListNutritionRefs(c *gin.Context) {
	var query struct {
		Search string `form:"search"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.nutritionSvc.List(c.Request.Context(), strings.TrimSpace(query.Search))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetNutritionRefByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.nutritionSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateNutritionRef(c *gin.Context) {
	var req nutritiondomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	resp, err := s.nutritionSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateNutritionRef(c *gin.Context) {
	var req nutritiondomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.nutritionSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isNutritionValidationError(err error) bool {
	switch err {
	case nutritiondomain.ErrInvalidID,
		nutritiondomain.ErrInvalidName,
		nutritiondomain.ErrInvalidValue,
		nutritiondomain.ErrInvalidPortion,
		nutritiondomain.ErrInsufficientData:
		return true
	default:
		return false
	}
}
