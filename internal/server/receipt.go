package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	receiptdomain "github.com/cozinhalabs/radar/internal/receipt/domain"
)

// UploadReceipt accepts a multipart form with an "image" file, runs OCR and
// stages the receipt for validation.
func (s *Server) UploadReceipt(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		AbortWithError(c, newValidationError("image", "image_required", "image file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.receiptSvc.Upload(c.Request.Context(), receiptdomain.UploadRequest{
		Image:    image,
		Filename: fileHeader.Filename,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPendingReceipts(c *gin.Context) {
	resp, err := s.receiptSvc.ListPending(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetReceiptByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.receiptSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ValidateReceipt confirms item to ingredient associations and kicks off the
// price update plus recipe recalculation cascade.
func (s *Server) ValidateReceipt(c *gin.Context) {
	var req receiptdomain.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.receiptSvc.Validate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RejectReceipt(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.receiptSvc.Reject(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"rejected": true}})
}

func isReceiptValidationError(err error) bool {
	switch err {
	case receiptdomain.ErrInvalidID,
		receiptdomain.ErrEmptyImage,
		receiptdomain.ErrUnreadableScan,
		receiptdomain.ErrNoItemsDetected,
		receiptdomain.ErrNoItemsConfirmed:
		return true
	default:
		return false
	}
}
