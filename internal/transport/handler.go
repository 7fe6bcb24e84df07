package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/S93RUM-06/ocr-pipeline/internal/config"
	apperrors "github.com/S93RUM-06/ocr-pipeline/internal/errors"
	"github.com/S93RUM-06/ocr-pipeline/internal/logger"
	"github.com/S93RUM-06/ocr-pipeline/internal/repository"
	"github.com/S93RUM-06/ocr-pipeline/internal/service"
	"github.com/S93RUM-06/ocr-pipeline/pkg/models"
)

// ExtractRequest is an alias to the shared models.ExtractRequest
type ExtractRequest = models.ExtractRequest

// ErrorResponse is an alias to the shared models.ErrorResponse
type ErrorResponse = models.ErrorResponse

// NewHandler wires the extraction service into an HTTP router.
func NewHandler(extractionService service.ExtractionService, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(requestSizeLimiter(cfg.MaxRequestBodySize))

	r.GET("/health", healthCheck)
	r.GET("/templates", listTemplates(extractionService))
	r.POST("/extract", extractFields(extractionService, cfg))
	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func listTemplates(extractionService service.ExtractionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		infos, err := extractionService.ListTemplates(c.Request.Context())
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to list templates", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"templates": infos})
	}
}

func extractFields(extractionService service.ExtractionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		}).Info("Processing extraction request")

		var req ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithError(err).Error("Invalid request format")
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		response, err := extractionService.ExtractFromURL(ctx, req)
		if err != nil {
			status := statusForError(err)
			logger.WithTemplate(req.TemplateID).WithError(err).
				WithField("status", status).Error("Extraction failed")
			respondError(c, status, "extraction failed", err)
			return
		}

		c.JSON(http.StatusOK, response)
	}
}

// statusForError maps pipeline error kinds onto HTTP status codes.
func statusForError(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindTemplateNotLoaded:
		return http.StatusConflict
	case apperrors.KindImageNotFound:
		return http.StatusNotFound
	case apperrors.KindInvalidImage:
		return http.StatusUnprocessableEntity
	case apperrors.KindOCREngine:
		return http.StatusBadGateway
	case apperrors.KindCancelled:
		return http.StatusRequestTimeout
	}
	if errors.Is(err, repository.ErrTemplateNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(status, resp)
}

func requestSizeLimiter(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
