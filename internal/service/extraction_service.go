package service

import (
	"context"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/S93RUM-06/ocr-pipeline/internal/errors"
	"github.com/S93RUM-06/ocr-pipeline/internal/evaluation"
	"github.com/S93RUM-06/ocr-pipeline/internal/logger"
	"github.com/S93RUM-06/ocr-pipeline/internal/ocr"
	"github.com/S93RUM-06/ocr-pipeline/internal/orchestrator"
	"github.com/S93RUM-06/ocr-pipeline/internal/repository"
	"github.com/S93RUM-06/ocr-pipeline/pkg/models"
	"github.com/S93RUM-06/ocr-pipeline/pkg/validation"
)

// ExtractionService ties together image access, template access and the
// extraction orchestrator.
type ExtractionService interface {
	// ExtractFromURL fetches a document scan and extracts the template fields
	ExtractFromURL(ctx context.Context, req models.ExtractRequest) (*models.ExtractResponse, error)

	// ExtractImage extracts the template fields from an already-decoded raster
	ExtractImage(ctx context.Context, img image.Image, templateID string) (*models.ExtractResponse, error)

	// ListTemplates enumerates the loadable templates
	ListTemplates(ctx context.Context) ([]models.TemplateInfo, error)
}

type extractionService struct {
	images    repository.ImageRepository
	templates repository.TemplateRepository
	adapter   ocr.Adapter
	validator *validation.FieldValidator
}

// NewExtractionService creates an extraction service.
func NewExtractionService(
	images repository.ImageRepository,
	templates repository.TemplateRepository,
	adapter ocr.Adapter,
) ExtractionService {
	return &extractionService{
		images:    images,
		templates: templates,
		adapter:   adapter,
		validator: validation.NewFieldValidator(),
	}
}

// ExtractFromURL fetches a document scan and extracts the template fields
func (s *extractionService) ExtractFromURL(ctx context.Context, req models.ExtractRequest) (*models.ExtractResponse, error) {
	if err := s.images.ValidateImageURL(req.ImageURL); err != nil {
		return nil, err
	}

	img, err := s.images.FetchImage(ctx, req.ImageURL)
	if err != nil {
		return nil, apperrors.NewImageNotFoundError(req.ImageURL, err)
	}

	response, err := s.extract(ctx, img, req.TemplateID)
	if err != nil {
		return nil, err
	}

	if len(req.ExpectedFields) > 0 {
		response.Evaluation = evaluation.Compare(req.ExpectedFields, response.Result)
	}
	return response, nil
}

// ExtractImage extracts the template fields from an already-decoded raster
func (s *extractionService) ExtractImage(ctx context.Context, img image.Image, templateID string) (*models.ExtractResponse, error) {
	return s.extract(ctx, img, templateID)
}

func (s *extractionService) extract(ctx context.Context, img image.Image, templateID string) (*models.ExtractResponse, error) {
	start := time.Now()

	tpl, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	// Orchestrators are cheap and hold no shared mutable state, so each
	// extraction gets its own.
	orch, err := orchestrator.New(s.adapter)
	if err != nil {
		return nil, err
	}
	if err := orch.LoadTemplate(tpl); err != nil {
		return nil, err
	}

	result, err := orch.Process(ctx, img)
	if err != nil {
		return nil, err
	}

	warnings := s.validator.CheckResult(tpl, result)
	for _, issue := range warnings {
		logger.WithTemplate(templateID).WithFields(logrus.Fields{
			"field": issue.Field,
			"rule":  issue.Rule,
		}).Warn(issue.Message)
	}

	return &models.ExtractResponse{
		Result:            result,
		Warnings:          warnings,
		ProcessingTimeSec: time.Since(start).Seconds(),
		Timestamp:         time.Now().UTC().Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

// ListTemplates enumerates the loadable templates
func (s *extractionService) ListTemplates(ctx context.Context) ([]models.TemplateInfo, error) {
	ids, err := s.templates.List(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]models.TemplateInfo, 0, len(ids))
	for _, id := range ids {
		tpl, err := s.templates.Get(ctx, id)
		if err != nil {
			logger.WithTemplate(id).WithError(err).Warn("Skipping unloadable template")
			continue
		}
		infos = append(infos, models.TemplateInfo{
			TemplateID:   tpl.TemplateID,
			TemplateName: tpl.TemplateName,
			Version:      tpl.Version,
			Strategy:     string(tpl.ProcessingStrategy),
			RegionCount:  len(tpl.Regions),
		})
	}
	return infos, nil
}
