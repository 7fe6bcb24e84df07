package models

import (
	"github.com/S93RUM-06/ocr-pipeline/internal/extractor"
	"github.com/S93RUM-06/ocr-pipeline/pkg/validation"
)

// ExtractRequest asks the service to extract fields from a document image
type ExtractRequest struct {
	ImageURL   string `json:"image_url" binding:"required"`
	TemplateID string `json:"template_id" binding:"required"`

	// Optional ground truth for accuracy evaluation
	ExpectedFields map[string]string `json:"expected_fields,omitempty"`
}

// ExtractResponse is the service answer for one document
type ExtractResponse struct {
	Result            *extractor.ExtractionResult `json:"result"`
	Warnings          []validation.Issue          `json:"warnings,omitempty"`
	Evaluation        interface{}                 `json:"evaluation,omitempty"`
	ProcessingTimeSec float64                     `json:"processing_time_sec"`
	Timestamp         string                      `json:"timestamp"`
}

// TemplateInfo summarizes one loadable template
type TemplateInfo struct {
	TemplateID   string `json:"template_id"`
	TemplateName string `json:"template_name"`
	Version      string `json:"version"`
	Strategy     string `json:"strategy"`
	RegionCount  int    `json:"region_count"`
}

// ErrorResponse is the uniform transport error shape
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
