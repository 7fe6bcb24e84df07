package repository

import (
	"context"
	"image"

	"github.com/S93RUM-06/ocr-pipeline/internal/template"
)

// ImageRepository defines the interface for document image access
type ImageRepository interface {
	// FetchImage retrieves a document scan from a URL
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

// TemplateRepository defines the interface for template access
type TemplateRepository interface {
	// Get returns the validated template with the given id
	Get(ctx context.Context, templateID string) (*template.Template, error)

	// List returns the ids of all available templates
	List(ctx context.Context) ([]string, error)
}
