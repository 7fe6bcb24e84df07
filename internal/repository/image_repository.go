package repository

import (
	"context"
	"image"
	"strings"

	apperrors "github.com/S93RUM-06/ocr-pipeline/internal/errors"
	"github.com/S93RUM-06/ocr-pipeline/internal/storage"
	"github.com/S93RUM-06/ocr-pipeline/pkg/validation"
)

// HTTPImageRepository implements ImageRepository using HTTP storage
type HTTPImageRepository struct {
	fetcher   storage.ImageFetcher
	validator *validation.URLValidator
}

// NewHTTPImageRepository creates a new HTTP-based image repository
func NewHTTPImageRepository(fetcher storage.ImageFetcher) ImageRepository {
	return &HTTPImageRepository{
		fetcher:   fetcher,
		validator: validation.NewURLValidator(),
	}
}

// FetchImage retrieves a document scan from a URL
func (r *HTTPImageRepository) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	return r.fetcher.FetchImage(ctx, imageURL)
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *HTTPImageRepository) ValidateImageURL(imageURL string) error {
	return r.validator.ValidateImageURL(imageURL)
}

// BlobImageRepository implements ImageRepository over blob storage. The
// image reference is the blob name inside the configured container.
type BlobImageRepository struct {
	store     storage.BlobStore
	container string
}

// NewBlobImageRepository creates a blob-backed image repository
func NewBlobImageRepository(store storage.BlobStore, container string) ImageRepository {
	return &BlobImageRepository{
		store:     store,
		container: container,
	}
}

// FetchImage downloads a document scan blob by name
func (r *BlobImageRepository) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	return r.store.GetImage(ctx, r.container, imageURL)
}

// ValidateImageURL accepts any non-empty blob name without path escapes
func (r *BlobImageRepository) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("image_url", "blob name cannot be empty")
	}
	if strings.Contains(imageURL, "..") {
		return apperrors.NewValidationError("image_url", "blob name must not contain path escapes")
	}
	return nil
}
