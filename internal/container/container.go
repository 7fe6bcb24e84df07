package container

import (
	"fmt"

	"github.com/S93RUM-06/ocr-pipeline/internal/config"
	"github.com/S93RUM-06/ocr-pipeline/internal/ocr"
	"github.com/S93RUM-06/ocr-pipeline/internal/repository"
	"github.com/S93RUM-06/ocr-pipeline/internal/service"
	"github.com/S93RUM-06/ocr-pipeline/internal/storage"
)

// Container holds all application dependencies
type Container struct {
	Config             *config.Config
	OCRAdapter         *ocr.TesseractAdapter
	ImageRepository    repository.ImageRepository
	TemplateRepository repository.TemplateRepository
	ExtractionService  service.ExtractionService
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Create repositories for the configured storage backend
	imageRepository, templateRepository, err := buildRepositories(cfg)
	if err != nil {
		return nil, err
	}

	// Create OCR adapter
	ocrAdapter := ocr.NewTesseractAdapter(cfg.OCRLanguage, cfg.OCRMinConfidence)

	// Create extraction service
	extractionService := service.NewExtractionService(imageRepository, templateRepository, ocrAdapter)

	return &Container{
		Config:             cfg,
		OCRAdapter:         ocrAdapter,
		ImageRepository:    imageRepository,
		TemplateRepository: templateRepository,
		ExtractionService:  extractionService,
	}, nil
}

// buildRepositories creates the image and template repositories for the
// configured backend
func buildRepositories(cfg *config.Config) (repository.ImageRepository, repository.TemplateRepository, error) {
	switch cfg.StorageBackend {
	case config.StorageBackendHTTP:
		fetcher := storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout)
		return repository.NewHTTPImageRepository(fetcher),
			repository.NewDirTemplateRepository(cfg.TemplateDir),
			nil

	case config.StorageBackendAzure:
		store, err := storage.NewAzureStore(cfg.AzureAccountName, cfg.AzureAccountKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create azure store: %w", err)
		}
		return repository.NewBlobImageRepository(store, cfg.AzureImageContainer),
			repository.NewBlobTemplateRepository(store, cfg.AzureTemplateContainer),
			nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}

// Close releases held resources
func (c *Container) Close() error {
	if c.OCRAdapter != nil {
		return c.OCRAdapter.Close()
	}
	return nil
}
