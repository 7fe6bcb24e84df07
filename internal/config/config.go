package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	MaxRequestBodySize int64

	// OCR engine settings
	OCRLanguage      string
	OCRMinConfidence float64

	// Storage backend: "http" serves scans from URLs and templates from
	// TemplateDir; "azure" serves both from blob storage.
	StorageBackend         string
	TemplateDir            string
	AzureAccountName       string
	AzureAccountKey        string
	AzureImageContainer    string
	AzureTemplateContainer string
}

// Storage backend values accepted in STORAGE_BACKEND.
const (
	StorageBackendHTTP  = "http"
	StorageBackendAzure = "azure"
)

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		OCRLanguage:        getEnvOrDefault("OCR_LANG", "chinese_cht"),
		OCRMinConfidence:   parseFloatOrDefault("OCR_MIN_CONFIDENCE", 0.6),

		StorageBackend:         getEnvOrDefault("STORAGE_BACKEND", StorageBackendHTTP),
		TemplateDir:            getEnvOrDefault("TEMPLATE_DIR", "config/templates"),
		AzureAccountName:       os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureAccountKey:        os.Getenv("AZURE_STORAGE_KEY"),
		AzureImageContainer:    getEnvOrDefault("AZURE_IMAGE_CONTAINER", "scans"),
		AzureTemplateContainer: getEnvOrDefault("AZURE_TEMPLATE_CONTAINER", "templates"),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout)
	}
	if cfg.OCRMinConfidence < 0 || cfg.OCRMinConfidence > 1 {
		return nil, fmt.Errorf("OCR_MIN_CONFIDENCE must be between 0 and 1 (got %v)", cfg.OCRMinConfidence)
	}
	switch cfg.StorageBackend {
	case StorageBackendHTTP:
	case StorageBackendAzure:
		if cfg.AzureAccountName == "" || cfg.AzureAccountKey == "" {
			return nil, fmt.Errorf("azure backend requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND: %q", cfg.StorageBackend)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
