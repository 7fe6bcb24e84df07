package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/S93RUM-06/ocr-pipeline/internal/logger"
	"github.com/S93RUM-06/ocr-pipeline/internal/storage"
	"github.com/S93RUM-06/ocr-pipeline/internal/template"
)

// DirTemplateRepository serves validated templates from a directory of JSON
// files named <template_id>.json. Parsed templates are cached; templates are
// immutable after validation so the cache never invalidates.
type DirTemplateRepository struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]*template.Template
}

// NewDirTemplateRepository creates a directory-backed template repository.
func NewDirTemplateRepository(dir string) *DirTemplateRepository {
	return &DirTemplateRepository{
		dir:   dir,
		cache: make(map[string]*template.Template),
	}
}

// Get returns the validated template with the given id.
func (r *DirTemplateRepository) Get(ctx context.Context, templateID string) (*template.Template, error) {
	r.mu.RLock()
	cached, ok := r.cache[templateID]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	path := filepath.Join(r.dir, templateID+".json")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
		}
		return nil, err
	}

	tpl, err := template.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if tpl.TemplateID != templateID {
		logger.WithTemplate(tpl.TemplateID).
			Warn("Template file name does not match its template_id")
	}

	r.mu.Lock()
	r.cache[templateID] = tpl
	r.mu.Unlock()
	return tpl, nil
}

// List returns the ids of all template files in the directory.
func (r *DirTemplateRepository) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// BlobTemplateRepository serves validated templates from blob storage. All
// templates of one deployment share a container; blobs are named
// <template_id>.json.
type BlobTemplateRepository struct {
	store     storage.BlobStore
	container string
	mu        sync.RWMutex
	cache     map[string]*template.Template
}

// NewBlobTemplateRepository creates a blob-backed template repository.
func NewBlobTemplateRepository(store storage.BlobStore, container string) *BlobTemplateRepository {
	return &BlobTemplateRepository{
		store:     store,
		container: container,
		cache:     make(map[string]*template.Template),
	}
}

// Get downloads, validates and caches the template with the given id.
func (r *BlobTemplateRepository) Get(ctx context.Context, templateID string) (*template.Template, error) {
	r.mu.RLock()
	cached, ok := r.cache[templateID]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	data, err := r.store.GetTemplateData(ctx, r.container, templateID+".json")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}

	tpl, err := template.Parse(data)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[templateID] = tpl
	r.mu.Unlock()
	return tpl, nil
}

// List returns the sorted ids of the templates already fetched through Get.
// The container itself is not enumerated, so templates never requested are
// not listed.
func (r *BlobTemplateRepository) List(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.cache))
	for id := range r.cache {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
