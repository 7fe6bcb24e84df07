package repository

import (
	"context"
	"errors"
	"fmt"
	"image"
	"testing"

	apperrors "github.com/S93RUM-06/ocr-pipeline/internal/errors"
)

// stubBlobStore serves canned blobs keyed by container/name
type stubBlobStore struct {
	images    map[string]image.Image
	templates map[string][]byte
}

func (s *stubBlobStore) GetImage(ctx context.Context, container, blobName string) (image.Image, error) {
	img, ok := s.images[container+"/"+blobName]
	if !ok {
		return nil, fmt.Errorf("blob %s/%s does not exist", container, blobName)
	}
	return img, nil
}

func (s *stubBlobStore) GetTemplateData(ctx context.Context, container, blobName string) ([]byte, error) {
	data, ok := s.templates[container+"/"+blobName]
	if !ok {
		return nil, fmt.Errorf("blob %s/%s does not exist", container, blobName)
	}
	return data, nil
}

func TestBlobImageRepositoryFetch(t *testing.T) {
	store := &stubBlobStore{images: map[string]image.Image{
		"scans/invoice.png": image.NewRGBA(image.Rect(0, 0, 120, 140)),
	}}
	repo := NewBlobImageRepository(store, "scans")

	img, err := repo.FetchImage(context.Background(), "invoice.png")
	if err != nil {
		t.Fatalf("FetchImage failed: %v", err)
	}
	if img.Bounds().Dx() != 120 {
		t.Errorf("unexpected image %v", img.Bounds())
	}

	if _, err := repo.FetchImage(context.Background(), "missing.png"); err == nil {
		t.Error("expected error for missing blob")
	}
}

func TestBlobImageRepositoryValidate(t *testing.T) {
	repo := NewBlobImageRepository(&stubBlobStore{}, "scans")

	if err := repo.ValidateImageURL("2026/01/invoice.png"); err != nil {
		t.Errorf("valid blob name rejected: %v", err)
	}
	for _, bad := range []string{"", "  ", "../secrets/key.pem"} {
		err := repo.ValidateImageURL(bad)
		if !apperrors.IsKind(err, apperrors.KindValidation) {
			t.Errorf("expected validation error for %q, got %v", bad, err)
		}
	}
}

func TestBlobTemplateRepositoryGet(t *testing.T) {
	store := &stubBlobStore{templates: map[string][]byte{
		"templates/tw_einvoice_v3.json": []byte(validTemplateJSON),
	}}
	repo := NewBlobTemplateRepository(store, "templates")

	tpl, err := repo.Get(context.Background(), "tw_einvoice_v3")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if tpl.TemplateID != "tw_einvoice_v3" {
		t.Errorf("TemplateID = %q", tpl.TemplateID)
	}

	// Cached instance is served on repeat lookups
	again, err := repo.Get(context.Background(), "tw_einvoice_v3")
	if err != nil {
		t.Fatal(err)
	}
	if tpl != again {
		t.Error("expected the cached template instance")
	}
}

func TestBlobTemplateRepositoryNotFound(t *testing.T) {
	repo := NewBlobTemplateRepository(&stubBlobStore{}, "templates")
	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestBlobTemplateRepositoryInvalidTemplate(t *testing.T) {
	store := &stubBlobStore{templates: map[string][]byte{
		"templates/broken.json": []byte(`{"template_id": "broken"}`),
	}}
	repo := NewBlobTemplateRepository(store, "templates")
	if _, err := repo.Get(context.Background(), "broken"); err == nil {
		t.Error("expected validation error for incomplete template")
	}
}

func TestBlobTemplateRepositoryListReflectsCache(t *testing.T) {
	store := &stubBlobStore{templates: map[string][]byte{
		"templates/tw_einvoice_v3.json": []byte(validTemplateJSON),
	}}
	repo := NewBlobTemplateRepository(store, "templates")

	ids, err := repo.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("List before any Get = %v, want empty", ids)
	}

	if _, err := repo.Get(context.Background(), "tw_einvoice_v3"); err != nil {
		t.Fatal(err)
	}
	ids, err = repo.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "tw_einvoice_v3" {
		t.Errorf("List after Get = %v", ids)
	}
}
