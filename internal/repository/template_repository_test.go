package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validTemplateJSON = `{
	"template_id": "tw_einvoice_v3",
	"template_name": "Taiwan e-invoice coupon",
	"version": "3.0",
	"processing_strategy": "hybrid_ocr_roi",
	"sampling_metadata": {
		"sample_count": 12,
		"reference_size": {"width": 2163, "height": 1355, "unit": "pixel"}
	},
	"regions": {
		"invoice_number": {
			"rect_ratio": {"x": 0.046, "y": 0.058, "width": 0.462, "height": 0.037},
			"pattern": "[A-Z]{2}-\\d{8}",
			"required": true
		}
	}
}`

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirTemplateRepositoryGet(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "tw_einvoice_v3.json", validTemplateJSON)

	repo := NewDirTemplateRepository(dir)
	tpl, err := repo.Get(context.Background(), "tw_einvoice_v3")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if tpl.TemplateID != "tw_einvoice_v3" {
		t.Errorf("TemplateID = %q", tpl.TemplateID)
	}
	if len(tpl.Regions) != 1 {
		t.Errorf("regions = %d, want 1", len(tpl.Regions))
	}
}

func TestDirTemplateRepositoryCaches(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "tw_einvoice_v3.json", validTemplateJSON)

	repo := NewDirTemplateRepository(dir)
	first, err := repo.Get(context.Background(), "tw_einvoice_v3")
	if err != nil {
		t.Fatal(err)
	}

	// Remove the file; the cached template must keep serving
	if err := os.Remove(filepath.Join(dir, "tw_einvoice_v3.json")); err != nil {
		t.Fatal(err)
	}
	second, err := repo.Get(context.Background(), "tw_einvoice_v3")
	if err != nil {
		t.Fatalf("cached Get failed: %v", err)
	}
	if first != second {
		t.Error("expected the cached template instance")
	}
}

func TestDirTemplateRepositoryNotFound(t *testing.T) {
	repo := NewDirTemplateRepository(t.TempDir())
	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestDirTemplateRepositoryInvalidTemplate(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "broken.json", `{"template_id": "broken"}`)

	repo := NewDirTemplateRepository(dir)
	if _, err := repo.Get(context.Background(), "broken"); err == nil {
		t.Error("expected validation error for incomplete template")
	}
}

func TestDirTemplateRepositoryList(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "b_template.json", validTemplateJSON)
	writeTemplate(t, dir, "a_template.json", validTemplateJSON)
	writeTemplate(t, dir, "notes.txt", "ignored")

	repo := NewDirTemplateRepository(dir)
	ids, err := repo.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "a_template" || ids[1] != "b_template" {
		t.Errorf("List = %v", ids)
	}
}
