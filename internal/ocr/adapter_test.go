package ocr

import (
	"image"
	"testing"

	apperrors "github.com/S93RUM-06/ocr-pipeline/internal/errors"
	"github.com/S93RUM-06/ocr-pipeline/internal/geometry"
)

func TestBoundingRect(t *testing.T) {
	tests := []struct {
		name    string
		polygon [4]Point
		want    geometry.Rect
	}{
		{
			name:    "axis aligned",
			polygon: [4]Point{{100, 79}, {1099, 79}, {1099, 129}, {100, 129}},
			want:    geometry.Rect{X: 100, Y: 79, W: 999, H: 50},
		},
		{
			name:    "rotated quad",
			polygon: [4]Point{{10, 0}, {30, 5}, {25, 20}, {5, 15}},
			want:    geometry.Rect{X: 5, Y: 0, W: 25, H: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BoundingRect(tt.polygon); got != tt.want {
				t.Errorf("BoundingRect() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewBoxDerivesBBox(t *testing.T) {
	b := NewBox([4]Point{{0, 0}, {50, 0}, {50, 10}, {0, 10}}, "A123", 0.9)
	want := geometry.Rect{X: 0, Y: 0, W: 50, H: 10}
	if b.BBox != want {
		t.Errorf("BBox = %+v, want %+v", b.BBox, want)
	}
}

func TestNewBoxFromRect(t *testing.T) {
	r := geometry.Rect{X: 10, Y: 20, W: 30, H: 40}
	b := NewBoxFromRect(r, "text", 0.5)
	if b.BBox != r {
		t.Errorf("BBox = %+v, want %+v", b.BBox, r)
	}
	if BoundingRect(b.Polygon) != r {
		t.Errorf("synthesized polygon does not bound back to %+v", r)
	}
}

func TestCheckImageBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		wantErr bool
	}{
		{"exactly minimum", 100, 100, false},
		{"narrow", 99, 100, true},
		{"short", 100, 99, true},
		{"large", 2163, 1355, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
			err := CheckImage(img)
			if tt.wantErr {
				if !apperrors.IsKind(err, apperrors.KindInvalidImage) {
					t.Errorf("expected invalid_image error, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCheckImageNil(t *testing.T) {
	if err := CheckImage(nil); !apperrors.IsKind(err, apperrors.KindInvalidImage) {
		t.Errorf("expected invalid_image error for nil image, got %v", err)
	}
}

func TestExtractTextFiltersByConfidence(t *testing.T) {
	boxes := []Box{
		NewBoxFromRect(geometry.Rect{X: 0, Y: 0, W: 10, H: 10}, "keep", 0.9),
		NewBoxFromRect(geometry.Rect{X: 0, Y: 20, W: 10, H: 10}, "drop", 0.3),
		NewBoxFromRect(geometry.Rect{X: 0, Y: 40, W: 10, H: 10}, "edge", 0.6),
	}

	texts := ExtractText(boxes, 0.6)
	if len(texts) != 2 {
		t.Fatalf("expected 2 texts, got %d: %v", len(texts), texts)
	}
	if texts[0] != "keep" || texts[1] != "edge" {
		t.Errorf("unexpected texts %v", texts)
	}
}

func TestExtractTextWithConfidence(t *testing.T) {
	boxes := []Box{
		NewBoxFromRect(geometry.Rect{X: 5, Y: 5, W: 10, H: 10}, "VJ-50215372", 0.985),
		NewBoxFromRect(geometry.Rect{X: 0, Y: 20, W: 10, H: 10}, "noise", 0.1),
	}

	results := ExtractTextWithConfidence(boxes, 0.6)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Text != "VJ-50215372" || r.Confidence != 0.985 {
		t.Errorf("unexpected result %+v", r)
	}
	if r.BBox.X != 5 || r.BBox.Y != 5 {
		t.Errorf("unexpected bbox %+v", r.BBox)
	}
}

func TestExtractTextEmptyInput(t *testing.T) {
	if texts := ExtractText(nil, 0.6); len(texts) != 0 {
		t.Errorf("expected no texts, got %v", texts)
	}
}

func TestMapLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"chinese_cht", "chi_tra"},
		{"chinese_tra", "chi_tra"},
		{"ch", "chi_sim"},
		{"chinese_sim", "chi_sim"},
		{"en", "eng"},
		{"jpn", "jpn"},
	}

	for _, tt := range tests {
		if got := MapLanguage(tt.in); got != tt.want {
			t.Errorf("MapLanguage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTesseractAdapterRejectsSmallImage(t *testing.T) {
	adapter := NewTesseractAdapter("en", 0.6)
	defer adapter.Close()

	img := image.NewRGBA(image.Rect(0, 0, 50, 200))
	_, err := adapter.Recognize(img)
	if !apperrors.IsKind(err, apperrors.KindInvalidImage) {
		t.Errorf("expected invalid_image error, got %v", err)
	}
}
