package ocr

import (
	"fmt"
	"image"

	apperrors "github.com/S93RUM-06/ocr-pipeline/internal/errors"
	"github.com/S93RUM-06/ocr-pipeline/internal/geometry"
)

// MinImageSize is the minimum width and height accepted by Recognize.
const MinImageSize = 100

// Point is a vertex of a recognized text polygon in pixel coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Box is one recognized text fragment: an ordered 4-vertex quadrilateral,
// the recognized text and the engine confidence in [0,1]. The axis-aligned
// bounding rectangle is derived once at the adapter boundary so the
// extractor never reasons about rotated quads.
type Box struct {
	Polygon    [4]Point      `json:"polygon"`
	BBox       geometry.Rect `json:"bbox"`
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
}

// NewBox builds a Box and derives its bounding rectangle from the polygon.
func NewBox(polygon [4]Point, text string, confidence float64) Box {
	return Box{
		Polygon:    polygon,
		BBox:       BoundingRect(polygon),
		Text:       text,
		Confidence: confidence,
	}
}

// NewBoxFromRect builds a Box from an axis-aligned rectangle, synthesizing
// the polygon from its corners.
func NewBoxFromRect(r geometry.Rect, text string, confidence float64) Box {
	return Box{
		Polygon: [4]Point{
			{r.X, r.Y},
			{r.X + r.W, r.Y},
			{r.X + r.W, r.Y + r.H},
			{r.X, r.Y + r.H},
		},
		BBox:       r,
		Text:       text,
		Confidence: confidence,
	}
}

// BoundingRect derives the axis-aligned bounding rectangle of a quadrilateral.
func BoundingRect(polygon [4]Point) geometry.Rect {
	minX, minY := polygon[0].X, polygon[0].Y
	maxX, maxY := polygon[0].X, polygon[0].Y
	for _, p := range polygon[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return geometry.Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Adapter is the narrow capability the core depends on. Any engine
// implementing it is substitutable; the core never downcasts.
type Adapter interface {
	// Recognize produces the text boxes of an image, deterministic for a
	// given image and configuration. Returns an empty slice when the engine
	// recognized nothing.
	Recognize(img image.Image) ([]Box, error)

	// SetLanguage changes the language tag for subsequent calls.
	SetLanguage(lang string)
}

// TextResult pairs a recognized text with its confidence and location.
type TextResult struct {
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
	BBox       geometry.Rect `json:"bbox"`
}

// ExtractText returns the texts of boxes at or above minConfidence.
func ExtractText(boxes []Box, minConfidence float64) []string {
	texts := make([]string, 0, len(boxes))
	for _, b := range boxes {
		if b.Confidence >= minConfidence {
			texts = append(texts, b.Text)
		}
	}
	return texts
}

// ExtractTextWithConfidence returns text, confidence and bounding box of
// boxes at or above minConfidence.
func ExtractTextWithConfidence(boxes []Box, minConfidence float64) []TextResult {
	results := make([]TextResult, 0, len(boxes))
	for _, b := range boxes {
		if b.Confidence >= minConfidence {
			results = append(results, TextResult{
				Text:       b.Text,
				Confidence: b.Confidence,
				BBox:       b.BBox,
			})
		}
	}
	return results
}

// CheckImage validates an image against the adapter preconditions: non-nil
// and at least MinImageSize in both dimensions.
func CheckImage(img image.Image) error {
	if img == nil {
		return apperrors.NewInvalidImageError("image cannot be nil")
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < MinImageSize || h < MinImageSize {
		return apperrors.NewInvalidImageError(fmt.Sprintf(
			"image size %dx%d is too small, both dimensions must be at least %d pixels",
			w, h, MinImageSize))
	}
	return nil
}
