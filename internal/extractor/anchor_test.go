package extractor

import (
	"math"
	"testing"

	"github.com/S93RUM-06/ocr-pipeline/internal/geometry"
	"github.com/S93RUM-06/ocr-pipeline/internal/ocr"
	"github.com/S93RUM-06/ocr-pipeline/internal/template"
)

func anchorTemplate() *template.Template {
	return &template.Template{
		TemplateID:         "tw_einvoice_anchor",
		TemplateName:       "Taiwan e-invoice coupon",
		Version:            "3.0",
		ProcessingStrategy: template.StrategyAnchorBased,
		Anchor: &template.Anchor{
			Enable:    true,
			Text:      "電子發票證明聯",
			RectRatio: geometry.RatioRect{X: 0.3, Y: 0.0, Width: 0.4, Height: 0.05},
		},
		Regions: map[string]*template.FieldSpec{
			"invoice_number": {
				RectRatio:      geometry.RatioRect{X: 0.046, Y: 0.058, Width: 0.462, Height: 0.037},
				Pattern:        `[A-Z]{2}-\d{8}`,
				Required:       false,
				PositionWeight: 0.3,
				ToleranceRatio: 0.2,
			},
		},
	}
}

func TestAnchorSimilarity(t *testing.T) {
	tests := []struct {
		name   string
		anchor string
		box    string
		min    float64
		max    float64
	}{
		{"exact", "電子發票證明聯", "電子發票證明聯", 1, 1},
		{"containment", "電子發票證明聯", "=== 電子發票證明聯 ===", 1, 1},
		{"one char off", "電子發票證明聯", "電子發票證明朕", 0.8, 0.9},
		{"unrelated", "電子發票證明聯", "1250", 0, 0.3},
		{"empty", "電子發票證明聯", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := anchorSimilarity(tt.anchor, tt.box)
			if got < tt.min || got > tt.max {
				t.Errorf("anchorSimilarity = %v, want in [%v,%v]", got, tt.min, tt.max)
			}
		})
	}
}

func TestAnchorShiftRelocatesROI(t *testing.T) {
	e := NewHybridExtractor()
	tpl := anchorTemplate()

	// The page is shifted 500px right and 300px down relative to the
	// template reference. Without the anchor the invoice number box sits far
	// outside the (non-required) field's expanded ROI.
	anchorBox := box(int(0.5*imgW)-200+500, 33+300, 400, 45, "電子發票證明聯", 0.99)
	numberBox := box(100+500, 79+300, 999, 50, "VJ-50215372", 0.985)

	fields := e.ExtractFields([]ocr.Box{anchorBox, numberBox}, tpl, imgW, imgH)
	m := fields["invoice_number"]
	if m == nil {
		t.Fatal("expected the shifted ROI to capture the invoice number")
	}
	if m.Text != "VJ-50215372" {
		t.Errorf("Text = %q", m.Text)
	}
	if m.PositionScore <= 0.5 {
		t.Errorf("PositionScore = %v, want the re-based ROI to score high", m.PositionScore)
	}
}

func TestAnchorMissingFallsBackUnshifted(t *testing.T) {
	e := NewHybridExtractor()
	tpl := anchorTemplate()

	// No anchor text anywhere: extraction proceeds with original coordinates
	numberBox := box(100, 79, 999, 50, "VJ-50215372", 0.985)
	fields := e.ExtractFields([]ocr.Box{numberBox}, tpl, imgW, imgH)
	if fields["invoice_number"] == nil {
		t.Fatal("expected unshifted extraction to still work")
	}
}

func TestAnchorIgnoredForOtherStrategies(t *testing.T) {
	e := NewHybridExtractor()
	tpl := anchorTemplate()
	tpl.ProcessingStrategy = template.StrategyHybridOCRROI

	// Anchor box is present but the strategy does not use it; the shifted
	// number box stays out of reach of the optional field.
	anchorBox := box(int(0.5*imgW)-200+500, 33+300, 400, 45, "電子發票證明聯", 0.99)
	numberBox := box(100+500, 79+300, 999, 50, "VJ-50215372", 0.985)

	fields := e.ExtractFields([]ocr.Box{anchorBox, numberBox}, tpl, imgW, imgH)
	if fields["invoice_number"] != nil {
		t.Error("anchor must not re-base coordinates outside anchor_based strategy")
	}
}

func TestAnchorShiftMath(t *testing.T) {
	e := NewHybridExtractor()
	tpl := anchorTemplate()

	// Expected anchor center: ((0.3+0.2)*2163, (0+0.025)*1355) = (1081.5, 33.875)
	// Detected anchor center: (1581.5, 333)
	anchorBox := box(1381, 311, 401, 44, "電子發票證明聯", 0.99)
	dx, dy := e.resolveAnchorShift([]ocr.Box{anchorBox}, tpl, imgW, imgH)

	if math.Abs(float64(dx)-500) > 1 || math.Abs(float64(dy)-299) > 1 {
		t.Errorf("shift = (%d,%d), want about (500,299)", dx, dy)
	}
}
