package template

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/S93RUM-06/ocr-pipeline/internal/geometry"
)

// Strategy selects how fields are located on the page.
type Strategy string

const (
	StrategyHybridOCRROI Strategy = "hybrid_ocr_roi"
	StrategyFixedROI     Strategy = "fixed_roi"
	StrategyFullOCROnly  Strategy = "full_ocr_only"
	StrategyAnchorBased  Strategy = "anchor_based"
)

// Defaults applied to field specs when the template leaves them out.
const (
	DefaultPositionWeight = 0.3
	DefaultToleranceRatio = 0.2
)

// Template is the validated, immutable in-memory form of a template file.
type Template struct {
	TemplateID         string
	TemplateName       string
	Version            string
	ProcessingStrategy Strategy
	SamplingMetadata   SamplingMetadata
	Preprocess         *Preprocess
	Anchor             *Anchor
	Regions            map[string]*FieldSpec
}

// SamplingMetadata records how the template coordinates were sampled.
type SamplingMetadata struct {
	SampleCount    int
	ReferenceSize  ReferenceSize
	SizeRange      *SizeRange
	SamplingDate   string
	SamplerVersion string
	Notes          string
}

// ReferenceSize is the dimensions of the reference image the ratios were
// measured against.
type ReferenceSize struct {
	Width  int
	Height int
	Unit   string
}

// SizeRange bounds the image sizes the template was sampled from.
type SizeRange struct {
	Width  *MinMax
	Height *MinMax
}

// MinMax is an inclusive integer range.
type MinMax struct {
	Min int
	Max int
}

// Preprocess carries advisory preprocessing hints.
type Preprocess struct {
	Denoise  string
	Binarize string
}

// Anchor describes a landmark text whose detected position re-bases the
// field regions under the anchor_based strategy.
type Anchor struct {
	Enable         bool
	Text           string
	RectRatio      geometry.RatioRect
	ToleranceRatio float64
}

// FieldSpec describes one target field: a spatial hint, a primary pattern
// with optional fallback, and shape metadata driving the format score.
type FieldSpec struct {
	RectRatio       geometry.RatioRect
	RectStdDev      *geometry.RatioRect
	Pattern         string
	FallbackPattern string
	Description     string
	ExtractGroup    int
	ExpectedLength  int
	Required        bool
	PositionWeight  float64
	ToleranceRatio  float64
	Validation      *FieldValidation
}

// FieldValidation is an advisory post-check on the selected match.
type FieldValidation struct {
	MinLength     *int
	MaxLength     *int
	MinValue      *float64
	MaxValue      *float64
	AllowedValues []string
}

// Parse decodes, validates and builds a template from raw JSON bytes.
func Parse(data []byte) (*Template, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("template is not valid JSON: %w", err)
	}
	return FromRaw(raw)
}

// ParseFile reads and parses a template file.
func ParseFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %s: %w", path, err)
	}
	return Parse(data)
}

// FromRaw validates raw decoded template data and builds the typed form.
// Unknown top-level keys and unknown region keys are accepted silently.
func FromRaw(raw map[string]interface{}) (*Template, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}

	tpl := &Template{
		TemplateID:         raw["template_id"].(string),
		TemplateName:       raw["template_name"].(string),
		Version:            raw["version"].(string),
		ProcessingStrategy: Strategy(raw["processing_strategy"].(string)),
		Regions:            make(map[string]*FieldSpec),
	}

	tpl.SamplingMetadata = buildSamplingMetadata(raw["sampling_metadata"].(map[string]interface{}))

	if pp, ok := raw["preprocess"].(map[string]interface{}); ok {
		tpl.Preprocess = &Preprocess{
			Denoise:  stringOr(pp, "denoise", ""),
			Binarize: stringOr(pp, "binarize", ""),
		}
	}

	if anchor, ok := raw["anchor"].(map[string]interface{}); ok {
		tpl.Anchor = buildAnchor(anchor)
	}

	regions := raw["regions"].(map[string]interface{})
	for name, rawRegion := range regions {
		tpl.Regions[name] = buildFieldSpec(rawRegion.(map[string]interface{}))
	}

	return tpl, nil
}

func buildSamplingMetadata(raw map[string]interface{}) SamplingMetadata {
	md := SamplingMetadata{
		SampleCount:    intOr(raw, "sample_count", 0),
		SamplingDate:   stringOr(raw, "sampling_date", ""),
		SamplerVersion: stringOr(raw, "sampler_version", ""),
		Notes:          stringOr(raw, "notes", ""),
	}

	ref := raw["reference_size"].(map[string]interface{})
	md.ReferenceSize = ReferenceSize{
		Width:  intOr(ref, "width", 0),
		Height: intOr(ref, "height", 0),
		Unit:   stringOr(ref, "unit", ""),
	}

	if sr, ok := raw["size_range"].(map[string]interface{}); ok {
		rng := &SizeRange{}
		if w, ok := sr["width"].(map[string]interface{}); ok {
			rng.Width = &MinMax{Min: intOr(w, "min", 0), Max: intOr(w, "max", 0)}
		}
		if h, ok := sr["height"].(map[string]interface{}); ok {
			rng.Height = &MinMax{Min: intOr(h, "min", 0), Max: intOr(h, "max", 0)}
		}
		md.SizeRange = rng
	}

	return md
}

func buildAnchor(raw map[string]interface{}) *Anchor {
	a := &Anchor{
		Enable:         boolOr(raw, "enable", false),
		Text:           stringOr(raw, "text", ""),
		ToleranceRatio: floatOr(raw, "tolerance_ratio", DefaultToleranceRatio),
	}
	if rr, ok := raw["rect_ratio"].(map[string]interface{}); ok {
		a.RectRatio = buildRatioRect(rr)
	}
	return a
}

func buildFieldSpec(raw map[string]interface{}) *FieldSpec {
	spec := &FieldSpec{
		RectRatio:       buildRatioRect(raw["rect_ratio"].(map[string]interface{})),
		Pattern:         stringOr(raw, "pattern", ""),
		FallbackPattern: stringOr(raw, "fallback_pattern", ""),
		Description:     stringOr(raw, "description", ""),
		ExtractGroup:    intOr(raw, "extract_group", 0),
		ExpectedLength:  intOr(raw, "expected_length", 0),
		Required:        boolOr(raw, "required", false),
		PositionWeight:  floatOr(raw, "position_weight", DefaultPositionWeight),
		ToleranceRatio:  floatOr(raw, "tolerance_ratio", DefaultToleranceRatio),
	}

	if sd, ok := raw["rect_std_dev"].(map[string]interface{}); ok {
		r := buildRatioRect(sd)
		spec.RectStdDev = &r
	}

	if v, ok := raw["validation"].(map[string]interface{}); ok {
		spec.Validation = buildFieldValidation(v)
	}

	return spec
}

func buildFieldValidation(raw map[string]interface{}) *FieldValidation {
	fv := &FieldValidation{}
	if v, ok := numberAt(raw, "min_length"); ok {
		n := int(v)
		fv.MinLength = &n
	}
	if v, ok := numberAt(raw, "max_length"); ok {
		n := int(v)
		fv.MaxLength = &n
	}
	if v, ok := numberAt(raw, "min_value"); ok {
		fv.MinValue = &v
	}
	if v, ok := numberAt(raw, "max_value"); ok {
		fv.MaxValue = &v
	}
	if list, ok := raw["allowed_values"].([]interface{}); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				fv.AllowedValues = append(fv.AllowedValues, s)
			}
		}
	}
	return fv
}

func buildRatioRect(raw map[string]interface{}) geometry.RatioRect {
	return geometry.RatioRect{
		X:      floatOr(raw, "x", 0),
		Y:      floatOr(raw, "y", 0),
		Width:  floatOr(raw, "width", 0),
		Height: floatOr(raw, "height", 0),
	}
}

func numberAt(raw map[string]interface{}, key string) (float64, bool) {
	v, ok := raw[key].(float64)
	return v, ok
}

func stringOr(raw map[string]interface{}, key, fallback string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return fallback
}

func floatOr(raw map[string]interface{}, key string, fallback float64) float64 {
	if v, ok := raw[key].(float64); ok {
		return v
	}
	return fallback
}

func intOr(raw map[string]interface{}, key string, fallback int) int {
	if v, ok := raw[key].(float64); ok {
		return int(v)
	}
	return fallback
}

func boolOr(raw map[string]interface{}, key string, fallback bool) bool {
	if v, ok := raw[key].(bool); ok {
		return v
	}
	return fallback
}
