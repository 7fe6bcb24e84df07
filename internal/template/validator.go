package template

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"unicode/utf8"

	apperrors "github.com/S93RUM-06/ocr-pipeline/internal/errors"
)

var (
	templateIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)
	versionPattern    = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)
	datePattern       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

var validStrategies = map[string]bool{
	string(StrategyHybridOCRROI): true,
	string(StrategyFixedROI):     true,
	string(StrategyFullOCROnly):  true,
	string(StrategyAnchorBased):  true,
}

var validDenoiseMethods = map[string]bool{
	"nlm":       true,
	"bilateral": true,
	"gaussian":  true,
}

var validBinarizeMethods = map[string]bool{
	"adaptive":  true,
	"otsu":      true,
	"threshold": true,
}

// Validate checks raw decoded template data against the schema. It is a
// single pass that stops at the first offence, reporting the path of the
// bad value. Unknown keys are accepted silently. No I/O.
func Validate(raw map[string]interface{}) error {
	if raw == nil {
		return apperrors.NewValidationError("", "template data must be an object")
	}

	for _, key := range []string{"template_id", "template_name", "version",
		"processing_strategy", "sampling_metadata", "regions"} {
		if _, ok := raw[key]; !ok {
			return apperrors.NewValidationError(key, "missing required field")
		}
	}

	id, ok := raw["template_id"].(string)
	if !ok {
		return apperrors.NewValidationError("template_id", "must be a string")
	}
	if !templateIDPattern.MatchString(id) {
		return apperrors.NewValidationError("template_id", fmt.Sprintf(
			"invalid format %q, only lowercase letters, digits and underscores are allowed", id))
	}

	name, ok := raw["template_name"].(string)
	if !ok {
		return apperrors.NewValidationError("template_name", "must be a string")
	}
	if n := utf8.RuneCountInString(name); n == 0 || n > 100 {
		return apperrors.NewValidationError("template_name",
			"must be between 1 and 100 characters")
	}

	version, ok := raw["version"].(string)
	if !ok {
		return apperrors.NewValidationError("version", "must be a string")
	}
	if !versionPattern.MatchString(version) {
		return apperrors.NewValidationError("version", fmt.Sprintf(
			"invalid version %q, expected N.N or N.N.N", version))
	}

	strategy, ok := raw["processing_strategy"].(string)
	if !ok {
		return apperrors.NewValidationError("processing_strategy", "must be a string")
	}
	if !validStrategies[strategy] {
		return apperrors.NewValidationError("processing_strategy", fmt.Sprintf(
			"unknown strategy %q", strategy))
	}

	md, ok := raw["sampling_metadata"].(map[string]interface{})
	if !ok {
		return apperrors.NewValidationError("sampling_metadata", "must be an object")
	}
	if err := validateSamplingMetadata(md); err != nil {
		return err
	}

	regions, ok := raw["regions"].(map[string]interface{})
	if !ok {
		return apperrors.NewValidationError("regions", "must be an object")
	}
	if len(regions) == 0 {
		return apperrors.NewValidationError("regions", "must contain at least one region")
	}

	names := make([]string, 0, len(regions))
	for name := range regions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, regionName := range names {
		if regionName == "" {
			return apperrors.NewValidationError("regions", "region names must be non-empty")
		}
		region, ok := regions[regionName].(map[string]interface{})
		if !ok {
			return apperrors.NewValidationError("regions."+regionName, "must be an object")
		}
		if err := validateRegion(regionName, region); err != nil {
			return err
		}
	}

	if pp, present := raw["preprocess"]; present && pp != nil {
		obj, ok := pp.(map[string]interface{})
		if !ok {
			return apperrors.NewValidationError("preprocess", "must be an object")
		}
		if err := validatePreprocess(obj); err != nil {
			return err
		}
	}

	if anchor, present := raw["anchor"]; present && anchor != nil {
		obj, ok := anchor.(map[string]interface{})
		if !ok {
			return apperrors.NewValidationError("anchor", "must be an object")
		}
		if err := validateAnchor(obj); err != nil {
			return err
		}
	}

	return nil
}

func validateSamplingMetadata(md map[string]interface{}) error {
	count, ok := asInt(md["sample_count"])
	if !ok || count < 1 {
		return apperrors.NewValidationError("sampling_metadata.sample_count",
			"must be an integer >= 1")
	}

	ref, ok := md["reference_size"].(map[string]interface{})
	if !ok {
		return apperrors.NewValidationError("sampling_metadata.reference_size",
			"must be an object")
	}
	for _, dim := range []string{"width", "height"} {
		v, ok := asInt(ref[dim])
		if !ok || v < 1 {
			return apperrors.NewValidationError(
				"sampling_metadata.reference_size."+dim, "must be an integer >= 1")
		}
	}
	if unit, ok := ref["unit"].(string); !ok || unit != "pixel" {
		return apperrors.NewValidationError("sampling_metadata.reference_size.unit",
			`must be "pixel"`)
	}

	if sr, present := md["size_range"]; present && sr != nil {
		obj, ok := sr.(map[string]interface{})
		if !ok {
			return apperrors.NewValidationError("sampling_metadata.size_range",
				"must be an object")
		}
		for _, dim := range []string{"width", "height"} {
			rng, present := obj[dim]
			if !present || rng == nil {
				continue
			}
			rngObj, ok := rng.(map[string]interface{})
			if !ok {
				return apperrors.NewValidationError(
					"sampling_metadata.size_range."+dim, "must be an object")
			}
			for _, bound := range []string{"min", "max"} {
				v, ok := asInt(rngObj[bound])
				if !ok || v < 1 {
					return apperrors.NewValidationError(
						"sampling_metadata.size_range."+dim+"."+bound,
						"must be an integer >= 1")
				}
			}
		}
	}

	if date, present := md["sampling_date"]; present && date != nil {
		s, ok := date.(string)
		if !ok || !datePattern.MatchString(s) {
			return apperrors.NewValidationError("sampling_metadata.sampling_date",
				"must be a YYYY-MM-DD date string")
		}
	}

	if sv, present := md["sampler_version"]; present && sv != nil {
		if _, ok := sv.(string); !ok {
			return apperrors.NewValidationError("sampling_metadata.sampler_version",
				"must be a string")
		}
	}

	if notes, present := md["notes"]; present && notes != nil {
		if _, ok := notes.(string); !ok {
			return apperrors.NewValidationError("sampling_metadata.notes",
				"must be a string or null")
		}
	}

	return nil
}

func validateRegion(name string, region map[string]interface{}) error {
	path := "regions." + name

	rr, present := region["rect_ratio"]
	if !present {
		return apperrors.NewValidationError(path+".rect_ratio", "missing required field")
	}
	rrObj, ok := rr.(map[string]interface{})
	if !ok {
		return apperrors.NewValidationError(path+".rect_ratio", "must be an object")
	}
	if err := validateRatioRect(path+".rect_ratio", rrObj); err != nil {
		return err
	}

	if sd, present := region["rect_std_dev"]; present && sd != nil {
		sdObj, ok := sd.(map[string]interface{})
		if !ok {
			return apperrors.NewValidationError(path+".rect_std_dev", "must be an object")
		}
		for _, comp := range []string{"x", "y", "width", "height"} {
			v, ok := asNumber(sdObj[comp])
			if !ok || v < 0 {
				return apperrors.NewValidationError(path+".rect_std_dev."+comp,
					"must be a non-negative number")
			}
		}
	}

	for _, key := range []string{"pattern", "fallback_pattern", "description"} {
		if v, present := region[key]; present && v != nil {
			if _, ok := v.(string); !ok {
				return apperrors.NewValidationError(path+"."+key, "must be a string")
			}
		}
	}

	if v, present := region["extract_group"]; present && v != nil {
		n, ok := asInt(v)
		if !ok || n < 0 {
			return apperrors.NewValidationError(path+".extract_group",
				"must be a non-negative integer")
		}
	}

	if v, present := region["expected_length"]; present && v != nil {
		n, ok := asInt(v)
		if !ok || n < 1 {
			return apperrors.NewValidationError(path+".expected_length",
				"must be a positive integer")
		}
	}

	if v, present := region["required"]; present && v != nil {
		if _, ok := v.(bool); !ok {
			return apperrors.NewValidationError(path+".required", "must be a boolean")
		}
	}

	for _, key := range []string{"position_weight", "tolerance_ratio"} {
		if v, present := region[key]; present && v != nil {
			f, ok := asNumber(v)
			if !ok || f < 0 || f > 1 {
				return apperrors.NewValidationError(path+"."+key,
					"must be a number between 0 and 1")
			}
		}
	}

	if v, present := region["validation"]; present && v != nil {
		obj, ok := v.(map[string]interface{})
		if !ok {
			return apperrors.NewValidationError(path+".validation", "must be an object")
		}
		if err := validateFieldValidation(path+".validation", obj); err != nil {
			return err
		}
	}

	return nil
}

func validateFieldValidation(path string, v map[string]interface{}) error {
	for _, key := range []string{"min_length", "max_length"} {
		if raw, present := v[key]; present && raw != nil {
			n, ok := asInt(raw)
			if !ok || n < 0 {
				return apperrors.NewValidationError(path+"."+key,
					"must be a non-negative integer")
			}
		}
	}

	for _, key := range []string{"min_value", "max_value"} {
		if raw, present := v[key]; present && raw != nil {
			if _, ok := asNumber(raw); !ok {
				return apperrors.NewValidationError(path+"."+key, "must be a number")
			}
		}
	}

	if raw, present := v["allowed_values"]; present && raw != nil {
		list, ok := raw.([]interface{})
		if !ok {
			return apperrors.NewValidationError(path+".allowed_values",
				"must be a list of strings")
		}
		for i, item := range list {
			if _, ok := item.(string); !ok {
				return apperrors.NewValidationError(
					fmt.Sprintf("%s.allowed_values[%d]", path, i), "must be a string")
			}
		}
	}

	return nil
}

func validatePreprocess(pp map[string]interface{}) error {
	if v, present := pp["denoise"]; present && v != nil {
		s, ok := v.(string)
		if !ok || !validDenoiseMethods[s] {
			return apperrors.NewValidationError("preprocess.denoise",
				"must be one of: nlm, bilateral, gaussian")
		}
	}
	if v, present := pp["binarize"]; present && v != nil {
		s, ok := v.(string)
		if !ok || !validBinarizeMethods[s] {
			return apperrors.NewValidationError("preprocess.binarize",
				"must be one of: adaptive, otsu, threshold")
		}
	}
	return nil
}

func validateAnchor(anchor map[string]interface{}) error {
	enable, ok := anchor["enable"].(bool)
	if !ok {
		return apperrors.NewValidationError("anchor.enable", "must be a boolean")
	}
	if !enable {
		return nil
	}

	text, ok := anchor["text"].(string)
	if !ok || text == "" {
		return apperrors.NewValidationError("anchor.text",
			"must be a non-empty string when the anchor is enabled")
	}

	rr, ok := anchor["rect_ratio"].(map[string]interface{})
	if !ok {
		return apperrors.NewValidationError("anchor.rect_ratio", "must be an object")
	}
	if err := validateRatioRect("anchor.rect_ratio", rr); err != nil {
		return err
	}

	if v, present := anchor["tolerance_ratio"]; present && v != nil {
		f, ok := asNumber(v)
		if !ok || f < 0 || f > 1 {
			return apperrors.NewValidationError("anchor.tolerance_ratio",
				"must be a number between 0 and 1")
		}
	}

	return nil
}

func validateRatioRect(path string, rr map[string]interface{}) error {
	for _, comp := range []string{"x", "y", "width", "height"} {
		v, ok := asNumber(rr[comp])
		if !ok || v < 0 || v > 1 {
			return apperrors.NewValidationError(path+"."+comp,
				"must be a number between 0 and 1")
		}
	}
	return nil
}

func asNumber(v interface{}) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func asInt(v interface{}) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
