package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/S93RUM-06/ocr-pipeline/internal/extractor"
	"github.com/S93RUM-06/ocr-pipeline/internal/template"
)

// Issue is one advisory finding about an extracted field. Issues never
// discard a match; callers surface them as warnings.
type Issue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// FieldValidator applies the advisory validation sub-objects of a template
// to extracted matches.
type FieldValidator struct{}

// NewFieldValidator creates a field validator.
func NewFieldValidator() *FieldValidator {
	return &FieldValidator{}
}

// CheckResult runs the advisory checks for every matched field of a result.
func (v *FieldValidator) CheckResult(tpl *template.Template, result *extractor.ExtractionResult) []Issue {
	var issues []Issue
	for name, spec := range tpl.Regions {
		match := result.Fields[name]
		if match == nil || spec.Validation == nil {
			continue
		}
		issues = append(issues, v.CheckField(name, spec.Validation, match.Text)...)
	}
	return issues
}

// CheckField applies one validation sub-object to an extracted text.
func (v *FieldValidator) CheckField(name string, rules *template.FieldValidation, text string) []Issue {
	var issues []Issue
	length := len([]rune(text))

	if rules.MinLength != nil && length < *rules.MinLength {
		issues = append(issues, Issue{
			Field:   name,
			Rule:    "min_length",
			Message: fmt.Sprintf("length %d below minimum %d", length, *rules.MinLength),
		})
	}
	if rules.MaxLength != nil && length > *rules.MaxLength {
		issues = append(issues, Issue{
			Field:   name,
			Rule:    "max_length",
			Message: fmt.Sprintf("length %d above maximum %d", length, *rules.MaxLength),
		})
	}

	if rules.MinValue != nil || rules.MaxValue != nil {
		value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			issues = append(issues, Issue{
				Field:   name,
				Rule:    "numeric",
				Message: fmt.Sprintf("value %q is not numeric", text),
			})
		} else {
			if rules.MinValue != nil && value < *rules.MinValue {
				issues = append(issues, Issue{
					Field:   name,
					Rule:    "min_value",
					Message: fmt.Sprintf("value %v below minimum %v", value, *rules.MinValue),
				})
			}
			if rules.MaxValue != nil && value > *rules.MaxValue {
				issues = append(issues, Issue{
					Field:   name,
					Rule:    "max_value",
					Message: fmt.Sprintf("value %v above maximum %v", value, *rules.MaxValue),
				})
			}
		}
	}

	if len(rules.AllowedValues) > 0 {
		allowed := false
		for _, candidate := range rules.AllowedValues {
			if text == candidate {
				allowed = true
				break
			}
		}
		if !allowed {
			issues = append(issues, Issue{
				Field:   name,
				Rule:    "allowed_values",
				Message: fmt.Sprintf("value %q not in the allowed set", text),
			})
		}
	}

	return issues
}
