package evaluation

import (
	"sort"
	"strings"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"

	"github.com/S93RUM-06/ocr-pipeline/internal/extractor"
)

// FieldReport compares one extracted field against its expected value.
type FieldReport struct {
	Field    string  `json:"field"`
	Expected string  `json:"expected"`
	Actual   string  `json:"actual"`
	Found    bool    `json:"found"`
	Exact    bool    `json:"exact"`
	WER      float64 `json:"word_error_rate"`
	CER      float64 `json:"character_error_rate"`
}

// Report aggregates per-field accuracy of one extraction run.
type Report struct {
	Fields         []FieldReport `json:"fields"`
	ExactMatchRate float64       `json:"exact_match_rate"`
}

// Compare scores an extraction result against expected ground-truth values.
// Only fields present in expected are scored; comparison is case-insensitive
// like the rest of the evaluation tooling.
func Compare(expected map[string]string, result *extractor.ExtractionResult) Report {
	names := make([]string, 0, len(expected))
	for name := range expected {
		names = append(names, name)
	}
	sort.Strings(names)

	report := Report{Fields: make([]FieldReport, 0, len(names))}
	exact := 0

	for _, name := range names {
		fr := FieldReport{Field: name, Expected: expected[name]}

		if match := result.Fields[name]; match != nil {
			fr.Found = true
			fr.Actual = match.Text
		}

		expectedLower := strings.ToLower(fr.Expected)
		actualLower := strings.ToLower(fr.Actual)

		fr.Exact = fr.Found && expectedLower == actualLower
		if fr.Exact {
			exact++
		}

		werValue, err := wer.WER(strings.Fields(expectedLower), strings.Fields(actualLower))
		if err == nil {
			fr.WER = werValue
		}

		if refLen := len([]rune(expectedLower)); refLen > 0 {
			fr.CER = float64(levenshtein.Distance(expectedLower, actualLower)) / float64(refLen)
		}

		report.Fields = append(report.Fields, fr)
	}

	if len(names) > 0 {
		report.ExactMatchRate = float64(exact) / float64(len(names))
	}
	return report
}
