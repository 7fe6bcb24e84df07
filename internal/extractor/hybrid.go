package extractor

import (
	"regexp"
	"sort"

	"github.com/sirupsen/logrus"

	apperrors "github.com/S93RUM-06/ocr-pipeline/internal/errors"
	"github.com/S93RUM-06/ocr-pipeline/internal/geometry"
	"github.com/S93RUM-06/ocr-pipeline/internal/logger"
	"github.com/S93RUM-06/ocr-pipeline/internal/ocr"
	"github.com/S93RUM-06/ocr-pipeline/internal/template"
)

// Search layers of the fallback strategy.
const (
	LayerNone     = 0
	LayerROI      = 1
	LayerExpanded = 2
	LayerFull     = 3
)

// MatchCandidate is a transient scoring record for one box that passed the
// spatial and pattern filters of the current layer.
type MatchCandidate struct {
	Text          string
	Confidence    float64
	BBox          geometry.Rect
	PositionScore float64
	FormatScore   float64
	TotalScore    float64
	UsedFallback  bool
}

// FieldMatch is the winning candidate for one field. Absence of a match is
// represented by a nil *FieldMatch, never by sentinel values.
type FieldMatch struct {
	Text            string        `json:"text"`
	Confidence      float64       `json:"confidence"`
	BBox            geometry.Rect `json:"bbox"`
	PositionScore   float64       `json:"position_score"`
	FormatScore     float64       `json:"format_score"`
	TotalScore      float64       `json:"total_score"`
	CandidatesCount int           `json:"candidates_count"`
}

// ExtractionResult is the full output of one extraction pass.
type ExtractionResult struct {
	TemplateID string                 `json:"template_id"`
	Fields     map[string]*FieldMatch `json:"fields"`
}

// HybridExtractor ranks every OCR box against every field of a template.
// One full-page recognition pass supplies the boxes; the template supplies
// spatial hints and patterns. The extractor holds no state between calls.
type HybridExtractor struct{}

// NewHybridExtractor creates an extractor.
func NewHybridExtractor() *HybridExtractor {
	return &HybridExtractor{}
}

// ExtractFields finds the best match for every region of the template among
// the given boxes. The result always carries one entry per region; entries
// with no acceptable candidate are nil.
func (e *HybridExtractor) ExtractFields(boxes []ocr.Box, tpl *template.Template, imgW, imgH int) map[string]*FieldMatch {
	shiftX, shiftY := e.resolveAnchorShift(boxes, tpl, imgW, imgH)

	fields := make(map[string]*FieldMatch, len(tpl.Regions))
	for name, spec := range tpl.Regions {
		match, layer := e.extractWithFallback(boxes, name, spec, imgW, imgH, shiftX, shiftY)
		fields[name] = match
		if match != nil && layer > LayerROI {
			logger.WithFields(logrus.Fields{
				"field": name,
				"layer": layer,
			}).Debug("Field resolved after layer escalation")
		}
	}
	return fields
}

// extractWithFallback runs the three-layer search for one field and reports
// the layer that produced the result.
//
// Layer 1 searches the ROI expanded by the tolerance ratio, Layer 2 doubles
// the expansion, Layer 3 drops the spatial filter entirely but only runs for
// required fields.
func (e *HybridExtractor) extractWithFallback(boxes []ocr.Box, name string, spec *template.FieldSpec, imgW, imgH, shiftX, shiftY int) (*FieldMatch, int) {
	tolerance := spec.ToleranceRatio

	candidates := e.findInRegion(boxes, name, spec, imgW, imgH, &tolerance, shiftX, shiftY)
	if len(candidates) > 0 {
		return selectBest(candidates), LayerROI
	}

	expanded := tolerance * 2
	candidates = e.findInRegion(boxes, name, spec, imgW, imgH, &expanded, shiftX, shiftY)
	if len(candidates) > 0 {
		return selectBest(candidates), LayerExpanded
	}

	if spec.Required {
		candidates = e.findInRegion(boxes, name, spec, imgW, imgH, nil, shiftX, shiftY)
		if len(candidates) > 0 {
			return selectBest(candidates), LayerFull
		}
	}

	return nil, LayerNone
}

// findInRegion collects scored candidates among the boxes whose center lies
// in the ROI expanded by the given tolerance. A nil tolerance disables the
// spatial filter (Layer 3). The returned slice is sorted best first.
func (e *HybridExtractor) findInRegion(boxes []ocr.Box, name string, spec *template.FieldSpec, imgW, imgH int, tolerance *float64, shiftX, shiftY int) []MatchCandidate {
	if spec.Pattern == "" {
		return nil
	}

	primary, err := regexp.Compile(spec.Pattern)
	if err != nil {
		badPattern := apperrors.NewBadPatternError(name, spec.Pattern, err)
		logger.WithError(badPattern).WithField("field", name).Warn("Skipping field with invalid pattern")
		return nil
	}

	var fallback *regexp.Regexp
	if spec.FallbackPattern != "" {
		fallback, err = regexp.Compile(spec.FallbackPattern)
		if err != nil {
			badPattern := apperrors.NewBadPatternError(name, spec.FallbackPattern, err)
			logger.WithError(badPattern).WithField("field", name).Warn("Ignoring invalid fallback pattern")
			fallback = nil
		}
	}

	var roi *geometry.Rect
	if tolerance != nil {
		r := spec.RectRatio.ToPixels(imgW, imgH).Translate(shiftX, shiftY).Expand(*tolerance)
		roi = &r
	}

	weight := clampPositionWeight(name, spec.PositionWeight)

	var candidates []MatchCandidate
	for _, box := range boxes {
		if roi != nil && !roi.ContainsCenter(box.BBox) {
			continue
		}

		matched, usedFallback, ok := matchText(primary, fallback, box.Text, spec.ExtractGroup)
		if !ok {
			continue
		}

		positionScore := 1.0
		if roi != nil {
			positionScore = positionScoreFor(box.BBox, spec.RectRatio, imgW, imgH, shiftX, shiftY)
		}
		formatScore := formatScoreFor(matched, spec.ExpectedLength, usedFallback)
		totalScore := box.Confidence*0.5 + positionScore*weight + formatScore*(0.5-weight)

		candidates = append(candidates, MatchCandidate{
			Text:          matched,
			Confidence:    box.Confidence,
			BBox:          box.BBox,
			PositionScore: positionScore,
			FormatScore:   formatScore,
			TotalScore:    totalScore,
			UsedFallback:  usedFallback,
		})
	}

	sortCandidates(candidates)
	return candidates
}

// matchText applies the primary pattern and, on failure, the fallback. The
// capture group degrades to the whole match when out of range.
func matchText(primary, fallback *regexp.Regexp, text string, extractGroup int) (matched string, usedFallback, ok bool) {
	groups := primary.FindStringSubmatch(text)
	if groups == nil && fallback != nil {
		groups = fallback.FindStringSubmatch(text)
		usedFallback = true
	}
	if groups == nil {
		return "", false, false
	}

	if extractGroup >= 0 && extractGroup < len(groups) {
		return groups[extractGroup], usedFallback, true
	}
	return groups[0], usedFallback, true
}

// sortCandidates orders candidates best first with deterministic tie-breaks:
// total score, then confidence, then position score, then lexicographic text.
func sortCandidates(candidates []MatchCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.PositionScore != b.PositionScore {
			return a.PositionScore > b.PositionScore
		}
		return a.Text < b.Text
	})
}

func selectBest(candidates []MatchCandidate) *FieldMatch {
	best := candidates[0]
	return &FieldMatch{
		Text:            best.Text,
		Confidence:      best.Confidence,
		BBox:            best.BBox,
		PositionScore:   best.PositionScore,
		FormatScore:     best.FormatScore,
		TotalScore:      best.TotalScore,
		CandidatesCount: len(candidates),
	}
}

// positionScoreFor converts the distance between the box center and the ROI
// center, normalized by the image diagonal, into a score. The curve drops
// from 1.0 at the center to 0 around a fifth of the diagonal, with a small
// residual that only breaks ties between far-field boxes.
func positionScoreFor(bbox geometry.Rect, rectRatio geometry.RatioRect, imgW, imgH, shiftX, shiftY int) float64 {
	bx, by := bbox.Center()
	rx, ry := rectRatio.ToPixels(imgW, imgH).Translate(shiftX, shiftY).Center()

	distance := geometry.Distance(bx, by, rx, ry)
	norm := distance / geometry.Diagonal(imgW, imgH)

	switch {
	case norm < 0.1:
		return 1.0 - norm*5.0
	case norm < 0.2:
		return 0.5 - (norm-0.1)*5.0
	default:
		score := 0.1 - norm*0.5
		if score < 0 {
			return 0
		}
		return score
	}
}

// formatScoreFor starts at 1.0, charges 0.2 for using the fallback pattern
// and 0.05 per character of deviation from the expected length, capped at
// 0.5. Clamped to be non-negative.
func formatScoreFor(text string, expectedLength int, usedFallback bool) float64 {
	score := 1.0
	if usedFallback {
		score -= 0.2
	}
	if expectedLength > 0 {
		diff := len([]rune(text)) - expectedLength
		if diff < 0 {
			diff = -diff
		}
		penalty := float64(diff) * 0.05
		if penalty > 0.5 {
			penalty = 0.5
		}
		score -= penalty
	}
	if score < 0 {
		return 0
	}
	return score
}

// clampPositionWeight keeps the geometric weight in the supported [0, 0.5]
// range so the three score coefficients sum to 1.
func clampPositionWeight(field string, weight float64) float64 {
	if weight < 0 {
		logger.WithFields(logrus.Fields{
			"field":           field,
			"position_weight": weight,
		}).Warn("position_weight below supported range, clamping to 0")
		return 0
	}
	if weight > 0.5 {
		logger.WithFields(logrus.Fields{
			"field":           field,
			"position_weight": weight,
		}).Warn("position_weight above supported range, clamping to 0.5")
		return 0.5
	}
	return weight
}
