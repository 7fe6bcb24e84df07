package extractor

import (
	"strings"

	"github.com/arbovm/levenshtein"
	"github.com/sirupsen/logrus"

	"github.com/S93RUM-06/ocr-pipeline/internal/logger"
	"github.com/S93RUM-06/ocr-pipeline/internal/ocr"
	"github.com/S93RUM-06/ocr-pipeline/internal/template"
)

// anchorSimilarityThreshold is the minimum fuzzy-match similarity for a box
// to count as the anchor.
const anchorSimilarityThreshold = 0.7

// resolveAnchorShift locates the anchor text among the boxes and returns the
// pixel delta between its detected center and the expected center from the
// template. A zero shift is returned when the template has no enabled anchor,
// the strategy is not anchor based, or no box matches well enough.
func (e *HybridExtractor) resolveAnchorShift(boxes []ocr.Box, tpl *template.Template, imgW, imgH int) (int, int) {
	if tpl.ProcessingStrategy != template.StrategyAnchorBased {
		return 0, 0
	}
	anchor := tpl.Anchor
	if anchor == nil || !anchor.Enable || anchor.Text == "" {
		return 0, 0
	}

	bestIdx := -1
	bestSim := 0.0
	for i, box := range boxes {
		sim := anchorSimilarity(anchor.Text, box.Text)
		if sim > bestSim {
			bestSim = sim
			bestIdx = i
		}
	}

	if bestIdx < 0 || bestSim < anchorSimilarityThreshold {
		logger.WithFields(logrus.Fields{
			"anchor":          anchor.Text,
			"best_similarity": bestSim,
		}).Warn("Anchor text not found, extracting without coordinate re-basing")
		return 0, 0
	}

	detectedX, detectedY := boxes[bestIdx].BBox.Center()
	expectedX, expectedY := anchor.RectRatio.Center(imgW, imgH)

	shiftX := int(detectedX - expectedX)
	shiftY := int(detectedY - expectedY)

	logger.WithFields(logrus.Fields{
		"anchor":     anchor.Text,
		"similarity": bestSim,
		"shift_x":    shiftX,
		"shift_y":    shiftY,
	}).Debug("Anchor located, re-basing field regions")

	return shiftX, shiftY
}

// anchorSimilarity scores how well a recognized text matches the anchor
// text. Containment counts as a perfect match; otherwise the normalized
// Levenshtein similarity over runes is used.
func anchorSimilarity(anchorText, boxText string) float64 {
	if anchorText == "" || boxText == "" {
		return 0
	}
	if strings.Contains(boxText, anchorText) {
		return 1
	}

	distance := levenshtein.Distance(anchorText, boxText)
	longer := len([]rune(anchorText))
	if l := len([]rune(boxText)); l > longer {
		longer = l
	}
	if longer == 0 {
		return 0
	}
	return 1 - float64(distance)/float64(longer)
}
