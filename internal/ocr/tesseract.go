package ocr

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/sirupsen/logrus"

	apperrors "github.com/S93RUM-06/ocr-pipeline/internal/errors"
	"github.com/S93RUM-06/ocr-pipeline/internal/geometry"
	"github.com/S93RUM-06/ocr-pipeline/internal/logger"
)

// DefaultMinConfidence is the threshold used by the text extraction helpers
// when no explicit value is configured.
const DefaultMinConfidence = 0.6

// TesseractAdapter implements Adapter on top of the Tesseract engine. The
// engine client is created lazily so construction stays cheap and tests that
// never call Recognize need no engine installed.
type TesseractAdapter struct {
	mu            sync.Mutex
	lang          string
	minConfidence float64
	client        *gosseract.Client
}

// NewTesseractAdapter creates an adapter for the given pipeline language tag
// (chinese_cht, chinese_sim, ch, en). minConfidence applies to the text
// extraction helpers only, never to Recognize itself.
func NewTesseractAdapter(lang string, minConfidence float64) *TesseractAdapter {
	if lang == "" {
		lang = "chinese_cht"
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &TesseractAdapter{
		lang:          lang,
		minConfidence: minConfidence,
	}
}

// SetLanguage changes the language tag for subsequent calls. The engine is
// re-initialized lazily on the next Recognize.
func (a *TesseractAdapter) SetLanguage(lang string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lang = lang
	if a.client != nil {
		a.client.Close()
		a.client = nil
	}
}

// Close releases the engine client.
func (a *TesseractAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		err := a.client.Close()
		a.client = nil
		return err
	}
	return nil
}

// Recognize runs one full-page recognition pass and converts the engine
// output into the pipeline box format.
func (a *TesseractAdapter) Recognize(img image.Image) ([]Box, error) {
	if err := CheckImage(img); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.initClient(); err != nil {
		return nil, err
	}

	encoded, err := encodeForOCR(img)
	if err != nil {
		return nil, apperrors.NewOCREngineError("failed to encode image for recognition", err)
	}

	if err := a.client.SetImageFromBytes(encoded); err != nil {
		return nil, apperrors.NewOCREngineError("engine rejected image", err)
	}

	lineBoxes, err := a.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, apperrors.NewOCREngineError("recognition failed", err)
	}

	boxes := make([]Box, 0, len(lineBoxes))
	for _, lb := range lineBoxes {
		text := strings.TrimSpace(lb.Word)
		if text == "" {
			continue
		}
		rect := geometry.Rect{
			X: lb.Box.Min.X,
			Y: lb.Box.Min.Y,
			W: lb.Box.Dx(),
			H: lb.Box.Dy(),
		}
		// Tesseract reports confidence in 0..100
		boxes = append(boxes, NewBoxFromRect(rect, text, lb.Confidence/100.0))
	}

	logger.WithFields(logrus.Fields{
		"lang":  a.lang,
		"boxes": len(boxes),
	}).Debug("Full-page recognition completed")

	return boxes, nil
}

// ExtractText returns recognized texts above the configured confidence
// threshold.
func (a *TesseractAdapter) ExtractText(boxes []Box) []string {
	return ExtractText(boxes, a.minConfidence)
}

// ExtractTextWithConfidence returns recognized texts with confidence and
// location above the configured threshold.
func (a *TesseractAdapter) ExtractTextWithConfidence(boxes []Box) []TextResult {
	return ExtractTextWithConfidence(boxes, a.minConfidence)
}

func (a *TesseractAdapter) initClient() error {
	if a.client != nil {
		return nil
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(MapLanguage(a.lang)); err != nil {
		client.Close()
		return apperrors.NewOCREngineError("failed to set engine language", err)
	}
	client.SetPageSegMode(gosseract.PSM_AUTO)
	a.client = client
	return nil
}

// MapLanguage translates a pipeline language tag into the Tesseract traineddata
// name. Unknown tags pass through unchanged so callers can address engine
// languages directly.
func MapLanguage(lang string) string {
	switch lang {
	case "chinese_cht", "chinese_tra":
		return "chi_tra"
	case "ch", "chinese_sim":
		return "chi_sim"
	case "en":
		return "eng"
	default:
		return lang
	}
}

// encodeForOCR serializes the raster for the engine, preferring JPEG and
// falling back to PNG.
func encodeForOCR(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 95}); err == nil {
		return buf.Bytes(), nil
	}
	buf.Reset()
	if err := png.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
