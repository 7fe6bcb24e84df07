package orchestrator

import (
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	apperrors "github.com/S93RUM-06/ocr-pipeline/internal/errors"
	"github.com/S93RUM-06/ocr-pipeline/internal/extractor"
	"github.com/S93RUM-06/ocr-pipeline/internal/imaging"
	"github.com/S93RUM-06/ocr-pipeline/internal/logger"
	"github.com/S93RUM-06/ocr-pipeline/internal/ocr"
	"github.com/S93RUM-06/ocr-pipeline/internal/preprocess"
	"github.com/S93RUM-06/ocr-pipeline/internal/template"
)

// Orchestrator composes an OCR adapter, a loaded template and the hybrid
// extractor into one Process call. It holds no mutable state across calls
// other than the loaded template; the OCR result lives only for the
// duration of one Process invocation.
type Orchestrator struct {
	adapter   ocr.Adapter
	extractor *extractor.HybridExtractor
	template  *template.Template
}

// New creates an orchestrator bound to an OCR adapter.
func New(adapter ocr.Adapter) (*Orchestrator, error) {
	if adapter == nil {
		return nil, fmt.Errorf("ocr adapter is required")
	}
	return &Orchestrator{
		adapter:   adapter,
		extractor: extractor.NewHybridExtractor(),
	}, nil
}

// LoadTemplate installs a validated template. Loading again overwrites the
// previous template and leaves no residue.
func (o *Orchestrator) LoadTemplate(tpl *template.Template) error {
	if tpl == nil {
		return apperrors.NewValidationError("", "template must not be nil")
	}
	o.template = tpl
	logger.WithTemplate(tpl.TemplateID).WithFields(logrus.Fields{
		"regions":  len(tpl.Regions),
		"strategy": tpl.ProcessingStrategy,
	}).Info("Template loaded")
	return nil
}

// LoadTemplateJSON validates and installs a template from raw JSON bytes.
func (o *Orchestrator) LoadTemplateJSON(data []byte) error {
	tpl, err := template.Parse(data)
	if err != nil {
		return err
	}
	return o.LoadTemplate(tpl)
}

// LoadTemplateFile reads, validates and installs a template file.
func (o *Orchestrator) LoadTemplateFile(path string) error {
	tpl, err := template.ParseFile(path)
	if err != nil {
		return err
	}
	return o.LoadTemplate(tpl)
}

// Template returns the currently loaded template, or nil.
func (o *Orchestrator) Template() *template.Template {
	return o.template
}

// Reset clears the loaded template.
func (o *Orchestrator) Reset() {
	o.template = nil
}

// Process runs one extraction pass over an image. The OCR adapter is
// invoked exactly once; its output is discarded before Process returns.
// Cancellation is checked before the OCR call and before scoring.
func (o *Orchestrator) Process(ctx context.Context, img image.Image) (*extractor.ExtractionResult, error) {
	if o.template == nil {
		return nil, apperrors.NewTemplateNotLoadedError()
	}

	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewCancelledError(err)
	}

	input := preprocess.Apply(img, o.template.Preprocess)

	boxes, err := o.adapter.Recognize(input)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewCancelledError(err)
	}

	w, h := imaging.Dimensions(img)
	fields := o.extractor.ExtractFields(boxes, o.template, w, h)

	logger.WithTemplate(o.template.TemplateID).WithFields(logrus.Fields{
		"boxes":    len(boxes),
		"resolved": countResolved(fields),
		"regions":  len(fields),
	}).Debug("Extraction completed")

	return &extractor.ExtractionResult{
		TemplateID: o.template.TemplateID,
		Fields:     fields,
	}, nil
}

// ProcessFile loads an image from disk and processes it.
func (o *Orchestrator) ProcessFile(ctx context.Context, path string) (*extractor.ExtractionResult, error) {
	img, err := imaging.Load(path)
	if err != nil {
		return nil, err
	}
	return o.Process(ctx, img)
}

func countResolved(fields map[string]*extractor.FieldMatch) int {
	n := 0
	for _, m := range fields {
		if m != nil {
			n++
		}
	}
	return n
}
