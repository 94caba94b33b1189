// Package extract finds and validates structured identifiers in free text.
package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	"github.com/lueurxax/threat-monitor/internal/core/patterns"
)

const (
	ocrLengthScale   = 100.0
	ocrQualityWeight = 0.3
)

// TextRecognizer turns an image into text.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Extractor runs the identifier patterns of a table over text and images.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	table *patterns.Table
	ocr   TextRecognizer
}

// New creates an Extractor. A nil recognizer disables image processing.
func New(table *patterns.Table, ocr TextRecognizer) *Extractor {
	return &Extractor{table: table, ocr: ocr}
}

// Extract categorizes identifiers found in text and, when a recognizer is
// configured, in the text of each image. Image failures are reported per
// image inside the OCR list and never abort the call.
func (e *Extractor) Extract(ctx context.Context, text string, images [][]byte) *domain.ExtractedMetadata {
	meta := e.ExtractText(text)

	if e.ocr == nil || len(images) == 0 {
		return meta
	}

	meta.OCR = make([]domain.OCRResult, 0, len(images))
	for i, img := range images {
		meta.OCR = append(meta.OCR, e.extractImage(ctx, i, img))
	}

	return meta
}

// ExtractText categorizes identifiers found in text.
func (e *Extractor) ExtractText(text string) *domain.ExtractedMetadata {
	meta := domain.NewExtractedMetadata()
	if strings.TrimSpace(text) == "" {
		return meta
	}

	for _, p := range e.table.Identifiers {
		for _, m := range p.FindAll(text) {
			category := p.Category

			if p.Classify != nil {
				var ok bool
				if category, ok = p.Classify(m); !ok {
					continue
				}
			}

			meta.Values[category] = appendUnique(meta.Values[category], m)
		}
	}

	e.score(meta)

	return meta
}

func (e *Extractor) score(meta *domain.ExtractedMetadata) {
	present := meta.Present()
	if len(present) == 0 {
		return
	}

	sum := 0.0

	for _, c := range present {
		conf := validRatio(meta.Values[c], e.table.Validators[c])
		meta.Confidence[c] = conf
		sum += conf
	}

	meta.Overall = sum / float64(len(present))
}

func validRatio(values []string, valid patterns.Validator) float64 {
	if len(values) == 0 {
		return 0
	}

	if valid == nil {
		return 1
	}

	ok := 0

	for _, v := range values {
		if valid(v) {
			ok++
		}
	}

	return float64(ok) / float64(len(values))
}

func (e *Extractor) extractImage(ctx context.Context, index int, img []byte) (result domain.OCRResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failedImage(index, fmt.Errorf("recognizer panic: %v", r))
		}
	}()

	text, err := e.ocr.Recognize(ctx, img)
	if err != nil {
		return failedImage(index, err)
	}

	return domain.OCRResult{
		ImageIndex: index,
		Text:       text,
		Metadata:   e.ExtractText(text),
		Confidence: OCRConfidence(text),
	}
}

func failedImage(index int, err error) domain.OCRResult {
	return domain.OCRResult{
		ImageIndex: index,
		Error:      err.Error(),
		Metadata:   domain.NewExtractedMetadata(),
		Confidence: 0,
	}
}

// OCRConfidence scores recognized text by length and alphanumeric density.
// It says nothing about identifier validity.
func OCRConfidence(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	total := 0
	alnum := 0

	for _, r := range text {
		total++

		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}

	conf := min(1.0, float64(total)/ocrLengthScale)
	conf += float64(alnum) / float64(total) * ocrQualityWeight

	return min(1.0, conf)
}

func appendUnique(dst []string, v string) []string {
	for _, existing := range dst {
		if existing == v {
			return dst
		}
	}

	return append(dst, v)
}
