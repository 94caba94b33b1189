package extract

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

const (
	highConfidenceThreshold = 0.8
	maxPaymentMethods       = 2
	maxPhoneNumbers         = 3
)

var anonymousMailProviders = []string{"protonmail.com", "tutanota.com", "tutanota.de", "mail.com"}

// HighConfidenceItem is a category whose matches mostly validated.
type HighConfidenceItem struct {
	Category   domain.Category `json:"type"`
	Confidence float64         `json:"confidence"`
	Count      int             `json:"count"`
}

// Summary is an investigator-oriented digest of extracted metadata.
type Summary struct {
	Totals             map[domain.Category]int `json:"totals"`
	OCRImagesProcessed int                     `json:"ocr_images_processed"`
	OverallConfidence  float64                 `json:"overall_confidence"`
	HighConfidence     []HighConfidenceItem    `json:"high_confidence_items"`
	SuspiciousPatterns []string                `json:"suspicious_patterns"`
}

// Summarize reports category totals, high-confidence categories and suspicious patterns.
func Summarize(meta *domain.ExtractedMetadata) Summary {
	s := Summary{
		Totals:             make(map[domain.Category]int),
		HighConfidence:     []HighConfidenceItem{},
		SuspiciousPatterns: SuspiciousPatterns(meta),
	}

	if meta == nil {
		return s
	}

	s.OCRImagesProcessed = len(meta.OCR)
	s.OverallConfidence = meta.Overall

	for _, c := range meta.Present() {
		s.Totals[c] = len(meta.Values[c])

		if conf := meta.Confidence[c]; conf > highConfidenceThreshold {
			s.HighConfidence = append(s.HighConfidence, HighConfidenceItem{
				Category:   c,
				Confidence: conf,
				Count:      len(meta.Values[c]),
			})
		}
	}

	return s
}

// SuspiciousPatterns flags combinations typical of illicit sellers.
func SuspiciousPatterns(meta *domain.ExtractedMetadata) []string {
	out := []string{}

	if methods := meta.Get(domain.CategoryPaymentMethod); len(methods) > maxPaymentMethods {
		out = append(out, "Multiple payment methods: "+strings.Join(methods, ", "))
	}

	if crypto := meta.Get(domain.CategoryCrypto); len(crypto) > 0 {
		out = append(out, fmt.Sprintf("Cryptocurrency addresses found: %d", len(crypto)))
	}

	if phones := meta.Get(domain.CategoryPhone); len(phones) > maxPhoneNumbers {
		out = append(out, fmt.Sprintf("Multiple phone numbers: %d", len(phones)))
	}

	var anonymous []string

	for _, email := range meta.Get(domain.CategoryEmail) {
		lower := strings.ToLower(email)
		if slices.ContainsFunc(anonymousMailProviders, func(p string) bool { return strings.HasSuffix(lower, "@"+p) }) {
			anonymous = append(anonymous, email)
		}
	}

	if len(anonymous) > 0 {
		out = append(out, "Anonymous email providers: "+strings.Join(anonymous, ", "))
	}

	for _, term := range meta.Get(domain.CategoryTimeUrgency) {
		if term == "24/7" || strings.EqualFold(term, "always") {
			out = append(out, "24/7 availability indicated")

			break
		}
	}

	return out
}
