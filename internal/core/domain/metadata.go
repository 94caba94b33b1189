package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Category names an identifier category recognized by the extractor.
type Category string

// Identifier categories, in output assembly order.
const (
	CategoryPhone         Category = "phone_numbers"
	CategoryEmail         Category = "email_addresses"
	CategoryPaymentHandle Category = "upi_ids"
	CategoryCrypto        Category = "cryptocurrency_addresses"
	CategorySocialHandle  Category = "social_media_handles"
	CategoryHashtag       Category = "hashtags"
	CategoryURL           Category = "urls"
	CategoryBank          Category = "bank_details"
	CategoryLocation      Category = "location_indicators"
	CategoryTimeUrgency   Category = "time_indicators"
	CategoryPaymentMethod Category = "payment_methods"
)

const (
	keyOCRExtracted      = "ocr_extracted"
	keyConfidenceScores  = "confidence_scores"
	keyOverallConfidence = "overall"
)

// Categories lists every category in the fixed assembly order.
var Categories = []Category{
	CategoryPhone,
	CategoryEmail,
	CategoryPaymentHandle,
	CategoryCrypto,
	CategorySocialHandle,
	CategoryHashtag,
	CategoryURL,
	CategoryBank,
	CategoryLocation,
	CategoryTimeUrgency,
	CategoryPaymentMethod,
}

// LinkageCategories are the categories compared when linking accounts.
var LinkageCategories = []Category{
	CategoryPhone,
	CategoryEmail,
	CategoryPaymentHandle,
	CategoryCrypto,
}

// ExtractedMetadata is the categorized identifier set found in a text.
// A category is present in Values only when it holds at least one match,
// and Confidence has an entry exactly for the present categories.
type ExtractedMetadata struct {
	Values     map[Category][]string
	Confidence map[Category]float64
	Overall    float64
	OCR        []OCRResult
}

// OCRResult reports identifiers found in the text of one attached image.
type OCRResult struct {
	ImageIndex int                `json:"image_index"`
	Text       string             `json:"text,omitempty"`
	Metadata   *ExtractedMetadata `json:"metadata"`
	Confidence float64            `json:"confidence"`
	Error      string             `json:"error,omitempty"`
}

// NewExtractedMetadata returns an empty metadata set.
func NewExtractedMetadata() *ExtractedMetadata {
	return &ExtractedMetadata{
		Values:     make(map[Category][]string),
		Confidence: make(map[Category]float64),
		OCR:        []OCRResult{},
	}
}

// Get returns the matches of a category, nil when absent.
func (m *ExtractedMetadata) Get(c Category) []string {
	if m == nil {
		return nil
	}

	return m.Values[c]
}

// Has reports whether a category holds at least one match.
func (m *ExtractedMetadata) Has(c Category) bool {
	return len(m.Get(c)) > 0
}

// Present returns the non-empty categories in assembly order.
func (m *ExtractedMetadata) Present() []Category {
	if m == nil {
		return nil
	}

	out := make([]Category, 0, len(m.Values))

	for _, c := range Categories {
		if len(m.Values[c]) > 0 {
			out = append(out, c)
		}
	}

	return out
}

// TotalItems returns the number of matches across all categories.
func (m *ExtractedMetadata) TotalItems() int {
	total := 0
	for _, c := range m.Present() {
		total += len(m.Values[c])
	}

	return total
}

// Merge adds the values of other into m, keeping first-seen order and dropping duplicates.
// Confidence of a merged category is the match-weighted mean of both sides.
func (m *ExtractedMetadata) Merge(other *ExtractedMetadata) {
	if other == nil {
		return
	}

	if m.Values == nil {
		m.Values = make(map[Category][]string)
	}

	if m.Confidence == nil {
		m.Confidence = make(map[Category]float64)
	}

	for _, c := range other.Present() {
		before := len(m.Values[c])
		added := len(other.Values[c])
		m.Values[c] = appendUnique(m.Values[c], other.Values[c]...)

		if before == 0 {
			m.Confidence[c] = other.Confidence[c]

			continue
		}

		m.Confidence[c] = (m.Confidence[c]*float64(before) + other.Confidence[c]*float64(added)) / float64(before+added)
	}

	m.Overall = meanConfidence(m)
}

func meanConfidence(m *ExtractedMetadata) float64 {
	present := m.Present()
	if len(present) == 0 {
		return 0
	}

	sum := 0.0
	for _, c := range present {
		sum += m.Confidence[c]
	}

	return sum / float64(len(present))
}

func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]struct{}, len(dst)+len(values))
	for _, v := range dst {
		seen[v] = struct{}{}
	}

	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}

		seen[v] = struct{}{}
		dst = append(dst, v)
	}

	return dst
}

// MarshalJSON writes categories in assembly order followed by
// ocr_extracted and confidence_scores.
func (m *ExtractedMetadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for _, c := range m.Present() {
		if err := writeJSONField(&buf, string(c), m.Values[c]); err != nil {
			return nil, err
		}

		buf.WriteByte(',')
	}

	ocr := m.OCR
	if ocr == nil {
		ocr = []OCRResult{}
	}

	if err := writeJSONField(&buf, keyOCRExtracted, ocr); err != nil {
		return nil, err
	}

	buf.WriteByte(',')
	buf.WriteString(`"` + keyConfidenceScores + `":{`)

	present := m.Present()
	for _, c := range present {
		if err := writeJSONField(&buf, string(c), m.Confidence[c]); err != nil {
			return nil, err
		}

		buf.WriteByte(',')
	}

	if err := writeJSONField(&buf, keyOverallConfidence, m.Overall); err != nil {
		return nil, err
	}

	buf.WriteString("}}")

	return buf.Bytes(), nil
}

func writeJSONField(buf *bytes.Buffer, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	buf.WriteString(`"` + key + `":`)
	buf.Write(encoded)

	return nil
}

// UnmarshalJSON reads the layout produced by MarshalJSON.
func (m *ExtractedMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal metadata: %w", err)
	}

	*m = *NewExtractedMetadata()

	for _, c := range Categories {
		field, ok := raw[string(c)]
		if !ok {
			continue
		}

		var values []string
		if err := json.Unmarshal(field, &values); err != nil {
			return fmt.Errorf("unmarshal %s: %w", c, err)
		}

		if len(values) > 0 {
			m.Values[c] = values
		}
	}

	if field, ok := raw[keyOCRExtracted]; ok {
		if err := json.Unmarshal(field, &m.OCR); err != nil {
			return fmt.Errorf("unmarshal %s: %w", keyOCRExtracted, err)
		}
	}

	if field, ok := raw[keyConfidenceScores]; ok {
		var scores map[string]float64
		if err := json.Unmarshal(field, &scores); err != nil {
			return fmt.Errorf("unmarshal %s: %w", keyConfidenceScores, err)
		}

		for _, c := range m.Present() {
			m.Confidence[c] = scores[string(c)]
		}

		m.Overall = scores[keyOverallConfidence]
	}

	return nil
}
