package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskLevelFor(t *testing.T) {
	tests := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskLow},
		{49, RiskLow},
		{50, RiskMedium},
		{79, RiskMedium},
		{80, RiskHigh},
		{100, RiskHigh},
	}

	for _, tt := range tests {
		if got := RiskLevelFor(tt.score); got != tt.want {
			t.Errorf("RiskLevelFor(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestParsePlatform(t *testing.T) {
	assert.Equal(t, PlatformTelegram, ParsePlatform(" Telegram "))
	assert.Equal(t, PlatformWhatsApp, ParsePlatform("whatsapp"))
	assert.Equal(t, PlatformInstagram, ParsePlatform("INSTAGRAM"))
	assert.Equal(t, PlatformUnknown, ParsePlatform("signal"))
	assert.Equal(t, PlatformUnknown, ParsePlatform(""))
}

func TestAccountKey(t *testing.T) {
	assert.Equal(t, "telegram:dealer", AccountKey(PlatformTelegram, "@dealer"))
	assert.Equal(t, "whatsapp:+919876543210", Message{Platform: PlatformWhatsApp, Sender: "+919876543210"}.AccountID())
}

func TestExtractedMetadataJSONLayout(t *testing.T) {
	m := NewExtractedMetadata()
	m.Values[CategoryEmail] = []string{"a@b.com"}
	m.Values[CategoryPhone] = []string{"9876543210"}
	m.Confidence[CategoryEmail] = 1
	m.Confidence[CategoryPhone] = 0.5
	m.Overall = 0.75

	data, err := json.Marshal(m)
	require.NoError(t, err)

	assert.Equal(t,
		`{"phone_numbers":["9876543210"],"email_addresses":["a@b.com"],"ocr_extracted":[],`+
			`"confidence_scores":{"phone_numbers":0.5,"email_addresses":1,"overall":0.75}}`,
		string(data))

	var decoded ExtractedMetadata
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, m.Values, decoded.Values)
	assert.Equal(t, m.Confidence, decoded.Confidence)
	assert.InDelta(t, 0.75, decoded.Overall, 1e-9)
}

func TestExtractedMetadataEmptyJSON(t *testing.T) {
	data, err := json.Marshal(NewExtractedMetadata())
	require.NoError(t, err)
	assert.Equal(t, `{"ocr_extracted":[],"confidence_scores":{"overall":0}}`, string(data))
}

func TestExtractedMetadataMerge(t *testing.T) {
	a := NewExtractedMetadata()
	a.Values[CategoryPhone] = []string{"1111111111"}
	a.Confidence[CategoryPhone] = 1

	b := NewExtractedMetadata()
	b.Values[CategoryPhone] = []string{"1111111111", "123"}
	b.Confidence[CategoryPhone] = 0.5
	b.Values[CategoryCrypto] = []string{"0xabc"}
	b.Confidence[CategoryCrypto] = 0

	a.Merge(b)

	assert.Equal(t, []string{"1111111111", "123"}, a.Get(CategoryPhone))
	assert.Equal(t, []Category{CategoryPhone, CategoryCrypto}, a.Present())
	assert.InDelta(t, (1.0*1+0.5*2)/3, a.Confidence[CategoryPhone], 1e-9)
	assert.Equal(t, 3, a.TotalItems())
}

func TestNilMetadataAccessors(t *testing.T) {
	var m *ExtractedMetadata

	assert.Nil(t, m.Get(CategoryPhone))
	assert.False(t, m.Has(CategoryPhone))
	assert.Empty(t, m.Present())
}
