package content

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	"github.com/lueurxax/threat-monitor/internal/core/patterns"
	"github.com/lueurxax/threat-monitor/internal/process/extract"
)

const errFmtScore = "Analyze(%q) threat_score = %d, want %d"

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type emptyExtractor struct{}

func (emptyExtractor) ExtractText(string) *domain.ExtractedMetadata {
	return domain.NewExtractedMetadata()
}

func newDefaultAnalyzer() *Analyzer {
	tbl := patterns.Default()
	a := New(tbl, extract.New(tbl, nil))
	a.now = func() time.Time { return fixedNow }

	return a
}

func newMiniAnalyzer(keywords ...patterns.WeightedTerm) *Analyzer {
	tbl := &patterns.Table{
		Keywords:        keywords,
		WholeWordMaxLen: 2,
		Weights:         patterns.DefaultWeights(),
	}

	a := New(tbl, emptyExtractor{})
	a.now = func() time.Time { return fixedNow }

	return a
}

func TestAnalyzeSingleKeyword(t *testing.T) {
	got := newDefaultAnalyzer().Analyze("mdma", domain.PlatformUnknown)

	require.Equal(t, []domain.Match{{Token: "mdma", Weight: 90}}, got.KeywordMatches)
	assert.GreaterOrEqual(t, got.ThreatScore, 90)
	assert.Equal(t, domain.RiskHigh, got.RiskLevel)
	assert.InDelta(t, 0.5, got.Confidence, 1e-9)
}

func TestAnalyzeRiskBoundaries(t *testing.T) {
	tests := []struct {
		weight int
		want   domain.RiskLevel
	}{
		{49, domain.RiskLow},
		{50, domain.RiskMedium},
		{79, domain.RiskMedium},
		{80, domain.RiskHigh},
	}

	for _, tt := range tests {
		a := newMiniAnalyzer(patterns.WeightedTerm{Term: "alpha", Weight: tt.weight})
		got := a.Analyze("alpha", domain.PlatformUnknown)

		if got.ThreatScore != tt.weight {
			t.Errorf(errFmtScore, "alpha", got.ThreatScore, tt.weight)
		}

		assert.Equal(t, tt.want, got.RiskLevel, "weight %d", tt.weight)
	}
}

func TestAnalyzeAllSignalGroups(t *testing.T) {
	got := newDefaultAnalyzer().Analyze("🔥💊 Party pills available, DM for details. /start", domain.PlatformTelegram)

	assert.Equal(t, []domain.Match{{Token: "party pills", Weight: 85}, {Token: "dm", Weight: 70}}, got.KeywordMatches)
	assert.Len(t, got.SlangMatches, 3)
	assert.Equal(t, []domain.Match{{Token: "🔥", Weight: 70}, {Token: "💊", Weight: 80}}, got.EmojiMatches)
	assert.Len(t, got.ContextMatches, 2)
	assert.Equal(t, []string{domain.IndicatorBotCommands}, got.BotIndicators)
	assert.True(t, got.Metadata.Has(domain.CategoryTimeUrgency))

	for _, m := range got.SlangMatches {
		assert.Equal(t, 50, m.Weight)
	}

	for _, m := range got.ContextMatches {
		assert.Equal(t, 30, m.Weight)
	}

	assert.Equal(t, 100, got.ThreatScore)
	assert.Equal(t, domain.RiskHigh, got.RiskLevel)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
}

func TestAnalyzePlatformAdjustment(t *testing.T) {
	tests := []struct {
		platform domain.Platform
		want     int
	}{
		{domain.PlatformTelegram, 10},
		{domain.PlatformWhatsApp, 5},
		{domain.PlatformInstagram, 8},
		{domain.PlatformUnknown, 0},
	}

	a := newDefaultAnalyzer()

	for _, tt := range tests {
		got := a.Analyze("hello world", tt.platform)
		if got.ThreatScore != tt.want {
			t.Errorf(errFmtScore, tt.platform, got.ThreatScore, tt.want)
		}
	}
}

func TestAnalyzeShortKeywordsNeedWholeTokens(t *testing.T) {
	a := newMiniAnalyzer(patterns.WeightedTerm{Term: "x", Weight: 85})

	assert.Empty(t, a.Analyze("plain text", domain.PlatformUnknown).KeywordMatches)
	assert.Len(t, a.Analyze("got x tonight", domain.PlatformUnknown).KeywordMatches, 1)

	a.table.WholeWordMaxLen = 0
	assert.Len(t, a.Analyze("plain text", domain.PlatformUnknown).KeywordMatches, 1)
}

func TestAnalyzeOverlappingKeywordsEachScore(t *testing.T) {
	a := newMiniAnalyzer(
		patterns.WeightedTerm{Term: "crack", Weight: 95},
		patterns.WeightedTerm{Term: "crackdown", Weight: 5},
	)

	got := a.Analyze("crackdown", domain.PlatformUnknown)
	assert.Len(t, got.KeywordMatches, 2)
	assert.Equal(t, 100, got.ThreatScore)
}

func TestAnalyzeInlineIndicators(t *testing.T) {
	a := newDefaultAnalyzer()

	rep := a.Analyze("buy buy buy buy buy buy buy buy buy buy", domain.PlatformUnknown)
	assert.Contains(t, rep.BotIndicators, domain.IndicatorRepetitiveContent)

	emoji := a.Analyze("🔥🔥🔥🔥 ok", domain.PlatformUnknown)
	assert.Contains(t, emoji.BotIndicators, domain.IndicatorExcessiveEmojis)

	tmpl := a.Analyze("Best quality, trusted supplier", domain.PlatformUnknown)
	assert.Contains(t, tmpl.BotIndicators, domain.IndicatorTemplateLanguage)

	cmd := a.Analyze("/help", domain.PlatformWhatsApp)
	assert.NotContains(t, cmd.BotIndicators, domain.IndicatorBotCommands)
}

func TestAnalyzeEmptyText(t *testing.T) {
	got := newDefaultAnalyzer().Analyze("", domain.PlatformUnknown)

	assert.Zero(t, got.ThreatScore)
	assert.Equal(t, domain.RiskLow, got.RiskLevel)
	assert.Zero(t, got.Confidence)
	assert.NotNil(t, got.KeywordMatches)
	assert.Empty(t, got.KeywordMatches)
	assert.Empty(t, got.BotIndicators)
	assert.Empty(t, got.Metadata.Present())
}

func TestAnalyzeDeterministicAndBounded(t *testing.T) {
	a := newDefaultAnalyzer()
	texts := []string{
		"",
		"hello",
		"MDMA LSD cocaine heroin meth 💊💉🔥 cash only bitcoin accepted call 9876543210",
		"pay to dealer@upi for details, contact dealer@gmail.com",
		"🚀🚀🚀🚀🚀🚀🚀",
	}

	for _, text := range texts {
		first := a.Analyze(text, domain.PlatformTelegram)
		second := a.Analyze(text, domain.PlatformTelegram)

		assert.Equal(t, first, second)
		assert.True(t, first.ThreatScore >= 0 && first.ThreatScore <= 100, text)
		assert.True(t, first.Confidence >= 0 && first.Confidence <= 1, text)
		assert.Equal(t, domain.RiskLevelFor(first.ThreatScore), first.RiskLevel)
	}
}

func TestAnalyzeBatchPreservesOrder(t *testing.T) {
	a := newDefaultAnalyzer()
	inputs := []Input{
		{Text: "mdma", Platform: domain.PlatformUnknown},
		{Text: "hello world", Platform: domain.PlatformWhatsApp},
		{Text: "", Platform: domain.PlatformUnknown},
	}

	got, err := a.AnalyzeBatch(context.Background(), inputs, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, in := range inputs {
		assert.Equal(t, a.Analyze(in.Text, in.Platform), got[i])
	}
}

func TestAnalyzeBatchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDefaultAnalyzer().AnalyzeBatch(ctx, []Input{{Text: "mdma"}}, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSummarize(t *testing.T) {
	results := []domain.ContentAnalysis{
		{ThreatScore: 90, RiskLevel: domain.RiskHigh, Confidence: 0.8},
		{ThreatScore: 60, RiskLevel: domain.RiskMedium, Confidence: 0.6},
		{ThreatScore: 0, RiskLevel: domain.RiskLow, Confidence: 0.1},
	}

	stats := Summarize(results)

	assert.Equal(t, 3, stats.TotalAnalyses)
	assert.InDelta(t, 50.0, stats.AverageThreatScore, 1e-9)
	assert.Equal(t, 90, stats.MaxThreatScore)
	assert.Equal(t, 0, stats.MinThreatScore)
	assert.Equal(t, 1, stats.HighRiskCount)
	assert.Equal(t, 1, stats.MediumRiskCount)
	assert.Equal(t, 1, stats.LowRiskCount)
	assert.InDelta(t, 0.5, stats.AverageConfidence, 1e-9)

	assert.Equal(t, Statistics{}, Summarize(nil))
}
