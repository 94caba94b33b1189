package botdetect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	"github.com/lueurxax/threat-monitor/internal/core/patterns"
)

var baseTime = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func window(texts []string, step time.Duration) []domain.TimedText {
	out := make([]domain.TimedText, len(texts))
	for i, text := range texts {
		out[i] = domain.TimedText{Text: text, Timestamp: baseTime.Add(time.Duration(i) * step)}
	}

	return out
}

func repeat(text string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = text
	}

	return out
}

func TestDetectEmptyWindow(t *testing.T) {
	got := New(patterns.Default()).Detect(nil, domain.PlatformTelegram)

	assert.False(t, got.IsBot)
	assert.Zero(t, got.Confidence)
	assert.Zero(t, got.RiskScore)
	assert.NotNil(t, got.Indicators)
	assert.Empty(t, got.Indicators)
}

func TestVerdictThreshold(t *testing.T) {
	d := New(patterns.Default())

	tests := []struct {
		p     float64
		bot   bool
		score int
	}{
		{0, false, 0},
		{0.70, false, 70},
		{0.71, true, 71},
		{1, true, 100},
	}

	for _, tt := range tests {
		bot, score := d.Verdict(tt.p)
		assert.Equal(t, tt.bot, bot, "p=%v", tt.p)
		assert.Equal(t, tt.score, score, "p=%v", tt.p)
	}
}

func TestDetectTemplatedCommandSpam(t *testing.T) {
	msgs := window(repeat("/start Best quality, contact for details", 6), time.Second)

	got := New(patterns.Default()).Detect(msgs, domain.PlatformTelegram)

	// content (0.3 + 0.2*5/6)*0.4 + timing 1.0*0.3 + platform 1.0*0.1
	assert.InDelta(t, 0.58667, got.Confidence, 1e-4)
	assert.False(t, got.IsBot)
	assert.Equal(t, 59, got.RiskScore)
	assert.Equal(t, []string{
		IndicatorTemplates,
		IndicatorDuplicates,
		IndicatorHighFrequency,
		IndicatorFastResponse,
		IndicatorMechanical,
		IndicatorBurst,
		IndicatorBotCommands,
		IndicatorCrossPlatform,
	}, got.Indicators)

	timing := got.BehaviorPatterns.Timing
	assert.True(t, timing.Analyzed)
	assert.InDelta(t, 1.0, timing.AvgIntervalSecs, 1e-9)
	assert.InDelta(t, 4320.0, timing.MessagesPerHour, 1e-6)
}

func TestDetectShoutingBot(t *testing.T) {
	msgs := window(repeat("BEST QUALITY!!! DM FOR INFO", 6), time.Second)

	got := New(patterns.Default()).Detect(msgs, domain.PlatformUnknown)

	assert.InDelta(t, 0.76667, got.Confidence, 1e-4)
	assert.True(t, got.IsBot)
	assert.Equal(t, 77, got.RiskScore)
	assert.Contains(t, got.Indicators, IndicatorRepetitive)
	assert.Contains(t, got.Indicators, IndicatorSpelling)
	assert.Contains(t, got.Indicators, IndicatorCapitals)
	assert.NotContains(t, got.Indicators, IndicatorBotCommands)
}

func TestDetectHumanConversation(t *testing.T) {
	msgs := []domain.TimedText{
		{Text: "hey how are you", Timestamp: baseTime},
		{Text: "lol that was fun yesterday", Timestamp: baseTime.Add(2 * time.Hour)},
		{Text: "see you at the game tonight", Timestamp: baseTime.Add(7 * time.Hour)},
	}

	got := New(patterns.Default()).Detect(msgs, domain.PlatformUnknown)

	assert.False(t, got.IsBot)
	assert.Zero(t, got.Confidence)
	assert.Empty(t, got.Indicators)

	lang := got.BehaviorPatterns.Language
	assert.InDelta(t, 2.0/3, lang.CasualRatio, 1e-9)
	assert.InDelta(t, 1.0/3, lang.MixedRatio, 1e-9)
	assert.False(t, got.BehaviorPatterns.Timing.RegularPosting)
	assert.False(t, got.BehaviorPatterns.Timing.BurstPosting)
}

func TestDetectUntimedMessagesSkipTiming(t *testing.T) {
	msgs := []domain.TimedText{{Text: "hello"}, {Text: "world"}}

	got := New(patterns.Default()).Detect(msgs, domain.PlatformUnknown)

	assert.False(t, got.BehaviorPatterns.Timing.Analyzed)
	assert.NotContains(t, got.Indicators, IndicatorFastResponse)
	assert.Zero(t, got.Confidence)
}

func TestDetectOutOfOrderTimestamps(t *testing.T) {
	msgs := []domain.TimedText{
		{Text: "c", Timestamp: baseTime.Add(20 * time.Minute)},
		{Text: "a", Timestamp: baseTime},
		{Text: "b", Timestamp: baseTime.Add(10 * time.Minute)},
	}

	timing := New(patterns.Default()).Detect(msgs, domain.PlatformUnknown).BehaviorPatterns.Timing

	assert.InDelta(t, 600.0, timing.AvgIntervalSecs, 1e-9)
	assert.True(t, timing.RegularPosting)
	assert.InDelta(t, 9.0, timing.MessagesPerHour, 1e-9)
}

func TestBurstPostingBoundaries(t *testing.T) {
	d := New(patterns.Default())

	gaps := func(short int, shortGap time.Duration, long int) []time.Duration {
		var out []time.Duration
		for range short {
			out = append(out, shortGap)
		}

		for range long {
			out = append(out, 10*time.Minute)
		}

		return out
	}

	tests := []struct {
		name string
		gaps []time.Duration
		want bool
	}{
		{"exactly 30 percent under a minute", gaps(3, 59*time.Second, 7), true},
		{"just below 30 percent", gaps(2, 59*time.Second, 8), false},
		{"one of three intervals", gaps(1, 59*time.Second, 2), true},
		{"exactly one minute is not short", gaps(3, time.Minute, 7), false},
		{"every interval exactly one minute", gaps(10, time.Minute, 0), false},
		{"just under one minute", gaps(3, time.Minute-time.Millisecond, 7), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := []domain.TimedText{{Text: "start", Timestamp: baseTime}}
			at := baseTime

			for _, gap := range tt.gaps {
				at = at.Add(gap)
				msgs = append(msgs, domain.TimedText{Text: "next", Timestamp: at})
			}

			timing := d.Detect(msgs, domain.PlatformUnknown).BehaviorPatterns.Timing

			require.True(t, timing.Analyzed)
			assert.Equal(t, tt.want, timing.BurstPosting)
		})
	}
}

func TestLanguageClassification(t *testing.T) {
	d := New(patterns.Default())

	tests := []struct {
		name string
		text string
		want func(domain.LanguageSignals) float64
	}{
		{"formal wins over casual", "hey, could you please confirm", func(l domain.LanguageSignals) float64 { return l.FormalRatio }},
		{"casual needs whole words", "this is it", func(l domain.LanguageSignals) float64 { return l.MixedRatio }},
		{"casual", "omg that is cool", func(l domain.LanguageSignals) float64 { return l.CasualRatio }},
		{"spelling run", "sooo good", func(l domain.LanguageSignals) float64 { return l.SpellingErrorRatio }},
		{"capitals", "ORDER RIGHT NOW", func(l domain.LanguageSignals) float64 { return l.CapitalizedRatio }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect([]domain.TimedText{{Text: tt.text}}, domain.PlatformUnknown)
			assert.InDelta(t, 1.0, tt.want(got.BehaviorPatterns.Language), 1e-9)
		})
	}
}

func TestShortTextNeverCountsAsCapitalized(t *testing.T) {
	got := New(patterns.Default()).Detect([]domain.TimedText{{Text: "HELLO"}}, domain.PlatformUnknown)
	assert.Zero(t, got.BehaviorPatterns.Language.CapitalizedRatio)
}

func TestBotCommandsOnlyOnTelegram(t *testing.T) {
	d := New(patterns.Default())
	msgs := []domain.TimedText{{Text: "/menu"}}

	assert.InDelta(t, 1.0, d.Detect(msgs, domain.PlatformTelegram).BehaviorPatterns.Platform.BotCommandRatio, 1e-9)
	assert.Zero(t, d.Detect(msgs, domain.PlatformWhatsApp).BehaviorPatterns.Platform.BotCommandRatio)
}

func TestContentDensities(t *testing.T) {
	msgs := []domain.TimedText{
		{Text: "see https://example.com #deal"},
		{Text: "🔥🔥"},
		{Text: "plain"},
		{Text: "plain"},
	}

	c := New(patterns.Default()).Detect(msgs, domain.PlatformInstagram).BehaviorPatterns.Content

	assert.InDelta(t, 0.25, c.URLDensity, 1e-9)
	assert.InDelta(t, 0.25, c.HashtagDensity, 1e-9)
	assert.InDelta(t, 0.25, c.IdenticalRatio, 1e-9)
	assert.InDelta(t, 2.0/41, c.EmojiDensity, 1e-9)
}

func TestIsRegular(t *testing.T) {
	assert.True(t, isRegular([]float64{0, 0}, 0, 0.2))
	assert.True(t, isRegular([]float64{100, 110, 90}, 100, 0.2))
	assert.False(t, isRegular([]float64{100, 120, 80}, 100, 0.2))
}

func TestProbabilityBounded(t *testing.T) {
	d := New(patterns.Default())
	full := domain.BehaviorPatterns{
		Content:  domain.ContentSignals{RepetitiveRatio: 1, TemplateRatio: 1, EmojiDensity: 1, IdenticalRatio: 1},
		Timing:   domain.TimingSignals{Analyzed: true, MessagesPerHour: 1000, RegularPosting: true},
		Language: domain.LanguageSignals{FormalRatio: 1, SpellingErrorRatio: 1, CapitalizedRatio: 1},
		Platform: domain.PlatformSignals{BotCommandRatio: 1, CrossPlatformRatio: 1},
	}

	assert.InDelta(t, 1.0, d.Probability(full), 1e-9)
	assert.Zero(t, d.Probability(domain.BehaviorPatterns{}))
}

func TestDetectMany(t *testing.T) {
	d := New(patterns.Default())
	windows := []Window{
		{AccountID: "telegram:a", Platform: domain.PlatformTelegram, Messages: window(repeat("/start Best quality, contact for details", 6), time.Second)},
		{AccountID: "telegram:b", Platform: domain.PlatformUnknown},
		{AccountID: "telegram:c", Platform: domain.PlatformUnknown, Messages: window(repeat("BEST QUALITY!!! DM FOR INFO", 6), time.Second)},
	}

	got, err := d.DetectMany(context.Background(), windows, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, w := range windows {
		assert.Equal(t, d.Detect(w.Messages, w.Platform), got[i])
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = d.DetectMany(ctx, windows, 1)
	require.ErrorIs(t, err, context.Canceled)
}
