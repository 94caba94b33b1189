// Package botdetect estimates how likely a window of messages from one actor
// was produced by automation.
//
// Four signal groups are computed over the window: content repetition,
// posting rhythm, language style and platform habits. Each group folds its
// sub-signals with fixed internal weights and the groups are fused into a
// probability with the component weights from the pattern table.
package botdetect

import (
	"math"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	"github.com/lueurxax/threat-monitor/internal/core/patterns"
	"github.com/lueurxax/threat-monitor/internal/process/heuristics"
)

// Human-readable indicators attached to a detection.
const (
	IndicatorRepetitive    = "High repetitive content"
	IndicatorTemplates     = "Frequent template phrases"
	IndicatorEmoji         = "Excessive emoji usage"
	IndicatorDuplicates    = "Duplicate messages detected"
	IndicatorHighFrequency = "Unusually high posting frequency"
	IndicatorFastResponse  = "Suspiciously fast response times"
	IndicatorMechanical    = "Mechanical posting schedule"
	IndicatorBurst         = "Burst posting patterns"
	IndicatorFormal        = "Overly formal language"
	IndicatorSpelling      = "Frequent spelling errors"
	IndicatorCapitals      = "Excessive capitalization"
	IndicatorBotCommands   = "Bot command usage"
	IndicatorCrossPlatform = "Generic cross-platform content"
)

// Detector scores message windows. It is safe for concurrent use.
type Detector struct {
	table *patterns.Table
}

// New creates a Detector over the given pattern table.
func New(table *patterns.Table) *Detector {
	return &Detector{table: table}
}

// Detect assesses one actor's messages posted on platform. An empty window
// yields a zero result.
func (d *Detector) Detect(messages []domain.TimedText, platform domain.Platform) domain.BotDetection {
	if len(messages) == 0 {
		return domain.BotDetection{Indicators: []string{}}
	}

	texts := make([]string, len(messages))
	for i, m := range messages {
		texts[i] = m.Text
	}

	bp := domain.BehaviorPatterns{
		Content:  d.contentSignals(texts),
		Timing:   d.timingSignals(messages),
		Language: d.languageSignals(texts),
		Platform: d.platformSignals(texts, platform),
	}

	p := d.Probability(bp)
	isBot, risk := d.Verdict(p)

	return domain.BotDetection{
		IsBot:            isBot,
		Confidence:       p,
		RiskScore:        risk,
		Indicators:       d.indicators(bp),
		BehaviorPatterns: bp,
	}
}

// Probability fuses the signal groups into a value in [0, 1].
func (d *Detector) Probability(bp domain.BehaviorPatterns) float64 {
	w := d.table.Weights.Bot
	th := w.Thresholds

	content := bp.Content.RepetitiveRatio*w.Repetitive +
		bp.Content.TemplateRatio*w.Template +
		bp.Content.EmojiDensity*w.Emoji +
		bp.Content.IdenticalRatio*w.Identical

	timing := 0.0
	if bp.Timing.Analyzed {
		if bp.Timing.MessagesPerHour > th.MessagesPerHour {
			timing += w.HighFrequency
		}

		if bp.Timing.AvgIntervalSecs < th.ResponseSeconds {
			timing += w.FastResponse
		}

		if bp.Timing.RegularPosting {
			timing += w.Regular
		}
	}

	language := bp.Language.FormalRatio*w.Formal +
		bp.Language.SpellingErrorRatio*w.Spelling +
		bp.Language.CapitalizedRatio*w.Capitalization

	platform := bp.Platform.BotCommandRatio*w.Commands +
		bp.Platform.CrossPlatformRatio*w.CrossPlatform

	p := content*w.Content + timing*w.Timing + language*w.Language + platform*w.Platform

	return math.Max(0, math.Min(1, p))
}

// Verdict classifies a fused probability. The bot threshold is exclusive.
func (d *Detector) Verdict(p float64) (isBot bool, riskScore int) {
	return p > d.table.Weights.Bot.Thresholds.BotProbability, int(math.Round(p * 100))
}

func (d *Detector) contentSignals(texts []string) domain.ContentSignals {
	vocab := d.table.Behavior
	n := float64(len(texts))

	var repetitive, template, urls, hashtags, nonASCII, runes int

	seen := make(map[string]int, len(texts))
	duplicates := 0

	for _, text := range texts {
		folded := patterns.Fold(text)

		if heuristics.IsRepetitive(text) {
			repetitive++
		}

		if patterns.ContainsAny(folded, vocab.TemplatePhrases) {
			template++
		}

		if vocab.URL.MatchString(text) {
			urls++
		}

		if vocab.Hashtag.MatchString(text) {
			hashtags++
		}

		nonASCII += heuristics.NonASCIICount(text)
		runes += utf8.RuneCountInString(text)

		if seen[text] > 0 {
			duplicates++
		}
		seen[text]++
	}

	return domain.ContentSignals{
		RepetitiveRatio: float64(repetitive) / n,
		TemplateRatio:   float64(template) / n,
		EmojiDensity:    ratio(nonASCII, runes),
		IdenticalRatio:  float64(duplicates) / n,
		URLDensity:      float64(urls) / n,
		HashtagDensity:  float64(hashtags) / n,
	}
}

func (d *Detector) timingSignals(messages []domain.TimedText) domain.TimingSignals {
	th := d.table.Weights.Bot.Thresholds

	stamps := make([]time.Time, 0, len(messages))
	for _, m := range messages {
		if !m.Timestamp.IsZero() {
			stamps = append(stamps, m.Timestamp)
		}
	}

	if len(stamps) < 2 {
		return domain.TimingSignals{}
	}

	slices.SortFunc(stamps, func(a, b time.Time) int { return a.Compare(b) })

	intervals := make([]float64, len(stamps)-1)
	sum := 0.0
	short := 0

	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		intervals[i-1] = gap.Seconds()
		sum += gap.Seconds()

		if gap < th.BurstInterval {
			short++
		}
	}

	avg := sum / float64(len(intervals))
	signals := domain.TimingSignals{
		Analyzed:        true,
		AvgIntervalSecs: avg,
		RegularPosting:  len(stamps) >= 3 && isRegular(intervals, avg, th.RegularDeviation),
		BurstPosting:    float64(short)/float64(len(intervals)) >= th.BurstRatio,
	}

	if hours := stamps[len(stamps)-1].Sub(stamps[0]).Hours(); hours > 0 {
		signals.MessagesPerHour = float64(len(stamps)) / hours
	}

	return signals
}

// isRegular reports every interval within maxDeviation of the mean. A zero
// mean means every message shares one timestamp, which is treated as regular.
func isRegular(intervals []float64, avg, maxDeviation float64) bool {
	if avg == 0 {
		return true
	}

	for _, iv := range intervals {
		if math.Abs(iv-avg)/avg >= maxDeviation {
			return false
		}
	}

	return true
}

func (d *Detector) languageSignals(texts []string) domain.LanguageSignals {
	vocab := d.table.Behavior
	th := d.table.Weights.Bot.Thresholds
	n := float64(len(texts))

	var formal, casual, mixed, spelling, capitals int

	for _, text := range texts {
		switch {
		case vocab.Formal.MatchString(text):
			formal++
		case vocab.Casual.MatchString(text):
			casual++
		default:
			mixed++
		}

		if heuristics.HasCharRun(text) {
			spelling++
		}

		if utf8.RuneCountInString(text) >= th.CapitalMinLength && heuristics.UpperRatio(text) > th.CapitalRatio {
			capitals++
		}
	}

	return domain.LanguageSignals{
		FormalRatio:        float64(formal) / n,
		CasualRatio:        float64(casual) / n,
		MixedRatio:         float64(mixed) / n,
		SpellingErrorRatio: float64(spelling) / n,
		CapitalizedRatio:   float64(capitals) / n,
	}
}

func (d *Detector) platformSignals(texts []string, platform domain.Platform) domain.PlatformSignals {
	vocab := d.table.Behavior
	terms := vocab.PlatformTerms[platform]
	n := float64(len(texts))

	var commands, specific, generic int

	for _, text := range texts {
		folded := patterns.Fold(text)

		if platform == domain.PlatformTelegram && vocab.BotCommand.MatchString(text) {
			commands++
		}

		if patterns.ContainsAny(folded, terms) {
			specific++
		}

		if patterns.ContainsAny(folded, vocab.CrossPlatformPhrases) {
			generic++
		}
	}

	return domain.PlatformSignals{
		BotCommandRatio:    float64(commands) / n,
		VocabularyRatio:    float64(specific) / n,
		CrossPlatformRatio: float64(generic) / n,
	}
}

func (d *Detector) indicators(bp domain.BehaviorPatterns) []string {
	th := d.table.Weights.Bot.Thresholds
	out := []string{}

	add := func(cond bool, indicator string) {
		if cond {
			out = append(out, indicator)
		}
	}

	add(bp.Content.RepetitiveRatio > th.Repetitive, IndicatorRepetitive)
	add(bp.Content.TemplateRatio > th.Template, IndicatorTemplates)
	add(bp.Content.EmojiDensity > th.EmojiDensity, IndicatorEmoji)
	add(bp.Content.IdenticalRatio > th.Identical, IndicatorDuplicates)

	if bp.Timing.Analyzed {
		add(bp.Timing.MessagesPerHour > th.MessagesPerHour, IndicatorHighFrequency)
		add(bp.Timing.AvgIntervalSecs < th.ResponseSeconds, IndicatorFastResponse)
		add(bp.Timing.RegularPosting, IndicatorMechanical)
		add(bp.Timing.BurstPosting, IndicatorBurst)
	}

	add(bp.Language.FormalRatio > th.Formal, IndicatorFormal)
	add(bp.Language.SpellingErrorRatio > th.Spelling, IndicatorSpelling)
	add(bp.Language.CapitalizedRatio > th.Capitals, IndicatorCapitals)

	add(bp.Platform.BotCommandRatio > th.Commands, IndicatorBotCommands)
	add(bp.Platform.CrossPlatformRatio > th.CrossPlatform, IndicatorCrossPlatform)

	return out
}

func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}

	return float64(part) / float64(total)
}
