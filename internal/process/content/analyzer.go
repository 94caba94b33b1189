// Package content scores a single message for illicit-trade signals.
//
// The score is additive: keyword, slang, emoji and context matches, a bonus
// per identifier category, a bonus per inline bot indicator and a platform
// adjustment, clamped to [0, MaxScore]. Every signal group is evaluated on
// every call, so the match lists are complete even when the score saturates.
package content

import (
	"strings"
	"time"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	"github.com/lueurxax/threat-monitor/internal/core/patterns"
	"github.com/lueurxax/threat-monitor/internal/process/heuristics"
)

// MetadataExtractor finds identifiers in text.
type MetadataExtractor interface {
	ExtractText(text string) *domain.ExtractedMetadata
}

// Analyzer scores texts against a pattern table. It is safe for concurrent use.
type Analyzer struct {
	table     *patterns.Table
	extractor MetadataExtractor
	now       func() time.Time
}

// New creates an Analyzer.
func New(table *patterns.Table, extractor MetadataExtractor) *Analyzer {
	return &Analyzer{table: table, extractor: extractor, now: time.Now}
}

// Analyze scores text posted on the given platform.
func (a *Analyzer) Analyze(text string, platform domain.Platform) domain.ContentAnalysis {
	folded := patterns.Fold(text)
	w := a.table.Weights.Content

	result := domain.ContentAnalysis{
		Platform:       platform,
		KeywordMatches: a.matchKeywords(folded),
		SlangMatches:   matchRules(folded, a.table.SlangRules),
		EmojiMatches:   a.matchEmojis(text),
		ContextMatches: matchRules(folded, a.table.ContextRules),
		Metadata:       a.extractor.ExtractText(text),
		BotIndicators:  a.inlineIndicators(text, folded, platform),
		Timestamp:      a.now().UTC(),
	}

	score := sumWeights(result.KeywordMatches) +
		sumWeights(result.SlangMatches) +
		sumWeights(result.EmojiMatches) +
		sumWeights(result.ContextMatches) +
		len(result.Metadata.Present())*w.MetadataCategory +
		len(result.BotIndicators)*w.BotIndicator +
		w.Platform[platform]

	result.ThreatScore = clamp(score, 0, w.MaxScore)
	result.RiskLevel = domain.RiskLevelFor(result.ThreatScore)
	result.Confidence = a.confidence(result)

	return result
}

func (a *Analyzer) matchKeywords(folded string) []domain.Match {
	matches := []domain.Match{}

	var tokens map[string]struct{}

	for _, kw := range a.table.Keywords {
		if len(kw.Term) <= a.table.WholeWordMaxLen {
			if tokens == nil {
				tokens = tokenSet(folded)
			}

			if _, ok := tokens[kw.Term]; !ok {
				continue
			}
		} else if !strings.Contains(folded, kw.Term) {
			continue
		}

		matches = append(matches, domain.Match{Token: kw.Term, Weight: kw.Weight})
	}

	return matches
}

func (a *Analyzer) matchEmojis(text string) []domain.Match {
	matches := []domain.Match{}

	for _, e := range a.table.Emojis {
		if strings.Contains(text, e.Term) {
			matches = append(matches, domain.Match{Token: e.Term, Weight: e.Weight})
		}
	}

	return matches
}

func matchRules(folded string, rules []patterns.Rule) []domain.Match {
	matches := []domain.Match{}

	for _, r := range rules {
		if r.Expr.MatchString(folded) {
			matches = append(matches, domain.Match{Token: r.Source, Weight: r.Weight})
		}
	}

	return matches
}

func (a *Analyzer) inlineIndicators(text, folded string, platform domain.Platform) []string {
	w := a.table.Weights.Content
	indicators := []string{}

	if heuristics.HasLowWordVariety(text, w.UniqueWordRatio) {
		indicators = append(indicators, domain.IndicatorRepetitiveContent)
	}

	if heuristics.NonASCIIRatio(text) > w.NonASCIIRatio {
		indicators = append(indicators, domain.IndicatorExcessiveEmojis)
	}

	if patterns.ContainsAny(folded, a.table.InlineTemplatePhrases) {
		indicators = append(indicators, domain.IndicatorTemplateLanguage)
	}

	if platform == domain.PlatformTelegram && patterns.ContainsAny(text, a.table.InlineCommands) {
		indicators = append(indicators, domain.IndicatorBotCommands)
	}

	return indicators
}

func (a *Analyzer) confidence(r domain.ContentAnalysis) float64 {
	w := a.table.Weights.Content
	conf := 0.0

	if r.ThreatScore > 0 {
		conf += w.ConfidenceBase
	}

	if len(r.KeywordMatches) > 0 {
		conf += w.ConfidenceKeyword
	}

	if len(r.SlangMatches) > 0 {
		conf += w.ConfidenceSlang
	}

	if len(r.EmojiMatches) > 0 {
		conf += w.ConfidenceEmoji
	}

	if len(r.ContextMatches) > 0 {
		conf += w.ConfidenceContext
	}

	if len(r.Metadata.Present()) > 0 {
		conf += w.ConfidenceMetadata
	}

	return min(1.0, conf)
}

func tokenSet(folded string) map[string]struct{} {
	tokens := heuristics.Tokens(folded)
	set := make(map[string]struct{}, len(tokens))

	for _, t := range tokens {
		set[t] = struct{}{}
	}

	return set
}

func sumWeights(matches []domain.Match) int {
	total := 0
	for _, m := range matches {
		total += m.Weight
	}

	return total
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
