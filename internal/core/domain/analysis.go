package domain

import "time"

// Match is one contributing signal of a content analysis.
type Match struct {
	Token  string `json:"token"`
	Weight int    `json:"weight"`
}

// Inline bot indicator tags reported by content analysis.
const (
	IndicatorRepetitiveContent = "repetitive_content"
	IndicatorExcessiveEmojis   = "excessive_emojis"
	IndicatorTemplateLanguage  = "template_language"
	IndicatorBotCommands       = "bot_commands"
)

// ContentAnalysis is the threat assessment of a single text.
type ContentAnalysis struct {
	ThreatScore    int                `json:"threat_score"`
	RiskLevel      RiskLevel          `json:"risk_level"`
	Confidence     float64            `json:"confidence"`
	Platform       Platform           `json:"platform"`
	KeywordMatches []Match            `json:"keyword_matches"`
	SlangMatches   []Match            `json:"slang_matches"`
	EmojiMatches   []Match            `json:"emoji_matches"`
	ContextMatches []Match            `json:"context_matches"`
	Metadata       *ExtractedMetadata `json:"metadata"`
	BotIndicators  []string           `json:"bot_indicators"`
	Timestamp      time.Time          `json:"timestamp"`
}

// ContentSignals groups the content sub-scores of a bot assessment.
type ContentSignals struct {
	RepetitiveRatio float64 `json:"repetitive_ratio"`
	TemplateRatio   float64 `json:"template_ratio"`
	EmojiDensity    float64 `json:"emoji_density"`
	IdenticalRatio  float64 `json:"identical_ratio"`
	URLDensity      float64 `json:"url_density"`
	HashtagDensity  float64 `json:"hashtag_density"`
}

// TimingSignals groups the timing sub-scores of a bot assessment.
type TimingSignals struct {
	Analyzed        bool    `json:"analyzed"`
	MessagesPerHour float64 `json:"messages_per_hour"`
	AvgIntervalSecs float64 `json:"avg_interval_seconds"`
	RegularPosting  bool    `json:"regular_posting"`
	BurstPosting    bool    `json:"burst_posting"`
}

// LanguageSignals groups the language-style sub-scores of a bot assessment.
type LanguageSignals struct {
	FormalRatio        float64 `json:"formal_ratio"`
	CasualRatio        float64 `json:"casual_ratio"`
	MixedRatio         float64 `json:"mixed_ratio"`
	SpellingErrorRatio float64 `json:"spelling_error_ratio"`
	CapitalizedRatio   float64 `json:"capitalized_ratio"`
}

// PlatformSignals groups the platform sub-scores of a bot assessment.
type PlatformSignals struct {
	BotCommandRatio    float64 `json:"bot_command_ratio"`
	VocabularyRatio    float64 `json:"platform_vocabulary_ratio"`
	CrossPlatformRatio float64 `json:"cross_platform_ratio"`
}

// BehaviorPatterns holds every sub-score group behind a bot verdict.
type BehaviorPatterns struct {
	Content  ContentSignals  `json:"content"`
	Timing   TimingSignals   `json:"timing"`
	Language LanguageSignals `json:"language"`
	Platform PlatformSignals `json:"platform"`
}

// BotDetection is the bot-likelihood assessment of one actor's message window.
type BotDetection struct {
	IsBot            bool             `json:"is_bot"`
	Confidence       float64          `json:"confidence"`
	RiskScore        int              `json:"risk_score"`
	Indicators       []string         `json:"indicators"`
	BehaviorPatterns BehaviorPatterns `json:"behavior_patterns"`
}
