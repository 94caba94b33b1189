package patterns

import (
	"time"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

// Weights collects every fusion weight and threshold used by the scorers.
type Weights struct {
	Content ContentWeights
	Bot     BotWeights
}

// ContentWeights configures the additive threat score and its confidence.
type ContentWeights struct {
	MaxScore         int
	MetadataCategory int
	BotIndicator     int
	Platform         map[domain.Platform]int

	ConfidenceBase     float64
	ConfidenceKeyword  float64
	ConfidenceSlang    float64
	ConfidenceEmoji    float64
	ConfidenceContext  float64
	ConfidenceMetadata float64

	// Inline indicators fire when unique words fall under UniqueWordRatio of
	// all words, or when non-ASCII runes exceed NonASCIIRatio of all runes.
	UniqueWordRatio float64
	NonASCIIRatio   float64
}

// BotWeights configures bot-probability fusion.
type BotWeights struct {
	// Component weights; they sum to 1.
	Content  float64
	Timing   float64
	Language float64
	Platform float64

	// Content component: repetition, templates, emoji density, duplicates.
	Repetitive float64
	Template   float64
	Emoji      float64
	Identical  float64

	// Timing component budget per threshold crossing.
	HighFrequency float64
	FastResponse  float64
	Regular       float64

	// Language component: formal style, spelling, capitalization.
	Formal         float64
	Spelling       float64
	Capitalization float64

	// Platform component: bot commands, cross-platform templates.
	Commands      float64
	CrossPlatform float64

	Thresholds BotThresholds
}

// BotThresholds are the fixed cut-offs for timing signals, the verdict and indicator tags.
type BotThresholds struct {
	MessagesPerHour  float64
	ResponseSeconds  float64
	RegularDeviation float64
	BurstInterval    time.Duration
	BurstRatio       float64
	CapitalRatio     float64
	CapitalMinLength int
	BotProbability   float64

	Repetitive    float64
	Template      float64
	EmojiDensity  float64
	Identical     float64
	Formal        float64
	Spelling      float64
	Capitals      float64
	Commands      float64
	CrossPlatform float64
}

// DefaultWeights returns the production weights.
func DefaultWeights() Weights {
	return Weights{
		Content: ContentWeights{
			MaxScore:         100,
			MetadataCategory: 10,
			BotIndicator:     15,
			Platform: map[domain.Platform]int{
				domain.PlatformTelegram:  10,
				domain.PlatformWhatsApp:  5,
				domain.PlatformInstagram: 8,
			},
			ConfidenceBase:     0.3,
			ConfidenceKeyword:  0.2,
			ConfidenceSlang:    0.15,
			ConfidenceEmoji:    0.1,
			ConfidenceContext:  0.15,
			ConfidenceMetadata: 0.1,
			UniqueWordRatio:    0.3,
			NonASCIIRatio:      0.3,
		},
		Bot: BotWeights{
			Content:        0.4,
			Timing:         0.3,
			Language:       0.2,
			Platform:       0.1,
			Repetitive:     0.3,
			Template:       0.3,
			Emoji:          0.2,
			Identical:      0.2,
			HighFrequency:  0.5,
			FastResponse:   0.3,
			Regular:        0.2,
			Formal:         0.4,
			Spelling:       0.3,
			Capitalization: 0.3,
			Commands:       0.6,
			CrossPlatform:  0.4,
			Thresholds: BotThresholds{
				MessagesPerHour:  10,
				ResponseSeconds:  2,
				RegularDeviation: 0.2,
				BurstInterval:    time.Minute,
				BurstRatio:       0.3,
				CapitalRatio:     0.7,
				CapitalMinLength: 10,
				BotProbability:   0.7,
				Repetitive:       0.3,
				Template:         0.5,
				EmojiDensity:     0.4,
				Identical:        0.2,
				Formal:           0.7,
				Spelling:         0.3,
				Capitals:         0.5,
				Commands:         0.3,
				CrossPlatform:    0.6,
			},
		},
	}
}
