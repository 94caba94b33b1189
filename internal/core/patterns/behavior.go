package patterns

import (
	"regexp"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

// BehaviorVocabulary holds the phrase lists and expressions used by bot detection.
type BehaviorVocabulary struct {
	// TemplatePhrases are stock sales phrases; matched as substrings of folded text.
	TemplatePhrases []string

	// CrossPlatformPhrases are generic phrases reusable on any platform.
	CrossPlatformPhrases []string

	// Formal is checked before Casual; a message matching neither is mixed.
	Formal *regexp.Regexp
	Casual *regexp.Regexp

	// BotCommand matches a slash command at the start of a message.
	BotCommand *regexp.Regexp

	// PlatformTerms are platform-specific markers matched as substrings.
	PlatformTerms map[domain.Platform][]string

	URL     *regexp.Regexp
	Hashtag *regexp.Regexp
}

func defaultBehaviorVocabulary() BehaviorVocabulary {
	return BehaviorVocabulary{
		TemplatePhrases: []string{
			"contact for details",
			"dm for info",
			"available now",
			"best quality",
			"discrete delivery",
			"trusted supplier",
			"no questions asked",
			"cash only",
			"bitcoin accepted",
			"upi payment",
			"delivery available",
			"pickup service",
			"meet and greet",
			"quality guaranteed",
			"pure stuff",
			"premium quality",
			"discrete packaging",
			"fast delivery",
			"reliable service",
			"trusted dealer",
		},
		CrossPlatformPhrases: []string{
			"contact for details",
			"dm for info",
			"available now",
			"best quality",
			"delivery available",
			"cash only",
		},
		Formal: WordListExpr([]string{
			"please", "kindly", "regards", "sincerely", "thank you",
			"would you", "could you", "may i", "shall we",
		}),
		Casual: WordListExpr([]string{
			"hey", "hi", "yo", "what's up", "cool", "awesome",
			"lol", "omg", "wtf", "btw", "imo", "tbh",
		}),
		BotCommand: regexp.MustCompile(`(?i)^/(?:start|help|menu|info|contact)\b`),
		PlatformTerms: map[domain.Platform][]string{
			domain.PlatformTelegram:  {"@", "t.me", "/start", "/help"},
			domain.PlatformWhatsApp:  {"wa.me", "whatsapp", "group"},
			domain.PlatformInstagram: {"#", "@", "instagram", "ig", "story"},
		},
		URL:     regexp.MustCompile(`https?://\S+|www\.\S+`),
		Hashtag: regexp.MustCompile(`#\w+`),
	}
}
