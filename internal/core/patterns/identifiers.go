package patterns

import (
	"regexp"
	"strings"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

// IdentifierPattern extracts raw identifier matches from text.
//
// Group selects the submatch holding the identifier (0 for the whole match).
// When Classify is set, it decides the category per match and may reject it;
// otherwise every match belongs to Category. SkipDotted drops a match that
// runs straight into a dot and another handle character, since it is only
// the prefix of a dotted handle such as @john.doe.
type IdentifierPattern struct {
	Name       string
	Category   domain.Category
	Expr       *regexp.Regexp
	Group      int
	Classify   func(match string) (domain.Category, bool)
	Clean      func(match string) string
	SkipDotted bool
}

// FindAll returns the deduplicated matches of the pattern in first-seen order.
func (p IdentifierPattern) FindAll(text string) []string {
	found := p.Expr.FindAllStringSubmatchIndex(text, -1)
	if len(found) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(found))
	out := make([]string, 0, len(found))

	for _, idx := range found {
		start, end := 2*p.Group, 2*p.Group+1
		if end >= len(idx) || idx[start] < 0 {
			continue
		}

		if p.SkipDotted && continuesDotted(text, idx[end]) {
			continue
		}

		m := text[idx[start]:idx[end]]
		if p.Clean != nil {
			m = p.Clean(m)
		}

		if m == "" {
			continue
		}

		if _, ok := seen[m]; ok {
			continue
		}

		seen[m] = struct{}{}
		out = append(out, m)
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

func continuesDotted(text string, end int) bool {
	return end+1 < len(text) && text[end] == '.' && isHandleByte(text[end+1])
}

func isHandleByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// Identifier pattern names.
const (
	PatternPhoneIndia         = "phone_india"
	PatternPhoneInternational = "phone_international"
	PatternPhoneLocal         = "phone_local"
	PatternAtToken            = "at_token"
	PatternBitcoin            = "bitcoin"
	PatternSegwit             = "bitcoin_segwit"
	PatternEthereum           = "ethereum"
	PatternTelegramHandle     = "telegram_handle"
	PatternInstagramHandle    = "instagram_handle"
	PatternTwitterHandle      = "twitter_handle"
	PatternHashtag            = "hashtag"
	PatternURL                = "url"
	PatternBankAccount        = "bank_account"
	PatternIFSC               = "ifsc_code"
	PatternPAN                = "pan_card"
	PatternAadhaar            = "aadhaar"
	PatternLocation           = "location"
	PatternTimeUrgency        = "time_urgency"
	PatternPaymentMethod      = "payment_method"
)

// handlePrefix keeps a handle from starting in the middle of an address like dealer@upi.
const handlePrefix = `(?:^|[^A-Za-z0-9_.%+\-@])`

var (
	emailShape       = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	paymentUserShape = regexp.MustCompile(`^[A-Za-z0-9._\-]{3,50}$`)
	paymentBankShape = regexp.MustCompile(`^[A-Za-z]{2,10}$`)
	paymentDomain    = regexp.MustCompile(`^[A-Za-z]{2,}$`)
)

// ClassifyAtToken decides whether a local@domain token is an email address
// or a payment handle. The token is a payment handle only when its domain
// part contains no dot. Provider aliases that contain a dot are therefore
// read as email addresses; the rule is kept for output compatibility.
func ClassifyAtToken(token string) (domain.Category, bool) {
	local, host, ok := strings.Cut(token, "@")
	if !ok || local == "" || host == "" {
		return "", false
	}

	if strings.Contains(host, ".") {
		if emailShape.MatchString(token) {
			return domain.CategoryEmail, true
		}

		return "", false
	}

	if paymentDomain.MatchString(host) {
		return domain.CategoryPaymentHandle, true
	}

	return "", false
}

func trimHandle(m string) string {
	m = strings.TrimRight(m, ".")
	if len(m) < 2 {
		return ""
	}

	return m
}

func defaultIdentifiers() []IdentifierPattern {
	return []IdentifierPattern{
		{Name: PatternPhoneIndia, Category: domain.CategoryPhone, Expr: regexp.MustCompile(`\+?91[\-\s]?\d{5}[\-\s]?\d{5}\b`)},
		{Name: PatternPhoneInternational, Category: domain.CategoryPhone, Expr: regexp.MustCompile(`\+[1-9]\d{6,14}\b`)},
		{Name: PatternPhoneLocal, Category: domain.CategoryPhone, Expr: regexp.MustCompile(`\b\d{10}\b`)},
		{
			Name:     PatternAtToken,
			Expr:     regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]*[A-Za-z0-9]`),
			Classify: ClassifyAtToken,
		},
		{Name: PatternBitcoin, Category: domain.CategoryCrypto, Expr: regexp.MustCompile(`\b[13][a-km-zA-HJ-NP-Z1-9]{25,34}\b`)},
		{Name: PatternSegwit, Category: domain.CategoryCrypto, Expr: regexp.MustCompile(`\bbc1[a-z0-9]{25,39}\b`)},
		{Name: PatternEthereum, Category: domain.CategoryCrypto, Expr: regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b`)},
		{
			Name:       PatternTelegramHandle,
			Category:   domain.CategorySocialHandle,
			Expr:       regexp.MustCompile(handlePrefix + `(@[A-Za-z0-9_]{5,32})\b`),
			Group:      1,
			SkipDotted: true,
		},
		{
			Name:     PatternInstagramHandle,
			Category: domain.CategorySocialHandle,
			Expr:     regexp.MustCompile(handlePrefix + `(@[A-Za-z0-9_.]{1,30})`),
			Group:    1,
			Clean:    trimHandle,
		},
		{
			Name:       PatternTwitterHandle,
			Category:   domain.CategorySocialHandle,
			Expr:       regexp.MustCompile(handlePrefix + `(@[A-Za-z0-9_]{1,15})\b`),
			Group:      1,
			SkipDotted: true,
		},
		{Name: PatternHashtag, Category: domain.CategoryHashtag, Expr: regexp.MustCompile(`#[\p{L}\p{N}_]+`)},
		{
			Name:     PatternURL,
			Category: domain.CategoryURL,
			Expr: regexp.MustCompile(
				`(?i)https?://[\-\w.]+(?::\d+)?(?:/[\w/_.\-]*(?:\?[\w&=%.\-]*)?(?:#[\w.\-]*)?)?`),
		},
		{Name: PatternBankAccount, Category: domain.CategoryBank, Expr: regexp.MustCompile(`\b\d{9,18}\b`)},
		{Name: PatternIFSC, Category: domain.CategoryBank, Expr: regexp.MustCompile(`\b[A-Z]{4}0[A-Z0-9]{6}\b`)},
		{Name: PatternPAN, Category: domain.CategoryBank, Expr: regexp.MustCompile(`\b[A-Z]{5}[0-9]{4}[A-Z]\b`)},
		{Name: PatternAadhaar, Category: domain.CategoryBank, Expr: regexp.MustCompile(`\b\d{4}\s\d{4}\s\d{4}\b`)},
		{
			Name:     PatternLocation,
			Category: domain.CategoryLocation,
			Expr: regexp.MustCompile(
				`(?i)\b(?:Mumbai|Delhi|Bangalore|Chennai|Kolkata|Hyderabad|Pune|Ahmedabad|Jaipur|Lucknow)\b`),
		},
		{
			Name:     PatternTimeUrgency,
			Category: domain.CategoryTimeUrgency,
			Expr:     regexp.MustCompile(`(?i)(?:\b24/7\b|\b(?:always|available|ready|immediate|instant)\b)`),
		},
		{
			Name:     PatternPaymentMethod,
			Category: domain.CategoryPaymentMethod,
			Expr:     regexp.MustCompile(`(?i)\b(?:cash|upi|bitcoin|crypto|bank\s+transfer|paytm|gpay|phonepe)\b`),
		},
	}
}
