package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

func TestClassifyAtToken(t *testing.T) {
	tests := []struct {
		token  string
		want   domain.Category
		wantOK bool
	}{
		{"dealer@upi", domain.CategoryPaymentHandle, true},
		{"dealer@okaxis", domain.CategoryPaymentHandle, true},
		{"dealer@gmail.com", domain.CategoryEmail, true},
		{"first.last@mail.co.in", domain.CategoryEmail, true},
		{"dealer@x", "", false},
		{"dealer@123", "", false},
		{"@upi", "", false},
		{"dealer@", "", false},
		{"dealer@host.c", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := ClassifyAtToken(tt.token)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"9876543210", true},
		{"+91 98765 43210", true},
		{"91-98765-43210", true},
		{"+14155552671", true},
		{"+12345", false},
		{"12345", false},
		{"+1234567890123456", false},
	}

	for _, tt := range tests {
		if got := ValidPhone(tt.in); got != tt.want {
			t.Errorf("ValidPhone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidCryptoAddress(t *testing.T) {
	assert.True(t, ValidCryptoAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"))
	assert.True(t, ValidCryptoAddress("bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"))
	assert.True(t, ValidCryptoAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e"))
	assert.False(t, ValidCryptoAddress("0x742d35"))
	assert.False(t, ValidCryptoAddress("2A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"))
}

func TestValidPaymentHandle(t *testing.T) {
	assert.True(t, ValidPaymentHandle("dealer@upi"))
	assert.False(t, ValidPaymentHandle("ab@upi"))
	assert.False(t, ValidPaymentHandle("dealer@verylongbankname"))
	assert.False(t, ValidPaymentHandle("dealer"))
}

func TestValidOtherCategories(t *testing.T) {
	assert.True(t, ValidEmail("a.b@example.org"))
	assert.False(t, ValidEmail("a.b@example"))
	assert.True(t, ValidSocialHandle("@dealer_one"))
	assert.False(t, ValidSocialHandle("@a"))
	assert.True(t, ValidHashtag("#party"))
	assert.False(t, ValidHashtag("#2024"))
	assert.True(t, ValidURL("https://t.me/dealer"))
	assert.False(t, ValidURL("http://localhost"))
	assert.True(t, ValidBankIdentifier("HDFC0001234"))
	assert.True(t, ValidBankIdentifier("ABCDE1234F"))
	assert.True(t, ValidBankIdentifier("1234 5678 9012"))
	assert.True(t, ValidBankIdentifier("123456789012"))
	assert.False(t, ValidBankIdentifier("1234 5678"))
}

func TestIdentifierFindAllDeduplicates(t *testing.T) {
	var email IdentifierPattern

	for _, p := range Default().Identifiers {
		if p.Name == PatternAtToken {
			email = p
		}
	}

	require.NotNil(t, email.Expr)

	got := email.FindAll("mail a@b.com or a@b.com, or pay c@upi.")
	assert.Equal(t, []string{"a@b.com", "c@upi"}, got)
}

func TestHandlesSkipAddresses(t *testing.T) {
	tbl := Default()

	var handles []string

	for _, p := range tbl.Identifiers {
		if p.Category == domain.CategorySocialHandle {
			handles = append(handles, p.FindAll("pay dealer@upi or ping @dealer_one.")...)
		}
	}

	assert.NotContains(t, handles, "@upi")
	assert.Contains(t, handles, "@dealer_one")
}

func TestHandlesSkipDottedPrefixes(t *testing.T) {
	byName := map[string]IdentifierPattern{}
	for _, p := range Default().Identifiers {
		byName[p.Name] = p
	}

	tests := []struct {
		pattern string
		text    string
		want    []string
	}{
		{PatternTwitterHandle, "dm @john.doe", nil},
		{PatternTwitterHandle, "dm @john. then pay", []string{"@john"}},
		{PatternTwitterHandle, "dm @john.", []string{"@john"}},
		{PatternTwitterHandle, "dm @john.doe or @jane", []string{"@jane"}},
		{PatternTelegramHandle, "join @plugstore.official", nil},
		{PatternTelegramHandle, "join @plugstore", []string{"@plugstore"}},
		{PatternInstagramHandle, "dm @john.doe", []string{"@john.doe"}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, byName[tt.pattern].FindAll(tt.text))
		})
	}
}

func TestDefaultTableIsConsistent(t *testing.T) {
	tbl := Default()

	for _, kw := range tbl.Keywords {
		assert.Equal(t, Fold(kw.Term), kw.Term, "keywords are stored folded")
		assert.True(t, kw.Weight >= 0 && kw.Weight <= 100, kw.Term)
	}

	assert.Len(t, tbl.SlangRules, 9)
	assert.Len(t, tbl.ContextRules, 8)
	assert.Len(t, tbl.Emojis, 20)
	assert.Len(t, tbl.Behavior.TemplatePhrases, 20)

	bw := tbl.Weights.Bot
	assert.InDelta(t, 1.0, bw.Content+bw.Timing+bw.Language+bw.Platform, 1e-9)
	assert.InDelta(t, 1.0, bw.Repetitive+bw.Template+bw.Emoji+bw.Identical, 1e-9)
	assert.InDelta(t, 1.0, bw.HighFrequency+bw.FastResponse+bw.Regular, 1e-9)
	assert.InDelta(t, 1.0, bw.Formal+bw.Spelling+bw.Capitalization, 1e-9)
	assert.InDelta(t, 1.0, bw.Commands+bw.CrossPlatform, 1e-9)
}

func TestWordListExpr(t *testing.T) {
	expr := WordListExpr([]string{"hi", "what's up"})

	assert.True(t, expr.MatchString("Hi there"))
	assert.True(t, expr.MatchString("so what's up"))
	assert.False(t, expr.MatchString("this is it"))
}
