package patterns

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

// Validator reports whether a raw match is structurally valid for its category.
type Validator func(match string) bool

const (
	indiaPrefix         = "91"
	indiaNumberLen      = 12
	localNumberLen      = 10
	minInternationalLen = 7
	maxInternationalLen = 15
	aadhaarLen          = 12
	minAccountLen       = 9
	maxAccountLen       = 18
	minHandleLen        = 2
)

var (
	phoneSeparators = regexp.MustCompile(`[\-\s]`)
	legacyAddress   = regexp.MustCompile(`^[13][a-km-zA-HJ-NP-Z1-9]{25,34}$`)
	segwitAddress   = regexp.MustCompile(`^bc1[a-z0-9]{25,39}$`)
	accountAddress  = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	handleShape     = regexp.MustCompile(`^@[A-Za-z0-9_](?:[A-Za-z0-9_.]*[A-Za-z0-9_])?$`)
	ifscShape       = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	panShape        = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

func defaultValidators() map[domain.Category]Validator {
	return map[domain.Category]Validator{
		domain.CategoryPhone:         ValidPhone,
		domain.CategoryEmail:         ValidEmail,
		domain.CategoryPaymentHandle: ValidPaymentHandle,
		domain.CategoryCrypto:        ValidCryptoAddress,
		domain.CategorySocialHandle:  ValidSocialHandle,
		domain.CategoryHashtag:       ValidHashtag,
		domain.CategoryURL:           ValidURL,
		domain.CategoryBank:          ValidBankIdentifier,
	}
}

// ValidPhone accepts a 10-digit local number, a 91-prefixed Indian number
// or a +-prefixed international number of 7 to 15 characters.
func ValidPhone(match string) bool {
	cleaned := phoneSeparators.ReplaceAllString(match, "")

	switch {
	case strings.HasPrefix(cleaned, "+"):
		if strings.HasPrefix(cleaned, "+"+indiaPrefix) && len(cleaned) == indiaNumberLen+1 {
			return allDigits(cleaned[1:])
		}

		return len(cleaned) >= minInternationalLen && len(cleaned) <= maxInternationalLen && allDigits(cleaned[1:])
	case strings.HasPrefix(cleaned, indiaPrefix) && len(cleaned) == indiaNumberLen:
		return allDigits(cleaned)
	default:
		return len(cleaned) == localNumberLen && allDigits(cleaned)
	}
}

// ValidEmail checks the local@domain.tld shape.
func ValidEmail(match string) bool {
	return emailShape.MatchString(match)
}

// ValidPaymentHandle checks the user and provider parts of a payment handle.
func ValidPaymentHandle(match string) bool {
	user, provider, ok := strings.Cut(match, "@")
	if !ok {
		return false
	}

	return paymentUserShape.MatchString(user) && paymentBankShape.MatchString(provider)
}

// ValidCryptoAddress accepts legacy, segwit and 20-byte hex account addresses.
func ValidCryptoAddress(match string) bool {
	return legacyAddress.MatchString(match) || segwitAddress.MatchString(match) || accountAddress.MatchString(match)
}

// ValidSocialHandle rejects one-character handles and dotted edges.
func ValidSocialHandle(match string) bool {
	return len(match) > minHandleLen && handleShape.MatchString(match)
}

// ValidHashtag requires at least one letter after the hash.
func ValidHashtag(match string) bool {
	for _, r := range strings.TrimPrefix(match, "#") {
		if unicode.IsLetter(r) {
			return true
		}
	}

	return false
}

// ValidURL requires an http(s) scheme and a dotted host.
func ValidURL(match string) bool {
	u, err := url.Parse(match)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && strings.Contains(u.Hostname(), ".")
}

// ValidBankIdentifier accepts IFSC codes, PAN numbers, 12-digit Aadhaar
// numbers and 9 to 18 digit account numbers.
func ValidBankIdentifier(match string) bool {
	if ifscShape.MatchString(match) || panShape.MatchString(match) {
		return true
	}

	digits := strings.ReplaceAll(match, " ", "")
	if !allDigits(digits) {
		return false
	}

	if digits != match {
		return len(digits) == aadhaarLen
	}

	return len(digits) >= minAccountLen && len(digits) <= maxAccountLen
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
