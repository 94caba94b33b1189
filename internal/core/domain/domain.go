// Package domain holds the records exchanged between the scoring engine,
// storage and the outer surfaces. JSON field names are part of the output
// contract consumed by dashboards and narrative generation.
package domain

import (
	"strings"
	"time"
)

// Platform identifies the messaging platform a record came from.
type Platform string

// Supported platforms.
const (
	PlatformTelegram  Platform = "telegram"
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformInstagram Platform = "instagram"
	PlatformUnknown   Platform = "unknown"
)

// ParsePlatform normalizes a platform identifier. Unrecognized values map to PlatformUnknown.
func ParsePlatform(s string) Platform {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformTelegram, PlatformWhatsApp, PlatformInstagram:
		return p
	default:
		return PlatformUnknown
	}
}

// RiskLevel is the coarse tier derived from a threat score.
type RiskLevel string

// Risk levels.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Risk tier thresholds.
const (
	HighRiskThreshold   = 80
	MediumRiskThreshold = 50
)

// RiskLevelFor maps a threat score to its tier.
func RiskLevelFor(score int) RiskLevel {
	switch {
	case score >= HighRiskThreshold:
		return RiskHigh
	case score >= MediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Message is a single record produced by a message source.
type Message struct {
	ID        string    `json:"id" validate:"required"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Channel   string    `json:"channel" validate:"required"`
	Platform  Platform  `json:"platform" validate:"required,oneof=telegram whatsapp instagram unknown"`
	Images    [][]byte  `json:"-"`
}

// AccountID returns the platform-qualified identifier of the sender.
func (m Message) AccountID() string {
	return AccountKey(m.Platform, m.Sender)
}

// AccountKey builds a platform-qualified account identifier.
func AccountKey(platform Platform, username string) string {
	return string(platform) + ":" + strings.TrimPrefix(strings.TrimSpace(username), "@")
}

// TimedText is the minimal message shape needed for behavior analysis.
type TimedText struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
