// Package accounts folds analyzed messages into per-account summaries.
package accounts

import (
	"time"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

// Observe applies one analyzed message to the sender's summary and returns
// the updated copy. A nil prev starts a new summary. The threat score keeps
// the highest value seen, metadata is the ordered union of everything seen
// and the message count only grows.
func Observe(prev *domain.AccountSummary, msg domain.Message, analysis domain.ContentAnalysis) domain.AccountSummary {
	seenAt := msg.Timestamp
	if seenAt.IsZero() {
		seenAt = analysis.Timestamp
	}

	var next domain.AccountSummary
	if prev == nil {
		next = domain.AccountSummary{
			ID:        msg.AccountID(),
			Username:  msg.Sender,
			Platform:  msg.Platform,
			FirstSeen: seenAt,
			LastSeen:  seenAt,
		}
	} else {
		next = *prev
	}

	merged := domain.NewExtractedMetadata()
	if prev != nil {
		merged.Merge(prev.Metadata)
	}

	merged.Merge(analysis.Metadata)

	next.Metadata = merged
	next.ThreatScore = max(next.ThreatScore, analysis.ThreatScore)
	next.RiskLevel = domain.RiskLevelFor(next.ThreatScore)
	next.MessageCount++
	next.FirstSeen = earliest(next.FirstSeen, seenAt)
	next.LastSeen = latest(next.LastSeen, seenAt)

	return next
}

// WithBotAssessment records the latest bot verdict on a summary.
func WithBotAssessment(summary domain.AccountSummary, detection domain.BotDetection) domain.AccountSummary {
	summary.BotConfidence = detection.Confidence

	return summary
}

func earliest(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero() || a.Before(b):
		return a
	default:
		return b
	}
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}

	return a
}
