package narrative

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

// criticalScore marks high threat alerts as critical.
const criticalScore = 90

// HighThreat builds the alert for an account crossing the threat threshold.
func (r *Renderer) HighThreat(acc domain.AccountSummary) domain.Alert {
	severity := domain.SeverityHigh
	if acc.ThreatScore >= criticalScore {
		severity = domain.SeverityCritical
	}

	return r.alert(domain.AlertHighThreat, severity, map[string]string{
		"account":      acc.ID,
		"platform":     string(acc.Platform),
		"threat_score": strconv.Itoa(acc.ThreatScore),
		"risk_level":   string(acc.RiskLevel),
	})
}

// BotDetected builds the alert for an account classified as automated.
func (r *Renderer) BotDetected(acc domain.AccountSummary, det domain.BotDetection) domain.Alert {
	return r.alert(domain.AlertBotDetected, domain.SeverityHigh, map[string]string{
		"account":    acc.ID,
		"platform":   string(acc.Platform),
		"confidence": strconv.Itoa(det.RiskScore),
		"indicators": strings.Join(det.Indicators, ", "),
	})
}

// NetworkConnection builds the alert for a newly linked account pair.
func (r *Renderer) NetworkConnection(conn domain.Connection) domain.Alert {
	shared := make([]string, len(conn.SharedMetadata))
	for i, c := range conn.SharedMetadata {
		shared[i] = string(c)
	}

	return r.alert(domain.AlertNetworkConnection, domain.SeverityMedium, map[string]string{
		"account1":        conn.AccountA,
		"account2":        conn.AccountB,
		"shared_metadata": strings.Join(shared, ", "),
		"strength":        fmt.Sprintf("%.2f", conn.Strength),
	})
}

// MetadataExtracted builds the alert for contact identifiers found in a message.
// ok is false when meta holds no contact identifiers.
func (r *Renderer) MetadataExtracted(accountID string, meta *domain.ExtractedMetadata) (domain.Alert, bool) {
	phones := len(meta.Get(domain.CategoryPhone))
	emails := len(meta.Get(domain.CategoryEmail))
	handles := len(meta.Get(domain.CategoryPaymentHandle))
	crypto := len(meta.Get(domain.CategoryCrypto))

	if phones+emails+handles+crypto == 0 {
		return domain.Alert{}, false
	}

	severity := domain.SeverityLow
	if handles+crypto > 0 {
		severity = domain.SeverityMedium
	}

	return r.alert(domain.AlertMetadataExtracted, severity, map[string]string{
		"account":      accountID,
		"phone_count":  strconv.Itoa(phones),
		"email_count":  strconv.Itoa(emails),
		"upi_count":    strconv.Itoa(handles),
		"crypto_count": strconv.Itoa(crypto),
	}), true
}

func (r *Renderer) alert(t domain.AlertType, severity string, details map[string]string) domain.Alert {
	return domain.Alert{
		Type:      t,
		Severity:  severity,
		Message:   r.AlertMessage(t, details),
		Details:   details,
		CreatedAt: r.now().UTC(),
	}
}
