package domain

import "time"

// AccountSummary aggregates everything observed for one platform account.
type AccountSummary struct {
	ID            string             `json:"id"`
	Username      string             `json:"username"`
	Platform      Platform           `json:"platform"`
	ThreatScore   int                `json:"threat_score"`
	RiskLevel     RiskLevel          `json:"risk_level"`
	BotConfidence float64            `json:"bot_confidence"`
	Metadata      *ExtractedMetadata `json:"metadata"`
	MessageCount  int                `json:"message_count"`
	FirstSeen     time.Time          `json:"first_seen"`
	LastSeen      time.Time          `json:"last_seen"`
}

// ThreatRecord is a persisted content analysis of one message.
type ThreatRecord struct {
	ID        string          `json:"id"`
	MessageID string          `json:"message_id"`
	AccountID string          `json:"account_id"`
	Channel   string          `json:"channel"`
	Text      string          `json:"text"`
	Analysis  ContentAnalysis `json:"analysis"`
	CreatedAt time.Time       `json:"created_at"`
}

// AlertType classifies an alert.
type AlertType string

// Alert types.
const (
	AlertHighThreat        AlertType = "high_threat"
	AlertBotDetected       AlertType = "bot_detected"
	AlertNetworkConnection AlertType = "network_connection"
	AlertMetadataExtracted AlertType = "metadata_extracted"
)

// Alert severities.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Alert is an investigator-facing notification.
type Alert struct {
	ID           string            `json:"id"`
	Type         AlertType         `json:"alert_type"`
	Severity     string            `json:"severity"`
	Message      string            `json:"message"`
	Details      map[string]string `json:"details"`
	Acknowledged bool              `json:"acknowledged"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Connection is a persisted linkage edge between two accounts.
type Connection struct {
	AccountA       string     `json:"account1_id"`
	AccountB       string     `json:"account2_id"`
	ConnectionType string     `json:"connection_type"`
	SharedMetadata []Category `json:"shared_metadata"`
	Strength       float64    `json:"strength"`
}
