// Package narrative renders investigator-facing text from scores: suspect
// narratives and alert messages.
package narrative

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

// Risk tiers used in narratives.
const (
	TierHigh     = "HIGH"
	TierModerate = "MODERATE"
	TierLow      = "LOW"
)

const (
	narrativeTemplate = "narrative"
	timeLayout        = "2006-01-02 15:04:05"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}

		return t.Format(timeLayout)
	},
}

// Renderer renders narrative and alert templates. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
	now  func() time.Time
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("threat-monitor").
		Funcs(templateFuncs).
		Option("missingkey=error").
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse narrative templates: %w", err)
	}

	return &Renderer{tmpl: tmpl, now: time.Now}, nil
}

// Suspect is the subject of a threat narrative.
type Suspect struct {
	Name        string
	ThreatScore int
	Platforms   []string
}

type narrativeData struct {
	Name           string
	ThreatScore    int
	Platforms      string
	Tier           string
	Details        []string
	Recommendation string
	Generated      time.Time
}

// ThreatNarrative renders the narrative for a suspect.
func (r *Renderer) ThreatNarrative(s Suspect) (string, error) {
	platforms := strings.Join(s.Platforms, ", ")
	if platforms == "" {
		platforms = string(domain.PlatformUnknown)
	}

	data := narrativeData{
		Name:           s.Name,
		ThreatScore:    s.ThreatScore,
		Platforms:      platforms,
		Tier:           Tier(s.ThreatScore),
		Details:        Details(s.ThreatScore),
		Recommendation: Recommendation(s.ThreatScore),
		Generated:      r.now(),
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, narrativeTemplate, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", narrativeTemplate, err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// AlertMessage renders the message of an alert type from its details.
// Unknown types and incomplete details fall back to a JSON dump.
func (r *Renderer) AlertMessage(alertType domain.AlertType, details map[string]string) string {
	if t := r.tmpl.Lookup(string(alertType)); t != nil {
		var buf bytes.Buffer
		if err := t.Execute(&buf, details); err == nil {
			return strings.TrimSpace(buf.String())
		}
	}

	raw, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return "Alert"
	}

	return "Alert: " + string(raw)
}

// Tier maps a threat score to its narrative tier.
func Tier(score int) string {
	switch domain.RiskLevelFor(score) {
	case domain.RiskHigh:
		return TierHigh
	case domain.RiskMedium:
		return TierModerate
	default:
		return TierLow
	}
}

// Details lists the key indicators typical of a score band.
func Details(score int) []string {
	switch {
	case score >= 90:
		return []string{
			"Multiple drug types mentioned (MDMA, LSD, Mephedrone)",
			"Automated bot behavior detected",
			"Cryptocurrency payment methods",
			"24/7 availability indicated",
			"Multiple contact methods provided",
		}
	case score >= 80:
		return []string{
			"Specific drug references detected",
			"Suspicious payment patterns",
			"Anonymous communication methods",
			"Rapid response times",
			"Template-based messaging",
		}
	case score >= 60:
		return []string{
			"Some drug-related keywords",
			"Suspicious timing patterns",
			"Multiple platform presence",
			"Generic contact information",
		}
	default:
		return []string{
			"Limited suspicious activity",
			"Minimal drug references",
			"Standard communication patterns",
		}
	}
}

// Recommendation returns the follow-up priority for a score.
func Recommendation(score int) string {
	switch {
	case score >= 90:
		return "IMMEDIATE ACTION REQUIRED - Prioritize for law enforcement investigation"
	case score >= 80:
		return "HIGH PRIORITY - Assign to investigation team within 24 hours"
	case score >= 60:
		return "MEDIUM PRIORITY - Monitor closely and investigate if activity escalates"
	default:
		return "LOW PRIORITY - Continue monitoring for changes in behavior"
	}
}
