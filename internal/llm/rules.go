package llm

import (
	"context"
	"strings"
	"time"

	"github.com/fieldforge/backend/internal/models"
)

// RuleClassifier is the deterministic keyword classifier used when no LLM is
// configured and as the fallback when an LLM call fails.
type RuleClassifier struct{}

const ruleModelVersion = "keyword-rules/v1"

var severityRules = []struct {
	severity   models.Severity
	confidence float64
	keywords   []string
}{
	{models.SeverityP1, 0.8, []string{"emergency", "fire", "flood", "gas leak", "no power", "safety", "hazard", "down", "critical"}},
	{models.SeverityP2, 0.7, []string{"not working", "broken", "malfunction", "multiple", "urgent", "failing"}},
	{models.SeverityP4, 0.7, []string{"cosmetic", "minor", "enhancement", "when possible", "low priority"}},
}

var categoryRules = []struct {
	category string
	skill    string
	keywords []string
}{
	{"HVAC", "HVAC Repair", []string{"hvac", "heating", "cooling", "air condition", "thermostat", "furnace", "refrigerant"}},
	{"Plumbing", "Plumbing", []string{"plumb", "pipe", "leak", "drain", "water", "toilet", "faucet"}},
	{"Electrical", "Electrical", []string{"electr", "wiring", "outlet", "breaker", "power", "circuit", "light"}},
	{"Telecommunications", "Telecommunications", []string{"network", "internet", "wifi", "cable", "telecom", "fiber"}},
	{"IT Services", "IT Support", []string{"server", "computer", "software", "printer"}},
}

// equipmentRules is ordered; the first keyword hit wins.
var equipmentRules = []struct {
	keyword   string
	equipment string
}{
	{"furnace", "Furnace"},
	{"boiler", "Boiler"},
	{"ac unit", "AC Unit"},
	{"air conditioner", "AC Unit"},
	{"thermostat", "Thermostat"},
	{"water heater", "Water Heater"},
	{"generator", "Generator"},
	{"elevator", "Elevator"},
	{"compressor", "Compressor"},
	{"router", "Network Router"},
	{"server", "Server"},
}

var timeEstimates = map[models.Severity]int{
	models.SeverityP1: 120,
	models.SeverityP2: 90,
	models.SeverityP3: 60,
	models.SeverityP4: 45,
}

func (RuleClassifier) Classify(_ context.Context, in Input) (models.TicketAnalysis, int64, error) {
	start := time.Now()
	text := strings.ToLower(in.Title + " " + in.Description)

	analysis := models.TicketAnalysis{
		Severity:       models.SeverityP3,
		Confidence:     0.6,
		Category:       "General Maintenance",
		SkillsRequired: []string{"General Maintenance"},
		ModelVersion:   ruleModelVersion,
	}

	for _, rule := range severityRules {
		if containsAny(text, rule.keywords) {
			analysis.Severity = rule.severity
			analysis.Confidence = rule.confidence
			break
		}
	}
	for _, rule := range categoryRules {
		if containsAny(text, rule.keywords) {
			analysis.Category = rule.category
			analysis.SkillsRequired = []string{rule.skill}
			break
		}
	}
	for _, rule := range equipmentRules {
		if strings.Contains(text, rule.keyword) {
			analysis.EquipmentType = rule.equipment
			break
		}
	}

	analysis.TimeEstimateMinutes = timeEstimates[analysis.Severity]
	analysis.Summary = "Service request: " + in.Title
	analysis.TroubleshootingSteps = []string{
		"Verify the reported issue on-site",
		"Check equipment model and serial number",
		"Diagnose root cause",
		"Perform necessary repairs or replacements",
		"Test the system after repair",
		"Document findings and actions taken",
	}
	return analysis, time.Since(start).Milliseconds(), nil
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
