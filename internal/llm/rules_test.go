package llm

import (
	"context"
	"reflect"
	"testing"

	"github.com/fieldforge/backend/internal/models"
)

func TestRuleClassifierSeverityAndCategory(t *testing.T) {
	var c RuleClassifier
	analysis, _, err := c.Classify(context.Background(), Input{
		Title:       "Furnace not working",
		Description: "Heating has been broken in the east office since morning",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Severity != models.SeverityP2 {
		t.Fatalf("expected P2, got %s", analysis.Severity)
	}
	if analysis.Confidence != 0.7 {
		t.Fatalf("expected confidence 0.7, got %f", analysis.Confidence)
	}
	if analysis.Category != "HVAC" {
		t.Fatalf("expected HVAC category, got %s", analysis.Category)
	}
	if len(analysis.SkillsRequired) != 1 || analysis.SkillsRequired[0] != "HVAC Repair" {
		t.Fatalf("expected [HVAC Repair], got %v", analysis.SkillsRequired)
	}
	if analysis.EquipmentType != "Furnace" {
		t.Fatalf("expected Furnace equipment, got %q", analysis.EquipmentType)
	}
	if analysis.TimeEstimateMinutes != 90 {
		t.Fatalf("expected 90 minute estimate for P2, got %d", analysis.TimeEstimateMinutes)
	}
}

func TestRuleClassifierCriticalKeywords(t *testing.T) {
	var c RuleClassifier
	analysis, _, err := c.Classify(context.Background(), Input{
		Title:       "Emergency",
		Description: "Gas leak reported near the loading dock, safety hazard",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Severity != models.SeverityP1 || analysis.Confidence != 0.8 {
		t.Fatalf("expected P1/0.8, got %s/%f", analysis.Severity, analysis.Confidence)
	}
	if analysis.TimeEstimateMinutes != 120 {
		t.Fatalf("expected 120 minute estimate for P1, got %d", analysis.TimeEstimateMinutes)
	}
}

func TestRuleClassifierDefaults(t *testing.T) {
	var c RuleClassifier
	analysis, _, err := c.Classify(context.Background(), Input{
		Title:       "Quarterly inspection",
		Description: "Routine check of the premises",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Severity != models.SeverityP3 || analysis.Confidence != 0.6 {
		t.Fatalf("expected default P3/0.6, got %s/%f", analysis.Severity, analysis.Confidence)
	}
	if analysis.Category != "General Maintenance" {
		t.Fatalf("expected default category, got %s", analysis.Category)
	}
	if analysis.EquipmentType != "" {
		t.Fatalf("expected no equipment type, got %q", analysis.EquipmentType)
	}
	if analysis.TimeEstimateMinutes != 60 {
		t.Fatalf("expected 60 minute estimate for P3, got %d", analysis.TimeEstimateMinutes)
	}
	if len(analysis.TroubleshootingSteps) == 0 {
		t.Fatalf("expected default troubleshooting steps")
	}
}

func TestRuleClassifierLowPriorityKeywords(t *testing.T) {
	var c RuleClassifier
	analysis, _, err := c.Classify(context.Background(), Input{
		Title:       "Cosmetic scratch on lobby panel",
		Description: "Fix when possible, low priority",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Severity != models.SeverityP4 {
		t.Fatalf("expected P4, got %s", analysis.Severity)
	}
	if analysis.TimeEstimateMinutes != 45 {
		t.Fatalf("expected 45 minute estimate for P4, got %d", analysis.TimeEstimateMinutes)
	}
}

func TestRuleClassifierDeterministic(t *testing.T) {
	var c RuleClassifier
	in := Input{Title: "Water heater leak", Description: "Pipe dripping in basement"}

	first, _, err := c.Classify(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := c.Classify(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected deterministic classification, got %+v then %+v", first, second)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"severity":"P1"}`, `{"severity":"P1"}`},
		{"```json\n{\"severity\":\"P1\"}\n```", `{"severity":"P1"}`},
		{"```\n{\"severity\":\"P2\"}\n```", `{"severity":"P2"}`},
		{"  {\"severity\":\"P3\"} \n", `{"severity":"P3"}`},
	}
	for _, c := range cases {
		if got := stripFences(c.in); got != c.want {
			t.Fatalf("stripFences(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}
