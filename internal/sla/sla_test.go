package sla

import (
	"errors"
	"testing"
	"time"

	"github.com/fieldforge/backend/internal/models"
)

func TestDeadlineBySeverity(t *testing.T) {
	createdAt := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	cases := []struct {
		severity models.Severity
		want     time.Duration
	}{
		{models.SeverityP1, 2 * time.Hour},
		{models.SeverityP2, 4 * time.Hour},
		{models.SeverityP3, 24 * time.Hour},
		{models.SeverityP4, 72 * time.Hour},
	}
	for _, c := range cases {
		got, err := Deadline(createdAt, c.severity)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.severity, err)
		}
		if want := createdAt.Add(c.want); !got.Equal(want) {
			t.Fatalf("%s: expected %v, got %v", c.severity, want, got)
		}
	}
}

func TestDeadlineInvalidSeverity(t *testing.T) {
	_, err := Deadline(time.Now(), "P9")
	if !errors.Is(err, ErrInvalidSeverity) {
		t.Fatalf("expected ErrInvalidSeverity, got %v", err)
	}
	_, err = Window("")
	if !errors.Is(err, ErrInvalidSeverity) {
		t.Fatalf("expected ErrInvalidSeverity for empty severity, got %v", err)
	}
}

func TestRemainingAndBreached(t *testing.T) {
	deadline := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	before := deadline.Add(-90 * time.Minute)
	if got := Remaining(deadline, before); got != 90 {
		t.Fatalf("expected 90 minutes remaining, got %f", got)
	}
	if Breached(deadline, before) {
		t.Fatalf("expected deadline not breached before it passes")
	}

	after := deadline.Add(30 * time.Minute)
	if got := Remaining(deadline, after); got != -30 {
		t.Fatalf("expected -30 minutes remaining, got %f", got)
	}
	if !Breached(deadline, after) {
		t.Fatalf("expected deadline breached after it passes")
	}
}
