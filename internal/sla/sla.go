package sla

import (
	"errors"
	"fmt"
	"time"

	"github.com/fieldforge/backend/internal/models"
)

// ErrInvalidSeverity is returned for severities outside P1..P4.
var ErrInvalidSeverity = errors.New("invalid severity")

var windows = map[models.Severity]time.Duration{
	models.SeverityP1: 2 * time.Hour,
	models.SeverityP2: 4 * time.Hour,
	models.SeverityP3: 24 * time.Hour,
	models.SeverityP4: 72 * time.Hour,
}

// Window returns the response window for a severity.
func Window(severity models.Severity) (time.Duration, error) {
	w, ok := windows[severity]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSeverity, severity)
	}
	return w, nil
}

// Deadline computes the SLA deadline for a ticket created at createdAt.
func Deadline(createdAt time.Time, severity models.Severity) (time.Time, error) {
	w, err := Window(severity)
	if err != nil {
		return time.Time{}, err
	}
	return createdAt.Add(w), nil
}

// Remaining returns the minutes left until deadline, negative once past it.
func Remaining(deadline, now time.Time) float64 {
	return deadline.Sub(now).Minutes()
}

// Breached reports whether the deadline has passed.
func Breached(deadline, now time.Time) bool {
	return now.After(deadline)
}
