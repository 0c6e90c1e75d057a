package llm

import (
	"context"

	"github.com/fieldforge/backend/internal/models"
)

// Classifier turns a raw service request into a structured analysis. The
// second return value is the classification latency in milliseconds.
type Classifier interface {
	Classify(ctx context.Context, in Input) (models.TicketAnalysis, int64, error)
}

// Input carries the free-text fields a classification runs on.
type Input struct {
	Title        string
	Description  string
	CustomerTier string
}
