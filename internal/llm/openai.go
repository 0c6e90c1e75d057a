package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/fieldforge/backend/internal/models"
)

// OpenAIClassifier asks a chat-completion model for structured ticket
// analysis. Any failure along the way degrades to the keyword rules, so a
// broken or slow LLM never blocks intake.
type OpenAIClassifier struct {
	client   openai.Client
	model    string
	fallback RuleClassifier
	logger   zerolog.Logger
}

func NewOpenAIClassifier(apiKey, baseURL, model string, logger zerolog.Logger) *OpenAIClassifier {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIClassifier{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

type completionPayload struct {
	Severity             string   `json:"severity"`
	Confidence           float64  `json:"confidence"`
	EquipmentType        string   `json:"equipment_type"`
	Category             string   `json:"category"`
	SkillsRequired       []string `json:"skills_required"`
	TimeEstimateMinutes  int      `json:"time_estimate_minutes"`
	Summary              string   `json:"summary"`
	TroubleshootingSteps []string `json:"troubleshooting_steps"`
}

func (c *OpenAIClassifier) Classify(ctx context.Context, in Input) (models.TicketAnalysis, int64, error) {
	start := time.Now()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classifySystemPrompt),
			openai.UserMessage(classifyUserPrompt(in)),
		},
		MaxTokens: openai.Int(1024),
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("llm classification failed, using keyword rules")
		return c.ruleFallback(ctx, in, start)
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn().Msg("llm returned no choices, using keyword rules")
		return c.ruleFallback(ctx, in, start)
	}

	var payload completionPayload
	if err := json.Unmarshal([]byte(stripFences(resp.Choices[0].Message.Content)), &payload); err != nil {
		c.logger.Warn().Err(err).Msg("llm response parse failed, using keyword rules")
		return c.ruleFallback(ctx, in, start)
	}
	severity, ok := models.ParseSeverity(payload.Severity)
	if !ok {
		c.logger.Warn().Str("severity", payload.Severity).Msg("llm returned unknown severity, using keyword rules")
		return c.ruleFallback(ctx, in, start)
	}

	analysis := models.TicketAnalysis{
		Severity:             severity,
		Confidence:           clampConfidence(payload.Confidence),
		Category:             payload.Category,
		EquipmentType:        payload.EquipmentType,
		SkillsRequired:       payload.SkillsRequired,
		TimeEstimateMinutes:  payload.TimeEstimateMinutes,
		Summary:              payload.Summary,
		TroubleshootingSteps: payload.TroubleshootingSteps,
		ModelVersion:         c.model,
	}
	if analysis.TimeEstimateMinutes <= 0 {
		analysis.TimeEstimateMinutes = timeEstimates[severity]
	}
	return analysis, time.Since(start).Milliseconds(), nil
}

func (c *OpenAIClassifier) ruleFallback(ctx context.Context, in Input, start time.Time) (models.TicketAnalysis, int64, error) {
	analysis, _, err := c.fallback.Classify(ctx, in)
	return analysis, time.Since(start).Milliseconds(), err
}

const classifySystemPrompt = "You are an expert field service management AI. " +
	"Analyze service tickets and respond ONLY with valid JSON, no markdown formatting."

func classifyUserPrompt(in Input) string {
	tier := in.CustomerTier
	if tier == "" {
		tier = "standard"
	}
	return fmt.Sprintf(`Analyze this service ticket.

Ticket Title: %s
Ticket Description: %s
Customer Tier: %s

Respond with a JSON object containing:
1. "severity": P1 (service down, safety hazard, major revenue impact), P2 (degraded service, multiple users affected, equipment malfunction), P3 (single user affected, workaround available, scheduled maintenance) or P4 (cosmetic issues, enhancement requests, non-urgent maintenance)
2. "confidence": confidence in the severity assessment (0.0-1.0)
3. "equipment_type": type of equipment mentioned, or null
4. "category": service category (HVAC, Plumbing, Electrical, Telecommunications, IT Services, General Maintenance, ...)
5. "skills_required": list of specific skills needed, e.g. ["HVAC Repair", "Refrigerant Handling"]
6. "time_estimate_minutes": estimated minutes to resolve
7. "summary": one or two sentence summary of the issue
8. "troubleshooting_steps": step-by-step instructions for the field worker`,
		in.Title, in.Description, tier)
}

// stripFences unwraps a markdown code fence when the model added one despite
// the prompt.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
