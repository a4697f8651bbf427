package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/koopa0/parley/internal/log"
)

// Verdict is the moderation outcome.
type Verdict struct {
	Flagged  bool   `json:"flagged"`
	Category string `json:"category,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Moderator decides whether text violates the content policy.
type Moderator interface {
	Moderate(ctx context.Context, text string) (Verdict, error)
}

// textGenerator is the slice of the model client the moderator needs.
type textGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLMModerator asks the model for a strict JSON verdict. It runs after
// the local filter, so a collaborator failure fails open: the error is
// logged and the text is allowed through.
type LLMModerator struct {
	gen     textGenerator
	timeout time.Duration
	logger  log.Logger
}

// NewLLMModerator creates a model-backed moderator. timeout bounds each
// verdict call; zero means 10 seconds.
func NewLLMModerator(gen textGenerator, timeout time.Duration, logger log.Logger) (*LLMModerator, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LLMModerator{gen: gen, timeout: timeout, logger: logger}, nil
}

const moderationPrompt = `You are a content moderation system. Classify the user message below.
Respond with ONLY a JSON object, no prose, in this exact shape:
{"flagged": bool, "category": "violence|illegal|harassment|self-harm|none", "reason": "one short sentence"}

User message:
%s`

// Moderate returns the model's verdict. Any collaborator or parse failure
// returns a clean verdict with a nil error; only the verdict of a
// successful call can flag the text.
func (m *LLMModerator) Moderate(ctx context.Context, text string) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	raw, err := m.gen.Generate(ctx, fmt.Sprintf(moderationPrompt, text))
	if err != nil {
		m.logger.Warn("moderation call failed, allowing text", "error", err)
		return Verdict{}, nil
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		m.logger.Warn("moderation verdict unparseable, allowing text", "error", err)
		return Verdict{}, nil
	}
	return verdict, nil
}

// parseVerdict extracts the JSON object from the model output, tolerating
// markdown fences around it.
func parseVerdict(raw string) (Verdict, error) {
	raw = strings.TrimSpace(raw)
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}

	var v Verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return Verdict{}, fmt.Errorf("decoding verdict: %w", err)
	}
	return v, nil
}
