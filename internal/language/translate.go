package language

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/koopa0/parley/internal/log"
)

// Translator converts text into a target language.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// textGenerator is the slice of the model client the translator needs.
type textGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLMTranslator translates through the model. Callers own the fallback:
// a translation error means "use the untranslated text", never a failed
// request.
type LLMTranslator struct {
	gen     textGenerator
	timeout time.Duration
	logger  log.Logger
}

// NewLLMTranslator creates a model-backed translator. timeout bounds each
// call; zero means 15 seconds.
func NewLLMTranslator(gen textGenerator, timeout time.Duration, logger log.Logger) (*LLMTranslator, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &LLMTranslator{gen: gen, timeout: timeout, logger: logger}, nil
}

const translatePrompt = `Translate the following text into %s.
Output ONLY the translation, no explanations, no quotes.

Text:
%s`

// Translate returns text rendered in the target language. Texts already
// in the target (per Detect) pass through unchanged.
func (t *LLMTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if Detect(text) == target {
		return text, nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out, err := t.gen.Generate(ctx, fmt.Sprintf(translatePrompt, languageName(target), text))
	if err != nil {
		return "", fmt.Errorf("translating to %s: %w", target, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("translating to %s: empty model output", target)
	}

	t.logger.Debug("translated text", "target", target, "chars", len(out))
	return out, nil
}

// languageName expands known codes for the prompt; unknown codes pass
// through as-is and the model usually copes.
func languageName(code string) string {
	switch code {
	case "en":
		return "English"
	case "zh":
		return "Traditional Chinese"
	case "ja":
		return "Japanese"
	case "ko":
		return "Korean"
	case "ru":
		return "Russian"
	case "ar":
		return "Arabic"
	default:
		return code
	}
}
