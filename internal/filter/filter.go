// Package filter screens user input before it reaches the model: a fast
// local blocklist and injection-pattern check, an optional LLM moderator,
// and upload validation for files entering the knowledge base.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrContentPolicy indicates the input violates the content policy. The
// wrapped message names the category, never the matched text.
var ErrContentPolicy = errors.New("content policy violation")

// blockedWords is the static local blocklist, matched case-insensitively
// on word-ish boundaries.
var blockedWords = []string{
	"bomb-making",
	"credit card dump",
	"ransomware",
}

// injectionPatterns catch prompt-injection attempts before the message is
// spliced into a prompt.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?prior\s+instructions`),
	regexp.MustCompile(`(?i)reveal\s+(your\s+)?system\s+prompt`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+in\s+developer\s+mode`),
	regexp.MustCompile(`(?i)<\s*script[\s>]`),
	regexp.MustCompile(`(?i)\bjavascript\s*:`),
}

// Check runs the local filter. A nil return means the text passed; any
// violation returns ErrContentPolicy wrapped with the category.
func Check(text string) error {
	lower := strings.ToLower(text)

	for _, word := range blockedWords {
		if strings.Contains(lower, word) {
			return fmt.Errorf("%w: blocked term", ErrContentPolicy)
		}
	}
	for _, pattern := range injectionPatterns {
		if pattern.MatchString(text) {
			return fmt.Errorf("%w: suspicious pattern", ErrContentPolicy)
		}
	}
	return nil
}
