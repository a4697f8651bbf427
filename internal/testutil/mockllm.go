package testutil

import (
	"context"
	"strings"
	"sync"
)

// MockLLM is a scripted stand-in for the model client. It records every
// prompt and answers from a rule list, falling back to a canned reply.
type MockLLM struct {
	mu      sync.Mutex
	rules   []mockRule
	prompts []string

	// Fail, when set, is returned from every Generate call.
	Fail error

	// Reply is the fallback answer when no rule matches. Empty means
	// "mock reply".
	Reply string
}

type mockRule struct {
	substring string
	reply     string
}

// RespondWith registers a reply for prompts containing substring. Rules
// are checked in registration order.
func (m *MockLLM) RespondWith(substring, reply string) *MockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{substring: substring, reply: reply})
	return m
}

// Generate implements the text generation contract.
func (m *MockLLM) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)
	if m.Fail != nil {
		return "", m.Fail
	}
	for _, rule := range m.rules {
		if strings.Contains(prompt, rule.substring) {
			return rule.reply, nil
		}
	}
	if m.Reply != "" {
		return m.Reply, nil
	}
	return "mock reply", nil
}

// GenerateStream implements the streaming generation contract. The reply
// is emitted in two chunks to exercise chunk assembly in consumers.
func (m *MockLLM) GenerateStream(ctx context.Context, prompt string, emit func(string) error) (string, error) {
	text, err := m.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	runes := []rune(text)
	half := len(runes) / 2
	for _, chunk := range []string{string(runes[:half]), string(runes[half:])} {
		if chunk == "" {
			continue
		}
		if err := emit(chunk); err != nil {
			return "", err
		}
	}
	return text, nil
}

// Prompts returns a copy of every prompt seen so far.
func (m *MockLLM) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// LastPrompt returns the most recent prompt, or "" when none were made.
func (m *MockLLM) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// Calls returns how many Generate calls were made.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
