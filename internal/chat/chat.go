// Package chat is the conversation core: it validates and filters each
// request, routes it to a processing mode, drives the model client, and
// assembles the outward reply with citations and tool metadata.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/koopa0/parley/internal/agent"
	"github.com/koopa0/parley/internal/filter"
	"github.com/koopa0/parley/internal/knowledge"
	"github.com/koopa0/parley/internal/language"
	"github.com/koopa0/parley/internal/log"
	"github.com/koopa0/parley/internal/router"
	"github.com/koopa0/parley/internal/session"
	"github.com/koopa0/parley/internal/tools"
)

// ErrEmptyMessage indicates a blank chat request.
var ErrEmptyMessage = errors.New("message is empty")

// Generator abstracts the model client so tests can script replies.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateStream(ctx context.Context, prompt string, emit func(string) error) (string, error)
}

// Searcher is the slice of the knowledge index the assistant needs.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// Config wires the assistant's collaborators. Knowledge, Moderator, and
// Translator are optional; the rest are required.
type Config struct {
	Sessions   *session.Store
	Registry   *tools.Registry
	Executor   *agent.Executor
	Generator  Generator
	Knowledge  Searcher
	Moderator  filter.Moderator
	Translator language.Translator

	// TopK bounds knowledge retrieval per request. Zero uses the
	// knowledge package default.
	TopK int

	Logger log.Logger
}

// Request is one chat turn. Mode, Persona, and Tools are optional
// preferences; unset fields are inferred by the router.
type Request struct {
	Message   string      `json:"message"`
	SessionID string      `json:"session_id,omitempty"`
	Mode      router.Mode `json:"mode,omitempty"`
	Persona   string      `json:"persona,omitempty"`
	Tools     []string    `json:"tools,omitempty"`
}

// Assistant runs the per-request pipeline: validate, filter, detect
// language, route, execute the chosen mode, translate back, record the
// exchange, assemble.
type Assistant struct {
	sessions   *session.Store
	registry   *tools.Registry
	executor   *agent.Executor
	generator  Generator
	knowledge  Searcher
	moderator  filter.Moderator
	translator language.Translator
	topK       int
	logger     log.Logger
}

// NewAssistant creates the assistant.
func NewAssistant(cfg Config) (*Assistant, error) {
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("agent executor is required")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = knowledge.DefaultTopK
	}
	return &Assistant{
		sessions:   cfg.Sessions,
		registry:   cfg.Registry,
		executor:   cfg.Executor,
		generator:  cfg.Generator,
		knowledge:  cfg.Knowledge,
		moderator:  cfg.Moderator,
		translator: cfg.Translator,
		topK:       cfg.TopK,
		logger:     cfg.Logger,
	}, nil
}

// Respond handles one chat request and returns the assembled reply.
func (a *Assistant) Respond(ctx context.Context, req Request) (*Reply, error) {
	return a.respond(ctx, req, nil)
}

// RespondStream is Respond with generated text additionally streamed
// through emit chunk by chunk. Agent mode produces no generation; its
// text is emitted once, whole.
func (a *Assistant) RespondStream(ctx context.Context, req Request, emit func(string) error) (*Reply, error) {
	return a.respond(ctx, req, emit)
}

func (a *Assistant) respond(ctx context.Context, req Request, emit func(string) error) (*Reply, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}

	// Policy rejections happen before any session mutation.
	if err := a.screen(ctx, msg); err != nil {
		return nil, err
	}

	detected := language.Detect(msg)
	working := a.toPivot(ctx, msg, detected)

	decision := router.Route(working, router.Request{
		Mode:    req.Mode,
		Persona: req.Persona,
		Tools:   req.Tools,
	})
	a.logger.Debug("routed request",
		"mode", decision.Mode,
		"persona", decision.Persona,
		"tools", decision.Tools,
		"language", detected,
	)

	var (
		text        string
		results     []knowledge.Result
		invocations []tools.Invocation
		agentMeta   *AgentMeta
		err         error
	)
	switch decision.Mode {
	case router.ModeAgent:
		text, agentMeta, err = a.agentReply(ctx, decision.Persona, working, emit)
	case router.ModeKnowledge:
		text, results, err = a.knowledgeReply(ctx, req.SessionID, working, emit)
	case router.ModeTools:
		text, invocations, err = a.toolsReply(ctx, decision.Tools, working, emit)
	default:
		text, err = a.chatReply(ctx, req.SessionID, working, emit)
	}
	if err != nil {
		return nil, err
	}

	text, langInfo := a.fromPivot(ctx, text, detected)

	a.sessions.AppendExchange(req.SessionID, msg, text)

	return Assemble(AssembleInput{
		Text:        text,
		Mode:        decision.Mode,
		SessionID:   a.sessions.GetOrCreate(req.SessionID).ID,
		Results:     results,
		Invocations: invocations,
		Agent:       agentMeta,
		Language:    langInfo,
	}), nil
}

// screen runs the local filter and, when configured, the LLM moderator.
func (a *Assistant) screen(ctx context.Context, msg string) error {
	if err := filter.Check(msg); err != nil {
		return err
	}
	if a.moderator == nil {
		return nil
	}
	verdict, err := a.moderator.Moderate(ctx, msg)
	if err != nil {
		// The moderator fails open internally; an error here is a
		// programming surprise, not a policy signal.
		a.logger.Warn("moderation error ignored", "error", err)
		return nil
	}
	if verdict.Flagged {
		return fmt.Errorf("%w: %s", filter.ErrContentPolicy, verdict.Category)
	}
	return nil
}

// toPivot translates the message into the pivot language for processing.
// Translation failure degrades to the untranslated text.
func (a *Assistant) toPivot(ctx context.Context, msg, detected string) string {
	if detected == language.Pivot || a.translator == nil {
		return msg
	}
	translated, err := a.translator.Translate(ctx, msg, language.Pivot)
	if err != nil {
		a.logger.Warn("pivot translation failed, continuing untranslated",
			"language", detected, "error", err)
		return msg
	}
	return translated
}

// fromPivot renders the reply back into the detected language. Failure
// leaves the pivot text and flags Translated=false.
func (a *Assistant) fromPivot(ctx context.Context, text, detected string) (string, *LanguageInfo) {
	if detected == language.Pivot {
		return text, nil
	}
	info := &LanguageInfo{Detected: detected}
	if a.translator == nil {
		return text, info
	}
	translated, err := a.translator.Translate(ctx, text, detected)
	if err != nil {
		a.logger.Warn("reply translation failed, returning pivot text",
			"language", detected, "error", err)
		return text, info
	}
	info.Translated = true
	return translated, info
}

func (a *Assistant) agentReply(ctx context.Context, persona, goal string, emit func(string) error) (string, *AgentMeta, error) {
	out, err := a.executor.Execute(ctx, persona, goal)
	if err != nil {
		return "", nil, fmt.Errorf("agent execution: %w", err)
	}
	if emit != nil {
		if err := emit(out.Text); err != nil {
			return "", nil, fmt.Errorf("stream consumer: %w", err)
		}
	}
	meta := &AgentMeta{
		Persona:        out.Persona,
		StepsCompleted: out.StepsCompleted,
		TotalSteps:     len(out.Plan.Steps),
		ToolsUsed:      out.ToolsUsed,
	}
	return out.Text, meta, nil
}

const noKnowledgeNote = "No knowledge base entries matched, so this answer draws on general knowledge.\n\n"

func (a *Assistant) knowledgeReply(ctx context.Context, sessionID, msg string, emit func(string) error) (string, []knowledge.Result, error) {
	if a.knowledge == nil {
		text, err := a.chatReply(ctx, sessionID, msg, emit)
		return text, nil, err
	}

	results, err := a.knowledge.Search(ctx, msg, knowledge.WithTopK(a.topK))
	if err != nil {
		return "", nil, fmt.Errorf("knowledge search: %w", err)
	}
	if len(results) == 0 {
		if emit != nil {
			if err := emit(noKnowledgeNote); err != nil {
				return "", nil, fmt.Errorf("stream consumer: %w", err)
			}
		}
		text, err := a.chatReply(ctx, sessionID, msg, emit)
		if err != nil {
			return "", nil, err
		}
		return noKnowledgeNote + text, nil, nil
	}

	text, err := a.gen(ctx, knowledgePrompt(results, msg), emit)
	if err != nil {
		return "", nil, err
	}
	return text, results, nil
}

func (a *Assistant) toolsReply(ctx context.Context, candidates []string, msg string, emit func(string) error) (string, []tools.Invocation, error) {
	invocations := make([]tools.Invocation, 0, len(candidates))
	for _, name := range candidates {
		invocations = append(invocations, a.registry.Invoke(ctx, name, toolPayload(name, msg)))
	}

	text, err := a.gen(ctx, toolsPrompt(invocations, msg), emit)
	if err != nil {
		return "", nil, err
	}
	return text, invocations, nil
}

func (a *Assistant) chatReply(ctx context.Context, sessionID, msg string, emit func(string) error) (string, error) {
	return a.gen(ctx, chatPrompt(a.sessions.History(sessionID), msg), emit)
}

func (a *Assistant) gen(ctx context.Context, prompt string, emit func(string) error) (string, error) {
	if emit == nil {
		text, err := a.generator.Generate(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("generation: %w", err)
		}
		return text, nil
	}
	text, err := a.generator.GenerateStream(ctx, prompt, emit)
	if err != nil {
		return "", fmt.Errorf("generation: %w", err)
	}
	return text, nil
}

const systemPreamble = "You are Parley, a helpful and concise assistant. " +
	"Answer the user's latest message."

func chatPrompt(history []session.Message, msg string) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\n")
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, m := range history {
			switch m.Role {
			case session.RoleAssistant:
				b.WriteString("Assistant: ")
			default:
				b.WriteString("User: ")
			}
			b.WriteString(m.Text)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("User: ")
	b.WriteString(msg)
	b.WriteString("\nAssistant:")
	return b.String()
}

func knowledgePrompt(results []knowledge.Result, msg string) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString(" Ground your answer in the context below and say so when the context does not cover the question.\n\nContext:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] (%s) %s\n", i+1, r.Source, r.Content)
	}
	b.WriteString("\nUser: ")
	b.WriteString(msg)
	b.WriteString("\nAssistant:")
	return b.String()
}

func toolsPrompt(invocations []tools.Invocation, msg string) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString(" Use the tool results below to answer; mention when a tool was unavailable.\n\nTool results:\n")
	for _, inv := range invocations {
		fmt.Fprintf(&b, "- %s: %s\n", inv.Tool, inv.Text())
	}
	b.WriteString("\nUser: ")
	b.WriteString(msg)
	b.WriteString("\nAssistant:")
	return b.String()
}
