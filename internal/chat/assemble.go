package chat

import (
	"time"

	"github.com/koopa0/parley/internal/knowledge"
	"github.com/koopa0/parley/internal/router"
	"github.com/koopa0/parley/internal/tools"
)

// Citation points a reply at the retrieved chunk backing it.
type Citation struct {
	Source  string  `json:"source"`
	Snippet string  `json:"snippet"`
	Score   float32 `json:"score"`
}

// ToolUse summarizes one tool invocation for response metadata.
type ToolUse struct {
	Name     string        `json:"name"`
	Status   tools.Status  `json:"status"`
	Summary  string        `json:"summary"`
	Duration time.Duration `json:"duration"`
}

// AgentMeta describes the executed persona plan.
type AgentMeta struct {
	Persona        string   `json:"persona"`
	StepsCompleted int      `json:"steps_completed"`
	TotalSteps     int      `json:"total_steps"`
	ToolsUsed      []string `json:"tools_used,omitempty"`
}

// LanguageInfo reports language handling for the request.
type LanguageInfo struct {
	// Detected is the input language code.
	Detected string `json:"detected"`

	// Translated is false when the reply could not be rendered back into
	// the detected language and remains in the pivot.
	Translated bool `json:"translated"`
}

// Reply is the assembled response of one chat request.
type Reply struct {
	Text      string        `json:"text"`
	Mode      router.Mode   `json:"mode"`
	SessionID string        `json:"session_id"`
	Citations []Citation    `json:"citations,omitempty"`
	ToolsUsed []string      `json:"tools_used,omitempty"`
	Tools     []ToolUse     `json:"tools,omitempty"`
	Agent     *AgentMeta    `json:"agent,omitempty"`
	Language  *LanguageInfo `json:"language,omitempty"`
}

// AssembleInput carries everything the assembler merges into a Reply.
type AssembleInput struct {
	Text        string
	Mode        router.Mode
	SessionID   string
	Results     []knowledge.Result
	Invocations []tools.Invocation
	Agent       *AgentMeta
	Language    *LanguageInfo
}

const citationSnippetRunes = 200

// Assemble builds the outward Reply from the pipeline's pieces. It is a
// pure merge; side effects like the session write belong to the caller.
func Assemble(in AssembleInput) *Reply {
	reply := &Reply{
		Text:      in.Text,
		Mode:      in.Mode,
		SessionID: in.SessionID,
		Agent:     in.Agent,
		Language:  in.Language,
	}

	for _, r := range in.Results {
		reply.Citations = append(reply.Citations, Citation{
			Source:  r.Source,
			Snippet: snippet(r.Content),
			Score:   r.Score,
		})
	}

	for _, inv := range in.Invocations {
		reply.Tools = append(reply.Tools, ToolUse{
			Name:     inv.Tool,
			Status:   inv.Result.Status,
			Summary:  inv.Text(),
			Duration: inv.Duration,
		})
		if inv.Result.Status == tools.StatusSuccess {
			reply.ToolsUsed = append(reply.ToolsUsed, inv.Tool)
		}
	}

	if in.Agent != nil && len(in.Agent.ToolsUsed) > 0 {
		reply.ToolsUsed = append(reply.ToolsUsed, in.Agent.ToolsUsed...)
	}

	return reply
}

func snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= citationSnippetRunes {
		return content
	}
	return string(runes[:citationSnippetRunes]) + "..."
}
