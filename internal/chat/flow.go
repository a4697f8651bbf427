package chat

import (
	"context"
	"sync"

	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"

	"github.com/koopa0/parley/internal/router"
)

// FlowInput is the request payload of the chat flow.
type FlowInput struct {
	Message   string   `json:"message"`
	SessionID string   `json:"sessionId,omitempty"`
	Mode      string   `json:"mode,omitempty"`
	Persona   string   `json:"persona,omitempty"`
	Tools     []string `json:"tools,omitempty"`
}

// StreamChunk is one partial text chunk of a streaming reply.
type StreamChunk struct {
	Text string `json:"text"`
}

// FlowName is the chat flow's registered name in genkit.
const FlowName = "parleyChat"

// Flow is the chat flow type, exposed for genkit.Handler wiring.
type Flow = core.Flow[FlowInput, *Reply, StreamChunk]

// Genkit panics when the same flow name is registered twice, so the flow
// is a package-level singleton.
var (
	flowOnce sync.Once
	flow     *Flow
)

// NewFlow returns the chat flow singleton, defining it on first call.
// Later calls return the existing flow and ignore the arguments.
func NewFlow(g *genkit.Genkit, assistant *Assistant) *Flow {
	flowOnce.Do(func() {
		flow = defineFlow(g, assistant)
	})
	return flow
}

// ResetFlowForTesting clears the singleton so tests can redefine the flow
// against a fresh genkit instance. Test-only; not safe for concurrent use.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
}

func defineFlow(g *genkit.Genkit, assistant *Assistant) *Flow {
	return genkit.DefineStreamingFlow(g, FlowName,
		func(ctx context.Context, input FlowInput, streamCb func(context.Context, StreamChunk) error) (*Reply, error) {
			req := Request{
				Message:   input.Message,
				SessionID: input.SessionID,
				Mode:      router.ParseMode(input.Mode),
				Persona:   input.Persona,
				Tools:     input.Tools,
			}

			if streamCb == nil {
				return assistant.Respond(ctx, req)
			}
			return assistant.RespondStream(ctx, req, func(chunk string) error {
				return streamCb(ctx, StreamChunk{Text: chunk})
			})
		})
}
