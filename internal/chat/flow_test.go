package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlow(t *testing.T) (*Flow, *fixture) {
	t.Helper()

	ResetFlowForTesting()
	t.Cleanup(ResetFlowForTesting)

	f := newFixture(t)
	g := genkit.Init(context.Background())
	require.NotNil(t, g)

	flow := NewFlow(g, f.assistant)
	require.NotNil(t, flow)
	return flow, f
}

func TestFlowRun(t *testing.T) {
	flow, f := newTestFlow(t)
	f.llm.Reply = "hello from the flow"

	reply, err := flow.Run(context.Background(), FlowInput{
		Message:   "say hello",
		SessionID: "flow-run",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello from the flow", reply.Text)
	assert.Equal(t, "flow-run", reply.SessionID)
}

func TestFlowStreamDeliversChunksThenReply(t *testing.T) {
	flow, f := newTestFlow(t)
	f.llm.Reply = "streamed answer"

	var (
		chunks []string
		final  *Reply
	)
	for val, err := range flow.Stream(context.Background(), FlowInput{Message: "stream it"}) {
		require.NoError(t, err)
		if val.Done {
			final = val.Output
			continue
		}
		chunks = append(chunks, val.Stream.Text)
	}

	require.NotNil(t, final)
	assert.Equal(t, "streamed answer", final.Text)
	assert.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "streamed answer", strings.Join(chunks, ""))
}

func TestFlowRunRejectsEmptyMessage(t *testing.T) {
	flow, _ := newTestFlow(t)

	_, err := flow.Run(context.Background(), FlowInput{Message: "  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrEmptyMessage.Error())
}

func TestNewFlowIsSingleton(t *testing.T) {
	flow, f := newTestFlow(t)

	// Defining the same flow name twice panics inside genkit, so later
	// calls must return the existing instance.
	again := NewFlow(genkit.Init(context.Background()), f.assistant)
	assert.Same(t, flow, again)
}
