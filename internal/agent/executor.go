// Package agent runs fixed persona plans: a persona maps to a short
// template of steps, some of which invoke tools through the registry.
// Step failure degrades the plan rather than aborting it.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/koopa0/parley/internal/log"
	"github.com/koopa0/parley/internal/tools"
)

// Outcome is the result of executing one persona plan.
type Outcome struct {
	Persona        string   `json:"persona"`
	Plan           Plan     `json:"plan"`
	Text           string   `json:"text"`
	StepsCompleted int      `json:"steps_completed"`
	ToolsUsed      []string `json:"tools_used,omitempty"`
}

// toolInvoker is the slice of the tool registry the executor needs.
type toolInvoker interface {
	Invoke(ctx context.Context, name string, payload json.RawMessage) tools.Invocation
}

// Executor runs persona plans step by step.
type Executor struct {
	registry toolInvoker
	logger   log.Logger
}

// NewExecutor creates an executor backed by the given tool registry.
func NewExecutor(registry toolInvoker, logger log.Logger) (*Executor, error) {
	if registry == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Executor{registry: registry, logger: logger}, nil
}

// Execute builds the plan for persona and goal and runs its steps in
// order. A failing tool marks its step failed and execution continues;
// the degradation is noted in the step output. ctx cancellation stops
// the plan between steps.
func (e *Executor) Execute(ctx context.Context, persona, goal string) (*Outcome, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, fmt.Errorf("goal is empty")
	}

	plan := buildPlan(persona, goal)
	e.logger.Info("executing persona plan",
		"persona", plan.Persona,
		"steps", len(plan.Steps),
	)

	var (
		parts     []string
		toolsUsed []string
	)

	for i := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("plan interrupted at step %d: %w", i+1, err)
		}

		step := &plan.Steps[i]
		e.runStep(ctx, step)

		parts = append(parts, fmt.Sprintf("Step %d: %s\n%s", i+1, step.Description, step.Output))
		if step.Tool != "" && step.Status == StatusDone {
			toolsUsed = append(toolsUsed, step.Tool)
		}
	}

	completed := 0
	for _, step := range plan.Steps {
		if step.Status != StatusFailed {
			completed++
		}
	}

	return &Outcome{
		Persona:        plan.Persona,
		Plan:           plan,
		Text:           strings.Join(parts, "\n\n"),
		StepsCompleted: completed,
		ToolsUsed:      toolsUsed,
	}, nil
}

func (e *Executor) runStep(ctx context.Context, step *Step) {
	if step.Tool == "" {
		step.Status = StatusDone
		step.Output = step.Description + "."
		return
	}

	inv := e.registry.Invoke(ctx, step.Tool, step.Input)
	if inv.Result.Status == tools.StatusError {
		step.Status = StatusFailed
		step.Output = fmt.Sprintf("could not complete this step (%s); continuing without it", inv.Text())
		e.logger.Warn("plan step failed",
			"tool", step.Tool,
			"code", inv.Result.Error.Code,
		)
		return
	}

	step.Status = StatusDone
	step.Output = inv.Text()
}
