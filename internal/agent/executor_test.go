package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/koopa0/parley/internal/log"
	"github.com/koopa0/parley/internal/router"
	"github.com/koopa0/parley/internal/tools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	reg, err := tools.NewRegistry(5*time.Second, log.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(tools.NewCalculator()); err != nil {
		t.Fatal(err)
	}
	exec, err := NewExecutor(reg, log.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return exec
}

func TestPlanTemplateSizes(t *testing.T) {
	for _, persona := range Personas() {
		plan := buildPlan(persona, "a goal")
		if n := len(plan.Steps); n < 3 || n > 6 {
			t.Errorf("persona %s has %d steps, want 3-6", persona, n)
		}
		for i, step := range plan.Steps {
			if step.Status != StatusPending {
				t.Errorf("persona %s step %d status = %s, want pending", persona, i, step.Status)
			}
		}
	}
}

func TestBuildPlanInterpolatesGoal(t *testing.T) {
	plan := buildPlan(router.PersonaTaskPlanner, "ship the release")
	if plan.Goal != "ship the release" {
		t.Errorf("Goal = %q", plan.Goal)
	}
	if !strings.Contains(plan.Steps[0].Description, "ship the release") {
		t.Errorf("goal not interpolated into first step: %q", plan.Steps[0].Description)
	}
}

func TestBuildPlanUnknownPersonaFallsBack(t *testing.T) {
	plan := buildPlan("astronaut", "reach orbit")
	if plan.Persona != router.PersonaTaskPlanner {
		t.Errorf("Persona = %s, want %s", plan.Persona, router.PersonaTaskPlanner)
	}
}

func TestExecuteCompletesAllSteps(t *testing.T) {
	exec := newTestExecutor(t)

	out, err := exec.Execute(context.Background(), router.PersonaCustomerSupport, "refund a damaged order")
	if err != nil {
		t.Fatal(err)
	}

	if out.Persona != router.PersonaCustomerSupport {
		t.Errorf("Persona = %s", out.Persona)
	}
	if out.StepsCompleted != len(out.Plan.Steps) {
		t.Errorf("StepsCompleted = %d, want %d", out.StepsCompleted, len(out.Plan.Steps))
	}
	if len(out.ToolsUsed) != 1 || out.ToolsUsed[0] != "calculator" {
		t.Errorf("ToolsUsed = %v, want [calculator]", out.ToolsUsed)
	}
	if !strings.Contains(out.Text, "Step 1:") {
		t.Errorf("Text missing step numbering: %q", out.Text)
	}
	// The calculator result is spliced into the plan text.
	if !strings.Contains(out.Text, "99.99*0.15") {
		t.Errorf("Text missing tool output: %q", out.Text)
	}
}

func TestExecuteContinuesAfterToolFailure(t *testing.T) {
	// Registry without query_data registered: the data analyst's tool
	// step fails as unknown_tool, and the plan still runs to the end.
	reg, err := tools.NewRegistry(0, log.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	exec, err := NewExecutor(reg, log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	out, err := exec.Execute(context.Background(), router.PersonaDataAnalyst, "monthly trends")
	if err != nil {
		t.Fatal(err)
	}

	total := len(out.Plan.Steps)
	if out.StepsCompleted != total-1 {
		t.Errorf("StepsCompleted = %d, want %d", out.StepsCompleted, total-1)
	}

	var failed *Step
	for i := range out.Plan.Steps {
		if out.Plan.Steps[i].Status == StatusFailed {
			failed = &out.Plan.Steps[i]
		}
	}
	if failed == nil {
		t.Fatal("no failed step recorded")
	}
	if failed.Tool != "query_data" {
		t.Errorf("failed step tool = %s, want query_data", failed.Tool)
	}
	if !strings.Contains(failed.Output, "continuing without it") {
		t.Errorf("failed step output missing degradation note: %q", failed.Output)
	}
	if len(out.ToolsUsed) != 0 {
		t.Errorf("ToolsUsed = %v, want empty", out.ToolsUsed)
	}
}

func TestExecuteEmptyGoal(t *testing.T) {
	exec := newTestExecutor(t)
	if _, err := exec.Execute(context.Background(), router.PersonaTaskPlanner, "   "); err == nil {
		t.Error("Execute with empty goal succeeded, want error")
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	exec := newTestExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := exec.Execute(ctx, router.PersonaTaskPlanner, "anything"); err == nil {
		t.Error("Execute with cancelled context succeeded, want error")
	}
}

func TestStepInputsAreValidJSON(t *testing.T) {
	for _, persona := range Personas() {
		plan := buildPlan(persona, "verify payloads")
		for i, step := range plan.Steps {
			if step.Tool == "" {
				continue
			}
			var v map[string]any
			if err := json.Unmarshal(step.Input, &v); err != nil {
				t.Errorf("persona %s step %d input is not valid JSON: %v", persona, i, err)
			}
		}
	}
}
