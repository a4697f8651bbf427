package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/koopa0/parley/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRegistry(t *testing.T, timeout time.Duration) *Registry {
	t.Helper()
	reg, err := NewRegistry(timeout, log.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestNewRegistryRequiresLogger(t *testing.T) {
	if _, err := NewRegistry(0, nil); err == nil {
		t.Error("NewRegistry(0, nil) succeeded, want error")
	}
}

func TestRegistryUnknownTool(t *testing.T) {
	reg := newTestRegistry(t, 0)

	inv := reg.Invoke(context.Background(), "no_such_tool", json.RawMessage(`{}`))
	if inv.Result.Status != StatusError {
		t.Fatalf("Invoke unknown tool = %+v, want error", inv.Result)
	}
	if inv.Result.Error.Code != ErrCodeUnknownTool {
		t.Errorf("error code = %s, want %s", inv.Result.Error.Code, ErrCodeUnknownTool)
	}
	if inv.Tool != "no_such_tool" {
		t.Errorf("Invocation.Tool = %q, want %q", inv.Tool, "no_such_tool")
	}
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	reg := newTestRegistry(t, 0)

	if err := reg.Register(NewCalculator()); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(NewCalculator()); err == nil {
		t.Error("second Register succeeded, want ErrDuplicateTool")
	}
}

func TestRegistryListSorted(t *testing.T) {
	reg := newTestRegistry(t, 0)

	type emptyInput struct{}
	for _, name := range []string{"zeta", "alpha", "mid"} {
		tool := MustTool(name, "test tool", func(context.Context, emptyInput) Result {
			return Result{Status: StatusSuccess}
		})
		if err := reg.Register(tool); err != nil {
			t.Fatal(err)
		}
	}

	specs := reg.List()
	if len(specs) != 3 {
		t.Fatalf("List returned %d specs, want 3", len(specs))
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, spec := range specs {
		if spec.Name != want[i] {
			t.Errorf("specs[%d].Name = %q, want %q", i, spec.Name, want[i])
		}
		if spec.InputSchema == nil {
			t.Errorf("specs[%d].InputSchema is nil", i)
		}
	}
}

func TestRegistryInvalidPayload(t *testing.T) {
	reg := newTestRegistry(t, 0)
	if err := reg.Register(NewCalculator()); err != nil {
		t.Fatal(err)
	}

	inv := reg.Invoke(context.Background(), ToolCalculator, json.RawMessage(`{not json`))
	if inv.Result.Status != StatusError {
		t.Fatalf("Invoke with bad payload = %+v, want error", inv.Result)
	}
	if inv.Result.Error.Code != ErrCodeInvalidInput {
		t.Errorf("error code = %s, want %s", inv.Result.Error.Code, ErrCodeInvalidInput)
	}
}

func TestRegistryPanicRecovery(t *testing.T) {
	reg := newTestRegistry(t, 0)

	type emptyInput struct{}
	bomb := MustTool("bomb", "always panics", func(context.Context, emptyInput) Result {
		panic("boom")
	})
	if err := reg.Register(bomb); err != nil {
		t.Fatal(err)
	}

	inv := reg.Invoke(context.Background(), "bomb", json.RawMessage(`{}`))
	if inv.Result.Status != StatusError {
		t.Fatalf("panicking tool = %+v, want error result", inv.Result)
	}
	if inv.Result.Error.Code != ErrCodeExecution {
		t.Errorf("error code = %s, want %s", inv.Result.Error.Code, ErrCodeExecution)
	}
}

func TestRegistryTimeout(t *testing.T) {
	reg := newTestRegistry(t, 20*time.Millisecond)

	type emptyInput struct{}
	slow := MustTool("slow", "waits for the context", func(ctx context.Context, _ emptyInput) Result {
		<-ctx.Done()
		return Result{Status: StatusSuccess, Message: "finished anyway"}
	})
	if err := reg.Register(slow); err != nil {
		t.Fatal(err)
	}

	inv := reg.Invoke(context.Background(), "slow", json.RawMessage(`{}`))
	if inv.Result.Status != StatusError {
		t.Fatalf("timed-out tool = %+v, want error result", inv.Result)
	}
	if inv.Result.Error.Code != ErrCodeExecution {
		t.Errorf("error code = %s, want %s", inv.Result.Error.Code, ErrCodeExecution)
	}
}

func TestInvocationText(t *testing.T) {
	inv := Invocation{
		Tool:   ToolCalculator,
		Result: Result{Status: StatusSuccess, Message: "2+2 = 4"},
	}
	if got := inv.Text(); got == "" {
		t.Error("Text() returned empty string for successful invocation")
	}
}
