package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWithWriter(&buf, Config{Level: slog.LevelDebug})
	logger.Info("hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "hello") {
		t.Errorf("output missing message: %s", out)
	}
	if !strings.Contains(out, "key=value") {
		t.Errorf("output missing attribute: %s", out)
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWithWriter(&buf, Config{JSON: true})
	logger.Info("json test", "foo", "bar")

	if !strings.Contains(buf.String(), `"msg":"json test"`) {
		t.Errorf("expected JSON output, got: %s", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWithWriter(&buf, Config{Level: slog.LevelInfo})
	logger.Debug("filtered")
	logger.Info("kept")

	out := buf.String()
	if strings.Contains(out, "filtered") {
		t.Error("debug message should be filtered out")
	}
	if !strings.Contains(out, "kept") {
		t.Error("info message should appear")
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWithWriter(&buf, Config{})
	logger.With("component", "session").Info("scoped")

	if !strings.Contains(buf.String(), "component=session") {
		t.Errorf("expected component attribute, got: %s", buf.String())
	}
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	if logger == nil {
		t.Fatal("NewNop() returned nil")
	}
	logger.Info("discarded")
	logger.Error("discarded too")
}
