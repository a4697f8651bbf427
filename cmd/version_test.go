package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionVariablesHaveDefaults(t *testing.T) {
	assert.NotEmpty(t, AppVersion)
	assert.Equal(t, "unknown", BuildTime)
	assert.Equal(t, "unknown", GitCommit)
}

func TestRenderMarkdownFallsBackOutsideTerminal(t *testing.T) {
	// Test binaries run without a TTY, so rendering degrades to plain text.
	out := renderMarkdown("# Title")
	assert.Equal(t, "# Title\n", out)
}
