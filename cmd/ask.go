package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/koopa0/parley/internal/app"
	"github.com/koopa0/parley/internal/chat"
)

// runAsk answers a single question and exits. The reply is rendered as
// markdown when stdout is a terminal; rendering failures fall back to
// plain text.
func runAsk(ctx context.Context, a *app.App, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("usage: parley ask \"your question\"")
	}

	reply, err := a.Assistant.Respond(ctx, chat.Request{Message: question})
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Print(renderMarkdown(reply.Text))
	printReplyMeta(reply)
	return nil
}

// renderMarkdown renders text for terminal display. Any renderer failure
// returns the input unchanged; the answer matters more than the styling.
func renderMarkdown(text string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return text + "\n"
	}

	width := 100
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text + "\n"
	}

	out, err := renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}
