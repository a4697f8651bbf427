package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/koopa0/parley/internal/app"
	"github.com/koopa0/parley/internal/chat"
	"github.com/koopa0/parley/internal/router"
)

// runChat starts the interactive REPL. Slash commands control the loop;
// everything else goes to the assistant, streamed to stdout.
func runChat(ctx context.Context, a *app.App) error {
	fmt.Println("Parley - type a message, /help for commands, /exit to quit")
	fmt.Println()

	mode := ""
	persona := ""
	sessionID := a.Config.SessionID

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		prompt := "> "
		if mode != "" {
			prompt = fmt.Sprintf("[%s] > ", mode)
		}
		fmt.Print(prompt)

		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := handleSlash(a, line, &mode, &persona, sessionID)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
			}
			if quit {
				return nil
			}
			continue
		}

		reply, err := a.Assistant.RespondStream(ctx, chat.Request{
			Message:   line,
			SessionID: sessionID,
			Mode:      router.Mode(mode),
			Persona:   persona,
		}, func(chunk string) error {
			fmt.Print(chunk)
			return nil
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println()
				return nil
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			continue
		}
		fmt.Println()
		printReplyMeta(reply)
		fmt.Println()
	}
}

// handleSlash executes one REPL command. The returned bool reports
// whether the loop should exit.
func handleSlash(a *app.App, line string, mode, persona *string, sessionID string) (bool, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/exit", "/quit":
		fmt.Println("Goodbye!")
		return true, nil
	case "/help":
		fmt.Print(`Commands:
  /mode [chat|knowledge|tools|agent]  Force a mode (empty = auto-route)
  /persona <name>                     Set the agent persona
  /clear                              Clear this session's history
  /help                               Show this help
  /exit                               Quit
`)
		return false, nil
	case "/clear":
		a.Sessions.Clear(sessionID)
		fmt.Println("Session cleared.")
		return false, nil
	case "/mode":
		if arg == "" {
			*mode = ""
			fmt.Println("Mode: auto")
			return false, nil
		}
		m := router.ParseMode(arg)
		if m == "" {
			return false, fmt.Errorf("unknown mode %q (chat, knowledge, tools, agent)", arg)
		}
		*mode = string(m)
		fmt.Println("Mode:", m)
		return false, nil
	case "/persona":
		if arg == "" {
			return false, fmt.Errorf("usage: /persona <name>")
		}
		*persona = arg
		fmt.Println("Persona:", arg)
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
}

// printReplyMeta shows citations, tool usage, and agent progress after a
// streamed answer.
func printReplyMeta(reply *chat.Reply) {
	if reply == nil {
		return
	}
	for _, c := range reply.Citations {
		fmt.Printf("  [source: %s, score %.2f]\n", c.Source, c.Score)
	}
	for _, t := range reply.Tools {
		fmt.Printf("  [tool: %s, %s]\n", t.Name, t.Status)
	}
	if reply.Agent != nil {
		fmt.Printf("  [agent: %s, %d/%d steps]\n",
			reply.Agent.Persona, reply.Agent.StepsCompleted, reply.Agent.TotalSteps)
	}
	if reply.Language != nil && reply.Language.Translated {
		fmt.Printf("  [language: %s]\n", reply.Language.Detected)
	}
}
