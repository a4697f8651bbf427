package cmd

import (
	"fmt"

	"github.com/koopa0/parley/internal/app"
)

// runSessions lists the conversation sessions currently in memory.
func runSessions(a *app.App) error {
	ids := a.Sessions.List()
	if len(ids) == 0 {
		fmt.Println("No sessions.")
		return nil
	}

	for _, id := range ids {
		fmt.Printf("%-24s %d messages\n", id, a.Sessions.Len(id))
	}
	return nil
}
