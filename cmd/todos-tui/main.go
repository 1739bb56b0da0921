package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"todos/internal/client"
	"todos/internal/tui"
)

func main() {
	var (
		server  = flag.String("server", "", "Todo server URL (overrides TODOS_SERVER env)")
		timeout = flag.Duration("timeout", 5*time.Second, "HTTP request timeout")
	)
	flag.Parse()

	c := client.NewClient(resolveServer(*server), *timeout)

	p := tea.NewProgram(tui.New(c, *timeout), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// resolveServer returns the server URL following the priority chain:
// flag > environment variable > default.
func resolveServer(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("TODOS_SERVER"); v != "" {
		return v
	}
	return client.DefaultBaseURL
}
