package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"filterchat/internal/session"
)

// Minimal terminal front end for the chat session controller. The
// controller owns all conversation state; this just renders it.
func main() {
	endpoint := flag.String("url", "http://localhost:8000/api/chat", "chat endpoint URL")
	flag.Parse()

	ctrl := session.New(session.NewHTTPResponder(*endpoint))

	// Terminal stand-in for scroll-to-latest: print every message the
	// moment it is appended.
	rendered := 0
	ctrl.SetAppendHook(func(n int) {
		transcript := ctrl.Transcript()
		for ; rendered < len(transcript); rendered++ {
			m := transcript[rendered]
			fmt.Printf("[%s] %s\n", m.Role, m.Content)
		}
	})

	ctrl.Subscribe(func(s session.Snapshot) {
		if s.Status == session.StatusIdle && s.LastError != "" {
			fmt.Fprintf(os.Stderr, "! %s\n", s.LastError)
		}
	})

	// Render the seeded greeting.
	for _, m := range ctrl.Transcript() {
		fmt.Printf("[%s] %s\n", m.Role, m.Content)
		rendered++
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		ctrl.Submit(context.Background(), scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "input error: %v\n", err)
		os.Exit(1)
	}
}
