// watchsim plays a simulated lesson video in the terminal and reports it through
// the tracker against a running API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/client"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
	"github.com/yungbote/coursetrack-backend/internal/tracker"
)

func main() {
	var baseURL, token, lesson, title string
	var duration time.Duration
	flag.StringVar(&baseURL, "base-url", "http://localhost:8080", "API base URL")
	flag.StringVar(&token, "token", os.Getenv("COURSETRACK_TOKEN"), "learner bearer token (see cmd/seed)")
	flag.StringVar(&lesson, "lesson", "", "lesson id")
	flag.StringVar(&title, "title", "Lesson", "title shown in the player")
	flag.DurationVar(&duration, "duration", 6*time.Minute, "simulated video length")
	flag.Parse()

	lessonID, err := uuid.Parse(lesson)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -lesson: %v\n", err)
		os.Exit(2)
	}
	api, err := client.New(client.Options{BaseURL: baseURL, Token: token})
	if err != nil {
		fmt.Fprintf(os.Stderr, "client: %v\n", err)
		os.Exit(2)
	}
	// The TUI owns the terminal; keep logs quiet.
	log := logger.Nop()

	player := &simPlayer{duration: duration.Seconds()}
	tr := tracker.New(lessonID, tracker.Options{API: api, Log: log, Player: player})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := tr.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "session start failed, continuing offline: %v\n", err)
	}

	p := tea.NewProgram(newModel(title, tr, player), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		<-tr.End()
		fmt.Fprintf(os.Stderr, "watchsim: %v\n", err)
		os.Exit(1)
	}
	<-tr.End()
	fmt.Printf("session %s ended after %ds active\n", tr.SessionID(), tr.ActiveSeconds())
}
