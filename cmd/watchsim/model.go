package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/tracker"
)

// viewer is the slice of *tracker.Tracker the simulator drives.
type viewer interface {
	Play()
	Pause()
	Seek(from, to float64)
	Activity(kind tracker.ActivityKind)
	End() <-chan struct{}
	SessionID() uuid.UUID
	ActiveSeconds() int
	Idle() bool
	Pending() int
}

// simPlayer is a fake video whose playhead advances one second per tick while playing.
type simPlayer struct {
	mu       sync.Mutex
	position float64
	duration float64
	playing  bool
}

func (p *simPlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *simPlayer) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *simPlayer) advance(d float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.position += d
	if p.position >= p.duration {
		p.position = p.duration
		p.playing = false
	}
}

func (p *simPlayer) seekBy(d float64) (from, to float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	from = p.position
	to = from + d
	if to < 0 {
		to = 0
	}
	if to > p.duration {
		to = p.duration
	}
	p.position = to
	return from, to
}

func (p *simPlayer) setPlaying(v bool) {
	p.mu.Lock()
	p.playing = v
	p.mu.Unlock()
}

func (p *simPlayer) isPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

type keyMap struct {
	Play   key.Binding
	Back   key.Binding
	Fwd    key.Binding
	Click  key.Binding
	Scroll key.Binding
	Move   key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Play:   key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
	Back:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "seek -10s")),
	Fwd:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "seek +10s")),
	Click:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "click")),
	Scroll: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "scroll")),
	Move:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move pointer")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "end session")),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type tickMsg time.Time

type endedMsg struct{}

type model struct {
	title  string
	viewer viewer
	player *simPlayer
	bar    progress.Model

	ending bool
	status string
}

func newModel(title string, v viewer, p *simPlayer) model {
	return model{
		title:  title,
		viewer: v,
		player: p,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.ending {
			return m, nil
		}
		wasPlaying := m.player.isPlaying()
		m.player.advance(1)
		if wasPlaying && !m.player.isPlaying() {
			m.viewer.Pause()
			m.status = "finished"
		}
		return m, tick()

	case endedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if m.ending {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Quit):
			m.ending = true
			m.status = "flushing events and closing session..."
			m.player.setPlaying(false)
			done := m.viewer.End()
			return m, func() tea.Msg {
				<-done
				return endedMsg{}
			}
		case key.Matches(msg, keys.Play):
			if m.player.isPlaying() {
				m.player.setPlaying(false)
				m.viewer.Pause()
				m.status = "paused"
			} else if m.player.Position() < m.player.Duration() {
				m.player.setPlaying(true)
				m.viewer.Play()
				m.status = "playing"
			}
		case key.Matches(msg, keys.Back):
			from, to := m.player.seekBy(-10)
			m.viewer.Seek(from, to)
		case key.Matches(msg, keys.Fwd):
			from, to := m.player.seekBy(10)
			m.viewer.Seek(from, to)
		case key.Matches(msg, keys.Click):
			m.viewer.Activity(tracker.ActivityClick)
		case key.Matches(msg, keys.Scroll):
			m.viewer.Activity(tracker.ActivityScroll)
		case key.Matches(msg, keys.Move):
			m.viewer.Activity(tracker.ActivityPointer)
		default:
			m.viewer.Activity(tracker.ActivityKey)
		}
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	pos, dur := m.player.Position(), m.player.Duration()
	ratio := 0.0
	if dur > 0 {
		ratio = pos / dur
	}
	b.WriteString(m.bar.ViewAs(ratio))
	b.WriteString(fmt.Sprintf("  %s / %s\n\n", clockString(pos), clockString(dur)))

	sid := "none (offline)"
	if id := m.viewer.SessionID(); id != uuid.Nil {
		sid = id.String()
	}
	state := activeStyle.Render("active")
	if m.viewer.Idle() {
		state = idleStyle.Render("idle")
	}
	rows := []string{
		labelStyle.Render("session  ") + sid,
		labelStyle.Render("learner  ") + state,
		labelStyle.Render("active   ") + fmt.Sprintf("%ds", m.viewer.ActiveSeconds()),
		labelStyle.Render("queued   ") + fmt.Sprintf("%d events", m.viewer.Pending()),
	}
	if m.status != "" {
		rows = append(rows, labelStyle.Render("status   ")+m.status)
	}
	b.WriteString(boxStyle.Render(strings.Join(rows, "\n")))
	b.WriteString("\n\n")

	help := []string{}
	for _, k := range []key.Binding{keys.Play, keys.Back, keys.Fwd, keys.Click, keys.Scroll, keys.Move, keys.Quit} {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	b.WriteString("\n")
	return b.String()
}

func clockString(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
