// Package tui provides the Bubble Tea counter-strafe interface.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/strafe/internal/model"
	"github.com/verte-zerg/strafe/internal/trainer"
)

// DefaultTickRate is the render and drain frequency in Hz.
const DefaultTickRate = 120

// Drainer yields the events queued since the previous call without blocking.
type Drainer interface {
	DrainAll() []model.InputEvent
}

type tickMsg time.Time

type keyMap struct {
	Practice key.Binding
	Reset    key.Binding
	Quit     key.Binding
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Practice, k.Reset, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeyMap() keyMap {
	return keyMap{
		// Shown for help only; strafe keys come from the raw keyboard source.
		Practice: key.NewBinding(key.WithKeys("a", "d"), key.WithHelp("A/D", "practice")),
		Reset:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset")),
		Quit:     key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

// Model implements the Bubble Tea trainer UI.
type Model struct {
	trainer  *trainer.Trainer
	input    Drainer
	interval time.Duration

	keys     keyMap
	help     help.Model
	progress progress.Model

	width  int
	height int

	snap trainer.Snapshot
	done bool
}

// NewModel constructs the trainer UI. tickRate is in Hz; zero uses DefaultTickRate.
func NewModel(tr *trainer.Trainer, input Drainer, tickRate int) *Model {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	bar := progress.New(
		progress.WithSolidFill(string(accentColor)),
		progress.WithoutPercentage(),
		progress.WithWidth(cardWidth-4),
	)
	bar.EmptyColor = string(mutedColor)
	return &Model{
		trainer:  tr,
		input:    input,
		interval: time.Second / time.Duration(tickRate),
		keys:     defaultKeyMap(),
		help:     help.New(),
		progress: bar,
		snap:     tr.Snapshot(),
	}
}

// Snapshot returns the most recent frame state.
func (m *Model) Snapshot() trainer.Snapshot {
	return m.snap
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Reset):
			m.trainer.ResetStats()
			m.snap = m.trainer.Snapshot()
		}
		return m, nil
	case tickMsg:
		if m.done {
			return m, nil
		}
		var events []model.InputEvent
		if m.input != nil {
			events = m.input.DrainAll()
		}
		m.snap = m.trainer.Tick(events)
		if m.snap.Quit {
			m.done = true
			return m, tea.Quit
		}
		return m, m.tick()
	default:
		return m, nil
	}
}
