// Package tui provides the interactive terminal interface for veridex.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/veridex-labs/veridex-cli/internal/adapters/driving/tui/keymap"
	"github.com/veridex-labs/veridex-cli/internal/adapters/driving/tui/messages"
	"github.com/veridex-labs/veridex-cli/internal/adapters/driving/tui/styles"
	"github.com/veridex-labs/veridex-cli/internal/core/domain"
	"github.com/veridex-labs/veridex-cli/internal/core/ports/driving"
)

// ErrMissingIndexService is returned when no index service is provided.
var ErrMissingIndexService = errors.New("tui: index service is required")

// Model is the top-level Bubbletea model for the veridex TUI.
type Model struct {
	styles  *styles.Styles
	keys    *keymap.KeyMap
	input   textinput.Model
	spinner spinner.Model

	index driving.IndexService
	ctx   context.Context

	results   []domain.SearchResult
	lastQuery string
	selected  int
	searching bool
	manifest  *domain.IndexManifest
	err       error

	width  int
	height int
}

// New creates the TUI model for the given index service.
func New(index driving.IndexService) *Model {
	s := styles.DefaultStyles()

	input := textinput.New()
	input.Placeholder = "Type a query and press enter"
	input.Prompt = "> "
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		styles:  s,
		keys:    keymap.DefaultKeyMap(),
		input:   input,
		spinner: sp,
		index:   index,
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
}

// WithContext sets the context used for search and status calls.
func (m *Model) WithContext(ctx context.Context) *Model {
	m.ctx = ctx
	return m
}

// Init loads the index status and starts the input cursor blinking.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadStatus())
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 6
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case messages.SearchCompleted:
		m.searching = false
		m.lastQuery = msg.Query
		m.selected = 0
		if msg.Err != nil {
			m.err = msg.Err
			m.results = nil
		} else {
			m.err = nil
			m.results = msg.Results
		}
		return m, nil

	case messages.StatusLoaded:
		if msg.Err == nil {
			m.manifest = msg.Manifest
		}
		return m, nil

	case spinner.TickMsg:
		if !m.searching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Search):
		query := strings.TrimSpace(m.input.Value())
		if query == "" || m.searching {
			return m, nil
		}
		m.searching = true
		m.err = nil
		return m, tea.Batch(m.spinner.Tick, m.search(query))

	case key.Matches(msg, m.keys.Clear):
		m.input.SetValue("")
		m.results = nil
		m.lastQuery = ""
		m.selected = 0
		m.err = nil
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.results)-1 {
			m.selected++
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// search runs a query against the index off the UI goroutine.
func (m *Model) search(query string) tea.Cmd {
	return func() tea.Msg {
		results, err := m.index.Search(m.ctx, query, domain.SearchOptions{})
		return messages.SearchCompleted{Query: query, Results: results, Err: err}
	}
}

// loadStatus fetches the index manifest for the status bar.
func (m *Model) loadStatus() tea.Cmd {
	return func() tea.Msg {
		manifest, err := m.index.Status(m.ctx)
		return messages.StatusLoaded{Manifest: manifest, Err: err}
	}
}

// View renders the interface.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("veridex"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.InputField.Render(m.input.View()))
	b.WriteString("\n\n")

	switch {
	case m.searching:
		b.WriteString(m.spinner.View())
		b.WriteString(m.styles.Muted.Render(" searching..."))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(m.styles.Error.Render(errorLine(m.err)))
		b.WriteString("\n")
	case m.lastQuery != "" && len(m.results) == 0:
		b.WriteString(m.styles.Muted.Render("No results."))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderResults())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderResults() string {
	var b strings.Builder
	for i := range m.results {
		r := &m.results[i]

		title := r.DocumentTitle
		if title == "" {
			title = r.Chunk.DocumentID
		}
		line := fmt.Sprintf("%s %s", title, m.styles.Score.Render(fmt.Sprintf("%.3f", r.Score)))

		if i == m.selected {
			b.WriteString(m.styles.Selected.Render("▸ " + line))
		} else {
			b.WriteString(m.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")

		if i == m.selected {
			b.WriteString(m.styles.Muted.Render("  " + clip(r.Chunk.Content, m.width-4)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *Model) renderStatusBar() string {
	status := "index not initialized, run \"veridex build\""
	if m.manifest != nil {
		status = fmt.Sprintf("%d docs · %d chunks · %s",
			m.manifest.DocumentCount, m.manifest.ChunkCount, m.manifest.Model)
	}

	help := "enter search · ↑/↓ select · esc clear · ctrl+c quit"
	return m.styles.StatusBar.Render(status) + "\n" + m.styles.Help.Render(help)
}

// errorLine keeps service errors readable in a single status line.
func errorLine(err error) string {
	if errors.Is(err, domain.ErrNotInitialized) {
		return "No index yet. Run \"veridex build\" first."
	}
	return err.Error()
}

// clip shortens text to a single line of at most width runes.
func clip(text string, width int) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	runes := []rune(text)
	if width > 3 && len(runes) > width {
		return string(runes[:width-3]) + "..."
	}
	return text
}

// Run starts the TUI and blocks until it exits.
func Run(ctx context.Context, index driving.IndexService) error {
	if index == nil {
		return ErrMissingIndexService
	}

	program := tea.NewProgram(New(index).WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
