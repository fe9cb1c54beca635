// Package ui renders a chat session to a terminal.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"clarity-backend/internal/models"
)

var (
	userLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	modelLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Italic(true)

	summaryTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("255")).
				Background(lipgloss.Color("236")).
				Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))
)

const (
	userLabel  = "You"
	modelLabel = "Clarity"
	prompt     = "> "

	defaultWidth = 80
)

// Terminal writes turns to an io.Writer. Model text is rendered as markdown,
// user text is written verbatim. Streamed chunks are shown raw and replaced
// by the rendered turn once it completes.
type Terminal struct {
	mu        sync.Mutex
	out       io.Writer
	markdown  *glamour.TermRenderer
	width     int
	streaming bool
	pending   strings.Builder
	inputOn   bool
}

// NewTerminal builds a renderer. An empty style picks one from the terminal
// background; "notty" gives plain output suitable for pipes.
func NewTerminal(out io.Writer, style string, wordWrap int) (*Terminal, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wordWrap)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}

	md, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}
	if wordWrap <= 0 {
		wordWrap = defaultWidth
	}
	return &Terminal{out: out, markdown: md, width: wordWrap}, nil
}

func (t *Terminal) RenderTurn(turn models.Turn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if turn.Role == models.RoleUser {
		fmt.Fprintf(t.out, "%s %s\n", userLabelStyle.Render(userLabel+":"), turn.Text)
		return
	}

	t.clearStream()
	fmt.Fprintln(t.out, modelLabelStyle.Render(modelLabel+":"))
	fmt.Fprint(t.out, t.renderMarkdown(turn.Text))
}

// RenderChunk writes a partial model reply as it arrives.
func (t *Terminal) RenderChunk(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.streaming {
		t.streaming = true
		t.pending.Reset()
		t.pending.WriteString(modelLabel + ": ")
		fmt.Fprintf(t.out, "%s ", modelLabelStyle.Render(modelLabel+":"))
	}
	t.pending.WriteString(text)
	fmt.Fprint(t.out, text)
}

// clearStream erases the raw chunks written since the last RenderChunk run
// and leaves the cursor where they started.
func (t *Terminal) clearStream() {
	if !t.streaming {
		return
	}
	t.streaming = false

	rows := 0
	for _, line := range strings.Split(t.pending.String(), "\n") {
		rows += max(1, (ansi.StringWidth(line)+t.width-1)/t.width)
	}
	t.pending.Reset()

	fmt.Fprint(t.out, "\r")
	if rows > 1 {
		fmt.Fprint(t.out, ansi.CursorPreviousLine(rows-1))
	}
	fmt.Fprint(t.out, ansi.EraseScreenBelow)
}

func (t *Terminal) RenderError(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clearStream()
	fmt.Fprintln(t.out, errorStyle.Render(message))
}

func (t *Terminal) RenderSummary(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, summaryTitleStyle.Render("Session summary"))
	fmt.Fprint(t.out, t.renderMarkdown(text))
}

// SetInputEnabled shows the prompt when input becomes available.
func (t *Terminal) SetInputEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if enabled && !t.inputOn {
		fmt.Fprint(t.out, promptStyle.Render(prompt))
	}
	t.inputOn = enabled
}

func (t *Terminal) InputEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputOn
}

// renderMarkdown falls back to the raw text if glamour fails or panics.
func (t *Terminal) renderMarkdown(text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = text + "\n"
		}
	}()

	rendered, err := t.markdown.Render(text)
	if err != nil {
		return text + "\n"
	}
	if !strings.HasSuffix(rendered, "\n") {
		rendered += "\n"
	}
	return rendered
}
