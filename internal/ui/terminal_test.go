package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clarity-backend/internal/models"
	"clarity-backend/internal/orchestrator"
)

func newTestTerminal(t *testing.T) (*Terminal, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	term, err := NewTerminal(&buf, "notty", 80)
	require.NoError(t, err)
	return term, &buf
}

func TestTerminal_RenderTurns(t *testing.T) {
	term, buf := newTestTerminal(t)

	term.RenderTurn(models.UserTurn("I *feel* stuck"))
	term.RenderTurn(models.ModelTurn("Breathe slowly and notice your surroundings."))

	out := buf.String()
	assert.Contains(t, out, "You:")
	assert.Contains(t, out, "I *feel* stuck")
	assert.Contains(t, out, "Clarity:")
	assert.Contains(t, out, "Breathe slowly")
}

func TestTerminal_StreamedReplyRedrawnAsMarkdown(t *testing.T) {
	var buf bytes.Buffer
	term, err := NewTerminal(&buf, "dark", 80)
	require.NoError(t, err)

	term.RenderChunk("Try **box ")
	term.RenderChunk("breathing**.")
	require.Contains(t, buf.String(), "Try **box breathing**.")

	term.RenderTurn(models.ModelTurn("Try **box breathing**."))

	out := buf.String()
	idx := strings.LastIndex(out, ansi.EraseScreenBelow)
	require.NotEqual(t, -1, idx, "raw chunks must be erased")

	final := out[idx:]
	assert.Equal(t, 1, strings.Count(final, "Clarity:"))
	assert.Contains(t, final, "breathing")
	assert.NotContains(t, final, "**")
}

func TestTerminal_ClearsWrappedStream(t *testing.T) {
	var buf bytes.Buffer
	term, err := NewTerminal(&buf, "notty", 40)
	require.NoError(t, err)

	// "Clarity: " plus 200 cells wraps onto six rows at width 40.
	term.RenderChunk(strings.Repeat("a", 200))
	term.RenderError("Sorry, something went wrong. Please try again later.")

	out := buf.String()
	assert.Contains(t, out, "\r"+ansi.CursorPreviousLine(5)+ansi.EraseScreenBelow)
	assert.Contains(t, out, "Sorry, something went wrong.")
}

func TestTerminal_StreamingSessionShowsRichText(t *testing.T) {
	var buf bytes.Buffer
	term, err := NewTerminal(&buf, "dark", 80)
	require.NoError(t, err)

	relay := &chunkRelay{chunks: []string{"Try **box ", "breathing**."}}
	o := orchestrator.New(relay, term, orchestrator.WithStreaming())
	require.NoError(t, o.Submit(context.Background(), "help"))

	out := buf.String()
	final := out[strings.LastIndex(out, ansi.EraseScreenBelow):]
	assert.NotContains(t, final, "**")
	assert.Contains(t, final, "breathing")
}

type chunkRelay struct {
	chunks []string
}

func (c *chunkRelay) Chat(ctx context.Context, req models.ChatRequest) (string, error) {
	return strings.Join(c.chunks, ""), nil
}

func (c *chunkRelay) Summarize(ctx context.Context, req models.SummaryRequest) (string, error) {
	return "", nil
}

func (c *chunkRelay) ChatStream(ctx context.Context, req models.ChatRequest, onChunk func(string)) (string, error) {
	for _, chunk := range c.chunks {
		onChunk(chunk)
	}
	return strings.Join(c.chunks, ""), nil
}

func TestTerminal_ErrorAndSummary(t *testing.T) {
	term, buf := newTestTerminal(t)

	term.RenderError("Sorry, something went wrong. Please try again later.")
	term.RenderSummary("You spoke about work stress.")

	out := buf.String()
	assert.Contains(t, out, "Sorry, something went wrong.")
	assert.Contains(t, out, "Session summary")
	assert.Contains(t, out, "work stress")
}

func TestTerminal_PromptShownOnEnable(t *testing.T) {
	term, buf := newTestTerminal(t)

	term.SetInputEnabled(true)
	term.SetInputEnabled(true)
	assert.True(t, term.InputEnabled())
	assert.Equal(t, 1, strings.Count(buf.String(), prompt))

	term.SetInputEnabled(false)
	assert.False(t, term.InputEnabled())
}
