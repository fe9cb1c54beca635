// Package orchestrator drives one chat session from the client side: it owns
// the turn log, talks to the relay, and tells a renderer what to show.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"clarity-backend/internal/conversation"
	"clarity-backend/internal/models"
	"clarity-backend/internal/personality"
)

const (
	Greeting        = "Hello, I'm here to listen. How are you feeling today?"
	FallbackMessage = "Sorry, something went wrong. Please try again later."
)

var (
	// ErrBusy is returned when a request is already outstanding.
	ErrBusy = errors.New("a request is already in progress")
	// ErrSessionClosed is returned after the session has been summarized.
	ErrSessionClosed = errors.New("session has been summarized")
)

// Relay is the backend the orchestrator sends requests to.
type Relay interface {
	Chat(ctx context.Context, req models.ChatRequest) (string, error)
	Summarize(ctx context.Context, req models.SummaryRequest) (string, error)
}

// StreamingRelay is implemented by relays that can deliver a reply in pieces.
type StreamingRelay interface {
	ChatStream(ctx context.Context, req models.ChatRequest, onChunk func(string)) (string, error)
}

// Renderer presents the session. Model turns are expected to be shown as
// formatted rich text; user turns as plain text.
type Renderer interface {
	RenderTurn(t models.Turn)
	RenderError(message string)
	RenderSummary(text string)
	SetInputEnabled(enabled bool)
}

// ChunkRenderer is implemented by renderers that can show partial replies.
type ChunkRenderer interface {
	RenderChunk(text string)
}

type Option func(*Orchestrator)

// WithStreaming asks for chunked replies when both relay and renderer support it.
func WithStreaming() Option {
	return func(o *Orchestrator) { o.stream = true }
}

func WithPersonality(p personality.Personality) Option {
	return func(o *Orchestrator) { o.personality = p }
}

type Orchestrator struct {
	session  *conversation.Session
	relay    Relay
	renderer Renderer
	stream   bool

	mu          sync.Mutex
	personality personality.Personality
	started     bool
	busy        bool
	closed      bool
}

func New(relay Relay, renderer Renderer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		session:     conversation.NewSession(),
		relay:       relay,
		renderer:    renderer,
		personality: personality.Default,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Session exposes the turn log for read access.
func (o *Orchestrator) Session() *conversation.Session {
	return o.session
}

func (o *Orchestrator) Personality() personality.Personality {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.personality
}

// SetPersonality selects the profile for subsequent requests. Unknown labels
// select the default and report false.
func (o *Orchestrator) SetPersonality(label string) (personality.Personality, bool) {
	p, ok := personality.Parse(label)
	o.mu.Lock()
	o.personality = p
	o.mu.Unlock()
	return p, ok
}

// Start records and renders the greeting. Only the first call has an effect.
// It shares the request guard: ErrBusy while a request is outstanding,
// ErrSessionClosed after Summarize.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return nil
	}
	if err := o.checkLocked(); err != nil {
		o.mu.Unlock()
		return err
	}
	o.started = true
	o.busy = true
	o.mu.Unlock()
	defer o.end()

	greeting := models.ModelTurn(Greeting)
	o.session.Append(greeting)
	o.renderer.RenderTurn(greeting)
	return nil
}

// Submit sends one user message. Blank input is ignored. On failure the
// fallback message is rendered, the user turn stays in the session and the
// error is returned.
func (o *Orchestrator) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	p, err := o.begin()
	if err != nil {
		return err
	}
	defer o.end()

	userTurn := models.UserTurn(text)
	o.renderer.RenderTurn(userTurn)
	n := o.session.Append(userTurn)

	req := models.ChatRequest{
		Message:     text,
		History:     models.EncodeHistory(o.session.Prefix(n - 1)),
		Personality: p.Label(),
	}

	reply, err := o.sendChat(ctx, req)
	if err != nil {
		o.renderer.RenderError(FallbackMessage)
		return fmt.Errorf("chat exchange: %w", err)
	}

	modelTurn := models.ModelTurn(reply)
	o.session.Append(modelTurn)
	o.renderer.RenderTurn(modelTurn)
	return nil
}

func (o *Orchestrator) sendChat(ctx context.Context, req models.ChatRequest) (string, error) {
	if o.stream {
		sr, relayOK := o.relay.(StreamingRelay)
		cr, rendererOK := o.renderer.(ChunkRenderer)
		if relayOK && rendererOK {
			return sr.ChatStream(ctx, req, cr.RenderChunk)
		}
	}
	return o.relay.Chat(ctx, req)
}

// Summarize asks for a summary of the whole session. It is terminal: input
// stays disabled afterwards whether or not the summary succeeded.
func (o *Orchestrator) Summarize(ctx context.Context) (string, error) {
	if _, err := o.begin(); err != nil {
		return "", err
	}
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	defer o.end()

	summary, err := o.relay.Summarize(ctx, models.SummaryRequest{
		History: models.EncodeHistory(o.session.Turns()),
	})
	if err != nil {
		o.renderer.RenderError(FallbackMessage)
		return "", fmt.Errorf("summary exchange: %w", err)
	}

	o.renderer.RenderSummary(summary)
	return summary, nil
}

// Closed reports whether the session has been summarized.
func (o *Orchestrator) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

func (o *Orchestrator) checkLocked() error {
	if o.closed {
		return ErrSessionClosed
	}
	if o.busy {
		return ErrBusy
	}
	return nil
}

func (o *Orchestrator) begin() (personality.Personality, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkLocked(); err != nil {
		return o.personality, err
	}
	o.busy = true
	o.renderer.SetInputEnabled(false)
	return o.personality, nil
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = false
	if !o.closed {
		o.renderer.SetInputEnabled(true)
	}
}
