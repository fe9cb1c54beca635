package models

import (
	"fmt"
	"strings"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// Turn is a single message in a conversation. Turns are values and are
// never modified once appended to a session.
type Turn struct {
	Role Role
	Text string
}

func UserTurn(text string) Turn  { return Turn{Role: RoleUser, Text: text} }
func ModelTurn(text string) Turn { return Turn{Role: RoleModel, Text: text} }

// Part is one piece of a wire-format turn.
type Part struct {
	Text string `json:"text"`
}

// Content is the wire shape of a turn: {"role": "...", "parts": [{"text": "..."}]}.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// NewContent converts a turn to its wire shape.
func NewContent(t Turn) Content {
	return Content{Role: string(t.Role), Parts: []Part{{Text: t.Text}}}
}

// Turn validates the wire entry and converts it back to a turn. Only
// single-part entries are accepted.
func (c Content) Turn() (Turn, error) {
	role := Role(c.Role)
	if !role.Valid() {
		return Turn{}, fmt.Errorf("role must be %q or %q, got %q", RoleUser, RoleModel, c.Role)
	}
	if len(c.Parts) != 1 {
		return Turn{}, fmt.Errorf("expected exactly one text part, got %d", len(c.Parts))
	}
	return Turn{Role: role, Text: c.Parts[0].Text}, nil
}

// ChatRequest is the payload sent to the chat endpoint. History holds every
// turn before Message; Message itself is never part of History.
type ChatRequest struct {
	Message     string    `json:"message"`
	History     []Content `json:"history,omitempty"`
	Personality string    `json:"personality,omitempty"`
}

// SummaryRequest is the payload sent to the summarize endpoint.
type SummaryRequest struct {
	History []Content `json:"history"`
}

// EncodeHistory converts session turns to wire entries.
func EncodeHistory(turns []Turn) []Content {
	out := make([]Content, len(turns))
	for i, t := range turns {
		out[i] = NewContent(t)
	}
	return out
}

// DecodeHistory validates every wire entry and returns the turns in order.
// All problems are reported at once, keyed by entry index.
func DecodeHistory(history []Content) ([]Turn, error) {
	turns := make([]Turn, 0, len(history))
	fields := make(map[string]string)

	for i, c := range history {
		t, err := c.Turn()
		if err != nil {
			fields[fmt.Sprintf("history[%d]", i)] = err.Error()
			continue
		}
		turns = append(turns, t)
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Message: "Invalid history.", Fields: fields}
	}
	return turns, nil
}

// Validate checks the chat request and returns the decoded history.
func (r ChatRequest) Validate() ([]Turn, error) {
	if strings.TrimSpace(r.Message) == "" {
		return nil, &ValidationError{Message: "No message provided."}
	}
	return DecodeHistory(r.History)
}
