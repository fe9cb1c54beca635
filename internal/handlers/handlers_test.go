package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"clarity-backend/internal/middleware"
	"clarity-backend/internal/models"
	"clarity-backend/internal/personality"
	"clarity-backend/internal/services"
)

type stubModel struct {
	reply string
	err   error

	calls       int
	instruction string
	history     []models.Turn
	message     string
	prompt      string
	deadline    bool
}

func (s *stubModel) Chat(ctx context.Context, instruction string, history []models.Turn, message string) (string, error) {
	s.calls++
	s.instruction = instruction
	s.history = history
	s.message = message
	_, s.deadline = ctx.Deadline()
	return s.reply, s.err
}

func (s *stubModel) Generate(ctx context.Context, instruction, prompt string) (string, error) {
	s.calls++
	s.instruction = instruction
	s.prompt = prompt
	_, s.deadline = ctx.Deadline()
	return s.reply, s.err
}

func postJSON(t *testing.T, path string, body interface{}) *http.Request {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "req-123")
	return req.WithContext(ctx)
}

// ─── Chat Handler Tests ───

func TestChatHandler_ReplaysHistoryAndReturnsRawText(t *testing.T) {
	model := &stubModel{reply: "Try **box breathing** for a minute."}
	h := NewChatHandler(model, zap.NewNop(), time.Minute)

	req := postJSON(t, "/chat", models.ChatRequest{
		Message: "What should I do?",
		History: []models.Content{
			models.NewContent(models.UserTurn("I feel anxious")),
			models.NewContent(models.ModelTurn("That sounds hard")),
		},
	})
	rr := httptest.NewRecorder()
	h.Chat(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Try **box breathing** for a minute.", rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")

	require.Equal(t, 1, model.calls)
	assert.Equal(t, []models.Turn{
		models.UserTurn("I feel anxious"),
		models.ModelTurn("That sounds hard"),
	}, model.history)
	assert.Equal(t, "What should I do?", model.message)
	assert.Equal(t, 3, len(model.history)+1, "two replayed turns plus the new message")
	assert.True(t, model.deadline, "upstream call must run under a timeout")
}

func TestChatHandler_MissingMessage(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{"empty message", map[string]string{"message": ""}},
		{"blank message", map[string]string{"message": "   "}},
		{"no message field", map[string]interface{}{"history": []interface{}{}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			model := &stubModel{reply: "unused"}
			h := NewChatHandler(model, zap.NewNop(), time.Minute)

			rr := httptest.NewRecorder()
			h.Chat(rr, postJSON(t, "/chat", tc.body))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "No message provided.", rr.Body.String())
			assert.Zero(t, model.calls, "upstream must not be contacted")
		})
	}
}

func TestChatHandler_MalformedBody(t *testing.T) {
	model := &stubModel{}
	h := NewChatHandler(model, zap.NewNop(), time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.Chat(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, models.MsgInvalidBody, rr.Body.String())
	assert.Zero(t, model.calls)
}

func TestChatHandler_InvalidHistory(t *testing.T) {
	tests := []struct {
		name    string
		history []models.Content
	}{
		{"unknown role", []models.Content{{Role: "assistant", Parts: []models.Part{{Text: "hi"}}}}},
		{"multi part", []models.Content{{Role: "user", Parts: []models.Part{{Text: "a"}, {Text: "b"}}}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			model := &stubModel{}
			h := NewChatHandler(model, zap.NewNop(), time.Minute)

			rr := httptest.NewRecorder()
			h.Chat(rr, postJSON(t, "/chat", models.ChatRequest{Message: "hello", History: tc.history}))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), "history[0]")
			assert.Zero(t, model.calls)
		})
	}
}

func TestChatHandler_UpstreamFailureIsHidden(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	model := &stubModel{err: errors.New("quota exceeded for project 1234")}
	h := NewChatHandler(model, zap.New(core), time.Minute)

	rr := httptest.NewRecorder()
	h.Chat(rr, postJSON(t, "/chat", models.ChatRequest{Message: "hello"}))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Something went wrong.", rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "quota")

	failures := logs.FilterMessage("Upstream model call failed").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "quota exceeded for project 1234", failures[0].ContextMap()["error"])
	assert.Equal(t, "req-123", failures[0].ContextMap()["request_id"])
}

func TestChatHandler_ResolvesPersonality(t *testing.T) {
	tests := []struct {
		label string
		want  personality.Personality
	}{
		{"", personality.Empathetic},
		{"Stoic", personality.Stoic},
		{"playful", personality.Playful},
		{"Grumpy", personality.Empathetic},
	}

	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			model := &stubModel{reply: "ok"}
			h := NewChatHandler(model, zap.NewNop(), time.Minute)

			rr := httptest.NewRecorder()
			h.Chat(rr, postJSON(t, "/chat", models.ChatRequest{Message: "hi", Personality: tc.label}))

			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tc.want.Instruction(), model.instruction)
		})
	}
}

func TestChatHandler_LogsExchange(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	model := &stubModel{reply: "I'm listening."}
	h := NewChatHandler(model, zap.New(core), time.Minute)

	rr := httptest.NewRecorder()
	h.Chat(rr, postJSON(t, "/chat", models.ChatRequest{Message: "hello", Personality: "Stoic"}))
	require.Equal(t, http.StatusOK, rr.Code)

	incoming := logs.FilterMessage("Incoming chat request").All()
	require.Len(t, incoming, 1)
	assert.Equal(t, "hello", incoming[0].ContextMap()["message"])
	assert.Equal(t, "Stoic", incoming[0].ContextMap()["personality"])

	replies := logs.FilterMessage("Chat reply").All()
	require.Len(t, replies, 1)
	assert.Equal(t, "I'm listening.", replies[0].ContextMap()["reply"])
}

// ─── Summary Handler Tests ───

func TestSummaryHandler_FlattensHistory(t *testing.T) {
	model := &stubModel{reply: "You talked about anxiety."}
	h := NewSummaryHandler(model, zap.NewNop(), time.Minute)

	rr := httptest.NewRecorder()
	h.Summarize(rr, postJSON(t, "/summarize", models.SummaryRequest{
		History: []models.Content{
			models.NewContent(models.UserTurn("I feel anxious")),
			models.NewContent(models.ModelTurn("That sounds hard")),
		},
	}))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "You talked about anxiety.", rr.Body.String())
	assert.Equal(t, "user: I feel anxious\nmodel: That sounds hard", model.prompt)
	assert.Equal(t, services.SummaryInstruction, model.instruction)
	assert.True(t, model.deadline)
}

func TestSummaryHandler_EmptyHistoryStillCallsUpstream(t *testing.T) {
	model := &stubModel{reply: "Nothing was discussed yet."}
	h := NewSummaryHandler(model, zap.NewNop(), time.Minute)

	rr := httptest.NewRecorder()
	h.Summarize(rr, postJSON(t, "/summarize", map[string]interface{}{"history": []interface{}{}}))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, "", model.prompt)
}

func TestSummaryHandler_RejectsMultiPartTurns(t *testing.T) {
	model := &stubModel{}
	h := NewSummaryHandler(model, zap.NewNop(), time.Minute)

	rr := httptest.NewRecorder()
	h.Summarize(rr, postJSON(t, "/summarize", models.SummaryRequest{
		History: []models.Content{{Role: "user", Parts: []models.Part{{Text: "a"}, {Text: "b"}}}},
	}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, model.calls)
}

func TestSummaryHandler_UpstreamFailure(t *testing.T) {
	model := &stubModel{err: services.ErrEmptyResponse}
	h := NewSummaryHandler(model, zap.NewNop(), time.Minute)

	rr := httptest.NewRecorder()
	h.Summarize(rr, postJSON(t, "/summarize", models.SummaryRequest{}))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Something went wrong.", rr.Body.String())
}

// ─── JSON Response Tests ───

func TestPersonalities(t *testing.T) {
	rr := httptest.NewRecorder()
	Personalities(rr, httptest.NewRequest(http.MethodGet, "/personalities", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp models.PersonalitiesResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, []string{"Empathetic", "Playful", "Stoic"}, resp.Personalities)
	assert.Equal(t, "Empathetic", resp.Default)
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
