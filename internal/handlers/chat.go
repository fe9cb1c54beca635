package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"clarity-backend/internal/models"
	"clarity-backend/internal/personality"
)

type chatModel interface {
	Chat(ctx context.Context, instruction string, history []models.Turn, message string) (string, error)
}

type ChatHandler struct {
	model   chatModel
	logger  *zap.Logger
	timeout time.Duration
}

func NewChatHandler(model chatModel, logger *zap.Logger, timeout time.Duration) *ChatHandler {
	return &ChatHandler{
		model:   model,
		logger:  logger,
		timeout: timeout,
	}
}

// Chat relays one user message, with the prior turns, to the model and
// answers with the raw model text.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		handleInputError(w, r, h.logger, err)
		return
	}

	history, err := req.Validate()
	if err != nil {
		handleInputError(w, r, h.logger, err)
		return
	}

	p := personality.Resolve(req.Personality)

	log := h.logger.With(
		zap.String("request_id", requestID(r)),
		zap.String("personality", p.Label()),
	)
	log.Info("Incoming chat request",
		zap.String("message", req.Message),
		zap.Int("history_turns", len(history)),
	)
	log.Debug("Chat history", zap.Any("history", history))

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reply, err := h.model.Chat(ctx, p.Instruction(), history, req.Message)
	if err != nil {
		log.Error("Upstream model call failed", zap.Error(err))
		writeText(w, http.StatusInternalServerError, models.MsgUpstreamFailure)
		return
	}

	log.Info("Chat reply", zap.String("reply", reply))
	writeText(w, http.StatusOK, reply)
}
