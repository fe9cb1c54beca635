package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"clarity-backend/internal/models"
	"clarity-backend/internal/services"
)

type summaryModel interface {
	Generate(ctx context.Context, instruction, prompt string) (string, error)
}

type SummaryHandler struct {
	model   summaryModel
	logger  *zap.Logger
	timeout time.Duration
}

func NewSummaryHandler(model summaryModel, logger *zap.Logger, timeout time.Duration) *SummaryHandler {
	return &SummaryHandler{
		model:   model,
		logger:  logger,
		timeout: timeout,
	}
}

// Summarize flattens the supplied history into one prompt and asks for a
// one-shot summary. An empty history still produces a call.
func (h *SummaryHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req models.SummaryRequest
	if err := decodeBody(w, r, &req); err != nil {
		handleInputError(w, r, h.logger, err)
		return
	}

	history, err := models.DecodeHistory(req.History)
	if err != nil {
		handleInputError(w, r, h.logger, err)
		return
	}

	prompt := services.BuildSummaryPrompt(history)

	log := h.logger.With(zap.String("request_id", requestID(r)))
	log.Info("Incoming summary request", zap.Int("history_turns", len(history)))
	log.Debug("Summary prompt", zap.String("prompt", prompt))

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summary, err := h.model.Generate(ctx, services.SummaryInstruction, prompt)
	if err != nil {
		log.Error("Upstream model call failed", zap.Error(err))
		writeText(w, http.StatusInternalServerError, models.MsgUpstreamFailure)
		return
	}

	log.Info("Summary reply", zap.String("summary", summary))
	writeText(w, http.StatusOK, summary)
}
