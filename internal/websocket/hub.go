package websocket

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"clarity-backend/internal/middleware"
	"clarity-backend/internal/models"
	"clarity-backend/internal/personality"
)

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type streamModel interface {
	ChatStream(ctx context.Context, instruction string, history []models.Turn, message string, onChunk func(string) error) (string, error)
}

// Hub serves the chat stream socket. Each connection carries exactly one
// exchange: a ChatRequest in, chunk frames out, then a done or error frame.
type Hub struct {
	model   streamModel
	logger  *zap.Logger
	timeout time.Duration
}

func NewHub(model streamModel, logger *zap.Logger, timeout time.Duration) *Hub {
	return &Hub{
		model:   model,
		logger:  logger,
		timeout: timeout,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := h.logger.With(zap.String("request_id", middleware.GetRequestID(r.Context())))

	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(h.timeout))

	var req models.ChatRequest
	if err := conn.ReadJSON(&req); err != nil {
		log.Info("Rejected malformed stream request", zap.Error(err))
		h.closeWith(conn, models.StreamFrame{Type: models.FrameError, Message: models.MsgInvalidBody}, websocket.CloseUnsupportedData)
		return
	}

	history, err := req.Validate()
	if err != nil {
		var vErr *models.ValidationError
		msg := models.MsgInvalidBody
		if errors.As(err, &vErr) {
			msg = vErr.Error()
		}
		log.Info("Rejected invalid stream request", zap.String("reason", msg))
		h.closeWith(conn, models.StreamFrame{Type: models.FrameError, Message: msg}, websocket.ClosePolicyViolation)
		return
	}

	p := personality.Resolve(req.Personality)
	log = log.With(zap.String("personality", p.Label()))
	log.Info("Incoming stream request",
		zap.String("message", req.Message),
		zap.Int("history_turns", len(history)),
	)

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	full, err := h.model.ChatStream(ctx, p.Instruction(), history, req.Message, func(chunk string) error {
		return writeFrame(conn, models.StreamFrame{Type: models.FrameChunk, Text: chunk})
	})
	if err != nil {
		log.Error("Upstream model stream failed", zap.Error(err))
		h.closeWith(conn, models.StreamFrame{Type: models.FrameError, Message: models.MsgUpstreamFailure}, websocket.CloseInternalServerErr)
		return
	}

	log.Info("Stream reply", zap.String("reply", full))
	h.closeWith(conn, models.StreamFrame{Type: models.FrameDone, Text: full}, websocket.CloseNormalClosure)
}

func writeFrame(conn *websocket.Conn, frame models.StreamFrame) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(frame)
}

// closeWith sends a final frame followed by a close message.
func (h *Hub) closeWith(conn *websocket.Conn, frame models.StreamFrame, code int) {
	if err := writeFrame(conn, frame); err != nil {
		h.logger.Debug("Failed to write final frame", zap.Error(err))
		return
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, ""),
		time.Now().Add(writeWait))
}
