package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"clarity-backend/internal/middleware"
	"clarity-backend/internal/models"
)

const maxBodyBytes = 1 << 20

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

// decodeBody reads a JSON body of bounded size into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// handleInputError writes a 400 for validation problems and malformed bodies.
func handleInputError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		logger.Info("Rejected invalid input",
			zap.String("request_id", requestID(r)),
			zap.String("reason", vErr.Error()),
		)
		writeText(w, http.StatusBadRequest, vErr.Error())
		return
	}

	logger.Info("Rejected malformed body",
		zap.String("request_id", requestID(r)),
		zap.Error(err),
	)
	writeText(w, http.StatusBadRequest, models.MsgInvalidBody)
}

func requestID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}
