package models

// Frame types sent over the chat stream socket.
const (
	FrameChunk = "chunk"
	FrameDone  = "done"
	FrameError = "error"
)

// StreamFrame is one server-to-client message on the chat stream.
type StreamFrame struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
}

// PersonalitiesResponse lists the selectable personality labels.
type PersonalitiesResponse struct {
	Personalities []string `json:"personalities"`
	Default       string   `json:"default"`
}
