// Package client talks to the relay endpoints over HTTP and WebSocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"clarity-backend/internal/models"
)

// StatusError is returned when the relay answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay returned %d: %s", e.Code, e.Body)
}

// StreamError is an error frame received on the chat stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string { return "relay stream error: " + e.Message }

type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		dialer: &websocket.Dialer{
			HandshakeTimeout: timeout,
		},
	}
}

// Chat posts a chat request and returns the raw reply text.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (string, error) {
	return c.postText(ctx, "/chat", req)
}

// Summarize posts the whole session and returns the summary text.
func (c *Client) Summarize(ctx context.Context, req models.SummaryRequest) (string, error) {
	if req.History == nil {
		req.History = []models.Content{}
	}
	return c.postText(ctx, "/summarize", req)
}

// Personalities fetches the selectable labels.
func (c *Client) Personalities(ctx context.Context) (*models.PersonalitiesResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/personalities", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var out models.PersonalitiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding personalities: %w", err)
	}
	return &out, nil
}

func (c *Client) postText(ctx context.Context, path string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling relay: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return "", &StatusError{Code: resp.StatusCode, Body: string(text)}
	}
	return string(text), nil
}

// ChatStream sends the request over the stream socket and calls onChunk for
// every chunk frame. It returns the full text from the done frame.
func (c *Client) ChatStream(ctx context.Context, req models.ChatRequest, onChunk func(string)) (string, error) {
	wsURL, err := streamURL(c.baseURL)
	if err != nil {
		return "", err
	}

	conn, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return "", fmt.Errorf("dialing relay stream: %w", err)
	}
	defer conn.Close()

	// Unblock the read loop when ctx ends.
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := conn.WriteJSON(req); err != nil {
		return "", fmt.Errorf("sending stream request: %w", err)
	}

	for {
		var frame models.StreamFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("reading stream: %w", err)
		}

		switch frame.Type {
		case models.FrameChunk:
			if onChunk != nil {
				onChunk(frame.Text)
			}
		case models.FrameDone:
			return frame.Text, nil
		case models.FrameError:
			return "", &StreamError{Message: frame.Message}
		default:
			return "", errors.New("unexpected stream frame type " + frame.Type)
		}
	}
}

func streamURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing relay URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/chat/stream"
	return u.String(), nil
}
