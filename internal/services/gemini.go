package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"clarity-backend/internal/models"
)

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = errors.New("model returned no text")

type GeminiService struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
	rateChan  chan struct{} // Token bucket
}

func NewGeminiService(apiKey, modelName string, concurrentReqs int, logger *zap.Logger) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiService{
		client:    client,
		modelName: modelName,
		logger:    logger,
		rateChan:  newRateChan(concurrentReqs),
	}, nil
}

func newRateChan(concurrentReqs int) chan struct{} {
	if concurrentReqs < 1 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}
	return rateChan
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// newModel returns a model handle conditioned by the given system instruction.
// Handles are cheap and never shared between requests.
func (s *GeminiService) newModel(instruction string) *genai.GenerativeModel {
	model := s.client.GenerativeModel(s.modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(instruction)}}
	return model
}

// startChat rebuilds a chat session by replaying history in order.
func (s *GeminiService) startChat(instruction string, history []models.Turn) *genai.ChatSession {
	cs := s.newModel(instruction).StartChat()
	cs.History = toGenaiHistory(history)
	return cs
}

// Chat replays history into a fresh session and sends message as the next turn.
func (s *GeminiService) Chat(ctx context.Context, instruction string, history []models.Turn, message string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	cs := s.startChat(instruction, history)

	s.logger.Debug("Gemini chat request",
		zap.String("model", s.modelName),
		zap.Int("history_turns", len(cs.History)),
	)

	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	s.logCandidates(resp)

	text := extractText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// ChatStream is Chat with incremental delivery. onChunk receives each piece
// of text as it arrives; returning an error from it aborts the stream.
// The full concatenated text is returned on success.
func (s *GeminiService) ChatStream(ctx context.Context, instruction string, history []models.Turn, message string, onChunk func(string) error) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	cs := s.startChat(instruction, history)
	iter := cs.SendMessageStream(ctx, genai.Text(message))

	var full strings.Builder
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("Gemini stream error: %w", err)
		}

		chunk := extractText(resp)
		if chunk == "" {
			continue
		}
		full.WriteString(chunk)
		if err := onChunk(chunk); err != nil {
			return "", fmt.Errorf("stream consumer: %w", err)
		}
	}

	if full.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return full.String(), nil
}

// Generate sends a single prompt with no session state.
func (s *GeminiService) Generate(ctx context.Context, instruction, prompt string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	resp, err := s.newModel(instruction).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	s.logCandidates(resp)

	text := extractText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (s *GeminiService) logCandidates(resp *genai.GenerateContentResponse) {
	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			s.logger.Warn("Gemini stopped early",
				zap.Int("candidate", i),
				zap.String("finish_reason", cand.FinishReason.String()),
			)
		}
	}
}

// Helper functions

func toGenaiHistory(turns []models.Turn) []*genai.Content {
	return lo.Map(turns, func(t models.Turn, _ int) *genai.Content {
		return &genai.Content{
			Role:  string(t.Role),
			Parts: []genai.Part{genai.Text(t.Text)},
		}
	})
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
