// Package ai wraps the Gemini API into the plain text-in/text-out contract
// the chat mode needs.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"lectorium/core/logger"
)

// Telegram rejects messages longer than 4096 characters; replies are trimmed
// a bit below that.
const maxReplyLen = 4000

// Client is a thin Gemini wrapper for single-turn prompts.
type Client struct {
	gen   *genai.Client
	model string
}

// New connects to the Gemini API. The model name comes from configuration.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("ai: client init failed: %w", err)
	}
	return &Client{gen: client, model: model}, nil
}

// Reply sends one prompt and returns the model's text answer, trimmed to a
// Telegram-sized message.
func (c *Client) Reply(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := c.gen.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("ai: generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("ai: empty response")
	}

	logger.AI.Debug("reply generated",
		slog.String("event", "ai.reply"),
		slog.String("model", c.model),
		slog.Int("len", len(text)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return trimReply(text), nil
}

func trimReply(text string) string {
	if len(text) <= maxReplyLen {
		return text
	}
	return text[:maxReplyLen] + "..."
}
