// Package chat holds a conversation with a chat-completion API and folds
// crawled documentation into the user's turn before it is sent.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"
)

// Role is the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// Request is a single completion call.
type Request struct {
	APIKey      string
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Completer calls a chat-completion endpoint.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// APIError is a completion call rejected with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API request failed: %d", e.StatusCode)
	}
	return fmt.Sprintf("API request failed: %d: %s", e.StatusCode, e.Message)
}

// OpenAICompleter implements Completer with the OpenAI chat completions API.
type OpenAICompleter struct {
	client openai.Client
	log    zerolog.Logger
}

// NewOpenAICompleter creates an OpenAICompleter. baseURL may be empty to use
// the default endpoint.
func NewOpenAICompleter(baseURL string, log zerolog.Logger, extra ...option.RequestOption) *OpenAICompleter {
	var opts []option.RequestOption
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)
	return &OpenAICompleter{
		client: openai.NewClient(opts...),
		log:    log.With().Str("provider", "openai").Logger(),
	}
}

// Complete sends req and returns the first choice's text.
func (c *OpenAICompleter) Complete(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params, option.WithAPIKey(req.APIKey))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			c.log.Warn().Int("status", apiErr.StatusCode).Str("model", req.Model).Msg("Chat completion rejected")
			return "", &APIError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyReply
	}
	return content, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
