package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gaurav-prasanna/docpipe/core"
	"github.com/gaurav-prasanna/docpipe/core/render"
	"github.com/gaurav-prasanna/docpipe/crawl"
	"github.com/rs/zerolog"
)

const (
	DefaultModel         = "gpt-3.5-turbo"
	DefaultMaxTokens     = 1000
	DefaultTemperature   = 0.7
	DefaultHistoryTokens = 3000
	DefaultSystemPrompt  = "You are a helpful tech support assistant. Help users troubleshoot technical issues, explain errors, and provide solutions. " +
		"When documentation content is included in a message, base your answer on it and say when a page could not be read."
)

// documentationHeader separates the user's text from the crawl addendum.
const documentationHeader = "\n\nDocumentation content:\n"

var (
	// ErrNoAPIKey is returned by Send before a key has been provided.
	ErrNoAPIKey = errors.New("no API key configured")
	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("empty message")
	// ErrEmptyReply is returned when the API answers with no text.
	ErrEmptyReply = errors.New("empty response from AI")
)

// Config controls a chat Session.
type Config struct {
	APIKey        string  `yaml:"api_key"`
	BaseURL       string  `yaml:"base_url"`
	Model         string  `yaml:"model"`
	SystemPrompt  string  `yaml:"system_prompt"`
	MaxTokens     int     `yaml:"max_tokens"`
	Temperature   float64 `yaml:"temperature"`
	HistoryTokens int     `yaml:"history_tokens"`
}

// WithDefaults fills zero fields.
func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultModel
	}
	if strings.TrimSpace(c.SystemPrompt) == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.HistoryTokens == 0 {
		c.HistoryTokens = DefaultHistoryTokens
	}
	return c
}

// Crawler is the part of the pipeline a Session uses.
type Crawler interface {
	Crawl(ctx context.Context, urls []string) (*core.CrawlSummary, error)
}

// KeySaver persists an API key pasted into the conversation.
type KeySaver interface {
	Set(secret string) error
}

// Reply is the outcome of one Send.
type Reply struct {
	Text string
	// KeyStored is set when the message was an API key and nothing was sent.
	KeyStored bool
	// Summary is the crawl of URLs found in the message, if any.
	Summary *core.CrawlSummary
}

// Session is one conversation. It is safe for concurrent use, though turns
// are serialized.
type Session struct {
	cfg       Config
	crawler   Crawler
	completer Completer
	keys      KeySaver
	log       zerolog.Logger

	mu      sync.Mutex
	apiKey  string
	history []Message
}

// NewSession creates a Session. keys may be nil.
func NewSession(cfg Config, crawler Crawler, completer Completer, keys KeySaver, log zerolog.Logger) *Session {
	cfg = cfg.WithDefaults()
	return &Session{
		cfg:       cfg,
		crawler:   crawler,
		completer: completer,
		keys:      keys,
		log:       log.With().Str("component", "chat").Logger(),
		apiKey:    strings.TrimSpace(cfg.APIKey),
	}
}

// LooksLikeAPIKey reports whether text is an OpenAI-style secret key.
func LooksLikeAPIKey(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasPrefix(text, "sk-") && len(text) > 20 && !strings.ContainsAny(text, " \t\n")
}

// HasAPIKey reports whether a key is available.
func (s *Session) HasAPIKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKey != ""
}

// SetAPIKey replaces the key used for completions.
func (s *Session) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = strings.TrimSpace(key)
}

// History returns a copy of the recorded turns.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.history...)
}

// Reset clears the conversation history.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// Send processes one user message. A pasted API key is stored instead of
// sent. URLs in the message are crawled and their content appended before
// the turn goes to the completer.
func (s *Session) Send(ctx context.Context, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if LooksLikeAPIKey(text) {
		s.apiKey = text
		if s.keys != nil {
			if err := s.keys.Set(text); err != nil {
				return nil, fmt.Errorf("saving API key: %w", err)
			}
		}
		s.log.Info().Msg("API key stored")
		return &Reply{Text: "API key saved. You can now start chatting.", KeyStored: true}, nil
	}
	if s.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	reply := &Reply{}
	content := text
	if urls := crawl.ExtractURLs(text); len(urls) > 0 {
		summary, err := s.crawler.Crawl(ctx, urls)
		if err != nil {
			s.log.Warn().Err(err).Strs("urls", urls).Msg("Skipping documentation crawl")
		} else {
			reply.Summary = summary
			content += documentationHeader + render.Prompt(summary)
		}
	}

	userMsg := Message{Role: RoleUser, Content: content}
	messages := make([]Message, 0, len(s.history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: s.cfg.SystemPrompt})
	messages = append(messages, trimHistory(s.history, s.cfg.HistoryTokens, s.cfg.Model)...)
	messages = append(messages, userMsg)

	answer, err := s.completer.Complete(ctx, Request{
		APIKey:      s.apiKey,
		Model:       s.cfg.Model,
		Messages:    messages,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	s.history = append(s.history, userMsg, Message{Role: RoleAssistant, Content: answer})
	reply.Text = answer
	return reply, nil
}
