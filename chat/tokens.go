package chat

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tokensPerMessage is the fixed framing overhead of one chat message.
const tokensPerMessage = 3

var (
	tokenizerCache   = make(map[string]*tiktoken.Tiktoken)
	tokenizerCacheMu sync.Mutex
)

// getTokenizer returns a cached encoder for model, falling back to
// cl100k_base for unknown models.
func getTokenizer(model string) (*tiktoken.Tiktoken, error) {
	tokenizerCacheMu.Lock()
	defer tokenizerCacheMu.Unlock()

	if tkm, ok := tokenizerCache[model]; ok {
		return tkm, nil
	}
	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tkm, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	tokenizerCache[model] = tkm
	return tkm, nil
}

// CountTokens estimates the tokens in text. Without an encoder it assumes
// four bytes per token.
func CountTokens(text, model string) int {
	if tkm, err := getTokenizer(model); err == nil {
		return len(tkm.Encode(text, nil, nil))
	}
	return (len(text) + 3) / 4
}

// messageTokens estimates the cost of m inside a conversation.
func messageTokens(m Message, model string) int {
	return tokensPerMessage + CountTokens(string(m.Role), model) + CountTokens(m.Content, model)
}

// trimHistory keeps the newest messages whose estimated cost fits budget.
// budget <= 0 keeps everything.
func trimHistory(history []Message, budget int, model string) []Message {
	if budget <= 0 {
		return history
	}
	used := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		cost := messageTokens(history[i], model)
		if used+cost > budget {
			break
		}
		used += cost
		start = i
	}
	return history[start:]
}
