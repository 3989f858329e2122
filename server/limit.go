package server

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"

	"github.com/linanwx/askchat/logger"
)

// questionLimiter truncates questions to a token budget so the prompt fits
// small models.
type questionLimiter struct {
	maxTokens int
	codec     tokenizer.Codec
}

func newQuestionLimiter(maxTokens int) (*questionLimiter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("server: load tokenizer: %w", err)
	}
	return &questionLimiter{maxTokens: maxTokens, codec: codec}, nil
}

// Cap returns the question, truncated if it exceeds the budget, and its
// token count after truncation.
func (l *questionLimiter) Cap(question string) (string, int) {
	ids, _, err := l.codec.Encode(question)
	if err != nil {
		logger.Warn("failed to tokenize question", "err", err)
		return question, 0
	}
	if l.maxTokens <= 0 || len(ids) <= l.maxTokens {
		return question, len(ids)
	}

	truncated, err := l.codec.Decode(ids[:l.maxTokens])
	if err != nil {
		logger.Warn("failed to truncate question", "err", err)
		return question, len(ids)
	}
	logger.Warn("question truncated", "tokens", len(ids), "maxTokens", l.maxTokens)
	return truncated, l.maxTokens
}
