package utils

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used by gpt-3.5/gpt-4 class models
const DefaultEncoding = "cl100k_base"

// ErrTokenizerUnavailable is returned when the encoding cannot be loaded or
// a document cannot be encoded
var ErrTokenizerUnavailable = errors.New("tokenizer unavailable")

// Tokenizer counts model tokens in a document
type Tokenizer interface {
	Count(text string) (int, error)
}

// TokenizerFunc adapts a plain function to Tokenizer
type TokenizerFunc func(text string) (int, error)

func (f TokenizerFunc) Count(text string) (int, error) {
	return f(text)
}

// TiktokenCounter counts tokens with a tiktoken encoding. The encoding is
// loaded on first use; a failed load is retried on the next call.
type TiktokenCounter struct {
	encoding string

	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter returns a counter for encoding, DefaultEncoding when
// empty
func NewTiktokenCounter(encoding string) *TiktokenCounter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &TiktokenCounter{encoding: encoding}
}

// Encoding returns the configured encoding name
func (c *TiktokenCounter) Encoding() string {
	return c.encoding
}

func (c *TiktokenCounter) Count(text string) (n int, err error) {
	enc, err := c.load()
	if err != nil {
		return 0, err
	}
	if text == "" {
		return 0, nil
	}

	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: encode failed: %v", ErrTokenizerUnavailable, r)
		}
	}()

	return len(enc.Encode(text, nil, nil)), nil
}

func (c *TiktokenCounter) load() (*tiktoken.Tiktoken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enc != nil {
		return c.enc, nil
	}

	enc, err := tiktoken.GetEncoding(c.encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load encoding %s: %v", ErrTokenizerUnavailable, c.encoding, err)
	}
	c.enc = enc
	return enc, nil
}

// FormatTokenCount formats the token count for display
func FormatTokenCount(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("~%d tokens", tokens)
	} else if tokens < 10000 {
		return fmt.Sprintf("~%.1fK tokens", float64(tokens)/1000)
	} else {
		return fmt.Sprintf("~%.0fK tokens", float64(tokens)/1000)
	}
}

// GetTokenLimitStatus returns the status based on common LLM limits
func GetTokenLimitStatus(tokens int) (percentage int, limit int, status string) {
	// Common limits: 4K, 8K, 16K, 32K, 128K
	limits := []int{4096, 8192, 16384, 32768, 131072}

	// Find the smallest limit that can accommodate the tokens
	selectedLimit := limits[len(limits)-1] // Default to largest
	for _, l := range limits {
		if tokens <= l {
			selectedLimit = l
			break
		}
	}

	percentage = (tokens * 100) / selectedLimit

	// Determine status based on percentage of selected limit
	if percentage < 50 {
		status = "good"
	} else if percentage < 80 {
		status = "warning"
	} else {
		status = "danger"
	}

	return percentage, selectedLimit, status
}
