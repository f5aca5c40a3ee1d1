package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQuotaExceeded is returned when the model provider rejects a request
	// for rate limit or billing reasons.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrMaxTurns is returned when the model keeps requesting tools past the
	// turn limit.
	ErrMaxTurns = errors.New("max turns exceeded")
	// ErrGeneric marks any other failure surfaced to chat users.
	ErrGeneric = errors.New("chat failed")
)

// QuotaMessage is the user-facing text for ErrQuotaExceeded.
const QuotaMessage = "API quota exceeded. Please try again later or check your API key."

const maxErrorChars = 200

func isQuotaError(text string) bool {
	return strings.Contains(text, "429") ||
		strings.Contains(text, "RateLimitError") ||
		strings.Contains(strings.ToLower(text), "quota")
}

func wrapProviderError(err error) error {
	if isQuotaError(err.Error()) {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return fmt.Errorf("chat error: %w", err)
}

// ClassifyError maps a failure to its kind and the message shown to users.
func ClassifyError(err error) (error, string) {
	if err == nil {
		return nil, ""
	}
	if errors.Is(err, ErrQuotaExceeded) || isQuotaError(err.Error()) {
		return ErrQuotaExceeded, QuotaMessage
	}
	return ErrGeneric, "Error: " + truncate(err.Error(), maxErrorChars)
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
