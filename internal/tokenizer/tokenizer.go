// Package tokenizer estimates how many model tokens a generated document costs.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

const (
	defaultModel        = "gpt-4o"
	defaultEncodingName = "cl100k_base"
	errorLoadEncoding   = "load %s encoding: %w"
	errorNilEncoding    = "nil tiktoken encoding"
)

// encodingCounter counts tokens with one tiktoken encoding.
type encodingCounter struct {
	encoding     *tiktoken.Tiktoken
	encodingName string
}

// Name returns the tiktoken encoding name, for example "o200k_base".
func (counter encodingCounter) Name() string {
	return counter.encodingName
}

func (counter encodingCounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errors.New(errorNilEncoding)
	}
	return len(counter.encoding.Encode(input, nil, nil)), nil
}

// NewCounter returns a Counter for the requested model together with the name of
// the encoding it uses. Models tiktoken does not know fall back to cl100k_base.
func NewCounter(model string) (Counter, string, error) {
	resolvedModel := strings.ToLower(strings.TrimSpace(model))
	if resolvedModel == "" {
		resolvedModel = defaultModel
	}
	encodingName := EncodingNameForModel(resolvedModel)

	encoding, encodingError := tiktoken.GetEncoding(encodingName)
	if encodingError != nil {
		return nil, "", fmt.Errorf(errorLoadEncoding, encodingName, encodingError)
	}
	return encodingCounter{encoding: encoding, encodingName: encodingName}, encodingName, nil
}

// EncodingNameForModel maps a model name to its tiktoken encoding by exact name,
// then by the longest known prefix, then to cl100k_base.
func EncodingNameForModel(model string) string {
	if encodingName, known := tiktoken.MODEL_TO_ENCODING[model]; known {
		return encodingName
	}
	matchedPrefix := ""
	encodingName := defaultEncodingName
	for prefix, prefixEncoding := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(matchedPrefix) {
			matchedPrefix = prefix
			encodingName = prefixEncoding
		}
	}
	return encodingName
}
