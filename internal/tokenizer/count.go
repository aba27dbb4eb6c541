package tokenizer

import (
	"errors"
	"os"
	"strings"
)

// CountBytes estimates tokens for data, dropping invalid UTF-8 sequences first.
func CountBytes(counter Counter, data []byte) (int, error) {
	if counter == nil {
		return 0, errors.New("nil tokenizer counter")
	}
	return counter.CountString(strings.ToValidUTF8(string(data), ""))
}

// CountFile reads the file at path and estimates its token count.
func CountFile(counter Counter, path string) (int, error) {
	if counter == nil {
		return 0, errors.New("nil tokenizer counter")
	}
	// #nosec G304
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return 0, readErr
	}
	return CountBytes(counter, data)
}
