// Package clipboard places generated context documents on the system clipboard.
package clipboard

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

const (
	errorReadDocumentFormat = "read document %s for clipboard: %w"
	documentSeparator       = "\n"
)

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a Clipboard service implementation.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	return clipboard.WriteAll(text)
}

// CopyDocuments reads the documents in order and hands their joined text to copier.
// Nothing is copied when any document cannot be read.
func CopyDocuments(copier Copier, documentPaths ...string) error {
	documentTexts := make([]string, 0, len(documentPaths))
	for _, documentPath := range documentPaths {
		// #nosec G304
		documentBytes, readError := os.ReadFile(documentPath)
		if readError != nil {
			return fmt.Errorf(errorReadDocumentFormat, documentPath, readError)
		}
		documentTexts = append(documentTexts, string(documentBytes))
	}
	return copier.Copy(strings.Join(documentTexts, documentSeparator))
}

var _ Copier = (*Service)(nil)
