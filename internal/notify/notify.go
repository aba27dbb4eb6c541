// Package notify reports the outcome of context builds to the user.
package notify

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/contextmd/internal/builder"
)

const (
	successMessageFormat       = "Context file saved successfully to: %s\n"
	tokenEstimateFormat        = "Estimated tokens (%s): %d\n"
	failureLogMessage          = "failed to build context"
	documentWrittenMessage     = "context document written"
	tokenEstimateFailedMessage = "token estimate unavailable"
)

// TokenEstimate describes an optional token count attached to a successful build.
type TokenEstimate struct {
	Encoding string
	Tokens   int
}

// Notifier receives build outcomes.
type Notifier interface {
	Success(report builder.Report, estimate *TokenEstimate)
	Failure(rootDirectory string, err error)
}

// Console prints successes to a writer and logs failures.
type Console struct {
	writer io.Writer
	logger *zap.Logger
}

// NewConsole constructs a Console notifier.
func NewConsole(writer io.Writer, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{writer: writer, logger: logger}
}

// Success prints the document location and, when present, the token estimate.
func (console *Console) Success(report builder.Report, estimate *TokenEstimate) {
	fmt.Fprintf(console.writer, successMessageFormat, report.OutputPath)
	if estimate != nil {
		fmt.Fprintf(console.writer, tokenEstimateFormat, estimate.Encoding, estimate.Tokens)
	}
	console.logger.Debug(documentWrittenMessage,
		zap.String("path", report.OutputPath),
		zap.Int64("bytes", report.Bytes),
		zap.Int("listed", report.ListedFiles),
		zap.Int("included", report.IncludedFiles))
	if report.UnreadableFiles > 0 {
		console.logger.Warn("some files could not be read",
			zap.String("path", report.OutputPath),
			zap.Int("unreadable", report.UnreadableFiles))
	}
}

// Failure logs a failed build for rootDirectory.
func (console *Console) Failure(rootDirectory string, err error) {
	console.logger.Error(failureLogMessage, zap.String("directory", rootDirectory), zap.Error(err))
}

// TokenEstimateFailure logs that the token estimate for a document could not be computed.
func (console *Console) TokenEstimateFailure(documentPath string, err error) {
	console.logger.Warn(tokenEstimateFailedMessage, zap.String("path", documentPath), zap.Error(err))
}

var _ Notifier = (*Console)(nil)
