package builder

import (
	"errors"
	"strings"
	"testing"
)

type failingWriter struct {
	calls int
}

func (writer *failingWriter) Write(data []byte) (int, error) {
	writer.calls++
	return 0, errors.New("disk full")
}

func TestDocumentWriterKeepsFirstFailure(testingInstance *testing.T) {
	destination := &failingWriter{}
	writer := newDocumentWriter(destination)

	writer.writeString("# Project Context for: proj\n\n")
	writer.printf(fileHeaderFormat, "a.py")
	firstFlushError := writer.flush()
	if firstFlushError == nil || !strings.Contains(firstFlushError.Error(), "disk full") {
		testingInstance.Fatalf("expected disk full error, got %v", firstFlushError)
	}

	writtenBeforeRetry := writer.written
	writer.writeString("ignored after failure")
	if writer.written != writtenBeforeRetry {
		testingInstance.Fatalf("writes after a failure must be no-ops, counter moved from %d to %d", writtenBeforeRetry, writer.written)
	}
	if secondFlushError := writer.flush(); !errors.Is(secondFlushError, firstFlushError) {
		testingInstance.Fatalf("expected the first error again, got %v", secondFlushError)
	}
	if destination.calls != 1 {
		testingInstance.Fatalf("expected one write attempt, got %d", destination.calls)
	}
}
