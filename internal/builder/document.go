package builder

import (
	"bufio"
	"fmt"
	"io"
)

// documentWriter buffers the Markdown document and keeps the first write failure.
// Once a write fails every later call is a no-op and err reports the failure.
type documentWriter struct {
	buffered *bufio.Writer
	written  int64
	err      error
}

func newDocumentWriter(destination io.Writer) *documentWriter {
	return &documentWriter{buffered: bufio.NewWriter(destination)}
}

func (writer *documentWriter) writeString(text string) {
	if writer.err != nil {
		return
	}
	bytesWritten, writeError := writer.buffered.WriteString(text)
	writer.written += int64(bytesWritten)
	writer.err = writeError
}

func (writer *documentWriter) printf(format string, arguments ...any) {
	writer.writeString(fmt.Sprintf(format, arguments...))
}

func (writer *documentWriter) flush() error {
	if writer.err != nil {
		return writer.err
	}
	writer.err = writer.buffered.Flush()
	return writer.err
}
