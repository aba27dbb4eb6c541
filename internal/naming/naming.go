// Package naming chooses output file names for generated context documents.
package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// DefaultDirectory is where generated documents are written when no directory is configured.
	DefaultDirectory = "output"

	dateLayout         = "20060102"
	fileNameFormat     = "%s_%s-%d.md"
	fallbackBaseName   = "root"
	errorProbeFormat   = "probe output candidate %s: %w"
	errorEmptyBaseName = "directory name is empty"
)

// Strategy yields the output path for a project directory.
type Strategy interface {
	Next(directoryName string) (string, error)
}

// DatedSequence names documents <base>_<YYYYMMDD>-<n>.md inside Directory,
// picking the smallest n not already present on disk or issued earlier by the
// same sequence.
type DatedSequence struct {
	Directory string
	Clock     func() time.Time
	Exists    func(path string) (bool, error)

	mutex  sync.Mutex
	issued map[string]struct{}
}

// NewDatedSequence returns a DatedSequence that probes the real filesystem.
func NewDatedSequence(directory string) *DatedSequence {
	if directory == "" {
		directory = DefaultDirectory
	}
	return &DatedSequence{
		Directory: directory,
		Clock:     time.Now,
		Exists:    PathExists,
	}
}

// Next returns the first free candidate for directoryName.
func (sequence *DatedSequence) Next(directoryName string) (string, error) {
	if directoryName == "" {
		return "", errors.New(errorEmptyBaseName)
	}
	sequence.mutex.Lock()
	defer sequence.mutex.Unlock()

	clock := sequence.Clock
	if clock == nil {
		clock = time.Now
	}
	exists := sequence.Exists
	if exists == nil {
		exists = PathExists
	}
	if sequence.issued == nil {
		sequence.issued = make(map[string]struct{})
	}

	baseName := BaseName(directoryName)
	dateStamp := clock().Format(dateLayout)
	for counter := 1; ; counter++ {
		candidate := filepath.Join(sequence.Directory, fmt.Sprintf(fileNameFormat, baseName, dateStamp, counter))
		if _, alreadyIssued := sequence.issued[candidate]; alreadyIssued {
			continue
		}
		present, probeError := exists(candidate)
		if probeError != nil {
			return "", fmt.Errorf(errorProbeFormat, candidate, probeError)
		}
		if !present {
			sequence.issued[candidate] = struct{}{}
			return candidate, nil
		}
	}
}

// BaseName returns the final element of directoryName for use in a file name.
// Filesystem roots have no usable final element and map to "root".
func BaseName(directoryName string) string {
	baseName := filepath.Base(filepath.Clean(directoryName))
	if baseName == "." || baseName == string(filepath.Separator) || baseName == filepath.VolumeName(directoryName)+string(filepath.Separator) {
		return fallbackBaseName
	}
	return baseName
}

// PathExists reports whether path is present on disk.
func PathExists(path string) (bool, error) {
	_, statError := os.Stat(path)
	if statError == nil {
		return true, nil
	}
	if errors.Is(statError, fs.ErrNotExist) {
		return false, nil
	}
	return false, statError
}

var _ Strategy = (*DatedSequence)(nil)
