// Package builder renders a directory tree and the text of recognized source
// files into a single Markdown document suitable for an LLM prompt.
//
// A build is synchronous and single-threaded. The only fatal failures are the
// ones that affect the output document itself; an input file that cannot be
// read is replaced by an inline note and the build carries on.
package builder

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/contextmd/internal/utils"
)

const (
	titleFormat          = "# Project Context for: %s\n\n"
	structureOpening     = "## Directory Structure\n\n```text\n"
	structureClosing     = "```\n\n"
	contentsOpening      = "---\n\n## File Contents\n\n"
	fileHeaderFormat     = "### 📄 **File:** `%s`\n\n"
	fenceOpeningFormat   = "```%s\n"
	fenceClosing         = "\n```\n\n---\n\n"
	readErrorFormat      = "Error reading file: %v"
	indentUnit           = "    "
	directoryBranch      = "└── "
	fileBranch           = "├── "
	directoryLineFormat  = "%s%s%s/\n"
	fileLineFormat       = "%s%s%s\n"
	rootLineFormat       = "%s/\n"
	windowsLineBreak     = "\r\n"
	carriageReturn       = "\r"
	lineFeed             = "\n"
	errorResolveRoot     = "resolve root directory %s: %w"
	errorStatRoot        = "inspect root directory %s: %w"
	errorRootNotDir      = "root path %s is not a directory"
	errorResolveOutput   = "resolve output path %s: %w"
	errorCreateOutput    = "create output %s: %w"
	errorWriteOutput     = "write output %s: %w"
	errorCloseOutput     = "close output %s: %w"
	warningReadDirectory = "skipping unreadable directory"
	warningReadFile      = "embedding read error placeholder"
	warningStatLink      = "skipping unresolvable symbolic link"
)

// Options tunes a Builder. Zero values select the fixed default lists and a no-op logger.
// ReservedPaths names documents written by concurrent builds; the walk never lists them.
type Options struct {
	Denylist      []string
	Allowlist     []string
	ReservedPaths []string
	Logger        *zap.Logger
}

// Report summarizes a successful build.
type Report struct {
	RootName        string
	OutputPath      string
	ListedFiles     int
	IncludedFiles   int
	UnreadableFiles int
	Bytes           int64
}

// Builder writes project context documents.
type Builder struct {
	denylist  map[string]struct{}
	allowlist []string
	reserved  map[string]struct{}
	logger    *zap.Logger
}

// New constructs a Builder from options.
func New(options Options) *Builder {
	denylist := options.Denylist
	if denylist == nil {
		denylist = DefaultDenylist
	}
	allowlist := options.Allowlist
	if allowlist == nil {
		allowlist = DefaultAllowlist
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	deniedNames := make(map[string]struct{}, len(denylist))
	for _, directoryName := range denylist {
		deniedNames[directoryName] = struct{}{}
	}
	reservedPaths := make(map[string]struct{}, len(options.ReservedPaths))
	for _, reservedPath := range options.ReservedPaths {
		if absoluteReserved, absoluteError := filepath.Abs(reservedPath); absoluteError == nil {
			reservedPaths[absoluteReserved] = struct{}{}
		}
	}
	return &Builder{
		denylist:  deniedNames,
		allowlist: append([]string(nil), allowlist...),
		reserved:  reservedPaths,
		logger:    logger,
	}
}

// Build writes the context document for rootDirectory to outputPath using the default lists.
func Build(rootDirectory, outputPath string) (Report, error) {
	return New(Options{}).Build(rootDirectory, outputPath)
}

// Build writes the context document for rootDirectory to outputPath,
// overwriting any existing file. A non-nil error carries the failure reason;
// a partially written document may remain on disk in that case.
func (builder *Builder) Build(rootDirectory, outputPath string) (report Report, err error) {
	absoluteRoot, absoluteRootError := filepath.Abs(rootDirectory)
	if absoluteRootError != nil {
		return Report{}, fmt.Errorf(errorResolveRoot, rootDirectory, absoluteRootError)
	}
	rootInfo, rootStatError := os.Stat(absoluteRoot)
	if rootStatError != nil {
		return Report{}, fmt.Errorf(errorStatRoot, rootDirectory, rootStatError)
	}
	if !rootInfo.IsDir() {
		return Report{}, fmt.Errorf(errorRootNotDir, rootDirectory)
	}
	absoluteOutput, absoluteOutputError := filepath.Abs(outputPath)
	if absoluteOutputError != nil {
		return Report{}, fmt.Errorf(errorResolveOutput, outputPath, absoluteOutputError)
	}

	// #nosec G304
	outputFile, createError := os.Create(absoluteOutput)
	if createError != nil {
		return Report{}, fmt.Errorf(errorCreateOutput, outputPath, createError)
	}
	defer func() {
		if closeError := outputFile.Close(); closeError != nil && err == nil {
			err = fmt.Errorf(errorCloseOutput, outputPath, closeError)
		}
	}()

	report = Report{
		RootName:   filepath.Base(absoluteRoot),
		OutputPath: absoluteOutput,
	}
	writer := newDocumentWriter(outputFile)

	writer.printf(titleFormat, report.RootName)
	writer.writeString(structureOpening)
	walk := &treeWalk{
		builder:    builder,
		writer:     writer,
		rootName:   report.RootName,
		outputPath: absoluteOutput,
	}
	walk.visitDirectory(absoluteRoot, 0)
	writer.writeString(structureClosing)
	report.ListedFiles = walk.listedFiles

	inclusionSet := walk.included
	sort.Strings(inclusionSet)
	writer.writeString(contentsOpening)
	for _, includedPath := range inclusionSet {
		if !builder.writeFileSection(writer, absoluteRoot, includedPath) {
			report.UnreadableFiles++
		}
	}
	report.IncludedFiles = len(inclusionSet)

	if flushError := writer.flush(); flushError != nil {
		return Report{}, fmt.Errorf(errorWriteOutput, outputPath, flushError)
	}
	report.Bytes = writer.written
	return report, nil
}

// treeWalk holds the state of one depth-first traversal.
type treeWalk struct {
	builder     *Builder
	writer      *documentWriter
	rootName    string
	outputPath  string
	included    []string
	listedFiles int
}

// visitDirectory renders directoryPath, its files one level deeper, and then each subdirectory in name order.
// A directory whose listing fails is omitted entirely.
func (walk *treeWalk) visitDirectory(directoryPath string, depth int) {
	directoryEntries, readDirectoryError := os.ReadDir(directoryPath)
	if readDirectoryError != nil {
		walk.builder.logger.Warn(warningReadDirectory, zap.String("path", directoryPath), zap.Error(readDirectoryError))
		return
	}

	if depth == 0 {
		walk.writer.printf(rootLineFormat, walk.rootName)
	} else {
		walk.writer.printf(directoryLineFormat, strings.Repeat(indentUnit, depth), directoryBranch, filepath.Base(directoryPath))
	}

	fileIndent := strings.Repeat(indentUnit, depth+1)
	var subdirectories []string
	for _, directoryEntry := range directoryEntries {
		entryName := directoryEntry.Name()
		entryPath := filepath.Join(directoryPath, entryName)
		isDirectory, descend := walk.classify(directoryEntry, entryPath)
		if isDirectory {
			if descend {
				subdirectories = append(subdirectories, entryPath)
			}
			continue
		}
		if walk.skipsFile(entryPath) {
			continue
		}
		walk.writer.printf(fileLineFormat, fileIndent, fileBranch, entryName)
		walk.listedFiles++
		if matchesAllowlist(entryName, walk.builder.allowlist) {
			walk.included = append(walk.included, entryPath)
		}
	}

	for _, subdirectoryPath := range subdirectories {
		walk.visitDirectory(subdirectoryPath, depth+1)
	}
}

// skipsFile reports whether entryPath is the document being written or one reserved by another build.
func (walk *treeWalk) skipsFile(entryPath string) bool {
	if entryPath == walk.outputPath {
		return true
	}
	_, reserved := walk.builder.reserved[entryPath]
	return reserved
}

// classify reports whether an entry is a directory and, if so, whether it is traversed.
// Symbolic links to directories count as directories that are never traversed.
func (walk *treeWalk) classify(directoryEntry fs.DirEntry, entryPath string) (bool, bool) {
	if directoryEntry.IsDir() {
		_, denied := walk.builder.denylist[directoryEntry.Name()]
		return true, !denied
	}
	if directoryEntry.Type()&fs.ModeSymlink == 0 {
		return false, false
	}
	targetInfo, statError := os.Stat(entryPath)
	if statError != nil {
		walk.builder.logger.Debug(warningStatLink, zap.String("path", entryPath), zap.Error(statError))
		return false, false
	}
	return targetInfo.IsDir(), false
}

// writeFileSection emits the header and fenced content for one included file.
// It reports false when the file could not be read and a placeholder was written instead.
func (builder *Builder) writeFileSection(writer *documentWriter, absoluteRoot string, filePath string) bool {
	writer.printf(fileHeaderFormat, utils.RelativePathOrSelf(filePath, absoluteRoot))
	writer.printf(fenceOpeningFormat, LanguageTag(filepath.Base(filePath)))

	readable := true
	// #nosec G304
	fileBytes, readError := os.ReadFile(filePath)
	if readError != nil {
		builder.logger.Warn(warningReadFile, zap.String("path", filePath), zap.Error(readError))
		writer.printf(readErrorFormat, readError)
		readable = false
	} else {
		writer.writeString(decodeText(fileBytes))
	}
	writer.writeString(fenceClosing)
	return readable
}

// decodeText converts raw file bytes to text, dropping invalid UTF-8 sequences
// and translating CRLF and lone CR line endings to LF.
func decodeText(fileBytes []byte) string {
	text := strings.ToValidUTF8(string(fileBytes), "")
	text = strings.ReplaceAll(text, windowsLineBreak, lineFeed)
	return strings.ReplaceAll(text, carriageReturn, lineFeed)
}
