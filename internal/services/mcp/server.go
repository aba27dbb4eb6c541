// Package mcp exposes context building as a Model Context Protocol tool served over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/temirov/contextmd/internal/builder"
	"github.com/temirov/contextmd/internal/naming"
)

const (
	// BuildContextToolName is the name clients use to invoke a build.
	BuildContextToolName = "build_context"

	buildContextToolDescription = "Write a Markdown document with the directory tree and the contents of recognized source files of a project directory. Returns the document path and file counts."
	defaultImplementationName   = "contextmd"
	outputDirectoryPermissions  = 0o755
	errorDirectoryRequired      = "directory is required"
	errorResolveOutputFormat    = "resolve output path for %s: %w"
	errorCreateOutputDirFormat  = "create output directory %s: %w"
	errorRunServerFormat        = "run MCP server: %w"
	messageBuildSucceeded       = "context document written"
	messageBuildFailed          = "context build failed"
)

// BuildContextInput is the argument object of the build_context tool.
type BuildContextInput struct {
	Directory  string `json:"directory" jsonschema:"Project directory to describe"`
	OutputPath string `json:"outputPath,omitempty" jsonschema:"Document path to write (default: an auto-numbered file in the output directory)"`
}

// BuildContextOutput is the structured result of the build_context tool.
type BuildContextOutput struct {
	OutputPath      string `json:"outputPath" jsonschema:"Absolute path of the written document"`
	ListedFiles     int    `json:"listedFiles" jsonschema:"Number of files shown in the directory tree"`
	IncludedFiles   int    `json:"includedFiles" jsonschema:"Number of files embedded in the document"`
	UnreadableFiles int    `json:"unreadableFiles" jsonschema:"Number of embedded files replaced by a read error note"`
	Bytes           int64  `json:"bytes" jsonschema:"Size of the document in bytes"`
}

// Config defines runtime options for the MCP service.
// OutputDirectory seeds the default Naming strategy; documents land wherever Naming places them.
type Config struct {
	Name            string
	Version         string
	OutputDirectory string
	Builder         *builder.Builder
	Naming          naming.Strategy
	Logger          *zap.Logger
}

// Service registers and serves the build_context tool.
type Service struct {
	config Config
}

// NewService creates a Service with defaults applied.
func NewService(config Config) *Service {
	normalized := config
	if normalized.Name == "" {
		normalized.Name = defaultImplementationName
	}
	if normalized.OutputDirectory == "" {
		normalized.OutputDirectory = naming.DefaultDirectory
	}
	if normalized.Logger == nil {
		normalized.Logger = zap.NewNop()
	}
	if normalized.Builder == nil {
		normalized.Builder = builder.New(builder.Options{Logger: normalized.Logger})
	}
	if normalized.Naming == nil {
		normalized.Naming = naming.NewDatedSequence(normalized.OutputDirectory)
	}
	return &Service{config: normalized}
}

// Server returns an MCP server with the build_context tool registered.
func (service *Service) Server() *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    service.config.Name,
		Version: service.config.Version,
	}, nil)
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        BuildContextToolName,
		Description: buildContextToolDescription,
	}, service.BuildContext)
	return server
}

// Run serves the tool over stdin and stdout until ctx is canceled or the client disconnects.
func (service *Service) Run(ctx context.Context) error {
	if runError := service.Server().Run(ctx, &mcpsdk.StdioTransport{}); runError != nil {
		return fmt.Errorf(errorRunServerFormat, runError)
	}
	return nil
}

// BuildContext handles one build_context call.
func (service *Service) BuildContext(ctx context.Context, request *mcpsdk.CallToolRequest, input BuildContextInput) (*mcpsdk.CallToolResult, BuildContextOutput, error) {
	if input.Directory == "" {
		return &mcpsdk.CallToolResult{IsError: true}, BuildContextOutput{}, errors.New(errorDirectoryRequired)
	}
	if contextError := ctx.Err(); contextError != nil {
		return &mcpsdk.CallToolResult{IsError: true}, BuildContextOutput{}, contextError
	}

	outputPath, outputError := service.resolveOutputPath(input)
	if outputError != nil {
		return &mcpsdk.CallToolResult{IsError: true}, BuildContextOutput{}, outputError
	}

	report, buildError := service.config.Builder.Build(input.Directory, outputPath)
	if buildError != nil {
		service.config.Logger.Warn(messageBuildFailed, zap.String("directory", input.Directory), zap.Error(buildError))
		return &mcpsdk.CallToolResult{IsError: true}, BuildContextOutput{}, buildError
	}
	service.config.Logger.Info(messageBuildSucceeded, zap.String("path", report.OutputPath), zap.Int("files", report.IncludedFiles))

	return nil, BuildContextOutput{
		OutputPath:      report.OutputPath,
		ListedFiles:     report.ListedFiles,
		IncludedFiles:   report.IncludedFiles,
		UnreadableFiles: report.UnreadableFiles,
		Bytes:           report.Bytes,
	}, nil
}

func (service *Service) resolveOutputPath(input BuildContextInput) (string, error) {
	if input.OutputPath != "" {
		return input.OutputPath, nil
	}
	absoluteDirectory, absoluteError := filepath.Abs(input.Directory)
	if absoluteError != nil {
		return "", fmt.Errorf(errorResolveOutputFormat, input.Directory, absoluteError)
	}
	outputPath, namingError := service.config.Naming.Next(absoluteDirectory)
	if namingError != nil {
		return "", fmt.Errorf(errorResolveOutputFormat, input.Directory, namingError)
	}
	outputDirectory := filepath.Dir(outputPath)
	if mkdirError := os.MkdirAll(outputDirectory, outputDirectoryPermissions); mkdirError != nil {
		return "", fmt.Errorf(errorCreateOutputDirFormat, outputDirectory, mkdirError)
	}
	return outputPath, nil
}
