package mcp_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/temirov/contextmd/internal/naming"
	"github.com/temirov/contextmd/internal/services/mcp"
)

func writeProject(t *testing.T) string {
	t.Helper()
	projectDirectory := filepath.Join(t.TempDir(), "proj")
	if err := os.MkdirAll(filepath.Join(projectDirectory, "node_modules"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(projectDirectory, "a.py"), []byte("print(1)"), 0o600); err != nil {
		t.Fatalf("write a.py: %v", err)
	}
	if err := os.WriteFile(filepath.Join(projectDirectory, "notes.bin"), []byte{0x00}, 0o600); err != nil {
		t.Fatalf("write notes.bin: %v", err)
	}
	if err := os.WriteFile(filepath.Join(projectDirectory, "node_modules", "x.js"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write x.js: %v", err)
	}
	return projectDirectory
}

func TestBuildContextTool(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name             string
		explicitOutput   bool
		expectedBaseName string
	}{
		{name: "explicit output path", explicitOutput: true, expectedBaseName: "context.md"},
		{name: "auto numbered output", explicitOutput: false, expectedBaseName: "proj_20240307-1.md"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			projectDirectory := writeProject(t)
			outputDirectory := t.TempDir()
			sequence := naming.NewDatedSequence(outputDirectory)
			sequence.Clock = func() time.Time { return time.Date(2024, time.March, 7, 9, 0, 0, 0, time.UTC) }
			service := mcp.NewService(mcp.Config{OutputDirectory: outputDirectory, Naming: sequence})

			input := mcp.BuildContextInput{Directory: projectDirectory}
			if testCase.explicitOutput {
				input.OutputPath = filepath.Join(outputDirectory, "context.md")
			}

			result, output, err := service.BuildContext(context.Background(), nil, input)
			if err != nil {
				t.Fatalf("BuildContext error: %v", err)
			}
			if result != nil && result.IsError {
				t.Fatalf("unexpected error result")
			}
			if filepath.Base(output.OutputPath) != testCase.expectedBaseName {
				t.Fatalf("expected document %s, got %s", testCase.expectedBaseName, output.OutputPath)
			}
			if output.ListedFiles != 2 || output.IncludedFiles != 1 || output.UnreadableFiles != 0 {
				t.Fatalf("unexpected counts: %+v", output)
			}

			document, readErr := os.ReadFile(output.OutputPath)
			if readErr != nil {
				t.Fatalf("read document: %v", readErr)
			}
			if int64(len(document)) != output.Bytes {
				t.Fatalf("expected %d bytes, document has %d", output.Bytes, len(document))
			}
			if !strings.Contains(string(document), "```py\nprint(1)\n```") {
				t.Fatalf("document is missing a.py content:\n%s", document)
			}
			if strings.Contains(string(document), "x.js") {
				t.Fatalf("denylisted directory leaked into document:\n%s", document)
			}
		})
	}
}

func TestBuildContextToolFailures(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input func(t *testing.T) mcp.BuildContextInput
	}{
		{
			name:  "missing directory argument",
			input: func(t *testing.T) mcp.BuildContextInput { return mcp.BuildContextInput{} },
		},
		{
			name: "absent directory",
			input: func(t *testing.T) mcp.BuildContextInput {
				return mcp.BuildContextInput{
					Directory:  filepath.Join(t.TempDir(), "absent"),
					OutputPath: filepath.Join(t.TempDir(), "context.md"),
				}
			},
		},
		{
			name: "output parent missing",
			input: func(t *testing.T) mcp.BuildContextInput {
				return mcp.BuildContextInput{
					Directory:  writeProject(t),
					OutputPath: filepath.Join(t.TempDir(), "missing", "context.md"),
				}
			},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			service := mcp.NewService(mcp.Config{OutputDirectory: t.TempDir()})
			result, _, err := service.BuildContext(context.Background(), nil, testCase.input(t))
			if err == nil {
				t.Fatalf("expected error")
			}
			if result == nil || !result.IsError {
				t.Fatalf("expected error result")
			}
		})
	}
}

func TestServerRegistersTool(t *testing.T) {
	service := mcp.NewService(mcp.Config{Version: "test"})
	if service.Server() == nil {
		t.Fatalf("expected server")
	}
}

func TestBuildContextCreatesNamingDirectory(t *testing.T) {
	t.Parallel()

	projectDirectory := writeProject(t)
	configuredDirectory := filepath.Join(t.TempDir(), "configured")
	namingDirectory := filepath.Join(t.TempDir(), "nested", "documents")
	sequence := naming.NewDatedSequence(namingDirectory)
	sequence.Clock = func() time.Time { return time.Date(2024, time.March, 7, 9, 0, 0, 0, time.UTC) }
	service := mcp.NewService(mcp.Config{OutputDirectory: configuredDirectory, Naming: sequence})

	_, output, err := service.BuildContext(context.Background(), nil, mcp.BuildContextInput{Directory: projectDirectory})
	if err != nil {
		t.Fatalf("BuildContext error: %v", err)
	}
	if output.OutputPath != filepath.Join(namingDirectory, "proj_20240307-1.md") {
		t.Fatalf("expected document in %s, got %s", namingDirectory, output.OutputPath)
	}
	if _, statErr := os.Stat(configuredDirectory); statErr == nil {
		t.Fatalf("unused output directory %s should not be created", configuredDirectory)
	}
}
