package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	integrationBinaryBaseName = "contextmd_integration_binary"
	binaryEnvironmentVariable = "CONTEXTMD_TEST_BINARY"
)

func buildBinary(testingHandle *testing.T) string {
	testingHandle.Helper()
	if custom := os.Getenv(binaryEnvironmentVariable); custom != "" {
		return custom
	}

	binaryName := integrationBinaryBaseName
	if runtime.GOOS == "windows" {
		binaryName += ".exe"
	}
	binaryPath := filepath.Join(testingHandle.TempDir(), binaryName)

	buildCommand := exec.Command("go", "build", "-o", binaryPath, ".")
	combinedOutput, buildError := buildCommand.CombinedOutput()
	if buildError != nil {
		testingHandle.Fatalf("build failed: %v\n%s", buildError, string(combinedOutput))
	}
	return binaryPath
}

// runCommand executes the binary and returns stdout, stderr, and the run error.
func runCommand(testingHandle *testing.T, binaryPath string, arguments []string, workingDirectory string) (string, string, error) {
	testingHandle.Helper()

	command := exec.Command(binaryPath, arguments...)
	command.Dir = workingDirectory
	homeDirectory := testingHandle.TempDir()
	command.Env = append(os.Environ(), "HOME="+homeDirectory, "USERPROFILE="+homeDirectory)

	var stdoutBuffer, stderrBuffer bytes.Buffer
	command.Stdout = &stdoutBuffer
	command.Stderr = &stderrBuffer
	runError := command.Run()
	return stdoutBuffer.String(), stderrBuffer.String(), runError
}

func setupProject(testingHandle *testing.T, layout map[string]string) string {
	testingHandle.Helper()
	projectDirectory := filepath.Join(testingHandle.TempDir(), "proj")
	for relativePath, content := range layout {
		filePath := filepath.Join(projectDirectory, filepath.FromSlash(relativePath))
		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			testingHandle.Fatalf("mkdir %s: %v", relativePath, err)
		}
		if err := os.WriteFile(filePath, []byte(content), 0o600); err != nil {
			testingHandle.Fatalf("write %s: %v", relativePath, err)
		}
	}
	return projectDirectory
}

func TestContextmdBinary(testingHandle *testing.T) {
	if testing.Short() {
		testingHandle.Skip("skipping binary integration test in short mode")
	}
	binaryPath := buildBinary(testingHandle)

	testingHandle.Run("default directory writes numbered document", func(subTest *testing.T) {
		projectDirectory := setupProject(subTest, map[string]string{
			"a.py":              "print(1)",
			"node_modules/x.js": "x",
		})
		stdout, stderr, runError := runCommand(subTest, binaryPath, nil, projectDirectory)
		if runError != nil {
			subTest.Fatalf("run failed: %v\nstderr:\n%s", runError, stderr)
		}
		matches, globError := filepath.Glob(filepath.Join(projectDirectory, "output", "proj_*-1.md"))
		if globError != nil || len(matches) != 1 {
			subTest.Fatalf("expected one numbered document, got %v (%v)", matches, globError)
		}
		if !strings.Contains(stdout, "Context file saved successfully to: ") {
			subTest.Fatalf("missing success message in %q", stdout)
		}
		document, readError := os.ReadFile(matches[0])
		if readError != nil {
			subTest.Fatalf("read document: %v", readError)
		}
		expectedSection := "### 📄 **File:** `a.py`\n\n```py\nprint(1)\n```\n\n---\n\n"
		if !strings.Contains(string(document), expectedSection) {
			subTest.Fatalf("document is missing a.py section:\n%s", document)
		}
		if strings.Contains(string(document), "x.js") {
			subTest.Fatalf("denylisted directory leaked into document:\n%s", document)
		}
	})

	testingHandle.Run("explicit output with two directories fails", func(subTest *testing.T) {
		projectDirectory := setupProject(subTest, map[string]string{"a.go": "package a"})
		_, _, runError := runCommand(subTest, binaryPath, []string{".", projectDirectory, "-o", "out.md"}, projectDirectory)
		if runError == nil {
			subTest.Fatalf("expected non-zero exit")
		}
		if _, statError := os.Stat(filepath.Join(projectDirectory, "out.md")); statError == nil {
			subTest.Fatalf("no document should be written")
		}
	})

	testingHandle.Run("missing directory fails", func(subTest *testing.T) {
		workingDirectory := subTest.TempDir()
		_, _, runError := runCommand(subTest, binaryPath, []string{filepath.Join(workingDirectory, "absent"), "-o", "out.md"}, workingDirectory)
		if runError == nil {
			subTest.Fatalf("expected non-zero exit")
		}
	})
}

func TestServeBuildContextTool(testingHandle *testing.T) {
	if testing.Short() {
		testingHandle.Skip("skipping MCP end-to-end test in short mode")
	}
	binaryPath := buildBinary(testingHandle)
	projectDirectory := setupProject(testingHandle, map[string]string{
		"main.go":  "package main\n",
		"Makefile": "all:\n",
	})
	outputDirectory := testingHandle.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	serveCommand := exec.Command(binaryPath, "serve", "--output-dir", outputDirectory)
	serveCommand.Dir = projectDirectory
	homeDirectory := testingHandle.TempDir()
	serveCommand.Env = append(os.Environ(), "HOME="+homeDirectory, "USERPROFILE="+homeDirectory)
	client := mcp.NewClient(&mcp.Implementation{Name: "contextmd-test", Version: "v0.0.1"}, nil)
	session, connectError := client.Connect(ctx, &mcp.CommandTransport{Command: serveCommand}, nil)
	if connectError != nil {
		testingHandle.Fatalf("connect: %v", connectError)
	}
	defer session.Close()

	result, callError := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "build_context",
		Arguments: map[string]any{"directory": projectDirectory},
	})
	if callError != nil {
		testingHandle.Fatalf("call build_context: %v", callError)
	}
	if result.IsError {
		testingHandle.Fatalf("build_context returned an error result: %+v", result.Content)
	}

	encoded, marshalError := json.Marshal(result.StructuredContent)
	if marshalError != nil {
		testingHandle.Fatalf("encode structured content: %v", marshalError)
	}
	var output struct {
		OutputPath    string `json:"outputPath"`
		ListedFiles   int    `json:"listedFiles"`
		IncludedFiles int    `json:"includedFiles"`
	}
	if decodeError := json.Unmarshal(encoded, &output); decodeError != nil {
		testingHandle.Fatalf("decode structured content: %v", decodeError)
	}
	if filepath.Dir(output.OutputPath) != outputDirectory {
		testingHandle.Fatalf("expected document in %s, got %s", outputDirectory, output.OutputPath)
	}
	if output.ListedFiles != 2 || output.IncludedFiles != 2 {
		testingHandle.Fatalf("unexpected counts: %+v", output)
	}
}
