package builder

import "strings"

const (
	extensionSeparator = "."
	defaultLanguageTag = "text"
)

// DefaultDenylist names the tooling and cache directories that are neither rendered nor traversed.
var DefaultDenylist = []string{
	"__pycache__",
	"node_modules",
	".git",
	".vscode",
	"venv",
	".venv",
	".idea",
}

// DefaultAllowlist holds the suffixes that qualify a file for content embedding.
// Matching is a literal suffix test, so "Dockerfile" also admits "web.Dockerfile".
var DefaultAllowlist = []string{
	".py", ".pyw", ".java", ".js", ".jsx", ".ts", ".tsx", ".html", ".css",
	".scss", ".less", ".json", ".xml", ".yaml", ".yml", ".md", ".rst",
	".c", ".cpp", ".h", ".hpp", ".cs", ".go", ".rs", ".php", ".rb", ".swift",
	".kt", ".kts", ".sh", ".bat", ".ps1", "Dockerfile", ".env", ".sql",
}

// FileExtension returns the extension of fileName including its leading dot.
// Dots that only lead the name do not start an extension, so ".env" and
// ".gitignore" have none while "name." has ".".
func FileExtension(fileName string) string {
	separatorIndex := strings.LastIndex(fileName, extensionSeparator)
	if separatorIndex <= 0 {
		return ""
	}
	if strings.TrimLeft(fileName[:separatorIndex], extensionSeparator) == "" {
		return ""
	}
	return fileName[separatorIndex:]
}

// LanguageTag returns the fenced code block label for fileName.
func LanguageTag(fileName string) string {
	language := strings.ToLower(strings.TrimLeft(FileExtension(fileName), extensionSeparator))
	if language == "" {
		return defaultLanguageTag
	}
	return language
}

// matchesAllowlist reports whether fileName ends with any allowlisted suffix or has no extension.
func matchesAllowlist(fileName string, allowlist []string) bool {
	for _, suffix := range allowlist {
		if strings.HasSuffix(fileName, suffix) {
			return true
		}
	}
	return FileExtension(fileName) == ""
}
