package lang

import (
	"path"
	"strings"
)

// Unknown is returned for paths whose extension is missing or not in the table.
const Unknown = "unknown"

var extensions = map[string]string{
	".go":     "go",
	".py":     "python",
	".pyi":    "python",
	".js":     "javascript",
	".mjs":    "javascript",
	".cjs":    "javascript",
	".jsx":    "javascript",
	".ts":     "typescript",
	".tsx":    "typescript",
	".mts":    "typescript",
	".rs":     "rust",
	".java":   "java",
	".kt":     "kotlin",
	".kts":    "kotlin",
	".scala":  "scala",
	".rb":     "ruby",
	".php":    "php",
	".cs":     "csharp",
	".c":      "c",
	".h":      "c",
	".cc":     "cpp",
	".cpp":    "cpp",
	".cxx":    "cpp",
	".hpp":    "cpp",
	".swift":  "swift",
	".m":      "objective-c",
	".dart":   "dart",
	".lua":    "lua",
	".r":      "r",
	".sql":    "sql",
	".sh":     "shell",
	".bash":   "shell",
	".zsh":    "shell",
	".ps1":    "powershell",
	".html":   "html",
	".htm":    "html",
	".css":    "css",
	".scss":   "scss",
	".vue":    "vue",
	".svelte": "svelte",
	".json":   "json",
	".yaml":   "yaml",
	".yml":    "yaml",
	".toml":   "toml",
	".xml":    "xml",
	".md":     "markdown",
	".tf":     "terraform",
	".proto":  "protobuf",
}

// Classify returns the language tag for p, or Unknown.
func Classify(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return Unknown
	}
	if tag, ok := extensions[ext]; ok {
		return tag
	}
	return Unknown
}

// Distinct returns the known language tags of paths in first-seen order.
func Distinct(paths []string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, p := range paths {
		tag := Classify(p)
		if tag == Unknown || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
