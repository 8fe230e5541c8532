package project

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
)

// Project types reported in Context.Type.
const (
	TypeGoModule      = "go-module"
	TypeNodePackage   = "node-package"
	TypeRustCrate     = "rust-crate"
	TypePythonPackage = "python-package"
	TypeUnknown       = "unknown"
)

// Context describes the analyzed repository.
type Context struct {
	Name      string   `json:"name" yaml:"name"`
	Type      string   `json:"type" yaml:"type"`
	Framework string   `json:"framework,omitempty" yaml:"framework,omitempty"`
	Purpose   string   `json:"purpose,omitempty" yaml:"purpose,omitempty"`
	Languages []string `json:"languages,omitempty" yaml:"languages,omitempty"`
}

// Unknown is the context used when root has no recognizable manifest.
func Unknown(root string) Context {
	return Context{Name: filepath.Base(root), Type: TypeUnknown}
}

// Detect inspects manifests under root. The first manifest found in the
// order go.mod, package.json, Cargo.toml, pyproject.toml, setup.py decides
// name, type and framework. purpose overrides the README-derived purpose
// when non-empty. Detect never fails; unreadable files are skipped.
func Detect(root, purpose string) Context {
	ctx := Unknown(root)
	for _, d := range detectors {
		data, err := os.ReadFile(filepath.Join(root, d.file))
		if err != nil {
			continue
		}
		if found, ok := d.parse(data); ok {
			if found.Name == "" {
				found.Name = ctx.Name
			}
			ctx = found
			break
		}
	}

	ctx.Purpose = strings.TrimSpace(purpose)
	if ctx.Purpose == "" {
		ctx.Purpose = readmePurpose(root)
	}
	return ctx
}

type detector struct {
	file  string
	parse func([]byte) (Context, bool)
}

var detectors = []detector{
	{"go.mod", parseGoMod},
	{"package.json", parsePackageJSON},
	{"Cargo.toml", parseCargo},
	{"pyproject.toml", parsePyproject},
	{"setup.py", parseSetupPy},
}

// goFrameworks maps module path prefixes to framework names.
var goFrameworks = []struct{ prefix, name string }{
	{"github.com/gin-gonic/gin", "gin"},
	{"github.com/labstack/echo", "echo"},
	{"github.com/gofiber/fiber", "fiber"},
	{"github.com/go-chi/chi", "chi"},
	{"github.com/gorilla/mux", "gorilla"},
	{"github.com/spf13/cobra", "cobra"},
	{"google.golang.org/grpc", "grpc"},
}

func parseGoMod(data []byte) (Context, bool) {
	f, err := modfile.ParseLax("go.mod", data, nil)
	if err != nil || f.Module == nil {
		return Context{}, false
	}
	ctx := Context{Name: f.Module.Mod.Path, Type: TypeGoModule}
	for _, fw := range goFrameworks {
		for _, r := range f.Require {
			if strings.HasPrefix(r.Mod.Path, fw.prefix) {
				ctx.Framework = fw.name
				return ctx, true
			}
		}
	}
	return ctx, true
}

// nodeFrameworks is checked in order; meta-frameworks come before the
// libraries they build on.
var nodeFrameworks = []struct{ dep, name string }{
	{"next", "next"},
	{"nuxt", "nuxt"},
	{"@nestjs/core", "nestjs"},
	{"@angular/core", "angular"},
	{"svelte", "svelte"},
	{"vue", "vue"},
	{"react", "react"},
	{"express", "express"},
	{"fastify", "fastify"},
}

func parsePackageJSON(data []byte) (Context, bool) {
	var pkg struct {
		Name            string            `json:"name"`
		Description     string            `json:"description"`
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return Context{}, false
	}
	ctx := Context{Name: pkg.Name, Type: TypeNodePackage}
	for _, fw := range nodeFrameworks {
		_, dep := pkg.Dependencies[fw.dep]
		_, dev := pkg.DevDependencies[fw.dep]
		if dep || dev {
			ctx.Framework = fw.name
			break
		}
	}
	return ctx, true
}

var rustFrameworks = []string{"actix-web", "axum", "rocket", "warp", "tokio", "bevy", "tauri"}

func parseCargo(data []byte) (Context, bool) {
	var cargo struct {
		Package struct {
			Name string `toml:"name"`
		} `toml:"package"`
		Dependencies map[string]any `toml:"dependencies"`
	}
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return Context{}, false
	}
	ctx := Context{Name: cargo.Package.Name, Type: TypeRustCrate}
	for _, fw := range rustFrameworks {
		if _, ok := cargo.Dependencies[fw]; ok {
			ctx.Framework = fw
			break
		}
	}
	return ctx, true
}

var pythonFrameworks = []string{"django", "fastapi", "flask", "pyramid", "tornado", "streamlit"}

func parsePyproject(data []byte) (Context, bool) {
	var py struct {
		Project struct {
			Name         string   `toml:"name"`
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Name         string         `toml:"name"`
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &py); err != nil {
		return Context{}, false
	}

	ctx := Context{Name: py.Project.Name, Type: TypePythonPackage}
	deps := make([]string, 0, len(py.Project.Dependencies)+len(py.Tool.Poetry.Dependencies))
	deps = append(deps, py.Project.Dependencies...)
	if ctx.Name == "" {
		ctx.Name = py.Tool.Poetry.Name
	}
	for d := range py.Tool.Poetry.Dependencies {
		deps = append(deps, d)
	}
	ctx.Framework = pythonFramework(deps)
	return ctx, true
}

var (
	setupNameRe = regexp.MustCompile(`name\s*=\s*["']([^"']+)["']`)
	requireRe   = regexp.MustCompile(`^[A-Za-z0-9_.-]+`)
)

func parseSetupPy(data []byte) (Context, bool) {
	ctx := Context{Type: TypePythonPackage}
	if m := setupNameRe.FindSubmatch(data); m != nil {
		ctx.Name = string(m[1])
	}
	ctx.Framework = pythonFramework(strings.FieldsFunc(string(data), func(r rune) bool {
		return r == '"' || r == '\'' || r == ',' || r == '[' || r == ']' || r == '\n'
	}))
	return ctx, true
}

func pythonFramework(deps []string) string {
	names := make(map[string]bool, len(deps))
	for _, d := range deps {
		if m := requireRe.FindString(strings.TrimSpace(d)); m != "" {
			names[strings.ToLower(m)] = true
		}
	}
	for _, fw := range pythonFrameworks {
		if names[fw] {
			return fw
		}
	}
	return ""
}

// readmePurpose returns the first prose paragraph of README.md, skipping
// headings, badges, HTML and code fences.
func readmePurpose(root string) string {
	for _, name := range []string{"README.md", "README", "readme.md"} {
		f, err := os.Open(filepath.Join(root, name))
		if err != nil {
			continue
		}
		defer f.Close()
		return firstParagraph(bufio.NewScanner(f))
	}
	return ""
}

const maxPurposeLen = 400

func firstParagraph(sc *bufio.Scanner) string {
	var para []string
	inFence := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		skip := line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "[![") ||
			strings.HasPrefix(line, "![") || strings.HasPrefix(line, "<") || strings.HasPrefix(line, "---") ||
			strings.HasPrefix(line, "===")
		if skip {
			if len(para) > 0 {
				break
			}
			continue
		}
		para = append(para, line)
	}
	out := strings.Join(para, " ")
	if len(out) > maxPurposeLen {
		out = strings.TrimSpace(out[:maxPurposeLen]) + "..."
	}
	return out
}
