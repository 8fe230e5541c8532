package gitctx

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// HookName is the git hook changelens manages.
const HookName = "post-commit"

const (
	hookMarkerStart = "# >>> changelens post-commit hook >>>"
	hookMarkerEnd   = "# <<< changelens post-commit hook <<<"
)

// HookPath returns the post-commit hook path, honoring core.hooksPath and
// linked worktrees.
func (c *Client) HookPath(ctx context.Context) (string, error) {
	out, err := c.git(ctx, "rev-parse", "--git-path", "hooks/"+HookName)
	if err != nil {
		return "", errors.WithHint(errors.Wrap(err, "not a git repository"),
			"run this command inside the repository whose hook you want to manage")
	}
	p := strings.TrimSpace(out)
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.dir, p)
	}
	return p, nil
}

// HookScript returns the marked section that runs command after each commit.
// Failures never block anything: post-commit runs after the commit exists.
func HookScript(command string) string {
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	b.WriteString(command + "\n")
	b.WriteString("CHANGELENS_EXIT=$?\n")
	b.WriteString("if [ $CHANGELENS_EXIT -ge 2 ]; then\n")
	b.WriteString("  echo \"changelens: analysis failed (exit $CHANGELENS_EXIT)\" >&2\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

// InstallHook writes section into the hook at path, replacing an earlier
// changelens section and keeping everything else.
func InstallHook(path, section string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "reading hook file")
	}

	var content string
	if len(existing) == 0 {
		content = "#!/bin/sh\n" + section
	} else {
		content = replaceSection(string(existing), section)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating hooks directory")
	}
	return errors.Wrap(os.WriteFile(path, []byte(content), 0o755), "writing hook file")
}

// UninstallHook removes the changelens section from the hook at path and
// deletes the file when nothing but a shebang is left. removed is false when
// there was no hook file.
func UninstallHook(path string) (removed bool, err error) {
	existing, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "reading hook file")
	}

	content := removeSection(string(existing))
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
		return true, errors.Wrap(os.Remove(path), "removing hook file")
	}
	return true, errors.Wrap(os.WriteFile(path, []byte(content), 0o755), "writing hook file")
}

func replaceSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return existing[:startIdx] + section + after
}

func removeSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return existing
	}

	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return existing[:startIdx] + after
}
