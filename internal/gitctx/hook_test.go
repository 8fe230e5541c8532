package gitctx

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHookScript(t *testing.T) {
	script := HookScript("changelens analyze commit HEAD --format markdown")

	if !strings.HasPrefix(script, hookMarkerStart) {
		t.Error("Script missing start marker")
	}
	if !strings.HasSuffix(script, hookMarkerEnd+"\n") {
		t.Error("Script missing end marker")
	}
	if !strings.Contains(script, "changelens analyze commit HEAD --format markdown\n") {
		t.Error("Script missing command")
	}
	if !strings.Contains(script, "CHANGELENS_EXIT=$?") {
		t.Error("Script missing exit code capture")
	}
	if strings.Contains(script, "exit 1") {
		t.Error("post-commit script should never exit non-zero")
	}
}

func TestReplaceSection_NoExisting(t *testing.T) {
	existing := "#!/bin/sh\nsome-other-hook\n"
	result := replaceSection(existing, HookScript("cmd"))

	if !strings.HasPrefix(result, existing) {
		t.Error("Existing content should be preserved")
	}
	if !strings.Contains(result, hookMarkerStart) {
		t.Error("New section should be appended")
	}
}

func TestReplaceSection_ExistingSection(t *testing.T) {
	existing := "#!/bin/sh\nbefore\n" + HookScript("old-cmd") + "after\n"
	result := replaceSection(existing, HookScript("new-cmd"))

	if !strings.Contains(result, "before\n") || !strings.Contains(result, "after\n") {
		t.Error("Content around the section should be preserved")
	}
	if !strings.Contains(result, "new-cmd") {
		t.Error("New section should be written")
	}
	if strings.Contains(result, "old-cmd") {
		t.Error("Old section should be replaced")
	}
	if strings.Count(result, hookMarkerStart) != 1 {
		t.Error("Section should appear once")
	}
}

func TestReplaceSection_NoTrailingNewline(t *testing.T) {
	result := replaceSection("#!/bin/sh\nsome-hook", HookScript("cmd"))
	if !strings.Contains(result, "some-hook\n"+hookMarkerStart) {
		t.Errorf("Section should start on its own line:\n%s", result)
	}
}

func TestRemoveSection(t *testing.T) {
	existing := "#!/bin/sh\nbefore\n" + HookScript("cmd") + "after\n"
	result := removeSection(existing)

	if result != "#!/bin/sh\nbefore\nafter\n" {
		t.Errorf("removeSection = %q", result)
	}
	if removeSection("#!/bin/sh\nx\n") != "#!/bin/sh\nx\n" {
		t.Error("Content without section should be unchanged")
	}
}

func TestInstallUninstallHook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hooks", HookName)

	if err := InstallHook(path, HookScript("cmd-1")); err != nil {
		t.Fatalf("InstallHook error: %v", err)
	}
	if err := InstallHook(path, HookScript("cmd-2")); err != nil {
		t.Fatalf("InstallHook (reinstall) error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "#!/bin/sh\n") || strings.Contains(string(data), "cmd-1") {
		t.Errorf("hook content = %q", data)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Error("hook should be executable")
	}

	removed, err := UninstallHook(path)
	if err != nil || !removed {
		t.Fatalf("UninstallHook = %v, %v", removed, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("hook with only a shebang left should be deleted")
	}

	removed, err = UninstallHook(path)
	if err != nil || removed {
		t.Errorf("UninstallHook on missing file = %v, %v", removed, err)
	}
}

func TestUninstallHook_KeepsOtherContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), HookName)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nnotify-team\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := InstallHook(path, HookScript("cmd")); err != nil {
		t.Fatal(err)
	}
	if _, err := UninstallHook(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "#!/bin/sh\nnotify-team\n" {
		t.Errorf("hook content = %q", data)
	}
}

func TestHookPath(t *testing.T) {
	dir := setupTestRepo(t)
	p, err := New(dir, nil).HookPath(context.Background())
	if err != nil {
		t.Fatalf("HookPath error: %v", err)
	}
	if filepath.Base(p) != HookName || filepath.Base(filepath.Dir(p)) != "hooks" {
		t.Errorf("HookPath = %q", p)
	}
}
