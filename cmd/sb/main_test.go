package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, int) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	code := execute(cmd)
	return buf.String(), code
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "switchboard.yaml")
	content := "bot_token: test-token\ndb:\n  driver: sqlite\n  path: " + filepath.Join(dir, "test.db") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestVersionCmd(t *testing.T) {
	out, code := runCommand(t, "version")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "sb dev") {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	_, code := runCommand(t, "no-such-command")
	if code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
}

func TestDBInit(t *testing.T) {
	path := writeTestConfig(t)

	out, code := runCommand(t, "db", "init", "--config", path)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, out)
	}
	if !strings.Contains(out, "Migrated 2 tables") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestDBInit_MissingConfig(t *testing.T) {
	_, code := runCommand(t, "db", "init", "--config", "/nonexistent/switchboard.yaml")
	if code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
}

func TestDBReset_Forced(t *testing.T) {
	path := writeTestConfig(t)

	if out, code := runCommand(t, "db", "init", "--config", path); code != 0 {
		t.Fatalf("init failed: %s", out)
	}
	out, code := runCommand(t, "db", "reset", "--force", "--config", path)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, out)
	}
	if !strings.Contains(out, "reset") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestServe_MissingConfig(t *testing.T) {
	_, code := runCommand(t, "serve", "--config", "/nonexistent/switchboard.yaml")
	if code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
}
