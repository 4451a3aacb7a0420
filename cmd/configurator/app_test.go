package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func createFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// run executes the command with settings files that do not exist, so only
// the embedded defaults and args apply.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	settings := t.TempDir()

	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr

	argv := []string{
		"configurator",
		"--config", filepath.Join(settings, "config.toml"),
		"--config-dir", filepath.Join(settings, "config.toml.d"),
	}
	err := app.Run(append(argv, args...))
	return stdout.String(), err
}

func TestDump(t *testing.T) {
	dir := t.TempDir()
	createFile(t, dir, "db.json", `{"host":"localhost","port":3306}`)
	createFile(t, dir, "app.yaml", "debug: true\nname: demo\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "directory flat",
			args: []string{"dump", dir},
			want: "app.debug = true\napp.name = demo\ndb.host = localhost\ndb.port = 3306\n",
		},
		{
			name: "single file",
			args: []string{"dump", filepath.Join(dir, "db.json")},
			want: "db.host = localhost\ndb.port = 3306\n",
		},
		{
			name: "json",
			args: []string{"--format", "json", "dump", filepath.Join(dir, "db.json")},
			want: "{\n  \"db.host\": \"localhost\",\n  \"db.port\": 3306\n}\n",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := run(t, test.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGet(t *testing.T) {
	dir := t.TempDir()
	path := createFile(t, dir, "db.toml", "host = \"localhost\"\nports = [1, 2]\n")

	got, err := run(t, "get", "db.host", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "localhost\n" {
		t.Errorf("got %q, want %q", got, "localhost\n")
	}

	got, err = run(t, "get", "db.ports", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "[1,2]\n" {
		t.Errorf("got %q, want %q", got, "[1,2]\n")
	}

	if _, err := run(t, "get", "db.missing", path); err == nil {
		t.Error("expected error for missing key")
	}
	if _, err := run(t, "get", "db.host"); err == nil {
		t.Error("expected error without sources")
	}
}

func TestStrict(t *testing.T) {
	dir := t.TempDir()
	createFile(t, dir, "a.json", `{"x":1}`)
	createFile(t, dir, "b.json", `{"x":2}`)
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.json")

	// Files are stored under their own name, so the keys only collide
	// when the same file is loaded twice.
	got, err := run(t, "dump", first, second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff("a.x = 1\nb.x = 2\n", got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	if _, err := run(t, "dump", first, first); err != nil {
		t.Errorf("overwrite should accept a repeated source: %v", err)
	}
	_, err = run(t, "--strict", "dump", first, first)
	if err == nil || !strings.Contains(err.Error(), "a.x") {
		t.Errorf("expected duplicate key error naming a.x, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	createFile(t, dir, "db.json", `{"host":"localhost","port":3306}`)

	got, err := run(t, "check", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok: 2 keys loaded\n" {
		t.Errorf("got %q", got)
	}

	createFile(t, dir, "broken.json", `{"host":`)
	if _, err := run(t, "check", dir); err == nil {
		t.Error("expected error for malformed source")
	}
}

func TestLoaders(t *testing.T) {
	got, err := run(t, "loaders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "cbor\njson\njsonc\ntoml\nyaml\nyml\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestSettingsFile(t *testing.T) {
	settings := t.TempDir()
	configPath := createFile(t, settings, "config.toml", "extensions = [\"json\"]\nformat = \"json\"\n")

	var stdout bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run([]string{
		"configurator",
		"--config", configPath,
		"--config-dir", filepath.Join(settings, "none"),
		"loaders",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := stdout.String(); got != "json\n" {
		t.Errorf("got %q, want %q", got, "json\n")
	}
}

func TestInvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "format", args: []string{"--format", "xml", "loaders"}},
		{name: "log level", args: []string{"--log-level", "loud", "loaders"}},
		{name: "no sources", args: []string{"dump"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := run(t, test.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
