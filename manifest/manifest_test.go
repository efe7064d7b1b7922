package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/bcvm/vm"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "counter"
version = "0.1.0"

[vm]
stack-size = 64
max-steps = 10000
trace = true

[log]
verbosity = 2
file = "logs/bcvm.log"

[store]
path = "runs.db"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "counter" {
		t.Errorf("project name = %q, want counter", m.Project.Name)
	}
	if m.VM.StackSize != 64 || m.VM.MaxSteps != 10000 || !m.VM.Trace {
		t.Errorf("vm = %+v", m.VM)
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", m.Log.Verbosity)
	}

	abs, _ := filepath.Abs(dir)
	if m.Dir != abs {
		t.Errorf("Dir = %q, want %q", m.Dir, abs)
	}
	if want := filepath.Join(abs, "runs.db"); m.StorePath() != want {
		t.Errorf("StorePath = %q, want %q", m.StorePath(), want)
	}
	if want := filepath.Join(abs, "logs", "bcvm.log"); m.LogFile() != want {
		t.Errorf("LogFile = %q, want %q", m.LogFile(), want)
	}

	opts := m.Options()
	if opts.StackSize != 64 || opts.MaxSteps != 10000 || !opts.Trace {
		t.Errorf("Options = %+v", opts)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[project]\nname = \"bare\"\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.VM.StackSize != vm.DefaultStackSize {
		t.Errorf("stack-size = %d, want %d", m.VM.StackSize, vm.DefaultStackSize)
	}
	if m.VM.MaxSteps != 0 || m.VM.Trace {
		t.Errorf("vm = %+v, want unlimited and untraced", m.VM)
	}
	if m.StorePath() != "" || m.LogFile() != "" {
		t.Errorf("StorePath = %q, LogFile = %q, want both empty", m.StorePath(), m.LogFile())
	}

	if d := Default(); d.VM.StackSize != vm.DefaultStackSize || d.Dir != "" {
		t.Errorf("Default() = %+v", d)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[vm]\nstack_size = 12\n")
	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "unknown key") {
		t.Errorf("Load error = %v, want unknown key", err)
	}
}

func TestLoadRejectsNegativeSteps(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[vm]\nmax-steps = -1\n")
	if _, err := Load(dir); err == nil {
		t.Error("Load accepted negative max-steps")
	}
}

func TestLoadParseError(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[vm\n")
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "parse error") {
		t.Errorf("Load error = %v, want parse error", err)
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[project]\nname = \"outer\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad: %v", err)
	}
	if m == nil || m.Project.Name != "outer" {
		t.Fatalf("FindAndLoad = %+v, want outer manifest", m)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(path, []byte("[store]\npath = \"/tmp/x.db\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if m.StorePath() != "/tmp/x.db" {
		t.Errorf("StorePath = %q, want absolute path unchanged", m.StorePath())
	}
}
