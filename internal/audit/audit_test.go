package audit

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestOpen_WritesFileAndConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "import.log")
	if err := os.WriteFile(path, []byte("stale content\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var console bytes.Buffer
	log, err := Open(path, "--- litmerge import log ---", &console, "")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	log.Info().Int("paper_id", 7).Msg("created item")
	log.Debug().Msg("hidden at info level")
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if lines[0] != "--- litmerge import log ---" {
		t.Errorf("first line = %q, want header", lines[0])
	}
	if strings.Contains(content, "stale content") {
		t.Error("log file was not truncated")
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header plus one entry:\n%s", len(lines), content)
	}
	stamp := regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} `)
	if !stamp.MatchString(lines[1]) {
		t.Errorf("entry %q lacks timestamp prefix", lines[1])
	}
	if !strings.Contains(lines[1], "created item") || !strings.Contains(lines[1], "paper_id=7") {
		t.Errorf("entry = %q", lines[1])
	}
	if !strings.Contains(console.String(), "created item") {
		t.Errorf("console = %q, want mirrored entry", console.String())
	}
}

func TestOpen_BadLevel(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "x.log"), "", nil, "loud"); err == nil {
		t.Error("Open() with unknown level should fail")
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := Console(&buf, "debug")
	if err != nil {
		t.Fatal(err)
	}
	log.Debug().Msg("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("console = %q", buf.String())
	}
	if log.Path() != "" {
		t.Errorf("Path() = %q, want empty", log.Path())
	}
	if err := log.Close(); err != nil {
		t.Errorf("Close() on console log = %v", err)
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Info().Msg("discarded")
	if err := log.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
