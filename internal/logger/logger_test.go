package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")

	log, err := New(Options{JSON: true, Debug: true, File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Debug("searching projects")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	if !strings.Contains(string(data), `"step":"searching projects"`) {
		t.Fatalf("expected the debug entry in the file, got %q", data)
	}
}

func TestNewInfoLevelByDefault(t *testing.T) {
	log, err := New(Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if log.Core().Enabled(-1) {
		t.Fatal("debug must be disabled without the debug option")
	}
}
