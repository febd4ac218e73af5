package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSetupCreatesDatedLogFile(t *testing.T) {
	dir := t.TempDir()

	log, err := Setup("debug", dir)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	log.Info("hello", "key", "value")

	name := "schemalens-" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file missing entry: %q", data)
	}
}

func TestSetupUnknownLevelDefaultsToInfo(t *testing.T) {
	dir := t.TempDir()

	log, err := Setup("verbose", dir)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if log == nil {
		t.Fatal("expected a logger")
	}
}
