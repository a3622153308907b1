package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cadence/internal/config"
	"cadence/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("render started", logging.FieldEpisode, "ep001")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "cadence.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "render started") {
		t.Fatalf("expected message in log file, got %q", content)
	}
	if !strings.Contains(string(content), "episode=ep001") {
		t.Fatalf("expected episode field in log file, got %q", content)
	}
}

func TestConsoleHandlerHoistsComponent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WithComponent(logger, "master").Info("chunks joined", "chunks", 12)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, " master: chunks joined") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "chunks=12") {
		t.Fatalf("expected flattened attribute, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not appear as key=value, got %q", line)
	}
}

func TestConsoleHandlerSkipsBelowLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")

	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "warn",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("quiet")
	logger.Warn("loud")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "quiet") {
		t.Fatalf("info line should be suppressed, got %q", content)
	}
	if !strings.Contains(string(content), "loud") {
		t.Fatalf("warn line missing, got %q", content)
	}
}

func TestJSONFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{
		Format:           "json",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("structured")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"structured"`) {
		t.Fatalf("expected json msg key, got %q", content)
	}
	if !strings.Contains(string(content), `"level":"info"`) {
		t.Fatalf("expected lowered level, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "logfmt"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
