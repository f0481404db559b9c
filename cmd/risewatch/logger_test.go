package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jpalmerr/risewatch/config"
)

func TestNewLogger_TextToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger, file := newLogger(config.LogConfig{Level: "warn", Format: "text"}, &buf)
	if file != nil {
		t.Fatal("no file configured, expected nil rotator")
	}

	logger.Info("hidden")
	logger.Warn("shown", "target", "iss")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "target=iss") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestNewLogger_JSONAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risewatch.log")
	var buf bytes.Buffer
	logger, file := newLogger(config.LogConfig{
		Level:     "debug",
		Format:    "json",
		File:      path,
		MaxSizeMB: 1,
	}, &buf)
	if file == nil {
		t.Fatal("expected a rotating file")
	}
	defer file.Close()

	logger.Debug("cycle completed", "status", "scheduled")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("stderr output is not JSON: %v (%s)", err, buf.String())
	}
	if rec["status"] != "scheduled" {
		t.Errorf("status = %v, want scheduled", rec["status"])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !bytes.Equal(data, buf.Bytes()) {
		t.Errorf("file and writer differ:\nfile: %s\nbuf:  %s", data, buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
