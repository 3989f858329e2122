package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestInterceptReceivesLinesAndFile(t *testing.T) {
	dir := t.TempDir()
	if err := Init(Config{Enabled: true, Level: "info", File: "logs/askchat.log"}, dir); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Close()

	var buf syncBuffer
	Intercept(&buf)
	Info("ask failed", "err", "boom")
	Debug("hidden below info")
	Restore()

	if got := buf.String(); !strings.Contains(got, "ask failed") || !strings.Contains(got, "err=boom") {
		t.Fatalf("intercepted output = %q, want the info line", got)
	}
	if strings.Contains(buf.String(), "hidden below info") {
		t.Fatal("debug line written at info level")
	}

	data, err := os.ReadFile(filepath.Join(dir, "logs", "askchat.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "ask failed") {
		t.Fatalf("log file = %q, want the info line", data)
	}
}

func TestDisabledLoggerDiscards(t *testing.T) {
	if err := Init(Config{Enabled: false}, ""); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Error("nobody sees this")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"WARNING": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"verbose": "INFO",
	}
	for in, want := range tests {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
