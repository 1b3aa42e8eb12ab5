package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// lockedBuffer is a bytes.Buffer safe for a concurrent writer and reader.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strata.log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func waitFor(t *testing.T, buf *lockedBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("output never contained %q: %q", want, buf.String())
}

func TestShowLogs(t *testing.T) {
	path := writeLog(t,
		"[2026-01-15 09:00:00] [INFO] scope committed",
		"[2026-01-15 10:00:00] [INFO] content published",
		`{"time":"2026-01-15T11:00:00Z","level":"INFO","msg":"cache cleared"}`,
		"continuation without a timestamp",
	)

	var out bytes.Buffer
	if err := showLogs(&out, path, 2, time.Time{}); err != nil {
		t.Fatalf("showLogs: %v", err)
	}
	got := out.String()
	if strings.Contains(got, "content published") || !strings.Contains(got, "cache cleared") {
		t.Errorf("showLogs -n 2 = %q", got)
	}

	out.Reset()
	since := time.Date(2026, 1, 15, 9, 30, 0, 0, time.Local)
	if err := showLogs(&out, path, 0, since); err != nil {
		t.Fatalf("showLogs: %v", err)
	}
	got = out.String()
	if strings.Contains(got, "scope committed") {
		t.Errorf("entries before --since were shown: %q", got)
	}
	if !strings.Contains(got, "content published") || !strings.Contains(got, "continuation") {
		t.Errorf("showLogs --since = %q", got)
	}
}

func TestExtractTimestamp(t *testing.T) {
	tests := []struct {
		line string
		want time.Time
	}{
		{"[2026-01-15 10:00:00] [WARN] x", time.Date(2026, 1, 15, 10, 0, 0, 0, time.Local)},
		{`{"time":"2026-01-15T11:00:00.5Z","msg":"x"}`, time.Date(2026, 1, 15, 11, 0, 0, 5e8, time.UTC)},
		{"no timestamp here", time.Time{}},
		{"[not a time] x", time.Time{}},
	}
	for _, tt := range tests {
		if got := extractTimestamp(tt.line); !got.Equal(tt.want) {
			t.Errorf("extractTimestamp(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestFollowLogs(t *testing.T) {
	path := writeLog(t, "[2026-01-15 10:00:00] [INFO] first")

	ctx, cancel := context.WithCancel(context.Background())
	var out lockedBuffer
	done := make(chan error, 1)
	go func() { done <- followLogs(ctx, &out, path, 10, time.Time{}) }()

	waitFor(t, &out, "first")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.WriteString("[2026-01-15 10:00:01] [INFO] second\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	_ = f.Close()

	waitFor(t, &out, "second")
	cancel()
	if err := <-done; err != nil {
		t.Errorf("followLogs: %v", err)
	}
	if n := strings.Count(out.String(), "first"); n != 1 {
		t.Errorf("first line shown %d times", n)
	}
}
