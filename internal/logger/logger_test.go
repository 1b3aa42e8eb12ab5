package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer for testing.
// Returns the buffer and a cleanup function to restore original output.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()

	originalLevel := CurrentLevel()
	originalFormat, _ := currentFormat.Load().(string)
	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		currentLevel.Store(int32(originalLevel))
		currentFormat.Store(originalFormat)
		reconfigure()
	}

	return buf, cleanup
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")

		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		for _, want := range []string{"DEBUG", "INFO", "WARN", "ERROR", "debug message", "error message"} {
			assert.Contains(t, out, want)
		}
	})

	t.Run("WarnLevelFiltersDebugAndInfo", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("WARN")

		Debug("debug message")
		Info("info message")
		Warn("warn message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "warn message")
	})

	t.Run("ErrorAlwaysLogged", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("ERROR")
		Warn("warn message")
		Error("error message")

		assert.NotContains(t, buf.String(), "warn message")
		assert.Contains(t, buf.String(), "error message")
	})
}

func TestSetLevel(t *testing.T) {
	_, cleanup := captureOutput()
	defer cleanup()

	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"Error", LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			SetLevel(tt.input)
			assert.Equal(t, tt.want, CurrentLevel())
		})
	}

	t.Run("InvalidLevelIgnored", func(t *testing.T) {
		SetLevel("WARN")
		SetLevel("verbose")
		assert.Equal(t, LevelWarn, CurrentLevel())
	})
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestTextFormatting(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetFormat("text")
	SetLevel("INFO")

	Info("entity saved", KeyRepository, "languages", KeyEntityID, 7, "note", "has spaces")

	out := buf.String()
	assert.Contains(t, out, "[INFO] entity saved")
	assert.Contains(t, out, "repository=languages")
	assert.Contains(t, out, "entity_id=7")
	assert.Contains(t, out, `note="has spaces"`)
}

func TestTextHandlerGroups(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetFormat("text")
	With().WithGroup("cache").Info("hit", "region", "users")

	assert.Contains(t, buf.String(), "cache.region=users")
}

func TestJSONFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetFormat("json")
	SetLevel("INFO")

	Info("moved", Repository("nodes"), EntityID(12), Err(errors.New("boom")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "moved", entry["msg"])
	assert.Equal(t, "nodes", entry[KeyRepository])
	assert.EqualValues(t, 12, entry[KeyEntityID])
	assert.Equal(t, "boom", entry[KeyError])
}

func TestFormatSwitching(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetFormat("json")
	Info("first")
	SetFormat("text")
	Info("second")
	SetFormat("yaml")
	Info("third")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "{"))
	assert.True(t, strings.HasPrefix(lines[1], "["))
	assert.True(t, strings.HasPrefix(lines[2], "["))
}

func TestContextLogging(t *testing.T) {
	t.Run("PrefixesScopeFields", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()
		SetLevel("DEBUG")

		lc := NewLogContext("scope-1").WithOperation("users", "save")
		ctx := WithContext(context.Background(), lc)

		DebugCtx(ctx, "saving", KeyEntityID, 3)

		out := buf.String()
		assert.Contains(t, out, "scope_id=scope-1")
		assert.Contains(t, out, "repository=users")
		assert.Contains(t, out, "operation=save")
		assert.Less(t, strings.Index(out, "scope_id"), strings.Index(out, "entity_id"))
	})

	t.Run("NoContextNoFields", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		InfoCtx(context.Background(), "plain")
		assert.NotContains(t, buf.String(), "scope_id")
	})

	t.Run("LevelsHonoredWithContext", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()
		SetLevel("ERROR")

		ctx := WithContext(context.Background(), NewLogContext("s"))
		InfoCtx(ctx, "hidden")
		WarnCtx(ctx, "hidden too")
		ErrorCtx(ctx, "shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestLogContext(t *testing.T) {
	t.Run("FromEmptyContext", func(t *testing.T) {
		assert.Nil(t, FromContext(context.Background()))
		assert.Nil(t, FromContext(nil)) //nolint:staticcheck // nil context is tolerated
	})

	t.Run("CloneIsIndependent", func(t *testing.T) {
		lc := NewLogContext("a")
		clone := lc.Clone()
		clone.ScopeID = "b"
		assert.Equal(t, "a", lc.ScopeID)
	})

	t.Run("WithOperationKeepsScope", func(t *testing.T) {
		lc := NewLogContext("a").WithOperation("tags", "assign")
		assert.Equal(t, "a", lc.ScopeID)
		assert.Equal(t, "tags", lc.Repository)
		assert.Equal(t, "assign", lc.Operation)
	})

	t.Run("DurationMs", func(t *testing.T) {
		lc := NewLogContext("a")
		lc.StartTime = time.Now().Add(-50 * time.Millisecond)
		assert.GreaterOrEqual(t, lc.DurationMs(), 50.0)
	})
}

func TestConcurrentLogging(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()
	SetLevel("INFO")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				Info("concurrent", "worker", n, "iter", j)
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 200)
}

func TestInit(t *testing.T) {
	_, cleanup := captureOutput()
	defer cleanup()

	t.Run("FileOutput", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "strata.log")
		require.NoError(t, Init(Config{Level: "INFO", Format: "json", Output: path}))
		Info("to file")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"to file"`)
	})

	t.Run("BadPath", func(t *testing.T) {
		err := Init(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
		assert.Error(t, err)
	})
}

func TestIsTerminalRegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.log"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.False(t, isTerminal(f.Fd()), "a regular file is not a terminal")
}
