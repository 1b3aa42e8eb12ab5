package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/stratacms/strata/pkg/config"
)

var (
	logsFollow bool
	logsLines  int
	logsSince  string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show strata log output",
	Long: `Display and optionally follow the strata log file.

The log file is taken from logging.output in the configuration. Logging to
stdout or stderr leaves nothing to show.

Examples:
  # Show the last 100 lines
  strata logs

  # Show the last 20 lines and follow new entries
  strata logs -f -n 20

  # Show entries written since a point in time
  strata logs --since "2026-01-15T10:00:00Z"`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 100, "Number of lines to show")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries since timestamp (RFC3339)")
}

func runLogs(cmd *cobra.Command, _ []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	logFile := cfg.Logging.Output
	switch strings.ToLower(logFile) {
	case "stdout", "stderr":
		return fmt.Errorf("strata is configured to log to %s, not a file\n"+
			"Set 'logging.output' to a file path to use this command", logFile)
	}
	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	var since time.Time
	if logsSince != "" {
		if since, err = time.Parse(time.RFC3339, logsSince); err != nil {
			return fmt.Errorf("invalid --since format (use RFC3339): %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if !logsFollow {
		return showLogs(out, logFile, logsLines, since)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Following %s (Ctrl+C to stop)...\n", logFile)
	return followLogs(ctx, out, logFile, logsLines, since)
}

// showLogs writes the last lines of logFile, skipping entries older than since.
func showLogs(w io.Writer, logFile string, lines int, since time.Time) error {
	file, err := os.Open(logFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var kept []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !since.IsZero() {
			if ts := extractTimestamp(line); !ts.IsZero() && ts.Before(since) {
				continue
			}
		}
		kept = append(kept, line)
		if lines > 0 && len(kept) > lines {
			kept = kept[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}

	for _, line := range kept {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// followLogs shows the tail of logFile, then copies appended content to w
// until ctx is cancelled.
func followLogs(ctx context.Context, w io.Writer, logFile string, lines int, since time.Time) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(logFile); err != nil {
		return fmt.Errorf("failed to watch log file: %w", err)
	}

	file, err := os.Open(logFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end of log file: %w", err)
	}
	if err := showLogs(w, logFile, lines, since); err != nil {
		return err
	}

	reader := bufio.NewReader(file)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) {
				continue
			}
			if err := copyAppended(w, reader); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// copyAppended writes everything readable from r up to EOF.
func copyAppended(w io.Writer, r *bufio.Reader) error {
	for {
		chunk, err := r.ReadString('\n')
		if chunk != "" {
			if _, werr := io.WriteString(w, chunk); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading log file: %w", err)
		}
	}
}

// extractTimestamp reads the time of a text ("[2006-01-02 15:04:05] ...")
// or JSON ({"time":"..."}) log line. It returns the zero time otherwise.
func extractTimestamp(line string) time.Time {
	if strings.HasPrefix(line, "[") {
		if end := strings.IndexByte(line, ']'); end > 0 {
			if t, err := time.ParseInLocation("2006-01-02 15:04:05", line[1:end], time.Local); err == nil {
				return t
			}
		}
	}

	const timeKey = `"time":"`
	if idx := strings.Index(line, timeKey); idx >= 0 {
		rest := line[idx+len(timeKey):]
		if end := strings.IndexByte(rest, '"'); end > 0 {
			if t, err := time.Parse(time.RFC3339Nano, rest[:end]); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
