package fetcher

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/ahcview/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initializes the global logger. When logFile is set, output
// goes to both stdout and the file. The returned closer releases the file.
func SetupLogging(format, level, logFile string) (io.Closer, error) {
	var (
		w      io.Writer = os.Stdout
		closer io.Closer = io.NopCloser(nil)
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
		closer = file
	}

	if err := logger.Init(logger.WithFormat(format), logger.WithWriter(w)); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := logger.SetLevelString(level); err != nil {
		_ = closer.Close()
		return nil, err
	}
	if logFile != "" {
		logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	}
	return closer, nil
}

// ShowHelp prints usage information for the collector.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `ahcview data collector
======================

Downloads AHC standings into the data directory read by the viewer.

Usage:
  go run ./cmd/fetch [options]

Options:
  -data string
        Data directory (overrides AHCVIEW_DATA_DIR)
  -session string
        Session cookie file holding {"REVEL_SESSION": "..."}
  -compress
        Write zstd-compressed dataset files
  -log string
        Also write logs to this file
  -help
        Show this help message

Every other setting comes from the AHCVIEW_FETCH_* environment variables or
the YAML file named by AHCVIEW_CONFIG.
`)
}
