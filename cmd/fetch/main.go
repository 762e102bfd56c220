package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/ahcview/internal/adapters/repository"
	"github.com/okian/ahcview/internal/config"
	"github.com/okian/ahcview/internal/fetcher"
	"github.com/okian/ahcview/pkg/logger"
)

const runTimeout = 6 * time.Hour

func main() {
	var (
		dataDir  = flag.String("data", "", "Data directory (overrides AHCVIEW_DATA_DIR)")
		session  = flag.String("session", "", "Session cookie file (overrides AHCVIEW_FETCH_SESSION_FILE)")
		compress = flag.Bool("compress", false, "Write zstd-compressed dataset files")
		logFile  = flag.String("log", "", "Also write logs to this file")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fetcher.ShowHelp(os.Stdout)
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *session != "" {
		cfg.FetchSessionFile = *session
	}
	if *compress {
		cfg.FetchCompress = true
	}

	closer, err := fetcher.SetupLogging(cfg.LogFormat, cfg.LogLevel, *logFile)
	if err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()
	log := logger.Get().Named("fetch")

	cookie, err := fetcher.LoadSession(cfg.FetchSessionFile)
	if err != nil {
		log.Error(ctx, "failed to prepare logged-in session; aborting", logger.Error(err))
		os.Exit(1)
	}

	fc := fetcher.FromConfig(cfg)
	client := fetcher.NewClient(fc.Interval, fc.Timeout,
		fetcher.WithSession(cookie),
		fetcher.WithUserAgent(fc.UserAgent),
	)
	store := repository.NewFileStore(cfg.DataDir, repository.WithCompression(cfg.FetchCompress))

	rep, err := fetcher.NewRunner(fc, store, client).Run(ctx)
	if err != nil {
		log.Error(ctx, "collection failed", logger.String("run_id", rep.RunID), logger.Error(err))
		os.Exit(1)
	}
}
