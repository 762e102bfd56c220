package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/ahcview/internal/adapters/repository"
	service "github.com/okian/ahcview/internal/app"
	"github.com/okian/ahcview/internal/config"
	"github.com/okian/ahcview/internal/termview"
	"github.com/okian/ahcview/pkg/logger"
)

const lookupTimeout = time.Minute

func main() {
	var (
		user    = flag.String("user", "", "AtCoder user name to look up")
		dataDir = flag.String("data", "", "Data directory (overrides AHCVIEW_DATA_DIR)")
	)
	flag.Parse()
	if *user == "" && flag.NArg() > 0 {
		*user = flag.Arg(0)
	}
	if *user == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	// warnings about missing datasets go to stderr so the table stays clean
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	log := logger.Get().Named("lookup")

	svc := service.New(
		service.WithStore(repository.NewFileStore(cfg.DataDir)),
		service.WithConcurrency(cfg.LookupConcurrency),
		service.WithSourceKind("fs"),
	)

	results, err := svc.Results(ctx, *user)
	if err != nil {
		log.Error(ctx, "lookup failed", logger.String("user", *user), logger.Error(err))
		os.Exit(2)
	}
	if err := termview.Render(os.Stdout, *user, results); err != nil {
		log.Error(ctx, "render failed", logger.Error(err))
		os.Exit(1)
	}
}
