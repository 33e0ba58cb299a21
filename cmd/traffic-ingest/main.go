package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/citygrid/traffic-scan/internal/config"
	"github.com/citygrid/traffic-scan/internal/ingest"
	"github.com/citygrid/traffic-scan/internal/scheduler"
	"github.com/citygrid/traffic-scan/internal/store"
	"github.com/citygrid/traffic-scan/internal/traffic"
	"github.com/citygrid/traffic-scan/internal/traffic/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	rows := flag.Int("rows", cfg.GridRows, "grid rows")
	cols := flag.Int("cols", cfg.GridCols, "grid columns")
	interval := flag.Int("interval", 0, "minutes between runs; 0 = once")
	iterations := flag.Int("iterations", 1, "how many cycles to run if interval > 0")
	flag.Parse()

	// Hard requirement before any network call is attempted.
	if cfg.TomTomAPIKey == "" {
		log.Fatal("TOMTOM_API_KEY missing — set it in the environment or .env")
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store at %s: %v", cfg.DBPath, err)
	}
	defer st.Close()

	log.Printf("ingest starting: db=%s grid=%dx%d", st.Path, *rows, *cols)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	provider := providers.NewTomTomProvider(httpClient, cfg.TomTomAPIKey)
	svc := ingest.NewService(st, provider, cfg.HTTPTimeout)

	points := traffic.Grid(cfg.BBoxSW, cfg.BBoxNE, *rows, *cols)

	iters := *iterations
	if iters < 1 {
		iters = 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(points, time.Duration(*interval)*time.Minute, iters, svc)
	if err := sched.Run(ctx); err != nil {
		log.Fatalf("ingest stopped: %v", err)
	}
}
