// Command stats-stub serves canned statistics reports from a YAML fixture
// file, so the dashboard can run without the real API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blockedby/flight-stats/internal/logger"
	"github.com/blockedby/flight-stats/internal/stub"
)

func main() {
	fixtures := flag.String("fixtures", "fixtures/stats.yaml", "fixture file")
	port := flag.Int("port", 8090, "listen port")
	validate := flag.Bool("validate", false, "check the given fixture files and exit")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	if *validate {
		paths := flag.Args()
		if len(paths) == 0 {
			paths = []string{*fixtures}
		}
		os.Exit(validateFiles(paths))
	}

	log, err := logger.New(*level, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(2)
	}

	fx, err := stub.Load(*fixtures)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load fixtures")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           stub.NewHandler(fx, log.Component("stub")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().
		Int("port", *port).
		Str("path", fx.Path).
		Ints("years", fx.SortedYears()).
		Msg("stats stub listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("stats stub stopped")
}

func validateFiles(paths []string) int {
	failed := false
	for _, path := range paths {
		fx, err := stub.Load(path)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("✅ %s is valid (%d years)\n", path, len(fx.Years))
	}
	if failed {
		return 1
	}
	return 0
}
