// Command statsctl prints the revenue statistics for one year, or follows
// settled fetch cycles published by the dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/blockedby/flight-stats/internal/config"
	"github.com/blockedby/flight-stats/internal/logger"
	"github.com/blockedby/flight-stats/internal/nats"
	"github.com/blockedby/flight-stats/internal/publisher"
	"github.com/blockedby/flight-stats/internal/stats"
	"github.com/blockedby/flight-stats/internal/statsapi"
	"github.com/blockedby/flight-stats/internal/view"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		return 2
	}

	year := flag.String("year", "", "year to show (2025, 2024 or 2023)")
	base := flag.String("base", cfg.StatsAPIBase, "statistics API base URL")
	timeout := flag.Duration("timeout", cfg.FetchTimeout, "request timeout")
	asJSON := flag.Bool("json", false, "print the view model as JSON")
	watch := flag.Bool("watch", false, "follow settled fetch cycles on NATS")
	flag.Parse()

	log, err := logger.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *watch {
		return watchCycles(ctx, cfg.NatsURL, log)
	}

	y, err := stats.ParseYear(*year, cfg.DefaultYear)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	client, err := statsapi.NewClient(statsapi.Config{BaseURL: *base, Timeout: *timeout}, log.Component("statsapi"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	st, err := view.NewFactory(client, view.WithLogger(log.Component("view"))).Load(ctx, y)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	m := view.Render(st)
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	} else if err := writeModel(os.Stdout, m); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if st.Phase == view.PhaseFailure {
		return 1
	}
	return 0
}

func watchCycles(ctx context.Context, natsURL string, log *logger.Logger) int {
	if natsURL == "" {
		fmt.Fprintln(os.Stderr, "NATS_URL is required for -watch")
		return 2
	}

	nc, err := nats.New(ctx, natsURL, log.Zerolog())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer nc.Close()

	fmt.Fprintf(os.Stderr, "watching %s, press Ctrl+C to stop\n", publisher.SubjectCycleSettled)

	err = nc.Watch(ctx, nats.StatsStream, publisher.SubjectCycleSettled, func(data []byte) error {
		var evt publisher.CycleSettledEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			log.Warn().Err(err).Msg("skipping malformed event")
			return nil
		}
		fmt.Println(formatEvent(evt))
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func formatEvent(evt publisher.CycleSettledEvent) string {
	line := fmt.Sprintf("%s  year=%d  outcome=%s  months=%d  took=%s",
		evt.SettledAt.Local().Format(time.TimeOnly), evt.Year, evt.Outcome, evt.Months,
		time.Duration(evt.DurationMS)*time.Millisecond)
	if evt.StatusCode != 0 {
		line += fmt.Sprintf("  status=%d", evt.StatusCode)
	}
	return line
}
