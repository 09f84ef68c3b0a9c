package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/i474232898/snowfall-check/internal/app"
	"github.com/i474232898/snowfall-check/internal/config"
	"github.com/i474232898/snowfall-check/internal/format"
	applog "github.com/i474232898/snowfall-check/internal/log"
	"github.com/i474232898/snowfall-check/internal/location"
	"github.com/i474232898/snowfall-check/internal/scheduler"
	"github.com/i474232898/snowfall-check/internal/weather"
)

func main() {
	var (
		rangeFlag = flag.String("range", "today", "date range: last-week, today or next-week")
		place     = flag.String("location", "", `place to check instead of detecting one, e.g. "Denver, CO"`)
		watch     = flag.Bool("watch", false, "keep refreshing and accept commands until interrupted")
		blizzard  = flag.Bool("blizzard", false, "start in blizzard theme")
		debug     = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := applog.Init(*debug || cfg.Debug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer applog.Sync()
	log := applog.Named("cli")

	r, err := weather.ParseDateRange(*rangeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components := app.New(cfg, nil)

	theme := format.ThemeNormal
	if *blizzard {
		theme = format.ThemeBlizzard
	}
	ctrl := location.NewController(components.Device, components.IP, components.Search,
		location.WithLogger(applog.Named("location")),
		location.WithTheme(theme),
	)

	v := newView(os.Stdout, components.Snowfall, components.Reverse, r, ctrl.Theme(), log)
	ctrl.Subscribe(v.follow)

	in := bufio.NewScanner(os.Stdin)
	if _, err := resolve(ctx, ctrl, *place, in, os.Stdout); err != nil {
		log.Errorw("no location", "error", err)
		os.Exit(1)
	}

	if err := v.render(ctx, false); err != nil {
		fmt.Fprintf(os.Stderr, "Could not load snowfall: %v\n", err)
		if !*watch {
			os.Exit(1)
		}
	}

	if !*watch {
		return
	}

	sched := scheduler.New(scheduler.RefreshFunc(func(ctx context.Context) error {
		return v.render(ctx, true)
	}), cfg.RefreshInterval, 2*cfg.HTTPTimeout, applog.Named("scheduler"))
	if err := sched.Start(); err != nil {
		log.Fatalw("failed to start scheduler", "error", err)
	}
	defer sched.Stop()

	// Scan blocks on stdin, so commands run beside the signal wait.
	done := make(chan error, 1)
	go func() {
		done <- runCommands(ctx, ctrl, v, in, os.Stdout)
	}()

	select {
	case <-ctx.Done():
	case err := <-done:
		if err != nil {
			log.Warnw("command loop stopped", "error", err)
		}
	}
}
