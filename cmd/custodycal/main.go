package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"custodycal/internal/calendar"
	"custodycal/internal/config"
	"custodycal/internal/custody"
	appLog "custodycal/internal/log"
	"custodycal/internal/model"
	"custodycal/internal/scheduler"
	"custodycal/internal/web"
)

const version = "0.1.0"

type flagConfig struct {
	configPath string
	envFile    string
	listen     string
	once       bool
	dump       bool
}

func main() {
	flags := parseFlags()

	// Environment overrides may live in a .env file next to the binary.
	if err := godotenv.Load(flags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		appLog.Warn("failed to load env file", "path", flags.envFile, "err", err)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	conf.ApplyEnv()
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	level, ok := appLog.ParseLevel(conf.LogLevel)
	if !ok {
		appLog.Warn("unknown log level; using info", "log_level", conf.LogLevel)
	}
	appLog.SetLevel(level)

	appLog.Info("custodycal starting", "version", version)

	family, err := conf.FamilyModel()
	if err != nil {
		appLog.Error("invalid family configuration", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"export_path", conf.Export.Path,
		"capture_url", conf.Capture.URL != "",
		"feeds", len(conf.Feeds),
		"activities", len(family.Activities),
		"once", flags.once,
		"dump", flags.dump,
	)

	if flags.dump {
		if err := dumpMonth(os.Stdout, conf.Location(), family, time.Now()); err != nil {
			appLog.Error("dump failed", err)
			os.Exit(1)
		}
		return
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	sched := scheduler.New(conf, family)
	if flags.once {
		if err := sched.RunOnce(ctx); err != nil {
			appLog.Error("refresh failed", err)
			os.Exit(1)
		}
		return
	}

	srv, err := web.NewServer(conf, family)
	if err != nil {
		appLog.Error("failed to create HTTP server", err)
		os.Exit(1)
	}
	defer srv.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx) })
	g.Go(func() error { return sched.Run(gctx) })

	if err := g.Wait(); err != nil {
		appLog.Error("custodycal stopped with error", err)
		os.Exit(1)
	}
	appLog.Info("custodycal exiting")
}

// dumpMonth writes the current month's visible range as JSON events.
func dumpMonth(w io.Writer, loc *time.Location, family model.Family, now time.Time) error {
	now = now.In(loc)
	start, end := calendar.VisibleRange(now.Year(), now.Month(), loc)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(custody.Generate(start, end, family))
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/custodycal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.envFile, "env", ".env", "Optional env file with CUSTODYCAL_* overrides")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one refresh (export + capture) and exit")
	flag.BoolVar(&cfg.dump, "dump", false, "Print the current month's events as JSON and exit")

	flag.Parse()

	return cfg
}
