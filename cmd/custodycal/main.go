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

	"github.com/robfig/cron/v3"

	"custodycal/internal/config"
	"custodycal/internal/custody"
	appLog "custodycal/internal/log"
	"custodycal/internal/metrics"
	"custodycal/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values; non-empty values override the config file.
type flagConfig struct {
	configPath string
	listen     string
	timezone   string
	logLevel   string
	once       bool
}

func main() {
	flags := parseFlags(os.Args[1:])
	if err := run(flags); err != nil {
		appLog.Error("custodycal failed", err)
		os.Exit(1)
	}
}

func run(flags flagConfig) error {
	appLog.Info("custodycal starting", "version", version)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", flags.configPath, err)
	}
	if err := conf.ApplyEnv(); err != nil {
		return fmt.Errorf("apply %s* environment: %w", config.EnvPrefix, err)
	}
	applyFlags(conf, flags)

	if err := appLog.SetLevelString(conf.LogLevel); err != nil {
		appLog.Warn("unknown log level; keeping info", "log_level", conf.LogLevel)
	}

	loc := resolveLocationOrLocal(conf.Timezone)
	appLog.Info("effective config",
		"config_path", flags.configPath,
		"listen", conf.Listen,
		"timezone", loc.String(),
		"refresh", conf.RefreshCron,
		"schedule_map", conf.ScheduleMap,
		"schedules", len(conf.Schedules),
		"once", flags.once,
	)

	p := &pipeline{
		cfg:     conf,
		loc:     loc,
		metrics: metrics.NewRecorder(),
		now:     time.Now,
	}

	if flags.once {
		res, err := p.run()
		if err != nil {
			return err
		}
		logSummary(res)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(ctx, conf, p)
}

// serve runs the HTTP API and the cron-driven refresh until ctx is done.
func serve(ctx context.Context, conf *config.Config, p *pipeline) error {
	p.server = web.NewServer(conf, p.metrics.Handler())

	// A failed initial run still starts the server; it answers 503 until a
	// refresh succeeds.
	_, _ = p.run()

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{})))
	if _, err := c.AddFunc(conf.RefreshCron, func() { _, _ = p.run() }); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", conf.RefreshCron, err)
	}
	c.Start()

	srv := &http.Server{
		Addr:              conf.Listen,
		Handler:           p.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		appLog.Info("signal received, shutting down")
	case serveErr = <-errCh:
	}

	<-c.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("http shutdown failed", err)
	}
	appLog.Info("custodycal exiting")
	return serveErr
}

func parseFlags(args []string) flagConfig {
	var cfg flagConfig

	fs := flag.NewFlagSet("custodycal", flag.ExitOnError)
	fs.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	fs.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	fs.StringVar(&cfg.timezone, "tz", "", "IANA timezone for exported events (overrides config if set)")
	fs.StringVar(&cfg.logLevel, "log-level", "", "debug, info, warn or error (overrides config if set)")
	fs.BoolVar(&cfg.once, "once", false, "Compute once, write the output files and exit")

	_ = fs.Parse(args)
	return cfg
}

func applyFlags(conf *config.Config, flags flagConfig) {
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.timezone != "" {
		conf.Timezone = flags.timezone
	}
	if flags.logLevel != "" {
		conf.LogLevel = flags.logLevel
	}
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func logSummary(res *custody.Result) {
	overall := res.Summary.Overall()
	for _, c := range res.Summary.Custodians() {
		kv := []any{"custodian", c, "hours", fmt.Sprintf("%.2f", overall.Custody[c].Hours())}
		if pct, ok := overall.Percent(c); ok {
			kv = append(kv, "percent", fmt.Sprintf("%.2f", pct))
		}
		if pct, ok := overall.InteractionPercent(c); ok {
			kv = append(kv, "interaction_percent", fmt.Sprintf("%.2f", pct))
		}
		appLog.Info("overall custody", kv...)
	}
	if u := overall.Unassigned(); u > 0 {
		appLog.Warn("weeks without a schedule", "unassigned_hours", fmt.Sprintf("%.2f", u.Hours()))
	}
}

// cronLogger routes cron's own messages through the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
