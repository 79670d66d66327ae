package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusevents/internal/bookmark"
	"campusevents/internal/capture"
	"campusevents/internal/config"
	appLog "campusevents/internal/log"
	"campusevents/internal/records"
	"campusevents/internal/site"
	"campusevents/internal/web"
)

const version = "0.3.0"

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	capture    bool
	debug      bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.capture {
		conf.Preview.Enabled = true
	}
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	} else {
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	}

	appLog.Info("campusevents starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"refresh", conf.RefreshCron,
		"data_source", conf.DataSource,
		"ics_feeds", len(conf.Feeds),
		"bookmarks", conf.Bookmarks.Backend,
		"preview", conf.Preview.Enabled,
		"once", flags.once,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf, flags); err != nil {
		appLog.Error("campusevents exited with error", err)
		os.Exit(1)
	}
	appLog.Info("campusevents exiting")
}

func run(ctx context.Context, conf *config.Config, flags flagConfig) error {
	loc, err := conf.Location()
	if err != nil {
		appLog.Warn("invalid timezone; using UTC", "timezone", conf.Timezone, "err", err)
	}

	previews := newPreviewer(conf)
	src := records.NewSource(conf.DataSource, conf.CacheDir, conf.FetchTimeout)
	feeds := make([]records.Feed, 0, len(conf.Feeds))
	for _, f := range conf.Feeds {
		feeds = append(feeds, records.Feed{ID: f.ID, URL: f.URL, Category: f.Category})
	}
	catalog := site.NewCatalog(src, site.Options{
		Location:               loc,
		RecurrenceWindowDays:   conf.RecurrenceWindowDays,
		MaxOccurrencesPerEvent: conf.MaxOccurrencesPerEvent,
		Feeds:                  feeds,
		FeedLoader:             records.NewFeedLoader(conf.CacheDir, conf.FetchTimeout, loc),
		AfterRefresh:           func(*site.Snapshot) { previews.request() },
	})

	kv, closeKV, err := bookmark.OpenKV(conf.Bookmarks.Backend, conf.Bookmarks.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeKV(); err != nil {
			appLog.Error("failed to close bookmark store", err)
		}
	}()

	server := web.NewServer(conf, catalog, bookmark.NewStore(kv), flags.debug)

	// The server starts first so a preview requested by the initial
	// refresh can load the calendar page.
	srvCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()
	srvErr := make(chan error, 1)
	go func() { srvErr <- server.Run(srvCtx) }()

	go previews.loop(srvCtx)

	refreshTimeout := 5 * conf.FetchTimeout
	initCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	snap := catalog.Refresh(initCtx)
	cancel()

	if flags.once {
		appLog.Info("single refresh finished",
			"events", len(snap.Events),
			"calendar_days", snap.Calendar.DayCount(),
			"unavailable", len(snap.Unavailable),
		)
		if conf.Preview.Enabled {
			previews.waitIdle(ctx)
		}
		stopServer()
		return ignoreClosed(<-srvErr)
	}

	refresher, err := site.StartRefresher(ctx, catalog, conf.RefreshCron, refreshTimeout)
	if err != nil {
		stopServer()
		<-srvErr
		return err
	}
	defer refresher.Stop()

	return ignoreClosed(<-srvErr)
}

func ignoreClosed(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// previewer captures /calendar.html after refreshes. Requests arriving
// while a capture runs collapse into one follow-up capture.
type previewer struct {
	conf    *config.Config
	pending chan struct{}
	idle    chan struct{}
}

func newPreviewer(conf *config.Config) *previewer {
	return &previewer{
		conf:    conf,
		pending: make(chan struct{}, 1),
		idle:    make(chan struct{}, 1),
	}
}

func (p *previewer) request() {
	if !p.conf.Preview.Enabled {
		return
	}
	select {
	case p.pending <- struct{}{}:
	default:
	}
}

func (p *previewer) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.pending:
		}
		p.captureOnce(ctx)
		select {
		case p.idle <- struct{}{}:
		default:
		}
	}
}

func (p *previewer) captureOnce(ctx context.Context) {
	target := p.conf.Preview.URL
	if target == "" {
		u, err := capture.LocalURL(p.conf.Listen)
		if err != nil {
			appLog.Error("preview: cannot derive calendar URL", err)
			return
		}
		target = u
	}
	start := time.Now()
	err := capture.CalendarPNG(ctx, capture.Options{
		URL:        target,
		OutputPath: p.conf.Preview.Path,
		Timeout:    p.conf.Preview.Timeout,
	})
	if err != nil {
		appLog.Error("preview capture failed", err, "url", target)
		return
	}
	appLog.Info("preview captured", "path", p.conf.Preview.Path, "took", time.Since(start).Round(time.Millisecond))
}

// waitIdle blocks until the first capture finishes or ctx ends.
func (p *previewer) waitIdle(ctx context.Context) {
	select {
	case <-p.idle:
	case <-ctx.Done():
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Load the data once, capture a preview if enabled, and exit")
	flag.BoolVar(&cfg.capture, "capture", false, "Capture a calendar preview PNG after every refresh")
	flag.BoolVar(&cfg.debug, "debug", false, "Debug logging and per-request access logs")

	flag.Parse()

	return cfg
}
