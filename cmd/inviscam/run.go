package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phinze/inviscam/internal/action"
	"github.com/phinze/inviscam/internal/analytics"
	"github.com/phinze/inviscam/internal/camera"
	"github.com/phinze/inviscam/internal/camera/sim"
	"github.com/phinze/inviscam/internal/config"
	"github.com/phinze/inviscam/internal/coordinator"
	"github.com/phinze/inviscam/internal/emulator"
	"github.com/phinze/inviscam/internal/emulator/gui"
	"github.com/phinze/inviscam/internal/gesture"
	"github.com/phinze/inviscam/internal/loop"
	"github.com/phinze/inviscam/internal/mediastore"
	"github.com/phinze/inviscam/internal/module"
	"github.com/phinze/inviscam/internal/overlay"
	"github.com/phinze/inviscam/internal/profile"
	"github.com/phinze/inviscam/internal/remote"
	"github.com/phinze/inviscam/internal/render"
	"github.com/phinze/inviscam/internal/statusws"
	"github.com/phinze/inviscam/internal/window"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	cleanupTimeout  = 2 * time.Second
	previewInterval = 200 * time.Millisecond
	previewQuality  = 70
)

type runOptions struct {
	headless    bool
	emulateDeck bool
	profile     string
	width       int
	height      int
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the overlay service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runService(cmd.Context(), runOpts)
	},
}

func init() {
	f := runCmd.Flags()
	f.BoolVar(&runOpts.headless, "headless", false, "run without a window")
	f.BoolVar(&runOpts.emulateDeck, "emulate-deck", false, "drive the remote from an emulated Stream Deck in the window")
	f.StringVar(&runOpts.profile, "profile", "", "profile to start right away")
	f.IntVar(&runOpts.width, "width", 432, "screen width")
	f.IntVar(&runOpts.height, "height", 768, "screen height")
}

func runService(parent context.Context, opts runOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(cfg)

	var startID profile.ID
	if opts.profile != "" {
		if startID, err = profile.ParseID(opts.profile); err != nil {
			return err
		}
	}
	if opts.headless && opts.emulateDeck {
		return errors.New("--emulate-deck needs a window")
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := loop.New(logger)
	store := profile.NewStore(cfg.ProfilesFile, l, logger)
	if err := store.Load(); err != nil {
		logger.Warn("Loading profiles failed, using defaults", "error", err)
	}

	r, err := render.New()
	if err != nil {
		return fmt.Errorf("loading renderer: %w", err)
	}

	sink, httpSink := analyticsSink(cfg, logger)

	var host overlay.Host
	var screen *emulator.Screen
	if opts.headless {
		host = overlay.NewHeadless(window.Metrics{OuterWidth: opts.width, OuterHeight: opts.height}.Normalize(), logger)
	} else {
		screen = emulator.NewScreen(opts.width, opts.height, logger)
		host = screen
	}

	var stream *statusws.Stream
	var frames camera.PreviewSink
	if cfg.Status.Addr != "" {
		stream = statusws.NewStream(previewInterval, previewQuality)
		frames = stream
	}

	camCfg := sim.DefaultConfig()
	camCfg.Width, camCfg.Height, camCfg.FPS = cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS
	camCfg.MinZoom, camCfg.MaxZoom = cfg.Camera.MinZoom, cfg.Camera.MaxZoom
	camCfg.FFmpeg = cfg.Camera.FFmpeg

	coord := coordinator.New(ctx, coordinator.Options{
		Scheduler: l,
		Store:     store,
		Host:      host,
		Provider:  sim.NewProvider(l, camCfg, logger),
		Media:     mediastore.New(cfg.MediaDir),
		Analytics: analytics.NewRecorder(sink),
		Renderer:  r,
		Gestures:  gesture.DefaultConfig(),
		Logger:    logger,
		Frames:    frames,
		Audio:     cfg.Camera.Audio,
	})

	// The loop outlives ctx so the session can be torn down on it.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.Run(loopCtx) })

	if httpSink != nil {
		g.Go(func() error { return httpSink.Run(gctx) })
	}

	if cfg.Status.Addr != "" {
		srv := statusws.NewServer(statusws.Bridge{Coordinator: coord, Loop: l}, stream, statusws.ServerConfig{}, logger)
		g.Go(func() error { return srv.Run(gctx, cfg.Status.Addr) })
	}

	reconnect := make(chan struct{}, 1)
	var deck *emulator.Deck
	if opts.emulateDeck {
		deck = emulator.NewDeck()
	}
	if cfg.Remote.Enabled || deck != nil {
		rem := remote.New(coord, store, l, r, cfg.Remote.Brightness, logger)
		g.Go(func() error {
			if deck != nil {
				return rem.Run(gctx, deck)
			}
			superviseDeck(gctx, rem, openHardware, reconnect, logger.With("component", "deck"))
			return nil
		})
	}

	asleep, awake := watchPower(gctx, logger)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-asleep:
				l.Post(func() { coord.Do(action.EnterSleepMode) })
			case <-awake:
				l.Post(func() { coord.Do(action.ExitSleepMode) })
				notify(reconnect)
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		err := l.Call(cleanupCtx, func() {
			coord.Close()
			if err := store.Save(); err != nil {
				logger.Warn("Saving profiles failed", "error", err)
			}
		})
		if err != nil {
			logger.Warn("Cleanup timed out", "error", err)
		}
		stopLoop()
		return nil
	})

	if opts.profile != "" {
		l.Post(func() {
			if err := coord.Start(startID, false, module.StartMain); err != nil {
				logger.Error("Failed to start session", "profile", startID, "error", err)
			}
		})
	}

	logger.Info("Ready!", "headless", opts.headless, "remote", cfg.Remote.Enabled || deck != nil, "status", cfg.Status.Addr)

	if screen != nil {
		// The window must own the main goroutine; closing it ends the service.
		if err := gui.New(gctx, "InvisCam", screen, deck).Run(); err != nil {
			logger.Error("Emulator window failed", "error", err)
		}
		stop()
	}
	return g.Wait()
}

// analyticsSink logs every event and also posts them when an endpoint is
// configured. The HTTP sink, when present, must be run.
func analyticsSink(cfg *config.Config, logger *slog.Logger) (analytics.Sink, *analytics.HTTPSink) {
	logSink := analytics.LogSink{Logger: logger.With("component", "analytics")}
	if cfg.Analytics.Endpoint == "" {
		return logSink, nil
	}
	h := analytics.NewHTTPSink(analytics.HTTPConfig{
		Endpoint:  cfg.Analytics.Endpoint,
		Token:     cfg.Analytics.Token,
		BatchSize: cfg.Analytics.Batch,
		Interval:  cfg.Analytics.Flush,
	}, logger)
	return analytics.MultiSink{logSink, h}, h
}

func notify(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
