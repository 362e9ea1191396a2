// knobmon watches one encoder on host GPIOs and publishes its decoded
// events over a WebSocket for dashboards and scripts.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dikkadev/prettyslog"
	"periph.io/x/host/v3"

	"detent"
	"detent/periphpin"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	pinA := flag.String("pin-a", "", "phase A pin name override")
	pinB := flag.String("pin-b", "", "phase B pin name override")
	pinKey := flag.String("pin-key", "", "key pin name override")
	divider := flag.Int("divider", 0, "quadrature divider override")
	accel := flag.Int("accel", 0, "acceleration factor override")
	accelProfile := flag.String("accel-profile", "", "acceleration profile override (default|relaxed)")
	pollMs := flag.Int("poll-ms", 0, "poll period override in milliseconds")
	listen := flag.String("listen", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug|info|warn|error)")
	flag.Parse()

	cfg := DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = LoadConfigFile(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	var o FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pin-a":
			o.PinA = pinA
		case "pin-b":
			o.PinB = pinB
		case "pin-key":
			o.PinKey = pinKey
		case "divider":
			o.Divider = divider
		case "accel":
			o.Acceleration = accel
		case "accel-profile":
			o.AccelProfile = accelProfile
		case "poll-ms":
			o.PollMs = pollMs
		case "listen":
			o.ListenAddr = listen
		case "log-level":
			o.LogLevel = logLevel
		}
	})
	o.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	level, _ := cfg.Logging.slogLevel()
	logger := slog.New(prettyslog.NewPrettyslogHandler("knobmon",
		prettyslog.WithLevel(level),
	))
	slog.SetDefault(logger)

	if _, err := host.Init(); err != nil {
		log.Fatalf("init gpio host: %v", err)
	}

	a, err := periphpin.Input(cfg.Encoder.PinA)
	if err != nil {
		log.Fatalf("phase A pin: %v", err)
	}
	b, err := periphpin.Input(cfg.Encoder.PinB)
	if err != nil {
		log.Fatalf("phase B pin: %v", err)
	}
	key, err := periphpin.Input(cfg.Encoder.PinKey)
	if err != nil {
		log.Fatalf("key pin: %v", err)
	}

	enc := detent.NewClockEncoder(a, b, key, cfg.Encoder.Divider, detent.SystemClock)
	enc.SetAcceleration(cfg.Encoder.Acceleration)
	profile, _ := cfg.Encoder.profile()
	enc.SetAccelProfile(profile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon := &monitor{logger: logger}
	hub := NewHub(logger, cfg.Server.SendBuf, mon.snapshotFrame)
	mon.hub = hub

	go hub.Run(ctx)
	go pollLoop(ctx, enc, mon, cfg.Encoder.pollPeriod(), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: mux}
	go func() {
		logger.Info("listening", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "err", err)
			stop()
		}
	}()

	logger.Info("watching encoder",
		"pinA", cfg.Encoder.PinA,
		"pinB", cfg.Encoder.PinB,
		"pinKey", cfg.Encoder.PinKey,
		"divider", cfg.Encoder.Divider,
		"acceleration", cfg.Encoder.Acceleration,
	)

	<-ctx.Done()
	logger.Info("interrupt received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("terminated gracefully")
}
