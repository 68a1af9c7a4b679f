package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/capture"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/collector"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/config"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/device"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/heartbeat"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/identity"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/media"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/messages"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/poller"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/service"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/state"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/web"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&configPath, "c", "", "Path to configuration file (short)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting activity monitoring agent",
		"version", version,
		"build_time", buildTime,
		"collector", cfg.Agent.Collector.BaseURL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stateMgr, err := state.NewManager(cfg.DatabasePath(), log)
	if err != nil {
		log.Error("Failed to open state store", "error", err)
		os.Exit(1)
	}
	defer stateMgr.Close()

	ffmpeg, err := media.NewFFmpeg(cfg.Agent.Audio.FFmpegPath, log)
	if err != nil {
		log.Error("ffmpeg is required for media capture", "error", err)
		os.Exit(1)
	}
	if version, err := ffmpeg.Version(); err == nil {
		log.Info("Using ffmpeg", "version", version)
	}

	ident := identity.NewResolver(stateMgr, log)
	client := collector.NewClient(collector.ClientConfig{
		BaseURL: cfg.Agent.Collector.BaseURL,
		Timeout: cfg.Agent.Collector.Timeout,
	}, log)

	camera := device.NewRTSPCamera(device.RTSPCameraConfig{
		FrontURL:    cfg.Agent.Camera.FrontURL,
		BackURL:     cfg.Agent.Camera.BackURL,
		ReadTimeout: cfg.Agent.Camera.Timeout,
	}, log)
	mic := device.NewFFmpegMicrophone(device.FFmpegMicrophoneConfig{
		Format: cfg.Agent.Audio.Format,
		Input:  cfg.Agent.Audio.Input,
	}, ffmpeg, log)

	var location device.LocationProvider
	if cfg.Agent.Location.FixURL != "" {
		location = device.NewHTTPLocationProvider(
			cfg.Agent.Location.FixURL,
			cfg.Agent.Capture.LocationTimeout,
			log,
		)
	} else {
		location = device.NewStaticLocationProvider(device.Location{
			Lat:      cfg.Agent.Location.Lat,
			Lon:      cfg.Agent.Location.Lon,
			Accuracy: cfg.Agent.Location.Accuracy,
		})
	}

	engine := capture.NewEngine(
		location,
		camera,
		mic,
		media.NewWebMFinalizer(ffmpeg),
		media.NewJPEGStillEncoder(ffmpeg),
		client,
		ident,
		capture.EngineConfig{
			RecordWindow:    cfg.Agent.Capture.RecordWindow,
			RecordGrace:     cfg.Agent.Capture.RecordGrace,
			SelfieWarmup:    cfg.Agent.Capture.SelfieWarmup,
			JPEGQuality:     cfg.Agent.Capture.JPEGQuality,
			LocationTimeout: cfg.Agent.Capture.LocationTimeout,
		},
		log,
	)

	svcMgr := service.NewManager(log)

	if cfg.Agent.Heartbeat.Enabled {
		svcMgr.Register(heartbeat.New(client, ident, heartbeat.Config{
			Interval: cfg.Agent.Heartbeat.Interval,
		}, log))
	}
	if cfg.Agent.Poll.Enabled {
		svcMgr.Register(poller.New(client, engine, ident, poller.Config{
			Interval: cfg.Agent.Poll.Interval,
		}, log))
	}

	var feed *messages.Feed
	if cfg.Agent.Messages.Enabled {
		feed = messages.New(client, stateMgr, ident, messages.Config{
			Interval:   cfg.Agent.Messages.Interval,
			DisplayTTL: cfg.Agent.Messages.DisplayTTL,
		}, nil, log)
		svcMgr.Register(feed)
	}
	if cfg.Agent.Web.Enabled {
		var feedView web.MessageFeed
		if feed != nil {
			feedView = feed
		} else {
			feedView = messages.NewStaticView(stateMgr)
		}
		svcMgr.Register(web.NewServer(web.ServerConfig{
			Host: cfg.Agent.Web.Host,
			Port: cfg.Agent.Web.Port,
		}, engine, feedView, ident, svcMgr, stateMgr.DB(), log))
	}

	if err := svcMgr.Start(ctx); err != nil {
		log.Error("Failed to start services", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("Received shutdown signal", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := svcMgr.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Shutdown complete")
}
