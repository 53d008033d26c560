package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coclip/coclip-agent/internal/api"
	"github.com/coclip/coclip-agent/internal/catalog"
	"github.com/coclip/coclip-agent/internal/config"
	"github.com/coclip/coclip-agent/internal/db"
	"github.com/coclip/coclip-agent/internal/ids"
	"github.com/coclip/coclip-agent/internal/interaction"
	"github.com/coclip/coclip-agent/internal/logging"
	"github.com/coclip/coclip-agent/internal/pipeline"
	"github.com/coclip/coclip-agent/internal/placement"
	"github.com/coclip/coclip-agent/internal/playback"
	"github.com/coclip/coclip-agent/internal/timeline"
	"github.com/coclip/coclip-agent/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, dir := range []string{cfg.DataDir(), cfg.ThumbnailDir(), cfg.ExportDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting coclip agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := catalog.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                  COCLIP AGENT v%-26s ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Printf("║  Canvas:     %-45s ║\n", fmt.Sprintf("%dx%d @ %g fps", cfg.ProjectWidth(), cfg.ProjectHeight(), cfg.ProjectFPS()))
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	project := timeline.NewProject(timeline.ProjectConfig{
		Width:  cfg.ProjectWidth(),
		Height: cfg.ProjectHeight(),
		FPS:    cfg.ProjectFPS(),
	}, ids.New)
	doc := timeline.NewDocument(project,
		timeline.WithIDGenerator(ids.New),
		timeline.WithLogger(logging.WithComponent(logger, "timeline")),
	)

	clock := playback.NewClock()
	controller := interaction.NewController(doc, clock,
		interaction.WithGrid(placement.Grid{
			PixelsPerSecond:   cfg.PixelsPerSecond(),
			SnapInterval:      cfg.SnapInterval(),
			MagneticThreshold: placement.DefaultMagneticThreshold,
		}),
		interaction.WithLogger(logging.WithComponent(logger, "interaction")),
	)

	doctor := pipeline.NewCachedDoctor(&pipeline.ToolDoctor{
		FFmpegPath:  cfg.FFmpegPath(),
		FFprobePath: cfg.FFprobePath(),
		Logger:      logger,
	}, logger)

	initCtx, initCancel := context.WithTimeout(context.Background(), 15*time.Second)
	if caps, err := doctor.Refresh(initCtx); err != nil {
		logger.Warn("initial toolchain probe failed", "error", err)
	} else {
		logger.Info("media toolchain detected",
			"ffmpeg", caps.FFmpeg.Available,
			"ffprobe", caps.FFprobe.Available,
		)
		if !caps.CanProbe() {
			logger.Warn("ffprobe unavailable, imported media will have unknown duration")
		}
	}
	initCancel()

	toolchain := pipeline.NewToolchain(doctor,
		pipeline.NewExecFFmpeg(pipeline.ExecConfig{
			FFmpegPath:   cfg.FFmpegPath(),
			FFprobePath:  cfg.FFprobePath(),
			ProbeTimeout: cfg.ProbeTimeout(),
			Logger:       logger,
		}),
		pipeline.NewStubFFmpeg(logger),
	)

	catalogSvc := catalog.NewService(repo, toolchain, doc, cfg.ThumbnailDir(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := catalog.NewRunner(catalogSvc, repo, logger)
	go runner.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		Document:   doc,
		Controller: controller,
		Clock:      clock,
		Media:      playback.NewMediaServer(logger),
		Catalog:    catalogSvc,
		Repository: repo,
		Runner:     runner,
		Doctor:     doctor,
		ExportDir:  cfg.ExportDir(),
		Logger:     logger,
		StartTime:  startTime,
		Version:    config.Version,
		DeviceID:   deviceID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Document:   doc,
			Clock:      clock,
			Controller: controller,
			Runner:     runner,
			Logger:     logger,
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete", "clips", doc.Snapshot().ClipCount())
	return nil
}

func ensureDeviceID(repo catalog.Repository) (string, error) {
	return ensureSecret(repo, "device_id", 16)
}

func ensureAuthToken(repo catalog.Repository) (string, error) {
	return ensureSecret(repo, "auth_token", 32)
}

// ensureSecret returns the stored hex value for key, generating n random
// bytes on first run.
func ensureSecret(repo catalog.Repository, key string, n int) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, key)
	if err == nil && existing != "" {
		return existing, nil
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	value := hex.EncodeToString(buf)

	if err := repo.SetConfig(ctx, key, value); err != nil {
		return "", err
	}

	return value, nil
}
