package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ayusman/kuchipudi/internal/app"
	"github.com/ayusman/kuchipudi/internal/config"
	"github.com/ayusman/kuchipudi/internal/hud"
	"github.com/ayusman/kuchipudi/internal/scrollaction"
	"github.com/ayusman/kuchipudi/internal/server"
	"github.com/ayusman/kuchipudi/internal/tray"
	"github.com/google/uuid"
)

func main() {
	fmt.Println("Kuchipudi - webcam pinch-to-scroll")

	configPath := flag.String("config", config.DefaultPath(), "path to config.toml")
	debug := flag.Bool("debug", false, "mount the debug MJPEG camera preview")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}
	dataDir := filepath.Join(homeDir, ".kuchipudi")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	var scroll scrollaction.ContinuousScrollAction
	if cfg.Scroll.Enabled {
		natural := false
		if cfg.Scroll.RespectSystemPreference {
			natural = scrollaction.ReadNaturalScrollingPreference()
		}
		qs := scrollaction.NewQuartzScroll(scrollaction.Config{
			PixelsPerUnit:    cfg.Scroll.PixelsPerUnit,
			MaxStepPx:        cfg.Scroll.MaxStepPx,
			NaturalScrolling: natural,
		})
		defer qs.Close()
		scroll = qs
	} else {
		scroll = scrollaction.NewNullScroll()
	}

	var hudBroadcaster *hud.Broadcaster
	if cfg.HUD.Enabled {
		token := cfg.HUD.Token
		if token == "" {
			token = uuid.NewString()
		}
		hudBroadcaster = hud.NewBroadcaster(hud.Config{
			SessionToken:    token,
			HudHz:           float64(cfg.HUD.HudHz),
			CameraHz:        float64(cfg.HUD.CameraHz),
			CameraFrameSkip: cfg.HUD.CameraFrameSkip,
			Position:        cfg.HUD.Position,
			Opacity:         cfg.HUD.Opacity,
		})
		fmt.Printf("HUD available at ws://127.0.0.1:%d/hud?token=%s\n", cfg.HUD.Port, token)
	}

	appCfg := app.Config{
		Cfg:    cfg,
		Scroll: scroll,
	}
	if hudBroadcaster != nil {
		appCfg.Hud = hudBroadcaster
	}
	application := app.New(appCfg)

	if err := application.Start(); err != nil {
		log.Fatalf("Failed to start scroll pipeline: %v", err)
	}
	defer application.Stop()
	application.SetEnabled(true)

	srvCfg := server.Config{
		StaticDir: webDir,
		Camera:    application.Camera(),
		Debug:     *debug && !cfg.Headless,
		Hud:       hudBroadcaster,
		App:       application,
	}
	srv := server.New(srvCfg)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.HUD.Port)
	fmt.Printf("Starting server on %s\n", addr)
	fmt.Println("Press Ctrl+C to stop")

	go func() {
		if err := srv.ListenAndServe(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if !cfg.Headless {
		t := tray.New()
		t.OnToggle(func(enabled bool) {
			application.SetEnabled(enabled)
		})
		t.OnOpenHud(func() {
			fmt.Printf("Open http://127.0.0.1:%d in your browser\n", cfg.HUD.Port)
		})
		t.OnQuit(func() {
			application.Stop()
			os.Exit(0)
		})
		go t.Run()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.kuchipudi/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".kuchipudi", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
