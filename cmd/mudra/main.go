package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracking"
	"github.com/ayusman/mudra/internal/tray"
)

// config is read from the environment at startup.
type config struct {
	Addr             string  `env:"MUDRA_ADDR" envDefault:":8080"`
	DBPath           string  `env:"MUDRA_DB"`
	PluginDir        string  `env:"MUDRA_PLUGIN_DIR" envDefault:"plugins"`
	Replay           string  `env:"MUDRA_REPLAY"`
	ReplayLoop       bool    `env:"MUDRA_REPLAY_LOOP" envDefault:"true"`
	FrameRate        int     `env:"MUDRA_FRAME_RATE" envDefault:"30"`
	Chirality        string  `env:"MUDRA_CHIRALITY"`
	HysteresisMargin float64 `env:"MUDRA_HYSTERESIS"`
	NoTray           bool    `env:"MUDRA_NO_TRAY"`
}

func main() {
	fmt.Println("Mudra - Hand Pose Detection")

	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Failed to parse environment: %v", err)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		dbDir := filepath.Join(homeDir, ".mudra")
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		dbPath = filepath.Join(dbDir, "mudra.db")
	}

	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// The tracking source is injected here; without a recording the
	// daemon runs in server-only mode and the frame loop sees no hands.
	var source tracking.Source
	if cfg.Replay != "" {
		replay, err := tracking.NewReplaySource(cfg.Replay, cfg.ReplayLoop)
		if err != nil {
			log.Fatalf("Failed to open recording: %v", err)
		}
		fmt.Printf("Replaying %d frames from %s\n", replay.Len(), cfg.Replay)
		source = replay
	}

	hub := server.NewEventHub()

	t := tray.New()
	a := app.New(app.Config{
		Store:            st,
		Source:           source,
		PluginDir:        cfg.PluginDir,
		FrameRate:        cfg.FrameRate,
		Chirality:        skeleton.ParseChirality(cfg.Chirality),
		HysteresisMargin: cfg.HysteresisMargin,
		Events: func(ev app.Event) {
			hub.Publish(server.Event{
				Type:      ev.Type,
				PoseID:    ev.Pose.ID,
				PoseName:  ev.Pose.Name,
				Chirality: ev.Pose.Chirality.String(),
				Timestamp: ev.Timestamp.UnixMilli(),
			})
			if ev.Type == "detected" {
				t.SetLastPose(ev.Pose.Name)
			}
		},
	})

	if err := a.DiscoverPlugins(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}
	if err := a.LoadPoses(); err != nil {
		log.Fatalf("Failed to load poses: %v", err)
	}

	// Find web directory
	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:   webDir,
		Store:       st,
		Plugins:     a.PluginManager(),
		Events:      hub,
		Diagnostics: a.Diagnostics,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Addr)
		if err := srv.ListenAndServe(cfg.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	a.SetEnabled(true)
	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start detection loop: %v", err)
	}
	defer a.Stop()

	if cfg.NoTray {
		// Headless mode: block on the server goroutine forever.
		select {}
	}

	t.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
	})
	t.OnSettings(func() {
		openBrowser(settingsURL(cfg.Addr))
	})
	t.OnQuit(func() {
		a.Stop()
	})

	// Blocks until Quit is selected from the menu.
	t.Run()
}

// settingsURL turns a listen address into a browsable URL.
func settingsURL(addr string) string {
	if addr != "" && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// openBrowser opens url in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.mudra/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
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

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".mudra", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
