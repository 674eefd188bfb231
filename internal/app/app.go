// Package app provides the main application logic for the Mudra hand
// pose detection system.
package app

import (
	"log"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/detect"
	"github.com/ayusman/mudra/internal/match"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracking"
)

// DefaultFrameRate is the detection loop rate when none is configured.
const DefaultFrameRate = 30

// Event is a detection lifecycle notification.
type Event struct {
	Type      string // "detected", "ongoing", "lost"
	Pose      *pose.Pose
	Timestamp time.Time
}

// EventSink receives detection events, one per transition or held
// frame. Sinks must not block: they are called from the frame loop.
type EventSink func(Event)

// Config holds configuration options for the application.
type Config struct {
	Store            *store.Store
	Source           tracking.Source
	PluginDir        string
	FrameRate        int
	Chirality        skeleton.Chirality
	HysteresisMargin float64
	Events           EventSink
}

// App orchestrates the detection loop, pose library, and action
// execution.
type App struct {
	config     Config
	source     tracking.Source
	detector   *detect.Detector
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor
	events     EventSink
	enabled    bool
	mu         sync.RWMutex
	stopCh     chan struct{}

	// diag is a copy of the detector's per-joint results taken after
	// each loop step, so HTTP readers never touch the detector's own
	// buffer while it is being rewritten.
	diagMu sync.RWMutex
	diag   map[skeleton.Chirality]match.Result
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.FrameRate <= 0 {
		config.FrameRate = DefaultFrameRate
	}

	a := &App{
		config:     config,
		source:     config.Source,
		pluginMgr:  plugin.NewManager(config.PluginDir),
		pluginExec: plugin.NewExecutor(0),
		events:     config.Events,
		enabled:    false,
	}

	a.detector = detect.New(detect.Config{
		Source:           config.Source,
		Chirality:        config.Chirality,
		HysteresisMargin: config.HysteresisMargin,
	})
	a.detector.OnDetected = func(p *pose.Pose) {
		log.Printf("Pose detected: %s", p.Name)
		a.emit("detected", p)
		a.executeAction("detected", p)
	}
	a.detector.OnOngoing = func(p *pose.Pose) {
		a.emit("ongoing", p)
	}
	a.detector.OnLost = func(p *pose.Pose) {
		log.Printf("Pose lost: %s", p.Name)
		a.emit("lost", p)
		a.executeAction("lost", p)
	}

	return a
}

// SetEnabled enables or disables pose detection.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether pose detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// LoadPoses loads reference poses from the database into the detector.
func (a *App) LoadPoses() error {
	if a.config.Store == nil {
		return nil
	}

	poses, err := a.config.Store.Poses().List()
	if err != nil {
		return err
	}

	for _, p := range poses {
		if p.Skeleton == nil {
			log.Printf("Skipping untrained pose: %s", p.Name)
			continue
		}
		a.detector.AddPose(p)
	}

	log.Printf("Loaded %d poses from database", len(poses))
	return nil
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// Start begins the detection loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	a.stopCh = make(chan struct{})
	go a.runLoop(a.stopCh)

	log.Println("Detection loop started")
	return nil
}

// Stop halts the detection loop and releases the tracking source.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	if a.source != nil {
		if err := a.source.Close(); err != nil {
			log.Printf("Error closing tracking source: %v", err)
		}
	}

	log.Println("Detection loop stopped")
}

// Detector returns the detection state machine.
func (a *App) Detector() *detect.Detector {
	return a.detector
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Source returns the tracking source.
func (a *App) Source() tracking.Source {
	return a.source
}

// Diagnostics returns the most recent per-joint match results keyed by
// hand chirality, as of the last frame loop step.
func (a *App) Diagnostics() map[skeleton.Chirality]match.Result {
	a.diagMu.RLock()
	defer a.diagMu.RUnlock()
	return a.diag
}

// snapshotDiagnostics copies the detector's result buffer for readers
// outside the frame loop.
func (a *App) snapshotDiagnostics() {
	results := a.detector.LastResults()
	snap := make(map[skeleton.Chirality]match.Result, len(results))
	for c, r := range results {
		snap[c] = r
	}
	a.diagMu.Lock()
	a.diag = snap
	a.diagMu.Unlock()
}

// emit forwards an event to the configured sink.
func (a *App) emit(eventType string, p *pose.Pose) {
	if a.events == nil {
		return
	}
	a.events(Event{
		Type:      eventType,
		Pose:      p,
		Timestamp: time.Now(),
	})
}

// executeAction looks up the action bound to a pose and runs its
// plugin. Execution happens off the frame loop; a slow plugin must not
// stall detection.
func (a *App) executeAction(eventType string, p *pose.Pose) {
	if a.config.Store == nil {
		return
	}

	action, err := a.config.Store.Actions().GetByPoseID(p.ID)
	if err != nil {
		log.Printf("Failed to look up action for %s: %v", p.Name, err)
		return
	}
	if action == nil || !action.Enabled {
		return
	}

	plug, err := a.pluginMgr.Get(action.PluginName)
	if err != nil {
		log.Printf("Plugin %q not found for pose %s", action.PluginName, p.Name)
		return
	}

	req := &plugin.Request{
		Action: action.ActionName,
		Pose:   p.Name,
		Event:  eventType,
		Config: action.Config,
	}

	go func() {
		resp, err := a.pluginExec.Execute(plug, req)
		if err != nil {
			log.Printf("Plugin %s failed: %v", action.PluginName, err)
			return
		}
		if !resp.Success {
			log.Printf("Plugin %s rejected action %s: %s", action.PluginName, action.ActionName, resp.Error)
		}
	}()
}
