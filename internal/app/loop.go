package app

import (
	"time"
)

// runLoop is the main detection loop. It steps the detector once per
// frame interval; all matching, hysteresis, and event emission happens
// inside the detector's state machine.
//
// Loop logic:
// 1. Tick at the configured frame rate
// 2. Skip frames while detection is disabled
// 3. Step the detector: pull one frame, match, fire transitions
//
// A failing or exhausted source is handled by the detector itself and
// behaves like empty frames, so the loop never needs to distinguish
// source errors from idle hands.
func (a *App) runLoop(stopCh chan struct{}) {
	interval := time.Second / time.Duration(a.config.FrameRate)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}
			a.detector.Step()
			a.snapshotDiagnostics()
		}
	}
}
