package app

import (
	"context"
	"encoding/json"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/marionette/internal/detector"
	"github.com/ayusman/marionette/internal/gesture"
	"github.com/ayusman/marionette/internal/log"
	"github.com/ayusman/marionette/internal/plugin"
	"github.com/ayusman/marionette/internal/state"
)

// detectLoop is the only writer of gesture state. Each tick it reads one
// frame, skips it while tracking is off or the scene is still, and runs the
// rest through the detector and the state machine.
func (a *App) detectLoop(ctx context.Context) {
	defer a.wg.Done()

	a.mu.RLock()
	cam := a.camera
	a.mu.RUnlock()

	ticker := time.NewTicker(time.Second / time.Duration(max(cam.FPS(), 1)))
	defer ticker.Stop()

	tracking := true
	gated := false
	readErrs, detectErrs := 0, 0

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !a.IsEnabled() {
				if tracking {
					tracking = false
					a.clearHands(now)
					log.Info("tracking paused")
				}
				continue
			}
			if !tracking {
				tracking = true
				log.Info("tracking resumed")
			}

			frame, err := cam.ReadFrame()
			if err != nil {
				// Log and settle on the first failure of a streak only.
				if readErrs == 0 {
					log.Warn("read frame", "error", err)
					a.clearHands(now)
				}
				readErrs++
				continue
			}
			if readErrs > 0 {
				log.Info("camera recovered", "failed_reads", readErrs)
				readErrs = 0
			}

			if a.cfg.MotionGating {
				open, changed := a.gate.Observe(frame, now)
				if changed {
					log.Info("motion gate", "open", open)
				}
				if !open {
					frame.Close()
					if !gated {
						gated = true
						a.clearHands(now)
					}
					continue
				}
				gated = false
			}

			_, err = a.ProcessFrame(frame, now)
			frame.Close()
			if err != nil {
				if detectErrs == 0 {
					log.Warn("detect hands", "error", err)
					a.clearHands(now)
				}
				detectErrs++
				continue
			}
			if detectErrs > 0 {
				log.Info("detector recovered", "failed_frames", detectErrs)
				detectErrs = 0
			}
		}
	}
}

// clearHands feeds an empty frame so no stale centroid survives a pause,
// then forces the idle state past the publish throttle.
func (a *App) clearHands(now time.Time) {
	a.ProcessHands(nil, now)
	a.announce(a.store.Settle(now))
}

// ProcessFrame runs hand detection on one frame and feeds the result to the
// state machine.
func (a *App) ProcessFrame(frame *gocv.Mat, now time.Time) (gesture.Verdict, error) {
	d := a.Detector()
	if d == nil {
		return a.ProcessHands(nil, now), nil
	}
	hands, err := d.Detect(frame)
	if err != nil {
		return gesture.Verdict{}, err
	}
	return a.ProcessHands(hands, now), nil
}

// ProcessHands classifies detector output and advances the state machine.
// It must only be called from one goroutine at a time.
func (a *App) ProcessHands(hands []detector.HandLandmarks, now time.Time) gesture.Verdict {
	classified := make([]*gesture.Hand, 0, len(hands))
	for _, lm := range hands {
		if h := gesture.FromLandmarks(lm); h != nil {
			classified = append(classified, h)
		}
	}
	left, right := gesture.SplitHands(classified)

	v := a.machine.Process(left, right, now)
	if v.Published {
		a.announce(a.pub.last)
	}
	return v
}

// announce tells listeners and hooks about a published snapshot whose
// gesture differs from the last one announced. Throttled verdicts never
// get here.
func (a *App) announce(g state.GestureState) {
	prev := a.announced
	if g.Gesture == prev {
		return
	}
	a.announced = g.Gesture
	log.Debug("gesture", "from", prev.String(), "to", g.Gesture.String())

	a.mu.RLock()
	listeners := a.listeners
	a.mu.RUnlock()
	for _, fn := range listeners {
		fn(g.Gesture)
	}

	if a.hooks == nil {
		return
	}
	req, err := a.hookRequest(prev, g)
	if err != nil {
		log.Error("encode gesture state", "error", err)
		return
	}
	if !a.hooks.Notify(req) {
		log.Debug("hook queue full, event dropped", "gesture", req.Gesture)
	}
}

// hookRequest builds the hook event for a published snapshot.
func (a *App) hookRequest(prev gesture.Type, g state.GestureState) (plugin.Request, error) {
	snapshot, err := json.Marshal(g)
	if err != nil {
		return plugin.Request{}, err
	}
	return plugin.Request{
		Event:    plugin.EventGesture,
		Gesture:  g.Gesture.String(),
		Previous: prev.String(),
		Session:  a.session,
		State:    snapshot,
	}, nil
}

// renderLoop advances the rig at the render rate. It only reads gesture
// state.
func (a *App) renderLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(a.cfg.RenderFPS))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.driver.Tick(now.Sub(last).Seconds())
			last = now
		}
	}
}
