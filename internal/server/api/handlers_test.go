package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ayusman/marionette/internal/app"
	"github.com/ayusman/marionette/internal/gesture"
	"github.com/ayusman/marionette/internal/state"
)

// newTestApp creates an App with the built-in mixamo model mounted and no
// camera running.
func newTestApp(t *testing.T) *app.App {
	t.Helper()
	cfg := app.DefaultConfig()
	cfg.MotionGating = false
	return app.New(cfg)
}

func TestSettingsHandler_Get(t *testing.T) {
	h := NewSettingsHandler(newTestApp(t))

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var got state.Settings
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ModelID != "mixamo" || got.PhysicsIntensity != 1 || !got.TrackingEnabled {
		t.Errorf("unexpected settings %+v", got)
	}
}

func TestSettingsHandler_Put(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		check      func(t *testing.T, s state.Settings)
	}{
		{
			name:       "intensity",
			body:       `{"physicsIntensity": 1.5}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, s state.Settings) {
				if s.PhysicsIntensity != 1.5 || s.ModelID != "mixamo" {
					t.Errorf("settings = %+v", s)
				}
			},
		},
		{
			name:       "switch model and preset",
			body:       `{"modelId": "vrm", "preset": "sway"}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, s state.Settings) {
				if s.ModelID != "vrm" || s.Preset != state.PresetSway {
					t.Errorf("settings = %+v", s)
				}
			},
		},
		{
			name:       "pause tracking",
			body:       `{"trackingEnabled": false}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, s state.Settings) {
				if s.TrackingEnabled {
					t.Error("tracking still enabled")
				}
			},
		},
		{name: "intensity out of range", body: `{"physicsIntensity": 3}`, wantStatus: http.StatusBadRequest},
		{name: "unknown preset", body: `{"preset": "moonwalk"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown model", body: `{"modelId": "ghost"}`, wantStatus: http.StatusBadRequest},
		{name: "invalid json", body: `{`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t)
			h := NewSettingsHandler(a)

			req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				var e errorResponse
				if err := json.NewDecoder(rec.Body).Decode(&e); err != nil || e.Error == "" {
					t.Errorf("expected JSON error body, got %q", rec.Body.String())
				}
				want := state.DefaultSettings()
				want.ModelID = "mixamo"
				if got := a.Store().Settings(); got != want {
					t.Errorf("rejected update changed settings: %+v", got)
				}
				return
			}

			var got state.Settings
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			tt.check(t, got)
			if a.Store().Settings() != got {
				t.Errorf("store has %+v, response %+v", a.Store().Settings(), got)
			}
		})
	}
}

func TestSettingsHandler_MethodNotAllowed(t *testing.T) {
	h := NewSettingsHandler(newTestApp(t))
	for _, method := range []string{http.MethodPost, http.MethodDelete} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/api/settings", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
		}
	}
}

func TestStateHandler(t *testing.T) {
	a := newTestApp(t)
	a.Store().Publish(time.Now(), gesture.Verdict{Gesture: gesture.Rotate, RotationDelta: gesture.Vec2{X: 0.25}})
	a.Driver().Tick(1.0 / 60)

	rec := httptest.NewRecorder()
	NewStateHandler(a).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var got struct {
		Session string `json:"session"`
		Gesture struct {
			Gesture             string       `json:"gesture"`
			AccumulatedRotation gesture.Vec2 `json:"accumulatedRotation"`
			ZoomFactor          float64      `json:"zoomFactor"`
		} `json:"gesture"`
		Pose struct {
			Joints map[string]json.RawMessage `json:"joints"`
			Seq    uint64                     `json:"seq"`
		} `json:"pose"`
		Stats publishStats `json:"stats"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if got.Session != a.Session() {
		t.Errorf("session = %q, want %q", got.Session, a.Session())
	}
	if got.Gesture.Gesture != "ROTATE" || got.Gesture.AccumulatedRotation.X != 0.25 {
		t.Errorf("gesture = %+v", got.Gesture)
	}
	if got.Pose.Seq != 1 || len(got.Pose.Joints) == 0 {
		t.Errorf("pose seq=%d joints=%d", got.Pose.Seq, len(got.Pose.Joints))
	}
	if got.Stats.Published != 1 {
		t.Errorf("stats = %+v, want 1 published", got.Stats)
	}

	rec = httptest.NewRecorder()
	NewStateHandler(a).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/state", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST: expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestViewResetHandler(t *testing.T) {
	a := newTestApp(t)
	now := time.Now()
	a.Store().Publish(now, gesture.Verdict{Gesture: gesture.Rotate, RotationDelta: gesture.Vec2{X: 1}})
	a.Store().Publish(now.Add(time.Second), gesture.Verdict{Gesture: gesture.ZoomIn, DistanceDelta: 0.5})

	rec := httptest.NewRecorder()
	NewViewResetHandler(a).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/view/reset", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	g := a.Store().Gesture()
	if g.AccumulatedRotation != (gesture.Vec2{}) || g.ZoomFactor != 1 {
		t.Errorf("state after reset = %+v", g)
	}

	rec = httptest.NewRecorder()
	NewViewResetHandler(a).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/view/reset", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestModelsHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewModelsHandler(newTestApp(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/models", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var got listModelsResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Current != "mixamo" {
		t.Errorf("current = %q, want mixamo", got.Current)
	}
	ids := map[string]bool{}
	for _, m := range got.Models {
		ids[m.ID] = m.Builtin
	}
	if !ids["mixamo"] || !ids["vrm"] {
		t.Errorf("models = %+v, want builtin mixamo and vrm", got.Models)
	}
}
