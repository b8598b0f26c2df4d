package main

import (
	"testing"

	"github.com/ayusman/marionette/internal/app"
	"github.com/ayusman/marionette/internal/state"
)

func TestBindTray_FollowsSettings(t *testing.T) {
	a := app.New(app.DefaultConfig())
	tr := bindTray(a, "http://localhost:8090/", func() {})

	if !tr.IsEnabled() || tr.Intensity() != 1 {
		t.Fatalf("initial tray enabled=%v intensity=%v", tr.IsEnabled(), tr.Intensity())
	}

	if _, err := a.UpdateSettings(func(s *state.Settings) {
		s.TrackingEnabled = false
		s.PhysicsIntensity = 1.5
	}); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if tr.IsEnabled() || tr.Intensity() != 1.5 {
		t.Errorf("tray enabled=%v intensity=%v, want false 1.5", tr.IsEnabled(), tr.Intensity())
	}

	a.SetEnabled(true)
	if !tr.IsEnabled() {
		t.Error("tray still paused after tracking resumed")
	}
}

func TestViewerURL(t *testing.T) {
	tests := []struct{ addr, want string }{
		{":8090", "http://localhost:8090/"},
		{"127.0.0.1:9000", "http://127.0.0.1:9000/"},
	}
	for _, tt := range tests {
		if got := viewerURL(tt.addr); got != tt.want {
			t.Errorf("viewerURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}
