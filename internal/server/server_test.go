package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/marionette/internal/app"
)

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	rec := serve(s, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if _, ok := body["uptime"]; !ok {
		t.Error("missing uptime")
	}
	// No app: nothing about tracking is reported.
	for _, key := range []string{"session", "tracking", "viewers"} {
		if _, ok := body[key]; ok {
			t.Errorf("unexpected %q without an app", key)
		}
	}

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		if rec := serve(s, method, "/api/health"); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s /api/health = %d, want %d", method, rec.Code, http.StatusMethodNotAllowed)
		}
	}
}

func TestServer_Viewer(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"index.html": "<html><body><canvas id=\"rig\"></canvas></body></html>",
		"viewer.js":  "const feed = new WebSocket(\"/api/pose\");",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name     string
		config   Config
		path     string
		wantCode int
		wantBody string
	}{
		{"index at root", Config{StaticDir: dir}, "/", http.StatusOK, files["index.html"]},
		{"script", Config{StaticDir: dir}, "/viewer.js", http.StatusOK, files["viewer.js"]},
		{"missing file", Config{StaticDir: dir}, "/rig.glb", http.StatusNotFound, ""},
		{"no viewer configured", Config{}, "/", http.StatusNotFound, ""},
		{"unknown api route", Config{StaticDir: dir}, "/api/gestures", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(New(tt.config), http.MethodGet, tt.path)
			if rec.Code != tt.wantCode {
				t.Fatalf("GET %s = %d, want %d", tt.path, rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestNew_DefaultsPoseInterval(t *testing.T) {
	s := New(Config{StaticDir: "/srv/viewer"})
	if s.config.PoseInterval != DefaultConfig().PoseInterval {
		t.Errorf("PoseInterval = %v, want %v", s.config.PoseInterval, DefaultConfig().PoseInterval)
	}
	if s.feed != nil {
		t.Error("pose feed created without an app")
	}
	var _ http.Handler = s
}

func TestServer_HealthWithApp(t *testing.T) {
	a := app.New(app.DefaultConfig())
	s := New(Config{App: a})
	defer s.Close()

	var body map[string]any
	if err := json.NewDecoder(serve(s, http.MethodGet, "/api/health").Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["session"] != a.Session() {
		t.Errorf("session = %v, want %q", body["session"], a.Session())
	}
	if body["tracking"] != true {
		t.Errorf("tracking = %v, want true", body["tracking"])
	}
	if body["viewers"] != float64(0) {
		t.Errorf("viewers = %v, want 0", body["viewers"])
	}

	a.SetEnabled(false)
	body = nil
	if err := json.NewDecoder(serve(s, http.MethodGet, "/api/health").Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["tracking"] != false {
		t.Errorf("tracking = %v after pause, want false", body["tracking"])
	}
}

func TestServer_RoutesRequireApp(t *testing.T) {
	s := New(Config{})
	for _, path := range []string{"/api/state", "/api/settings", "/api/view/reset", "/api/models", "/api/pose"} {
		if rec := serve(s, http.MethodGet, path); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want %d", path, rec.Code, http.StatusNotFound)
		}
	}
}

func TestServer_ListenAndServe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- New(Config{}).ListenAndServe(ctx, addr) }()

	deadline := time.Now().Add(3 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/api/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("health = %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("ListenAndServe() error = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe() did not return after cancel")
	}
}
