package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/marionette/internal/app"
	"github.com/ayusman/marionette/internal/gesture"
	"github.com/ayusman/marionette/internal/log"
	"github.com/ayusman/marionette/internal/server"
	"github.com/ayusman/marionette/internal/state"
	"github.com/ayusman/marionette/internal/tray"
)

func main() {
	var (
		addr      = flag.String("addr", ":8080", "HTTP listen address")
		cameraID  = flag.Int("camera", 0, "camera device id")
		modelsDir = flag.String("models", "", "directory of extra skeleton files")
		model     = flag.String("model", "mixamo", "model mounted at startup")
		pluginDir = flag.String("plugins", "", "directory of gesture hooks")
		webDir    = flag.String("web", "", "viewer directory (searched for when empty)")
		logLevel  = flag.String("log-level", "info", "debug, info, warn or error")
		withTray  = flag.Bool("tray", false, "show the system tray menu")
		mirror    = flag.Bool("mirror", true, "mirror the camera image")
	)
	flag.Parse()

	log.Init(*logLevel)

	if err := run(*addr, *cameraID, *modelsDir, *model, *pluginDir, *webDir, *withTray, *mirror); err != nil {
		log.Error("marionette failed", "error", err)
		os.Exit(1)
	}
}

func run(addr string, cameraID int, modelsDir, model, pluginDir, webDir string, withTray, mirror bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := app.DefaultConfig()
	cfg.Camera.DeviceID = cameraID
	cfg.Camera.Mirror = mirror
	cfg.ModelsDir = modelsDir
	cfg.Model = model
	cfg.PluginDir = pluginDir

	a := app.New(cfg)
	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop()

	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		log.Info("serving viewer", "dir", webDir)
	}

	srvCfg := server.DefaultConfig()
	srvCfg.App = a
	srvCfg.StaticDir = webDir
	srv := server.New(srvCfg)

	errc := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe(ctx, addr)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errc <- err
		stop()
	}()

	if withTray {
		runTray(ctx, stop, a, viewerURL(addr))
	} else {
		<-ctx.Done()
	}

	log.Info("shutting down")
	if err := <-errc; err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// runTray blocks on the tray loop, which must own the main goroutine on
// macOS. Quitting from the menu cancels ctx.
func runTray(ctx context.Context, cancel context.CancelFunc, a *app.App, url string) {
	t := bindTray(a, url, cancel)
	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

// bindTray builds a tray wired to a. Settings changed through any surface
// are pushed back into the menu.
func bindTray(a *app.App, url string, quit func()) *tray.Tray {
	settings := a.Store().Settings()
	t := tray.New(settings.TrackingEnabled, settings.PhysicsIntensity)

	t.OnToggle(a.SetEnabled)
	t.OnResetView(func() { a.ResetView() })
	t.OnIntensity(func(v float64) {
		if _, err := a.UpdateSettings(func(s *state.Settings) { s.PhysicsIntensity = v }); err != nil {
			log.Error("set intensity", "error", err)
		}
	})
	t.OnOpenViewer(func() {
		if err := openBrowser(url); err != nil {
			log.Warn("open viewer", "url", url, "error", err)
		}
	})
	t.OnQuit(quit)
	a.OnGesture(func(g gesture.Type) { t.SetGesture(g.String()) })
	a.Store().Watch(func(s state.Settings) { t.SetSettings(s.TrackingEnabled, s.PhysicsIntensity) })
	return t
}

func viewerURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.marionette/web.
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

	homeWebDir := filepath.Join(homeDir, ".marionette", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
