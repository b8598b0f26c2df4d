// Package main is a gesture hook for macOS that presses a configured
// keyboard shortcut when a gesture starts, e.g. to drive slides or a
// streaming tool from the same hand gestures that move the rig.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request mirrors the hook request written by Marionette.
type Request struct {
	Event    string          `json:"event"`
	Gesture  string          `json:"gesture"`
	Previous string          `json:"previous"`
	Session  string          `json:"session"`
	State    json.RawMessage `json:"state"`
	Config   json.RawMessage `json:"config"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Shortcut is one key with optional modifiers.
type Shortcut struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// Config maps gesture names to shortcuts.
type Config struct {
	Keys map[string]Shortcut `json:"keys"`
}

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	sc, ok, err := shortcutFor(req)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}
	if !ok {
		// Not mapped: nothing to press.
		writeSuccessResponse()
		return
	}

	if err := runAppleScript(buildKeystrokeScript(sc.Key, sc.Modifiers)); err != nil {
		writeErrorResponse(fmt.Sprintf("keystroke for %s failed: %v", req.Gesture, err))
		return
	}
	writeSuccessResponse()
}

// shortcutFor looks up the shortcut configured for the request's gesture.
func shortcutFor(req Request) (Shortcut, bool, error) {
	if req.Event != "gesture" {
		return Shortcut{}, false, nil
	}
	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return Shortcut{}, false, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	sc, ok := cfg.Keys[req.Gesture]
	if !ok {
		return Shortcut{}, false, nil
	}
	if sc.Key == "" {
		return Shortcut{}, false, fmt.Errorf("key is required for %s", req.Gesture)
	}
	return sc, true, nil
}

// buildKeystrokeScript generates an AppleScript for the given key and modifiers.
func buildKeystrokeScript(key string, modifiers []string) string {
	var appleModifiers []string
	for _, mod := range modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`, key, strings.Join(appleModifiers, ", "))
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
