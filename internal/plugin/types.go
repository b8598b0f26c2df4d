// Package plugin runs external gesture hooks: executables that are told,
// over stdin, whenever the computed gesture changes.
package plugin

import "encoding/json"

// EventGesture is the only event sent today.
const EventGesture = "gesture"

// Manifest describes a hook, read from plugin.json in its directory.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Executable  string `json:"executable"`

	// Gestures lists the gesture names the hook subscribes to. Empty
	// subscribes to every change.
	Gestures []string `json:"gestures,omitempty"`

	// Config is passed through untouched on every request.
	Config json.RawMessage `json:"config,omitempty"`
}

// Request is written to the hook's stdin as one JSON document.
type Request struct {
	Event    string          `json:"event"`
	Gesture  string          `json:"gesture"`
	Previous string          `json:"previous"`
	Session  string          `json:"session"`
	State    json.RawMessage `json:"state,omitempty"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// Response is read from the hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered hook with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Subscribes reports whether the hook wants to hear about gesture g.
func (p *Plugin) Subscribes(g string) bool {
	if len(p.Manifest.Gestures) == 0 {
		return true
	}
	for _, want := range p.Manifest.Gestures {
		if want == g {
			return true
		}
	}
	return false
}
