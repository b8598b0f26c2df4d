package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand landmark trackers.
type Detector interface {
	// Detect analyzes a video frame and returns up to MaxHands tracked hands.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand tracking.
type Config struct {
	// MaxHands is the maximum number of hands to track. The gesture pipeline
	// consumes at most two.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ScriptPath overrides discovery of the tracker service script.
	ScriptPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}

// Filter drops hands scoring below minScore and keeps at most maxHands,
// preserving detector order.
func Filter(hands []HandLandmarks, minScore float64, maxHands int) []HandLandmarks {
	out := make([]HandLandmarks, 0, len(hands))
	for _, h := range hands {
		if h.Score < minScore {
			continue
		}
		out = append(out, h)
		if maxHands > 0 && len(out) == maxHands {
			break
		}
	}
	return out
}
