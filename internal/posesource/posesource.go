// Package posesource abstracts "where is the viewer, and what surface is
// in front of them right now". Two providers exist: one wrapping the
// host's hit-test API, one wrapping the device-orientation sensor.
package posesource

import (
	"github.com/arlock/arlock/internal/capability"
	"github.com/arlock/arlock/internal/pose"
)

// Sample is the per-frame output of a Source.
type Sample struct {
	// Hit is the nearest detected surface, nil when no surface was
	// detected this frame.
	Hit *pose.HitResult

	// Tier is the capability tier that produced the sample.
	Tier capability.Tier

	// Silent means the source is permanently unable to produce samples
	// (permission denied, API absent). Callers must treat silence
	// distinctly from a transient no-surface frame.
	Silent bool
}

// Source produces one Sample per frame tick.
type Source interface {
	// Sample is called exactly once per frame, inside the frame
	// callback, with the current frame sequence number.
	Sample(seq uint64) Sample

	// Stop releases the source's resources. Must be called before the
	// owning tier is abandoned.
	Stop()
}
