// Package reticle derives the targeting indicator's visibility and
// placement-candidate transform from the per-frame pose source output.
package reticle

import (
	"github.com/arlock/arlock/internal/pose"
	"github.com/arlock/arlock/internal/posesource"
)

// State is the ephemeral per-frame reticle state. It is recomputed every
// frame and never persisted.
type State struct {
	Visible bool
	Armed   bool
	Pose    pose.Pose
}

// Reticle tracks the current placement candidate. A commit is only
// accepted while armed; the armed transform at the instant of commit is
// the candidate passed to the anchor strategy selector.
type Reticle struct {
	state State
	seq   uint64
}

// New returns a reticle in the not-visible, not-armed state.
func New() *Reticle {
	return &Reticle{}
}

// Update consumes this frame's pose source sample. A hit makes the
// reticle visible and armed at the hit pose; anything else (no surface,
// silenced source, a hit left over from an earlier frame) disarms it.
func (r *Reticle) Update(seq uint64, s posesource.Sample) {
	if s.Hit == nil || s.Hit.StaleFor(seq) {
		r.state = State{}
		return
	}
	r.state = State{
		Visible: true,
		Armed:   true,
		Pose:    s.Hit.Pose,
	}
	r.seq = s.Hit.Seq
}

// Reset disarms the reticle. Called on tier transitions so a candidate
// from an abandoned pose source cannot be committed.
func (r *Reticle) Reset() {
	r.state = State{}
}

// State returns the current per-frame state.
func (r *Reticle) State() State {
	return r.state
}

// Armed reports whether a commit would currently be accepted.
func (r *Reticle) Armed() bool {
	return r.state.Armed
}

// Candidate returns the placement-candidate pose. ok is false while not
// armed; committing then must be a no-op.
func (r *Reticle) Candidate() (pose.Pose, bool) {
	if !r.state.Armed {
		return pose.Pose{}, false
	}
	return r.state.Pose, true
}
