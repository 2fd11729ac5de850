package hostsim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arlock/arlock/internal/host"
	"github.com/arlock/arlock/internal/pose"

	"github.com/go-gl/mathgl/mgl64"
)

// Trace is a recorded scenario: the session script plus a frame-by-frame
// sequence of hits, viewer poses, orientation readings, and placement
// commits. Traces are YAML documents replayed by `arlock replay`.
type Trace struct {
	Session SessionScript `yaml:"session"`
	Frames  []FrameScript `yaml:"frames"`
}

// SessionScript configures the simulated host for a trace.
type SessionScript struct {
	Reject      bool   `yaml:"reject"`
	Mode        string `yaml:"mode"`
	Anchors     bool   `yaml:"anchors"`
	AnchorError string `yaml:"anchor_error"`
	DenySensor  bool   `yaml:"deny_sensor"`
	DenyCamera  bool   `yaml:"deny_camera"`

	// Models lists the model references the simulated loader can
	// resolve. A "model:x" commit with x missing from this list fails
	// to load and places nothing.
	Models []string `yaml:"models"`
}

// Vec3Script is a YAML-friendly 3D point.
type Vec3Script struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Vec3 converts to an mgl64 vector.
func (v Vec3Script) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// AnglesScript is a YAML-friendly orientation reading in degrees.
type AnglesScript struct {
	Heading   float64 `yaml:"heading"`
	FrontBack float64 `yaml:"front_back"`
	LeftRight float64 `yaml:"left_right"`
}

// Angles converts to sensor angles.
func (a AnglesScript) Angles() pose.OrientationAngles {
	return pose.OrientationAngles{
		HeadingDeg:   a.Heading,
		FrontBackDeg: a.FrontBack,
		LeftRightDeg: a.LeftRight,
	}
}

// FrameScript is one frame of a trace. Zero-valued fields leave the
// corresponding host state unchanged for the frame.
type FrameScript struct {
	// Hit places the surface hit for this frame; Miss clears it.
	Hit  *Vec3Script `yaml:"hit"`
	Miss bool        `yaml:"miss"`

	// Viewer moves the simulated viewer.
	Viewer *Vec3Script `yaml:"viewer"`

	// Orientation pushes a sensor reading.
	Orientation *AnglesScript `yaml:"orientation"`

	// Commit requests a placement this frame: "cube", "sphere", or a
	// model reference like "model:chair".
	Commit string `yaml:"commit"`

	// Clear empties the scene this frame.
	Clear bool `yaml:"clear"`
}

// LoadTrace reads a YAML trace from disk.
func LoadTrace(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	return ParseTrace(data)
}

// ParseTrace decodes a YAML trace.
func ParseTrace(data []byte) (*Trace, error) {
	var t Trace
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing trace: %w", err)
	}
	return &t, nil
}

// Marshal encodes the trace back to YAML.
func (t *Trace) Marshal() ([]byte, error) {
	return yaml.Marshal(t)
}

// HostOptions converts the session script into simulator options.
func (s SessionScript) HostOptions() Options {
	opts := Options{
		RejectSession:   s.Reject,
		SessionMode:     host.SessionMode(s.Mode),
		SupportsAnchors: s.Anchors,
		DenySensor:      s.DenySensor,
		DenyCamera:      s.DenyCamera,
		Devices: []host.CameraDevice{
			{ID: "sim-back", Label: "Simulated Back Camera"},
			{ID: "sim-front", Label: "Simulated Front Camera"},
		},
	}
	if s.AnchorError != "" {
		opts.AnchorCreateErr = fmt.Errorf("%s", s.AnchorError)
	}
	return opts
}
