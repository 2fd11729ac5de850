package bridge

import (
	"encoding/json"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/arlock/arlock/internal/pose"
)

// Envelope is the framing for every bridge message, both directions.
// Requests carry a sequence number echoed by their response; push
// messages use seq 0.
type Envelope struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message types, core → remote host.
const (
	msgRequestSession   = "request-session"
	msgEndSession       = "end-session"
	msgCreateAnchor     = "create-anchor"
	msgDetachAnchor     = "detach-anchor"
	msgRequestSensor    = "request-sensor-permission"
	msgEnumerateDevices = "enumerate-devices"
	msgOpenStream       = "open-stream"
	msgStopStream       = "stop-stream"
	msgObjectTransforms = "object-transforms"
	msgStatus           = "status"
)

// Control messages, remote UI → core.
const (
	msgEnterAR      = "enter-ar"
	msgExitAR       = "exit-ar"
	msgCommit       = "commit"
	msgClearScene   = "clear-scene"
	msgSwitchCamera = "switch-camera"
)

// Message types, remote host → core.
const (
	msgSessionGranted = "session-granted"
	msgAnchorCreated  = "anchor-created"
	msgPermissionOK   = "permission-granted"
	msgDeviceList     = "devices"
	msgStreamOpened   = "stream-opened"
	msgError          = "error"
	msgFrame          = "frame"
	msgOrientation    = "orientation"
	msgSessionEnded   = "session-ended"
	msgAck            = "ack"
)

// poseWire is a pose on the wire.
type poseWire struct {
	PX float64 `json:"px"`
	PY float64 `json:"py"`
	PZ float64 `json:"pz"`
	QX float64 `json:"qx"`
	QY float64 `json:"qy"`
	QZ float64 `json:"qz"`
	QW float64 `json:"qw"`
}

func toWire(p pose.Pose) poseWire {
	return poseWire{
		PX: p.Position.X(), PY: p.Position.Y(), PZ: p.Position.Z(),
		QX: p.Orientation.V.X(), QY: p.Orientation.V.Y(), QZ: p.Orientation.V.Z(),
		QW: p.Orientation.W,
	}
}

func (w poseWire) pose(frame pose.Frame) pose.Pose {
	return pose.Pose{
		Position:    mgl64.Vec3{w.PX, w.PY, w.PZ},
		Orientation: mgl64.Quat{W: w.QW, V: mgl64.Vec3{w.QX, w.QY, w.QZ}},
		Frame:       frame,
	}
}

// Payload shapes.

type sessionRequestPayload struct {
	RequiredFeatures []string `json:"required_features"`
	OptionalFeatures []string `json:"optional_features"`
}

type sessionGrantedPayload struct {
	Mode            string `json:"mode"`
	SupportsAnchors bool   `json:"supports_anchors"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type framePayload struct {
	Viewer *poseWire `json:"viewer,omitempty"`
	Hit    *poseWire `json:"hit,omitempty"`

	// AnchorPoses carries this frame's resolved native anchor poses,
	// keyed by anchor ID. An anchor missing from the map is
	// untrackable this frame.
	AnchorPoses map[string]poseWire `json:"anchor_poses,omitempty"`
}

type orientationPayload struct {
	Heading   float64 `json:"heading"`
	FrontBack float64 `json:"front_back"`
	LeftRight float64 `json:"left_right"`
}

type createAnchorPayload struct {
	Pose poseWire `json:"pose"`
}

type anchorCreatedPayload struct {
	AnchorID string `json:"anchor_id"`
}

type detachAnchorPayload struct {
	AnchorID string `json:"anchor_id"`
}

type devicePayload struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type deviceListPayload struct {
	Devices []devicePayload `json:"devices"`
}

type openStreamPayload struct {
	DeviceID string `json:"device_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type commitPayload struct {
	Kind  string  `json:"kind"` // "cube", "sphere", "model"
	Model string  `json:"model,omitempty"`
	Scale float64 `json:"scale"`
}

type switchCameraPayload struct {
	DeviceID string `json:"device_id"`
}

type statusPayload struct {
	Message string `json:"message"`
	Tier    string `json:"tier"`
}

type transformPayload struct {
	ObjectID int64    `json:"object_id"`
	Pose     poseWire `json:"pose"`
	Scale    float64  `json:"scale"`
}

type transformsPayload struct {
	FrameSeq   uint64             `json:"frame_seq"`
	Transforms []transformPayload `json:"transforms"`
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		// All payload types are plain structs; a marshal failure is a
		// programming error.
		panic(err)
	}
	return data
}
