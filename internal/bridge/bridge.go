// Package bridge adapts a remote host, typically a browser page running
// the real WebXR and deviceorientation APIs, onto the internal host
// interfaces over a websocket. The core never knows its host is remote:
// the bridge exposes host.XRSystem, host.CameraAPI,
// host.OrientationSensor, and host.RenderTarget backed by a JSON message
// protocol.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	arerr "github.com/arlock/arlock/internal/errors"
	"github.com/arlock/arlock/internal/host"
	"github.com/arlock/arlock/internal/logging"
	"github.com/arlock/arlock/internal/pose"
)

// FrameHandler runs once per inbound frame push, after the bridge has
// absorbed the frame's state. The run command uses it to drive the
// session tick, preserving the host-callback-driven frame loop.
type FrameHandler func(ctx context.Context)

// Control is a user action forwarded from the remote UI.
type Control struct {
	Action string // "enter-ar", "exit-ar", "commit", "clear-scene", "switch-camera"

	// Commit fields.
	Kind  string
	Model string
	Scale float64

	// Camera switch field.
	DeviceID string
}

// ControlHandler receives remote UI actions in event order.
type ControlHandler func(ctx context.Context, ctl Control)

// Control action names.
const (
	ActionEnterAR      = msgEnterAR
	ActionExitAR       = msgExitAR
	ActionCommit       = msgCommit
	ActionClearScene   = msgClearScene
	ActionSwitchCamera = msgSwitchCamera
)

// Bridge is a single-connection remote host.
type Bridge struct {
	logger         logging.Logger
	allowedOrigins []string

	mu      sync.Mutex
	conn    *websocket.Conn
	nextSeq uint64
	pending map[uint64]chan Envelope

	// Last-known remote state, absorbed from push messages and read
	// synchronously by the per-frame host calls.
	viewer      *pose.Pose
	hit         *pose.Pose
	anchorPoses map[string]pose.Pose
	ended       bool
	endFns      []func()

	sensorSubs []chan pose.OrientationAngles

	onFrame   FrameHandler
	onControl ControlHandler
}

// New creates a bridge. allowedOrigins is matched against the websocket
// Origin header; an empty list rejects cross-origin connections.
func New(allowedOrigins []string, logger logging.Logger) *Bridge {
	return &Bridge{
		logger:         logger.WithComponent("bridge"),
		allowedOrigins: allowedOrigins,
		pending:        make(map[uint64]chan Envelope),
		anchorPoses:    make(map[string]pose.Pose),
	}
}

// SetFrameHandler registers the per-frame callback.
func (b *Bridge) SetFrameHandler(fn FrameHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onFrame = fn
}

// SetControlHandler registers the remote UI action callback.
func (b *Bridge) SetControlHandler(fn ControlHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onControl = fn
}

// Connected reports whether a remote host is attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// SendStatus pushes a user-visible status message to the remote UI.
func (b *Bridge) SendStatus(message, tier string) {
	err := b.send(context.Background(), Envelope{
		Type:    msgStatus,
		Payload: mustMarshal(statusPayload{Message: message, Tier: tier}),
	})
	if err != nil {
		b.logger.Debug(context.Background(), "status push dropped", "reason", err.Error())
	}
}

// ServeHTTP accepts one websocket connection and runs its read loop
// until the connection or the request context ends.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: b.allowedOrigins,
	})
	if err != nil {
		b.logger.Warn(r.Context(), err, "websocket accept failed", "origin", r.Header.Get("Origin"))
		return
	}

	b.mu.Lock()
	if b.conn != nil {
		b.mu.Unlock()
		conn.Close(websocket.StatusPolicyViolation, "bridge already connected")
		return
	}
	b.conn = conn
	b.mu.Unlock()

	b.logger.Info(r.Context(), "remote host connected", "origin", r.Header.Get("Origin"))
	b.readLoop(r.Context(), conn)

	b.mu.Lock()
	b.conn = nil
	for seq, ch := range b.pending {
		close(ch)
		delete(b.pending, seq)
	}
	b.mu.Unlock()
}

func (b *Bridge) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			b.logger.Info(ctx, "remote host disconnected")
			b.signalEnd()
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			b.logger.Warn(ctx, err, "dropping malformed bridge message")
			continue
		}
		b.dispatch(ctx, env)
	}
}

// dispatch routes one inbound envelope: responses resolve their pending
// request; pushes update last-known state.
func (b *Bridge) dispatch(ctx context.Context, env Envelope) {
	switch env.Type {
	case msgFrame:
		b.absorbFrame(ctx, env)
	case msgOrientation:
		var p orientationPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		a := pose.OrientationAngles{
			HeadingDeg:   p.Heading,
			FrontBackDeg: p.FrontBack,
			LeftRightDeg: p.LeftRight,
		}
		b.mu.Lock()
		for _, sub := range b.sensorSubs {
			select {
			case sub <- a:
			default:
			}
		}
		b.mu.Unlock()
	case msgSessionEnded:
		b.signalEnd()
	case msgEnterAR, msgExitAR, msgClearScene:
		b.deliverControl(ctx, Control{Action: env.Type})
	case msgCommit:
		var p commitPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		b.deliverControl(ctx, Control{
			Action: env.Type, Kind: p.Kind, Model: p.Model, Scale: p.Scale,
		})
	case msgSwitchCamera:
		var p switchCameraPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		b.deliverControl(ctx, Control{Action: env.Type, DeviceID: p.DeviceID})
	default:
		b.resolvePending(env)
	}
}

func (b *Bridge) deliverControl(ctx context.Context, ctl Control) {
	b.mu.Lock()
	fn := b.onControl
	b.mu.Unlock()
	if fn != nil {
		fn(ctx, ctl)
	}
}

func (b *Bridge) absorbFrame(ctx context.Context, env Envelope) {
	var p framePayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		b.logger.Warn(ctx, err, "dropping malformed frame payload")
		return
	}

	b.mu.Lock()
	if p.Viewer != nil {
		v := p.Viewer.pose(pose.FrameLocalFloor)
		b.viewer = &v
	}
	if p.Hit != nil {
		h := p.Hit.pose(pose.FrameLocalFloor)
		b.hit = &h
	} else {
		b.hit = nil
	}
	b.anchorPoses = make(map[string]pose.Pose, len(p.AnchorPoses))
	for id, w := range p.AnchorPoses {
		b.anchorPoses[id] = w.pose(pose.FrameLocalFloor)
	}
	onFrame := b.onFrame
	b.mu.Unlock()

	if onFrame != nil {
		onFrame(ctx)
	}
}

func (b *Bridge) resolvePending(env Envelope) {
	b.mu.Lock()
	ch, ok := b.pending[env.Seq]
	if ok {
		delete(b.pending, env.Seq)
	}
	b.mu.Unlock()
	if ok {
		ch <- env
	}
}

func (b *Bridge) signalEnd() {
	b.mu.Lock()
	if b.ended {
		b.mu.Unlock()
		return
	}
	b.ended = true
	fns := append([]func(){}, b.endFns...)
	b.mu.Unlock()
	for _, fn := range fns {
		go fn()
	}
}

// send writes one envelope to the remote host.
func (b *Bridge) send(ctx context.Context, env Envelope) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return &arerr.TrackingError{
			Type: arerr.ErrorTypeSessionRequest, Code: arerr.ErrCodeBridgeClosed,
			Message: "no remote host connected",
		}
	}

	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// request sends an envelope and waits for the response echoing its
// sequence number.
func (b *Bridge) request(ctx context.Context, msgType string, payload interface{}) (Envelope, error) {
	b.mu.Lock()
	b.nextSeq++
	seq := b.nextSeq
	ch := make(chan Envelope, 1)
	b.pending[seq] = ch
	b.mu.Unlock()

	env := Envelope{Type: msgType, Seq: seq}
	if payload != nil {
		env.Payload = mustMarshal(payload)
	}

	if err := b.send(ctx, env); err != nil {
		b.mu.Lock()
		delete(b.pending, seq)
		b.mu.Unlock()
		return Envelope{}, err
	}

	select {
	case <-ctx.Done():
		b.mu.Lock()
		delete(b.pending, seq)
		b.mu.Unlock()
		return Envelope{}, ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return Envelope{}, &arerr.TrackingError{
				Type: arerr.ErrorTypeSessionRequest, Code: arerr.ErrCodeBridgeClosed,
				Message: "remote host disconnected",
			}
		}
		if resp.Type == msgError {
			var p errorPayload
			_ = json.Unmarshal(resp.Payload, &p)
			return Envelope{}, fmt.Errorf("remote host: %s", p.Message)
		}
		return resp, nil
	}
}

// SubmitTransforms implements host.RenderTarget: per-frame object
// transforms stream back to the remote renderer.
func (b *Bridge) SubmitTransforms(seq uint64, transforms []host.ObjectTransform) {
	payload := transformsPayload{FrameSeq: seq}
	for _, t := range transforms {
		payload.Transforms = append(payload.Transforms, transformPayload{
			ObjectID: t.ObjectID,
			Pose:     toWire(t.Local),
			Scale:    t.Scale,
		})
	}
	if err := b.send(context.Background(), Envelope{Type: msgObjectTransforms, Payload: mustMarshal(payload)}); err != nil {
		b.logger.Debug(context.Background(), "transform submission dropped", "reason", err.Error())
	}
}
