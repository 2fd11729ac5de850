package main

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlock/arlock/internal/bridge"
	"github.com/arlock/arlock/internal/hostsim"
	"github.com/arlock/arlock/internal/logging"
	"github.com/arlock/arlock/internal/scene"
	"github.com/arlock/arlock/internal/session"
)

func TestIntegration_TraceReplay(t *testing.T) {
	tests := []struct {
		trace      string
		wantPlaced int
	}{
		{trace: "traces/native-placement.yml", wantPlaced: 0}, // ends with a clear
		{trace: "traces/anchor-failure.yml", wantPlaced: 1},
		{trace: "traces/sensor-fallback.yml", wantPlaced: 1},
	}

	for _, tt := range tests {
		t.Run(tt.trace, func(t *testing.T) {
			if _, err := os.Stat(tt.trace); err != nil {
				t.Fatalf("trace file missing: %v", err)
			}
			trace, err := hostsim.LoadTrace(tt.trace)
			require.NoError(t, err)

			var out strings.Builder
			result, err := hostsim.Replay(context.Background(), trace,
				session.DefaultConfig(), logging.NopLogger{}, &out)
			require.NoError(t, err)

			assert.Equal(t, len(trace.Frames), result.Frames)
			assert.Equal(t, tt.wantPlaced, result.Placed)
			assert.NotEmpty(t, out.String())
		})
	}
}

// browserPeer plays the remote host side of the bridge protocol the way
// the real browser page does: it grants requests, pushes frames, and
// collects the transforms streamed back.
type browserPeer struct {
	t    *testing.T
	conn *websocket.Conn

	mu         sync.Mutex
	anchors    int
	transforms []json.RawMessage
}

type peerEnvelope struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (p *browserPeer) send(env peerEnvelope) {
	p.t.Helper()
	data, err := json.Marshal(env)
	require.NoError(p.t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(p.t, p.conn.Write(ctx, websocket.MessageText, data))
}

func (p *browserPeer) sendJSON(msgType string, payload string) {
	p.send(peerEnvelope{Type: msgType, Payload: json.RawMessage(payload)})
}

// serve grants every request and records transform submissions.
func (p *browserPeer) serve() {
	go func() {
		for {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_, data, err := p.conn.Read(ctx)
			cancel()
			if err != nil {
				return
			}
			var env peerEnvelope
			if json.Unmarshal(data, &env) != nil {
				continue
			}

			var resp *peerEnvelope
			switch env.Type {
			case "request-session":
				resp = &peerEnvelope{Type: "session-granted", Seq: env.Seq,
					Payload: json.RawMessage(`{"mode":"immersive-ar","supports_anchors":true}`)}
			case "create-anchor":
				p.mu.Lock()
				p.anchors++
				p.mu.Unlock()
				resp = &peerEnvelope{Type: "anchor-created", Seq: env.Seq,
					Payload: json.RawMessage(`{"anchor_id":"a1"}`)}
			case "object-transforms":
				p.mu.Lock()
				p.transforms = append(p.transforms, env.Payload)
				p.mu.Unlock()
			}
			if resp != nil {
				out, _ := json.Marshal(resp)
				wctx, wcancel := context.WithTimeout(context.Background(), time.Second)
				_ = p.conn.Write(wctx, websocket.MessageText, out)
				wcancel()
			}
		}
	}()
}

func (p *browserPeer) anchorCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.anchors
}

func (p *browserPeer) lastTransforms() (json.RawMessage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.transforms) == 0 {
		return nil, false
	}
	return p.transforms[len(p.transforms)-1], true
}

func TestIntegration_BridgeDrivenSession(t *testing.T) {
	logger := logging.NopLogger{}
	b := bridge.New([]string{"*"}, logger)
	life := session.New(b, b, b, b, session.DefaultConfig(), logger)
	b.SetFrameHandler(func(ctx context.Context) { life.Tick(ctx) })

	srv := httptest.NewServer(b)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	peer := &browserPeer{t: t, conn: conn}
	peer.serve()
	require.Eventually(t, b.Connected, time.Second, 2*time.Millisecond)

	require.NoError(t, life.Enter(ctx))
	require.Equal(t, session.StateNativeAR, life.State())

	// The browser pushes a frame with a surface hit; the frame handler
	// ticks the session and the reticle arms.
	framePayload := `{"viewer":{"py":1.6,"qw":1},"hit":{"pz":-2,"qw":1}}`
	peer.sendJSON("frame", framePayload)

	require.Eventually(t, func() bool {
		return life.CommitPlacement(ctx, scene.KindCube, "", 1.0)
	}, time.Second, 5*time.Millisecond)

	// The commit creates a native anchor over the wire; subsequent
	// frames report its pose and the transform streams back.
	require.Eventually(t, func() bool { return peer.anchorCount() == 1 },
		2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		peer.sendJSON("frame",
			`{"viewer":{"py":1.6,"qw":1},"hit":{"pz":-2,"qw":1},"anchor_poses":{"a1":{"pz":-2.05,"qw":1}}}`)
		payload, ok := peer.lastTransforms()
		if !ok {
			return false
		}
		var p struct {
			Transforms []struct {
				Pose struct {
					PZ float64 `json:"pz"`
				} `json:"pose"`
			} `json:"transforms"`
		}
		if json.Unmarshal(payload, &p) != nil || len(p.Transforms) != 1 {
			return false
		}
		return p.Transforms[0].Pose.PZ == -2.05
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, life.Registry().Count())

	life.Exit(ctx)
	assert.Equal(t, session.StateIdle, life.State())
}
