package hostsim

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/arlock/arlock/internal/host"
	"github.com/arlock/arlock/internal/logging"
	"github.com/arlock/arlock/internal/pose"
	"github.com/arlock/arlock/internal/scene"
	"github.com/arlock/arlock/internal/session"
)

// ReplayResult summarizes a trace run.
type ReplayResult struct {
	Frames       int
	Placed       int
	ModelsLoaded int
}

// Replay drives a full session through a trace against the simulated
// host, writing one line per frame to out.
func Replay(ctx context.Context, trace *Trace, cfg session.Config, logger logging.Logger, out io.Writer) (ReplayResult, error) {
	h := NewHost(trace.Session.HostOptions())
	for _, ref := range trace.Session.Models {
		h.Models.AddFragment(ref, ref)
	}

	life := session.New(h.XR, h.Camera, h.Sensor, h.Render, cfg, logger)

	if err := life.Enter(ctx); err != nil {
		return ReplayResult{}, err
	}

	var fragments []host.ModelFragment
	for i, frame := range trace.Frames {
		applyFrame(h, frame)

		if frame.Commit != "" {
			kind, modelRef := parseCommit(frame.Commit)
			if kind == scene.KindModel {
				frag, err := h.Models.Load(ctx, modelRef)
				if err != nil {
					fmt.Fprintf(out, "frame %d: commit %s rejected: %v\n", i, frame.Commit, err)
					output := life.Tick(ctx)
					printFrame(out, i, output)
					continue
				}
				// Each placement draws from its own copy of the
				// fragment.
				fragments = append(fragments, frag.Clone())
			}
			accepted := life.CommitPlacement(ctx, kind, modelRef, 1.0)
			fmt.Fprintf(out, "frame %d: commit %s accepted=%v\n", i, frame.Commit, accepted)
			// The strategy selector resolves off the frame loop; give
			// it a moment so the replay output is stable.
			waitForPlacements(life)
		}
		if frame.Clear {
			life.ClearScene(ctx)
		}

		output := life.Tick(ctx)
		printFrame(out, i, output)
	}

	result := ReplayResult{
		Frames:       len(trace.Frames),
		Placed:       life.Registry().Count(),
		ModelsLoaded: len(fragments),
	}
	life.Exit(ctx)
	return result, nil
}

func applyFrame(h *Host, frame FrameScript) {
	sess := h.XR.LastSession()
	if sess != nil {
		if frame.Miss {
			sess.SetHit(nil)
		} else if frame.Hit != nil {
			p := pose.New(frame.Hit.Vec3(), pose.Identity(pose.FrameLocalFloor).Orientation, pose.FrameLocalFloor)
			sess.SetHit(&p)
		}
		if frame.Viewer != nil {
			sess.SetViewerPose(pose.New(frame.Viewer.Vec3(), pose.Identity(pose.FrameLocalFloor).Orientation, pose.FrameLocalFloor))
		}
	}
	if frame.Orientation != nil {
		h.Sensor.Push(frame.Orientation.Angles())
		// Delivery goes through the orientation source's event
		// goroutine; yield so the reading lands before the tick.
		time.Sleep(time.Millisecond)
	}
}

func parseCommit(commit string) (scene.Kind, string) {
	switch {
	case commit == "cube":
		return scene.KindCube, ""
	case commit == "sphere":
		return scene.KindSphere, ""
	case strings.HasPrefix(commit, "model:"):
		return scene.KindModel, strings.TrimPrefix(commit, "model:")
	default:
		return scene.KindCube, ""
	}
}

// waitForPlacements blocks briefly until in-flight placements land.
func waitForPlacements(life *session.Lifecycle) {
	deadline := time.Now().Add(500 * time.Millisecond)
	count := life.Registry().Count()
	for time.Now().Before(deadline) {
		life.Tick(context.Background())
		if life.Registry().Count() > count {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func printFrame(out io.Writer, i int, output session.FrameOutput) {
	ret := "----"
	if output.Reticle.Armed {
		ret = fmt.Sprintf("armed @ (%.2f %.2f %.2f)",
			output.Reticle.Pose.Position.X(),
			output.Reticle.Pose.Position.Y(),
			output.Reticle.Pose.Position.Z())
	}
	fmt.Fprintf(out, "frame %d: seq=%d reticle=%s objects=%d\n", i, output.Seq, ret, len(output.Transforms))
	for _, tr := range output.Transforms {
		fmt.Fprintf(out, "  object %d: pos=(%.3f %.3f %.3f) scale=%.2f\n",
			tr.ObjectID, tr.Local.Position.X(), tr.Local.Position.Y(), tr.Local.Position.Z(), tr.Scale)
	}
}
