package hostsim

import (
	"context"
	"fmt"
	"sync"

	"github.com/arlock/arlock/internal/host"
	"github.com/arlock/arlock/internal/pose"
)

// Camera implements host.CameraAPI with open-stream accounting so tests
// can assert that no two streams are ever held concurrently.
type Camera struct {
	mu      sync.Mutex
	devices []host.CameraDevice
	deny    bool
	open    int
	maxOpen int
}

// EnumerateDevices returns the scripted device list.
func (c *Camera) EnumerateDevices(ctx context.Context) ([]host.CameraDevice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]host.CameraDevice{}, c.devices...), nil
}

// OpenStream opens a simulated stream, honoring the denial script.
func (c *Camera) OpenStream(ctx context.Context, deviceID string, width, height int) (host.CameraStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deny {
		return nil, fmt.Errorf("hostsim: camera access denied")
	}
	c.open++
	if c.open > c.maxOpen {
		c.maxOpen = c.open
	}
	return &Stream{camera: c, deviceID: deviceID}, nil
}

// StreamsOpen returns the number of streams whose tracks have not been
// stopped.
func (c *Camera) StreamsOpen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// MaxStreamsOpen returns the high-water mark of concurrently open
// streams.
func (c *Camera) MaxStreamsOpen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxOpen
}

// Stream implements host.CameraStream.
type Stream struct {
	camera   *Camera
	deviceID string

	mu      sync.Mutex
	stopped bool
}

// StopTracks stops the stream's tracks, releasing its device slot.
func (s *Stream) StopTracks() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.camera.mu.Lock()
	s.camera.open--
	s.camera.mu.Unlock()
}

// Sensor implements host.OrientationSensor with a pushable event stream.
// Subscriptions come and go with sessions; the sensor outlives them all.
type Sensor struct {
	deny bool

	mu   sync.Mutex
	subs []chan pose.OrientationAngles
}

// NewSensor builds a simulated sensor; deny scripts permission denial.
func NewSensor(deny bool) *Sensor {
	return &Sensor{deny: deny}
}

// RequestPermission resolves the scripted permission prompt.
func (s *Sensor) RequestPermission(ctx context.Context) error {
	if s.deny {
		return fmt.Errorf("hostsim: orientation permission denied")
	}
	return nil
}

// Events returns a fresh subscription to the sensor reading stream.
func (s *Sensor) Events() <-chan pose.OrientationAngles {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan pose.OrientationAngles, 64)
	s.subs = append(s.subs, ch)
	return ch
}

// Unsubscribe removes one subscription and closes its channel.
func (s *Sensor) Unsubscribe(ch <-chan pose.OrientationAngles) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub == ch {
			close(sub)
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			break
		}
	}
}

// Push feeds one sensor reading to every live subscription, dropping
// when a subscriber's buffer is full.
func (s *Sensor) Push(a pose.OrientationAngles) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		select {
		case sub <- a:
		default:
		}
	}
}

// RenderRecorder implements host.RenderTarget and remembers every
// submission for assertions and for the replay printer.
type RenderRecorder struct {
	mu          sync.Mutex
	submissions []Submission
}

// Submission is one frame's transform batch.
type Submission struct {
	Seq        uint64
	Transforms []host.ObjectTransform
}

// SubmitTransforms records the batch.
func (r *RenderRecorder) SubmitTransforms(seq uint64, transforms []host.ObjectTransform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submissions = append(r.submissions, Submission{
		Seq:        seq,
		Transforms: append([]host.ObjectTransform{}, transforms...),
	})
}

// Last returns the most recent submission.
func (r *RenderRecorder) Last() (Submission, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.submissions) == 0 {
		return Submission{}, false
	}
	return r.submissions[len(r.submissions)-1], true
}

// All returns every recorded submission.
func (r *RenderRecorder) All() []Submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Submission{}, r.submissions...)
}

// ModelLoader implements host.ModelLoader from an in-memory table.
type ModelLoader struct {
	mu        sync.Mutex
	fragments map[string]string
}

// AddFragment registers a loadable model URL.
func (m *ModelLoader) AddFragment(url, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fragments[url] = name
}

// Load resolves a scripted model fragment.
func (m *ModelLoader) Load(ctx context.Context, url string) (host.ModelFragment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.fragments[url]
	if !ok {
		return nil, fmt.Errorf("hostsim: no model at %s", url)
	}
	return &Fragment{Name: name}, nil
}

// Fragment implements host.ModelFragment.
type Fragment struct {
	Name string
}

// Clone returns an independent copy.
func (f *Fragment) Clone() host.ModelFragment {
	clone := *f
	return &clone
}
