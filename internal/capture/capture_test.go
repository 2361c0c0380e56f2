// ABOUTME: Tests for the capture session state machine
// ABOUTME: Uses a fake device to assert handle ownership and release on every path

package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
)

// fakeStream counts itself against its parent device while open.
type fakeStream struct {
	dev    *fakeDevice
	closed bool
}

func (f *fakeStream) Grab(ctx context.Context) (image.Image, error) {
	if f.dev.grabErr != nil {
		return nil, f.dev.grabErr
	}
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	return img, nil
}

func (f *fakeStream) Close() error {
	f.dev.mu.Lock()
	defer f.dev.mu.Unlock()
	if !f.closed {
		f.closed = true
		f.dev.open--
	}
	return nil
}

// fakeDevice tracks how many streams are open at once.
type fakeDevice struct {
	mu      sync.Mutex
	open    int
	maxOpen int
	opens   int
	openErr error
	grabErr error
}

func (d *fakeDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens++
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.open++
	if d.open > d.maxOpen {
		d.maxOpen = d.open
	}
	return &fakeStream{dev: d}, nil
}

func (d *fakeDevice) activeHandles() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func TestStartCapture(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev)
	ctx := context.Background()

	if s.State() != StateIdle {
		t.Fatalf("initial state = %v, want idle", s.State())
	}

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.State() != StateLive {
		t.Errorf("state after Start = %v, want live", s.State())
	}
	if dev.activeHandles() != 1 {
		t.Errorf("active handles after Start = %d, want 1", dev.activeHandles())
	}

	frame, err := s.Capture(ctx)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if frame.Width != 640 || frame.Height != 480 {
		t.Errorf("frame dimensions = %dx%d, want 640x480", frame.Width, frame.Height)
	}
	if frame.MIME != "image/jpeg" || len(frame.Data) == 0 {
		t.Errorf("frame = %q/%d bytes, want non-empty image/jpeg", frame.MIME, len(frame.Data))
	}

	// Capture releases the device as a post-condition.
	if s.State() != StateIdle {
		t.Errorf("state after Capture = %v, want idle", s.State())
	}
	if dev.activeHandles() != 0 {
		t.Errorf("active handles after Capture = %d, want 0", dev.activeHandles())
	}
}

func TestSingleHandleAcrossRestarts(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev)
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := s.Capture(ctx); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if err := s.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	s.Stop()

	if dev.maxOpen != 1 {
		t.Errorf("max concurrent handles = %d, want 1", dev.maxOpen)
	}
	if dev.activeHandles() != 0 {
		t.Errorf("active handles after Stop = %d, want 0", dev.activeHandles())
	}
}

func TestStartWhileLiveIsNoOp(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev)
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start while live: %v", err)
	}
	if dev.opens != 1 {
		t.Errorf("device opened %d times, want 1", dev.opens)
	}
	s.Stop()
}

func TestStartDenied(t *testing.T) {
	dev := &fakeDevice{openErr: ErrAccessDenied}
	s := NewSession(dev)
	ctx := context.Background()

	err := s.Start(ctx)
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("Start error = %v, want ErrAccessDenied", err)
	}
	if s.State() != StateError {
		t.Errorf("state after denial = %v, want error", s.State())
	}
	if !errors.Is(s.LastError(), ErrAccessDenied) {
		t.Errorf("LastError = %v, want ErrAccessDenied", s.LastError())
	}
	if dev.activeHandles() != 0 {
		t.Errorf("active handles after denial = %d, want 0", dev.activeHandles())
	}

	// Stop settles the session back to idle and a retry works.
	s.Stop()
	if s.State() != StateIdle {
		t.Errorf("state after Stop = %v, want idle", s.State())
	}
	dev.openErr = nil
	if err := s.Start(ctx); err != nil {
		t.Fatalf("retry Start: %v", err)
	}
	if s.State() != StateLive {
		t.Errorf("state after retry = %v, want live", s.State())
	}
	s.Stop()
}

func TestCaptureOutsideLive(t *testing.T) {
	s := NewSession(&fakeDevice{})
	if _, err := s.Capture(context.Background()); !errors.Is(err, ErrNotLive) {
		t.Errorf("Capture while idle = %v, want ErrNotLive", err)
	}
}

func TestStopIdempotent(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev)
	ctx := context.Background()

	s.Stop()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
	s.Stop()
	if s.State() != StateIdle {
		t.Errorf("state = %v, want idle", s.State())
	}
	if dev.activeHandles() != 0 {
		t.Errorf("active handles = %d, want 0", dev.activeHandles())
	}
}

func TestRetakeClearsFrame(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev)
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := s.Capture(ctx); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if s.Frame() == nil {
		t.Fatal("no frame held after Capture")
	}

	if err := s.Retake(ctx); err != nil {
		t.Fatalf("Retake: %v", err)
	}
	if s.Frame() != nil {
		t.Error("Retake left the old frame in place")
	}
	if s.State() != StateLive {
		t.Errorf("state after Retake = %v, want live", s.State())
	}
	s.Stop()
}

func TestGrabFailureStillReleases(t *testing.T) {
	dev := &fakeDevice{grabErr: errors.New("device wedged")}
	s := NewSession(dev)
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := s.Capture(ctx); err == nil {
		t.Fatal("Capture succeeded with a wedged device")
	}
	if s.State() != StateIdle {
		t.Errorf("state after failed Capture = %v, want idle", s.State())
	}
	if dev.activeHandles() != 0 {
		t.Errorf("active handles after failed Capture = %d, want 0", dev.activeHandles())
	}
}
