// ABOUTME: Camera capture session lifecycle for biometric enrollment photos
// ABOUTME: Owns the device handle exclusively and guarantees release on every exit path

package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
)

// State is the capture session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateLive
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateLive:
		return "live"
	case StateError:
		return "error"
	}
	return "unknown"
}

// ErrAccessDenied indicates the device refused access (permission or
// hardware unavailable). It is surfaced as a value, never a panic.
var ErrAccessDenied = errors.New("camera access denied")

// ErrNotLive indicates Capture was called outside the live state.
var ErrNotLive = errors.New("capture session is not live")

// Facing selects which camera to request.
const FacingUser = "user"

// Constraints describe the stream the session requests from a device.
type Constraints struct {
	Width  int
	Height int
	Facing string
}

// DefaultConstraints is the fixed request used for enrollment photos.
var DefaultConstraints = Constraints{Width: 640, Height: 480, Facing: FacingUser}

// Frame is a single captured still image: the biometric artifact handed
// to the registration payload. Discarded and regenerated on retake.
type Frame struct {
	Width  int
	Height int
	Data   []byte
	MIME   string
}

// Stream is an open device handle. It is exclusively owned by the
// session that opened it and must be closed exactly once.
type Stream interface {
	// Grab returns the current video frame.
	Grab(ctx context.Context) (image.Image, error)
	Close() error
}

// Device is the device-level collaborator that grants camera streams.
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// jpegQuality for the encoded artifact.
const jpegQuality = 80

// Session manages a single camera device stream. At most one stream is
// open at a time; every transition out of live or acquiring releases
// it. Safe for concurrent use: bubbletea commands run the blocking
// calls off the update loop.
type Session struct {
	mu      sync.Mutex
	device  Device
	state   State
	stream  Stream
	frame   *Frame
	lastErr error
}

// NewSession creates a session over the given device. The session
// starts idle and holds no handle.
func NewSession(device Device) *Session {
	return &Session{device: device}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Frame returns the held artifact, or nil when none has been captured.
func (s *Session) Frame() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// LastError returns the error from the most recent failed acquisition.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Start acquires the device stream. A no-op while a session is already
// acquiring or live. Blocks until the device grants or denies; denial
// parks the session in the error state with no handle held, and the
// denial is returned as a value rather than thrown across the session
// boundary. Cancel a pending acquisition through ctx.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateAcquiring || s.state == StateLive {
		s.mu.Unlock()
		return nil
	}
	s.state = StateAcquiring
	s.lastErr = nil
	s.mu.Unlock()

	stream, err := s.device.Open(ctx, DefaultConstraints)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAcquiring {
		// Stopped while the request was pending; release the grant.
		if stream != nil {
			stream.Close()
		}
		return nil
	}
	if err != nil {
		s.state = StateError
		s.lastErr = err
		return fmt.Errorf("acquiring camera stream: %w", err)
	}

	s.stream = stream
	s.state = StateLive
	return nil
}

// Capture grabs exactly one frame from the live stream, encodes it as a
// JPEG artifact, and stops the session. Capture and release are atomic
// from the caller's perspective: the device is closed before Capture
// returns, success or failure.
func (s *Session) Capture(ctx context.Context) (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLive {
		return nil, ErrNotLive
	}
	defer s.stopLocked()

	img, err := s.stream.Grab(ctx)
	if err != nil {
		return nil, fmt.Errorf("grabbing frame: %w", err)
	}

	frame, err := encodeFrame(img)
	if err != nil {
		return nil, err
	}
	s.frame = frame
	return frame, nil
}

// Stop releases the device handle and returns the session to idle.
// Idempotent and safe to call from any state; flow teardown calls it
// unconditionally.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// stopLocked requires s.mu held.
func (s *Session) stopLocked() {
	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
	}
	s.state = StateIdle
}

// Retake discards the held artifact and starts a fresh acquisition.
func (s *Session) Retake(ctx context.Context) error {
	s.mu.Lock()
	s.frame = nil
	s.mu.Unlock()
	return s.Start(ctx)
}

func encodeFrame(img image.Image) (*Frame, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	b := img.Bounds()
	return &Frame{
		Width:  b.Dx(),
		Height: b.Dy(),
		Data:   buf.Bytes(),
		MIME:   "image/jpeg",
	}, nil
}
