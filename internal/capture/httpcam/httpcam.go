// ABOUTME: HTTP camera device backing the capture session
// ABOUTME: Opens a device session on a network camera service and fetches frames from it

package httpcam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/schooltrack/schooltrack-cli/internal/capture"
)

// Device talks to a camera service exposing session-scoped frame
// endpoints. Opening a session claims the hardware; deleting it
// releases the device for the next caller.
type Device struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Device for the camera service at baseURL.
func New(baseURL string, timeout time.Duration) *Device {
	return &Device{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type openRequest struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Facing string `json:"facing"`
}

type openResponse struct {
	ID string `json:"id"`
}

// Open claims a camera session with the requested constraints. A 401 or
// 403 from the service means the device refused access and is reported
// as capture.ErrAccessDenied.
func (d *Device) Open(ctx context.Context, c capture.Constraints) (capture.Stream, error) {
	body, err := json.Marshal(openRequest{Width: c.Width, Height: c.Height, Facing: c.Facing})
	if err != nil {
		return nil, fmt.Errorf("encoding open request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating open request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contacting camera service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("camera service refused session: %w", capture.ErrAccessDenied)
	default:
		return nil, fmt.Errorf("camera service returned status %d", resp.StatusCode)
	}

	var opened openResponse
	if err := json.NewDecoder(resp.Body).Decode(&opened); err != nil {
		return nil, fmt.Errorf("decoding open response: %w", err)
	}
	if opened.ID == "" {
		return nil, fmt.Errorf("camera service returned an empty session id")
	}

	return &stream{device: d, id: opened.ID}, nil
}

// stream is one claimed camera session.
type stream struct {
	device *Device
	id     string
	closed bool
}

// Grab fetches the current frame for this session.
func (s *stream) Grab(ctx context.Context) (image.Image, error) {
	url := fmt.Sprintf("%s/sessions/%s/frame", s.device.baseURL, s.id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating frame request: %w", err)
	}

	resp, err := s.device.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching frame: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera service returned status %d for frame", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}
	return img, nil
}

// Close releases the camera session. Errors on release are ignored past
// the first close; the service also expires stale sessions on its own.
func (s *stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	url := fmt.Sprintf("%s/sessions/%s", s.device.baseURL, s.id)
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("creating release request: %w", err)
	}

	resp, err := s.device.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("releasing camera session: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// Health probes the camera service root endpoint.
func (d *Device) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating health request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("contacting camera service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("camera service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
