package devices

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Camera is the client for the camera module firmware. The MJPEG stream is
// exposed as an opaque URL only; this layer never reads its body.
type Camera struct {
	*client
}

// NewCamera constructs a camera client
func NewCamera(base string, timeout time.Duration) *Camera {
	return &Camera{client: newClient("camera", base, timeout)}
}

// Status fetches the raw module status
func (c *Camera) Status(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.getJSON(ctx, "/status", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StreamURL returns the continuous image transport endpoint
func (c *Camera) StreamURL() string {
	return c.base + "/stream"
}

// CaptureResponse carries one captured frame as base64
type CaptureResponse struct {
	Success bool   `json:"success"`
	Image   string `json:"image"`
	Size    int    `json:"size"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Message string `json:"message,omitempty"`
}

// Capture grabs a single frame from the module
func (c *Camera) Capture(ctx context.Context) (*CaptureResponse, error) {
	var out CaptureResponse
	err := c.command(func() error {
		return c.getJSON(ctx, "/capture", &out)
	})
	if err != nil {
		return nil, err
	}
	if !out.Success || out.Image == "" {
		return nil, errors.Wrapf(ErrProtocol, "capture failed: %s", out.Message)
	}
	return &out, nil
}

// RecognitionResult is the module-triggered recognition outcome
type RecognitionResult struct {
	Success    bool    `json:"success"`
	Recognized bool    `json:"recognized"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message,omitempty"`
}

// Recognize asks the module to capture and run recognition against the backend
func (c *Camera) Recognize(ctx context.Context) (*RecognitionResult, error) {
	var out RecognitionResult
	err := c.command(func() error {
		return c.postJSON(ctx, "/recognize", nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetFlash sets the flash LED brightness, 0-255
func (c *Camera) SetFlash(ctx context.Context, brightness int) error {
	if brightness < 0 || brightness > 255 {
		return errors.Wrapf(ErrValidation, "brightness %d out of range 0-255", brightness)
	}
	return c.command(func() error {
		return c.getJSON(ctx, fmt.Sprintf("/flash?brightness=%d", brightness), nil)
	})
}
