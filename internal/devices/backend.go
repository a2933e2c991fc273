package devices

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Backend is the client for the face-recognition REST server. All routes live
// under the /api base path.
type Backend struct {
	*client
}

// NewBackend constructs a backend client owning its base URL and timeout
func NewBackend(base string, timeout time.Duration) *Backend {
	return &Backend{client: newClient("backend", base, timeout)}
}

// HealthResponse is the backend liveness report
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Model     string `json:"model"`
	Version   string `json:"version"`
}

func (b *Backend) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := b.getJSON(ctx, "/api/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterRequest enrolls a face image with user details
type RegisterRequest struct {
	Image string `json:"image"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// RegisterResponse is the enrollment outcome with a user-facing message
type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

func (b *Backend) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if req.Image == "" || req.Name == "" {
		return nil, errors.Wrap(ErrValidation, "register requires image and name")
	}
	var out RegisterResponse
	err := b.command(func() error {
		return b.postJSON(ctx, "/api/register", req, &out)
	})
	if err != nil {
		// the backend signals duplicates and bad images as 400 with a message body
		if errors.Is(err, ErrProtocol) && out.Message != "" {
			return &out, nil
		}
		return nil, err
	}
	return &out, nil
}

// RecognizeResponse is the recognition outcome for a submitted image
type RecognizeResponse struct {
	Success    bool    `json:"success"`
	Recognized bool    `json:"recognized"`
	Authorized bool    `json:"authorized"`
	Name       string  `json:"name,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Message    string  `json:"message,omitempty"`
}

func (b *Backend) Recognize(ctx context.Context, imageBase64 string) (*RecognizeResponse, error) {
	if imageBase64 == "" {
		return nil, errors.Wrap(ErrValidation, "recognize requires an image")
	}
	var out RecognizeResponse
	err := b.command(func() error {
		return b.postJSON(ctx, "/api/recognize", map[string]string{"image": imageBase64}, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyResponse is the outcome of comparing two face images
type VerifyResponse struct {
	Success  bool    `json:"success"`
	Verified bool    `json:"verified"`
	Distance float64 `json:"distance,omitempty"`
	Message  string  `json:"message,omitempty"`
}

func (b *Backend) VerifyFaces(ctx context.Context, image1, image2 string) (*VerifyResponse, error) {
	if image1 == "" || image2 == "" {
		return nil, errors.Wrap(ErrValidation, "verify requires two images")
	}
	var out VerifyResponse
	err := b.command(func() error {
		return b.postJSON(ctx, "/api/verify", map[string]string{"image1": image1, "image2": image2}, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UserInfo is one enrolled user record
type UserInfo struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	RegisteredAt string `json:"registered_at"`
	Status       string `json:"status"`
	Model        string `json:"model"`
}

func (b *Backend) Users(ctx context.Context) ([]UserInfo, error) {
	var out struct {
		Success bool       `json:"success"`
		Users   []UserInfo `json:"users"`
	}
	if err := b.getJSON(ctx, "/api/users", &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (b *Backend) User(ctx context.Context, id string) (*UserInfo, error) {
	var out struct {
		Success bool     `json:"success"`
		User    UserInfo `json:"user"`
	}
	if err := b.getJSON(ctx, "/api/user/"+id, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (b *Backend) UpdateUser(ctx context.Context, id string, fields map[string]any) error {
	return b.command(func() error {
		return b.do(ctx, http.MethodPut, "/api/user/"+id, fields, nil)
	})
}

func (b *Backend) DeleteUser(ctx context.Context, id string) error {
	return b.command(func() error {
		return b.do(ctx, http.MethodDelete, "/api/user/"+id, nil, nil)
	})
}

// RawLogEntry is one access-log row as the backend reports it
type RawLogEntry struct {
	LogID      string  `json:"log_id"`
	Timestamp  string  `json:"timestamp"`
	Authorized bool    `json:"authorized"`
	UserID     string  `json:"user_id"`
	UserName   string  `json:"user_name"`
	Confidence float64 `json:"confidence"`
}

// Logs fetches the paginated access log, newest first
func (b *Backend) Logs(ctx context.Context, limit int) ([]RawLogEntry, error) {
	var out struct {
		Success bool          `json:"success"`
		Logs    []RawLogEntry `json:"logs"`
	}
	if err := b.getJSON(ctx, fmt.Sprintf("/api/logs?limit=%d", limit), &out); err != nil {
		return nil, err
	}
	return out.Logs, nil
}

func (b *Backend) ClearLogs(ctx context.Context) error {
	return b.command(func() error {
		return b.do(ctx, http.MethodDelete, "/api/logs/clear", nil, nil)
	})
}

// SystemConfig is the backend's reported recognition configuration
type SystemConfig struct {
	Model           string  `json:"model"`
	DistanceMetric  string  `json:"distance_metric"`
	DetectorBackend string  `json:"detector_backend"`
	Threshold       float64 `json:"threshold"`
}

func (b *Backend) Config(ctx context.Context) (*SystemConfig, error) {
	var out struct {
		Success bool         `json:"success"`
		Config  SystemConfig `json:"config"`
	}
	if err := b.getJSON(ctx, "/api/config", &out); err != nil {
		return nil, err
	}
	return &out.Config, nil
}

// PinResult is the backend's PIN authorization outcome. Denial is a normal
// result, not an error.
type PinResult struct {
	Authorized bool   `json:"authorized"`
	User       string `json:"user,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (b *Backend) VerifyPin(ctx context.Context, pin string) (*PinResult, error) {
	var out PinResult
	err := b.command(func() error {
		return b.postJSON(ctx, "/api/verify-pin", map[string]string{"pin": pin}, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PinCredential is one stored PIN credential record
type PinCredential struct {
	ID        string `json:"id,omitempty"`
	User      string `json:"user"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (b *Backend) Pins(ctx context.Context) ([]PinCredential, error) {
	var out struct {
		Success bool            `json:"success"`
		Pins    []PinCredential `json:"pins"`
	}
	if err := b.getJSON(ctx, "/api/pins", &out); err != nil {
		return nil, err
	}
	return out.Pins, nil
}

func (b *Backend) CreatePin(ctx context.Context, user, pin string) error {
	if pin == "" {
		return errors.Wrap(ErrValidation, "pin required")
	}
	return b.command(func() error {
		return b.postJSON(ctx, "/api/pins", map[string]string{"user": user, "pin": pin}, nil)
	})
}
