// ABOUTME: HTTP client for the SchoolTrack identity service
// ABOUTME: Wraps credential submission calls with typed auth errors for the TUI and CLI

package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/schooltrack/schooltrack-cli/internal/capture"
	"github.com/schooltrack/schooltrack-cli/internal/enrollment"
)

// Client is the API client for the SchoolTrack identity service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new identity client with the given base URL
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AuthError is a rejection from the identity service: invalid
// credentials, unknown email, expired reset token, duplicate account.
// It renders as one form-level message and never clears entered data.
type AuthError struct {
	Code    string `json:"error"`
	Message string `json:"message,omitempty"`
	Status  int    `json:"-"`
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Code {
	case "invalid_credentials":
		return "incorrect email or password"
	case "unknown_email":
		return "no account exists for that email"
	case "invalid_token":
		return "this reset link has expired or already been used"
	case "duplicate_account":
		return "an account with that email already exists"
	default:
		return fmt.Sprintf("identity service rejected the request (%s)", e.Code)
	}
}

// LoginRequest carries login credentials. Ephemeral; never persisted.
type LoginRequest struct {
	Role     enrollment.Role `json:"role"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Remember bool            `json:"remember"`
}

// Session is a successful login result.
type Session struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RegisterRequest is the enrollment payload on the wire. The photo
// travels as base64-encoded JPEG bytes.
type RegisterRequest struct {
	Role        enrollment.Role `json:"role"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	Email       string          `json:"email"`
	StudentID   string          `json:"student_id,omitempty"`
	EmployeeID  string          `json:"employee_id,omitempty"`
	Password    string          `json:"password"`
	Photo       string          `json:"photo"`
	PhotoMIME   string          `json:"photo_mime"`
	PhotoWidth  int             `json:"photo_width"`
	PhotoHeight int             `json:"photo_height"`
}

// Account is a successful registration result.
type Account struct {
	ID    string          `json:"id"`
	Email string          `json:"email"`
	Role  enrollment.Role `json:"role"`
}

// NewRegisterRequest builds the wire payload from a validated
// enrollment payload and its captured photo. The identifier lands in
// student_id or employee_id according to the role.
func NewRegisterRequest(p enrollment.Payload, photo *capture.Frame) RegisterRequest {
	req := RegisterRequest{
		Role:      p.Role,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Password:  p.Password,
	}
	if p.Role == enrollment.RoleStudent {
		req.StudentID = p.Identifier
	} else {
		req.EmployeeID = p.Identifier
	}
	if photo != nil {
		req.Photo = base64.StdEncoding.EncodeToString(photo.Data)
		req.PhotoMIME = photo.MIME
		req.PhotoWidth = photo.Width
		req.PhotoHeight = photo.Height
	}
	return req
}

// Login calls POST /auth/login
func (c *Client) Login(ctx context.Context, input LoginRequest) (*Session, error) {
	var session Session
	if err := c.post(ctx, "/auth/login", input, &session, ""); err != nil {
		return nil, err
	}
	return &session, nil
}

// RequestPasswordReset calls POST /auth/password-reset/request. A
// success means the service accepted the email; whether an account
// exists is deliberately not disclosed here.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	input := struct {
		Email string `json:"email"`
	}{Email: email}
	return c.post(ctx, "/auth/password-reset/request", input, nil, "")
}

// ConfirmPasswordReset calls POST /auth/password-reset/confirm with the
// opaque token from the reset link.
func (c *Client) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	input := struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}{Token: token, NewPassword: newPassword}
	return c.post(ctx, "/auth/password-reset/confirm", input, nil, "")
}

// Register calls POST /auth/register. Each call carries a fresh
// Idempotency-Key so a retried submission cannot enroll twice.
func (c *Client) Register(ctx context.Context, input RegisterRequest) (*Account, error) {
	var account Account
	if err := c.post(ctx, "/auth/register", input, &account, uuid.NewString()); err != nil {
		return nil, err
	}
	return &account, nil
}

// Health calls GET /health
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.handleErrorResponse(resp)
	}
	return nil
}

// post sends a JSON body and decodes a JSON response into out when out
// is non-nil. idempotencyKey is attached as a header when non-empty.
func (c *Client) post(ctx context.Context, path string, input, out any, idempotencyKey string) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("invalid response from identity service: %w", err)
		}
	}
	return nil
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return fmt.Errorf("request canceled")
	}
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("request timed out")
	}
	return fmt.Errorf("cannot reach identity service at %s: %w", c.baseURL, err)
}

// handleErrorResponse parses identity service rejections into AuthError
func (c *Client) handleErrorResponse(resp *http.Response) error {
	var authErr AuthError
	if err := json.NewDecoder(resp.Body).Decode(&authErr); err != nil || authErr.Code == "" {
		return fmt.Errorf("identity service returned status %d", resp.StatusCode)
	}
	authErr.Status = resp.StatusCode
	return &authErr
}
