// ABOUTME: Tests for the identity service client
// ABOUTME: Uses httptest servers to cover each endpoint, auth rejections, and transport failures

package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/schooltrack/schooltrack-cli/internal/capture"
	"github.com/schooltrack/schooltrack-cli/internal/enrollment"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding login request: %v", err)
		}
		if req.Email != "maya@school.edu" || req.Password != "Sunrise9!" {
			t.Errorf("credentials = %q/%q, not what was submitted", req.Email, req.Password)
		}
		if req.Role != enrollment.RoleStudent || !req.Remember {
			t.Errorf("role/remember = %q/%v, want student/true", req.Role, req.Remember)
		}
		json.NewEncoder(w).Encode(Session{Token: "tok-123"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	session, err := c.Login(context.Background(), LoginRequest{
		Role:     enrollment.RoleStudent,
		Email:    "maya@school.edu",
		Password: "Sunrise9!",
		Remember: true,
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.Token != "tok-123" {
		t.Errorf("session token = %q, want tok-123", session.Token)
	}
}

func TestLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_credentials"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "wrong"})
	if err == nil {
		t.Fatal("Login succeeded with rejected credentials")
	}

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error type = %T, want *AuthError", err)
	}
	if authErr.Code != "invalid_credentials" || authErr.Status != http.StatusUnauthorized {
		t.Errorf("AuthError = %+v, want invalid_credentials/401", authErr)
	}
	if authErr.Error() != "incorrect email or password" {
		t.Errorf("message = %q", authErr.Error())
	}
}

func TestAuthErrorMessages(t *testing.T) {
	tests := []struct {
		err  AuthError
		want string
	}{
		{AuthError{Code: "unknown_email"}, "no account exists for that email"},
		{AuthError{Code: "invalid_token"}, "this reset link has expired or already been used"},
		{AuthError{Code: "duplicate_account"}, "an account with that email already exists"},
		{AuthError{Code: "rate_limited", Message: "try again later"}, "try again later"},
		{AuthError{Code: "something_new"}, "identity service rejected the request (something_new)"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("AuthError{%s}.Error() = %q, want %q", tt.err.Code, got, tt.want)
		}
	}
}

func TestRequestPasswordReset(t *testing.T) {
	var gotEmail string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/password-reset/request" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Email string `json:"email"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		gotEmail = req.Email
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.RequestPasswordReset(context.Background(), "user@school.edu"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if gotEmail != "user@school.edu" {
		t.Errorf("submitted email = %q", gotEmail)
	}
}

func TestConfirmPasswordReset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/password-reset/confirm" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Token       string `json:"token"`
			NewPassword string `json:"new_password"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Token != "reset-tok" || req.NewPassword != "Sunrise9!" {
			t.Errorf("confirm request = %+v", req)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.ConfirmPasswordReset(context.Background(), "reset-tok", "Sunrise9!"); err != nil {
		t.Fatalf("ConfirmPasswordReset: %v", err)
	}
}

func TestConfirmPasswordResetExpiredToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_token"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.ConfirmPasswordReset(context.Background(), "stale", "Sunrise9!")
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Code != "invalid_token" {
		t.Errorf("error = %v, want AuthError invalid_token", err)
	}
}

func TestRegister(t *testing.T) {
	photo := &capture.Frame{Width: 640, Height: 480, Data: []byte("jpeg-bytes"), MIME: "image/jpeg"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/register" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		key := r.Header.Get("Idempotency-Key")
		if _, err := uuid.Parse(key); err != nil {
			t.Errorf("Idempotency-Key %q is not a UUID: %v", key, err)
		}

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding register request: %v", err)
		}
		if req.StudentID != "S-2024-118" || req.EmployeeID != "" {
			t.Errorf("identifiers = %q/%q, want student id only", req.StudentID, req.EmployeeID)
		}
		decoded, err := base64.StdEncoding.DecodeString(req.Photo)
		if err != nil || string(decoded) != "jpeg-bytes" {
			t.Errorf("photo did not round-trip: %v", err)
		}
		if req.PhotoWidth != 640 || req.PhotoHeight != 480 {
			t.Errorf("photo dimensions = %dx%d", req.PhotoWidth, req.PhotoHeight)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Account{ID: "acc-9", Email: req.Email, Role: req.Role})
	}))
	defer srv.Close()

	payload := enrollment.Payload{
		Role:       enrollment.RoleStudent,
		FirstName:  "Maya",
		LastName:   "Okafor",
		Email:      "maya@school.edu",
		Identifier: "S-2024-118",
		Password:   "Sunrise9!",
		Confirm:    "Sunrise9!",
	}

	c := New(srv.URL)
	account, err := c.Register(context.Background(), NewRegisterRequest(payload, photo))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if account.ID != "acc-9" || account.Role != enrollment.RoleStudent {
		t.Errorf("account = %+v", account)
	}
}

func TestNewRegisterRequestIdentifierByRole(t *testing.T) {
	p := enrollment.Payload{Role: enrollment.RoleTeacher, Identifier: "E-77"}
	req := NewRegisterRequest(p, nil)
	if req.EmployeeID != "E-77" || req.StudentID != "" {
		t.Errorf("teacher identifiers = %q/%q, want employee id only", req.StudentID, req.EmployeeID)
	}

	p.Role = enrollment.RoleAdmin
	req = NewRegisterRequest(p, nil)
	if req.EmployeeID != "E-77" || req.StudentID != "" {
		t.Errorf("admin identifiers = %q/%q, want employee id only", req.StudentID, req.EmployeeID)
	}
}

func TestUnreachableService(t *testing.T) {
	c := New("http://127.0.0.1:1")
	if _, err := c.Login(context.Background(), LoginRequest{}); err == nil {
		t.Error("Login succeeded against an unreachable service")
	}
	if err := c.Health(context.Background()); err == nil {
		t.Error("Health succeeded against an unreachable service")
	}
}

func TestCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(srv.URL)
	err := c.RequestPasswordReset(ctx, "a@b.com")
	if err == nil {
		t.Fatal("request succeeded with a canceled context")
	}
	if err.Error() != "request canceled" {
		t.Errorf("error = %q, want \"request canceled\"", err.Error())
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := New(srv.URL).Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
}

func TestUnparseableErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>gateway timeout</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), LoginRequest{})
	if err == nil {
		t.Fatal("Login succeeded against a 502")
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		t.Errorf("non-JSON error body produced an AuthError: %v", authErr)
	}
}
