package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v (body %s)", err, rec.Body.String())
	}
	return env
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusCreated, "Created", map[string]string{"id": "x"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type %q", ct)
	}
	env := decode(t, rec)
	if !env.Success || env.Message != "Created" || env.Data == nil {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestSession(t *testing.T) {
	rec := httptest.NewRecorder()
	Session(rec, httptest.NewRequest(http.MethodPost, "/", nil), http.StatusOK, "Logged in successfully", "jwt-value", map[string]string{"id": "u1"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Token   string `json:"token"`
		User    struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Token != "jwt-value" || body.User.ID != "u1" {
		t.Fatalf("token and user must sit at the body root: %s", rec.Body.String())
	}
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNotFound, "User not found")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	env := decode(t, rec)
	if env.Success || env.Message != "User not found" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestRateLimited(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want int
	}{
		{1500 * time.Millisecond, 2},
		{time.Second, 1},
		{200 * time.Millisecond, 1},
		{0, 1},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RateLimited(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.in)

		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		env := decode(t, rec)
		if env.Success || env.Message != "Too many requests" {
			t.Fatalf("unexpected envelope %+v", env)
		}
		if env.RetryAfterSeconds != tc.want {
			t.Fatalf("retryAfterSeconds for %s = %d, want %d", tc.in, env.RetryAfterSeconds, tc.want)
		}
		if rec.Header().Get("Retry-After") == "" {
			t.Fatal("missing Retry-After header")
		}
	}
}
