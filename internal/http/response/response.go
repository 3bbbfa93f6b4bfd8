package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Envelope is the body shape shared by every JSON endpoint. Data is omitted
// for message-only responses; Token and User only appear on session-issuing
// endpoints; RetryAfterSeconds only appears on 429s.
type Envelope struct {
	Success           bool   `json:"success"`
	Message           string `json:"message,omitempty"`
	Token             string `json:"token,omitempty"`
	User              any    `json:"user,omitempty"`
	Data              any    `json:"data,omitempty"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	write(w, r, status, Envelope{Success: true, Message: message, Data: data})
}

// Session writes a success envelope carrying the access token (and the
// identity, when the flow resolves one) at the top level of the body.
func Session(w http.ResponseWriter, r *http.Request, status int, message, token string, user any) {
	write(w, r, status, Envelope{Success: true, Message: message, Token: token, User: user})
}

func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	write(w, r, status, Envelope{Success: false, Message: message})
}

// RateLimited writes a 429 with both the Retry-After header and the
// retryAfterSeconds body field. Sub-second waits round up to one second so
// clients never retry immediately.
func RateLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	seconds := int((retryAfter + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	write(w, r, http.StatusTooManyRequests, Envelope{
		Success:           false,
		Message:           "Too many requests",
		RetryAfterSeconds: seconds,
	})
}

func write(w http.ResponseWriter, r *http.Request, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response body",
			"path", r.URL.Path,
			"status", status,
			"error", err.Error(),
		)
	}
}
