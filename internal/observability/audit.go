package observability

import (
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// Audit emits a structured audit record for security-relevant actions
// (OTP issuance, admin onboarding, secret creation). Destination values are
// passed by the caller already masked.
func Audit(r *http.Request, event string, attrs ...any) {
	msg := "audit"
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		msg = fmt.Sprintf("audit trace_id=%s span_id=%s", sc.TraceID().String(), sc.SpanID().String())
	}
	base := []any{
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", r.Header.Get("X-Request-Id"),
	}
	base = append(base, attrs...)
	slog.InfoContext(r.Context(), msg, base...)
}
