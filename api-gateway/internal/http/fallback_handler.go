package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

var fallbackMessages = map[string]string{
	"product":  "Product Service is temporarily unavailable",
	"payment":  "Payment Service is temporarily unavailable",
	"order":    "Order Service is temporarily unavailable",
	"shipping": "Shipping Service is temporarily unavailable",
}

const genericFallbackMessage = "Service is temporarily unavailable"

type FallbackHandler struct {
	log *slog.Logger
}

func NewFallbackHandler(log *slog.Logger) *FallbackHandler {
	return &FallbackHandler{log: log}
}

// Respond writes the degraded answer for service. It is called in-process by
// the proxy when a breaker refuses a call, so it never waits on anything.
func (h *FallbackHandler) Respond(w http.ResponseWriter, r *http.Request, service string) {
	msg, ok := fallbackMessages[service]
	if !ok {
		msg = genericFallbackMessage
	}

	h.log.ErrorContext(r.Context(), "circuit open, serving fallback",
		slog.String("service", service),
		slog.String("path", r.URL.Path))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte(msg))
}

// Fallback serves GET /fallback/{service}.
func (h *FallbackHandler) Fallback(w http.ResponseWriter, r *http.Request) {
	h.Respond(w, r, chi.URLParam(r, "service"))
}
