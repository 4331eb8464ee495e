package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/api-gateway/internal/routes"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/circuitbreaker"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/httpapi"
)

type Gateway struct {
	routes    []routes.Route
	breakers  *circuitbreaker.Registry
	transport http.RoundTripper
	fallback  *FallbackHandler
	log       *slog.Logger
}

func NewGateway(rt []routes.Route, breakers *circuitbreaker.Registry, transport http.RoundTripper, fallback *FallbackHandler, log *slog.Logger) *Gateway {
	return &Gateway{
		routes:    rt,
		breakers:  breakers,
		transport: transport,
		fallback:  fallback,
		log:       log,
	}
}

// Mount registers every proxied prefix plus the fallback and breaker
// inspection endpoints on r.
func (g *Gateway) Mount(r chi.Router) error {
	for _, route := range g.routes {
		proxy, err := g.newProxy(route)
		if err != nil {
			return err
		}
		for _, prefix := range route.Prefixes {
			r.Handle(prefix, proxy)
			r.Handle(prefix+"/*", proxy)
		}
	}

	r.Get("/fallback/{service}", g.fallback.Fallback)
	r.Get("/breakers", g.Breakers)
	return nil
}

func (g *Gateway) newProxy(route routes.Route) (http.Handler, error) {
	target, err := url.Parse(route.Target)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("route %q: invalid target %q", route.Name, route.Target)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		Transport: &circuitbreaker.Transport{
			Breaker: g.breakers.Get(route.Name),
			Next:    g.transport,
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			g.handleProxyError(w, r, route, err)
		},
	}, nil
}

func (g *Gateway) handleProxyError(w http.ResponseWriter, r *http.Request, route routes.Route, err error) {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		g.fallback.Respond(w, r, route.Fallback)
		return
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		g.log.WarnContext(r.Context(), "upstream timeout",
			slog.String("route", route.Name), slog.Any("error", err))
		httpapi.RespondError(w, http.StatusGatewayTimeout, "timeout", route.Name+" service did not respond in time")
		return
	}

	g.log.ErrorContext(r.Context(), "upstream unreachable",
		slog.String("route", route.Name), slog.Any("error", err))
	httpapi.RespondError(w, http.StatusBadGateway, "bad_gateway", route.Name+" service is unreachable")
}

// Breakers serves GET /breakers: state and counters of every route breaker.
func (g *Gateway) Breakers(w http.ResponseWriter, _ *http.Request) {
	httpapi.RespondJSON(w, http.StatusOK, g.breakers.Snapshots())
}
