// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package web runs the local development server: a chat page, a JSON API, a
// WebSocket for streamed replies, and the prediction routes used when the
// server is packaged as a Vertex AI serving container.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/adk-starter/agentkit/logging"
	"github.com/adk-starter/agentkit/server/web/handlers"
	"github.com/adk-starter/agentkit/server/web/routers"
)

const (
	DefaultHost     = "127.0.0.1"
	maxPort         = 65535
	shutdownTimeout = 10 * time.Second
)

// Config holds the parameters to run the server.
type Config struct {
	Host string
	Port int
}

// Listen binds host:port. When the port is in use it moves on to the next
// one, logging a warning each time. Any other bind error is returned as is.
func Listen(ctx context.Context, host string, port int) (net.Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err == nil {
		return ln, nil
	}
	if !errors.Is(err, syscall.EADDRINUSE) || port >= maxPort {
		return nil, err
	}
	logging.Warn(logr.FromContextOrDiscard(ctx), fmt.Sprintf("port %d is in use, trying port %d", port, port+1),
		"port", port, "nextPort", port+1)
	return Listen(ctx, host, port+1)
}

// NewHandler builds the routes of the server for agent.
func NewHandler(log logr.Logger, agent handlers.AgentService, metrics *handlers.Metrics) http.Handler {
	rBase := mux.NewRouter().StrictSlash(true)
	rBase.Use(Logger(log))

	subrouters := []routers.Router{
		routers.NewChatAPIRouter(
			handlers.NewChatAPIController(agent, metrics),
			handlers.NewUIController(agent),
		),
		routers.NewSessionsAPIRouter(handlers.NewSessionsAPIController(agent)),
		routers.NewWebSocketRouter(handlers.NewWebSocketController(agent, metrics)),
		routers.NewPredictAPIRouter(handlers.NewPredictController(agent, metrics)),
	}
	if g, ok := agent.(handlers.Grapher); ok {
		subrouters = append(subrouters, routers.NewDebugAPIRouter(handlers.NewDebugAPIController(agent, g)))
	}
	routers.SetupRouter(rBase, []routers.Middleware{metrics.Instrument}, subrouters...)
	if metrics != nil {
		rBase.Methods(http.MethodGet).Path("/metrics").Handler(metrics.Handler())
	}
	return rBase
}

// Logger puts log into the request context, opens a span for the request,
// and logs the request once served.
func Logger(log logr.Logger) mux.MiddlewareFunc {
	tracer := otel.Tracer("github.com/adk-starter/agentkit/server/web")
	return func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
			span.SetAttributes(attribute.String("http.request.method", r.Method))
			defer span.End()

			inner.ServeHTTP(w, r.WithContext(logr.NewContext(ctx, log)))

			log.V(1).Info("Served request", "method", r.Method, "uri", r.RequestURI, "duration", time.Since(start).String())
		})
	}
}

// Serve listens on cfg.Host and cfg.Port, or the next free port, and serves
// until ctx is cancelled. It then shuts the server down gracefully.
func Serve(ctx context.Context, cfg Config, agent handlers.AgentService) error {
	log := logr.FromContextOrDiscard(ctx)
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}

	ln, err := Listen(ctx, host, cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to listen on %s:%d: %w", host, cfg.Port, err)
	}

	handler := h2c.NewHandler(NewHandler(log, agent, handlers.NewMetrics()), &http2.Server{})
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	log.Info("Running agent locally", "agent", agent.Name(), "url", "http://"+ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		log.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
