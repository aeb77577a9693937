// Package pprofserver exposes the runtime profiling endpoints on a loopback
// listener separate from the public API.
package pprofserver

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/opsdrill/opsdrill/internal/errors"
)

// Handler serves the standard pprof endpoints.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	return mux
}

// Launch starts a pprof server on the IPv6 loopback address in a goroutine.
// Profiling must never be reachable from outside the host, so port is a bare
// port such as ":6060" rather than a full address.
func Launch(ctx context.Context, port string, logger *slog.Logger) {
	srv := &http.Server{
		Addr:              "[::1]" + port,
		Handler:           Handler(),
		ReadHeaderTimeout: time.Second,
	}
	go func() {
		logger.LogAttrs(ctx, slog.LevelInfo, "starting pprof server", slog.String("pprof_addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.LogAttrs(ctx, slog.LevelError, "pprof server failed", errors.SlogError(err))
		}
	}()
}
