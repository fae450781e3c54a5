package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/entrhq/pilot/pkg/logging"
)

// metricsServer exposes the default Prometheus registry over HTTP.
type metricsServer struct {
	srv  *http.Server
	addr string
	done chan struct{}
}

// startMetricsServer binds addr before returning so that a busy port fails the
// command instead of a background goroutine.
func startMetricsServer(addr string, log *logging.Logger) (*metricsServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}

	errorLog, err := zap.NewStdLogAt(log.Zap(), zap.WarnLevel)
	if err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("failed to create metrics error log: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	m := &metricsServer{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ErrorLog:          errorLog,
		},
		addr: ln.Addr().String(),
		done: make(chan struct{}),
	}

	go func() {
		defer close(m.done)
		if err := m.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server stopped: %v", err)
		}
	}()

	log.Infof("Serving metrics on http://%s/metrics", m.addr)
	return m, nil
}

// Addr returns the bound address.
func (m *metricsServer) Addr() string {
	return m.addr
}

// Shutdown stops the server and waits for it to exit.
func (m *metricsServer) Shutdown(ctx context.Context) error {
	err := m.srv.Shutdown(ctx)
	select {
	case <-m.done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}
