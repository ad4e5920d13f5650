// Package mux serves HTTP and gRPC on one port, routing each connection by
// protocol.
package mux

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/soheilhy/cmux"
	"google.golang.org/grpc"
)

// Multiplexer handles protocol detection and routing between gRPC and HTTP.
type Multiplexer struct {
	logger     *slog.Logger
	grpcServer *grpc.Server
	httpServer *http.Server

	mux      cmux.CMux
	listener net.Listener
	wg       sync.WaitGroup
}

// New returns a Multiplexer for the given servers.
func New(grpcServer *grpc.Server, httpHandler http.Handler, logger *slog.Logger) *Multiplexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Multiplexer{
		logger:     logger,
		grpcServer: grpcServer,
		httpServer: &http.Server{
			Handler:           httpHandler,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start listens on address and serves both protocols in the background.
func (m *Multiplexer) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	m.listener = listener
	m.mux = cmux.New(listener)

	grpcListener := m.mux.Match(cmux.HTTP2HeaderField("content-type", "application/grpc"))
	httpListener := m.mux.Match(cmux.HTTP1Fast())

	m.wg.Add(3)
	go func() {
		defer m.wg.Done()
		if err := m.grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) && !errors.Is(err, cmux.ErrListenerClosed) {
			m.logger.Error("gRPC server failed", "err", err)
		}
	}()
	go func() {
		defer m.wg.Done()
		if err := m.httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, cmux.ErrListenerClosed) {
			m.logger.Error("HTTP server failed", "err", err)
		}
	}()
	go func() {
		defer m.wg.Done()
		if err := m.mux.Serve(); err != nil && !errors.Is(err, net.ErrClosed) {
			m.logger.Error("multiplexer failed", "err", err)
		}
	}()

	m.logger.Info("multiplexer started", "address", listener.Addr().String())
	return nil
}

// Addr returns the bound address, empty before Start.
func (m *Multiplexer) Addr() string {
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// Stop drains HTTP, stops gRPC and closes the listener.
func (m *Multiplexer) Stop(ctx context.Context) error {
	if err := m.httpServer.Shutdown(ctx); err != nil {
		m.logger.Error("HTTP server shutdown failed", "err", err)
	}
	m.grpcServer.GracefulStop()
	if m.listener != nil {
		m.listener.Close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.logger.Info("multiplexer stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("multiplexer shutdown: %w", ctx.Err())
	}
}
