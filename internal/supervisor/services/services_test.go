// Gustus - Taste-Based Home Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gustus

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeServer struct {
	started  chan struct{}
	shutdown atomic.Bool
	serveErr error
	block    chan struct{}
}

func newFakeServer(serveErr error) *fakeServer {
	return &fakeServer{
		started:  make(chan struct{}),
		serveErr: serveErr,
		block:    make(chan struct{}),
	}
}

func (f *fakeServer) ListenAndServe() error {
	close(f.started)
	if f.serveErr != nil {
		return f.serveErr
	}
	<-f.block
	return nil
}

func (f *fakeServer) Shutdown(_ context.Context) error {
	f.shutdown.Store(true)
	close(f.block)
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	srv := newFakeServer(nil)
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	<-srv.started
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
	if !srv.shutdown.Load() {
		t.Error("server Shutdown was not called")
	}
}

func TestHTTPServiceSurfacesServeError(t *testing.T) {
	boom := errors.New("listen failed")
	svc := NewHTTPServerService(newFakeServer(boom), time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, boom) {
		t.Errorf("Serve() = %v, want wrapped %v", err, boom)
	}
}

type countingRebuilder struct {
	runs atomic.Int64
	err  error
}

func (c *countingRebuilder) Run(_ context.Context) (int64, error) {
	c.runs.Add(1)
	return c.runs.Load(), c.err
}

func TestRebuildServiceRunsOnStartupAndTicks(t *testing.T) {
	rb := &countingRebuilder{}
	svc := NewRebuildService(rb, 20*time.Millisecond, true, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() = %v, want deadline exceeded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not stop")
	}

	if got := rb.runs.Load(); got < 2 {
		t.Errorf("rebuild ran %d times, want startup run plus at least one tick", got)
	}
}

func TestRebuildServiceKeepsRunningOnFailure(t *testing.T) {
	rb := &countingRebuilder{err: errors.New("duckdb busy")}
	svc := NewRebuildService(rb, 20*time.Millisecond, true, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want deadline exceeded", err)
	}
	if got := rb.runs.Load(); got < 2 {
		t.Errorf("rebuild attempted %d times, want retries despite failures", got)
	}
}
