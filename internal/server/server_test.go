package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"
)

func newTestServer(handler http.Handler) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(handler, Options{
		Port:            0,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: 2 * time.Second,
	}, logger)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	srv := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	var order []string
	srv.OnShutdown("store", func(context.Context) error {
		order = append(order, "store")
		return nil
	})
	srv.OnShutdown("cache", func(context.Context) error {
		order = append(order, "cache")
		return nil
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusTeapot)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	if len(order) != 2 || order[0] != "cache" || order[1] != "store" {
		t.Errorf("shutdown order = %v, want [cache store]", order)
	}
}

func TestServer_ShutdownErrorsAreJoined(t *testing.T) {
	srv := newTestServer(http.NotFoundHandler())
	errClose := errors.New("close failed")
	srv.OnShutdown("store", func(context.Context) error { return errClose })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := srv.Serve(ctx, ln); !errors.Is(err, errClose) {
		t.Fatalf("expected errClose, got %v", err)
	}
}
