package main

import (
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-floor/utils"
)

func TestRunReturnsListenerError(t *testing.T) {
	utils.SilenceLoggers()

	// occupy a port so the server cannot bind it
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := &http.Server{Addr: ln.Addr().String(), Handler: http.NotFoundHandler()}
	done := make(chan error, 1)
	go func() { done <- run(srv, make(chan os.Signal)) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after the listener failed")
	}
}

func TestRunShutsDownOnSignal(t *testing.T) {
	utils.SilenceLoggers()

	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	quit := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() { done <- run(srv, quit) }()

	quit <- syscall.SIGTERM
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after the signal")
	}
}
