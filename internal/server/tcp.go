package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
)

// maxPortProbes bounds how far Listen walks up from the requested port.
const maxPortProbes = 100

// Backoff bounds for retrying Accept after a transient failure such as
// running out of file descriptors.
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Listen binds a TCP listener on port, moving to the next port while the
// requested one is in use. Port 0 picks any free port.
func Listen(port int) (net.Listener, error) {
	var lastErr error

	for i := 0; i < maxPortProbes; i++ {
		addr := fmt.Sprintf(":%d", port)
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) || port == 0 {
			return nil, err
		}
		lastErr = err
		port++
	}

	return nil, fmt.Errorf("no free port found: %w", lastErr)
}

// Serve accepts connections on ln and hands each to handler in its own
// goroutine. When ctx is cancelled the listener and every open connection are
// closed, and Serve returns once all handlers have finished.
func Serve(ctx context.Context, ln net.Listener, handler func(conn net.Conn), logger hclog.Logger) error {
	var (
		mu    sync.Mutex
		conns = make(map[net.Conn]struct{})
		wg    sync.WaitGroup
	)

	// When ctx is cancelled, close listener and connections
	go func() {
		<-ctx.Done()
		ln.Close()

		mu.Lock()
		for c := range conns {
			c.Close()
		}
		mu.Unlock()
	}()

	defer wg.Wait()

	var delay time.Duration

	// Accept Loop
	for {
		conn, err := ln.Accept()
		if err != nil {
			// When ln.Close() is called, Accept() returns an error.
			// This is how we break out of the loop cleanly.
			select {
			case <-ctx.Done():
				return nil // graceful shutdown
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}

			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay *= 2
			}
			if delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			logger.Warn("error accepting connection, retrying", "error", err, "delay", delay)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil
			}
			continue
		}
		delay = 0

		mu.Lock()
		if ctx.Err() != nil {
			mu.Unlock()
			conn.Close()
			return nil
		}
		conns[conn] = struct{}{}
		mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				mu.Lock()
				delete(conns, conn)
				mu.Unlock()
			}()

			logger.Debug("client connected", "remote", conn.RemoteAddr().String())
			handler(conn)
		}()
	}
}
