//nolint:all
package server_test

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/andrei-cloud/anet"

	server "github.com/andrei-cloud/go_pool/internal/server"
	"github.com/andrei-cloud/go_pool/pkg/pool"
)

const testAddr = "127.0.0.1:1600"

// startTestServer starts the admin server over a registry holding one
// demo pool.
func startTestServer(t *testing.T) *server.Server {
	t.Helper()
	registry := pool.NewRegistry()
	t.Cleanup(registry.Close)

	_, err := registry.Register(pool.Template{
		Group:       "particles",
		Tag:         "spark",
		Factory:     func() (any, error) { return &struct{ x int }{}, nil },
		InitialSize: 5,
		AllowExpand: true,
		MaxSize:     20,
	})
	if err != nil {
		t.Fatalf("failed to register pool: %v", err)
	}

	srv, err := server.NewServer(testAddr, registry)
	if err != nil {
		t.Fatalf("failed to initialize server: %v", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			t.Fatalf("server start error: %v", err)
		}
	case <-time.After(1 * time.Second):
		// Allow some time for the server to start
	}

	time.Sleep(100 * time.Millisecond)

	return srv
}

// newTestBroker builds an anet broker with a single pooled connection to
// the test server.
func newTestBroker(t *testing.T) anet.Broker {
	t.Helper()
	factory := func(addr string) (anet.PoolItem, error) {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err != nil {
			return nil, err
		}

		if err := conn.SetDeadline(time.Now().Add(2 * time.Second)); err != nil {
			conn.Close()

			return nil, err
		}

		return conn, nil
	}

	connPool := anet.NewPool(1, factory, testAddr, nil)
	t.Cleanup(connPool.Close)

	broker := anet.NewBroker([]anet.Pool{connPool}, 1, nil, nil)
	go broker.Start()
	t.Cleanup(broker.Close)

	return broker
}

// TestStatsCommand verifies ST answers with the pool's counts.
func TestStatsCommand(t *testing.T) {
	srv := startTestServer(t)
	defer srv.Stop()
	broker := newTestBroker(t)

	req := []byte("ST particles spark")
	resp, err := broker.Send(&req)
	if err != nil {
		t.Fatalf("stats request failed: %v", err)
	}

	if string(resp) != "SU00 5 0 5" {
		t.Fatalf("unexpected stats response: got %q, want %q", resp, "SU00 5 0 5")
	}
}

// TestStatsCommandMissingPool verifies an unknown pool answers zeros
// rather than an error.
func TestStatsCommandMissingPool(t *testing.T) {
	srv := startTestServer(t)
	defer srv.Stop()
	broker := newTestBroker(t)

	req := []byte("ST nowhere nothing")
	resp, err := broker.Send(&req)
	if err != nil {
		t.Fatalf("stats request failed: %v", err)
	}

	if string(resp) != "SU00 0 0 0" {
		t.Fatalf("unexpected stats response: got %q, want %q", resp, "SU00 0 0 0")
	}
}

// TestListCommand verifies LS enumerates the registered pools.
func TestListCommand(t *testing.T) {
	srv := startTestServer(t)
	defer srv.Stop()
	broker := newTestBroker(t)

	req := []byte("LS")
	resp, err := broker.Send(&req)
	if err != nil {
		t.Fatalf("list request failed: %v", err)
	}

	if !strings.HasPrefix(string(resp), "LT00 ") {
		t.Fatalf("unexpected list response prefix: %q", resp)
	}
	if !strings.Contains(string(resp), "particles/spark 5 0 5") {
		t.Fatalf("list response missing pool entry: %q", resp)
	}
}

// TestResizeCommand verifies RZ forwards to the pool and the follow-up
// stats reflect the new size.
func TestResizeCommand(t *testing.T) {
	srv := startTestServer(t)
	defer srv.Stop()
	broker := newTestBroker(t)

	req := []byte("RZ particles spark 8")
	resp, err := broker.Send(&req)
	if err != nil {
		t.Fatalf("resize request failed: %v", err)
	}
	if string(resp) != "RA00" {
		t.Fatalf("unexpected resize response: got %q, want %q", resp, "RA00")
	}

	req = []byte("ST particles spark")
	resp, err = broker.Send(&req)
	if err != nil {
		t.Fatalf("stats request failed: %v", err)
	}
	if string(resp) != "SU00 8 0 8" {
		t.Fatalf("unexpected stats after resize: got %q, want %q", resp, "SU00 8 0 8")
	}
}

// TestUnknownCommand verifies the server responds with incremented code
// and 68 for unknown commands.
func TestUnknownCommand(t *testing.T) {
	srv := startTestServer(t)
	defer srv.Stop()
	broker := newTestBroker(t)

	req := []byte("ZZ0123")
	resp, err := broker.Send(&req)
	if err != nil {
		t.Fatalf("unknown command request failed: %v", err)
	}

	if string(resp) != "ZA68" {
		t.Fatalf("unexpected error response: got %s, want %s", resp, "ZA68")
	}
}
