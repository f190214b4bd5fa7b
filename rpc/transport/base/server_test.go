package base

import (
	"errors"
	"github.com/ValentinKolb/moray/rpc/common"
	"github.com/ValentinKolb/moray/rpc/transport"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestServeAfterClose(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	server := NewBaseServerTransport(&testServerConnector{}, 1024)
	server.RegisterHandler(repeatHandler(1))
	if err := server.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	err = server.Serve(listener, common.ServerConfig{})
	if !errors.Is(err, ErrServerClosed) {
		t.Errorf("Expected ErrServerClosed, got %v", err)
	}
	if errors.Is(err, common.ErrPoolClosed) {
		t.Errorf("Server error must not match the client pool error")
	}

	// The listener is closed by Serve
	if _, err := listener.Accept(); err == nil {
		t.Errorf("Expected the listener to be closed")
	}
}

func TestNoHandlerRunsAfterClose(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	addr := listener.Addr().String()

	var closed atomic.Bool
	var lateCalls atomic.Int32
	server := NewBaseServerTransport(&testServerConnector{}, 1024)
	server.RegisterHandler(func(req []byte, reply transport.ServerReplyFunc) {
		if closed.Load() {
			lateCalls.Add(1)
		}
		_ = reply(req)
	})

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(listener, common.ServerConfig{TimeoutSecond: 5})
	}()

	// Clients keep connecting and sending requests while the server shuts down
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				conn, err := net.DialTimeout("tcp", addr, time.Second)
				if err != nil {
					continue
				}
				_ = writeFrame(conn, 1, []byte("ping"))
				conn.Close()
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	if err := server.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	closed.Store(true)

	time.Sleep(50 * time.Millisecond)
	close(stop)
	wg.Wait()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected Serve to return nil after Close, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Close")
	}

	if n := lateCalls.Load(); n != 0 {
		t.Errorf("Handler was called %d times after Close returned", n)
	}
}
