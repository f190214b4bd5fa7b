package base

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/ValentinKolb/moray/rpc/common"
	"github.com/ValentinKolb/moray/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// ErrServerClosed is returned by Serve and Listen after Close was called
var ErrServerClosed = errors.New("server transport closed")

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector  IServerConnector
	handler    transport.ServerHandleFunc
	config     common.ServerConfig
	bufferPool *sync.Pool

	mu       sync.Mutex // guards listener and orders connection registration against Close
	listener net.Listener
	closed   atomic.Bool

	conns *xsync.MapOf[net.Conn, struct{}] // open connections, closed on shutdown
	wg    sync.WaitGroup
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport.
// bufferSize is the initial size of the pooled read buffers.
func NewBaseServerTransport(connector IServerConnector, bufferSize int) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
		conns:     xsync.NewMapOf[net.Conn, struct{}](),
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, bufferSize)
			},
		},
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}

	return t.Serve(listener, config)
}

func (t *serverTransport) Serve(listener net.Listener, config common.ServerConfig) error {
	if t.handler == nil {
		listener.Close()
		return errors.New("no handler registered")
	}

	t.mu.Lock()
	if t.closed.Load() {
		t.mu.Unlock()
		listener.Close()
		return ErrServerClosed
	}
	t.config = config
	t.listener = listener
	t.mu.Unlock()

	Logger.Infof("Starting %s server on %s", t.connector.GetName(), listener.Addr())

	// Accept connections
	for {
		conn, err := listener.Accept()
		if err != nil {
			if t.closed.Load() {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				Logger.Warningf("Accept error: %v", err)
				continue
			}
			return fmt.Errorf("accept failed: %v", err)
		}

		if err := t.connector.UpgradeConnection(conn, config); err != nil {
			Logger.Errorf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
			conn.Close()
			continue
		}

		// Register the connection unless Close already started waiting
		t.mu.Lock()
		if t.closed.Load() {
			t.mu.Unlock()
			conn.Close()
			return nil
		}
		t.wg.Add(1)
		t.conns.Store(conn, struct{}{})
		t.mu.Unlock()

		go t.handleConnection(conn)
	}
}

func (t *serverTransport) Close() error {
	t.mu.Lock()
	t.closed.Store(true)
	listener := t.listener
	t.mu.Unlock()

	var err error
	if listener != nil {
		err = listener.Close()
	}

	t.conns.Range(func(conn net.Conn, _ struct{}) bool {
		conn.Close()
		return true
	})

	// Wait for the running handlers to notice the closed connections
	t.wg.Wait()
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection handles incoming requests for one connection.
// Requests on one connection are processed one after another, a client
// never sends the next request before the previous response stream ended.
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer func() {
		t.conns.Delete(conn)
		conn.Close()
		t.wg.Done()
	}()

	// Timeout in seconds
	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	reader := bufio.NewReader(conn)

	// Function to handle one incoming request
	handleRequest := func() error {
		// The read deadline only applies once a request started, idle connections may stay open
		if _, err := reader.Peek(1); err != nil {
			return err
		}
		if timeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				return fmt.Errorf("failed to set read deadline: %v", err)
			}
		}

		// Get a buffer from the pool
		buf := t.bufferPool.Get().([]byte)
		defer t.bufferPool.Put(buf)

		// Read the frame with requestID
		requestID, data, err := readFrame(reader, buf)
		if err != nil {
			return err
		}

		if err := conn.SetReadDeadline(time.Time{}); err != nil {
			return fmt.Errorf("failed to reset read deadline: %v", err)
		}

		// Every reply is written as its own frame with the same requestID
		var writeErr error
		reply := func(resp []byte) error {
			if writeErr != nil {
				return writeErr
			}
			if timeout > 0 {
				if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
					writeErr = fmt.Errorf("failed to set write deadline: %v", err)
					return writeErr
				}
			}
			if err := writeFrame(conn, requestID, resp); err != nil {
				writeErr = fmt.Errorf("failed to write response: %v", err)
			}
			return writeErr
		}

		// Process the request
		start := time.Now()
		t.handler(data, reply)
		Logger.Debugf("Processed request %d in %s", requestID, time.Since(start))

		return writeErr
	}

	// Handle requests in a loop
	for {
		err := handleRequest()

		// Case EOF: Connection closed by client
		if err == io.EOF {
			Logger.Debugf("Connection closed by client %s", conn.RemoteAddr())
			return
		}

		// Case error: log and close connection
		if err != nil {
			if !t.closed.Load() {
				Logger.Errorf("Error handling request: %v", err)
			}
			return
		}
	}
}
