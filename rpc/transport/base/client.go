package base

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/ValentinKolb/moray/rpc/common"
	"github.com/ValentinKolb/moray/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// ValidateEndpoint checks the syntax of an endpoint without connecting to it
	ValidateEndpoint(endpoint string) error

	// Connect establishes a single connection to the endpoint (timeout 0 = none)
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientConnection represents a single net connection owned by the pool
type clientConnection struct {
	conn     net.Conn
	reader   *bufio.Reader
	endpoint string
}

// poolMetrics holds the counters of one transport type
type poolMetrics struct {
	claims        *metrics.Counter
	claimTimeouts *metrics.Counter
	dials         *metrics.Counter
	discards      *metrics.Counter
}

func newPoolMetrics(name string) poolMetrics {
	return poolMetrics{
		claims:        metrics.GetOrCreateCounter(fmt.Sprintf(`moray_pool_claims_total{transport=%q}`, name)),
		claimTimeouts: metrics.GetOrCreateCounter(fmt.Sprintf(`moray_pool_claim_timeouts_total{transport=%q}`, name)),
		dials:         metrics.GetOrCreateCounter(fmt.Sprintf(`moray_pool_dials_total{transport=%q}`, name)),
		discards:      metrics.GetOrCreateCounter(fmt.Sprintf(`moray_pool_discards_total{transport=%q}`, name)),
	}
}

// clientTransport implements the bounded connection pool
// independent of the specific transport medium (unix, tcp, etc.)
//
// Every claimed connection and every connection being dialed holds one token
// of slots, so at most MaxConnections connections are open at any time.
type clientTransport struct {
	connector IClientConnector
	config    common.ClientConfig
	metrics   poolMetrics

	slots chan struct{}

	idleMu sync.Mutex
	idle   []*clientConnection // LIFO, the most recently used connection is reused first

	nextEndpoint  uint64 // Atomic counter for Round Robin
	nextRequestID uint64 // Atomic counter for unique request IDs

	closed    atomic.Bool
	closeCh   chan struct{} // Closed by Close to wake up waiting claims
	closeOnce sync.Once
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new pooled client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
		metrics:   newPoolMetrics(connector.GetName()),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if t.slots != nil {
		return fmt.Errorf("%s transport is already connected", t.connector.GetName())
	}

	if err := config.Validate(); err != nil {
		return err
	}
	for _, endpoint := range config.Transport.Endpoints {
		if err := t.connector.ValidateEndpoint(endpoint); err != nil {
			return fmt.Errorf("%w: invalid %s endpoint %q: %v", common.ErrConfig, t.connector.GetName(), endpoint, err)
		}
	}

	// Only the bookkeeping is set up here, connections are dialed on demand
	t.config = config
	t.slots = make(chan struct{}, config.Transport.MaxConnections)
	t.closeCh = make(chan struct{})

	Logger.Infof("Prepared %s connection pool with up to %d connections to %d endpoints",
		t.connector.GetName(), config.Transport.MaxConnections, len(config.Transport.Endpoints))

	return nil
}

func (t *clientTransport) Claim() (transport.IClaim, error) {
	if t.slots == nil {
		return nil, fmt.Errorf("%w: %s transport is not connected", common.ErrPoolClosed, t.connector.GetName())
	}
	if t.closed.Load() {
		return nil, common.ErrPoolClosed
	}

	if err := t.acquireSlot(); err != nil {
		return nil, err
	}

	// The pool may have been closed while waiting
	if t.closed.Load() {
		t.releaseSlot()
		return nil, common.ErrPoolClosed
	}

	conn := t.popIdle()
	if conn == nil {
		var err error
		conn, err = t.dial()
		if err != nil {
			t.releaseSlot()
			return nil, err
		}
	}

	t.metrics.claims.Inc()
	return &clientClaim{transport: t, conn: conn}, nil
}

func (t *clientTransport) Close() error {
	if t.closeCh == nil {
		return nil
	}

	t.closeOnce.Do(func() {
		t.closed.Store(true)
		close(t.closeCh)

		t.idleMu.Lock()
		defer t.idleMu.Unlock()
		for _, conn := range t.idle {
			conn.conn.Close()
		}
		t.idle = nil

		Logger.Infof("Closed %s connection pool", t.connector.GetName())
	})
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// acquireSlot blocks until a connection slot is free, the claim timeout elapses or the pool is closed
func (t *clientTransport) acquireSlot() error {
	// Fast path: a slot is free
	select {
	case t.slots <- struct{}{}:
		return nil
	default:
	}

	timeoutMs := t.config.Transport.ClaimTimeoutMillisecond
	if timeoutMs == 0 {
		t.metrics.claimTimeouts.Inc()
		return fmt.Errorf("%w: all %d connections are claimed", common.ErrPoolTimeout, cap(t.slots))
	}

	// A nil channel never fires, which makes the wait unbounded
	var timeoutCh <-chan time.Time
	if timeoutMs > 0 {
		timer := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case t.slots <- struct{}{}:
		return nil
	case <-t.closeCh:
		return common.ErrPoolClosed
	case <-timeoutCh:
		t.metrics.claimTimeouts.Inc()
		return fmt.Errorf("%w: no connection available after %d ms", common.ErrPoolTimeout, timeoutMs)
	}
}

// releaseSlot frees one connection slot
func (t *clientTransport) releaseSlot() {
	<-t.slots
}

// popIdle returns the most recently released idle connection or nil
func (t *clientTransport) popIdle() *clientConnection {
	t.idleMu.Lock()
	defer t.idleMu.Unlock()

	n := len(t.idle)
	if n == 0 {
		return nil
	}
	conn := t.idle[n-1]
	t.idle[n-1] = nil
	t.idle = t.idle[:n-1]
	return conn
}

// dial connects to the next endpoint via Round Robin, trying every endpoint once
func (t *clientTransport) dial() (*clientConnection, error) {
	endpoints := t.config.Transport.Endpoints
	start := atomic.AddUint64(&t.nextEndpoint, 1)

	var lastErr error
	for i := 0; i < len(endpoints); i++ {
		endpoint := endpoints[(start+uint64(i))%uint64(len(endpoints))]

		conn, err := t.connector.Connect(endpoint, t.ioTimeout())
		if err != nil {
			lastErr = err
			Logger.Warningf("Failed to connect to %s: %v", endpoint, err)
			continue
		}

		// Upgrade the connection with protocol-specific settings
		if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
			conn.Close()
			lastErr = fmt.Errorf("failed to upgrade connection to %s: %v", endpoint, err)
			Logger.Warningf("%v", lastErr)
			continue
		}

		t.metrics.dials.Inc()
		Logger.Debugf("Connected to %s using %s transport", endpoint, t.connector.GetName())

		return &clientConnection{
			conn:     conn,
			reader:   bufio.NewReader(conn),
			endpoint: endpoint,
		}, nil
	}

	return nil, fmt.Errorf("%w: failed to connect to any of %d endpoints: %v", common.ErrTransport, len(endpoints), lastErr)
}

// release returns a connection to the idle list or closes it
func (t *clientTransport) release(conn *clientConnection, reusable bool) {
	pooled := false
	if reusable {
		// Reset deadlines of the finished call
		if err := conn.conn.SetDeadline(time.Time{}); err == nil {
			t.idleMu.Lock()
			if !t.closed.Load() {
				t.idle = append(t.idle, conn)
				pooled = true
			}
			t.idleMu.Unlock()
		}
	}

	if !pooled {
		conn.conn.Close()
		t.metrics.discards.Inc()
		Logger.Debugf("Discarded connection to %s", conn.endpoint)
	}

	t.releaseSlot()
}

// ioTimeout returns the per read/write timeout (0 = none)
func (t *clientTransport) ioTimeout() time.Duration {
	return time.Duration(t.config.TimeoutSecond) * time.Second
}

// stats returns the number of idle and claimed connections
func (t *clientTransport) stats() (idle int, claimed int) {
	t.idleMu.Lock()
	idle = len(t.idle)
	t.idleMu.Unlock()
	return idle, len(t.slots)
}

// --------------------------------------------------------------------------
// Claim (docu see transport.IClaim)
// --------------------------------------------------------------------------

// clientClaim is the exclusive use of one connection for one call
type clientClaim struct {
	transport *clientTransport
	conn      *clientConnection
	requestID uint64 // id of the outstanding request, 0 before Send
	broken    bool   // set on any I/O or framing failure
	released  bool
}

func (c *clientClaim) Send(req []byte) error {
	if c.released {
		return fmt.Errorf("%w: claim already released", common.ErrTransport)
	}

	c.requestID = atomic.AddUint64(&c.transport.nextRequestID, 1)

	if timeout := c.transport.ioTimeout(); timeout > 0 {
		if err := c.conn.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			c.broken = true
			return fmt.Errorf("%w: failed to set write deadline: %v", common.ErrTransport, err)
		}
	}

	if err := writeFrame(c.conn.conn, c.requestID, req); err != nil {
		c.broken = true
		if errors.Is(err, errFrameTooLarge) {
			return fmt.Errorf("%w: request of %d bytes exceeds %d bytes", common.ErrProtocol, len(req), MaxFrameSize)
		}
		return fmt.Errorf("%w: failed to write request to %s: %v", common.ErrTransport, c.conn.endpoint, err)
	}
	return nil
}

func (c *clientClaim) Receive() ([]byte, error) {
	if c.released {
		return nil, fmt.Errorf("%w: claim already released", common.ErrTransport)
	}
	if c.requestID == 0 {
		return nil, fmt.Errorf("%w: no outstanding request", common.ErrProtocol)
	}

	if timeout := c.transport.ioTimeout(); timeout > 0 {
		if err := c.conn.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			c.broken = true
			return nil, fmt.Errorf("%w: failed to set read deadline: %v", common.ErrTransport, err)
		}
	}

	requestID, data, err := readFrame(c.conn.reader, nil)
	if err != nil {
		c.broken = true
		if errors.Is(err, errFrameTooLarge) {
			return nil, fmt.Errorf("%w: response frame exceeds %d bytes", common.ErrProtocol, MaxFrameSize)
		}
		return nil, fmt.Errorf("%w: failed to read response from %s: %v", common.ErrTransport, c.conn.endpoint, err)
	}

	if requestID != c.requestID {
		c.broken = true
		return nil, fmt.Errorf("%w: received response for request %d while waiting for %d", common.ErrProtocol, requestID, c.requestID)
	}

	return data, nil
}

func (c *clientClaim) Release(reusable bool) {
	if c.released {
		return
	}
	c.released = true
	c.transport.release(c.conn, reusable && !c.broken)
}
