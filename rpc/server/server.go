package server

import (
	"fmt"
	"github.com/ValentinKolb/moray/lib/moray/mstore"
	"github.com/ValentinKolb/moray/rpc/common"
	"github.com/ValentinKolb/moray/rpc/serializer"
	"github.com/ValentinKolb/moray/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"os/signal"
	"runtime"
	"syscall"
)

var Logger = logger.GetLogger("rpc")

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		adapter:    NewMorayServerAdapter(),
	}
}

// RPCServer serves a mstore.Store over an RPC transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	adapter    IRPCServerAdapter
	store      *mstore.Store
}

func (s *RPCServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(req []byte, reply transport.ServerReplyFunc) {
		// send serializes and writes one response message
		send := func(msg *common.Message) error {
			b, err := s.serializer.Serialize(*msg)
			if err != nil {
				return fmt.Errorf("failed to serialize response: %w", err)
			}
			return reply(b)
		}

		var msg common.Message
		var resp *common.Message

		// Decode the request
		if err := s.serializer.Deserialize(req, &msg); err != nil {
			resp = common.NewErrorResponse(common.ErrCodeInvocation, fmt.Sprintf("failed to deserialize request: %s", err))
		} else if msg.MsgType != common.MsgTRequest {
			resp = common.NewErrorResponse(common.ErrCodeInvocation, fmt.Sprintf("expected a request, got %s", msg.MsgType))
		} else {
			// Let the adapter handle the request, data messages are sent while it runs
			resp = s.adapter.Handle(&msg, s.store, func(value interface{}) error {
				data, err := common.NewDataResponse(value)
				if err != nil {
					return err
				}
				return send(data)
			})
		}

		if err := send(resp); err != nil {
			Logger.Warningf("Failed to send %s response for %s: %v", resp.MsgType, msg.Method, err)
		}
	})
}

// init opens the store and registers the transport handler
func (s *RPCServer) init() error {
	// Init logger
	level := s.config.LogLevel
	if level == "" {
		level = "info"
	}
	if err := common.InitLoggers(level); err != nil {
		return err
	}

	// Function to create the storage engine
	engineFactory := func() (mstore.Engine, error) {
		if s.config.DataFile == "" {
			return mstore.NewMemoryEngine(), nil
		}
		return mstore.OpenBoltEngine(s.config.DataFile)
	}

	store, err := mstore.NewStore(engineFactory)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	s.store = store

	Logger.Infof("moray setup completed successfully")

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// Serve starts the RPC server on the configured endpoint (blocking)
// This function will also initialize the store and start the transport layer
func (s *RPCServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// ServeListener starts the RPC server on an existing listener (blocking)
func (s *RPCServer) ServeListener(listener net.Listener) error {
	if err := s.init(); err != nil {
		listener.Close()
		return err
	}
	return s.transport.Serve(listener, s.config)
}

// Close stops the transport and closes the store
func (s *RPCServer) Close() error {
	err := s.transport.Close()
	if s.store != nil {
		if storeErr := s.store.Close(); storeErr != nil && err == nil {
			err = storeErr
		}
	}
	return err
}
