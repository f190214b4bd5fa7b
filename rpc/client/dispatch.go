package client

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/moray/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"time"
)

// invokeRPCStream drives one call: it claims a connection, sends the request and
// passes every data message, decoded into T, to handler in wire order.
// The call ends with the first end message (nil), error message (*common.RemoteError)
// or failure. A nil handler means the method does not stream results, a data
// message is a protocol error then.
//
// The claimed connection is released on every path. It is only reused if the
// response stream was read completely, up to and including the terminal message.
func invokeRPCStream[T any](a *rpcClientAdapter, method, reqID string, args []interface{}, handler func(T) error) (err error) {
	start := time.Now()
	defer func() {
		metrics.GetOrCreateHistogram(fmt.Sprintf(`moray_call_duration_seconds{method=%q}`, method)).UpdateDuration(start)
		if err != nil {
			metrics.GetOrCreateCounter(fmt.Sprintf(`moray_call_errors_total{method=%q,kind=%q}`, method, errorKind(err))).Inc()
			Logger.Debugf("%s (req_id=%s) failed after %s: %v", method, reqID, time.Since(start), err)
		}
	}()

	// Encode the request before claiming a connection
	req, err := common.NewRequest(method, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrProtocol, err)
	}
	reqBytes, err := a.serializer.Serialize(*req)
	if err != nil {
		return fmt.Errorf("%w: failed to serialize %s request: %v", common.ErrProtocol, method, err)
	}

	claim, err := a.transport.Claim()
	if err != nil {
		return err
	}
	reusable := false
	defer func() {
		claim.Release(reusable)
	}()

	if err := claim.Send(reqBytes); err != nil {
		return err
	}

	var resp common.Message
	for {
		respBytes, err := claim.Receive()
		if err != nil {
			return err
		}

		if err := a.serializer.Deserialize(respBytes, &resp); err != nil {
			return fmt.Errorf("%w: failed to decode response to %s: %v", common.ErrProtocol, method, err)
		}

		switch resp.MsgType {
		case common.MsgTData:
			if err := deliver(method, &resp, handler); err != nil {
				return err
			}

		case common.MsgTEnd:
			// The stream is complete, even a failing handler leaves the connection clean
			reusable = true
			// An end message may carry a final value
			if len(resp.Data) > 0 {
				if err := deliver(method, &resp, handler); err != nil {
					return err
				}
			}
			Logger.Debugf("%s (req_id=%s) done in %s", method, reqID, time.Since(start))
			return nil

		case common.MsgTError:
			reusable = true
			return &common.RemoteError{Code: resp.ErrName, Message: resp.ErrMsg}

		default:
			return fmt.Errorf("%w: unexpected %s message in response to %s", common.ErrProtocol, resp.MsgType, method)
		}
	}
}

// deliver decodes the payload of msg and passes it to handler
func deliver[T any](method string, msg *common.Message, handler func(T) error) error {
	if handler == nil {
		return fmt.Errorf("%w: %s does not stream results but received a value", common.ErrProtocol, method)
	}

	var value T
	if err := msg.DecodeData(&value); err != nil {
		return fmt.Errorf("%w: failed to decode %s result: %v", common.ErrProtocol, method, err)
	}

	if err := handler(value); err != nil {
		return &common.HandlerError{Err: err}
	}
	return nil
}

// orDiscard returns handler, or a handler dropping every value if it is nil
func orDiscard[T any](handler func(T) error) func(T) error {
	if handler == nil {
		return func(T) error { return nil }
	}
	return handler
}

// errorKind returns the metric label of a call error
func errorKind(err error) string {
	var remote *common.RemoteError
	switch {
	case errors.Is(err, common.ErrHandlerAborted):
		return "handler"
	case errors.As(err, &remote):
		return "remote"
	case errors.Is(err, common.ErrPoolTimeout):
		return "pool_timeout"
	case errors.Is(err, common.ErrPoolClosed):
		return "pool_closed"
	case errors.Is(err, common.ErrTransport):
		return "transport"
	case errors.Is(err, common.ErrProtocol):
		return "protocol"
	}
	return "other"
}
