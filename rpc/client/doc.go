// Package client implements the moray client.
//
// A MorayClient owns a bounded pool of connections (see transport.IRPCClientTransport).
// Every operation claims one connection exclusively, sends a single request and
// passes the streamed results to a handler, in the order they arrive, before it
// returns. The connection is given back to the pool afterwards, or closed if the
// response stream was not read to its end.
//
// Usage Example:
//
//	client, err := client.NewMorayClientFromAddress("localhost:2020")
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	err = client.GetObject("widgets", "w1", moray.ObjectOptions{}, func(obj *moray.Object) error {
//		fmt.Println(obj.Key, obj.Value)
//		return nil
//	})
//
// Errors:
//
//   - common.ErrConfig: invalid configuration or address
//   - common.ErrPoolTimeout: no connection became available within the claim timeout
//   - common.ErrTransport / common.ErrProtocol: I/O failure or malformed response
//   - *common.RemoteError: the service answered with an error, see common.ErrCode*
//   - *common.HandlerError: the handler returned an error, the call was aborted
//
// The client never retries.
package client
