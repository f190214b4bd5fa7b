package client

import (
	"github.com/ValentinKolb/moray/lib/moray"
)

// SQL runs stmt with the bound values vals and passes every result row to handler.
// Rows are decoded JSON values, their shape depends on the statement.
func (c *MorayClient) SQL(stmt string, vals []string, opts moray.SQLOptions, handler moray.QueryHandler) error {
	if vals == nil {
		vals = []string{}
	}
	arg := opts.ToArg()
	return invokeRPCStream[interface{}](&c.rpcClientAdapter, methodSQL, moray.RequestID(arg),
		[]interface{}{stmt, vals, arg}, orDiscard[interface{}](handler))
}
