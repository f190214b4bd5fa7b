package client

import (
	"github.com/ValentinKolb/moray/lib/moray"
)

// --------------------------------------------------------------------------
// Interface Methods (docu see moray.IClient)
// --------------------------------------------------------------------------

func (c *MorayClient) FindObjects(bucket, filter string, opts moray.ObjectOptions, handler moray.ObjectHandler) error {
	arg := opts.ToArg()
	return invokeRPCStream[*moray.Object](&c.rpcClientAdapter, methodFindObjects, moray.RequestID(arg),
		[]interface{}{bucket, filter, arg}, orDiscard[*moray.Object](handler))
}

func (c *MorayClient) GetObject(bucket, key string, opts moray.ObjectOptions, handler moray.ObjectHandler) error {
	arg := opts.ToArg()
	return invokeRPCStream[*moray.Object](&c.rpcClientAdapter, methodGetObject, moray.RequestID(arg),
		[]interface{}{bucket, key, arg}, orDiscard[*moray.Object](handler))
}

func (c *MorayClient) PutObject(bucket, key string, value map[string]interface{}, opts moray.ObjectOptions, handler moray.PutObjectHandler) error {
	arg := opts.ToArg()
	return invokeRPCStream[*moray.PutObjectResult](&c.rpcClientAdapter, methodPutObject, moray.RequestID(arg),
		[]interface{}{bucket, key, value, arg}, orDiscard[*moray.PutObjectResult](handler))
}

func (c *MorayClient) DeleteObject(bucket, key string, opts moray.ObjectOptions) error {
	arg := opts.ToArg()
	return invokeRPCStream[interface{}](&c.rpcClientAdapter, methodDelObject, moray.RequestID(arg),
		[]interface{}{bucket, key, arg}, nil)
}
