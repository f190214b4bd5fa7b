package client

import (
	"github.com/ValentinKolb/moray/lib/moray"
)

// --------------------------------------------------------------------------
// Interface Methods (docu see moray.IClient)
// --------------------------------------------------------------------------

func (c *MorayClient) ListBuckets(opts moray.BucketOptions, handler moray.BucketHandler) error {
	arg := opts.ToArg()
	return invokeRPCStream[*moray.Bucket](&c.rpcClientAdapter, methodListBuckets, moray.RequestID(arg),
		[]interface{}{arg}, orDiscard[*moray.Bucket](handler))
}

func (c *MorayClient) GetBucket(name string, opts moray.BucketOptions, handler moray.BucketHandler) error {
	arg := opts.ToArg()
	return invokeRPCStream[*moray.Bucket](&c.rpcClientAdapter, methodGetBucket, moray.RequestID(arg),
		[]interface{}{name, arg}, orDiscard[*moray.Bucket](handler))
}

func (c *MorayClient) CreateBucket(name string, config moray.BucketConfig, opts moray.BucketOptions) error {
	arg := opts.ToArg()
	return invokeRPCStream[interface{}](&c.rpcClientAdapter, methodCreateBucket, moray.RequestID(arg),
		[]interface{}{name, config, arg}, nil)
}

func (c *MorayClient) DeleteBucket(name string, opts moray.BucketOptions) error {
	arg := opts.ToArg()
	return invokeRPCStream[interface{}](&c.rpcClientAdapter, methodDelBucket, moray.RequestID(arg),
		[]interface{}{name, arg}, nil)
}
