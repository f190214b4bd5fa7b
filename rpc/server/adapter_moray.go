package server

import (
	"encoding/json"
	"github.com/ValentinKolb/moray/lib/moray"
	"github.com/ValentinKolb/moray/lib/moray/mstore"
	"github.com/ValentinKolb/moray/rpc/common"
)

// NewMorayServerAdapter creates the adapter serving the moray methods
func NewMorayServerAdapter() IRPCServerAdapter {
	return &morayServerAdapterImpl{}
}

type morayServerAdapterImpl struct{}

// wireOptions is the options argument as sent by clients
type wireOptions struct {
	ReqID          string            `json:"req_id"`
	Timeout        int               `json:"timeout"`
	Etag           string            `json:"etag"`
	Limit          int               `json:"limit"`
	Offset         int               `json:"offset"`
	Sort           *moray.SortOrder  `json:"sort"`
	NoCount        bool              `json:"no_count"`
	NoCache        bool              `json:"noCache"`
	RequireIndexes bool              `json:"requireIndexes"`
	Headers        map[string]string `json:"headers"`
}

func (o *wireOptions) objectOptions() moray.ObjectOptions {
	return moray.ObjectOptions{
		ReqID:              o.ReqID,
		TimeoutMillisecond: o.Timeout,
		Etag:               o.Etag,
		Limit:              o.Limit,
		Offset:             o.Offset,
		Sort:               o.Sort,
		NoCount:            o.NoCount,
		NoCache:            o.NoCache,
		RequireIndexes:     o.RequireIndexes,
		Headers:            o.Headers,
	}
}

func (adapter *morayServerAdapterImpl) Handle(req *common.Message, store *mstore.Store, stream StreamFunc) *common.Message {
	// Check for nil store
	if store == nil {
		return common.NewErrorResponse(common.ErrCodeInternal, "handler: store is nil")
	}

	var args []json.RawMessage
	if err := json.Unmarshal(req.Data, &args); err != nil {
		return common.NewErrorResponse(common.ErrCodeInvocation, "arguments must be a JSON array")
	}

	var opts wireOptions
	var err error

	// Handle the different methods
	switch req.Method {
	case "listBuckets":
		if err = decodeArgs(req.Method, args, 0, &opts); err == nil {
			var buckets []*moray.Bucket
			if buckets, err = store.ListBuckets(); err == nil {
				for _, bucket := range buckets {
					if err = stream(bucket); err != nil {
						break
					}
				}
			}
		}

	case "getBucket":
		var name string
		if err = decodeArgs(req.Method, args, 1, &name, &opts); err == nil {
			var bucket *moray.Bucket
			if bucket, err = store.GetBucket(name); err == nil {
				err = stream(bucket)
			}
		}

	case "createBucket":
		var name string
		var config moray.BucketConfig
		if err = decodeArgs(req.Method, args, 2, &name, &config, &opts); err == nil {
			err = store.CreateBucket(name, config)
		}

	case "delBucket":
		var name string
		if err = decodeArgs(req.Method, args, 1, &name, &opts); err == nil {
			err = store.DeleteBucket(name)
		}

	case "findObjects":
		var bucket, filter string
		if err = decodeArgs(req.Method, args, 2, &bucket, &filter, &opts); err == nil {
			err = store.FindObjects(bucket, filter, opts.objectOptions(), func(object *moray.Object) error {
				return stream(object)
			})
		}

	case "getObject":
		var bucket, key string
		if err = decodeArgs(req.Method, args, 2, &bucket, &key, &opts); err == nil {
			var object *moray.Object
			if object, err = store.GetObject(bucket, key); err == nil {
				err = stream(object)
			}
		}

	case "putObject":
		var bucket, key string
		var value map[string]interface{}
		if err = decodeArgs(req.Method, args, 3, &bucket, &key, &value, &opts); err == nil {
			var etag string
			if etag, err = store.PutObject(bucket, key, value, opts.objectOptions()); err == nil {
				err = stream(&moray.PutObjectResult{Etag: etag})
			}
		}

	case "delObject":
		var bucket, key string
		if err = decodeArgs(req.Method, args, 2, &bucket, &key, &opts); err == nil {
			err = store.DeleteObject(bucket, key, opts.objectOptions())
		}

	case "sql":
		var stmt string
		var vals []string
		var sqlOpts map[string]interface{}
		if err = decodeArgs(req.Method, args, 1, &stmt, &vals, &sqlOpts); err == nil {
			err = common.NewRemoteError(common.ErrCodeNotImplemented, "sql is not supported by this server")
		}

	default:
		err = common.NewRemoteError(common.ErrCodeInvocation, "unsupported method %q", req.Method)
	}

	Logger.Debugf("Handled %s (req_id=%s): %v", req.Method, opts.ReqID, err)

	if err != nil {
		return common.NewErrorResponseFromError(err)
	}
	return common.NewEndResponse()
}

// decodeArgs decodes the positional arguments into targets.
// The first required arguments must be present, the rest is optional.
func decodeArgs(method string, args []json.RawMessage, required int, targets ...interface{}) error {
	if len(args) < required || len(args) > len(targets) {
		return common.NewRemoteError(common.ErrCodeInvocation,
			"%s expects %d to %d arguments, got %d", method, required, len(targets), len(args))
	}
	for i, raw := range args {
		if err := json.Unmarshal(raw, targets[i]); err != nil {
			return common.NewRemoteError(common.ErrCodeInvocation, "%s: invalid argument %d: %v", method, i, err)
		}
	}
	return nil
}
