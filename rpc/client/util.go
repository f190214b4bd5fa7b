package client

import (
	"github.com/ValentinKolb/moray/rpc/common"
	"github.com/ValentinKolb/moray/rpc/serializer"
	"github.com/ValentinKolb/moray/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("moray")
)

// Method names of the moray protocol
const (
	methodListBuckets  = "listBuckets"
	methodGetBucket    = "getBucket"
	methodCreateBucket = "createBucket"
	methodDelBucket    = "delBucket"
	methodFindObjects  = "findObjects"
	methodGetObject    = "getObject"
	methodPutObject    = "putObject"
	methodDelObject    = "delObject"
	methodSQL          = "sql"
)

// rpcClientAdapter is a struct that stores all data needed to invoke remote methods
// Used by the MorayClient with composition pattern
type rpcClientAdapter struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}
