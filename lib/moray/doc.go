// Package moray defines the domain of the moray document store as seen by
// a client: buckets with an index schema, objects stored under a key in a
// bucket, the per call options of both domains and the handler types that
// receive streamed results.
//
// Key Components:
//
//   - Bucket / BucketConfig: a named collection and the index schema it is
//     created with. Index types are "string", "number", "boolean" and "object".
//
//   - Object: a JSON document with the metadata assigned by the service
//     (_id, _etag, _mtime and, for find results, _count).
//
//   - BucketOptions / ObjectOptions / SQLOptions: per call options. The zero
//     value means no special options. Unknown options can be passed through
//     Extra, the service validates them.
//
//   - IClient: the operations of a client, implemented by rpc/client.MorayClient.
//
// A development implementation of the service lives in the mstore subpackage.
package moray
