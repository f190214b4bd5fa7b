// Package mstore implements a development version of the moray service:
// buckets with an index schema and JSON objects, searchable with LDAP style
// filters. It backs the "serve" command and the end-to-end tests of the client.
//
// Key Components:
//
//   - Store: bucket and object semantics (name and index validation, etags,
//     conditional writes, unique indexes, find with sort, limit, offset and
//     _count). Errors are *common.RemoteError values carrying the error names
//     of the moray service (BucketNotFoundError, EtagConflictError, ...).
//
//   - Engine: the storage backend. NewMemoryEngine keeps everything in
//     xsync maps, OpenBoltEngine persists msgpack encoded records in a bbolt file.
//
//   - Filters: (attr=value), (attr=*), (attr=pre*mid*suf), (attr>=value),
//     (attr<=value) combined with &, | and !. The outer parentheses of a single
//     comparison may be omitted. Values of number and boolean indexes are
//     compared by type, other values as numbers if both sides are numeric and
//     as strings otherwise. The metadata fields _id, _key, _etag and _mtime can
//     be used in filters and sort orders.
//
// Thread Safety:
//
//	A Store is safe for concurrent use. Writes are serialized, reads run in parallel.
//	The find callback is invoked without holding any lock.
package mstore
