package mstore

import (
	"github.com/ValentinKolb/moray/lib/moray"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// EngineFactory creates the engine used by a store
type EngineFactory func() (Engine, error)

// Engine is the storage backend of a Store. It persists the bucket catalog
// and the objects of every bucket. Multi step operations (conditional puts,
// unique checks) are serialized by the Store, single calls must be safe for
// concurrent use.
type Engine interface {
	// GetBucket returns the bucket with the given name. The boolean indicates whether it was found.
	GetBucket(name string) (bucket *moray.Bucket, found bool, err error)
	// ListBuckets returns all buckets sorted by name
	ListBuckets() ([]*moray.Bucket, error)
	// CreateBucket stores a new bucket with an empty object space
	CreateBucket(bucket *moray.Bucket) error
	// DeleteBucket removes a bucket and all of its objects. The boolean indicates whether it existed.
	DeleteBucket(name string) (deleted bool, err error)

	// GetObject returns the object stored under key in bucket
	GetObject(bucket, key string) (record *ObjectRecord, found bool, err error)
	// PutObject stores the record under record.Key, replacing an existing one
	PutObject(bucket string, record *ObjectRecord) error
	// DeleteObject removes an object. The boolean indicates whether it existed.
	DeleteObject(bucket, key string) (deleted bool, err error)
	// ScanObjects calls fn for every object of a bucket until fn returns false
	ScanObjects(bucket string, fn func(record *ObjectRecord) bool) error
	// NextID returns the next object id of a bucket (starting at 1)
	NextID(bucket string) (int64, error)

	// Close releases all resources of the engine
	Close() error
}

// ObjectRecord is the stored form of an object
type ObjectRecord struct {
	Key   string                 `msgpack:"key"`
	Value map[string]interface{} `msgpack:"value"`
	ID    int64                  `msgpack:"id"`
	Etag  string                 `msgpack:"etag"`
	Mtime int64                  `msgpack:"mtime"`
}

// toObject converts the record into the object reported to clients
func (r *ObjectRecord) toObject(bucket string) *moray.Object {
	return &moray.Object{
		Bucket: bucket,
		Key:    r.Key,
		Value:  r.Value,
		ID:     r.ID,
		Etag:   r.Etag,
		Mtime:  r.Mtime,
	}
}
