package moray

// --------------------------------------------------------------------------
// Buckets
// --------------------------------------------------------------------------

// Index types understood by the service
const (
	IndexTypeString  = "string"
	IndexTypeNumber  = "number"
	IndexTypeBoolean = "boolean"
	IndexTypeObject  = "object"
)

// IndexField declares one indexed field of a bucket
type IndexField struct {
	Type   string `json:"type" msgpack:"type"`
	Unique bool   `json:"unique,omitempty" msgpack:"unique,omitempty"`
}

// IndexSchema maps field names to their index declaration
type IndexSchema map[string]IndexField

// BucketSettings holds the options stored with a bucket
type BucketSettings struct {
	Version int `json:"version,omitempty" msgpack:"version,omitempty"`
}

// BucketConfig is the schema submitted when creating a bucket
type BucketConfig struct {
	Index   IndexSchema    `json:"index"`
	Options BucketSettings `json:"options"`
}

// Bucket is a named collection of objects as reported by the service.
// Buckets are only created server side, the client never mutates one.
type Bucket struct {
	Name    string         `json:"name" msgpack:"name"`
	Index   IndexSchema    `json:"index" msgpack:"index"`
	Options BucketSettings `json:"options" msgpack:"options"`
	Mtime   int64          `json:"mtime" msgpack:"mtime"` // ms since epoch
}

// --------------------------------------------------------------------------
// Objects
// --------------------------------------------------------------------------

// Object is a keyed document stored in a bucket together with the
// metadata assigned by the service.
type Object struct {
	Bucket string                 `json:"bucket"`
	Key    string                 `json:"key"`
	Value  map[string]interface{} `json:"value"`

	ID    int64  `json:"_id"`
	Etag  string `json:"_etag"`
	Mtime int64  `json:"_mtime"`          // ms since epoch
	Count int64  `json:"_count,omitempty"` // total matches of a find, 0 for other operations
}

// PutObjectResult is streamed by putObject
type PutObjectResult struct {
	Etag string `json:"etag"`
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

// Handlers are called once per streamed value in wire order.
// Returning an error aborts the call, the error is returned wrapped in a
// common.HandlerError. A nil handler discards the values.

// BucketHandler receives buckets of listBuckets and getBucket
type BucketHandler func(bucket *Bucket) error

// ObjectHandler receives objects of findObjects and getObject
type ObjectHandler func(object *Object) error

// PutObjectHandler receives the new etag of a put object
type PutObjectHandler func(result *PutObjectResult) error

// QueryHandler receives the rows of a sql statement as decoded JSON values
type QueryHandler func(row interface{}) error
