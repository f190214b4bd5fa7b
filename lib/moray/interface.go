package moray

// IClient is the interface of a moray client.
// Every call claims one pooled connection for its whole duration and
// streams the results to the handler before it returns.
type IClient interface {
	// ListBuckets streams every bucket of the service
	ListBuckets(opts BucketOptions, handler BucketHandler) error
	// GetBucket streams the bucket with the given name
	GetBucket(name string, opts BucketOptions, handler BucketHandler) error
	// CreateBucket creates a bucket, it succeeds only on a clean end of the response
	CreateBucket(name string, config BucketConfig, opts BucketOptions) error
	// DeleteBucket deletes a bucket and all of its objects
	DeleteBucket(name string, opts BucketOptions) error

	// FindObjects streams all objects of a bucket matching an LDAP style filter
	FindObjects(bucket, filter string, opts ObjectOptions, handler ObjectHandler) error
	// GetObject streams the object stored under key
	GetObject(bucket, key string, opts ObjectOptions, handler ObjectHandler) error
	// PutObject creates or replaces an object and streams its new etag
	PutObject(bucket, key string, value map[string]interface{}, opts ObjectOptions, handler PutObjectHandler) error
	// DeleteObject deletes the object stored under key
	DeleteObject(bucket, key string, opts ObjectOptions) error

	// SQL runs a statement with bound values and streams the raw result rows
	SQL(stmt string, vals []string, opts SQLOptions, handler QueryHandler) error

	// Close closes the connection pool
	Close() error
}
