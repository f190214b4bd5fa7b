package mstore

import (
	"fmt"
	"github.com/ValentinKolb/moray/lib/moray"
	"github.com/puzpuzpuz/xsync/v3"
	"sort"
	"sync/atomic"
)

// memoryBucket holds the objects of one bucket
type memoryBucket struct {
	bucket  *moray.Bucket
	objects *xsync.MapOf[string, *ObjectRecord]
	seq     atomic.Int64
}

// memoryEngine keeps all data in concurrent maps, nothing is persisted
type memoryEngine struct {
	buckets *xsync.MapOf[string, *memoryBucket]
}

// NewMemoryEngine creates an engine that keeps all data in memory
func NewMemoryEngine() Engine {
	return &memoryEngine{
		buckets: xsync.NewMapOf[string, *memoryBucket](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see mstore.Engine)
// --------------------------------------------------------------------------

func (e *memoryEngine) GetBucket(name string) (*moray.Bucket, bool, error) {
	b, ok := e.buckets.Load(name)
	if !ok {
		return nil, false, nil
	}
	return b.bucket, true, nil
}

func (e *memoryEngine) ListBuckets() ([]*moray.Bucket, error) {
	buckets := make([]*moray.Bucket, 0, e.buckets.Size())
	e.buckets.Range(func(_ string, b *memoryBucket) bool {
		buckets = append(buckets, b.bucket)
		return true
	})
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Name < buckets[j].Name })
	return buckets, nil
}

func (e *memoryEngine) CreateBucket(bucket *moray.Bucket) error {
	_, loaded := e.buckets.LoadOrStore(bucket.Name, &memoryBucket{
		bucket:  bucket,
		objects: xsync.NewMapOf[string, *ObjectRecord](),
	})
	if loaded {
		return fmt.Errorf("bucket %s already exists", bucket.Name)
	}
	return nil
}

func (e *memoryEngine) DeleteBucket(name string) (bool, error) {
	_, deleted := e.buckets.LoadAndDelete(name)
	return deleted, nil
}

func (e *memoryEngine) GetObject(bucket, key string) (*ObjectRecord, bool, error) {
	b, err := e.bucket(bucket)
	if err != nil {
		return nil, false, err
	}
	record, ok := b.objects.Load(key)
	return record, ok, nil
}

func (e *memoryEngine) PutObject(bucket string, record *ObjectRecord) error {
	b, err := e.bucket(bucket)
	if err != nil {
		return err
	}
	b.objects.Store(record.Key, record)
	return nil
}

func (e *memoryEngine) DeleteObject(bucket, key string) (bool, error) {
	b, err := e.bucket(bucket)
	if err != nil {
		return false, err
	}
	_, deleted := b.objects.LoadAndDelete(key)
	return deleted, nil
}

func (e *memoryEngine) ScanObjects(bucket string, fn func(record *ObjectRecord) bool) error {
	b, err := e.bucket(bucket)
	if err != nil {
		return err
	}
	b.objects.Range(func(_ string, record *ObjectRecord) bool {
		return fn(record)
	})
	return nil
}

func (e *memoryEngine) NextID(bucket string) (int64, error) {
	b, err := e.bucket(bucket)
	if err != nil {
		return 0, err
	}
	return b.seq.Add(1), nil
}

func (e *memoryEngine) Close() error {
	e.buckets.Clear()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (e *memoryEngine) bucket(name string) (*memoryBucket, error) {
	b, ok := e.buckets.Load(name)
	if !ok {
		return nil, fmt.Errorf("bucket %s does not exist", name)
	}
	return b, nil
}
