package mstore

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/moray/lib/moray"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
	"time"
)

var (
	// catalogBucket holds one msgpack encoded moray.Bucket per bucket name
	catalogBucket = []byte("catalog")
	// objectBucketPrefix prefixes the bbolt bucket holding the objects of a moray bucket
	objectBucketPrefix = "objects/"
)

// boltEngine persists buckets and objects in a single bbolt file
type boltEngine struct {
	bdb *bbolt.DB
}

// OpenBoltEngine opens (or creates) the bbolt file at path
func OpenBoltEngine(path string) (Engine, error) {
	bdb, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout:      10 * time.Second,
		FreelistType: bbolt.FreelistMapType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(catalogBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("failed to initialize %s: %w", path, err)
	}

	return &boltEngine{bdb: bdb}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see mstore.Engine)
// --------------------------------------------------------------------------

func (e *boltEngine) GetBucket(name string) (*moray.Bucket, bool, error) {
	var bucket *moray.Bucket
	err := e.bdb.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(catalogBucket).Get([]byte(name))
		if raw == nil {
			return nil
		}
		bucket = &moray.Bucket{}
		return msgpack.Unmarshal(raw, bucket)
	})
	if err != nil {
		return nil, false, err
	}
	return bucket, bucket != nil, nil
}

func (e *boltEngine) ListBuckets() ([]*moray.Bucket, error) {
	var buckets []*moray.Bucket
	err := e.bdb.View(func(tx *bbolt.Tx) error {
		// bbolt iterates in key order, which sorts the buckets by name
		return tx.Bucket(catalogBucket).ForEach(func(_, raw []byte) error {
			bucket := &moray.Bucket{}
			if err := msgpack.Unmarshal(raw, bucket); err != nil {
				return err
			}
			buckets = append(buckets, bucket)
			return nil
		})
	})
	return buckets, err
}

func (e *boltEngine) CreateBucket(bucket *moray.Bucket) error {
	raw, err := msgpack.Marshal(bucket)
	if err != nil {
		return err
	}

	return e.bdb.Update(func(tx *bbolt.Tx) error {
		catalog := tx.Bucket(catalogBucket)
		if catalog.Get([]byte(bucket.Name)) != nil {
			return fmt.Errorf("bucket %s already exists", bucket.Name)
		}
		if _, err := tx.CreateBucket(objectBucketName(bucket.Name)); err != nil {
			return err
		}
		return catalog.Put([]byte(bucket.Name), raw)
	})
}

func (e *boltEngine) DeleteBucket(name string) (bool, error) {
	deleted := false
	err := e.bdb.Update(func(tx *bbolt.Tx) error {
		catalog := tx.Bucket(catalogBucket)
		if catalog.Get([]byte(name)) == nil {
			return nil
		}
		if err := tx.DeleteBucket(objectBucketName(name)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		deleted = true
		return catalog.Delete([]byte(name))
	})
	return deleted, err
}

func (e *boltEngine) GetObject(bucket, key string) (*ObjectRecord, bool, error) {
	var record *ObjectRecord
	err := e.bdb.View(func(tx *bbolt.Tx) error {
		objects, err := objectBucket(tx, bucket)
		if err != nil {
			return err
		}
		raw := objects.Get([]byte(key))
		if raw == nil {
			return nil
		}
		record = &ObjectRecord{}
		return msgpack.Unmarshal(raw, record)
	})
	if err != nil {
		return nil, false, err
	}
	return record, record != nil, nil
}

func (e *boltEngine) PutObject(bucket string, record *ObjectRecord) error {
	raw, err := msgpack.Marshal(record)
	if err != nil {
		return err
	}

	return e.bdb.Update(func(tx *bbolt.Tx) error {
		objects, err := objectBucket(tx, bucket)
		if err != nil {
			return err
		}
		return objects.Put([]byte(record.Key), raw)
	})
}

func (e *boltEngine) DeleteObject(bucket, key string) (bool, error) {
	deleted := false
	err := e.bdb.Update(func(tx *bbolt.Tx) error {
		objects, err := objectBucket(tx, bucket)
		if err != nil {
			return err
		}
		if objects.Get([]byte(key)) == nil {
			return nil
		}
		deleted = true
		return objects.Delete([]byte(key))
	})
	return deleted, err
}

// errStopScan ends a ForEach early
var errStopScan = errors.New("stop scan")

func (e *boltEngine) ScanObjects(bucket string, fn func(record *ObjectRecord) bool) error {
	err := e.bdb.View(func(tx *bbolt.Tx) error {
		objects, err := objectBucket(tx, bucket)
		if err != nil {
			return err
		}
		return objects.ForEach(func(_, raw []byte) error {
			record := &ObjectRecord{}
			if err := msgpack.Unmarshal(raw, record); err != nil {
				return err
			}
			if !fn(record) {
				return errStopScan
			}
			return nil
		})
	})
	if errors.Is(err, errStopScan) {
		return nil
	}
	return err
}

func (e *boltEngine) NextID(bucket string) (int64, error) {
	var id uint64
	err := e.bdb.Update(func(tx *bbolt.Tx) error {
		objects, err := objectBucket(tx, bucket)
		if err != nil {
			return err
		}
		id, err = objects.NextSequence()
		return err
	})
	return int64(id), err
}

func (e *boltEngine) Close() error {
	return e.bdb.Close()
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

func objectBucketName(name string) []byte {
	return []byte(objectBucketPrefix + name)
}

func objectBucket(tx *bbolt.Tx, name string) (*bbolt.Bucket, error) {
	objects := tx.Bucket(objectBucketName(name))
	if objects == nil {
		return nil, fmt.Errorf("bucket %s does not exist", name)
	}
	return objects, nil
}
