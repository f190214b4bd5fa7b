package mstore

import (
	"github.com/ValentinKolb/moray/lib/moray"
	"github.com/ValentinKolb/moray/rpc/common"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"regexp"
	"sort"
	"sync"
	"time"
)

var Logger = logger.GetLogger("store")

const (
	// DefaultLimit is the number of find results returned when no limit is given
	DefaultLimit = 1000
)

// bucketNamePattern is the rule every bucket name has to follow
var bucketNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

// Store implements the bucket and object semantics of the moray service on
// top of an Engine. All errors reported to clients are *common.RemoteError.
type Store struct {
	mu     sync.RWMutex
	engine Engine
	now    func() time.Time
}

// NewStore creates a store using the engine created by factory
func NewStore(factory EngineFactory) (*Store, error) {
	engine, err := factory()
	if err != nil {
		return nil, err
	}
	return &Store{engine: engine, now: time.Now}, nil
}

// NewMemoryStore creates a store that keeps all data in memory
func NewMemoryStore() *Store {
	return &Store{engine: NewMemoryEngine(), now: time.Now}
}

// Close closes the underlying engine
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Close()
}

// --------------------------------------------------------------------------
// Buckets
// --------------------------------------------------------------------------

// CreateBucket creates an empty bucket with the given index schema
func (s *Store) CreateBucket(name string, config moray.BucketConfig) error {
	if err := validateBucketName(name); err != nil {
		return err
	}
	if err := validateIndex(config.Index); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, found, err := s.engine.GetBucket(name)
	if err != nil {
		return internalError(err)
	}
	if found {
		return common.NewRemoteError(common.ErrCodeBucketConflict, "%s already exists", name)
	}

	index := config.Index
	if index == nil {
		index = moray.IndexSchema{}
	}
	bucket := &moray.Bucket{
		Name:    name,
		Index:   index,
		Options: config.Options,
		Mtime:   s.now().UnixMilli(),
	}
	if err := s.engine.CreateBucket(bucket); err != nil {
		return internalError(err)
	}

	Logger.Infof("Created bucket %s with %d indexes", name, len(index))
	return nil
}

// GetBucket returns the bucket with the given name
func (s *Store) GetBucket(name string) (*moray.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getBucket(name)
}

// ListBuckets returns all buckets sorted by name
func (s *Store) ListBuckets() ([]*moray.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buckets, err := s.engine.ListBuckets()
	if err != nil {
		return nil, internalError(err)
	}
	return buckets, nil
}

// DeleteBucket deletes a bucket together with all of its objects
func (s *Store) DeleteBucket(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted, err := s.engine.DeleteBucket(name)
	if err != nil {
		return internalError(err)
	}
	if !deleted {
		return bucketNotFound(name)
	}

	Logger.Infof("Deleted bucket %s", name)
	return nil
}

// --------------------------------------------------------------------------
// Objects
// --------------------------------------------------------------------------

// PutObject creates or replaces an object and returns its new etag.
// If opts.Etag is set, the stored object must exist with exactly this etag.
func (s *Store) PutObject(bucket, key string, value map[string]interface{}, opts moray.ObjectOptions) (string, error) {
	if key == "" {
		return "", common.NewRemoteError(common.ErrCodeInvocation, "key must not be empty")
	}
	if value == nil {
		value = map[string]interface{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.getBucket(bucket)
	if err != nil {
		return "", err
	}

	existing, found, err := s.engine.GetObject(bucket, key)
	if err != nil {
		return "", internalError(err)
	}
	if err := checkEtag(bucket, key, existing, found, opts.Etag); err != nil {
		return "", err
	}
	if err := s.checkUnique(b, key, value); err != nil {
		return "", err
	}

	var id int64
	if found {
		id = existing.ID
	} else if id, err = s.engine.NextID(bucket); err != nil {
		return "", internalError(err)
	}

	record := &ObjectRecord{
		Key:   key,
		Value: value,
		ID:    id,
		Etag:  uuid.NewString(),
		Mtime: s.now().UnixMilli(),
	}
	if err := s.engine.PutObject(bucket, record); err != nil {
		return "", internalError(err)
	}

	Logger.Debugf("Put object %s/%s (etag %s)", bucket, key, record.Etag)
	return record.Etag, nil
}

// GetObject returns the object stored under key
func (s *Store) GetObject(bucket, key string) (*moray.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.getBucket(bucket); err != nil {
		return nil, err
	}

	record, found, err := s.engine.GetObject(bucket, key)
	if err != nil {
		return nil, internalError(err)
	}
	if !found {
		return nil, common.NewRemoteError(common.ErrCodeObjectNotFound, "%s::%s does not exist", bucket, key)
	}
	return record.toObject(bucket), nil
}

// DeleteObject deletes the object stored under key.
// If opts.Etag is set, the stored object must have exactly this etag.
func (s *Store) DeleteObject(bucket, key string, opts moray.ObjectOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getBucket(bucket); err != nil {
		return err
	}

	existing, found, err := s.engine.GetObject(bucket, key)
	if err != nil {
		return internalError(err)
	}
	if !found {
		return common.NewRemoteError(common.ErrCodeObjectNotFound, "%s::%s does not exist", bucket, key)
	}
	if err := checkEtag(bucket, key, existing, found, opts.Etag); err != nil {
		return err
	}

	if _, err := s.engine.DeleteObject(bucket, key); err != nil {
		return internalError(err)
	}
	return nil
}

// FindObjects calls fn for every object of bucket matching the filter, in the order
// given by opts.Sort (default: ascending _id), honouring opts.Offset and opts.Limit.
// Every object carries the total number of matches in Count unless opts.NoCount is set.
// An error returned by fn stops the search and is returned as is.
func (s *Store) FindObjects(bucket, filterString string, opts moray.ObjectOptions, fn func(object *moray.Object) error) error {
	f, err := parseFilter(filterString)
	if err != nil {
		return common.NewRemoteError(common.ErrCodeInvalidQuery, "%v", err)
	}

	s.mu.RLock()
	b, err := s.getBucket(bucket)
	if err != nil {
		s.mu.RUnlock()
		return err
	}

	if err := f.validate(b.Index); err != nil {
		s.mu.RUnlock()
		return common.NewRemoteError(common.ErrCodeInvalidQuery, "%v", err)
	}
	if opts.RequireIndexes {
		for _, attr := range f.attributes() {
			if _, indexed := b.Index[attr]; !indexed && !isInternalAttribute(attr) {
				s.mu.RUnlock()
				return common.NewRemoteError(common.ErrCodeNotIndexed,
					"%s does not have indexes that support %s", bucket, filterString)
			}
		}
	}

	var matches []*ObjectRecord
	err = s.engine.ScanObjects(bucket, func(record *ObjectRecord) bool {
		if f.matches(record, b.Index) {
			matches = append(matches, record)
		}
		return true
	})
	s.mu.RUnlock()
	if err != nil {
		return internalError(err)
	}

	sortRecords(matches, opts.Sort)

	total := int64(len(matches))
	matches = paginate(matches, opts.Offset, opts.Limit)

	// fn is called without holding the lock, it may block on the network
	for _, record := range matches {
		object := record.toObject(bucket)
		if !opts.NoCount {
			object.Count = total
		}
		if err := fn(object); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *Store) getBucket(name string) (*moray.Bucket, error) {
	bucket, found, err := s.engine.GetBucket(name)
	if err != nil {
		return nil, internalError(err)
	}
	if !found {
		return nil, bucketNotFound(name)
	}
	return bucket, nil
}

// checkUnique ensures no other object holds the value of a unique index
func (s *Store) checkUnique(bucket *moray.Bucket, key string, value map[string]interface{}) error {
	for attr, field := range bucket.Index {
		if !field.Unique {
			continue
		}
		v, ok := value[attr]
		if !ok || v == nil {
			continue
		}

		var conflict string
		err := s.engine.ScanObjects(bucket.Name, func(record *ObjectRecord) bool {
			if record.Key == key {
				return true
			}
			other, ok := record.Value[attr]
			if ok && compareValues(v, other, true, true) == 0 {
				conflict = record.Key
				return false
			}
			return true
		})
		if err != nil {
			return internalError(err)
		}
		if conflict != "" {
			return common.NewRemoteError(common.ErrCodeUniqueAttribute,
				"%s=%s already exists in %s (key %s)", attr, stringify(v), bucket.Name, conflict)
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

func validateBucketName(name string) error {
	if !bucketNamePattern.MatchString(name) {
		return common.NewRemoteError(common.ErrCodeInvalidBucketName, "%q is not a valid bucket name", name)
	}
	return nil
}

func validateIndex(index moray.IndexSchema) error {
	for attr, field := range index {
		if attr == "" || isInternalAttribute(attr) {
			return common.NewRemoteError(common.ErrCodeInvalidIndexDefinition, "%q can not be indexed", attr)
		}
		switch field.Type {
		case moray.IndexTypeString, moray.IndexTypeNumber, moray.IndexTypeBoolean, moray.IndexTypeObject:
		default:
			return common.NewRemoteError(common.ErrCodeInvalidIndexDefinition,
				"index %s has invalid type %q", attr, field.Type)
		}
	}
	return nil
}

func checkEtag(bucket, key string, existing *ObjectRecord, found bool, etag string) error {
	if etag == "" {
		return nil
	}
	if !found {
		return common.NewRemoteError(common.ErrCodeEtagConflict,
			"wanted to put etag %s on %s::%s but the object does not exist", etag, bucket, key)
	}
	if existing.Etag != etag {
		return common.NewRemoteError(common.ErrCodeEtagConflict,
			"wanted etag %s on %s::%s but found %s", etag, bucket, key, existing.Etag)
	}
	return nil
}

func sortRecords(records []*ObjectRecord, order *moray.SortOrder) {
	if order == nil || order.Attribute == "" {
		sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
		return
	}

	desc := order.Order == moray.SortDesc
	sort.SliceStable(records, func(i, j int) bool {
		a, aOK := lookupAttribute(records[i], order.Attribute)
		b, bOK := lookupAttribute(records[j], order.Attribute)
		aOK = aOK && a != nil
		bOK = bOK && b != nil

		cmp := compareValues(a, b, aOK, bOK)
		if cmp == 0 {
			return records[i].ID < records[j].ID
		}
		// missing values stay last in both directions
		if desc && aOK && bOK {
			return cmp > 0
		}
		return cmp < 0
	})
}

func paginate(records []*ObjectRecord, offset, limit int) []*ObjectRecord {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset >= len(records) {
		return nil
	}
	if offset > 0 {
		records = records[offset:]
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records
}

func bucketNotFound(name string) error {
	return common.NewRemoteError(common.ErrCodeBucketNotFound, "%s does not exist", name)
}

func internalError(err error) error {
	Logger.Errorf("Storage engine failure: %v", err)
	return common.NewRemoteError(common.ErrCodeInternal, "storage engine: %v", err)
}
