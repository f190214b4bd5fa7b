package client

import (
	"errors"
	"github.com/ValentinKolb/moray/lib/moray"
	"github.com/ValentinKolb/moray/rpc/common"
	"github.com/ValentinKolb/moray/rpc/serializer"
	"github.com/ValentinKolb/moray/rpc/server"
	"github.com/ValentinKolb/moray/rpc/transport/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net"
	"sync"
	"testing"
)

// startMorayServer serves an in-memory store on a loopback port and returns its address
func startMorayServer(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	config := common.ServerConfig{
		TimeoutSecond: 5,
		LogLevel:      "error",
		Transport: common.ServerTransportConfig{
			TCPConf: common.TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
		},
	}
	s := server.NewRPCServer(config, tcp.NewTCPServerTransport(), serializer.NewBinarySerializer())

	done := make(chan error, 1)
	go func() {
		done <- s.ServeListener(listener)
	}()

	t.Cleanup(func() {
		s.Close()
		assert.NoError(t, <-done)
	})

	return listener.Addr().String()
}

func newTCPClient(t *testing.T, address string, maxConns, claimTimeoutMs int) *MorayClient {
	t.Helper()

	config := common.DefaultClientConfig(address)
	config.TimeoutSecond = 5
	config.Transport.MaxConnections = maxConns
	config.Transport.ClaimTimeoutMillisecond = claimTimeoutMs

	client, err := NewMorayClient(config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func widgetsBucketConfig() moray.BucketConfig {
	return moray.BucketConfig{
		Index: moray.IndexSchema{
			"color": {Type: moray.IndexTypeString},
			"size":  {Type: moray.IndexTypeNumber},
		},
		Options: moray.BucketSettings{Version: 1},
	}
}

func TestEndToEndBuckets(t *testing.T) {
	client := newTCPClient(t, startMorayServer(t), 2, 1000)
	config := widgetsBucketConfig()

	require.NoError(t, client.CreateBucket("widgets", config, moray.BucketOptions{}))

	err := client.CreateBucket("widgets", config, moray.BucketOptions{})
	assert.True(t, common.IsRemoteCode(err, common.ErrCodeBucketConflict), "got %v", err)

	var buckets []*moray.Bucket
	require.NoError(t, client.GetBucket("widgets", moray.BucketOptions{}, func(bucket *moray.Bucket) error {
		buckets = append(buckets, bucket)
		return nil
	}))
	require.Len(t, buckets, 1)
	assert.Equal(t, "widgets", buckets[0].Name)
	assert.Equal(t, config.Index, buckets[0].Index)
	assert.Equal(t, config.Options, buckets[0].Options)

	var names []string
	require.NoError(t, client.ListBuckets(moray.BucketOptions{}, func(bucket *moray.Bucket) error {
		names = append(names, bucket.Name)
		return nil
	}))
	assert.Equal(t, []string{"widgets"}, names)

	require.NoError(t, client.DeleteBucket("widgets", moray.BucketOptions{}))

	err = client.GetBucket("widgets", moray.BucketOptions{}, func(*moray.Bucket) error { return nil })
	assert.True(t, common.IsRemoteCode(err, common.ErrCodeBucketNotFound), "got %v", err)
}

func TestEndToEndObjects(t *testing.T) {
	client := newTCPClient(t, startMorayServer(t), 2, 1000)
	require.NoError(t, client.CreateBucket("widgets", widgetsBucketConfig(), moray.BucketOptions{}))

	var etag string
	require.NoError(t, client.PutObject("widgets", "w1", map[string]interface{}{"color": "red", "size": 3}, moray.ObjectOptions{},
		func(result *moray.PutObjectResult) error {
			etag = result.Etag
			return nil
		}))
	require.NotEmpty(t, etag)

	var objects []*moray.Object
	require.NoError(t, client.GetObject("widgets", "w1", moray.ObjectOptions{}, func(object *moray.Object) error {
		objects = append(objects, object)
		return nil
	}))
	require.Len(t, objects, 1)
	assert.Equal(t, "widgets", objects[0].Bucket)
	assert.Equal(t, "w1", objects[0].Key)
	assert.Equal(t, "red", objects[0].Value["color"])
	assert.EqualValues(t, 3, objects[0].Value["size"])
	assert.Equal(t, etag, objects[0].Etag)

	// Conditional put with an outdated etag
	err := client.PutObject("widgets", "w1", map[string]interface{}{"color": "blue"}, moray.ObjectOptions{Etag: "outdated"}, nil)
	assert.True(t, common.IsRemoteCode(err, common.ErrCodeEtagConflict), "got %v", err)

	// Find streams every match
	require.NoError(t, client.PutObject("widgets", "w2", map[string]interface{}{"color": "red", "size": 7}, moray.ObjectOptions{},
		func(*moray.PutObjectResult) error { return nil }))

	var keys []string
	require.NoError(t, client.FindObjects("widgets", "(color=red)", moray.ObjectOptions{Sort: &moray.SortOrder{Attribute: "size", Order: moray.SortDesc}},
		func(object *moray.Object) error {
			keys = append(keys, object.Key)
			assert.EqualValues(t, 2, object.Count)
			return nil
		}))
	assert.Equal(t, []string{"w2", "w1"}, keys)

	// Find without matches ends cleanly without calling the handler
	calls := 0
	require.NoError(t, client.FindObjects("widgets", "(color=green)", moray.ObjectOptions{}, func(*moray.Object) error {
		calls++
		return nil
	}))
	assert.Equal(t, 0, calls)

	require.NoError(t, client.DeleteObject("widgets", "w1", moray.ObjectOptions{}))

	err = client.GetObject("widgets", "w1", moray.ObjectOptions{}, func(*moray.Object) error { return nil })
	assert.True(t, common.IsRemoteCode(err, common.ErrCodeObjectNotFound), "got %v", err)

	err = client.SQL("SELECT 1", nil, nil, func(interface{}) error { return nil })
	assert.True(t, common.IsRemoteCode(err, common.ErrCodeNotImplemented), "got %v", err)
}

func TestEndToEndHandlerAbortDiscardsConnection(t *testing.T) {
	client := newTCPClient(t, startMorayServer(t), 1, 1000)
	require.NoError(t, client.CreateBucket("widgets", widgetsBucketConfig(), moray.BucketOptions{}))
	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, client.PutObject("widgets", key, map[string]interface{}{"color": "red"}, moray.ObjectOptions{}, nil))
	}

	errStop := errors.New("stop")
	err := client.FindObjects("widgets", "(color=red)", moray.ObjectOptions{}, func(*moray.Object) error {
		return errStop
	})
	assert.ErrorIs(t, err, errStop)

	// The rest of the aborted stream must not leak into the next call
	var keys []string
	require.NoError(t, client.FindObjects("widgets", "(color=red)", moray.ObjectOptions{}, func(object *moray.Object) error {
		keys = append(keys, object.Key)
		return nil
	}))
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestEndToEndNestedCallExhaustsPool(t *testing.T) {
	client := newTCPClient(t, startMorayServer(t), 1, 0)
	require.NoError(t, client.CreateBucket("widgets", widgetsBucketConfig(), moray.BucketOptions{}))

	var innerErr error
	err := client.ListBuckets(moray.BucketOptions{}, func(bucket *moray.Bucket) error {
		innerErr = client.GetBucket(bucket.Name, moray.BucketOptions{}, func(*moray.Bucket) error { return nil })
		return innerErr
	})

	assert.ErrorIs(t, innerErr, common.ErrPoolTimeout)
	assert.ErrorIs(t, err, common.ErrHandlerAborted)
	assert.ErrorIs(t, err, common.ErrPoolTimeout)

	// The pool recovers after the outer call released its connection
	require.NoError(t, client.GetBucket("widgets", moray.BucketOptions{}, func(*moray.Bucket) error { return nil }))
}

func TestEndToEndConcurrentCalls(t *testing.T) {
	client := newTCPClient(t, startMorayServer(t), 3, common.ClaimTimeoutUnbounded)
	require.NoError(t, client.CreateBucket("widgets", widgetsBucketConfig(), moray.BucketOptions{}))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i))
			if err := client.PutObject("widgets", key, map[string]interface{}{"size": i}, moray.ObjectOptions{}, nil); err != nil {
				errs <- err
				return
			}
			errs <- client.GetObject("widgets", key, moray.ObjectOptions{}, func(object *moray.Object) error {
				if object.Key != key {
					return errors.New("unexpected key " + object.Key)
				}
				return nil
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	count := 0
	require.NoError(t, client.FindObjects("widgets", "(size>=0)", moray.ObjectOptions{}, func(*moray.Object) error {
		count++
		return nil
	}))
	assert.Equal(t, 20, count)
}

func TestEndToEndUnreachableEndpoint(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := listener.Addr().String()
	listener.Close()

	client := newTCPClient(t, address, 1, 0)
	err = client.ListBuckets(moray.BucketOptions{}, func(*moray.Bucket) error { return nil })
	assert.ErrorIs(t, err, common.ErrTransport)
}
