package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// MockKV is a map-backed clientv3.KV; unimplemented methods panic through the embedded nil.
type MockKV struct {
	clientv3.KV
	data  map[string]string
	GetFn func(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
}

func newMockKV() *MockKV {
	return &MockKV{data: make(map[string]string)}
}

func (m *MockKV) Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key, opts...)
	}
	op := clientv3.OpGet(key, opts...)
	prefix := len(op.RangeBytes()) > 0

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if k == key || (prefix && strings.HasPrefix(k, key)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	resp := &clientv3.GetResponse{}
	for _, k := range keys {
		resp.Kvs = append(resp.Kvs, &mvccpb.KeyValue{Key: []byte(k), Value: []byte(m.data[k])})
	}
	resp.Count = int64(len(resp.Kvs))
	return resp, nil
}

func (m *MockKV) Put(_ context.Context, key, val string, _ ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	m.data[key] = val
	return &clientv3.PutResponse{}, nil
}

func (m *MockKV) Delete(_ context.Context, key string, _ ...clientv3.OpOption) (*clientv3.DeleteResponse, error) {
	delete(m.data, key)
	return &clientv3.DeleteResponse{}, nil
}

func (m *MockKV) Close() error { return nil }

func exerciseStore(t *testing.T, s SettingStore) {
	t.Helper()
	ctx := context.Background()

	_, found, err := s.Get(ctx, "theme_moove", "scssh5p")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "theme_moove", "scssh5p", "body{color:red}"))
	require.NoError(t, s.Set(ctx, "theme_moove", "hvpccssmd5", "abc"))
	require.NoError(t, s.Set(ctx, "theme_boost", "scssh5p", "other"))

	v, found, err := s.Get(ctx, "theme_moove", "scssh5p")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "body{color:red}", v)

	all, err := s.List(ctx, "theme_moove")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"scssh5p": "body{color:red}", "hvpccssmd5": "abc"}, all)

	require.NoError(t, s.Unset(ctx, "theme_moove", "scssh5p"))
	_, found, err = s.Get(ctx, "theme_moove", "scssh5p")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, s.Health(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestEtcdStore(t *testing.T) {
	exerciseStore(t, NewEtcdStore(newMockKV()))
}

func TestEtcdStore_ListSkipsNestedComponents(t *testing.T) {
	kv := newMockKV()
	kv.data[BuildSettingKey("theme_moove", "preset")] = "plain.scss"
	kv.data[EtcdRootPrefix+"theme_moove/sub/preset"] = "nested"

	res, err := NewEtcdStore(kv).List(context.Background(), "theme_moove")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"preset": "plain.scss"}, res)
}

func TestEtcdStore_GetError(t *testing.T) {
	kv := newMockKV()
	kv.GetFn = func(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
		return nil, errors.New("etcd fatal error")
	}
	_, _, err := NewEtcdStore(kv).Get(context.Background(), "theme_moove", "scssh5p")
	assert.ErrorContains(t, err, "etcd fatal error")
}

func TestBuildSettingKey(t *testing.T) {
	assert.Equal(t, "/moove/config/theme_moove/hvpccsslm", BuildSettingKey("theme_moove", "hvpccsslm"))
}

func TestRedisStore_Unreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:0",
		DialTimeout: 10 * time.Millisecond,
		ReadTimeout: 10 * time.Millisecond,
		MaxRetries:  0,
	})
	defer rdb.Close()

	s := NewRedisStore(rdb)
	_, found, err := s.Get(context.Background(), "theme_moove", "scssh5p")
	assert.Error(t, err)
	assert.False(t, found)
	assert.Error(t, s.Health(context.Background()))
}
