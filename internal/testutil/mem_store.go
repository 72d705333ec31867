//go:build !production

package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/squidplay/squidplay/internal/store"
)

// MemStore 纯内存的 Store 实现，供不需要 Redis 的测试使用。
// 变更通知在调用方 goroutine 内同步派发。
type MemStore struct {
	mu     sync.Mutex
	values map[string][]byte
	logs   map[string][][]byte
	subs   map[string]map[int]func(store.Event)
	nextID int

	// FailGets 大于 0 时，接下来的 FailGets 次 Get 返回错误，
	// 用于模拟存储不可用
	FailGets int
}

// NewMemStore 创建内存存储
func NewMemStore() *MemStore {
	return &MemStore{
		values: make(map[string][]byte),
		logs:   make(map[string][][]byte),
		subs:   make(map[string]map[int]func(store.Event)),
	}
}

var _ store.Store = (*MemStore)(nil)

type memStoreErr string

func (e memStoreErr) Error() string { return string(e) }

// ErrUnavailable FailGets 生效时 Get 返回的错误
const ErrUnavailable = memStoreErr("mem store unavailable")

func (ms *MemStore) Get(_ context.Context, path string) ([]byte, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.FailGets > 0 {
		ms.FailGets--
		return nil, ErrUnavailable
	}

	data, ok := ms.values[path]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (ms *MemStore) Set(_ context.Context, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	ms.values[path] = data
	handlers := ms.handlers(path)
	ms.mu.Unlock()

	for _, h := range handlers {
		h(store.Event{Path: path, Value: data})
	}
	return nil
}

func (ms *MemStore) Update(ctx context.Context, path string, partial map[string]any) error {
	existing, err := ms.Get(ctx, path)
	if err != nil {
		return err
	}

	merged := make(map[string]any)
	if existing != nil {
		if err := json.Unmarshal(existing, &merged); err != nil {
			return err
		}
	}
	for k, v := range partial {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	return ms.Set(ctx, path, merged)
}

func (ms *MemStore) Remove(_ context.Context, path string) error {
	ms.mu.Lock()
	delete(ms.values, path)
	delete(ms.logs, path)
	handlers := ms.handlers(path)
	ms.mu.Unlock()

	for _, h := range handlers {
		h(store.Event{Path: path, Removed: true})
	}
	return nil
}

func (ms *MemStore) Append(_ context.Context, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	ms.logs[path] = append(ms.logs[path], data)
	handlers := ms.handlers(path)
	ms.mu.Unlock()

	for _, h := range handlers {
		h(store.Event{Path: path, Appended: data})
	}
	return nil
}

func (ms *MemStore) ListAppended(_ context.Context, path string) ([][]byte, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	items := make([][]byte, len(ms.logs[path]))
	for i, item := range ms.logs[path] {
		items[i] = append([]byte(nil), item...)
	}
	return items, nil
}

func (ms *MemStore) Subscribe(_ context.Context, path string, onChange func(store.Event)) (store.UnsubscribeFunc, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.subs[path] == nil {
		ms.subs[path] = make(map[int]func(store.Event))
	}
	id := ms.nextID
	ms.nextID++
	ms.subs[path][id] = onChange

	return func() {
		ms.mu.Lock()
		defer ms.mu.Unlock()
		delete(ms.subs[path], id)
	}, nil
}

// GetRoomData 测试辅助：读取并反序列化房间数据，缺失时返回 nil
func (ms *MemStore) GetRoomData(path string) *store.RoomData {
	data, _ := ms.Get(context.Background(), path)
	if data == nil {
		return nil
	}
	var rd store.RoomData
	if err := json.Unmarshal(data, &rd); err != nil {
		return nil
	}
	return &rd
}

// handlers 当前路径订阅者快照（持锁调用）
func (ms *MemStore) handlers(path string) []func(store.Event) {
	handlers := make([]func(store.Event), 0, len(ms.subs[path]))
	for _, h := range ms.subs[path] {
		handlers = append(handlers, h)
	}
	return handlers
}
