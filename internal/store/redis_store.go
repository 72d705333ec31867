package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	valueKeyPrefix  = "kv:"
	logKeyPrefix    = "log:"
	watchChanPrefix = "watch:"

	// 数据过期时间，防止孤儿房间永久占用
	valueExpiration = 2 * time.Hour
)

// RedisStore 基于 Redis 的 Store 实现。值整体存为 JSON，追加日志
// 使用 list，变更通知通过 pub/sub 按路径广播。
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ Store = (*RedisStore)(nil)

// Get 读取路径的值
func (rs *RedisStore) Get(ctx context.Context, path string) ([]byte, error) {
	data, err := rs.client.Get(ctx, valueKeyPrefix+path).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 路径不存在
		}
		return nil, err
	}
	return data, nil
}

// Set 整体写入路径的值并广播变更
func (rs *RedisStore) Set(ctx context.Context, path string, value any) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %s: %w", path, err)
	}

	if err := rs.client.Set(ctx, valueKeyPrefix+path, jsonData, valueExpiration).Err(); err != nil {
		return err
	}

	return rs.publish(ctx, Event{Path: path, Value: jsonData})
}

// Update 合并写入路径值的顶层字段
func (rs *RedisStore) Update(ctx context.Context, path string, partial map[string]any) error {
	existing, err := rs.Get(ctx, path)
	if err != nil {
		return err
	}

	merged := make(map[string]any)
	if existing != nil {
		if err := json.Unmarshal(existing, &merged); err != nil {
			return fmt.Errorf("unmarshal existing value of %s: %w", path, err)
		}
	}
	for k, v := range partial {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	return rs.Set(ctx, path, merged)
}

// Remove 删除路径及其追加日志
func (rs *RedisStore) Remove(ctx context.Context, path string) error {
	if err := rs.client.Del(ctx, valueKeyPrefix+path, logKeyPrefix+path).Err(); err != nil {
		return err
	}
	return rs.publish(ctx, Event{Path: path, Removed: true})
}

// Append 向路径日志追加一条记录
func (rs *RedisStore) Append(ctx context.Context, path string, value any) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %s: %w", path, err)
	}

	key := logKeyPrefix + path
	pipe := rs.client.Pipeline()
	pipe.RPush(ctx, key, jsonData)
	pipe.Expire(ctx, key, valueExpiration)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	return rs.publish(ctx, Event{Path: path, Appended: jsonData})
}

// ListAppended 按追加顺序读取日志全部记录
func (rs *RedisStore) ListAppended(ctx context.Context, path string) ([][]byte, error) {
	items, err := rs.client.LRange(ctx, logKeyPrefix+path, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	result := make([][]byte, len(items))
	for i, item := range items {
		result[i] = []byte(item)
	}
	return result, nil
}

// Subscribe 订阅路径变更。返回的函数用于取消订阅。
func (rs *RedisStore) Subscribe(ctx context.Context, path string, onChange func(Event)) (UnsubscribeFunc, error) {
	sub := rs.client.Subscribe(ctx, watchChanPrefix+path)

	// 确认订阅建立后再返回，避免丢失紧随其后的变更
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	go func() {
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			onChange(ev)
		}
	}()

	return func() { _ = sub.Close() }, nil
}

// publish 广播一次路径变更
func (rs *RedisStore) publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return rs.client.Publish(ctx, watchChanPrefix+ev.Path, payload).Err()
}
