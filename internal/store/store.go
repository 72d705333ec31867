// Package store 定义核心所依赖的共享键值存储接口：按路径读写、
// 部分更新、追加日志，以及路径级的变更推送订阅。核心只通过该接口
// 消费存储，不关心持久化细节。
package store

import "context"

// 路径约定
const (
	roomPathPrefix    = "rooms/"
	messagePathPrefix = "messages/"
)

// RoomPath 房间数据路径
func RoomPath(code string) string {
	return roomPathPrefix + code
}

// MessagesPath 房间消息日志路径
func MessagesPath(code string) string {
	return messagePathPrefix + code
}

// Event 一次路径变更通知
type Event struct {
	Path     string `json:"path"`
	Value    []byte `json:"value,omitempty"`    // 变更后的值；Removed 时为空
	Appended []byte `json:"appended,omitempty"` // Append 追加的条目
	Removed  bool   `json:"removed,omitempty"`
}

// UnsubscribeFunc 取消订阅
type UnsubscribeFunc func()

// Store 共享键值存储。变更通知按单个路径有序广播，
// 跨路径不保证全局顺序。
type Store interface {
	// Get 读取路径的值；路径不存在时返回 (nil, nil)
	Get(ctx context.Context, path string) ([]byte, error)
	// Set 整体写入路径的值
	Set(ctx context.Context, path string, value any) error
	// Update 合并写入路径值的顶层字段
	Update(ctx context.Context, path string, partial map[string]any) error
	// Remove 删除路径及其值
	Remove(ctx context.Context, path string) error
	// Append 向路径的追加日志写入一条记录
	Append(ctx context.Context, path string, value any) error
	// ListAppended 按追加顺序读取路径日志的全部记录
	ListAppended(ctx context.Context, path string) ([][]byte, error)
	// Subscribe 订阅路径的变更通知
	Subscribe(ctx context.Context, path string, onChange func(Event)) (UnsubscribeFunc, error)
}
