package room

import (
	"context"
	"log"
	"time"

	"github.com/squidplay/squidplay/internal/apperrors"
	"github.com/squidplay/squidplay/internal/store"
)

const (
	jobQueueSize  = 32
	commitTimeout = 5 * time.Second
)

// job 一次对房间状态的串行操作
type job struct {
	fn     func(*Room) error
	result chan error
}

// worker 单个房间的执行序列：同一房间的所有读写都经由
// 它的 goroutine 逐个执行，保证任意时刻至多一个在途变更。
type worker struct {
	room *Room
	jobs chan job
	dead chan struct{} // 关闭后表示 worker 已退出
}

func newWorker(r *Room) *worker {
	return &worker{
		room: r,
		jobs: make(chan job, jobQueueSize),
		dead: make(chan struct{}),
	}
}

// loop 执行序列主循环。fn 成功后递增版本并提交到存储；
// fn 将房间标记删除时，做最终清理后退出。
func (w *worker) loop(m *Manager) {
	defer close(w.dead)

	for j := range w.jobs {
		err := j.fn(w.room)
		if err == nil && !w.room.Deleted() {
			w.room.Version++
			m.commit(w.room)
		}
		j.result <- err

		if w.room.Deleted() {
			w.room.StopPhaseTimer()
			m.removeWorker(w.room.Code)
			m.removeFromStore(w.room.Code)
			w.drain()
			return
		}
	}
}

// drain 回应退出时仍排队的操作
func (w *worker) drain() {
	for {
		select {
		case j := <-w.jobs:
			j.result <- apperrors.ErrRoomNotFound
		default:
			return
		}
	}
}

// Dispatch 将 fn 提交到指定房间的执行序列并等待其完成。
// fn 内可以安全读写房间的全部状态。
func (m *Manager) Dispatch(code string, fn func(*Room) error) error {
	m.mu.RLock()
	w, ok := m.workers[code]
	m.mu.RUnlock()
	if !ok {
		return apperrors.ErrRoomNotFound
	}

	j := job{fn: fn, result: make(chan error, 1)}

	select {
	case w.jobs <- j:
	case <-w.dead:
		return apperrors.ErrRoomNotFound
	}

	select {
	case err := <-j.result:
		return err
	case <-w.dead:
		// worker 已退出；排队中的操作在退出前已被回应
		select {
		case err := <-j.result:
			return err
		default:
			return apperrors.ErrRoomNotFound
		}
	}
}

// commit 将房间当前状态写入存储。存储是最终一致的镜像，
// 提交失败记录日志，不回滚内存状态。
func (m *Manager) commit(r *Room) {
	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	defer cancel()

	if err := m.store.Set(ctx, store.RoomPath(r.Code), r.ToRoomData()); err != nil {
		log.Printf("⚠️ 房间 %s 提交存储失败 (version=%d): %v", r.Code, r.Version, err)
	}
}

// removeFromStore 删除房间在存储中的数据与消息日志
func (m *Manager) removeFromStore(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	defer cancel()

	if err := m.store.Remove(ctx, store.RoomPath(code)); err != nil {
		log.Printf("⚠️ 房间 %s 从存储删除失败: %v", code, err)
	}
	if err := m.store.Remove(ctx, store.MessagesPath(code)); err != nil {
		log.Printf("⚠️ 房间 %s 消息日志删除失败: %v", code, err)
	}
}
