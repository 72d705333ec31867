package room

import (
	"context"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/squidplay/squidplay/internal/apperrors"
	"github.com/squidplay/squidplay/internal/store"
)

const (
	roomCodeLength = 6 // 房间号长度
	roomCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// 分配房间号时允许的连续存储失败次数，
	// 超过则判定存储不可用而不是无限重试
	maxStoreFailures = 3
	// 房间号碰撞的重试上限（码空间 36^6，碰撞概率可忽略）
	maxCodeAttempts = 100
)

// Manager 房间目录与生命周期管理器。它为每个活跃房间维护
// 一个执行序列 worker，并定期清理超时的等待房间。
type Manager struct {
	store       store.Store
	roomTimeout time.Duration
	workers     map[string]*worker
	mu          sync.RWMutex

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewManager 创建房间管理器
func NewManager(st store.Store, roomTimeout time.Duration) *Manager {
	m := &Manager{
		store:       st,
		roomTimeout: roomTimeout,
		workers:     make(map[string]*worker),
		stopCleanup: make(chan struct{}),
	}

	// 启动房间清理协程
	go m.cleanupLoop()

	return m
}

// Close 停止清理协程并关闭所有房间
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stopCleanup) })

	for _, code := range m.Codes() {
		_ = m.Dispatch(code, func(r *Room) error {
			r.MarkDeleted()
			return nil
		})
	}
}

// CreateRoom 创建房间：分配唯一房间号，以 hostName 为房主，
// 房间初始为等待状态。
func (m *Manager) CreateRoom(ctx context.Context, hostName string, gameType GameType, mode Mode) (string, error) {
	if !ValidName(hostName) {
		return "", apperrors.ErrInvalidName
	}

	code, err := m.allocateCode(ctx)
	if err != nil {
		return "", err
	}

	r := NewRoom(code, gameType, mode, hostName)
	w := newWorker(r)

	m.mu.Lock()
	m.workers[code] = w
	m.mu.Unlock()

	go w.loop(m)

	// 通过执行序列做首次提交，保证版本与存储一致
	if err := m.Dispatch(code, func(*Room) error { return nil }); err != nil {
		return "", err
	}

	log.Printf("🏠 房间 %s 已创建 (%s)，房主 %s", code, gameType, hostName)
	return code, nil
}

// JoinRoom 加入房间：校验状态、容量与名字唯一性，
// 成功后插入一名非房主玩家。
func (m *Manager) JoinRoom(code, name string) error {
	if !ValidName(name) {
		return apperrors.ErrInvalidName
	}

	return m.Dispatch(code, func(r *Room) error {
		if r.Status != StatusWaiting {
			return apperrors.ErrGameInProgress
		}
		if r.PlayerCount() >= r.GameType.MaxPlayers() {
			return apperrors.ErrRoomFull
		}
		if _, taken := r.Player(name); taken {
			return apperrors.ErrNameTaken
		}

		r.AddPlayer(name)
		log.Printf("👤 玩家 %s 加入房间 %s", name, code)
		return nil
	})
}

// LeaveRoom 离开房间。玩家缺席时为无操作；房间空了即删除；
// 房主离开时将最早加入的剩余玩家提升为房主。
func (m *Manager) LeaveRoom(code, name string) error {
	err := m.Dispatch(code, func(r *Room) error {
		if _, ok := r.Player(name); !ok {
			return nil // 幂等
		}

		// 回合中的玩家离开时先把回合让给下一位，保持轮转不断档
		if r.Uno != nil && r.Uno.CurrentPlayer == name && r.PlayerCount() > 1 {
			r.Uno.CurrentPlayer = r.NextPlayer(name)
		}
		// 撤销该玩家已投的票
		if r.Spy != nil {
			delete(r.Spy.Votes, name)
		}

		r.RemovePlayer(name)
		log.Printf("👋 玩家 %s 离开房间 %s", name, code)

		if r.PlayerCount() == 0 {
			r.MarkDeleted()
			log.Printf("🏠 房间 %s 已解散", code)
			return nil
		}

		r.EnsureHost()
		return nil
	})

	// 对缺失的房间保持幂等
	if err == apperrors.ErrRoomNotFound {
		return nil
	}
	return err
}

// Exists 房间是否存在
func (m *Manager) Exists(code string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.workers[code]
	return ok
}

// Codes 当前全部房间号
func (m *Manager) Codes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	codes := make([]string, 0, len(m.workers))
	for code := range m.workers {
		codes = append(codes, code)
	}
	return codes
}

// ActiveRooms 当前房间数
func (m *Manager) ActiveRooms() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workers)
}

// removeWorker 从目录移除房间的执行序列
func (m *Manager) removeWorker(code string) {
	m.mu.Lock()
	delete(m.workers, code)
	m.mu.Unlock()
}

// allocateCode 生成未被占用的房间号。碰撞时重新生成；
// 存储持续失败时返回 ErrStoreUnavailable 而不是无限循环。
func (m *Manager) allocateCode(ctx context.Context) (string, error) {
	storeFailures := 0

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := randomCode()

		if m.Exists(code) {
			continue
		}

		// 同时校验存储，防止与其他进程分配的房间撞号
		data, err := m.store.Get(ctx, store.RoomPath(code))
		if err != nil {
			storeFailures++
			if storeFailures > maxStoreFailures {
				return "", apperrors.ErrStoreUnavailable
			}
			continue
		}
		if data != nil {
			continue
		}

		return code, nil
	}

	return "", apperrors.ErrStoreUnavailable
}

// randomCode 随机生成 6 位大写字母数字房间号
func randomCode() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeChars[rand.IntN(len(roomCodeChars))]
	}
	return string(code)
}

// cleanupLoop 定期清理超时的等待房间
func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.stopCleanup:
			return
		}
	}
}

// cleanup 删除等待状态且超时的房间
func (m *Manager) cleanup() {
	now := time.Now()

	for _, code := range m.Codes() {
		_ = m.Dispatch(code, func(r *Room) error {
			if r.Status == StatusWaiting && now.Sub(r.CreatedAt) > m.roomTimeout {
				r.MarkDeleted()
				log.Printf("🧹 房间 %s 等待超时已清理", code)
			}
			return nil
		})
	}
}
