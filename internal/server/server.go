package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/squidplay/squidplay/internal/config"
	"github.com/squidplay/squidplay/internal/game"
	"github.com/squidplay/squidplay/internal/protocol"
	"github.com/squidplay/squidplay/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源，生产环境需要限制
	},
	EnableCompression: false,
}

// Server WebSocket 服务器
type Server struct {
	config  *config.Config
	redis   *redis.Client
	store   store.Store
	service *game.Service
	fanout  *Fanout
	handler *Handler

	clients   map[string]*Client
	clientsMu sync.RWMutex
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化 Redis 客户端
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 测试 Redis 连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}

	s := newServer(cfg, store.NewRedisStore(rdb))
	s.redis = rdb
	return s, nil
}

// newServer 在给定存储上组装服务器，供测试注入内存存储
func newServer(cfg *config.Config, st store.Store) *Server {
	s := &Server{
		config:  cfg,
		store:   st,
		service: game.NewService(cfg, st),
		fanout:  NewFanout(st),
		clients: make(map[string]*Client),
	}
	s.handler = NewHandler(s.service, st, s.fanout)
	return s
}

// Start 启动服务器
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	http.HandleFunc("/ws", s.handleWebSocket)
	http.HandleFunc("/health", s.handleHealth)

	// 启动监控 goroutine
	go s.monitorStats()

	log.Printf("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", addr, runtime.NumCPU())
	server := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return server.ListenAndServe()
}

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}

	client := NewClient(s, conn)
	client.IP = r.RemoteAddr
	s.registerClient(client)

	client.SendMessage(protocol.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		SessionID: client.ID,
	}))

	log.Printf("✅ 连接 %s 已建立 (IP: %s)", client.ID, client.IP)

	go client.ReadPump()
	go client.WritePump()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[client.ID]; ok {
		delete(s.clients, client.ID)
		log.Printf("❌ 连接 %s (%s) 已断开", client.ID, client.GetName())
	}
}

// GetOnlineCount 获取在线人数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.Printf("📊 [监控] 在线: %d | 活跃房间: %d | Goroutines: %d | 内存: %.2f MB",
			s.GetOnlineCount(),
			s.service.Rooms().ActiveRooms(),
			runtime.NumGoroutine(),
			float64(m.Alloc)/1024/1024)
	}
}

// Shutdown 关闭服务器：断开全部客户端、停止房间管理并关闭 Redis
func (s *Server) Shutdown() {
	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clientsMu.Unlock()

	s.fanout.Close()
	s.service.Close()
	if s.redis != nil {
		_ = s.redis.Close()
	}

	log.Println("服务器已关闭")
}
