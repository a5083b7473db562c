// server.go

package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jacl-coder/BorderBounce-Server/config"
	"github.com/jacl-coder/BorderBounce-Server/internal/events"
	"github.com/jacl-coder/BorderBounce-Server/internal/logging"
	"github.com/jacl-coder/BorderBounce-Server/internal/models"
	"github.com/jacl-coder/BorderBounce-Server/internal/physics"
	"github.com/jacl-coder/BorderBounce-Server/internal/protocol"
)

const (
	// 每个IP每分钟允许的HTTP请求数
	requestsPerMinute = 120
	// 空闲房间检查间隔
	cleanupInterval = 10 * time.Second
	// 请求体大小上限
	maxBodySize = 64 * 1024
)

// ErrTooManySessions 会话数量达到上限
var ErrTooManySessions = errors.New("会话数量已达上限")

// GameServer 游戏服务器
type GameServer struct {
	config     *config.Config
	rooms      map[string]*Room
	roomsMutex sync.RWMutex
	httpServer *http.Server

	connections map[string]*wsConn
	connMutex   sync.RWMutex

	tokens    *TokenManager
	limiter   *RateLimiter
	publisher events.Publisher

	// 为新会话创建随机源，测试时可替换
	newRandom func() physics.RandomSource

	// 关闭信号
	shutdown  chan struct{}
	isRunning bool
	mu        sync.Mutex
}

// CreateSessionRequest 创建会话请求
type CreateSessionRequest struct {
	Name    string   `json:"name"`
	Players []string `json:"players,omitempty"`
}

// CreateSessionResponse 创建会话响应
type CreateSessionResponse struct {
	Session models.SessionInfo `json:"session"`
	Token   string             `json:"token"`
}

// NewGameServer 创建新的游戏服务器
func NewGameServer(cfg *config.Config, publisher events.Publisher) *GameServer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &GameServer{
		config:      cfg,
		rooms:       make(map[string]*Room),
		connections: make(map[string]*wsConn),
		tokens:      NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		limiter:     NewRateLimiter(requestsPerMinute),
		publisher:   publisher,
		shutdown:    make(chan struct{}),
	}
}

// Start 启动游戏服务器
func (s *GameServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("服务器已经在运行")
	}

	// 创建HTTP服务器
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Server.GamePort),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动HTTP服务器
	go func() {
		logging.Log.Noticef("游戏服务器启动，监听端口: %d", s.config.Server.GamePort)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Log.Criticalf("HTTP服务器错误: %v", err)
		}
	}()

	// 启动房间管理器
	go s.roomManager()

	s.isRunning = true
	return nil
}

// Stop 停止游戏服务器
func (s *GameServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	// 发送关闭信号
	close(s.shutdown)

	// 关闭所有房间
	s.closeRooms()

	// 关闭所有连接
	s.connMutex.Lock()
	for _, conn := range s.connections {
		conn.Close()
	}
	s.connMutex.Unlock()

	// 关闭HTTP服务器
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP服务器关闭错误: %w", err)
	}

	s.isRunning = false
	logging.Log.Notice("游戏服务器已停止")
	return nil
}

// Handler 创建HTTP处理器
func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/sessions", s.handleSessions)
	mux.HandleFunc("/sessions/", s.handleSessionSnapshot)
	mux.HandleFunc("/ws", s.handleWSConnection)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return chain(mux,
		LoggingMiddleware,
		SecurityMiddleware,
		CORSMiddleware,
		s.limiter.Middleware,
	)
}

// handleSessions 创建或列出会话
func (s *GameServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.ListRooms())

	case http.MethodPost:
		var req CreateSessionRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "请求格式错误"})
				return
			}
		}

		room, token, err := s.CreateSession(req.Name, req.Players)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrTooManySessions) {
				status = http.StatusServiceUnavailable
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, CreateSessionResponse{Session: room.Info(), Token: token})

	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "不支持的请求方法"})
	}
}

// handleSessionSnapshot 返回单个会话的当前快照
func (s *GameServer) handleSessionSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "不支持的请求方法"})
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/sessions/"), "/")
	room, ok := s.GetRoom(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "会话不存在"})
		return
	}

	// 快照必须在房间协程中读取
	var snapshot protocol.Snapshot
	if !room.Do(func(session *Session) { snapshot = session.Snapshot() }) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "会话已关闭"})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// roomManager 定期清理空闲房间
func (s *GameServer) roomManager() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupRooms()
			s.limiter.Cleanup()
		case <-s.shutdown:
			return
		}
	}
}

// cleanupRooms 清理空闲房间
func (s *GameServer) cleanupRooms() {
	s.roomsMutex.Lock()
	var idle []*Room
	for id, room := range s.rooms {
		if room.ShouldCleanup(s.config.Server.IdleTimeout) {
			idle = append(idle, room)
			delete(s.rooms, id)
		}
	}
	s.roomsMutex.Unlock()

	for _, room := range idle {
		logging.Log.Infof("清理空闲房间: %s", room.ID)
		room.Stop()
	}
}

// closeRooms 停止并移除所有房间
func (s *GameServer) closeRooms() {
	s.roomsMutex.Lock()
	rooms := make([]*Room, 0, len(s.rooms))
	for id, room := range s.rooms {
		rooms = append(rooms, room)
		delete(s.rooms, id)
	}
	s.roomsMutex.Unlock()

	for _, room := range rooms {
		room.Stop()
	}
}

// CreateSession 创建会话并启动房间，返回主持人令牌
func (s *GameServer) CreateSession(name string, players []string) (*Room, string, error) {
	s.roomsMutex.Lock()
	defer s.roomsMutex.Unlock()

	// 检查会话数量上限
	if limit := s.config.Server.MaxSessions; limit > 0 && len(s.rooms) >= limit {
		return nil, "", ErrTooManySessions
	}

	id := uuid.New().String()
	name = strings.TrimSpace(name)
	if name == "" {
		name = "game-" + id[:8]
	}

	var rng physics.RandomSource
	if s.newRandom != nil {
		rng = s.newRandom()
	}

	// 创建会话并加入初始玩家
	session := NewSession(id, s.config.Game, rng)
	for _, p := range players {
		if _, err := session.AddPlayer(p); err != nil {
			logging.Log.Warningf("忽略无效的玩家名: %q", p)
		}
	}
	session.DrainEvents()

	// 签发主持人令牌
	token, err := s.tokens.Issue(id)
	if err != nil {
		return nil, "", err
	}

	// 创建并启动房间
	room := NewRoom(name, session, RoomOptions{
		TickInterval:   s.config.Server.TickInterval(),
		BroadcastEvery: s.config.Server.BroadcastEvery,
		Publisher:      s.publisher,
	})
	s.rooms[id] = room
	room.Start()

	logging.Log.Infof("创建会话: %s (%s), 玩家数: %d", id, name, len(players))
	return room, token, nil
}

// GetRoom 获取房间
func (s *GameServer) GetRoom(roomID string) (*Room, bool) {
	s.roomsMutex.RLock()
	defer s.roomsMutex.RUnlock()

	room, exists := s.rooms[roomID]
	return room, exists
}

// ListRooms 列出所有会话，按创建时间排序
func (s *GameServer) ListRooms() []models.SessionInfo {
	s.roomsMutex.RLock()
	infos := make([]models.SessionInfo, 0, len(s.rooms))
	for _, room := range s.rooms {
		infos = append(infos, room.Info())
	}
	s.roomsMutex.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}
