// room.go

package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jacl-coder/BorderBounce-Server/internal/events"
	"github.com/jacl-coder/BorderBounce-Server/internal/logging"
	"github.com/jacl-coder/BorderBounce-Server/internal/models"
	"github.com/jacl-coder/BorderBounce-Server/internal/protocol"
)

const (
	// 事件发布队列长度
	eventQueueSize = 256
	// 单个事件的发布超时
	publishTimeout = 2 * time.Second
)

// Conn 客户端连接
type Conn interface {
	// Send 发送一帧，不能阻塞
	Send(data []byte, binary bool) error
	Close() error
}

// Client 房间中的一个连接
type Client struct {
	ID    string
	Host  bool
	Codec protocol.Codec
	Conn  Conn
}

// Join 客户端加入
type Join struct {
	Client *Client
	Reply  chan<- struct{}
}

// Leave 客户端离开
type Leave struct {
	ClientID string
}

// Command 客户端发来的操作
type Command struct {
	ClientID string
	Message  protocol.Message
	Reply    chan<- error // 可选
}

// Exec 在房间协程中执行函数
type Exec struct {
	Fn   func(*Session)
	Done chan<- struct{}
}

// RoomOptions 房间运行参数
type RoomOptions struct {
	TickInterval   time.Duration
	BroadcastEvery int
	Publisher      events.Publisher
}

// Room 游戏房间，独占一个会话，所有操作和帧推进都在同一个协程中串行执行
type Room struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Inbox     chan any

	session        *Session
	clients        map[string]*Client
	tickInterval   time.Duration
	broadcastEvery int
	publisher      events.Publisher
	outbox         chan models.Event

	quit     chan struct{}
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once

	// 供其他协程读取的摘要信息
	infoMutex    sync.RWMutex
	info         models.SessionInfo
	lastActivity time.Time
}

// NewRoom 创建房间
func NewRoom(name string, session *Session, opts RoomOptions) *Room {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second / 60
	}
	if opts.BroadcastEvery <= 0 {
		opts.BroadcastEvery = 1
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}

	now := time.Now()
	r := &Room{
		ID:             session.ID,
		Name:           name,
		CreatedAt:      now,
		Inbox:          make(chan any, 256),
		session:        session,
		clients:        make(map[string]*Client),
		tickInterval:   opts.TickInterval,
		broadcastEvery: opts.BroadcastEvery,
		publisher:      opts.Publisher,
		outbox:         make(chan models.Event, eventQueueSize),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
		lastActivity:   now,
	}
	r.updateInfo()
	return r
}

// Start 启动房间协程
func (r *Room) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	logging.Log.Infof("房间 %s 启动", r.ID)
	go r.publishLoop()
	go r.run()
}

// Stop 停止房间并等待协程退出
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.quit)
		if r.started.Load() {
			<-r.done
		} else {
			close(r.done)
		}
		logging.Log.Infof("房间 %s 已停止", r.ID)
	})
}

// Do 在房间协程中执行 fn 并等待完成，房间已停止时返回 false
func (r *Room) Do(fn func(*Session)) bool {
	done := make(chan struct{})
	select {
	case r.Inbox <- Exec{Fn: fn, Done: done}:
	case <-r.done:
		return false
	}
	select {
	case <-done:
		return true
	case <-r.done:
		return false
	}
}

// Info 房间摘要
func (r *Room) Info() models.SessionInfo {
	r.infoMutex.RLock()
	defer r.infoMutex.RUnlock()
	return r.info
}

// ShouldCleanup 没有连接且超过 idle 没有活动
func (r *Room) ShouldCleanup(idle time.Duration) bool {
	r.infoMutex.RLock()
	defer r.infoMutex.RUnlock()
	return r.info.ClientCount == 0 && time.Since(r.lastActivity) > idle
}

// run 房间主循环，只在游戏进行中持有ticker
func (r *Room) run() {
	var ticker *time.Ticker
	var tickC <-chan time.Time

	syncTicker := func() {
		running := r.session.Status() == models.StatusRunning
		switch {
		case running && ticker == nil:
			ticker = time.NewTicker(r.tickInterval)
			tickC = ticker.C
		case !running && ticker != nil:
			ticker.Stop()
			ticker, tickC = nil, nil
		}
	}

	// 退出时停止ticker并关闭所有客户端
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
		for id, c := range r.clients {
			_ = c.Conn.Close()
			delete(r.clients, id)
		}
		r.updateInfo()
		close(r.done)
	}()

	syncTicker()
	for {
		select {
		case <-r.quit:
			return
		case msg := <-r.Inbox:
			r.handle(msg)
			syncTicker()
		case <-tickC:
			// 推进一帧
			evs := r.session.Advance(1)
			r.dispatchEvents(evs)
			if r.session.Tick()%int64(r.broadcastEvery) == 0 || len(evs) > 0 {
				r.broadcastSnapshot()
			}
			syncTicker()
		}
	}
}

func (r *Room) handle(msg any) {
	switch m := msg.(type) {
	case Join:
		// 登记客户端并发送欢迎消息和当前快照
		r.clients[m.Client.ID] = m.Client
		r.touch()
		r.sendTo(m.Client, protocol.TypeWelcome, protocol.WelcomePayload{
			SessionID: r.ID,
			ClientID:  m.Client.ID,
			Host:      m.Client.Host,
			Codec:     m.Client.Codec.Name(),
		})
		r.sendTo(m.Client, protocol.TypeSnapshot, r.session.Snapshot())
		logging.Log.Debugf("客户端 %s 加入房间 %s, 主持人: %v", m.Client.ID, r.ID, m.Client.Host)
		if m.Reply != nil {
			m.Reply <- struct{}{}
		}

	case Leave:
		r.removeClient(m.ClientID)
		r.touch()

	case Command:
		err := r.handleCommand(m)
		if m.Reply != nil {
			m.Reply <- err
		}

	case Exec:
		m.Fn(r.session)
		r.dispatchEvents(r.session.DrainEvents())
		r.updateInfo()
		if m.Done != nil {
			close(m.Done)
		}
	}
}

func (r *Room) handleCommand(cmd Command) error {
	client, ok := r.clients[cmd.ClientID]
	if !ok {
		return nil
	}
	r.touch()

	// 只有主持人可以修改游戏
	var err error
	if !client.Host {
		err = ErrNotHost
	} else {
		err = applyMessage(r.session, cmd.Message)
	}

	if err != nil {
		logging.Log.Debugf("房间 %s 拒绝 %s 请求: %v", r.ID, cmd.Message.Type, err)
		r.sendTo(client, protocol.TypeError, protocol.ErrorPayload{
			Code:    errorCode(err),
			Message: err.Error(),
			Request: cmd.Message.Type,
		})
		return err
	}

	// 推送事件和最新快照
	r.dispatchEvents(r.session.DrainEvents())
	r.broadcastSnapshot()
	return nil
}

// dispatchEvents 事件发给客户端并放入发布队列
func (r *Room) dispatchEvents(evs []models.Event) {
	for _, ev := range evs {
		r.broadcast(protocol.TypeEvent, ev)
		select {
		case r.outbox <- ev:
		default:
			logging.Log.Warningf("房间 %s 事件队列已满, 丢弃 %s 事件", r.ID, ev.Type)
		}
	}
}

// publishLoop 在独立协程中发布事件，失败只记录日志
func (r *Room) publishLoop() {
	for {
		select {
		case ev := <-r.outbox:
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			if err := r.publisher.Publish(ctx, ev); err != nil {
				logging.Log.Warningf("发布事件失败: %v", err)
			}
			cancel()
		case <-r.done:
			return
		}
	}
}

func (r *Room) broadcastSnapshot() {
	r.broadcast(protocol.TypeSnapshot, r.session.Snapshot())
	r.updateInfo()
}

// broadcast 按编码格式各编码一次后发送给所有客户端
func (r *Room) broadcast(msgType string, payload interface{}) {
	encoded := make(map[string][]byte)
	// 编码失败的格式只跳过这一组客户端
	broken := make(map[string]bool)
	var failed []string

	for id, c := range r.clients {
		name := c.Codec.Name()
		if broken[name] {
			continue
		}
		data, ok := encoded[name]
		if !ok {
			var err error
			data, err = c.Codec.Encode(msgType, payload)
			if err != nil {
				logging.Log.Errorf("%s 编码 %s 消息失败: %v", name, msgType, err)
				broken[name] = true
				continue
			}
			encoded[name] = data
		}
		if err := c.Conn.Send(data, c.Codec.Binary()); err != nil {
			failed = append(failed, id)
		}
	}

	// 移除发送失败的客户端
	for _, id := range failed {
		logging.Log.Warningf("客户端 %s 发送失败, 移出房间 %s", id, r.ID)
		r.removeClient(id)
	}
}

func (r *Room) sendTo(c *Client, msgType string, payload interface{}) {
	data, err := c.Codec.Encode(msgType, payload)
	if err != nil {
		logging.Log.Errorf("编码 %s 消息失败: %v", msgType, err)
		return
	}
	if err := c.Conn.Send(data, c.Codec.Binary()); err != nil {
		r.removeClient(c.ID)
	}
}

func (r *Room) removeClient(id string) {
	c, ok := r.clients[id]
	if !ok {
		return
	}
	_ = c.Conn.Close()
	delete(r.clients, id)
	r.updateInfo()
	logging.Log.Debugf("客户端 %s 离开房间 %s", id, r.ID)
}

func (r *Room) touch() {
	r.infoMutex.Lock()
	r.lastActivity = time.Now()
	r.infoMutex.Unlock()
	r.updateInfo()
}

func (r *Room) updateInfo() {
	info := models.SessionInfo{
		ID:          r.ID,
		Name:        r.Name,
		Status:      r.session.Status(),
		PlayerCount: len(r.session.players.Players),
		ClientCount: len(r.clients),
		CreatedAt:   r.CreatedAt,
	}
	r.infoMutex.Lock()
	r.info = info
	r.infoMutex.Unlock()
}
