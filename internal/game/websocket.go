// websocket.go

package game

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jacl-coder/BorderBounce-Server/internal/logging"
	"github.com/jacl-coder/BorderBounce-Server/internal/protocol"
)

const (
	// 写入超时时间
	writeWait = 10 * time.Second

	// 读取超时时间
	pongWait = 60 * time.Second

	// 发送 ping 的间隔时间
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小
	maxMessageSize = 64 * 1024

	// 发送队列长度
	sendBufferSize = 256
)

var (
	errConnClosed     = errors.New("连接已关闭")
	errSendBufferFull = errors.New("发送队列已满")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 允许所有跨域请求
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type frame struct {
	data   []byte
	binary bool
}

// wsConn WebSocket连接，实现 Conn
type wsConn struct {
	id        string
	send      chan frame
	closed    chan struct{}
	closeOnce sync.Once
}

func newWSConn(id string) *wsConn {
	return &wsConn{
		id:     id,
		send:   make(chan frame, sendBufferSize),
		closed: make(chan struct{}),
	}
}

// Send 放入发送队列，队列满时返回错误
func (c *wsConn) Send(data []byte, binary bool) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}

	select {
	case c.send <- frame{data: data, binary: binary}:
		return nil
	default:
		return errSendBufferFull
	}
}

// Close 关闭连接，可重复调用
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// handleWSConnection 处理WebSocket连接
func (s *GameServer) handleWSConnection(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	room, ok := s.GetRoom(query.Get("session_id"))
	if !ok {
		http.Error(w, "会话不存在", http.StatusNotFound)
		return
	}

	codec, err := protocol.CodecByName(query.Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 带有效主持人令牌的连接可以控制游戏，其余只能观看
	host := false
	if token := requestToken(r); token != "" {
		if _, err := s.tokens.Verify(token, room.ID); err != nil {
			logging.Log.Warningf("会话 %s 的令牌校验失败, 以观众身份连接: %v", room.ID, err)
		} else {
			host = true
		}
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Log.Errorf("WebSocket升级失败: %v", err)
		return
	}

	conn := newWSConn(uuid.New().String())
	client := &Client{ID: conn.id, Host: host, Codec: codec, Conn: conn}

	s.connMutex.Lock()
	s.connections[conn.id] = conn
	s.connMutex.Unlock()

	go s.writePump(ws, conn)

	// 等房间登记完客户端再开始读取
	joined := make(chan struct{}, 1)
	select {
	case room.Inbox <- Join{Client: client, Reply: joined}:
	case <-room.done:
		s.closeConnection(conn)
		return
	}
	select {
	case <-joined:
	case <-room.done:
		s.closeConnection(conn)
		return
	}

	logging.Log.Infof("客户端 %s 已连接到会话 %s, 主持人: %v", conn.id, room.ID, host)
	go s.readPump(ws, room, client)
}

// requestToken 从查询参数或 Authorization 头读取令牌
func requestToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// readPump 从WebSocket读取数据
func (s *GameServer) readPump(ws *websocket.Conn, room *Room, client *Client) {
	conn := client.Conn.(*wsConn)
	defer func() {
		select {
		case room.Inbox <- Leave{ClientID: client.ID}:
		case <-room.done:
		}
		s.closeConnection(conn)
	}()

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	reply := make(chan error, 1)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Log.Warningf("WebSocket错误: %v", err)
			}
			return
		}

		msg, err := client.Codec.Decode(data)
		if err != nil {
			s.sendError(client, protocol.ErrCodeBadMessage, err.Error(), "")
			continue
		}
		if !protocol.IsCommand(msg.Type) {
			s.sendError(client, protocol.ErrCodeUnknownType, "未知消息类型: "+msg.Type, msg.Type)
			continue
		}

		// 每个连接同一时间只有一条待处理的操作
		select {
		case room.Inbox <- Command{ClientID: client.ID, Message: msg, Reply: reply}:
		case <-room.done:
			return
		}
		select {
		case err := <-reply:
			if err != nil {
				logging.Log.Debugf("客户端 %s 的 %s 请求失败: %v", client.ID, msg.Type, err)
			}
		case <-room.done:
			return
		}
	}
}

// writePump 向WebSocket写入数据
func (s *GameServer) writePump(ws *websocket.Conn, conn *wsConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case f := <-conn.send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			msgType := websocket.TextMessage
			if f.binary {
				msgType = websocket.BinaryMessage
			}
			if err := ws.WriteMessage(msgType, f.data); err != nil {
				conn.Close()
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		case <-conn.closed:
			// 尽量把队列中剩余的消息发完
			for {
				select {
				case f := <-conn.send:
					msgType := websocket.TextMessage
					if f.binary {
						msgType = websocket.BinaryMessage
					}
					_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
					if ws.WriteMessage(msgType, f.data) != nil {
						return
					}
				default:
					_ = ws.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

// closeConnection 关闭连接并从连接列表移除
func (s *GameServer) closeConnection(conn *wsConn) {
	s.connMutex.Lock()
	defer s.connMutex.Unlock()

	if _, ok := s.connections[conn.id]; !ok {
		return
	}
	conn.Close()
	delete(s.connections, conn.id)

	logging.Log.Debugf("客户端 %s 已断开连接", conn.id)
}

// sendError 直接向客户端发送错误消息
func (s *GameServer) sendError(client *Client, code, message, request string) {
	data, err := client.Codec.Encode(protocol.TypeError, protocol.ErrorPayload{
		Code:    code,
		Message: message,
		Request: request,
	})
	if err != nil {
		logging.Log.Errorf("编码错误消息失败: %v", err)
		return
	}
	_ = client.Conn.Send(data, client.Codec.Binary())
}
