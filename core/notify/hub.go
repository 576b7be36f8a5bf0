package notify

import (
	"encoding/json"
	"sync"
	"time"

	"MuseGen/logger"

	"github.com/gorilla/websocket"
)

// EventType 推送事件类型
type EventType string

const (
	EventSaveComplete EventType = "save_complete" // 后台保存完成
	EventSaveFailed   EventType = "save_failed"   // 后台保存失败
)

// Event 推送给用户的事件
type Event struct {
	Type      EventType `json:"type"`
	JobID     string    `json:"jobId,omitempty"`
	SongIDs   []int64   `json:"songIds,omitempty"` // 入库后的歌曲ID
	Message   string    `json:"message,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client 一条用户的WebSocket连接
type Client struct {
	hub    *Hub
	userID int64
	conn   *websocket.Conn
	send   chan []byte
}

// Hub 按用户分发事件。生成接口同步返回后，后台保存的结果
// 通过这里推送给发起用户的所有在线连接。
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]bool
}

// NewHub 创建通知中心
func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]bool),
	}
}

// Register 注册一条用户连接并启动读写泵
func (h *Hub) Register(userID int64, conn *websocket.Conn) *Client {
	client := &Client{
		hub:    h,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 16),
	}

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]bool)
	}
	h.clients[userID][client] = true
	h.mu.Unlock()

	go client.writePump()
	go client.readPump()

	logger.Debug("[Notify] 用户连接注册", logger.Int64("userId", userID))
	return client
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if conns, ok := h.clients[client.userID]; ok {
		if _, ok := conns[client]; ok {
			delete(conns, client)
			close(client.send)
			if len(conns) == 0 {
				delete(h.clients, client.userID)
			}
		}
	}
	h.mu.Unlock()
}

// Publish 向用户的所有在线连接推送事件。用户不在线时事件直接丢弃，
// 保存结果本身已记录在Redis的任务标记里，可以随时查询。
//
// 发送必须持读锁进行：unregister在写锁下close(send)，
// 锁外发送会与并发断开的连接竞争，向已关闭的通道发送。
func (h *Hub) Publish(userID int64, evt Event) {
	evt.Timestamp = time.Now().UnixMilli()

	data, err := json.Marshal(evt)
	if err != nil {
		logger.Error("[Notify] 事件序列化失败", logger.ErrorField(err))
		return
	}

	var stale []*Client

	h.mu.RLock()
	for client := range h.clients[userID] {
		select {
		case client.send <- data:
		default:
			// 发送缓冲满说明连接已不健康，放弃这条连接。
			// 注销要写锁，读锁内只收集
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stale {
		h.unregister(client)
		client.conn.Close()
	}
}

// readPump 消费客户端消息，只处理心跳，其余丢弃
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
