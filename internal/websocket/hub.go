package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MessageHandler 入站消息处理器
type MessageHandler interface {
	HandleClientMessage(client *Client, data []byte)
}

// Hub WebSocket连接管理中心。
// 连接在认证前只存在于clients池，认证成功后才进入userClients映射。
type Hub struct {
	// 客户端连接池
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 用户ID到客户端的映射
	userClients map[uint][]*Client
	userMu      sync.RWMutex

	// 注册/注销通道
	register   chan *Client
	unregister chan *Client

	// 停机信号
	stop     chan struct{}
	stopOnce sync.Once

	messageHandler MessageHandler

	// 用户最后一条连接断开时的回调
	disconnectHandler func(userID uint)

	logger *zap.Logger
}

// NewHub 创建Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		userClients: make(map[uint][]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		stop:        make(chan struct{}),
		logger:      logger,
	}
}

// SetMessageHandler 设置入站消息处理器
func (h *Hub) SetMessageHandler(handler MessageHandler) {
	h.messageHandler = handler
}

// SetDisconnectHandler 设置断线回调
func (h *Hub) SetDisconnectHandler(fn func(userID uint)) {
	h.disconnectHandler = fn
}

// Run 运行Hub，直到Stop被调用
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.stop:
			return
		}
	}
}

// Stop 通知Run退出，幂等
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}

// registerClient 注册客户端，此时尚未认证
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端连接",
		zap.String("client_id", client.ID))
}

// bindUser 认证成功后把客户端挂到用户映射
func (h *Hub) bindUser(client *Client) {
	h.userMu.Lock()
	h.userClients[client.UserID] = append(h.userClients[client.UserID], client)
	h.userMu.Unlock()
}

// unregisterClient 注销客户端，用户的最后一条连接断开时触发断线回调
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		client.closeSend()
	}
	h.clientsMu.Unlock()

	lastConnection := false
	if client.UserID > 0 {
		h.userMu.Lock()
		clients := h.userClients[client.UserID]
		for i, c := range clients {
			if c.ID == client.ID {
				h.userClients[client.UserID] = append(clients[:i], clients[i+1:]...)
				break
			}
		}
		if len(h.userClients[client.UserID]) == 0 {
			delete(h.userClients, client.UserID)
			lastConnection = true
		}
		h.userMu.Unlock()
	}

	h.logger.Info("WebSocket客户端断开",
		zap.String("client_id", client.ID),
		zap.Uint("user_id", client.UserID))

	if lastConnection && h.disconnectHandler != nil {
		h.disconnectHandler(client.UserID)
	}
}

// SendToUser 推送消息给某用户的所有连接，实现协调器的Broadcaster接口
func (h *Hub) SendToUser(userID uint, messageType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("序列化推送负载失败", zap.Error(err))
		return
	}
	msg := &Message{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	h.userMu.RLock()
	clients := h.userClients[userID]
	h.userMu.RUnlock()

	for _, client := range clients {
		if !client.enqueue(raw) {
			h.logger.Warn("用户客户端推送失败",
				zap.String("client_id", client.ID),
				zap.Uint("user_id", userID))
		}
	}
}

// SendToClient 发送消息给指定客户端
func (h *Hub) SendToClient(clientID string, message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.clientsMu.RLock()
	client, ok := h.clients[clientID]
	h.clientsMu.RUnlock()

	if !ok {
		return ErrClientNotFound
	}

	if !client.enqueue(data) {
		return ErrSendBufferFull
	}
	return nil
}

// IsUserOnline 用户是否有活跃连接
func (h *Hub) IsUserOnline(userID uint) bool {
	h.userMu.RLock()
	defer h.userMu.RUnlock()
	return len(h.userClients[userID]) > 0
}

// GetOnlineCount 获取在线连接数
func (h *Hub) GetOnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Register 注册客户端（公开方法）
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 注销客户端（公开方法）
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}
