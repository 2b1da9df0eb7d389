package websocket

import (
	"context"
	"encoding/json"

	apperrors "github.com/wfunc/table-game/internal/errors"
	"github.com/wfunc/table-game/internal/game"
	"github.com/wfunc/table-game/internal/logger"
	"github.com/wfunc/table-game/internal/repository"
	"github.com/wfunc/table-game/internal/utils"
	"go.uber.org/zap"
)

// Handler 入站消息路由：认证帧走JWT校验，其余帧转给会话协调器。
// 连接的第一帧必须是authenticate，否则断开。
type Handler struct {
	hub         *Hub
	coordinator *game.Coordinator
	jwtManager  *utils.JWTManager
	users       repository.UserRepository
}

// NewHandler 创建消息处理器并挂到Hub
func NewHandler(hub *Hub, coordinator *game.Coordinator, jwtManager *utils.JWTManager, users repository.UserRepository) *Handler {
	h := &Handler{
		hub:         hub,
		coordinator: coordinator,
		jwtManager:  jwtManager,
		users:       users,
	}
	hub.SetMessageHandler(h)
	hub.SetDisconnectHandler(func(userID uint) {
		coordinator.Disconnect(context.Background(), userID)
	})
	return h
}

// HandleClientMessage 处理单帧入站消息
func (h *Handler) HandleClientMessage(client *Client, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		client.SendError(int(apperrors.ErrMessageFormat), "消息格式错误")
		client.Close()
		return
	}

	logger.LogWebSocketMessage("inbound", msg.Type, nil)

	if msg.Type == MessageTypePing {
		client.SendMessage(MessageTypePong, nil)
		return
	}

	if !client.Authenticated {
		if msg.Type != MessageTypeAuthenticate {
			client.SendError(int(apperrors.ErrAuthentication), "第一帧必须是认证消息")
			client.Close()
			return
		}
		h.authenticate(client, msg.Data)
		return
	}

	ctx := context.Background()
	switch msg.Type {
	case MessageTypeAuthenticate:
		// 重复认证是空操作
		client.SendMessage(MessageTypeAuthenticated, map[string]interface{}{"user_id": client.UserID})

	case MessageTypeJoinRoom:
		var payload JoinRoomPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			client.SendError(int(apperrors.ErrMessageFormat), "消息格式错误")
			return
		}
		roomID, err := h.coordinator.JoinRoom(ctx, client.UserID, payload.GameType, payload.Stake)
		if err != nil {
			h.sendAppError(client, err)
			return
		}
		client.SendMessage(MessageTypeRoomJoined, map[string]interface{}{"room_id": roomID})

	case MessageTypeLeaveRoom:
		if err := h.coordinator.LeaveRoom(ctx, client.UserID); err != nil {
			h.sendAppError(client, err)
			return
		}
		client.SendMessage(MessageTypeRoomLeft, map[string]interface{}{})

	case MessageTypeToggleReady:
		if err := h.coordinator.ToggleReady(ctx, client.UserID); err != nil {
			h.sendAppError(client, err)
		}

	case MessageTypeGameAction:
		var payload GameActionPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			client.SendError(int(apperrors.ErrMessageFormat), "消息格式错误")
			return
		}
		if err := h.coordinator.HandleAction(ctx, client.UserID, payload.Action, payload.Data); err != nil {
			h.sendAppError(client, err)
		}

	default:
		client.SendError(int(apperrors.ErrMessageFormat), "不支持的消息类型: "+msg.Type)
	}
}

// authenticate 校验认证帧，成功后把连接绑定到用户
func (h *Handler) authenticate(client *Client, data json.RawMessage) {
	var payload AuthenticatePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Token == "" {
		client.SendError(int(apperrors.ErrAuthentication), "认证消息缺少令牌")
		client.Close()
		return
	}

	claims, err := h.jwtManager.ValidateToken(payload.Token)
	if err != nil || claims.TokenType != "access" {
		client.SendError(int(apperrors.ErrTokenInvalid), "令牌无效")
		client.Close()
		return
	}

	ctx := context.Background()
	user, err := h.users.FindByID(ctx, claims.UserID)
	if err != nil || !user.IsActive() {
		client.SendError(int(apperrors.ErrAuthentication), "账号不可用")
		client.Close()
		return
	}

	client.UserID = user.ID
	client.Authenticated = true
	h.hub.bindUser(client)

	logger.Info("WebSocket认证成功",
		zap.String("client_id", client.ID),
		zap.Uint("user_id", user.ID))

	client.SendMessage(MessageTypeAuthenticated, map[string]interface{}{
		"user_id":      user.ID,
		"display_name": user.DisplayName,
		"balance":      user.Balance,
	})

	// 断线重连的玩家恢复在场状态并补发快照
	if h.coordinator.RoomIDOf(user.ID) != 0 {
		h.coordinator.Reconnect(ctx, user.ID)
		if snap := h.coordinator.SnapshotFor(user.ID); snap != nil {
			client.SendMessage(MessageTypeRoomUpdate, snap)
		}
	}
}

// sendAppError 把应用错误转成错误帧
func (h *Handler) sendAppError(client *Client, err error) {
	code := apperrors.GetCode(err)
	client.SendError(int(code), err.Error())
}
