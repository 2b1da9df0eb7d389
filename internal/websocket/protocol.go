package websocket

import (
	"encoding/json"

	"github.com/wfunc/table-game/internal/game"
)

// Message WebSocket消息帧
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// 入站消息类型
const (
	MessageTypeAuthenticate = "authenticate"
	MessageTypeJoinRoom     = "joinRoom"
	MessageTypeLeaveRoom    = "leaveRoom"
	MessageTypeToggleReady  = "toggleReady"
	MessageTypeGameAction   = "gameAction"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
)

// 出站消息类型
const (
	MessageTypeAuthenticated = "authenticated"
	MessageTypeRoomJoined    = "roomJoined"
	MessageTypeRoomLeft      = "roomLeft"
	MessageTypeRoomUpdate    = "roomUpdate"
	MessageTypeTurnTimer     = "turnTimer"
	MessageTypeError         = "error"
)

// AuthenticatePayload 认证帧负载，必须是连接的第一帧
type AuthenticatePayload struct {
	Token string `json:"token"`
}

// JoinRoomPayload 加入房间负载
type JoinRoomPayload struct {
	GameType string `json:"game_type"`
	Stake    int64  `json:"stake"`
}

// GameActionPayload 游戏动作负载
type GameActionPayload struct {
	Action string           `json:"action"`
	Data   *game.ActionData `json:"data,omitempty"`
}

// ErrorPayload 错误负载
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
