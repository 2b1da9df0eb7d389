package game

import (
	"github.com/wfunc/table-game/internal/game/rules"
	"github.com/wfunc/table-game/internal/models"
)

// Broadcaster 向玩家推送消息的出口，由websocket网关实现
type Broadcaster interface {
	SendToUser(userID uint, messageType string, payload interface{})
}

// ActionData 游戏动作参数，按玩法取用对应字段
type ActionData struct {
	// njuga
	FromDiscard bool   `json:"from_discard,omitempty"`
	CardID      string `json:"card_id,omitempty"`
	// shansha
	X      int   `json:"x"`
	Y      int   `json:"y"`
	Amount int64 `json:"amount,omitempty"`
	// chinshingwa
	FromX int `json:"from_x"`
	FromY int `json:"from_y"`
	ToX   int `json:"to_x"`
	ToY   int `json:"to_y"`
}

// 动作名
const (
	ActionDraw       = "draw"
	ActionDiscard    = "discard"
	ActionDeclareWin = "declareWin"
	ActionPlace      = "place"
	ActionGuess      = "guess"
	ActionMove       = "move"
	ActionPass       = "pass"
)

// SeatView 座位在快照中的视图
type SeatView struct {
	UserID      uint   `json:"user_id"`
	DisplayName string `json:"display_name"`
	Position    int    `json:"position"`
	IsReady     bool   `json:"is_ready"`
	IsConnected bool   `json:"is_connected"`
	Bet         int64  `json:"bet"`
	HandSize    int    `json:"hand_size,omitempty"` // njuga：其他玩家只可见手牌数
}

// GameView 对局状态在快照中的视图，按观看者脱敏
type GameView struct {
	GameType    string `json:"game_type"`
	CurrentTurn uint   `json:"current_turn"`
	HasWinner   bool   `json:"has_winner"`
	WinnerID    uint   `json:"winner_id,omitempty"`

	// njuga：自己的手牌、弃牌堆顶和两堆的剩余数量
	Hand         []rules.Card `json:"hand,omitempty"`
	DiscardTop   *rules.Card  `json:"discard_top,omitempty"`
	DeckCount    int          `json:"deck_count,omitempty"`
	DiscardCount int          `json:"discard_count,omitempty"`

	// shansha：自己的网格和藏金、双方的猜测记录
	Grid       [][]*int64                   `json:"grid,omitempty"`
	Placements []rules.Placement            `json:"placements,omitempty"`
	Guesses    map[uint][]rules.GuessRecord `json:"guesses,omitempty"`

	// chinshingwa：棋盘全公开
	Board [8][8]*rules.Piece     `json:"board,omitempty"`
	Kings map[uint][]rules.Coord `json:"kings,omitempty"`
}

// Snapshot 房间快照，roomUpdate消息的负载
type Snapshot struct {
	RoomID        uint        `json:"room_id"`
	Name          string      `json:"name"`
	GameType      string      `json:"game_type"`
	Stake         int64       `json:"stake"`
	Status        string      `json:"status"`
	MaxPlayers    int         `json:"max_players"`
	Pot           int64       `json:"pot"`
	Players       []*SeatView `json:"players"`
	Game          *GameView   `json:"game,omitempty"`
	TurnRemaining int         `json:"turn_remaining,omitempty"` // 秒
}

// displayNameOf 展示名兜底
func displayNameOf(u *models.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Phone
}
