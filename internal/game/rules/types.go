package rules

import (
	"encoding/json"

	"github.com/wfunc/table-game/internal/models"
)

// Card 扑克牌
type Card struct {
	Suit  string `json:"suit"`
	Value string `json:"value"`
	ID    string `json:"id"`
}

// Coord 棋盘/网格坐标
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Placement 藏金位置
type Placement struct {
	X      int   `json:"x"`
	Y      int   `json:"y"`
	Amount int64 `json:"amount"`
}

// GuessRecord 一次猜测的结果
type GuessRecord struct {
	X   int  `json:"x"`
	Y   int  `json:"y"`
	Hit bool `json:"hit"`
}

// NjugaState 甩牌对局状态
type NjugaState struct {
	Deck        []Card          `json:"deck"`
	DiscardPile []Card          `json:"discard_pile"`
	PlayerHands map[uint][]Card `json:"player_hands"`
	CurrentTurn uint            `json:"current_turn"`
	HasWinner   bool            `json:"has_winner"`
	WinnerID    uint            `json:"winner_id,omitempty"`
}

// ShanshaState 藏金猜格对局状态
type ShanshaState struct {
	PlayerGrids map[uint][][]*int64    `json:"player_grids"`
	Placements  map[uint][]Placement   `json:"placements"`
	Guesses     map[uint][]GuessRecord `json:"guesses"`
	CurrentTurn uint                   `json:"current_turn"`
	HasWinner   bool                   `json:"has_winner"`
	WinnerID    uint                   `json:"winner_id,omitempty"`
}

// Piece 跳棋棋子
type Piece struct {
	Owner uint `json:"owner"`
	King  bool `json:"king"`
}

// ChinshingwaState 跳棋对局状态
type ChinshingwaState struct {
	Board       [8][8]*Piece     `json:"board"`
	Players     []uint           `json:"players"` // 按座位顺序，Players[0]的底线在第0行
	Kings       map[uint][]Coord `json:"kings"`
	CurrentTurn uint             `json:"current_turn"`
	HasWinner   bool             `json:"has_winner"`
	WinnerID    uint             `json:"winner_id,omitempty"`
}

// State 对局状态的带标签联合，整体按JSON持久化到房间记录
type State struct {
	GameType    string            `json:"game_type"`
	Njuga       *NjugaState       `json:"njuga,omitempty"`
	Shansha     *ShanshaState     `json:"shansha,omitempty"`
	Chinshingwa *ChinshingwaState `json:"chinshingwa,omitempty"`
}

// Marshal 序列化对局状态
func (s *State) Marshal() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnmarshalState 反序列化对局状态
func UnmarshalState(data string) (*State, error) {
	s := &State{}
	if err := json.Unmarshal([]byte(data), s); err != nil {
		return nil, err
	}
	return s, nil
}

// CurrentTurn 返回当前回合玩家
func (s *State) CurrentTurn() uint {
	switch s.GameType {
	case models.GameTypeNjuga:
		return s.Njuga.CurrentTurn
	case models.GameTypeShansha:
		return s.Shansha.CurrentTurn
	case models.GameTypeChinshingwa:
		return s.Chinshingwa.CurrentTurn
	}
	return 0
}

// SetTurn 设置当前回合玩家
func (s *State) SetTurn(playerID uint) {
	switch s.GameType {
	case models.GameTypeNjuga:
		s.Njuga.CurrentTurn = playerID
	case models.GameTypeShansha:
		s.Shansha.CurrentTurn = playerID
	case models.GameTypeChinshingwa:
		s.Chinshingwa.CurrentTurn = playerID
	}
}
