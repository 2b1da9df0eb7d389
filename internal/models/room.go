package models

import "time"

// 游戏类型
const (
	GameTypeNjuga       = "njuga"       // 配对甩牌
	GameTypeShansha     = "shansha"     // 藏金猜格
	GameTypeChinshingwa = "chinshingwa" // 跳棋
)

// 房间状态
const (
	RoomStatusWaiting  = "waiting"
	RoomStatusPlaying  = "playing"
	RoomStatusSettling = "settling" // 结算中（持久化失败后等待重试）
	RoomStatusFinished = "finished"
)

// MaxSeats 按玩法返回座位上限
func MaxSeats(gameType string) int {
	if gameType == GameTypeNjuga {
		return 6
	}
	return 2
}

// ValidGameType 校验玩法名
func ValidGameType(gameType string) bool {
	switch gameType {
	case GameTypeNjuga, GameTypeShansha, GameTypeChinshingwa:
		return true
	}
	return false
}

// Room 游戏房间表
// 内存中的权威游戏状态由会话协调器持有，这里的GameState是写穿的持久化副本
type Room struct {
	BaseModel
	Name           string `gorm:"size:100" json:"name"`
	GameType       string `gorm:"size:20;not null;index:idx_room_match" json:"game_type"`
	Stake          int64  `gorm:"not null;index:idx_room_match" json:"stake"`
	MaxPlayers     int    `gorm:"not null" json:"max_players"`
	CurrentPlayers int    `gorm:"default:0" json:"current_players"`
	Status         string `gorm:"size:20;default:'waiting';index:idx_room_match" json:"status"`
	Pot            int64  `gorm:"default:0" json:"pot"`
	GameState      string `gorm:"type:text" json:"-"` // JSON格式的当前对局状态
}

// TableName 指定Room表名
func (Room) TableName() string {
	return "rooms"
}

// IsJoinable 检查房间是否可加入
func (r *Room) IsJoinable() bool {
	return r.Status == RoomStatusWaiting && r.CurrentPlayers < r.MaxPlayers
}

// RoomPlayer 座位表，一条记录代表一个玩家在某个房间的占座
type RoomPlayer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoomID      uint      `gorm:"not null;uniqueIndex:idx_room_user" json:"room_id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_room_user" json:"user_id"`
	Position    int       `gorm:"not null" json:"position"`
	IsReady     bool      `gorm:"default:false" json:"is_ready"`
	IsConnected bool      `gorm:"default:true" json:"is_connected"`
	Bet         int64     `gorm:"default:0" json:"bet"`
	JoinedAt    time.Time `json:"joined_at"`
}

// TableName 指定RoomPlayer表名
func (RoomPlayer) TableName() string {
	return "room_players"
}
