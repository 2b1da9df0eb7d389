package models

import "time"

// GameHistory 对局历史表（只追加，每个结束的房间恰好一条）
type GameHistory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoomID      uint      `gorm:"not null;index" json:"room_id"`
	WinnerID    uint      `gorm:"index" json:"winner_id"`
	GameType    string    `gorm:"size:20;not null" json:"game_type"`
	Stake       int64     `gorm:"not null" json:"stake"`
	Pot         int64     `gorm:"not null" json:"pot"`
	Winnings    int64     `gorm:"not null" json:"winnings"`
	HouseCut    int64     `gorm:"not null" json:"house_cut"`
	Players     JSONArray `gorm:"type:json" json:"players"`   // 落座玩家快照
	GameData    string    `gorm:"type:text" json:"game_data"` // 终局状态快照（JSON）
	CompletedAt time.Time `json:"completed_at"`
}

// TableName 指定GameHistory表名
func (GameHistory) TableName() string {
	return "game_history"
}

// PlayerStats 玩家战绩统计
type PlayerStats struct {
	UserID        uint  `json:"user_id"`
	Wins          int64 `json:"wins"`
	TotalWinnings int64 `json:"total_winnings"`
	GamesPlayed   int64 `json:"games_played"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	UserID        uint   `json:"user_id"`
	DisplayName   string `json:"display_name"`
	Wins          int64  `json:"wins"`
	TotalWinnings int64  `json:"total_winnings"`
	GamesPlayed   int64  `json:"games_played"`
}
