package repository

import (
	"context"
	"sort"
	"time"

	"github.com/wfunc/table-game/internal/models"
	"gorm.io/gorm"
)

// HistoryRepository 对局历史仓储接口。历史表只追加，不提供更新和删除。
type HistoryRepository interface {
	BaseRepository
	Create(ctx context.Context, history *models.GameHistory) error
	FindByRoomID(ctx context.Context, roomID uint) ([]*models.GameHistory, error)
	ListRecent(ctx context.Context, p *Pagination) ([]*models.GameHistory, error)
	PlayerStats(ctx context.Context, userID uint) (*models.PlayerStats, error)
	Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// historyRepo 对局历史仓储实现
type historyRepo struct {
	*BaseRepo
}

// NewHistoryRepository 创建对局历史仓储
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 写入一条对局历史
func (r *historyRepo) Create(ctx context.Context, history *models.GameHistory) error {
	if history.CompletedAt.IsZero() {
		history.CompletedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(history).Error
}

// FindByRoomID 查询某房间的历史记录
func (r *historyRepo) FindByRoomID(ctx context.Context, roomID uint) ([]*models.GameHistory, error) {
	var records []*models.GameHistory
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("completed_at DESC").
		Find(&records).Error
	return records, err
}

// ListRecent 最近的对局历史，按完成时间倒序分页，总数写回分页参数
func (r *historyRepo) ListRecent(ctx context.Context, p *Pagination) ([]*models.GameHistory, error) {
	if err := r.db.WithContext(ctx).Model(&models.GameHistory{}).Count(&p.Total).Error; err != nil {
		return nil, err
	}
	var records []*models.GameHistory
	err := r.db.WithContext(ctx).
		Order("completed_at DESC").
		Scopes(Paginate(p)).
		Find(&records).Error
	return records, err
}

// seatSnapshotUserID 从落座快照条目提取玩家ID。
// 快照经过JSON往返后数字是float64。
func seatSnapshotUserID(entry interface{}) uint {
	m, ok := entry.(map[string]interface{})
	if !ok {
		return 0
	}
	if id, ok := m["user_id"].(float64); ok {
		return uint(id)
	}
	return 0
}

// PlayerStats 玩家战绩：胜场、累计奖金、参与局数。
// 参与局数来自落座快照，按行聚合。
func (r *historyRepo) PlayerStats(ctx context.Context, userID uint) (*models.PlayerStats, error) {
	var records []*models.GameHistory
	if err := r.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, err
	}

	stats := &models.PlayerStats{UserID: userID}
	for _, h := range records {
		for _, entry := range h.Players {
			if seatSnapshotUserID(entry) == userID {
				stats.GamesPlayed++
				break
			}
		}
		if h.WinnerID == userID {
			stats.Wins++
			stats.TotalWinnings += h.Winnings
		}
	}
	return stats, nil
}

// Leaderboard 排行榜：按累计奖金降序，未参与过对局的玩家不上榜
func (r *historyRepo) Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	var records []*models.GameHistory
	if err := r.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, err
	}

	byUser := make(map[uint]*models.LeaderboardEntry)
	entryFor := func(userID uint) *models.LeaderboardEntry {
		if e, ok := byUser[userID]; ok {
			return e
		}
		e := &models.LeaderboardEntry{UserID: userID}
		byUser[userID] = e
		return e
	}

	for _, h := range records {
		for _, raw := range h.Players {
			if id := seatSnapshotUserID(raw); id != 0 {
				entryFor(id).GamesPlayed++
			}
		}
		if h.WinnerID != 0 {
			winner := entryFor(h.WinnerID)
			winner.Wins++
			winner.TotalWinnings += h.Winnings
		}
	}

	entries := make([]*models.LeaderboardEntry, 0, len(byUser))
	userIDs := make([]uint, 0, len(byUser))
	for id, e := range byUser {
		entries = append(entries, e)
		userIDs = append(userIDs, id)
	}

	// 补充展示名
	if len(userIDs) > 0 {
		var users []models.User
		if err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return nil, err
		}
		names := make(map[uint]string, len(users))
		for _, u := range users {
			names[u.ID] = u.DisplayName
		}
		for _, e := range entries {
			e.DisplayName = names[e.UserID]
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalWinnings != entries[j].TotalWinnings {
			return entries[i].TotalWinnings > entries[j].TotalWinnings
		}
		return entries[i].Wins > entries[j].Wins
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// WithTx 使用事务
func (r *historyRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &historyRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
