package repository

import (
	"context"
	"time"

	apperrors "github.com/wfunc/table-game/internal/errors"
	"github.com/wfunc/table-game/internal/models"
	"gorm.io/gorm"
)

// RoomRepository 房间与座位仓储接口
type RoomRepository interface {
	BaseRepository
	Create(ctx context.Context, room *models.Room) error
	FindByID(ctx context.Context, id uint) (*models.Room, error)
	FindOpenRoom(ctx context.Context, gameType string, stake int64) (*models.Room, error)
	ListAvailable(ctx context.Context) ([]*models.Room, error)
	Seat(ctx context.Context, room *models.Room, userID uint, bet int64) (*models.RoomPlayer, error)
	Vacate(ctx context.Context, roomID, userID uint) error
	VacateAll(ctx context.Context, roomID uint) error
	SetStatus(ctx context.Context, roomID uint, status string) error
	SetGameState(ctx context.Context, roomID uint, state string) error
	SetPot(ctx context.Context, roomID uint, pot int64) error
	UpdateReady(ctx context.Context, roomID, userID uint, ready bool) error
	UpdateConnection(ctx context.Context, roomID, userID uint, connected bool) error
	GetSeats(ctx context.Context, roomID uint) ([]*models.RoomPlayer, error)
	GetSeat(ctx context.Context, roomID, userID uint) (*models.RoomPlayer, error)
	FindSeatByUser(ctx context.Context, userID uint) (*models.RoomPlayer, error)
}

// roomRepo 房间仓储实现
type roomRepo struct {
	*BaseRepo
}

// NewRoomRepository 创建房间仓储
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建房间
func (r *roomRepo) Create(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

// FindByID 根据ID查找房间
func (r *roomRepo) FindByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.ErrNotFound, "房间不存在")
		}
		return nil, err
	}
	return &room, nil
}

// FindOpenRoom 查找同玩法同档位的可加入房间，找不到返回nil
func (r *roomRepo) FindOpenRoom(ctx context.Context, gameType string, stake int64) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).
		Where("game_type = ? AND stake = ? AND status = ? AND current_players < max_players",
			gameType, stake, models.RoomStatusWaiting).
		Order("id").
		First(&room).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

// ListAvailable 列出等待中和进行中的房间，供大厅展示
func (r *roomRepo) ListAvailable(ctx context.Context) ([]*models.Room, error) {
	var rooms []*models.Room
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{models.RoomStatusWaiting, models.RoomStatusPlaying}).
		Order("id").
		Find(&rooms).Error
	return rooms, err
}

// Seat 占座。容量和状态在同一事务内复核，座位号取当前最大座位号加一。
func (r *roomRepo) Seat(ctx context.Context, room *models.Room, userID uint, bet int64) (*models.RoomPlayer, error) {
	var seat *models.RoomPlayer
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fresh models.Room
		if err := tx.First(&fresh, room.ID).Error; err != nil {
			return err
		}
		if !fresh.IsJoinable() {
			if fresh.CurrentPlayers >= fresh.MaxPlayers {
				return apperrors.New(apperrors.ErrRoomFull)
			}
			return apperrors.New(apperrors.ErrRoomNotJoinable)
		}

		var maxPos int
		tx.Model(&models.RoomPlayer{}).
			Where("room_id = ?", fresh.ID).
			Select("COALESCE(MAX(position), -1)").
			Scan(&maxPos)

		seat = &models.RoomPlayer{
			RoomID:      fresh.ID,
			UserID:      userID,
			Position:    maxPos + 1,
			IsConnected: true,
			Bet:         bet,
			JoinedAt:    time.Now(),
		}
		if err := tx.Create(seat).Error; err != nil {
			return err
		}

		return tx.Model(&models.Room{}).
			Where("id = ?", fresh.ID).
			Updates(map[string]interface{}{
				"current_players": gorm.Expr("current_players + 1"),
				"pot":             gorm.Expr("pot + ?", bet),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return seat, nil
}

// Vacate 离座并扣减房间人数，押注的归属由调用方结算
func (r *roomRepo) Vacate(ctx context.Context, roomID, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("room_id = ? AND user_id = ?", roomID, userID).
			Delete(&models.RoomPlayer{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.New(apperrors.ErrNotInRoom)
		}
		return tx.Model(&models.Room{}).
			Where("id = ? AND current_players > 0", roomID).
			Update("current_players", gorm.Expr("current_players - 1")).Error
	})
}

// VacateAll 清空房间所有座位
func (r *roomRepo) VacateAll(ctx context.Context, roomID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&models.RoomPlayer{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Room{}).
			Where("id = ?", roomID).
			Update("current_players", 0).Error
	})
}

// SetStatus 更新房间状态
func (r *roomRepo) SetStatus(ctx context.Context, roomID uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Room{}).
		Where("id = ?", roomID).
		Update("status", status).Error
}

// SetGameState 写入对局状态快照
func (r *roomRepo) SetGameState(ctx context.Context, roomID uint, state string) error {
	return r.db.WithContext(ctx).
		Model(&models.Room{}).
		Where("id = ?", roomID).
		Update("game_state", state).Error
}

// SetPot 设置奖池金额
func (r *roomRepo) SetPot(ctx context.Context, roomID uint, pot int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Room{}).
		Where("id = ?", roomID).
		Update("pot", pot).Error
}

// UpdateReady 更新座位准备状态
func (r *roomRepo) UpdateReady(ctx context.Context, roomID, userID uint, ready bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.RoomPlayer{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("is_ready", ready)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrNotInRoom)
	}
	return nil
}

// UpdateConnection 更新座位连接状态
func (r *roomRepo) UpdateConnection(ctx context.Context, roomID, userID uint, connected bool) error {
	return r.db.WithContext(ctx).
		Model(&models.RoomPlayer{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("is_connected", connected).Error
}

// GetSeats 按座位号顺序取房间所有座位
func (r *roomRepo) GetSeats(ctx context.Context, roomID uint) ([]*models.RoomPlayer, error) {
	var seats []*models.RoomPlayer
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("position").
		Find(&seats).Error
	return seats, err
}

// GetSeat 取某玩家在某房间的座位
func (r *roomRepo) GetSeat(ctx context.Context, roomID, userID uint) (*models.RoomPlayer, error) {
	var seat models.RoomPlayer
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&seat).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.ErrNotInRoom)
		}
		return nil, err
	}
	return &seat, nil
}

// FindSeatByUser 查找玩家当前占用的座位，不在任何房间时返回nil
func (r *roomRepo) FindSeatByUser(ctx context.Context, userID uint) (*models.RoomPlayer, error) {
	var seat models.RoomPlayer
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&seat).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &seat, nil
}

// WithTx 使用事务
func (r *roomRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &roomRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
