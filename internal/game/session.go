package game

import (
	"sync"
	"time"

	"github.com/wfunc/table-game/internal/game/rules"
	"github.com/wfunc/table-game/internal/models"
)

// seat 座位的内存镜像
type seat struct {
	UserID      uint
	DisplayName string
	Position    int
	IsReady     bool
	IsConnected bool
	Bet         int64
}

// session 单个房间的权威运行时状态。
// 所有读写都要持有mu，持久层是写穿的副本。
type session struct {
	mu sync.Mutex

	room  *models.Room
	seats []*seat
	state *rules.State

	turnDeadline time.Time
	stopTick     chan struct{}

	// 断线宽限计时器，authoritative标记在seats的IsConnected上
	graceTimers map[uint]*time.Timer

	// 终局后延迟清场的计时器
	vacateTimer *time.Timer
}

func newSession(room *models.Room) *session {
	return &session{
		room:        room,
		graceTimers: make(map[uint]*time.Timer),
	}
}

// findSeat 按玩家ID找座位
func (s *session) findSeat(userID uint) *seat {
	for _, st := range s.seats {
		if st.UserID == userID {
			return st
		}
	}
	return nil
}

// removeSeat 移除座位
func (s *session) removeSeat(userID uint) {
	for i, st := range s.seats {
		if st.UserID == userID {
			s.seats = append(s.seats[:i], s.seats[i+1:]...)
			return
		}
	}
}

// seatOrder 按座位顺序的玩家ID列表
func (s *session) seatOrder() []uint {
	order := make([]uint, 0, len(s.seats))
	for _, st := range s.seats {
		order = append(order, st.UserID)
	}
	return order
}

// connectedOrder 按座位顺序、仅在线的玩家ID列表
func (s *session) connectedOrder() []uint {
	order := make([]uint, 0, len(s.seats))
	for _, st := range s.seats {
		if st.IsConnected {
			order = append(order, st.UserID)
		}
	}
	return order
}

// allReady 所有落座玩家都已准备
func (s *session) allReady() bool {
	for _, st := range s.seats {
		if !st.IsReady {
			return false
		}
	}
	return len(s.seats) > 0
}

// startQuorum 开局人数条件：甩牌至少2人，其余玩法恰好2人
func (s *session) startQuorum() bool {
	n := len(s.seats)
	if s.room.GameType == models.GameTypeNjuga {
		return n >= 2
	}
	return n == 2
}

// cancelGrace 取消某玩家的断线宽限计时器
func (s *session) cancelGrace(userID uint) {
	if t, ok := s.graceTimers[userID]; ok {
		t.Stop()
		delete(s.graceTimers, userID)
	}
}

// cancelAllTimers 终局或清场时停掉一切计时器
func (s *session) cancelAllTimers() {
	for id, t := range s.graceTimers {
		t.Stop()
		delete(s.graceTimers, id)
	}
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
}

// turnRemaining 当前回合剩余秒数
func (s *session) turnRemaining() int {
	if s.state == nil || s.state.HasWon() {
		return 0
	}
	remaining := time.Until(s.turnDeadline)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Round(time.Second) / time.Second)
}
