package game

import (
	"context"
	"fmt"
	"sync"

	"github.com/wfunc/table-game/internal/config"
	apperrors "github.com/wfunc/table-game/internal/errors"
	"github.com/wfunc/table-game/internal/game/rules"
	"github.com/wfunc/table-game/internal/logger"
	"github.com/wfunc/table-game/internal/models"
	"github.com/wfunc/table-game/internal/repository"
	"go.uber.org/zap"
)

// Coordinator 会话协调器，持有所有活动房间的权威内存状态。
// 在main中构造一次并注入各层，跨房间的map用读写锁保护，
// 单个房间内的状态由session自己的互斥锁保护。
type Coordinator struct {
	cfg     *config.GameConfig
	users   repository.UserRepository
	rooms   repository.RoomRepository
	history repository.HistoryRepository

	broadcaster Broadcaster

	mu       sync.RWMutex
	sessions map[uint]*session // roomID -> session
	userRoom map[uint]uint     // userID -> roomID
}

// NewCoordinator 创建会话协调器
func NewCoordinator(cfg *config.GameConfig, users repository.UserRepository, rooms repository.RoomRepository, history repository.HistoryRepository) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		users:    users,
		rooms:    rooms,
		history:  history,
		sessions: make(map[uint]*session),
		userRoom: make(map[uint]uint),
	}
}

// SetBroadcaster 注入消息出口。网关和协调器互相引用，
// 构造顺序上网关后建，因此用setter补上。
func (c *Coordinator) SetBroadcaster(b Broadcaster) {
	c.broadcaster = b
}

// sessionOf 取玩家当前所在房间的会话
func (c *Coordinator) sessionOf(userID uint) (*session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	roomID, ok := c.userRoom[userID]
	if !ok {
		return nil, apperrors.New(apperrors.ErrNotInRoom)
	}
	sess, ok := c.sessions[roomID]
	if !ok {
		return nil, apperrors.New(apperrors.ErrNotInRoom)
	}
	return sess, nil
}

// roomDisplayName 房间展示名
func roomDisplayName(gameType string) string {
	switch gameType {
	case models.GameTypeNjuga:
		return "Njuga Room"
	case models.GameTypeShansha:
		return "Shansha Room"
	case models.GameTypeChinshingwa:
		return "Chinshingwa Room"
	}
	return "Game Room"
}

// JoinRoom 加入或匹配房间：扣押注、占座，满足开局条件时开局。
// 返回加入的房间ID。
func (c *Coordinator) JoinRoom(ctx context.Context, userID uint, gameType string, stake int64) (uint, error) {
	if !models.ValidGameType(gameType) {
		return 0, apperrors.New(apperrors.ErrInvalidParam, fmt.Sprintf("未知玩法: %s", gameType))
	}
	if stake < c.cfg.MinStake || (c.cfg.MaxStake > 0 && stake > c.cfg.MaxStake) {
		return 0, apperrors.New(apperrors.ErrInvalidBet)
	}

	// 检查和占位必须在同一次持锁内完成，否则同一用户的两个并发
	// 加入请求都能通过检查，造成重复扣款。占位用房间ID 0表示。
	c.mu.Lock()
	if _, ok := c.userRoom[userID]; ok {
		c.mu.Unlock()
		return 0, apperrors.New(apperrors.ErrAlreadyInRoom)
	}
	c.userRoom[userID] = 0
	c.mu.Unlock()

	release := func() {
		c.mu.Lock()
		delete(c.userRoom, userID)
		c.mu.Unlock()
	}

	user, err := c.users.FindByID(ctx, userID)
	if err != nil {
		release()
		return 0, err
	}

	// 先扣款再占座，占座失败原路退回
	if err := c.users.Debit(ctx, userID, stake); err != nil {
		release()
		return 0, err
	}

	room, err := c.rooms.FindOpenRoom(ctx, gameType, stake)
	if err == nil && room == nil {
		room = &models.Room{
			Name:       roomDisplayName(gameType),
			GameType:   gameType,
			Stake:      stake,
			MaxPlayers: models.MaxSeats(gameType),
			Status:     models.RoomStatusWaiting,
		}
		err = c.rooms.Create(ctx, room)
	}
	if err != nil {
		c.refund(ctx, userID, stake)
		release()
		return 0, err
	}

	seatRow, err := c.rooms.Seat(ctx, room, userID, stake)
	if err != nil {
		c.refund(ctx, userID, stake)
		release()
		return 0, err
	}

	c.mu.Lock()
	sess, ok := c.sessions[room.ID]
	if !ok {
		sess = newSession(room)
		c.sessions[room.ID] = sess
	}
	c.userRoom[userID] = room.ID
	c.mu.Unlock()

	sess.mu.Lock()
	sess.room.CurrentPlayers++
	sess.room.Pot += stake
	sess.seats = append(sess.seats, &seat{
		UserID:      userID,
		DisplayName: displayNameOf(user),
		Position:    seatRow.Position,
		IsConnected: true,
		Bet:         stake,
	})
	sess.mu.Unlock()

	logger.LogRoomEvent("join", room.ID, map[string]interface{}{
		"user_id": userID,
		"stake":   stake,
	})
	c.broadcastRoom(sess)
	return room.ID, nil
}

// refund 扣款后的补偿退款，失败只能记日志
func (c *Coordinator) refund(ctx context.Context, userID uint, amount int64) {
	if err := c.users.Credit(ctx, userID, amount); err != nil {
		logger.Error("退款失败", zap.Uint("user_id", userID), zap.Int64("amount", amount), zap.Error(err))
	}
}

// ToggleReady 切换准备状态，全员准备且人数达标即开局
func (c *Coordinator) ToggleReady(ctx context.Context, userID uint) error {
	sess, err := c.sessionOf(userID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	if sess.room.Status != models.RoomStatusWaiting {
		sess.mu.Unlock()
		return apperrors.New(apperrors.ErrGameAlreadyStarted)
	}
	st := sess.findSeat(userID)
	if st == nil {
		sess.mu.Unlock()
		return apperrors.New(apperrors.ErrNotInRoom)
	}
	st.IsReady = !st.IsReady
	ready := st.IsReady
	shouldStart := sess.allReady() && sess.startQuorum()
	sess.mu.Unlock()

	if err := c.rooms.UpdateReady(ctx, sess.room.ID, userID, ready); err != nil {
		return err
	}

	if shouldStart {
		return c.startGame(ctx, sess)
	}
	c.broadcastRoom(sess)
	return nil
}

// LeaveRoom 离开房间。开局前退还押注，开局后按弃赛处理。
func (c *Coordinator) LeaveRoom(ctx context.Context, userID uint) error {
	sess, err := c.sessionOf(userID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	st := sess.findSeat(userID)
	if st == nil {
		return apperrors.New(apperrors.ErrNotInRoom)
	}
	return c.leaveLocked(ctx, sess, st)
}

// leaveLocked 按房间状态分发离开逻辑，调用方持有sess.mu
func (c *Coordinator) leaveLocked(ctx context.Context, sess *session, st *seat) error {
	switch sess.room.Status {
	case models.RoomStatusWaiting:
		return c.leaveWaiting(ctx, sess, st)
	case models.RoomStatusPlaying:
		return c.forfeit(ctx, sess, st)
	default:
		// 结算中或已结束，只清座位
		return c.detachSeat(ctx, sess, st)
	}
}

// leaveWaiting 开局前离开：退押注、减奖池
func (c *Coordinator) leaveWaiting(ctx context.Context, sess *session, st *seat) error {
	if err := c.rooms.Vacate(ctx, sess.room.ID, st.UserID); err != nil {
		return err
	}
	c.refund(ctx, st.UserID, st.Bet)

	sess.room.Pot -= st.Bet
	sess.room.CurrentPlayers--
	if err := c.rooms.SetPot(ctx, sess.room.ID, sess.room.Pot); err != nil {
		logger.Error("奖池更新失败", zap.Uint("room_id", sess.room.ID), zap.Error(err))
	}

	c.dropUser(sess, st.UserID)
	logger.LogRoomEvent("leave", sess.room.ID, map[string]interface{}{
		"user_id": st.UserID,
	})
	c.broadcastRoomLocked(sess)
	return nil
}

// detachSeat 终局后的离座，钱已经结算完
func (c *Coordinator) detachSeat(ctx context.Context, sess *session, st *seat) error {
	if err := c.rooms.Vacate(ctx, sess.room.ID, st.UserID); err != nil {
		return err
	}
	sess.room.CurrentPlayers--
	c.dropUser(sess, st.UserID)
	c.broadcastRoomLocked(sess)
	return nil
}

// dropUser 从会话和路由表移除玩家，调用方持有sess.mu
func (c *Coordinator) dropUser(sess *session, userID uint) {
	sess.cancelGrace(userID)
	sess.removeSeat(userID)
	c.mu.Lock()
	delete(c.userRoom, userID)
	c.mu.Unlock()
}

// forfeit 对局中弃赛：弃赛者的押注按比例拆给平台和对手，
// 只剩一名玩家时由其直接获胜并结算剩余奖池。
func (c *Coordinator) forfeit(ctx context.Context, sess *session, st *seat) error {
	opponents := make([]*seat, 0, len(sess.seats)-1)
	for _, other := range sess.seats {
		if other.UserID != st.UserID {
			opponents = append(opponents, other)
		}
	}

	refund, house, perOpp := splitForfeit(st.Bet, c.cfg.ForfeitHouseBps, c.cfg.ForfeitOpponentBps, len(opponents))
	if refund > 0 {
		c.refund(ctx, st.UserID, refund)
	}
	for _, opp := range opponents {
		if perOpp > 0 {
			c.refund(ctx, opp.UserID, perOpp)
		}
	}

	sess.room.Pot -= st.Bet
	sess.room.CurrentPlayers--
	if err := c.rooms.Vacate(ctx, sess.room.ID, st.UserID); err != nil {
		logger.Error("弃赛离座失败", zap.Uint("room_id", sess.room.ID), zap.Error(err))
	}
	if err := c.rooms.SetPot(ctx, sess.room.ID, sess.room.Pot); err != nil {
		logger.Error("奖池更新失败", zap.Uint("room_id", sess.room.ID), zap.Error(err))
	}

	wasTheirTurn := sess.state != nil && sess.state.CurrentTurn() == st.UserID
	c.dropUser(sess, st.UserID)

	logger.LogRoomEvent("forfeit", sess.room.ID, map[string]interface{}{
		"user_id": st.UserID,
		"refund":  refund,
		"house":   house,
		"per_opp": perOpp,
	})

	// 人数不足则剩下的玩家直接获胜
	if len(sess.seats) == 1 {
		winner := sess.seats[0]
		c.settle(ctx, sess, winner.UserID)
		return nil
	}

	if wasTheirTurn {
		c.advanceTurn(sess)
	}
	c.persistState(ctx, sess)
	c.broadcastRoomLocked(sess)
	return nil
}

// HandleAction 处理游戏动作：校验座位和状态，调用规则引擎，
// 写穿持久层，广播，有胜者则结算。
func (c *Coordinator) HandleAction(ctx context.Context, userID uint, action string, data *ActionData) error {
	sess, err := c.sessionOf(userID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.room.Status != models.RoomStatusPlaying || sess.state == nil {
		return apperrors.New(apperrors.ErrGameNotStarted)
	}
	if sess.findSeat(userID) == nil {
		return apperrors.New(apperrors.ErrNotInRoom)
	}

	applied, advance, err := c.applyAction(sess, userID, action, data)
	if err != nil {
		return err
	}
	if !applied {
		if sess.state.CurrentTurn() != userID {
			return apperrors.New(apperrors.ErrNotYourTurn)
		}
		return apperrors.New(apperrors.ErrIllegalAction)
	}

	if sess.state.HasWon() {
		c.settle(ctx, sess, sess.state.Winner())
		return nil
	}

	// 回合时钟只在回合移交时重置，摸牌等中间动作不给当前玩家续时
	if advance {
		c.advanceTurn(sess)
	}
	c.persistState(ctx, sess)
	c.broadcastRoomLocked(sess)
	return nil
}

// applyAction 分发到规则引擎。返回是否生效、是否移交回合。
func (c *Coordinator) applyAction(sess *session, userID uint, action string, data *ActionData) (applied, advance bool, err error) {
	if data == nil {
		data = &ActionData{}
	}
	switch sess.state.GameType {
	case models.GameTypeNjuga:
		g := sess.state.Njuga
		switch action {
		case ActionDraw:
			return g.DrawCard(userID, data.FromDiscard), false, nil
		case ActionDiscard:
			return g.DiscardCard(userID, data.CardID), true, nil
		case ActionDeclareWin:
			return g.DeclareWin(userID), false, nil
		case ActionPass:
			return g.CurrentTurn == userID, true, nil
		}
	case models.GameTypeShansha:
		g := sess.state.Shansha
		switch action {
		case ActionPlace:
			return g.PlaceStake(userID, data.X, data.Y, data.Amount), false, nil
		case ActionGuess:
			target := c.shanshaOpponent(sess, userID)
			if target == 0 {
				return false, false, apperrors.New(apperrors.ErrGameStateError)
			}
			return g.Guess(userID, target, data.X, data.Y), true, nil
		case ActionPass:
			return g.CurrentTurn == userID, true, nil
		}
	case models.GameTypeChinshingwa:
		g := sess.state.Chinshingwa
		switch action {
		case ActionMove:
			return g.ApplyMove(userID, data.FromX, data.FromY, data.ToX, data.ToY), true, nil
		case ActionPass:
			return g.CurrentTurn == userID, true, nil
		}
	}
	return false, false, apperrors.New(apperrors.ErrIllegalAction, fmt.Sprintf("未知动作: %s", action))
}

// shanshaOpponent 藏金猜格是双人局，对手就是另一个座位
func (c *Coordinator) shanshaOpponent(sess *session, userID uint) uint {
	for _, st := range sess.seats {
		if st.UserID != userID {
			return st.UserID
		}
	}
	return 0
}

// advanceTurn 移交回合：只在在线玩家间轮转，重置回合时钟
func (c *Coordinator) advanceTurn(sess *session) {
	if sess.state == nil || sess.state.HasWon() {
		return
	}
	order := sess.connectedOrder()
	if len(order) == 0 {
		// 全员掉线，回合停摆，等重连或宽限期收割
		return
	}
	next := rules.NextTurn(sess.state.CurrentTurn(), order)
	sess.state.SetTurn(next)
	c.resetTurnClock(sess)
}

// persistState 写穿对局状态到房间记录
func (c *Coordinator) persistState(ctx context.Context, sess *session) {
	if sess.state == nil {
		return
	}
	data, err := sess.state.Marshal()
	if err != nil {
		logger.Error("对局状态序列化失败", zap.Uint("room_id", sess.room.ID), zap.Error(err))
		return
	}
	if err := c.rooms.SetGameState(ctx, sess.room.ID, data); err != nil {
		logger.Error("对局状态持久化失败", zap.Uint("room_id", sess.room.ID), zap.Error(err))
	}
}
