package game

import (
	"context"
	"time"

	"github.com/wfunc/table-game/internal/game/rules"
	"github.com/wfunc/table-game/internal/logger"
	"github.com/wfunc/table-game/internal/models"
	"go.uber.org/zap"
)

// startGame 开局：初始化对局状态，启动回合时钟。
// 开局时房间若已坐满，预先创建一个同玩法同档位的新空房供后来者匹配。
func (c *Coordinator) startGame(ctx context.Context, sess *session) error {
	sess.mu.Lock()
	// 两个触发点同时判定可以开局时，后到的不能重置已经开着的对局
	if sess.room.Status != models.RoomStatusWaiting {
		sess.mu.Unlock()
		return nil
	}
	order := sess.seatOrder()
	switch sess.room.GameType {
	case models.GameTypeNjuga:
		sess.state = rules.InitNjuga(order)
	case models.GameTypeShansha:
		sess.state = rules.InitShansha(order)
	case models.GameTypeChinshingwa:
		sess.state = rules.InitChinshingwa(order)
	}
	sess.room.Status = models.RoomStatusPlaying
	sess.turnDeadline = time.Now().Add(c.cfg.TurnTimeout)
	sess.stopTick = make(chan struct{})
	wasFull := sess.room.CurrentPlayers >= sess.room.MaxPlayers
	sess.mu.Unlock()

	if err := c.rooms.SetStatus(ctx, sess.room.ID, models.RoomStatusPlaying); err != nil {
		return err
	}
	c.persistStateUnlocked(ctx, sess)

	if wasFull {
		next := &models.Room{
			Name:       roomDisplayName(sess.room.GameType),
			GameType:   sess.room.GameType,
			Stake:      sess.room.Stake,
			MaxPlayers: sess.room.MaxPlayers,
			Status:     models.RoomStatusWaiting,
		}
		if err := c.rooms.Create(ctx, next); err != nil {
			logger.Error("预建空房失败", zap.Error(err))
		}
	}

	logger.LogRoomEvent("start", sess.room.ID, map[string]interface{}{
		"game_type": sess.room.GameType,
		"players":   order,
		"pot":       sess.room.Pot,
	})

	go c.tickLoop(sess)
	c.broadcastRoom(sess)
	return nil
}

// persistStateUnlocked persistState的对外版本，自己拿锁
func (c *Coordinator) persistStateUnlocked(ctx context.Context, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	c.persistState(ctx, sess)
}

// resetTurnClock 重置回合截止时间，调用方持有sess.mu
func (c *Coordinator) resetTurnClock(sess *session) {
	sess.turnDeadline = time.Now().Add(c.cfg.TurnTimeout)
}

// tickLoop 房间的回合时钟。每秒广播剩余时间，
// 超时视为当前玩家跳过回合。对局结束后由cancelAllTimers收掉。
func (c *Coordinator) tickLoop(sess *session) {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	sess.mu.Lock()
	stop := sess.stopTick
	sess.mu.Unlock()
	if stop == nil {
		return
	}

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			sess.mu.Lock()
			if sess.state == nil || sess.state.HasWon() {
				sess.mu.Unlock()
				return
			}
			if time.Now().After(sess.turnDeadline) {
				// 超时强制跳过
				timedOut := sess.state.CurrentTurn()
				c.advanceTurn(sess)
				c.persistState(context.Background(), sess)
				logger.LogRoomEvent("turn_timeout", sess.room.ID, map[string]interface{}{
					"user_id": timedOut,
				})
				c.broadcastRoomLocked(sess)
				sess.mu.Unlock()
				continue
			}
			current := sess.state.CurrentTurn()
			remaining := sess.turnRemaining()
			seats := sess.seatOrder()
			sess.mu.Unlock()

			if c.broadcaster != nil {
				for _, uid := range seats {
					c.broadcaster.SendToUser(uid, "turnTimer", map[string]interface{}{
						"room_id":      sess.room.ID,
						"current_turn": current,
						"remaining":    remaining,
					})
				}
			}
		}
	}
}

// settle 结算：胜者拿走奖池扣除抽水后的部分，写历史，房间进入终局。
// 调用方持有sess.mu。持久化失败时房间挂在settling状态重试，
// 钱和历史各自只落一次。
func (c *Coordinator) settle(ctx context.Context, sess *session, winnerID uint) {
	winnings, houseCut := splitPot(sess.room.Pot, c.cfg.HouseCutBps)
	sess.cancelAllTimers()
	sess.room.Status = models.RoomStatusSettling

	players := make(models.JSONArray, 0, len(sess.seats))
	for _, st := range sess.seats {
		players = append(players, map[string]interface{}{
			"user_id":      float64(st.UserID),
			"display_name": st.DisplayName,
			"position":     float64(st.Position),
			"bet":          float64(st.Bet),
		})
	}
	finalState := ""
	if sess.state != nil {
		finalState, _ = sess.state.Marshal()
	}
	record := &models.GameHistory{
		RoomID:   sess.room.ID,
		WinnerID: winnerID,
		GameType: sess.room.GameType,
		Stake:    sess.room.Stake,
		Pot:      sess.room.Pot,
		Winnings: winnings,
		HouseCut: houseCut,
		Players:  players,
		GameData: finalState,
	}

	credited := false
	recorded := false
	persist := func(ctx context.Context) error {
		if !credited {
			if err := c.users.Credit(ctx, winnerID, winnings); err != nil {
				return err
			}
			credited = true
		}
		if !recorded {
			if err := c.history.Create(ctx, record); err != nil {
				return err
			}
			recorded = true
		}
		if err := c.rooms.SetGameState(ctx, sess.room.ID, finalState); err != nil {
			return err
		}
		return c.rooms.SetStatus(ctx, sess.room.ID, models.RoomStatusFinished)
	}

	if err := persist(ctx); err != nil {
		logger.Error("结算持久化失败，房间挂起重试",
			zap.Uint("room_id", sess.room.ID), zap.Error(err))
		if setErr := c.rooms.SetStatus(ctx, sess.room.ID, models.RoomStatusSettling); setErr != nil {
			logger.Error("settling状态写入失败", zap.Uint("room_id", sess.room.ID), zap.Error(setErr))
		}
		go c.retrySettlement(sess, persist)
	} else {
		sess.room.Status = models.RoomStatusFinished
	}

	logger.LogSettlement(sess.room.ID, winnerID, sess.room.Pot, winnings, houseCut)
	c.broadcastRoomLocked(sess)

	// 终局后延迟清场
	sess.vacateTimer = time.AfterFunc(c.cfg.FinishDelay, func() {
		c.vacateFinishedRoom(sess)
	})
}

// retrySettlement 结算重试，指数退避，成功后补写finished状态
func (c *Coordinator) retrySettlement(sess *session, persist func(context.Context) error) {
	backoff := time.Second
	for attempt := 0; attempt < 5; attempt++ {
		time.Sleep(backoff)
		backoff *= 2
		if err := persist(context.Background()); err != nil {
			logger.Error("结算重试失败",
				zap.Uint("room_id", sess.room.ID),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}
		sess.mu.Lock()
		sess.room.Status = models.RoomStatusFinished
		sess.mu.Unlock()
		c.broadcastRoom(sess)
		return
	}
	// 放弃自动重试，房间留在settling状态等人工处理
	logger.Error("结算多次重试仍失败", zap.Uint("room_id", sess.room.ID))
}

// vacateFinishedRoom 终局延迟后的清场：清空座位、释放会话
func (c *Coordinator) vacateFinishedRoom(sess *session) {
	ctx := context.Background()

	sess.mu.Lock()
	userIDs := sess.seatOrder()
	sess.seats = nil
	sess.room.CurrentPlayers = 0
	sess.cancelAllTimers()
	sess.mu.Unlock()

	if err := c.rooms.VacateAll(ctx, sess.room.ID); err != nil {
		logger.Error("终局清场失败", zap.Uint("room_id", sess.room.ID), zap.Error(err))
	}

	c.mu.Lock()
	for _, uid := range userIDs {
		if c.userRoom[uid] == sess.room.ID {
			delete(c.userRoom, uid)
		}
	}
	delete(c.sessions, sess.room.ID)
	c.mu.Unlock()

	if c.broadcaster != nil {
		for _, uid := range userIDs {
			c.broadcaster.SendToUser(uid, "roomLeft", map[string]interface{}{
				"room_id": sess.room.ID,
			})
		}
	}
	logger.LogRoomEvent("vacate", sess.room.ID, nil)
}

// Disconnect 连接断开：标记离线并启动宽限计时，
// 宽限期内未重连按离开房间处理。
func (c *Coordinator) Disconnect(ctx context.Context, userID uint) {
	sess, err := c.sessionOf(userID)
	if err != nil {
		return
	}

	sess.mu.Lock()
	st := sess.findSeat(userID)
	if st == nil {
		sess.mu.Unlock()
		return
	}
	st.IsConnected = false
	sess.cancelGrace(userID)
	sess.graceTimers[userID] = time.AfterFunc(c.cfg.GracePeriod, func() {
		c.graceExpired(userID, sess)
	})
	sess.mu.Unlock()

	if err := c.rooms.UpdateConnection(ctx, sess.room.ID, userID, false); err != nil {
		logger.Error("连接状态更新失败", zap.Uint("user_id", userID), zap.Error(err))
	}
	logger.LogRoomEvent("disconnect", sess.room.ID, map[string]interface{}{"user_id": userID})
	c.broadcastRoom(sess)
}

// graceExpired 宽限期到：确认玩家仍然离线后按离开处理。
// IsConnected是权威标记，检查和离场在同一临界区内完成，
// 避免检查后、离场前的重连被照样没收。
func (c *Coordinator) graceExpired(userID uint, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	st := sess.findSeat(userID)
	if st == nil || st.IsConnected {
		return
	}
	delete(sess.graceTimers, userID)

	logger.LogRoomEvent("grace_expired", sess.room.ID, map[string]interface{}{"user_id": userID})
	if err := c.leaveLocked(context.Background(), sess, st); err != nil {
		logger.Error("宽限期离场失败", zap.Uint("user_id", userID), zap.Error(err))
	}
}

// Reconnect 玩家重连：恢复在线标记，取消宽限计时，补发快照
func (c *Coordinator) Reconnect(ctx context.Context, userID uint) {
	sess, err := c.sessionOf(userID)
	if err != nil {
		return
	}

	sess.mu.Lock()
	st := sess.findSeat(userID)
	if st == nil {
		sess.mu.Unlock()
		return
	}
	st.IsConnected = true
	sess.cancelGrace(userID)
	sess.mu.Unlock()

	if err := c.rooms.UpdateConnection(ctx, sess.room.ID, userID, true); err != nil {
		logger.Error("连接状态更新失败", zap.Uint("user_id", userID), zap.Error(err))
	}
	logger.LogRoomEvent("reconnect", sess.room.ID, map[string]interface{}{"user_id": userID})
	c.broadcastRoom(sess)
}

// RoomIDOf 查询玩家当前所在房间，不在房间返回0
func (c *Coordinator) RoomIDOf(userID uint) uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userRoom[userID]
}
