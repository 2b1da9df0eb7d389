package game

import (
	"github.com/wfunc/table-game/internal/models"
)

// buildSnapshot 构建某个观看者视角的房间快照。
// 私密信息（甩牌手牌、藏金网格）只下发给本人，
// 跳棋棋盘是公开信息，全量下发。调用方持有sess.mu。
func (c *Coordinator) buildSnapshot(sess *session, viewerID uint) *Snapshot {
	snap := &Snapshot{
		RoomID:        sess.room.ID,
		Name:          sess.room.Name,
		GameType:      sess.room.GameType,
		Stake:         sess.room.Stake,
		Status:        sess.room.Status,
		MaxPlayers:    sess.room.MaxPlayers,
		Pot:           sess.room.Pot,
		TurnRemaining: sess.turnRemaining(),
	}

	for _, st := range sess.seats {
		view := &SeatView{
			UserID:      st.UserID,
			DisplayName: st.DisplayName,
			Position:    st.Position,
			IsReady:     st.IsReady,
			IsConnected: st.IsConnected,
			Bet:         st.Bet,
		}
		if sess.state != nil && sess.state.GameType == models.GameTypeNjuga {
			view.HandSize = len(sess.state.Njuga.PlayerHands[st.UserID])
		}
		snap.Players = append(snap.Players, view)
	}

	if sess.state != nil {
		snap.Game = c.buildGameView(sess, viewerID)
	}
	return snap
}

// buildGameView 对局状态的脱敏视图
func (c *Coordinator) buildGameView(sess *session, viewerID uint) *GameView {
	state := sess.state
	view := &GameView{
		GameType:    state.GameType,
		CurrentTurn: state.CurrentTurn(),
		HasWinner:   state.HasWon(),
		WinnerID:    state.Winner(),
	}

	switch state.GameType {
	case models.GameTypeNjuga:
		g := state.Njuga
		view.Hand = g.PlayerHands[viewerID]
		view.DeckCount = len(g.Deck)
		view.DiscardCount = len(g.DiscardPile)
		if n := len(g.DiscardPile); n > 0 {
			top := g.DiscardPile[n-1]
			view.DiscardTop = &top
		}
	case models.GameTypeShansha:
		g := state.Shansha
		view.Grid = g.PlayerGrids[viewerID]
		view.Placements = g.Placements[viewerID]
		view.Guesses = g.Guesses
	case models.GameTypeChinshingwa:
		g := state.Chinshingwa
		view.Board = g.Board
		view.Kings = g.Kings
	}
	return view
}

// broadcastRoom 给房间内每个玩家发各自视角的快照
func (c *Coordinator) broadcastRoom(sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	c.broadcastRoomLocked(sess)
}

// broadcastRoomLocked broadcastRoom的持锁版本
func (c *Coordinator) broadcastRoomLocked(sess *session) {
	if c.broadcaster == nil {
		return
	}
	for _, st := range sess.seats {
		c.broadcaster.SendToUser(st.UserID, "roomUpdate", c.buildSnapshot(sess, st.UserID))
	}
}

// SnapshotFor 给指定玩家构建其当前房间的快照，供重连补发
func (c *Coordinator) SnapshotFor(userID uint) *Snapshot {
	sess, err := c.sessionOf(userID)
	if err != nil {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return c.buildSnapshot(sess, userID)
}
