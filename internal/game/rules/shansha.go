package rules

import (
	"math/rand"

	"github.com/wfunc/table-game/internal/models"
)

const (
	shanshaRows     = 4
	shanshaCols     = 6
	maxPlacements   = 5
	winningHitCount = 5
)

// InitShansha 初始化藏金猜格对局：每人一块4x6空网格，随机起手
func InitShansha(playerIDs []uint) *State {
	grids := make(map[uint][][]*int64, len(playerIDs))
	placements := make(map[uint][]Placement, len(playerIDs))
	guesses := make(map[uint][]GuessRecord, len(playerIDs))
	for _, id := range playerIDs {
		grid := make([][]*int64, shanshaRows)
		for x := range grid {
			grid[x] = make([]*int64, shanshaCols)
		}
		grids[id] = grid
		placements[id] = []Placement{}
		guesses[id] = []GuessRecord{}
	}

	return &State{
		GameType: models.GameTypeShansha,
		Shansha: &ShanshaState{
			PlayerGrids: grids,
			Placements:  placements,
			Guesses:     guesses,
			CurrentTurn: playerIDs[rand.Intn(len(playerIDs))],
		},
	}
}

// PlaceStake 在自己的网格藏一笔金额。已藏满5处、坐标越界或格子已占用时
// 静默忽略。藏金阶段不受回合限制，双方同时布局。
func (g *ShanshaState) PlaceStake(playerID uint, x, y int, amount int64) bool {
	if g.HasWinner {
		return false
	}
	grid, ok := g.PlayerGrids[playerID]
	if !ok {
		return false
	}
	if x < 0 || x >= shanshaRows || y < 0 || y >= shanshaCols {
		return false
	}
	if len(g.Placements[playerID]) >= maxPlacements {
		return false
	}
	if grid[x][y] != nil {
		return false
	}
	a := amount
	grid[x][y] = &a
	g.Placements[playerID] = append(g.Placements[playerID], Placement{X: x, Y: y, Amount: amount})
	return true
}

// Guess 猜对手网格的一个格子。非当前回合、越界或重复猜测时静默忽略。
// 第5次命中即获胜。
func (g *ShanshaState) Guess(playerID, targetID uint, x, y int) bool {
	if g.HasWinner || g.CurrentTurn != playerID || playerID == targetID {
		return false
	}
	targetGrid, ok := g.PlayerGrids[targetID]
	if !ok {
		return false
	}
	if x < 0 || x >= shanshaRows || y < 0 || y >= shanshaCols {
		return false
	}
	for _, prev := range g.Guesses[playerID] {
		if prev.X == x && prev.Y == y {
			return false
		}
	}
	hit := targetGrid[x][y] != nil
	g.Guesses[playerID] = append(g.Guesses[playerID], GuessRecord{X: x, Y: y, Hit: hit})
	if hit && g.HitCount(playerID) >= winningHitCount {
		g.HasWinner = true
		g.WinnerID = playerID
	}
	return true
}

// HitCount 某玩家的累计命中数
func (g *ShanshaState) HitCount(playerID uint) int {
	hits := 0
	for _, guess := range g.Guesses[playerID] {
		if guess.Hit {
			hits++
		}
	}
	return hits
}
