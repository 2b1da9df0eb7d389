package rules

import (
	"math/rand"

	"github.com/wfunc/table-game/internal/models"
)

const boardSize = 8

// InitChinshingwa 初始化跳棋对局：8x8棋盘，双方各12子摆在深色格上。
// Players[0]的底线在第0行，向第7行推进；Players[1]相反。
func InitChinshingwa(playerIDs []uint) *State {
	state := &ChinshingwaState{
		Players:     append([]uint{}, playerIDs...),
		Kings:       map[uint][]Coord{playerIDs[0]: {}, playerIDs[1]: {}},
		CurrentTurn: playerIDs[rand.Intn(len(playerIDs))],
	}
	for row := 0; row < 3; row++ {
		for col := 0; col < boardSize; col++ {
			if (row+col)%2 == 1 {
				state.Board[row][col] = &Piece{Owner: playerIDs[0]}
			}
		}
	}
	for row := 5; row < boardSize; row++ {
		for col := 0; col < boardSize; col++ {
			if (row+col)%2 == 1 {
				state.Board[row][col] = &Piece{Owner: playerIDs[1]}
			}
		}
	}
	return &State{GameType: models.GameTypeChinshingwa, Chinshingwa: state}
}

// IsLegalMove 走法校验：己方棋子斜走1格到空位，或斜跳2格越过对方棋子
func (g *ChinshingwaState) IsLegalMove(playerID uint, fromX, fromY, toX, toY int) bool {
	if !inBoard(fromX, fromY) || !inBoard(toX, toY) {
		return false
	}
	piece := g.Board[fromX][fromY]
	if piece == nil || piece.Owner != playerID {
		return false
	}
	if g.Board[toX][toY] != nil {
		return false
	}
	dx := abs(toX - fromX)
	dy := abs(toY - fromY)
	if dx != dy || dx < 1 || dx > 2 {
		return false
	}
	if dx == 2 {
		midX := (fromX + toX) / 2
		midY := (fromY + toY) / 2
		jumped := g.Board[midX][midY]
		if jumped == nil || jumped.Owner == playerID {
			return false
		}
	}
	return true
}

// ApplyMove 执行走子：跳吃移除被越过的棋子，到达对端底线升王。
// 非当前回合或走法不合规时静默忽略。
func (g *ChinshingwaState) ApplyMove(playerID uint, fromX, fromY, toX, toY int) bool {
	if g.HasWinner || g.CurrentTurn != playerID {
		return false
	}
	if !g.IsLegalMove(playerID, fromX, fromY, toX, toY) {
		return false
	}
	piece := g.Board[fromX][fromY]
	g.Board[fromX][fromY] = nil
	g.Board[toX][toY] = piece

	if abs(toX-fromX) == 2 {
		midX := (fromX + toX) / 2
		midY := (fromY + toY) / 2
		captured := g.Board[midX][midY]
		g.Board[midX][midY] = nil
		if captured.King {
			g.removeKing(captured.Owner, midX, midY)
		}
	}

	if piece.King {
		g.moveKing(playerID, fromX, fromY, toX, toY)
	} else if toX == g.promotionRow(playerID) {
		piece.King = true
		g.Kings[playerID] = append(g.Kings[playerID], Coord{X: toX, Y: toY})
	}

	if opponent := g.opponentOf(playerID); g.PieceCount(opponent) == 0 {
		g.HasWinner = true
		g.WinnerID = playerID
	}
	return true
}

// PieceCount 某玩家剩余棋子数
func (g *ChinshingwaState) PieceCount(playerID uint) int {
	count := 0
	for x := 0; x < boardSize; x++ {
		for y := 0; y < boardSize; y++ {
			if p := g.Board[x][y]; p != nil && p.Owner == playerID {
				count++
			}
		}
	}
	return count
}

// promotionRow 升王行：从第0行出发的一方在第7行升王，反之亦然
func (g *ChinshingwaState) promotionRow(playerID uint) int {
	if len(g.Players) > 0 && g.Players[0] == playerID {
		return boardSize - 1
	}
	return 0
}

func (g *ChinshingwaState) opponentOf(playerID uint) uint {
	for _, id := range g.Players {
		if id != playerID {
			return id
		}
	}
	return 0
}

func (g *ChinshingwaState) moveKing(playerID uint, fromX, fromY, toX, toY int) {
	for i, c := range g.Kings[playerID] {
		if c.X == fromX && c.Y == fromY {
			g.Kings[playerID][i] = Coord{X: toX, Y: toY}
			return
		}
	}
}

func (g *ChinshingwaState) removeKing(playerID uint, x, y int) {
	kings := g.Kings[playerID]
	for i, c := range kings {
		if c.X == x && c.Y == y {
			g.Kings[playerID] = append(kings[:i:i], kings[i+1:]...)
			return
		}
	}
}

func inBoard(x, y int) bool {
	return x >= 0 && x < boardSize && y >= 0 && y < boardSize
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
