package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInitChinshingwa 测试棋盘初始布局：双方各12子摆在深色格
func TestInitChinshingwa(t *testing.T) {
	state := InitChinshingwa([]uint{1, 2})
	require.NotNil(t, state.Chinshingwa)

	g := state.Chinshingwa
	assert.Equal(t, 12, g.PieceCount(1))
	assert.Equal(t, 12, g.PieceCount(2))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			if p := g.Board[x][y]; p != nil {
				assert.Equal(t, 1, (x+y)%2, "棋子必须在深色格: (%d,%d)", x, y)
				assert.False(t, p.King)
			}
		}
	}
}

// TestIsLegalMove 测试走法校验
func TestIsLegalMove(t *testing.T) {
	state := InitChinshingwa([]uint{1, 2})
	g := state.Chinshingwa

	// 斜走1格到空位
	assert.True(t, g.IsLegalMove(1, 2, 1, 3, 0))
	assert.True(t, g.IsLegalMove(1, 2, 1, 3, 2))
	// 直走不合规
	assert.False(t, g.IsLegalMove(1, 2, 1, 3, 1))
	// 目标有子
	assert.False(t, g.IsLegalMove(1, 1, 0, 2, 1))
	// 动对方的子
	assert.False(t, g.IsLegalMove(1, 5, 0, 4, 1))
	// 空格出发
	assert.False(t, g.IsLegalMove(1, 3, 0, 4, 1))
	// 斜跳2格但中间无对方棋子
	assert.False(t, g.IsLegalMove(1, 2, 1, 4, 3))
}

// TestJumpCapture 测试跳吃
func TestJumpCapture(t *testing.T) {
	state := InitChinshingwa([]uint{1, 2})
	g := state.Chinshingwa
	g.CurrentTurn = 1

	// 在(3,2)放一个对方棋子供跳吃
	g.Board[3][2] = &Piece{Owner: 2}
	require.True(t, g.ApplyMove(1, 2, 1, 4, 3))
	assert.Nil(t, g.Board[3][2], "被越过的棋子应被移除")
	assert.Equal(t, uint(1), g.Board[4][3].Owner)
	assert.Equal(t, 12, g.PieceCount(2))
}

// TestKingPromotion 测试到达对端底线升王
func TestKingPromotion(t *testing.T) {
	state := InitChinshingwa([]uint{1, 2})
	g := state.Chinshingwa
	g.CurrentTurn = 1

	// 清一条通路，把己方棋子放到第6行
	g.Board[6][1] = &Piece{Owner: 1}
	g.Board[7][0] = nil
	require.True(t, g.ApplyMove(1, 6, 1, 7, 0))
	assert.True(t, g.Board[7][0].King)
	assert.Contains(t, g.Kings[1], Coord{X: 7, Y: 0})

	// 对方棋子回到第0行不升王（其底线在第7行一侧才升王）
	g.CurrentTurn = 2
	g.Board[1][2] = nil
	g.Board[0][1] = nil
	g.Board[1][0] = &Piece{Owner: 2}
	require.True(t, g.ApplyMove(2, 1, 0, 0, 1))
	assert.True(t, g.Board[0][1].King, "第1号位玩家的升王行是第0行")
}

// TestChinshingwaWin 测试吃光对方棋子即获胜
func TestChinshingwaWin(t *testing.T) {
	state := InitChinshingwa([]uint{1, 2})
	g := state.Chinshingwa
	g.CurrentTurn = 1

	// 清场只留两子
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			g.Board[x][y] = nil
		}
	}
	g.Board[2][1] = &Piece{Owner: 1}
	g.Board[3][2] = &Piece{Owner: 2}

	require.True(t, g.ApplyMove(1, 2, 1, 4, 3))
	assert.Equal(t, 0, g.PieceCount(2))
	assert.True(t, state.HasWon())
	assert.Equal(t, uint(1), state.Winner())
}

// TestNextTurn 测试回合轮转
func TestNextTurn(t *testing.T) {
	order := []uint{10, 20, 30}
	assert.Equal(t, uint(20), NextTurn(10, order))
	assert.Equal(t, uint(10), NextTurn(30, order))
	assert.Equal(t, uint(10), NextTurn(99, order), "当前玩家不在列表时回到第一位")
	assert.Equal(t, uint(0), NextTurn(10, nil))
}

// TestStateRoundTrip 测试对局状态JSON持久化往返
func TestStateRoundTrip(t *testing.T) {
	state := InitChinshingwa([]uint{1, 2})
	data, err := state.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalState(data)
	require.NoError(t, err)
	assert.Equal(t, state.GameType, restored.GameType)
	assert.Equal(t, 12, restored.Chinshingwa.PieceCount(1))
	assert.Equal(t, state.CurrentTurn(), restored.CurrentTurn())
}
