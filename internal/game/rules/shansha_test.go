package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInitShansha 测试初始化：每人一块4x6空网格
func TestInitShansha(t *testing.T) {
	state := InitShansha([]uint{1, 2})
	require.NotNil(t, state.Shansha)

	g := state.Shansha
	for _, id := range []uint{1, 2} {
		grid := g.PlayerGrids[id]
		require.Len(t, grid, 4)
		for _, row := range grid {
			require.Len(t, row, 6)
			for _, cell := range row {
				assert.Nil(t, cell)
			}
		}
		assert.Empty(t, g.Placements[id])
	}
}

// TestPlaceStake 测试藏金：最多5处，不可重复占格
func TestPlaceStake(t *testing.T) {
	state := InitShansha([]uint{1, 2})
	g := state.Shansha

	assert.True(t, g.PlaceStake(1, 0, 0, 100))
	assert.False(t, g.PlaceStake(1, 0, 0, 100), "格子已占用")
	assert.False(t, g.PlaceStake(1, 4, 0, 100), "行越界")
	assert.False(t, g.PlaceStake(1, 0, 6, 100), "列越界")

	assert.True(t, g.PlaceStake(1, 0, 1, 100))
	assert.True(t, g.PlaceStake(1, 0, 2, 100))
	assert.True(t, g.PlaceStake(1, 0, 3, 100))
	assert.True(t, g.PlaceStake(1, 0, 4, 100))
	assert.False(t, g.PlaceStake(1, 0, 5, 100), "已藏满5处")
	assert.Len(t, g.Placements[1], 5)
}

// TestGuess 测试猜格：回合限制、去重、命中记录
func TestGuess(t *testing.T) {
	state := InitShansha([]uint{1, 2})
	g := state.Shansha
	g.CurrentTurn = 1
	g.PlaceStake(2, 1, 1, 100)

	// 非当前回合被忽略
	assert.False(t, g.Guess(2, 1, 0, 0))

	assert.True(t, g.Guess(1, 2, 1, 1))
	assert.Equal(t, 1, g.HitCount(1))

	// 重复猜同一格被忽略
	assert.False(t, g.Guess(1, 2, 1, 1))

	assert.True(t, g.Guess(1, 2, 0, 0))
	assert.Equal(t, 1, g.HitCount(1))
	require.Len(t, g.Guesses[1], 2)
	assert.False(t, g.Guesses[1][1].Hit)
}

// TestShanshaWin 测试第5次命中即获胜
func TestShanshaWin(t *testing.T) {
	state := InitShansha([]uint{1, 2})
	g := state.Shansha
	g.CurrentTurn = 1
	for y := 0; y < 5; y++ {
		g.PlaceStake(2, 0, y, 100)
	}

	for y := 0; y < 4; y++ {
		assert.True(t, g.Guess(1, 2, 0, y))
		g.CurrentTurn = 1 // 模拟回合轮回
	}
	assert.False(t, state.HasWon())

	assert.True(t, g.Guess(1, 2, 0, 4))
	assert.True(t, state.HasWon())
	assert.Equal(t, uint(1), state.Winner())

	// 终局后不再接受操作
	g.CurrentTurn = 2
	assert.False(t, g.Guess(2, 1, 0, 0))
}
