package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handOf(values ...string) []Card {
	hand := make([]Card, len(values))
	for i, v := range values {
		hand[i] = Card{Suit: "hearts", Value: v, ID: v + "-hearts"}
	}
	return hand
}

// TestNewDeck 测试整副牌52张且无重复
func TestNewDeck(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, 52)

	seen := make(map[string]bool, 52)
	for _, c := range deck {
		assert.False(t, seen[c.ID], "牌面重复: %s", c.ID)
		seen[c.ID] = true
	}
}

// TestInitNjuga 测试发牌：每人3张，弃牌堆1张，牌堆剩余正确
func TestInitNjuga(t *testing.T) {
	players := []uint{1, 2, 3}
	state := InitNjuga(players)
	require.NotNil(t, state.Njuga)

	g := state.Njuga
	for _, id := range players {
		assert.Len(t, g.PlayerHands[id], 3)
	}
	assert.Len(t, g.DiscardPile, 1)
	assert.Len(t, g.Deck, 52-3*len(players)-1)
	assert.Contains(t, players, g.CurrentTurn)
	assert.False(t, state.HasWon())
}

// TestIsWinningHand 测试胡牌判定：一对加两张相邻单牌
func TestIsWinningHand(t *testing.T) {
	tests := []struct {
		name string
		hand []Card
		want bool
	}{
		{"对子加相邻单牌", handOf("A", "A", "5", "6"), true},
		{"两个对子", handOf("A", "A", "2", "2"), false},
		{"A和2相邻", handOf("K", "K", "A", "2"), true},
		{"三条", handOf("5", "5", "5", "6"), false},
		{"单牌不相邻", handOf("A", "A", "5", "7"), false},
		{"K和A不循环相邻", handOf("5", "5", "K", "A"), false},
		{"无对子", handOf("A", "2", "3", "4"), false},
		{"只有3张", handOf("A", "A", "5"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWinningHand(tt.hand))
		})
	}
}

// TestDrawCard 测试摸牌的回合与牌堆约束
func TestDrawCard(t *testing.T) {
	state := InitNjuga([]uint{1, 2})
	g := state.Njuga
	g.CurrentTurn = 1

	// 非当前回合玩家摸牌被忽略
	assert.False(t, g.DrawCard(2, false))
	assert.Len(t, g.PlayerHands[2], 3)

	// 当前回合玩家摸牌成功
	deckBefore := len(g.Deck)
	assert.True(t, g.DrawCard(1, false))
	assert.Len(t, g.PlayerHands[1], 4)
	assert.Len(t, g.Deck, deckBefore-1)

	// 手牌满4张后不能再摸
	assert.False(t, g.DrawCard(1, false))
	assert.Len(t, g.PlayerHands[1], 4)
}

// TestDrawFromEmptyDiscard 测试弃牌堆为空时摸弃牌被静默忽略
func TestDrawFromEmptyDiscard(t *testing.T) {
	state := InitNjuga([]uint{1, 2})
	g := state.Njuga
	g.CurrentTurn = 1
	g.DiscardPile = nil

	assert.False(t, g.DrawCard(1, true))
	assert.Len(t, g.PlayerHands[1], 3)
}

// TestDiscardCard 测试打牌：只能打出自己手中的牌
func TestDiscardCard(t *testing.T) {
	state := InitNjuga([]uint{1, 2})
	g := state.Njuga
	g.CurrentTurn = 1

	hand := g.PlayerHands[1]
	target := hand[0]
	assert.True(t, g.DiscardCard(1, target.ID))
	assert.Len(t, g.PlayerHands[1], 2)
	assert.Equal(t, target.ID, g.DiscardPile[len(g.DiscardPile)-1].ID)

	// 不在手中的牌被忽略
	assert.False(t, g.DiscardCard(1, "not-a-card"))
}

// TestDeclareWin 测试宣胜校验
func TestDeclareWin(t *testing.T) {
	state := InitNjuga([]uint{1, 2})
	g := state.Njuga
	g.CurrentTurn = 1

	// 手牌不构成胡牌时宣胜失败
	g.PlayerHands[1] = handOf("A", "2", "3", "4")
	assert.False(t, g.DeclareWin(1))
	assert.False(t, g.HasWinner)

	g.PlayerHands[1] = handOf("A", "A", "5", "6")
	assert.True(t, g.DeclareWin(1))
	assert.True(t, g.HasWinner)
	assert.Equal(t, uint(1), g.WinnerID)
	assert.Equal(t, uint(1), state.Winner())

	// 已有胜者后所有操作冻结
	assert.False(t, g.DrawCard(1, false))
	assert.False(t, g.DeclareWin(2))
}
