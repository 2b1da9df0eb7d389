package rules

import (
	"math/rand"

	"github.com/wfunc/table-game/internal/models"
)

// InitNjuga 初始化甩牌对局：按座位顺序每人发3张，翻1张进弃牌堆，随机起手
func InitNjuga(playerIDs []uint) *State {
	deck := NewDeck()
	hands := make(map[uint][]Card, len(playerIDs))
	for _, id := range playerIDs {
		hand := make([]Card, 3)
		copy(hand, deck[:3])
		hands[id] = hand
		deck = deck[3:]
	}
	discard := []Card{deck[0]}
	deck = deck[1:]

	return &State{
		GameType: models.GameTypeNjuga,
		Njuga: &NjugaState{
			Deck:        deck,
			DiscardPile: discard,
			PlayerHands: hands,
			CurrentTurn: playerIDs[rand.Intn(len(playerIDs))],
		},
	}
}

// DrawCard 从牌堆或弃牌堆摸一张牌。非当前回合、手牌已满或目标牌堆为空时
// 静默忽略，返回false。
func (g *NjugaState) DrawCard(playerID uint, fromDiscard bool) bool {
	if g.HasWinner || g.CurrentTurn != playerID {
		return false
	}
	if len(g.PlayerHands[playerID]) >= 4 {
		return false
	}
	if fromDiscard {
		if len(g.DiscardPile) == 0 {
			return false
		}
		top := g.DiscardPile[len(g.DiscardPile)-1]
		g.DiscardPile = g.DiscardPile[:len(g.DiscardPile)-1]
		g.PlayerHands[playerID] = append(g.PlayerHands[playerID], top)
		return true
	}
	if len(g.Deck) == 0 {
		return false
	}
	top := g.Deck[len(g.Deck)-1]
	g.Deck = g.Deck[:len(g.Deck)-1]
	g.PlayerHands[playerID] = append(g.PlayerHands[playerID], top)
	return true
}

// DiscardCard 打出一张手牌到弃牌堆，非当前回合或牌不在手中时静默忽略
func (g *NjugaState) DiscardCard(playerID uint, cardID string) bool {
	if g.HasWinner || g.CurrentTurn != playerID {
		return false
	}
	hand := g.PlayerHands[playerID]
	for i, c := range hand {
		if c.ID == cardID {
			g.PlayerHands[playerID] = append(hand[:i:i], hand[i+1:]...)
			g.DiscardPile = append(g.DiscardPile, c)
			return true
		}
	}
	return false
}

// DeclareWin 玩家宣胜，校验手牌确实构成胡牌
func (g *NjugaState) DeclareWin(playerID uint) bool {
	if g.HasWinner || g.CurrentTurn != playerID {
		return false
	}
	if !IsWinningHand(g.PlayerHands[playerID]) {
		return false
	}
	g.HasWinner = true
	g.WinnerID = playerID
	return true
}

// IsWinningHand 胡牌判定：恰好4张，一个对子加两张点数相邻的单牌。
// 相邻按A..K顺序，不循环（K和A不相邻）。
func IsWinningHand(hand []Card) bool {
	if len(hand) != 4 {
		return false
	}
	counts := make(map[string]int, 4)
	for _, c := range hand {
		counts[c.Value]++
	}
	var singles []int
	pairs := 0
	for value, n := range counts {
		switch n {
		case 2:
			pairs++
		case 1:
			singles = append(singles, rankIndex(value))
		default:
			return false
		}
	}
	if pairs != 1 || len(singles) != 2 {
		return false
	}
	diff := singles[0] - singles[1]
	return diff == 1 || diff == -1
}
