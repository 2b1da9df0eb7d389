package rules

import (
	"fmt"
	"math/rand"
)

var (
	suits  = []string{"hearts", "diamonds", "clubs", "spades"}
	values = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

// rankIndex 牌面在A..K序中的位置，未知牌面返回-1
func rankIndex(value string) int {
	for i, v := range values {
		if v == value {
			return i
		}
	}
	return -1
}

// NewDeck 生成一副洗好的52张牌
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, suit := range suits {
		for _, value := range values {
			deck = append(deck, Card{
				Suit:  suit,
				Value: value,
				ID:    fmt.Sprintf("%s-%s", value, suit),
			})
		}
	}
	// Fisher-Yates洗牌
	for i := len(deck) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}
