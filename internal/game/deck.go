// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/unomirror/server/internal/models"
)

// DeckSize is the fixed number of cards in play. Card conservation across
// hands, deck and discard pile is checked against this.
const DeckSize = 108

// BuildDeck constructs the canonical 108-card set with fresh ids: per color
// one 0, two each of 1-9, two each of skip/reverse/draw_two, plus four wild
// and four wild_draw_four.
func BuildDeck() []*models.Card {
	colors := []models.Color{models.ColorRed, models.ColorBlue, models.ColorGreen, models.ColorYellow}

	deck := make([]*models.Card, 0, DeckSize)
	for _, color := range colors {
		deck = append(deck, models.NewNumberCard(color, 0))
		for value := 1; value <= 9; value++ {
			deck = append(deck, models.NewNumberCard(color, value), models.NewNumberCard(color, value))
		}
		for _, cardType := range []models.CardType{models.CardSkip, models.CardReverse, models.CardDrawTwo} {
			deck = append(deck, models.NewActionCard(color, cardType), models.NewActionCard(color, cardType))
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, models.NewWildCard(models.CardWild))
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, models.NewWildCard(models.CardWildDrawFour))
	}
	return deck
}

// Shuffle permutes cards in place with Fisher-Yates. The multiset is
// preserved exactly; no cards are created, duplicated or lost.
func Shuffle(r *rand.Rand, cards []*models.Card) {
	r.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}
