package models

import "github.com/google/uuid"

// Color is the face color of a card. Wild cards carry ColorWild until a
// color is chosen for them on the discard pile.
type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorWild   Color = "wild"
)

// CardType discriminates the six card kinds in the deck.
type CardType string

const (
	CardNumber       CardType = "number"
	CardSkip         CardType = "skip"
	CardReverse      CardType = "reverse"
	CardDrawTwo      CardType = "draw_two"
	CardWild         CardType = "wild"
	CardWildDrawFour CardType = "wild_draw_four"
)

// Card mirrors one physical card. A given ID lives in exactly one of a hand,
// the deck, or the discard pile at any time. ChosenColor is only ever set on
// the wild card currently on top of the discard pile.
type Card struct {
	ID          uuid.UUID `json:"id"`
	Color       Color     `json:"color"`
	Type        CardType  `json:"type"`
	Value       int       `json:"value,omitempty"`
	IsWild      bool      `json:"isWild"`
	ChosenColor Color     `json:"chosenColor,omitempty"`
}

// NewNumberCard builds a number card (value 0-9) with a fresh id.
func NewNumberCard(color Color, value int) *Card {
	id, _ := uuid.NewRandom()
	return &Card{ID: id, Color: color, Type: CardNumber, Value: value}
}

// NewActionCard builds a colored skip, reverse or draw_two card.
func NewActionCard(color Color, cardType CardType) *Card {
	id, _ := uuid.NewRandom()
	return &Card{ID: id, Color: color, Type: cardType}
}

// NewWildCard builds a wild or wild_draw_four card.
func NewWildCard(cardType CardType) *Card {
	id, _ := uuid.NewRandom()
	return &Card{ID: id, Color: ColorWild, Type: cardType, IsWild: true}
}

// EffectiveColor is the color used for play matching: the chosen color when
// one has been set on a wild, otherwise the printed color.
func (c *Card) EffectiveColor() Color {
	if c.ChosenColor != "" {
		return c.ChosenColor
	}
	return c.Color
}
