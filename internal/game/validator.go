// internal/game/validator.go
package game

import (
	"github.com/google/uuid"

	"github.com/unomirror/server/internal/models"
)

// PlayValidation is the result of checking a candidate play. Reason is set
// only when Valid is false.
type PlayValidation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// ValidatePlay reports whether the player may legally play the card right
// now. Pure with respect to game state, so UIs can probe moves freely.
//
// A play is legal when the card is in the player's hand and any of these
// hold: the card is wild; its color matches the current card's effective
// color (chosen color on an active wild, printed color otherwise); its type
// matches the current card's type, where two number cards match on equal
// value rather than on the shared "number" type.
func (g *Game) ValidatePlay(card *models.Card, playerID uuid.UUID) PlayValidation {
	if card == nil {
		return PlayValidation{Reason: "card not in hand"}
	}
	player := g.getPlayerByID(playerID)
	if player == nil {
		return PlayValidation{Reason: "card not in hand"}
	}
	inHand := false
	for _, c := range player.Hand {
		if c.ID == card.ID {
			inHand = true
			break
		}
	}
	if !inHand {
		return PlayValidation{Reason: "card not in hand"}
	}

	if card.IsWild || card.Type == models.CardWild || card.Type == models.CardWildDrawFour {
		return PlayValidation{Valid: true}
	}

	current := g.topOfDiscard()
	if card.Color == current.EffectiveColor() {
		return PlayValidation{Valid: true}
	}
	if card.Type == current.Type {
		if card.Type != models.CardNumber {
			return PlayValidation{Valid: true}
		}
		if card.Value == current.Value {
			return PlayValidation{Valid: true}
		}
	}
	return PlayValidation{Reason: "does not match color, number, or type"}
}

// ValidMoves returns copies of every card in the player's hand that is
// currently legal to play.
func (g *Game) ValidMoves(playerID uuid.UUID) []models.Card {
	player := g.getPlayerByID(playerID)
	if player == nil {
		return nil
	}
	moves := make([]models.Card, 0, len(player.Hand))
	for _, c := range player.Hand {
		if g.ValidatePlay(c, playerID).Valid {
			moves = append(moves, *c)
		}
	}
	return moves
}
