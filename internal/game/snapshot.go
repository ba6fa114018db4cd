// internal/game/snapshot.go
package game

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/unomirror/server/internal/models"
)

// The read surface below returns copies only. Devices and UIs can hold onto
// the results without ever aliasing live engine state.

// Snapshot returns the full current state as a copy.
// Assumes Mu is held by the caller.
func (g *Game) Snapshot() GameStateBlob {
	return g.Export().GameState
}

// CurrentPlayer returns a copy of the player whose turn it is, hand included.
// Assumes Mu is held by the caller.
func (g *Game) CurrentPlayer() models.Player {
	p := g.Players[g.CurrentPlayerIndex]
	hand := copyCards(p.Hand)
	handPtrs := make([]*models.Card, len(hand))
	for i := range hand {
		handPtrs[i] = &hand[i]
	}
	return models.Player{ID: p.ID, Name: p.Name, Hand: handPtrs}
}

// PlayerHand returns a copy of the named player's hand.
// Assumes Mu is held by the caller.
func (g *Game) PlayerHand(playerID uuid.UUID) ([]models.Card, error) {
	p := g.getPlayerByID(playerID)
	if p == nil {
		return nil, fmt.Errorf("player %s not in game", playerID)
	}
	return copyCards(p.Hand), nil
}

// CurrentCard returns a copy of the discard pile's top card.
// Assumes Mu is held by the caller.
func (g *Game) CurrentCard() models.Card {
	return *g.topOfDiscard()
}
