// internal/game/serializer.go
package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/unomirror/server/internal/models"
)

// SyncData is the pending-sync metadata exported next to the game state for
// persistence or device hand-off.
type SyncData struct {
	LastSyncTimestamp time.Time       `json:"lastSyncTimestamp"`
	PendingActions    []models.Action `json:"pendingActions"`
	SyncStatus        SyncStatus      `json:"syncStatus"`
	DeviceID          string          `json:"deviceId"`
}

// GameStateBlob is the full structural snapshot of a game. Every slice and
// card in it is a copy; mutating a blob never touches live state.
type GameStateBlob struct {
	GameID      uuid.UUID           `json:"gameId"`
	Players     []models.Player     `json:"players"`
	Deck        []models.Card       `json:"deck"`
	DiscardPile []models.Card       `json:"discardPile"`
	CurrentCard *models.Card        `json:"currentCard,omitempty"`
	Direction   Direction           `json:"direction"`
	CurrentTurn uuid.UUID           `json:"currentTurn"`
	DrawStack   int                 `json:"drawStack"`
	UnoCallouts map[uuid.UUID]bool  `json:"unoCallouts"`
	Status      Status              `json:"status"`
	Winner      uuid.UUID           `json:"winner,omitempty"`
	LastAction  *models.Action      `json:"lastAction,omitempty"`
	Settings    models.GameSettings `json:"settings"`
}

// ExportedState is the hand-off blob: game state plus sync bookkeeping.
type ExportedState struct {
	GameState GameStateBlob `json:"gameState"`
	SyncData  SyncData      `json:"syncData"`
}

func copyCards(cards []*models.Card) []models.Card {
	out := make([]models.Card, len(cards))
	for i, c := range cards {
		out[i] = *c
	}
	return out
}

// Export produces a lossless snapshot of the game and its sync metadata.
// Assumes Mu is held by the caller.
func (g *Game) Export() ExportedState {
	state := GameStateBlob{
		GameID:      g.ID,
		Players:     make([]models.Player, len(g.Players)),
		Deck:        copyCards(g.Deck),
		DiscardPile: copyCards(g.DiscardPile),
		Direction:   g.Direction,
		CurrentTurn: g.CurrentTurn(),
		DrawStack:   g.DrawStack,
		UnoCallouts: make(map[uuid.UUID]bool, len(g.UnoCallouts)),
		Status:      g.Status,
		Winner:      g.Winner,
		Settings:    g.Settings,
	}
	for i, p := range g.Players {
		state.Players[i] = models.Player{ID: p.ID, Name: p.Name}
		hand := copyCards(p.Hand)
		handPtrs := make([]*models.Card, len(hand))
		for j := range hand {
			handPtrs[j] = &hand[j]
		}
		state.Players[i].Hand = handPtrs
	}
	if top := g.topOfDiscard(); top != nil {
		currentCopy := *top
		state.CurrentCard = &currentCopy
	}
	if g.LastAction != nil {
		lastCopy := *g.LastAction
		state.LastAction = &lastCopy
	}

	pending := make([]models.Action, len(g.PendingActions))
	copy(pending, g.PendingActions)
	return ExportedState{
		GameState: state,
		SyncData: SyncData{
			LastSyncTimestamp: g.LastSyncTimestamp,
			PendingActions:    pending,
			SyncStatus:        g.SyncStatus,
			DeviceID:          g.DeviceID,
		},
	}
}

// ExportJSON marshals the exported state.
// Assumes Mu is held by the caller.
func (g *Game) ExportJSON() ([]byte, error) {
	return json.Marshal(g.Export())
}

// Import reconstructs a game from an exported blob. The result is
// operationally identical to the exporter's game: same hands, deck order,
// discard order, turn, direction, status and winner.
func Import(blob ExportedState) (*Game, error) {
	state := blob.GameState
	if len(state.Players) == 0 {
		return nil, errors.New("imported state has no players")
	}
	if len(state.DiscardPile) == 0 {
		return nil, errors.New("imported state has an empty discard pile")
	}

	g := &Game{
		ID:                state.GameID,
		Players:           make([]*models.Player, len(state.Players)),
		Settings:          state.Settings,
		Direction:         state.Direction,
		DrawStack:         state.DrawStack,
		UnoCallouts:       make(map[uuid.UUID]bool, len(state.UnoCallouts)),
		Status:            state.Status,
		Winner:            state.Winner,
		LastSyncTimestamp: blob.SyncData.LastSyncTimestamp,
		SyncStatus:        blob.SyncData.SyncStatus,
		DeviceID:          blob.SyncData.DeviceID,
		rng:               rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for i := range state.Players {
		src := state.Players[i]
		p := &models.Player{ID: src.ID, Name: src.Name, Hand: make([]*models.Card, len(src.Hand))}
		for j, c := range src.Hand {
			cardCopy := *c
			p.Hand[j] = &cardCopy
		}
		g.Players[i] = p
	}

	deck := make([]*models.Card, len(state.Deck))
	for i := range state.Deck {
		cardCopy := state.Deck[i]
		deck[i] = &cardCopy
	}
	g.Deck = deck

	discard := make([]*models.Card, len(state.DiscardPile))
	for i := range state.DiscardPile {
		cardCopy := state.DiscardPile[i]
		discard[i] = &cardCopy
	}
	g.DiscardPile = discard

	for id, called := range state.UnoCallouts {
		g.UnoCallouts[id] = called
	}
	if state.LastAction != nil {
		lastCopy := *state.LastAction
		g.LastAction = &lastCopy
	}
	g.PendingActions = make([]models.Action, len(blob.SyncData.PendingActions))
	copy(g.PendingActions, blob.SyncData.PendingActions)

	turnIdx := -1
	for i, p := range g.Players {
		if p.ID == state.CurrentTurn {
			turnIdx = i
			break
		}
	}
	if turnIdx == -1 {
		if state.Status != StatusFinished {
			return nil, fmt.Errorf("current turn player %s not present in imported players", state.CurrentTurn)
		}
		turnIdx = 0
	}
	g.CurrentPlayerIndex = turnIdx
	return g, nil
}

// ImportJSON unmarshals and reconstructs an exported game.
func ImportJSON(data []byte) (*Game, error) {
	var blob ExportedState
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("decoding exported game state: %w", err)
	}
	return Import(blob)
}
