// internal/game/game.go
package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unomirror/server/internal/cache"
	"github.com/unomirror/server/internal/models"
)

// Direction is the turn rotation order around the table.
type Direction string

const (
	DirectionClockwise        Direction = "clockwise"
	DirectionCounterclockwise Direction = "counterclockwise"
)

// Status is the game lifecycle phase.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// SyncStatus tracks whether physically-entered actions have been propagated
// to the sync queue consumers.
type SyncStatus string

const (
	SyncSynced   SyncStatus = "synced"
	SyncPending  SyncStatus = "pending"
	SyncConflict SyncStatus = "conflict"
	SyncError    SyncStatus = "error"
)

// ErrDeadDeck is returned when a reshuffle is attempted but the discard pile
// has no spare cards to replenish the deck. The game state is degenerate and
// the caller must treat it as unrecoverable.
var ErrDeadDeck = errors.New("cannot reshuffle: discard pile has no spare cards")

const handSize = 7

// Game is the canonical digital mirror of one physical table. It is mutated
// in place by ApplyAction until Status becomes finished, after which it stays
// inspectable for result reporting and export.
//
// The engine is single-writer: methods do not lock. Callers processing
// concurrent device inputs must hold Mu around every call.
type Game struct {
	ID       uuid.UUID
	Players  []*models.Player
	Settings models.GameSettings

	Deck        []*models.Card
	DiscardPile []*models.Card // tail is the current card

	Direction          Direction
	CurrentPlayerIndex int
	DrawStack          int
	UnoCallouts        map[uuid.UUID]bool
	Status             Status
	Winner             uuid.UUID
	LastAction         *models.Action

	// Physical-device sync bookkeeping. The engine records here; it never
	// performs network synchronization itself.
	PendingActions    []models.Action
	LastSyncTimestamp time.Time
	SyncStatus        SyncStatus
	DeviceID          string

	rng *rand.Rand
	Mu  sync.Mutex
}

// NewGame builds a shuffled deck, deals handSize cards to each player in
// order, and flips the first number card of the remaining deck as the start
// of the discard pile. At least two players are required.
func NewGame(players []*models.Player) (*Game, error) {
	if len(players) < 2 {
		return nil, fmt.Errorf("need at least 2 players, got %d", len(players))
	}

	id, _ := uuid.NewRandom()
	g := &Game{
		ID:          id,
		Players:     players,
		Direction:   DirectionClockwise,
		UnoCallouts: make(map[uuid.UUID]bool),
		Status:      StatusWaiting,
		SyncStatus:  SyncSynced,
		DeviceID:    uuid.NewString(),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	deck := BuildDeck()
	Shuffle(g.rng, deck)

	for _, p := range players {
		p.Hand = make([]*models.Card, handSize)
		copy(p.Hand, deck[:handSize])
		deck = deck[handSize:]
	}

	// Deterministic forward scan for the first number card; wilds and action
	// cards are not allowed to open the discard pile.
	startIdx := -1
	for i, c := range deck {
		if c.Type == models.CardNumber {
			startIdx = i
			break
		}
	}
	if startIdx == -1 {
		return nil, errors.New("no number card available to start the discard pile")
	}
	start := deck[startIdx]
	deck = append(deck[:startIdx], deck[startIdx+1:]...)

	g.Deck = deck
	g.DiscardPile = []*models.Card{start}
	log.Printf("Game %s: initialized with %d players, %d cards in deck, start card %s %d.",
		g.ID, len(players), len(g.Deck), start.Color, start.Value)
	return g, nil
}

// CurrentTurn returns the id of the player whose turn it is.
func (g *Game) CurrentTurn() uuid.UUID {
	return g.Players[g.CurrentPlayerIndex].ID
}

// topOfDiscard returns the live current card. Internal use only; external
// callers get copies via CurrentCard.
func (g *Game) topOfDiscard() *models.Card {
	if len(g.DiscardPile) == 0 {
		return nil
	}
	return g.DiscardPile[len(g.DiscardPile)-1]
}

// ApplyAction routes one action through the state machine. Malformed actions
// (unknown type, missing payload) and impossible references (unknown player,
// card not in hand) are surfaced as errors; the reconciler pre-validates
// physical inputs so its callers only ever see structured results.
// A finished game is read-only: every action is rejected.
// Assumes Mu is held by the caller.
func (g *Game) ApplyAction(a models.Action) error {
	if g.Status == StatusFinished {
		return fmt.Errorf("game %s is finished; no further actions accepted", g.ID)
	}
	var err error
	switch a.Type {
	case models.ActionPlayCard:
		err = g.applyPlayCard(a)
	case models.ActionDrawCard:
		err = g.applyDrawCard(a)
	case models.ActionChooseColor:
		err = g.applyChooseColor(a)
	case models.ActionCallUno:
		err = g.applyCallUno(a)
	case models.ActionChallengeUno:
		err = g.applyChallengeUno(a)
	default:
		err = fmt.Errorf("unknown action type %q", a.Type)
	}
	if err != nil {
		return err
	}
	applied := a
	g.LastAction = &applied
	return nil
}

// applyPlayCard moves the card from the acting player's hand to the discard
// pile, applies special-card effects, and advances the turn. A play that
// empties the hand finishes the game immediately: no effects run and the
// turn pointer stays on the winner.
// Assumes Mu is held by the caller.
func (g *Game) applyPlayCard(a models.Action) error {
	if a.Card == nil {
		return errors.New("play_card action missing card payload")
	}
	player := g.getPlayerByID(a.PlayerID)
	if player == nil {
		return fmt.Errorf("player %s not in game", a.PlayerID)
	}
	card := g.removeCardFromHand(player, a.Card.ID)
	if card == nil {
		return fmt.Errorf("card %s not in hand of player %s", a.Card.ID, a.PlayerID)
	}

	card.ChosenColor = ""
	g.DiscardPile = append(g.DiscardPile, card)
	if g.Status == StatusWaiting {
		g.Status = StatusActive
	}

	if len(player.Hand) == 0 {
		g.Status = StatusFinished
		g.Winner = player.ID
		log.Printf("Game %s: player %s played their last card and wins.", g.ID, player.ID)
		return nil
	}

	if err := g.applyCardEffects(card); err != nil {
		return err
	}
	if g.Status == StatusActive {
		g.advanceTurn()
	}
	return nil
}

// applyCardEffects runs the type-specific effect of a just-played card.
// skip and the draw cards advance the turn once here, on top of the single
// advance applyPlayCard performs afterwards; for draw_two/wild_draw_four
// that combination skips one player past the forced drawer, matching the
// behavior observed on the tracked physical tables.
// Assumes Mu is held by the caller.
func (g *Game) applyCardEffects(card *models.Card) error {
	switch card.Type {
	case models.CardSkip:
		g.advanceTurn()
	case models.CardReverse:
		if g.Direction == DirectionClockwise {
			g.Direction = DirectionCounterclockwise
		} else {
			g.Direction = DirectionClockwise
		}
	case models.CardDrawTwo, models.CardWildDrawFour:
		if card.Type == models.CardDrawTwo {
			g.DrawStack += 2
		} else {
			g.DrawStack += 4
		}
		g.advanceTurn()
		target := g.Players[g.CurrentPlayerIndex]
		pending := g.DrawStack
		g.DrawStack = 0
		if err := g.drawCards(target, pending); err != nil {
			return err
		}
		log.Printf("Game %s: player %s forced to draw %d.", g.ID, target.ID, pending)
	}
	return nil
}

// applyDrawCard draws exactly one card into the acting player's hand. It
// never advances the turn; a draw-and-pass flow is the caller's convention.
// Assumes Mu is held by the caller.
func (g *Game) applyDrawCard(a models.Action) error {
	player := g.getPlayerByID(a.PlayerID)
	if player == nil {
		return fmt.Errorf("player %s not in game", a.PlayerID)
	}
	return g.drawCards(player, 1)
}

// applyChooseColor sets the chosen color on the current discard card. Only
// meaningful right after a wild play; the engine does not verify the acting
// player is the one who played the wild.
// Assumes Mu is held by the caller.
func (g *Game) applyChooseColor(a models.Action) error {
	if a.ChosenColor == "" {
		return errors.New("choose_color action missing chosenColor payload")
	}
	switch a.ChosenColor {
	case models.ColorRed, models.ColorBlue, models.ColorGreen, models.ColorYellow:
	default:
		return fmt.Errorf("invalid chosen color %q", a.ChosenColor)
	}
	current := g.topOfDiscard()
	if current == nil {
		return errors.New("no current card to set a color on")
	}
	current.ChosenColor = a.ChosenColor
	return nil
}

// applyCallUno records a player's Uno callout. Hand size is not verified.
// Assumes Mu is held by the caller.
func (g *Game) applyCallUno(a models.Action) error {
	if g.getPlayerByID(a.PlayerID) == nil {
		return fmt.Errorf("player %s not in game", a.PlayerID)
	}
	g.UnoCallouts[a.PlayerID] = true
	return nil
}

// applyChallengeUno penalizes the target with a 2-card forced draw when they
// hold exactly one card without having called Uno. Any player may challenge
// at any time.
// Assumes Mu is held by the caller.
func (g *Game) applyChallengeUno(a models.Action) error {
	if a.TargetPlayer == uuid.Nil {
		return errors.New("challenge_uno action missing targetPlayer payload")
	}
	target := g.getPlayerByID(a.TargetPlayer)
	if target == nil {
		return fmt.Errorf("target player %s not in game", a.TargetPlayer)
	}
	if len(target.Hand) == 1 && !g.UnoCallouts[target.ID] {
		log.Printf("Game %s: player %s caught without Uno callout, drawing 2.", g.ID, target.ID)
		return g.drawCards(target, 2)
	}
	return nil
}

// advanceTurn moves the turn pointer to the adjacent player in the current
// direction, wrapping modularly. Every listed player is always eligible.
// Assumes Mu is held by the caller.
func (g *Game) advanceTurn() {
	step := 1
	if g.Direction == DirectionCounterclockwise {
		step = -1
	}
	n := len(g.Players)
	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + step + n) % n
}

// DrawCards draws n cards from the deck into the named player's hand,
// reshuffling the discard pile when the deck runs dry.
// Assumes Mu is held by the caller.
func (g *Game) DrawCards(playerID uuid.UUID, n int) error {
	player := g.getPlayerByID(playerID)
	if player == nil {
		return fmt.Errorf("player %s not in game", playerID)
	}
	return g.drawCards(player, n)
}

// drawCards pulls cards one at a time so conservation holds at every step.
// Assumes Mu is held by the caller.
func (g *Game) drawCards(player *models.Player, n int) error {
	for i := 0; i < n; i++ {
		if len(g.Deck) == 0 {
			if err := g.reshuffleFromDiscard(); err != nil {
				return err
			}
		}
		card := g.Deck[0]
		g.Deck = g.Deck[1:]
		player.Hand = append(player.Hand, card)
	}
	return nil
}

// reshuffleFromDiscard rebuilds the deck from the discard pile, preserving
// the current card on top and clearing any chosen colors so wilds don't leak
// state across reshuffles. Fails with ErrDeadDeck when the discard pile has
// one or zero cards.
// Assumes Mu is held by the caller.
func (g *Game) reshuffleFromDiscard() error {
	if len(g.DiscardPile) <= 1 {
		return ErrDeadDeck
	}
	top := g.DiscardPile[len(g.DiscardPile)-1]
	rest := make([]*models.Card, len(g.DiscardPile)-1)
	copy(rest, g.DiscardPile[:len(g.DiscardPile)-1])
	for _, c := range rest {
		c.ChosenColor = ""
	}
	Shuffle(g.rng, rest)
	g.Deck = append(g.Deck, rest...)
	g.DiscardPile = []*models.Card{top}
	log.Printf("Game %s: reshuffled %d card(s) from discard pile into deck.", g.ID, len(rest))
	return nil
}

// getPlayerByID finds a player struct by id.
// Assumes Mu is held by the caller.
func (g *Game) getPlayerByID(playerID uuid.UUID) *models.Player {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// removeCardFromHand detaches a card from the player's hand by id and
// returns the hand's own instance, or nil if absent.
// Assumes Mu is held by the caller.
func (g *Game) removeCardFromHand(player *models.Player, cardID uuid.UUID) *models.Card {
	for i, c := range player.Hand {
		if c.ID == cardID {
			player.Hand = append(player.Hand[:i], player.Hand[i+1:]...)
			return c
		}
	}
	return nil
}

// findCardByID locates a card anywhere in the game: hands first, then the
// discard pile, then the deck.
// Assumes Mu is held by the caller.
func (g *Game) findCardByID(cardID uuid.UUID) *models.Card {
	for _, p := range g.Players {
		for _, c := range p.Hand {
			if c.ID == cardID {
				return c
			}
		}
	}
	for _, c := range g.DiscardPile {
		if c.ID == cardID {
			return c
		}
	}
	for _, c := range g.Deck {
		if c.ID == cardID {
			return c
		}
	}
	return nil
}

// recordSyncAction queues an applied physical action for the sync historian.
// Best effort and asynchronous: a missing Redis client is silently skipped
// so the engine keeps working without the sync pipeline.
// Assumes Mu is held by the caller.
func (g *Game) recordSyncAction(a models.Action, method models.InputMethod) {
	var cardID uuid.UUID
	if a.Card != nil {
		cardID = a.Card.ID
	}
	record := cache.SyncActionRecord{
		GameID:     g.ID,
		DeviceID:   g.DeviceID,
		Method:     string(method),
		ActionType: string(a.Type),
		PlayerID:   a.PlayerID,
		CardID:     cardID,
		Timestamp:  a.Timestamp.UnixMilli(),
	}
	go func(rec cache.SyncActionRecord) {
		if cache.Rdb == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishSyncAction(ctx, rec); err != nil {
			log.Printf("Game %s: error publishing sync action to Redis: %v", rec.GameID, err)
		}
	}(record)
}
