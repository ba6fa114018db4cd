// internal/game/game_test.go
package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unomirror/server/internal/models"
)

// setupTestGame initializes a freshly dealt game with the given player count.
func setupTestGame(t *testing.T, numPlayers int) (*Game, []*models.Player) {
	t.Helper()
	players := make([]*models.Player, numPlayers)
	names := []string{"Alice", "Bob", "Carol", "Dave", "Eve"}
	for i := 0; i < numPlayers; i++ {
		id, _ := uuid.NewRandom()
		players[i] = &models.Player{ID: id, Name: names[i%len(names)]}
	}
	g, err := NewGame(players)
	require.NoError(t, err)
	return g, players
}

// newFixedGame builds a game with hand-picked hands, deck and discard pile so
// scenarios are deterministic. The first player owns the turn.
func newFixedGame(t *testing.T, hands [][]*models.Card, deck, discard []*models.Card) (*Game, []*models.Player) {
	t.Helper()
	require.GreaterOrEqual(t, len(hands), 2, "fixed games need at least 2 hands")
	players := make([]*models.Player, len(hands))
	names := []string{"Alice", "Bob", "Carol", "Dave", "Eve"}
	for i, hand := range hands {
		id, _ := uuid.NewRandom()
		players[i] = &models.Player{ID: id, Name: names[i%len(names)], Hand: hand}
	}
	id, _ := uuid.NewRandom()
	return &Game{
		ID:          id,
		Players:     players,
		Deck:        deck,
		DiscardPile: discard,
		Direction:   DirectionClockwise,
		UnoCallouts: make(map[uuid.UUID]bool),
		Status:      StatusActive,
		SyncStatus:  SyncSynced,
		DeviceID:    uuid.NewString(),
		rng:         rand.New(rand.NewSource(7)),
	}, players
}

func playAction(playerID uuid.UUID, card *models.Card) models.Action {
	return models.Action{
		Type:      models.ActionPlayCard,
		PlayerID:  playerID,
		Timestamp: time.Now(),
		Card:      card,
	}
}

// countCards totals every card across hands, deck and discard pile.
func countCards(g *Game) int {
	total := len(g.Deck) + len(g.DiscardPile)
	for _, p := range g.Players {
		total += len(p.Hand)
	}
	return total
}

func TestNewGameInitialization(t *testing.T) {
	g, players := setupTestGame(t, 3)

	for _, p := range players {
		assert.Len(t, p.Hand, 7, "each player is dealt 7 cards")
	}
	require.Len(t, g.DiscardPile, 1)
	assert.Equal(t, models.CardNumber, g.DiscardPile[0].Type, "discard pile starts with a number card")
	assert.Len(t, g.Deck, DeckSize-3*7-1)

	assert.Equal(t, StatusWaiting, g.Status)
	assert.Equal(t, DirectionClockwise, g.Direction)
	assert.Equal(t, players[0].ID, g.CurrentTurn())
	assert.Equal(t, SyncSynced, g.SyncStatus)
	assert.NotEmpty(t, g.DeviceID)
	assert.Equal(t, DeckSize, countCards(g))
}

func TestNewGameRequiresTwoPlayers(t *testing.T) {
	id, _ := uuid.NewRandom()
	_, err := NewGame([]*models.Player{{ID: id, Name: "Loner"}})
	require.Error(t, err)

	_, err = NewGame(nil)
	require.Error(t, err)
}

func TestPlayCardAdvancesTurnAndActivates(t *testing.T) {
	played := models.NewNumberCard(models.ColorRed, 5)
	hands := [][]*models.Card{
		{played, models.NewNumberCard(models.ColorBlue, 1)},
		{models.NewNumberCard(models.ColorGreen, 2)},
		{models.NewNumberCard(models.ColorYellow, 3)},
	}
	g, players := newFixedGame(t, hands, nil, []*models.Card{models.NewNumberCard(models.ColorRed, 9)})
	g.Status = StatusWaiting

	err := g.ApplyAction(playAction(players[0].ID, played))
	require.NoError(t, err)

	assert.Equal(t, StatusActive, g.Status, "first play activates a waiting game")
	assert.Equal(t, players[1].ID, g.CurrentTurn())
	assert.Equal(t, played.ID, g.topOfDiscard().ID)
	assert.Len(t, players[0].Hand, 1)
	require.NotNil(t, g.LastAction)
	assert.Equal(t, models.ActionPlayCard, g.LastAction.Type)
}

func TestSkipBypassesNextPlayer(t *testing.T) {
	skip := models.NewActionCard(models.ColorRed, models.CardSkip)
	hands := [][]*models.Card{
		{skip, models.NewNumberCard(models.ColorBlue, 1)},
		{models.NewNumberCard(models.ColorGreen, 2)},
		{models.NewNumberCard(models.ColorYellow, 3)},
	}
	g, players := newFixedGame(t, hands, nil, []*models.Card{models.NewNumberCard(models.ColorRed, 9)})

	require.NoError(t, g.ApplyAction(playAction(players[0].ID, skip)))
	assert.Equal(t, players[2].ID, g.CurrentTurn(), "skip jumps over the next player")
}

func TestReverseFlipsDirection(t *testing.T) {
	rev := models.NewActionCard(models.ColorRed, models.CardReverse)
	hands := [][]*models.Card{
		{rev, models.NewNumberCard(models.ColorBlue, 1)},
		{models.NewNumberCard(models.ColorGreen, 2)},
		{models.NewNumberCard(models.ColorYellow, 3)},
	}
	g, players := newFixedGame(t, hands, nil, []*models.Card{models.NewNumberCard(models.ColorRed, 9)})

	require.NoError(t, g.ApplyAction(playAction(players[0].ID, rev)))
	assert.Equal(t, DirectionCounterclockwise, g.Direction)
	assert.Equal(t, players[2].ID, g.CurrentTurn(), "after a reverse the turn walks backwards")
}

func TestDrawTwoForcesDrawAndSkipsDrawer(t *testing.T) {
	drawTwo := models.NewActionCard(models.ColorRed, models.CardDrawTwo)
	hands := [][]*models.Card{
		{drawTwo, models.NewNumberCard(models.ColorBlue, 1)},
		{models.NewNumberCard(models.ColorGreen, 2)},
		{models.NewNumberCard(models.ColorYellow, 3)},
	}
	deck := []*models.Card{
		models.NewNumberCard(models.ColorBlue, 4),
		models.NewNumberCard(models.ColorBlue, 5),
	}
	g, players := newFixedGame(t, hands, deck, []*models.Card{models.NewNumberCard(models.ColorRed, 9)})

	require.NoError(t, g.ApplyAction(playAction(players[0].ID, drawTwo)))
	assert.Len(t, players[1].Hand, 3, "next player draws 2")
	assert.Equal(t, 0, g.DrawStack)
	// The forced draw consumes the drawer's turn as well.
	assert.Equal(t, players[2].ID, g.CurrentTurn())
	assert.Equal(t, 7, countCards(g), "the fixture's cards are conserved")
}

func TestWildDrawFourForcesDraw(t *testing.T) {
	wild4 := models.NewWildCard(models.CardWildDrawFour)
	hands := [][]*models.Card{
		{wild4, models.NewNumberCard(models.ColorBlue, 1)},
		{models.NewNumberCard(models.ColorGreen, 2)},
	}
	deck := []*models.Card{
		models.NewNumberCard(models.ColorBlue, 4),
		models.NewNumberCard(models.ColorBlue, 5),
		models.NewNumberCard(models.ColorBlue, 6),
		models.NewNumberCard(models.ColorBlue, 7),
	}
	g, players := newFixedGame(t, hands, deck, []*models.Card{models.NewNumberCard(models.ColorRed, 9)})

	require.NoError(t, g.ApplyAction(playAction(players[0].ID, wild4)))
	assert.Len(t, players[1].Hand, 5, "next player draws 4")
	assert.Empty(t, g.Deck)
	// With two players the double advance lands back on the drawer.
	assert.Equal(t, players[1].ID, g.CurrentTurn())
}

func TestWinOnLastCardSkipsEffects(t *testing.T) {
	lastSkip := models.NewActionCard(models.ColorRed, models.CardSkip)
	hands := [][]*models.Card{
		{lastSkip},
		{models.NewNumberCard(models.ColorGreen, 2)},
		{models.NewNumberCard(models.ColorYellow, 3)},
	}
	g, players := newFixedGame(t, hands, nil, []*models.Card{models.NewNumberCard(models.ColorRed, 9)})

	require.NoError(t, g.ApplyAction(playAction(players[0].ID, lastSkip)))
	assert.Equal(t, StatusFinished, g.Status)
	assert.Equal(t, players[0].ID, g.Winner)
	assert.Equal(t, players[0].ID, g.CurrentTurn(), "turn pointer freezes on the winner")
	assert.Empty(t, players[0].Hand)
}

func TestWinOnLastDrawCardSkipsForcedDraw(t *testing.T) {
	lastDrawTwo := models.NewActionCard(models.ColorRed, models.CardDrawTwo)
	hands := [][]*models.Card{
		{lastDrawTwo},
		{models.NewNumberCard(models.ColorGreen, 2)},
	}
	g, players := newFixedGame(t, hands, nil, []*models.Card{models.NewNumberCard(models.ColorRed, 9)})

	require.NoError(t, g.ApplyAction(playAction(players[0].ID, lastDrawTwo)))
	assert.Equal(t, StatusFinished, g.Status)
	assert.Len(t, players[1].Hand, 1, "no forced draw after a winning play")
	assert.Equal(t, 0, g.DrawStack)
}

func TestFinishedGameIsReadOnly(t *testing.T) {
	winning := models.NewNumberCard(models.ColorRed, 5)
	loserCard := models.NewNumberCard(models.ColorGreen, 2)
	hands := [][]*models.Card{
		{winning},
		{loserCard, models.NewNumberCard(models.ColorGreen, 3)},
	}
	deck := []*models.Card{models.NewNumberCard(models.ColorYellow, 8)}
	g, players := newFixedGame(t, hands, deck, []*models.Card{models.NewNumberCard(models.ColorRed, 9)})

	require.NoError(t, g.ApplyAction(playAction(players[0].ID, winning)))
	require.Equal(t, StatusFinished, g.Status)
	discardBefore := len(g.DiscardPile)

	err := g.ApplyAction(models.Action{Type: models.ActionDrawCard, PlayerID: players[1].ID})
	require.Error(t, err, "draw after the win must be rejected")

	err = g.ApplyAction(playAction(players[1].ID, loserCard))
	require.Error(t, err, "play after the win must be rejected")

	err = g.ApplyAction(models.Action{Type: models.ActionCallUno, PlayerID: players[1].ID})
	require.Error(t, err)

	assert.Len(t, players[1].Hand, 2, "finished state stays untouched")
	assert.Len(t, g.DiscardPile, discardBefore)
	assert.Equal(t, players[0].ID, g.Winner)
}

func TestDrawCardDoesNotAdvanceTurn(t *testing.T) {
	hands := [][]*models.Card{
		{models.NewNumberCard(models.ColorBlue, 1)},
		{models.NewNumberCard(models.ColorGreen, 2)},
	}
	deck := []*models.Card{models.NewNumberCard(models.ColorYellow, 8)}
	g, players := newFixedGame(t, hands, deck, []*models.Card{models.NewNumberCard(models.ColorRed, 9)})

	err := g.ApplyAction(models.Action{Type: models.ActionDrawCard, PlayerID: players[0].ID, Timestamp: time.Now()})
	require.NoError(t, err)
	assert.Len(t, players[0].Hand, 2)
	assert.Equal(t, players[0].ID, g.CurrentTurn(), "drawing never passes the turn")
}

func TestChooseColorSetsChosenColorOnTop(t *testing.T) {
	wild := models.NewWildCard(models.CardWild)
	hands := [][]*models.Card{
		{models.NewNumberCard(models.ColorBlue, 1)},
		{models.NewNumberCard(models.ColorGreen, 2)},
	}
	g, players := newFixedGame(t, hands, nil, []*models.Card{wild})

	err := g.ApplyAction(models.Action{
		Type:        models.ActionChooseColor,
		PlayerID:    players[0].ID,
		Timestamp:   time.Now(),
		ChosenColor: models.ColorGreen,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ColorGreen, g.topOfDiscard().ChosenColor)
	assert.Equal(t, models.ColorGreen, g.topOfDiscard().EffectiveColor())
}

func TestChooseColorRejectsInvalidColor(t *testing.T) {
	hands := [][]*models.Card{
		{models.NewNumberCard(models.ColorBlue, 1)},
		{models.NewNumberCard(models.ColorGreen, 2)},
	}
	g, players := newFixedGame(t, hands, nil, []*models.Card{models.NewWildCard(models.CardWild)})

	err := g.ApplyAction(models.Action{
		Type:        models.ActionChooseColor,
		PlayerID:    players[0].ID,
		ChosenColor: models.Color("purple"),
	})
	require.Error(t, err)

	err = g.ApplyAction(models.Action{Type: models.ActionChooseColor, PlayerID: players[0].ID})
	require.Error(t, err, "missing chosenColor payload")
}

func TestChallengeUnoPenalizesUncalledPlayer(t *testing.T) {
	hands := [][]*models.Card{
		{models.NewNumberCard(models.ColorBlue, 1), models.NewNumberCard(models.ColorBlue, 2)},
		{models.NewNumberCard(models.ColorGreen, 2)},
	}
	deck := []*models.Card{
		models.NewNumberCard(models.ColorYellow, 8),
		models.NewNumberCard(models.ColorYellow, 9),
	}
	g, players := newFixedGame(t, hands, deck, []*models.Card{models.NewNumberCard(models.ColorRed, 9)})

	err := g.ApplyAction(models.Action{
		Type:         models.ActionChallengeUno,
		PlayerID:     players[0].ID,
		TargetPlayer: players[1].ID,
	})
	require.NoError(t, err)
	assert.Len(t, players[1].Hand, 3, "caught with one card and no callout draws 2")
}

func TestChallengeUnoNoPenaltyAfterCallout(t *testing.T) {
	hands := [][]*models.Card{
		{models.NewNumberCard(models.ColorBlue, 1)},
		{models.NewNumberCard(models.ColorGreen, 2)},
	}
	g, players := newFixedGame(t, hands, nil, []*models.Card{models.NewNumberCard(models.ColorRed, 9)})

	require.NoError(t, g.ApplyAction(models.Action{Type: models.ActionCallUno, PlayerID: players[1].ID}))
	assert.True(t, g.UnoCallouts[players[1].ID])

	err := g.ApplyAction(models.Action{
		Type:         models.ActionChallengeUno,
		PlayerID:     players[0].ID,
		TargetPlayer: players[1].ID,
	})
	require.NoError(t, err)
	assert.Len(t, players[1].Hand, 1, "a called-out player is safe from challenges")
}

func TestChallengeUnoNoPenaltyWithLargerHand(t *testing.T) {
	hands := [][]*models.Card{
		{models.NewNumberCard(models.ColorBlue, 1)},
		{models.NewNumberCard(models.ColorGreen, 2), models.NewNumberCard(models.ColorGreen, 3)},
	}
	g, players := newFixedGame(t, hands, nil, []*models.Card{models.NewNumberCard(models.ColorRed, 9)})

	err := g.ApplyAction(models.Action{
		Type:         models.ActionChallengeUno,
		PlayerID:     players[0].ID,
		TargetPlayer: players[1].ID,
	})
	require.NoError(t, err)
	assert.Len(t, players[1].Hand, 2, "only one-card hands are challengeable")
}

func TestDrawReshufflesFromDiscard(t *testing.T) {
	buriedWild := models.NewWildCard(models.CardWild)
	buriedWild.ChosenColor = models.ColorRed
	top := models.NewNumberCard(models.ColorRed, 9)
	hands := [][]*models.Card{
		{models.NewNumberCard(models.ColorBlue, 1)},
		{models.NewNumberCard(models.ColorGreen, 2)},
	}
	g, players := newFixedGame(t, hands, nil, []*models.Card{buriedWild, top})

	err := g.DrawCards(players[0].ID, 1)
	require.NoError(t, err)

	require.Len(t, g.DiscardPile, 1)
	assert.Equal(t, top.ID, g.topOfDiscard().ID, "top card survives the reshuffle")
	require.Len(t, players[0].Hand, 2)
	drawn := players[0].Hand[1]
	assert.Equal(t, buriedWild.ID, drawn.ID)
	assert.Empty(t, drawn.ChosenColor, "reshuffled wilds forget their chosen color")
}

func TestDrawFailsOnDeadDeck(t *testing.T) {
	hands := [][]*models.Card{
		{models.NewNumberCard(models.ColorBlue, 1)},
		{models.NewNumberCard(models.ColorGreen, 2)},
	}
	g, players := newFixedGame(t, hands, nil, []*models.Card{models.NewNumberCard(models.ColorRed, 9)})

	err := g.DrawCards(players[0].ID, 1)
	require.ErrorIs(t, err, ErrDeadDeck)
	assert.Len(t, players[0].Hand, 1, "a dead deck draws nothing")
}

func TestApplyActionRejectsMalformedActions(t *testing.T) {
	hands := [][]*models.Card{
		{models.NewNumberCard(models.ColorBlue, 1)},
		{models.NewNumberCard(models.ColorGreen, 2)},
	}
	g, players := newFixedGame(t, hands, nil, []*models.Card{models.NewNumberCard(models.ColorRed, 9)})

	err := g.ApplyAction(models.Action{Type: "slap_table", PlayerID: players[0].ID})
	require.Error(t, err, "unknown action type")

	err = g.ApplyAction(models.Action{Type: models.ActionPlayCard, PlayerID: players[0].ID})
	require.Error(t, err, "play without card payload")

	stranger, _ := uuid.NewRandom()
	err = g.ApplyAction(models.Action{Type: models.ActionDrawCard, PlayerID: stranger})
	require.Error(t, err, "unknown player")

	notInHand := models.NewNumberCard(models.ColorRed, 4)
	err = g.ApplyAction(playAction(players[0].ID, notInHand))
	require.Error(t, err, "card not in hand")

	assert.Nil(t, g.LastAction, "failed actions never become LastAction")
}

func TestCardConservationAcrossFullGameplay(t *testing.T) {
	g, _ := setupTestGame(t, 4)
	require.Equal(t, DeckSize, countCards(g))

	// Churn through draws and plays until the deck has cycled at least once.
	for turns := 0; turns < 200 && g.Status != StatusFinished; turns++ {
		player := g.Players[g.CurrentPlayerIndex]
		moves := g.ValidMoves(player.ID)
		if len(moves) > 0 {
			card := g.findCardByID(moves[0].ID)
			require.NotNil(t, card)
			if err := g.ApplyAction(playAction(player.ID, card)); err != nil {
				require.ErrorIs(t, err, ErrDeadDeck)
				break
			}
			if card.IsWild && g.Status != StatusFinished {
				require.NoError(t, g.ApplyAction(models.Action{
					Type:        models.ActionChooseColor,
					PlayerID:    player.ID,
					ChosenColor: models.ColorRed,
				}))
			}
		} else {
			err := g.ApplyAction(models.Action{Type: models.ActionDrawCard, PlayerID: player.ID})
			if err != nil {
				require.ErrorIs(t, err, ErrDeadDeck)
				break
			}
			g.advanceTurn()
		}
		require.Equal(t, DeckSize, countCards(g), "conservation must hold after every action")
	}

	assert.Equal(t, DeckSize, countCards(g))
}
