// internal/game/reconciler.go
package game

import (
	"log"

	"github.com/unomirror/server/internal/models"
)

// InputResult is the typed outcome of reconciling one physical card input.
// Failures are returned, never raised: UI and device callers display Message
// directly.
type InputResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Action  *models.Action `json:"action,omitempty"`
}

// ProcessPhysicalInput reconciles a scan or manual entry against the
// canonical state: the referenced card must exist somewhere in the game, the
// scanning player must own the turn, and the play must pass validation. On
// success the resulting play_card action is applied, queued on
// PendingActions for device synchronization, and published to the sync
// queue.
// Assumes Mu is held by the caller.
func (g *Game) ProcessPhysicalInput(input models.PhysicalCardInput) InputResult {
	card := g.findCardByID(input.CardID)
	if card == nil {
		return InputResult{Message: "card not found"}
	}
	if input.PlayerID != g.CurrentTurn() {
		return InputResult{Message: "not your turn"}
	}
	if v := g.ValidatePlay(card, input.PlayerID); !v.Valid {
		return InputResult{Message: v.Reason}
	}

	played := *card
	action := models.Action{
		Type:      models.ActionPlayCard,
		PlayerID:  input.PlayerID,
		Timestamp: input.Timestamp,
		Card:      &played,
	}
	if err := g.ApplyAction(action); err != nil {
		// Validation above makes this unreachable short of a dead deck
		// during a forced draw; surface it as a failed input either way.
		log.Printf("Game %s: physical input for card %s failed to apply: %v", g.ID, input.CardID, err)
		return InputResult{Message: err.Error()}
	}

	g.PendingActions = append(g.PendingActions, action)
	g.SyncStatus = SyncPending
	g.recordSyncAction(action, input.Method)
	return InputResult{Success: true, Message: "card played", Action: &action}
}
