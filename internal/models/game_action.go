package models

import (
	"time"

	"github.com/google/uuid"
)

// ActionType discriminates the five player actions the engine processes.
type ActionType string

const (
	ActionPlayCard     ActionType = "play_card"
	ActionDrawCard     ActionType = "draw_card"
	ActionChooseColor  ActionType = "choose_color"
	ActionCallUno      ActionType = "call_uno"
	ActionChallengeUno ActionType = "challenge_uno"
)

// Action captures a player's in-game move. Card, ChosenColor and TargetPlayer
// are type-specific payloads: Card for play_card, ChosenColor for
// choose_color, TargetPlayer for challenge_uno.
type Action struct {
	Type         ActionType `json:"type"`
	PlayerID     uuid.UUID  `json:"playerId"`
	Timestamp    time.Time  `json:"timestamp"`
	Card         *Card      `json:"card,omitempty"`
	ChosenColor  Color      `json:"chosenColor,omitempty"`
	TargetPlayer uuid.UUID  `json:"targetPlayer,omitempty"`
}

// InputMethod identifies how a physical card entered the system.
type InputMethod string

const (
	InputQRScan      InputMethod = "qr_scan"
	InputManualEntry InputMethod = "manual_entry"
	InputCardScan    InputMethod = "card_scan"
)

// PhysicalCardInput is one scan or manual entry event from a table device,
// reconciled against the canonical game state.
type PhysicalCardInput struct {
	Method     InputMethod `json:"method"`
	CardID     uuid.UUID   `json:"cardId"`
	PlayerID   uuid.UUID   `json:"playerId"`
	Timestamp  time.Time   `json:"timestamp"`
	Confidence float64     `json:"confidence,omitempty"`
}
