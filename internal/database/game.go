// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/unomirror/server/internal/cache"
)

// UpsertGame creates or refreshes the games row for a tracked table.
func UpsertGame(ctx context.Context, gameID uuid.UUID, deviceID string, playerIDs []uuid.UUID) error {
	if DB == nil {
		return ErrNotConnected
	}
	playersJSON, err := json.Marshal(playerIDs)
	if err != nil {
		return fmt.Errorf("marshaling player ids: %w", err)
	}
	q := `
		INSERT INTO games (id, device_id, players, status, created_at)
		VALUES ($1, $2, $3, 'waiting', NOW())
		ON CONFLICT (id)
		DO UPDATE SET device_id = EXCLUDED.device_id, players = EXCLUDED.players
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q, gameID, deviceID, playersJSON)
		return e
	})
}

// SaveExportedState stores the latest full export blob for a game so another
// device can pick the table up mid-session.
func SaveExportedState(ctx context.Context, gameID uuid.UUID, blob []byte) error {
	if DB == nil {
		return ErrNotConnected
	}
	q := `
		UPDATE games
		SET exported_state = $1, updated_at = NOW()
		WHERE id = $2
	`
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q, blob, gameID)
		return e
	})
	if err != nil {
		return fmt.Errorf("storing exported game state: %w", err)
	}
	return nil
}

// LoadExportedState fetches the last saved export blob for a game.
func LoadExportedState(ctx context.Context, gameID uuid.UUID) ([]byte, error) {
	if DB == nil {
		return nil, ErrNotConnected
	}
	var blob []byte
	q := `SELECT exported_state FROM games WHERE id = $1`
	if err := DB.QueryRow(ctx, q, gameID).Scan(&blob); err != nil {
		return nil, fmt.Errorf("loading exported game state: %w", err)
	}
	return blob, nil
}

// MarkGameFinished records the terminal status and winner.
func MarkGameFinished(ctx context.Context, gameID uuid.UUID, winner uuid.UUID) error {
	if DB == nil {
		return ErrNotConnected
	}
	q := `
		UPDATE games
		SET status = 'finished', winner = $1, updated_at = NOW()
		WHERE id = $2
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q, winner, gameID)
		return e
	})
}

// InsertSyncActions persists a batch of physically-entered actions popped
// off the Redis sync queue by the historian.
func InsertSyncActions(ctx context.Context, records []cache.SyncActionRecord) error {
	if DB == nil {
		return ErrNotConnected
	}
	if len(records) == 0 {
		return nil
	}
	q := `
		INSERT INTO game_actions (game_id, device_id, method, action_type, player_id, card_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, to_timestamp($7 / 1000.0))
	`
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if _, e := tx.Exec(ctx, q,
				rec.GameID, rec.DeviceID, rec.Method, rec.ActionType,
				rec.PlayerID, rec.CardID, rec.Timestamp); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx insert sync actions: %w", err)
	}
	log.Printf("Persisted %d sync action(s).", len(records))
	return nil
}
