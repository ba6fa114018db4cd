package game

import (
	"sync"

	"github.com/google/uuid"
)

// GameStore holds the live games this process is mirroring, keyed by game id.
type GameStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]*Game
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[uuid.UUID]*Game),
	}
}

func (s *GameStore) AddGame(game *Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game
}

func (s *GameStore) GetGame(id uuid.UUID) (*Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.games[id]
	return g, exists
}

func (s *GameStore) DeleteGame(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
}

// GetGameByDeviceID returns the game whose table device registered the given
// device id, or nil if none is found.
func (s *GameStore) GetGameByDeviceID(deviceID string) *Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.games {
		if g.DeviceID == deviceID {
			return g
		}
	}
	return nil
}
