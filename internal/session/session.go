package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"demoapps/internal/game"
)

var (
	// ErrNotStarted is returned for actions sent before the match exists.
	ErrNotStarted = errors.New("game not started")
	// ErrUnknownGame is returned when a session is requested for an
	// unregistered game type.
	ErrUnknownGame = errors.New("unknown game type")
)

// Status represents the session lifecycle.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Player represents a connected player.
type Player struct {
	ID   string
	Send chan []byte // outbound messages
}

// Session is one running app instance and the players attached to it.
type Session struct {
	mu         sync.RWMutex
	Code       string
	GameType   string
	Status     Status
	HostID     string
	Players    map[string]*Player
	Match      game.Match
	game       game.Game
	lastActive time.Time
	loop       Loop
}

// NewSession creates a session in the waiting state.
func NewSession(code, gameType string, g game.Game) *Session {
	return &Session{
		Code:       code,
		GameType:   gameType,
		Status:     StatusWaiting,
		Players:    make(map[string]*Player),
		game:       g,
		lastActive: time.Now(),
	}
}

// AddPlayer adds a player to the session. Returns error if full or already playing.
func (s *Session) AddPlayer(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusWaiting {
		return fmt.Errorf("session is not accepting players")
	}
	info := s.game.Info()
	if len(s.Players) >= info.MaxPlayers {
		return fmt.Errorf("session is full")
	}
	if _, exists := s.Players[playerID]; exists {
		return fmt.Errorf("player %s already in session", playerID)
	}
	s.addPlayerLocked(playerID)
	return nil
}

func (s *Session) addPlayerLocked(playerID string) {
	s.Players[playerID] = &Player{
		ID:   playerID,
		Send: make(chan []byte, 64),
	}
	if s.HostID == "" {
		s.HostID = playerID
	}
}

// RemovePlayer removes a player from the session.
func (s *Session) RemovePlayer(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.Players[playerID]; ok {
		close(p.Send)
		delete(s.Players, playerID)
	}
}

// ConnectPlayer replaces the Send channel for a reconnecting player.
func (s *Session) ConnectPlayer(playerID string, send chan []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Players[playerID]
	if !ok {
		return false
	}
	p.Send = send
	s.lastActive = time.Now()
	return true
}

// PlayerIDs returns the player IDs in sorted order.
func (s *Session) PlayerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playerIDsLocked()
}

func (s *Session) playerIDsLocked() []string {
	ids := make([]string, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Start transitions the session from waiting to playing and creates the match.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusWaiting {
		return fmt.Errorf("session is not in waiting state")
	}
	info := s.game.Info()
	if len(s.Players) < info.MinPlayers {
		return fmt.Errorf("need at least %d players, have %d", info.MinPlayers, len(s.Players))
	}

	s.Match = s.game.NewMatch(game.MatchConfig{PlayerIDs: s.playerIDsLocked()})
	s.Status = StatusPlaying
	s.lastActive = time.Now()
	return nil
}

// Finish marks the session as finished.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusFinished
}

// settleLocked reconciles the session status with the match after a state
// change. A single-player app can leave its terminal state (a new deal, a
// restarted snake), which puts the session back into play. It returns the
// results to record when the match has just ended.
func (s *Session) settleLocked() []game.PlayerResult {
	s.lastActive = time.Now()
	over := s.Match.IsOver()
	switch {
	case over && s.Status != StatusFinished:
		s.Status = StatusFinished
		return s.Match.Results()
	case !over && s.Status == StatusFinished:
		s.Status = StatusPlaying
	}
	return nil
}

// Broadcast sends a message to all connected players.
func (s *Session) Broadcast(msg []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.Players {
		select {
		case p.Send <- msg:
		default:
			// drop message if buffer full
		}
	}
}

// GetPlayer returns a player's send channel, or nil if not found.
func (s *Session) GetPlayer(playerID string) *Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Players[playerID]
}

// Info returns session info for the API.
type Info struct {
	Code     string   `json:"code"`
	GameType string   `json:"gameType"`
	Status   Status   `json:"status"`
	Players  []string `json:"players"`
	HostID   string   `json:"hostId"`
}

func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.infoLocked()
}

// InfoLocked returns info without acquiring the lock (caller must hold it).
func (s *Session) InfoLocked() Info {
	return s.infoLocked()
}

func (s *Session) infoLocked() Info {
	return Info{
		Code:     s.Code,
		GameType: s.GameType,
		Status:   s.Status,
		Players:  s.playerIDsLocked(),
		HostID:   s.HostID,
	}
}

// Lock/RLock/Unlock/RUnlock expose the mutex for the server's websocket handler.
func (s *Session) Lock()    { s.mu.Lock() }
func (s *Session) Unlock()  { s.mu.Unlock() }
func (s *Session) RLock()   { s.mu.RLock() }
func (s *Session) RUnlock() { s.mu.RUnlock() }
