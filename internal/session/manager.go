package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"demoapps/internal/game"
	"demoapps/internal/storage"
)

// persistTimeout bounds store writes made from ticker goroutines, which have
// no request context to inherit.
const persistTimeout = 5 * time.Second

// Manager manages all active sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	registry *game.Registry
	store    *storage.Store
	log      *zap.Logger
	onTick   func(*Session)
}

// NewManager creates a session manager.
func NewManager(registry *game.Registry, store *storage.Store, log *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		registry: registry,
		store:    store,
		log:      log,
	}
}

// OnTick registers fn to be called after every realtime tick that changed a
// match. It must be set before any session starts.
func (m *Manager) OnTick(fn func(*Session)) {
	m.onTick = fn
}

// Create makes a new session and persists it.
func (m *Manager) Create(ctx context.Context, gameType string) (*Session, error) {
	g, ok := m.registry.Get(gameType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, gameType)
	}
	code := generateCode()
	if err := m.store.CreateSession(ctx, code, gameType); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	s := NewSession(code, gameType, g)
	m.mu.Lock()
	m.sessions[code] = s
	m.mu.Unlock()
	m.log.Debug("session created", zap.String("code", code), zap.String("game", gameType))
	return s, nil
}

// Get returns a session by code.
func (m *Manager) Get(code string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[code]
	return s, ok
}

// List returns info for all active sessions.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// Join seats playerID in the session and persists the roster.
func (m *Manager) Join(ctx context.Context, s *Session, playerID string) error {
	if err := s.AddPlayer(playerID); err != nil {
		return err
	}
	return m.SaveSessionPlayers(ctx, s)
}

// Start creates the session's match, persists it and, for realtime games,
// syncs the ticker.
func (m *Manager) Start(ctx context.Context, s *Session) error {
	if err := s.Start(); err != nil {
		return err
	}
	if err := m.SaveMatchState(ctx, s); err != nil {
		m.log.Error("save match state", zap.String("code", s.Code), zap.Error(err))
	}
	m.syncTicker(s)
	return nil
}

// Apply runs one player action against the session's match. Rule failures
// from the match are returned unchanged; persistence failures are logged.
func (m *Manager) Apply(ctx context.Context, s *Session, playerID string, action game.Action) error {
	s.mu.Lock()
	if s.Match == nil {
		s.mu.Unlock()
		return ErrNotStarted
	}
	if err := s.Match.ApplyAction(playerID, action); err != nil {
		s.mu.Unlock()
		return err
	}
	results := s.settleLocked()
	s.mu.Unlock()

	m.recordScores(ctx, s, results)
	if err := m.SaveMatchState(ctx, s); err != nil {
		m.log.Error("save match state", zap.String("code", s.Code), zap.Error(err))
	}
	m.syncTicker(s)
	return nil
}

// syncTicker starts or stops the session's loop to match whether its
// realtime match is running. The session lock must not be held.
func (m *Manager) syncTicker(s *Session) {
	s.mu.RLock()
	t, ok := s.Match.(game.Ticker)
	running := ok && t.Running()
	var interval time.Duration
	if running {
		interval = t.Interval()
	}
	s.mu.RUnlock()

	if !ok {
		return
	}
	if !running {
		s.loop.Stop()
		return
	}
	if s.loop.Active() {
		return
	}
	s.loop.Start(context.Background(), interval, func() (time.Duration, bool) {
		return m.tick(s)
	})
}

func (m *Manager) tick(s *Session) (time.Duration, bool) {
	s.mu.Lock()
	t, ok := s.Match.(game.Ticker)
	if !ok || !t.Running() {
		s.mu.Unlock()
		return 0, false
	}
	changed := t.Tick()
	results := s.settleLocked()
	over := s.Status == StatusFinished
	next, more := t.Interval(), t.Running()
	s.mu.Unlock()

	if over {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		m.recordScores(ctx, s, results)
		if err := m.SaveMatchState(ctx, s); err != nil {
			m.log.Error("save match state", zap.String("code", s.Code), zap.Error(err))
		}
		cancel()
	}
	if changed && m.onTick != nil {
		m.onTick(s)
	}
	return next, more
}

// recordScores writes results to the score board for games that keep one.
func (m *Manager) recordScores(ctx context.Context, s *Session, results []game.PlayerResult) {
	if len(results) == 0 || !s.game.Info().HighScores {
		return
	}
	for _, r := range results {
		if err := m.store.RecordScore(ctx, s.GameType, r.PlayerID, r.Score); err != nil {
			m.log.Error("record score",
				zap.String("code", s.Code),
				zap.String("player", r.PlayerID),
				zap.Int("score", r.Score),
				zap.Error(err))
			continue
		}
		m.log.Info("score recorded",
			zap.String("game", s.GameType),
			zap.String("player", r.PlayerID),
			zap.Int("score", r.Score))
	}
}

// SaveMatchState persists the current match state for a session.
func (m *Manager) SaveMatchState(ctx context.Context, s *Session) error {
	s.mu.RLock()
	match := s.Match
	status := s.Status
	var data []byte
	var err error
	if match != nil {
		data, err = match.MarshalJSON()
	}
	s.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("marshal match state: %w", err)
	}
	if err := m.store.UpdateSessionStatus(ctx, s.Code, string(status)); err != nil {
		return err
	}
	if match == nil {
		return nil
	}
	return m.store.SaveMatchState(ctx, s.Code, string(data))
}

// SaveSessionPlayers persists the roster and host so reconnecting players
// are recognised after a restart.
func (m *Manager) SaveSessionPlayers(ctx context.Context, s *Session) error {
	s.mu.RLock()
	host := s.HostID
	ids := s.playerIDsLocked()
	s.mu.RUnlock()
	return m.store.UpdateSessionPlayers(ctx, s.Code, host, ids)
}

// Restore loads unfinished sessions from the database on startup. Realtime
// matches come back paused, so no ticker is started here.
func (m *Manager) Restore(ctx context.Context) error {
	rows, err := m.store.ListSessions(ctx, "")
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	restored := 0
	for _, row := range rows {
		if row.Status == string(StatusFinished) {
			continue
		}
		g, ok := m.registry.Get(row.GameType)
		if !ok {
			m.log.Warn("skipping session: unknown game type",
				zap.String("code", row.Code), zap.String("game", row.GameType))
			continue
		}
		s := NewSession(row.Code, row.GameType, g)
		s.Status = Status(row.Status)
		for _, id := range row.Players {
			s.addPlayerLocked(id)
		}
		if row.HostID != "" {
			s.HostID = row.HostID
		}

		if s.Status == StatusPlaying {
			stateJSON, err := m.store.GetMatchState(ctx, row.Code)
			if err != nil {
				m.log.Warn("skipping session: no match state", zap.String("code", row.Code), zap.Error(err))
				continue
			}
			match := g.NewMatch(game.MatchConfig{PlayerIDs: row.Players})
			if err := match.UnmarshalJSON([]byte(stateJSON)); err != nil {
				m.log.Warn("skipping session: unmarshal error", zap.String("code", row.Code), zap.Error(err))
				continue
			}
			s.Match = match
		}
		m.mu.Lock()
		m.sessions[row.Code] = s
		m.mu.Unlock()
		restored++
	}
	m.log.Info("sessions restored", zap.Int("count", restored))
	return nil
}

// Remove stops a session's ticker and deletes it from memory and storage.
func (m *Manager) Remove(ctx context.Context, code string) {
	m.mu.Lock()
	s, ok := m.sessions[code]
	delete(m.sessions, code)
	m.mu.Unlock()
	if ok {
		s.loop.Stop()
	}
	if err := m.store.DeleteSession(ctx, code); err != nil {
		m.log.Error("delete session", zap.String("code", code), zap.Error(err))
	}
}

// Shutdown stops every running ticker. Sessions stay persisted.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()
	for _, s := range sessions {
		s.loop.Stop()
	}
}

// CleanupLoop removes stale sessions every interval until ctx is done.
func (m *Manager) CleanupLoop(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanup(ctx, maxAge)
		}
	}
}

// cleanup drops sessions nobody is seated in and sessions untouched for
// maxAge.
func (m *Manager) cleanup(ctx context.Context, maxAge time.Duration) {
	now := time.Now()
	var stale []string
	m.mu.RLock()
	for code, s := range m.sessions {
		s.mu.RLock()
		empty := len(s.Players) == 0
		idle := now.Sub(s.lastActive) >= maxAge
		s.mu.RUnlock()
		if empty || idle {
			stale = append(stale, code)
		}
	}
	m.mu.RUnlock()

	for _, code := range stale {
		m.log.Info("cleaning up session", zap.String("code", code))
		m.Remove(ctx, code)
	}
}

func generateCode() string {
	b := make([]byte, 3) // 6 hex chars
	rand.Read(b)
	return hex.EncodeToString(b)
}
