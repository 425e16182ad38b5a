package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/joemdev/pool-scoreboard/internal/model"
)

func newRng(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

// memStore backs the engine tests with an in-memory implementation of all
// four store interfaces.  IDs grow monotonically, so insertion order doubles
// as creation order for the newest-first listings.
type memStore struct {
	seq      uint64
	sessions map[uint64]*model.Session
	games    map[uint64]*model.Game
	kelly    map[uint64]*model.KellyGame
	history  []model.KellyHistoryEntry
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[uint64]*model.Session),
		games:    make(map[uint64]*model.Game),
		kelly:    make(map[uint64]*model.KellyGame),
	}
}

func (m *memStore) nextID() uint64 {
	m.seq++
	return m.seq
}

// ── SessionStore ────────────────────────────────────

func (m *memStore) Get(ctx context.Context, id uint64) (*model.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) FindActive(ctx context.Context) (*model.Session, error) {
	for _, s := range m.sessions {
		if s.Status == model.SessionActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) Insert(ctx context.Context, s *model.Session) error {
	s.ID = m.nextID()
	s.CreatedAt = time.Unix(int64(s.ID), 0)
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memStore) UpdateTallies(ctx context.Context, id uint64, matisseWins, joeWins int) error {
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.MatisseWins = matisseWins
	s.JoeWins = joeWins
	return nil
}

func (m *memStore) Complete(ctx context.Context, id uint64, matisseWins, joeWins int, winner string) error {
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.MatisseWins = matisseWins
	s.JoeWins = joeWins
	s.Status = model.SessionCompleted
	s.Winner = &winner
	return nil
}

func (m *memStore) Cancel(ctx context.Context, id uint64) error {
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.Status = model.SessionCancelled
	return nil
}

func (m *memStore) ListCompleted(ctx context.Context, desc bool) ([]model.Session, error) {
	var out []model.Session
	for id := uint64(1); id <= m.seq; id++ {
		if s, ok := m.sessions[id]; ok && s.Status == model.SessionCompleted {
			out = append(out, *s)
		}
	}
	if desc {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// ── GameStore ───────────────────────────────────────

type memGameStore struct{ *memStore }

func (m *memGameStore) Insert(ctx context.Context, g *model.Game) error {
	g.ID = m.nextID()
	g.CreatedAt = time.Unix(int64(g.ID), 0)
	cp := *g
	m.games[g.ID] = &cp
	return nil
}

func (m *memGameStore) ListBySession(ctx context.Context, sessionID uint64) ([]model.Game, error) {
	var out []model.Game
	for id := uint64(1); id <= m.seq; id++ {
		if g, ok := m.games[id]; ok && g.SessionID == sessionID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *memGameStore) Delete(ctx context.Context, id uint64) error {
	if _, ok := m.games[id]; !ok {
		return ErrNotFound
	}
	delete(m.games, id)
	return nil
}

func (m *memGameStore) DeleteBySession(ctx context.Context, sessionID uint64) error {
	for id, g := range m.games {
		if g.SessionID == sessionID {
			delete(m.games, id)
		}
	}
	return nil
}

func (m *memGameStore) CountByWinner(ctx context.Context) (int, int, error) {
	matisse, joe := 0, 0
	for _, g := range m.games {
		switch g.Winner {
		case model.WinnerMatisse:
			matisse++
		case model.WinnerJoe:
			joe++
		}
	}
	return matisse, joe, nil
}

// ── KellyStore ──────────────────────────────────────

type memKellyStore struct{ *memStore }

func copyKelly(g *model.KellyGame) *model.KellyGame {
	cp := *g
	cp.Players = append([]model.KellyPlayer(nil), g.Players...)
	for i := range cp.Players {
		cp.Players[i].SecretBalls = append([]int(nil), g.Players[i].SecretBalls...)
	}
	cp.BallsPocketed = append([]int(nil), g.BallsPocketed...)
	return &cp
}

func (m *memKellyStore) Get(ctx context.Context, id uint64) (*model.KellyGame, error) {
	g, ok := m.kelly[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyKelly(g), nil
}

func (m *memKellyStore) FindCurrent(ctx context.Context) (*model.KellyGame, error) {
	for _, g := range m.kelly {
		if g.Status == model.KellySetup || g.Status == model.KellyActive {
			return copyKelly(g), nil
		}
	}
	return nil, ErrNotFound
}

func (m *memKellyStore) FindLatestFinished(ctx context.Context) (*model.KellyGame, error) {
	for id := m.seq; id >= 1; id-- {
		if g, ok := m.kelly[id]; ok && g.Status == model.KellyFinished {
			return copyKelly(g), nil
		}
	}
	return nil, ErrNotFound
}

func (m *memKellyStore) Insert(ctx context.Context, g *model.KellyGame) error {
	g.ID = m.nextID()
	g.CreatedAt = time.Unix(int64(g.ID), 0)
	m.kelly[g.ID] = copyKelly(g)
	return nil
}

func (m *memKellyStore) SaveProgress(ctx context.Context, id uint64, players []model.KellyPlayer, ballsPocketed []int) error {
	g, ok := m.kelly[id]
	if !ok {
		return ErrNotFound
	}
	g.Players = append([]model.KellyPlayer(nil), players...)
	g.BallsPocketed = append([]int(nil), ballsPocketed...)
	return nil
}

func (m *memKellyStore) Finish(ctx context.Context, id uint64, players []model.KellyPlayer, ballsPocketed []int, winner string, endedAt time.Time) error {
	g, ok := m.kelly[id]
	if !ok {
		return ErrNotFound
	}
	g.Players = append([]model.KellyPlayer(nil), players...)
	g.BallsPocketed = append([]int(nil), ballsPocketed...)
	g.Status = model.KellyFinished
	g.Winner = &winner
	g.EndedAt = &endedAt
	return nil
}

func (m *memKellyStore) Cancel(ctx context.Context, id uint64) error {
	g, ok := m.kelly[id]
	if !ok {
		return ErrNotFound
	}
	g.Status = model.KellyCancelled
	return nil
}

func (m *memKellyStore) ListFinished(ctx context.Context) ([]model.KellyGame, error) {
	var out []model.KellyGame
	for id := m.seq; id >= 1; id-- {
		if g, ok := m.kelly[id]; ok && g.Status == model.KellyFinished {
			out = append(out, *copyKelly(g))
		}
	}
	return out, nil
}

// ── KellyHistoryStore ───────────────────────────────

type memHistoryStore struct{ *memStore }

func (m *memHistoryStore) Append(ctx context.Context, e *model.KellyHistoryEntry) error {
	e.ID = m.nextID()
	m.history = append(m.history, *e)
	return nil
}

func (m *memHistoryStore) ListByGame(ctx context.Context, gameID uint64) ([]model.KellyHistoryEntry, error) {
	var out []model.KellyHistoryEntry
	for _, e := range m.history {
		if e.KellyGameID == gameID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memHistoryStore) DeleteByGame(ctx context.Context, gameID uint64) error {
	kept := m.history[:0]
	for _, e := range m.history {
		if e.KellyGameID != gameID {
			kept = append(kept, e)
		}
	}
	m.history = kept
	return nil
}

// newTestEngines wires both engines over a shared memStore.
func newTestEngines(rngSeed int64) (*SessionEngine, *KellyEngine, *memStore) {
	m := newMemStore()
	se := NewSessionEngine(m, &memGameStore{m})
	var tick int64
	now := func() time.Time {
		tick++
		return time.Unix(1_700_000_000+tick, 0)
	}
	ke := NewKellyEngine(&memKellyStore{m}, &memHistoryStore{m}, newRng(rngSeed), now)
	return se, ke, m
}
