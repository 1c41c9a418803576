// internal/game/game.go
package game

import (
	"strings"
	"sync"
	"time"

	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Table size accepted at setup.
const (
	MinPlayers = 2
	MaxPlayers = 6
)

// Persister receives the game-state record and the full history after every accepted change.
// Implementations must not block and must not report failures back to the game.
type Persister interface {
	Save(state State, history []models.HistoryEntry)
}

// EntrySink receives every new ledger entry, e.g. to feed the historian queue.
type EntrySink interface {
	PublishEntry(gameID uuid.UUID, entry models.HistoryEntry)
}

// Game is one scoring session from setup until the operator starts a new game.
// Exported methods take Mu; unexported helpers assume it is held.
type Game struct {
	ID uuid.UUID

	Rules   Rules
	Players []*models.Player

	// Turn logic
	CurrentPlayerIndex int
	DrawCount          int

	// Round lifecycle
	RoundNumber   int
	IsRoundActive bool
	Phase         RoundPhase

	// Operator-surface state
	SelectedFormation Formation
	ShowTileSelector  bool
	ShowVictoryInputs bool

	PinHash string

	history *Ledger

	Mu sync.Mutex

	// BroadcastFn is used to send events to connected clients. If nil, no broadcast is done.
	BroadcastFn func(ev GameEvent)

	// Persister saves both records after each change. If nil, nothing is saved.
	Persister Persister

	// Entries receives every appended history entry. May be nil.
	Entries EntrySink

	log *logrus.Entry
	now func() time.Time
}

// NewGame validates the setup input and builds a game whose first round is running,
// with the first player active.
func NewGame(rules Rules, names []string) (*Game, error) {
	if len(names) < MinPlayers || len(names) > MaxPlayers {
		return nil, ErrInvalidPlayerCount
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	players := make([]*models.Player, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, ErrEmptyPlayerName
		}
		players = append(players, models.NewPlayer(name))
	}
	players[0].IsActive = true

	g := newGame(uuid.New(), NewLedger(nil))
	g.Rules = rules
	g.Players = players
	g.RoundNumber = 1
	g.IsRoundActive = true
	g.Phase = PhaseRoundActive
	g.log.WithField("players", len(players)).Info("game created")
	return g, nil
}

// Restore rebuilds a game from its persisted records. A record that does not describe a
// playable game is rejected so the caller can treat it as absent.
func Restore(state State, history []models.HistoryEntry) (*Game, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}
	g := newGame(state.ID, NewLedger(history))
	g.Rules = state.Rules
	g.Players = make([]*models.Player, len(state.Players))
	for i := range state.Players {
		p := state.Players[i]
		g.Players[i] = &p
	}
	g.CurrentPlayerIndex = state.CurrentPlayerIndex
	g.DrawCount = state.DrawCount
	g.RoundNumber = state.RoundNumber
	g.IsRoundActive = state.IsRoundActive
	g.Phase = state.Phase
	if g.Phase == "" {
		g.Phase = g.derivePhase()
	}
	g.SelectedFormation = state.SelectedFormation
	g.ShowTileSelector = state.ShowTileSelector
	g.ShowVictoryInputs = state.ShowVictoryInputs
	g.PinHash = state.PinHash
	if !activeFlagsConsistent(state) {
		g.log.Warn("stored active flags disagree with the current seat; recomputed")
	}
	g.syncActive()
	g.log.WithField("entries", len(history)).Info("game restored")
	return g, nil
}

// activeFlagsConsistent reports whether only the player at the current seat is active,
// and only if that player has not passed.
func activeFlagsConsistent(s State) bool {
	for i, p := range s.Players {
		if p.IsActive != (i == s.CurrentPlayerIndex && !p.HasPassed) {
			return false
		}
	}
	return true
}

func newGame(id uuid.UUID, history *Ledger) *Game {
	return &Game{
		ID:      id,
		history: history,
		log:     logrus.StandardLogger().WithField("game", id),
		now:     time.Now,
	}
}

// SetLogger replaces the logger; the game id field is added.
func (g *Game) SetLogger(logger *logrus.Logger) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.log = logger.WithField("game", g.ID)
}

// derivePhase infers the lifecycle phase from the flags of records that predate phases.
func (g *Game) derivePhase() RoundPhase {
	if !g.IsRoundActive {
		return PhaseRoundSummary
	}
	if g.allPassed() {
		return PhaseAllPassedPending
	}
	return PhaseRoundActive
}

// History returns the full ledger in append order.
func (g *Game) History() []models.HistoryEntry {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.history.Entries()
}

// PlayerHistory returns one player's entries, newest first.
func (g *Game) PlayerHistory(playerID uuid.UUID) ([]models.HistoryEntry, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.getPlayerByID(playerID) == nil {
		return nil, ErrPlayerNotFound
	}
	return g.history.ForPlayer(playerID), nil
}

// PlayersAtWinLimit lists the players whose total has reached the win limit.
// The limit only notifies; it never ends the game.
func (g *Game) PlayersAtWinLimit() []models.Player {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.playersAtWinLimit()
}

func (g *Game) playersAtWinLimit() []models.Player {
	var out []models.Player
	for _, p := range g.Players {
		if p.TotalPoints >= g.Rules.WinLimit {
			out = append(out, *p)
		}
	}
	return out
}

// getPlayerByID is a helper to find a player struct by their ID.
func (g *Game) getPlayerByID(playerID uuid.UUID) *models.Player {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (g *Game) currentPlayer() *models.Player {
	return g.Players[g.CurrentPlayerIndex]
}

// newEntry builds a ledger entry stamped with the current round and a strictly increasing time.
func (g *Game) newEntry(p *models.Player, typ models.EntryType, points int, desc string, prevTotal int) models.HistoryEntry {
	ts := g.now().UnixMilli()
	if last := g.history.lastTimestamp(); ts <= last {
		ts = last + 1
	}
	if points < 0 {
		points = -points
	}
	return models.HistoryEntry{
		ID:            uuid.New(),
		PlayerID:      p.ID,
		RoundNumber:   g.RoundNumber,
		Timestamp:     ts,
		Type:          typ,
		Points:        points,
		Description:   desc,
		PreviousTotal: prevTotal,
		NewTotal:      p.TotalPoints,
	}
}

// record appends an entry to the ledger and hands it to the entry sink.
func (g *Game) record(entry models.HistoryEntry) {
	g.history.Append(entry)
	g.log.WithFields(logrus.Fields{
		"player": entry.PlayerID,
		"type":   entry.Type,
		"points": entry.Points,
		"total":  entry.NewTotal,
	}).Debug(entry.Description)
	if g.Entries != nil {
		g.Entries.PublishEntry(g.ID, entry)
	}
	g.fireEvent(GameEvent{Type: EventHistoryEntry, Entry: &entry})
}

// commit runs after every accepted change: persist both records, then tell clients.
func (g *Game) commit() {
	state := g.snapshot()
	if g.Persister != nil {
		g.Persister.Save(state, g.history.Entries())
	}
	g.fireEvent(GameEvent{Type: EventState, State: &state})
	if reached := g.playersAtWinLimit(); len(reached) > 0 {
		g.fireEvent(GameEvent{
			Type:    EventWinLimitReached,
			Players: reached,
			Payload: map[string]interface{}{"winLimit": g.Rules.WinLimit},
		})
	}
}

// Sync persists and broadcasts the current state without changing it, e.g. right after
// the game has been wired to its persister.
func (g *Game) Sync() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.commit()
}

// Detach drops the persister, entry sink and broadcaster. Changes made afterwards stay in memory.
func (g *Game) Detach() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.Persister = nil
	g.Entries = nil
	g.BroadcastFn = nil
}

// CurrentPlayerID returns the id of the player whose turn it is.
func (g *Game) CurrentPlayerID() uuid.UUID {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.currentPlayer().ID
}

// fireEvent broadcasts an event to all connected clients.
func (g *Game) fireEvent(ev GameEvent) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	}
}
