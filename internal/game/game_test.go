// internal/game/game_test.go
package game

import (
	"sync"
	"testing"
	"time"

	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBroadcaster collects events instead of sending them over WS.
type mockBroadcaster struct {
	mu        sync.Mutex
	allEvents []GameEvent
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{}
}

func (mb *mockBroadcaster) broadcastFn(ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = append(mb.allEvents, ev)
}

func (mb *mockBroadcaster) clear() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = nil
}

func (mb *mockBroadcaster) types() []GameEventType {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	out := make([]GameEventType, len(mb.allEvents))
	for i, ev := range mb.allEvents {
		out[i] = ev.Type
	}
	return out
}

func (mb *mockBroadcaster) find(typ GameEventType) *GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	for i := len(mb.allEvents) - 1; i >= 0; i-- {
		if mb.allEvents[i].Type == typ {
			return &mb.allEvents[i]
		}
	}
	return nil
}

// recordingPersister keeps every snapshot it is handed.
type recordingPersister struct {
	mu     sync.Mutex
	states []State
}

func (p *recordingPersister) Save(state State, _ []models.HistoryEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, state)
}

// setupTestGame builds a game for the given seats with a mock broadcaster attached.
// A nil rules pointer means DefaultRules.
func setupTestGame(t *testing.T, names []string, rules *Rules) (*Game, *mockBroadcaster) {
	t.Helper()
	r := DefaultRules()
	if rules != nil {
		r = *rules
	}
	g, err := NewGame(r, names)
	require.NoError(t, err)
	mb := newMockBroadcaster()
	g.BroadcastFn = mb.broadcastFn
	return g, mb
}

// assertTurnInvariant checks at most one player is active, and only a player who has not passed.
func assertTurnInvariant(t *testing.T, g *Game) {
	t.Helper()
	active := 0
	for i, p := range g.State().Players {
		if p.IsActive {
			active++
			assert.False(t, p.HasPassed, "passed player %d is active", i)
			assert.Equal(t, g.State().CurrentPlayerIndex, i, "active player is not the current one")
		}
	}
	assert.LessOrEqual(t, active, 1)
}

func TestNewGameValidation(t *testing.T) {
	_, err := NewGame(DefaultRules(), []string{"Ada"})
	assert.ErrorIs(t, err, ErrInvalidPlayerCount)
	_, err = NewGame(DefaultRules(), []string{"a", "b", "c", "d", "e", "f", "g"})
	assert.ErrorIs(t, err, ErrInvalidPlayerCount)
	_, err = NewGame(DefaultRules(), []string{"Ada", " "})
	assert.ErrorIs(t, err, ErrEmptyPlayerName)

	bad := DefaultRules()
	bad.MaxDraws = 0
	_, err = NewGame(bad, []string{"Ada", "Bo"})
	assert.ErrorIs(t, err, ErrInvalidRules)

	g, err := NewGame(DefaultRules(), []string{" Ada ", "Bo", "Cy", "Di", "Ed", "Fi"})
	require.NoError(t, err)
	st := g.State()
	assert.Equal(t, "Ada", st.Players[0].Name)
	assert.Equal(t, 1, st.RoundNumber)
	assert.True(t, st.IsRoundActive)
	assert.Equal(t, PhaseRoundActive, st.Phase)
	assert.True(t, st.Players[0].IsActive)
	assert.Empty(t, g.History())
	assertTurnInvariant(t, g)
}

func TestScoreTileAddsExactSum(t *testing.T) {
	for a := 0; a <= 9; a++ {
		for b := 0; b <= 9; b++ {
			for c := 0; c <= 9; c++ {
				tile := models.Tile{a, b, c}
				g, _ := setupTestGame(t, []string{"Ada", "Bo"}, nil)
				entry, err := g.ScoreTile(tile)
				require.NoError(t, err)
				assert.Equal(t, a+b+c, entry.Points, "tile %s", tile)
				assert.Equal(t, a+b+c, g.State().Players[0].TotalPoints, "tile %s", tile)
			}
		}
	}
}

func TestScoreTileRejectsInvalidTile(t *testing.T) {
	g, mb := setupTestGame(t, []string{"Ada", "Bo"}, nil)
	_, err := g.ScoreTile(models.Tile{1, 10, 2})
	assert.ErrorIs(t, err, ErrInvalidTile)
	_, err = g.ScoreTile(models.Tile{-1, 0, 0})
	assert.ErrorIs(t, err, ErrInvalidTile)
	assert.Empty(t, g.History())
	assert.Empty(t, mb.types())
}

func TestScoreTileEventsAndTurn(t *testing.T) {
	g, mb := setupTestGame(t, []string{"Ada", "Bo"}, nil)
	entry, err := g.ScoreTile(models.Tile{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, models.EntryAdd, entry.Type)
	assert.Equal(t, "Tile [1,2,3] (6 pts)", entry.Description)
	assert.Equal(t, 0, entry.PreviousTotal)
	assert.Equal(t, 6, entry.NewTotal)
	assert.Equal(t, 1, entry.RoundNumber)

	assert.Equal(t, []GameEventType{EventHistoryEntry, EventState}, mb.types())
	st := mb.find(EventState).State
	assert.Equal(t, 1, st.CurrentPlayerIndex)
	assert.True(t, st.Players[1].IsActive)
	assert.False(t, st.Players[0].IsActive)
	assertTurnInvariant(t, g)
}

func TestZeroStartBonus(t *testing.T) {
	rules := DefaultRules()
	rules.ZeroStartBonus = true
	g, _ := setupTestGame(t, []string{"Ada", "Bo"}, &rules)

	entry, err := g.ScoreTile(models.Tile{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 30, entry.Points)
	assert.Equal(t, "Tile [0,0,0] (0 pts) + opening 0-0-0 bonus (+30 pts)", entry.Description)
}

func TestTripleStartBonus(t *testing.T) {
	rules := DefaultRules()
	rules.TripleStartBonus = true
	g, _ := setupTestGame(t, []string{"Ada", "Bo"}, &rules)

	entry, err := g.ScoreTile(models.Tile{5, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, 25, entry.Points)
	assert.Equal(t, "Tile [5,5,5] (15 pts) + opening triple bonus (+10 pts)", entry.Description)

	// 0-0-0 falls back to the triple bonus when only that one is enabled
	entry, err = g.ScoreTile(models.Tile{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 10, entry.Points)
}

func TestStartBonusOnlyOnFirstScore(t *testing.T) {
	rules := DefaultRules()
	rules.TripleStartBonus = true
	rules.ZeroStartBonus = true
	g, _ := setupTestGame(t, []string{"Ada", "Bo"}, &rules)

	_, err := g.ScoreManual(3)
	require.NoError(t, err)
	_, err = g.ScoreManual(1)
	require.NoError(t, err)

	entry, err := g.ScoreTile(models.Tile{5, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, 15, entry.Points)

	// no bonus for a non-triple even on the first move
	entry, err = g.ScoreTile(models.Tile{0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Points)
}

func TestFormationBonusIsConsumed(t *testing.T) {
	g, _ := setupTestGame(t, []string{"Ada", "Bo"}, nil)

	require.NoError(t, g.SelectFormation(FormationBridge))
	assert.Equal(t, FormationBridge, g.State().SelectedFormation)

	entry, err := g.ScoreTile(models.Tile{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 46, entry.Points)
	assert.Equal(t, "Tile [1,2,3] (6 pts) + Bridge (+40 pts)", entry.Description)
	assert.Equal(t, FormationNone, g.State().SelectedFormation)

	require.NoError(t, g.SelectFormation(FormationTripleHexagon))
	entry, err = g.ScoreManual(4)
	require.NoError(t, err)
	assert.Equal(t, 74, entry.Points)
	assert.Equal(t, "Manual points (4 pts) + Triple Hexagon (+70 pts)", entry.Description)

	require.NoError(t, g.SelectFormation(FormationHexagon))
	g.ClearFormation()
	entry, err = g.ScoreManual(4)
	require.NoError(t, err)
	assert.Equal(t, 4, entry.Points)

	assert.ErrorIs(t, g.SelectFormation(Formation("square")), ErrUnknownFormation)
}

func TestManualInputValidation(t *testing.T) {
	g, mb := setupTestGame(t, []string{"Ada", "Bo"}, nil)

	for _, raw := range []string{"", "abc", "1.5", "12x"} {
		_, err := g.ScoreManualInput(raw)
		assert.ErrorIs(t, err, ErrInvalidNumber, raw)
	}
	assert.Empty(t, g.History())
	assert.Empty(t, mb.types())
	assert.Equal(t, 0, g.State().CurrentPlayerIndex)

	entry, err := g.ScoreManualInput(" 17 ")
	require.NoError(t, err)
	assert.Equal(t, 17, entry.Points)
}

func TestDrawPenaltyEscalation(t *testing.T) {
	g, _ := setupTestGame(t, []string{"Ada", "Bo"}, nil)

	for i := 1; i <= 3; i++ {
		entry, err := g.ApplyDrawPenalty()
		require.NoError(t, err)
		assert.Equal(t, models.EntryPenalty, entry.Type)
		assert.Equal(t, 5, entry.Points)
		st := g.State()
		assert.Equal(t, -5*i, st.Players[0].TotalPoints)
		assert.Equal(t, i, st.DrawCount)
		assert.Equal(t, 0, st.CurrentPlayerIndex)
		assert.True(t, st.Players[0].IsActive)
	}
	assert.Equal(t, "Draw penalty (3/3): -5 pts", g.History()[2].Description)

	entry, err := g.ApplyDrawPenalty()
	require.NoError(t, err)
	assert.Equal(t, 10, entry.Points)
	assert.Equal(t, "Draw limit exceeded penalty: -10 pts", entry.Description)
	assert.Equal(t, -15, entry.PreviousTotal)
	assert.Equal(t, -25, entry.NewTotal)

	st := g.State()
	assert.Equal(t, -25, st.Players[0].CurrentPoints)
	assert.Equal(t, 0, st.DrawCount)
	assert.Equal(t, 1, st.CurrentPlayerIndex)
	assertTurnInvariant(t, g)
}

func TestScoringResetsDrawCount(t *testing.T) {
	g, _ := setupTestGame(t, []string{"Ada", "Bo"}, nil)
	_, err := g.ApplyDrawPenalty()
	require.NoError(t, err)
	_, err = g.ScoreTile(models.Tile{0, 1, 2})
	require.NoError(t, err)

	st := g.State()
	assert.Equal(t, 0, st.DrawCount)
	assert.Equal(t, -2, st.Players[0].TotalPoints)
}

func TestPassMovesToNextOpenSeat(t *testing.T) {
	g, mb := setupTestGame(t, []string{"Ada", "Bo", "Cy"}, nil)
	st := g.State()
	ada, bo, cy := st.Players[0].ID, st.Players[1].ID, st.Players[2].ID

	assert.ErrorIs(t, g.Pass(bo), ErrPlayerNotActive)
	assert.ErrorIs(t, g.Pass(uuid.New()), ErrPlayerNotFound)

	require.NoError(t, g.Pass(ada))
	assert.Equal(t, 1, g.State().CurrentPlayerIndex)
	assert.Empty(t, g.History(), "passing writes no history")
	assertTurnInvariant(t, g)

	require.NoError(t, g.Pass(bo))
	assert.Equal(t, 2, g.State().CurrentPlayerIndex, "Ada has passed, so Cy is next")
	assert.True(t, g.State().Players[2].IsActive)
	mb.clear()
	require.NoError(t, g.Pass(cy))

	st = g.State()
	assert.Equal(t, PhaseAllPassedPending, st.Phase)
	assert.True(t, st.IsRoundActive)
	for _, p := range st.Players {
		assert.True(t, p.HasPassed)
		assert.False(t, p.IsActive)
	}
	assert.NotNil(t, mb.find(EventAllPassed))
	assertTurnInvariant(t, g)

	_, err := g.ScoreManual(1)
	assert.ErrorIs(t, err, ErrRoundNotActive)
	_, err = g.ApplyDrawPenalty()
	assert.ErrorIs(t, err, ErrRoundNotActive)
}

func TestScoringAdvanceLandsOnPassedSeat(t *testing.T) {
	g, _ := setupTestGame(t, []string{"Ada", "Bo", "Cy"}, nil)
	st := g.State()
	ada, bo := st.Players[0].ID, st.Players[1].ID

	require.NoError(t, g.Pass(ada))
	_, err := g.ScoreManual(5) // Bo
	require.NoError(t, err)
	_, err = g.ScoreManual(5) // Cy
	require.NoError(t, err)

	st = g.State()
	assert.Equal(t, 0, st.CurrentPlayerIndex)
	for _, p := range st.Players {
		assert.False(t, p.IsActive, "%s is active", p.Name)
	}
	assertTurnInvariant(t, g)

	_, err = g.ScoreManual(1)
	assert.ErrorIs(t, err, ErrPlayerNotActive)
	_, err = g.ApplyDrawPenalty()
	assert.ErrorIs(t, err, ErrPlayerNotActive)
	assert.ErrorIs(t, g.Pass(ada), ErrAlreadyPassed)
	assert.Len(t, g.History(), 2)

	// the operator picks the next player by hand
	require.NoError(t, g.JumpToPlayer(bo))
	assert.True(t, g.State().Players[1].IsActive)
	_, err = g.ScoreManual(2)
	require.NoError(t, err)
	assert.Equal(t, 2, g.State().CurrentPlayerIndex)
}

func TestFinalDrawPenaltyLandsOnPassedSeat(t *testing.T) {
	g, _ := setupTestGame(t, []string{"Ada", "Bo", "Cy"}, nil)
	require.NoError(t, g.JumpToPlayer(g.State().Players[1].ID))
	require.NoError(t, g.Pass(g.CurrentPlayerID())) // Bo passes, Cy is up
	require.NoError(t, g.JumpToPlayer(g.State().Players[0].ID))

	for i := 0; i < 4; i++ {
		_, err := g.ApplyDrawPenalty()
		require.NoError(t, err)
	}
	st := g.State()
	assert.Equal(t, 1, st.CurrentPlayerIndex)
	assert.Equal(t, 0, st.DrawCount)
	assert.False(t, st.Players[1].IsActive)
	assertTurnInvariant(t, g)
}

func allPass(t *testing.T, g *Game) {
	t.Helper()
	for range g.State().Players {
		require.NoError(t, g.Pass(g.CurrentPlayerID()))
	}
	require.Equal(t, PhaseAllPassedPending, g.State().Phase)
}

func TestResolveRoundEnd(t *testing.T) {
	g, mb := setupTestGame(t, []string{"Ada", "Bo", "Cy"}, nil)
	st := g.State()
	ada, bo, cy := st.Players[0].ID, st.Players[1].ID, st.Players[2].ID

	_, err := g.ResolveRoundEnd(nil)
	assert.ErrorIs(t, err, ErrNotAllPassed)

	_, err = g.ScoreManual(20)
	require.NoError(t, err)
	allPass(t, g)

	_, err = g.ResolveRoundEnd(map[uuid.UUID]int{uuid.New(): 3})
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	_, err = g.ResolveRoundEnd(map[uuid.UUID]int{ada: -3})
	assert.ErrorIs(t, err, ErrInvalidNumber)
	assert.Len(t, g.History(), 1, "rejected round end writes nothing")

	mb.clear()
	entries, err := g.ResolveRoundEnd(map[uuid.UUID]int{cy: 4, ada: 7, bo: 0})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ada, entries[0].PlayerID)
	assert.Equal(t, models.EntryRoundEnd, entries[0].Type)
	assert.Equal(t, "Round end - tile points: -7 pts", entries[0].Description)
	assert.Equal(t, 13, entries[0].NewTotal)
	assert.Equal(t, cy, entries[1].PlayerID)

	st = g.State()
	assert.Equal(t, PhaseRoundSummary, st.Phase)
	assert.False(t, st.IsRoundActive)
	assert.True(t, st.ShowRoundSummary)

	summary := mb.find(EventRoundSummary)
	require.NotNil(t, summary)
	require.Len(t, summary.Players, 3)
	assert.Equal(t, ada, summary.Players[0].ID)
	assert.Equal(t, bo, summary.Players[1].ID)

	_, err = g.ScoreTile(models.Tile{1, 1, 2})
	assert.ErrorIs(t, err, ErrRoundNotActive)
}

func TestAnotherPassLap(t *testing.T) {
	g, _ := setupTestGame(t, []string{"Ada", "Bo"}, nil)
	assert.ErrorIs(t, g.AnotherPassLap(), ErrNotAllPassed)

	_, err := g.ScoreManual(8)
	require.NoError(t, err)
	allPass(t, g)
	// Ada passed last and keeps the seat; the lap starts one seat on
	require.Equal(t, 0, g.State().CurrentPlayerIndex)
	require.NoError(t, g.AnotherPassLap())

	st := g.State()
	assert.Equal(t, PhaseRoundActive, st.Phase)
	assert.Equal(t, 1, st.CurrentPlayerIndex)
	assert.Equal(t, 1, st.RoundNumber)
	assert.Equal(t, 8, st.Players[0].CurrentPoints)
	for _, p := range st.Players {
		assert.False(t, p.HasPassed)
	}
	assert.True(t, st.Players[1].IsActive)
	assertTurnInvariant(t, g)
}

func TestDeclareVictory(t *testing.T) {
	g, mb := setupTestGame(t, []string{"Ada", "Bo", "Cy"}, nil)
	st := g.State()
	ada, bo, cy := st.Players[0].ID, st.Players[1].ID, st.Players[2].ID

	_, err := g.DeclareVictory(map[uuid.UUID]int{ada: 3})
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	_, err = g.DeclareVictory(map[uuid.UUID]int{bo: -1})
	assert.ErrorIs(t, err, ErrInvalidNumber)
	assert.Empty(t, g.History())

	entry, err := g.DeclareVictory(map[uuid.UUID]int{bo: 10, cy: 5})
	require.NoError(t, err)
	assert.Equal(t, models.EntryVictory, entry.Type)
	assert.Equal(t, 40, entry.Points)
	assert.Equal(t, "Victory: +25 pts + 15 pts from opponents", entry.Description)

	st = g.State()
	assert.Equal(t, 40, st.Players[0].TotalPoints)
	assert.Equal(t, 0, st.Players[1].TotalPoints, "opponents are not charged")
	assert.Equal(t, PhaseRoundSummary, st.Phase)
	assert.NotNil(t, mb.find(EventRoundSummary))
	assertTurnInvariant(t, g)
}

func TestStartNextRound(t *testing.T) {
	g, _ := setupTestGame(t, []string{"Ada", "Bo"}, nil)
	assert.ErrorIs(t, g.StartNextRound(), ErrRoundNotOver)

	_, err := g.ScoreManual(12)
	require.NoError(t, err)
	require.NoError(t, g.SelectFormation(FormationHexagon))
	_, err = g.DeclareVictory(nil)
	require.NoError(t, err)
	require.NoError(t, g.StartNextRound())

	st := g.State()
	assert.Equal(t, 2, st.RoundNumber)
	assert.Equal(t, PhaseRoundActive, st.Phase)
	assert.True(t, st.IsRoundActive)
	assert.Equal(t, 0, st.CurrentPlayerIndex)
	assert.Equal(t, FormationNone, st.SelectedFormation)
	assert.Equal(t, 0, st.Players[0].CurrentPoints)
	assert.Equal(t, 12, st.Players[0].TotalPoints)
	assert.Equal(t, 25, st.Players[1].TotalPoints)
	assert.True(t, st.Players[0].IsActive)

	entry, err := g.ScoreManual(1)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.RoundNumber)
}

func TestManualEdit(t *testing.T) {
	g, mb := setupTestGame(t, []string{"Ada", "Bo"}, nil)
	bo := g.State().Players[1].ID

	entry, err := g.ManualEdit(bo, 12)
	require.NoError(t, err)
	assert.Equal(t, models.EntryManualEdit, entry.Type)
	assert.Equal(t, 12, entry.Points)
	assert.Equal(t, "Manual edit: 0 -> 12 pts", entry.Description)

	entry, err = g.ManualEditInput(bo, "5")
	require.NoError(t, err)
	assert.Equal(t, 7, entry.Points)
	assert.Equal(t, 12, entry.PreviousTotal)
	assert.Equal(t, 5, entry.NewTotal)

	st := g.State()
	assert.Equal(t, 0, st.CurrentPlayerIndex, "edits do not move the turn")
	assert.Equal(t, 0, st.Players[1].CurrentPoints)
	assert.Equal(t, 5, st.Players[1].TotalPoints)

	mb.clear()
	_, err = g.ManualEditInput(bo, "five")
	assert.ErrorIs(t, err, ErrInvalidNumber)
	_, err = g.ManualEdit(uuid.New(), 1)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	assert.Empty(t, mb.types())
	assert.Len(t, g.History(), 2)
}

func TestWinLimit(t *testing.T) {
	g, mb := setupTestGame(t, []string{"Ada", "Bo"}, nil)
	ada := g.State().Players[0].ID

	assert.ErrorIs(t, g.SetWinLimit(99), ErrInvalidWinLimit)
	assert.ErrorIs(t, g.SetWinLimitInput("lots"), ErrInvalidWinLimit)
	require.NoError(t, g.SetWinLimitInput("100"))
	assert.Equal(t, 100, g.State().Rules.WinLimit)
	assert.Nil(t, mb.find(EventWinLimitReached))

	_, err := g.ManualEdit(ada, 100)
	require.NoError(t, err)
	ev := mb.find(EventWinLimitReached)
	require.NotNil(t, ev)
	require.Len(t, ev.Players, 1)
	assert.Equal(t, ada, ev.Players[0].ID)
	assert.Len(t, g.PlayersAtWinLimit(), 1)

	// the limit only notifies
	_, err = g.ScoreManual(3)
	require.NoError(t, err)
	assert.Equal(t, PhaseRoundActive, g.State().Phase)
}

func TestJumpAndEndTurn(t *testing.T) {
	g, _ := setupTestGame(t, []string{"Ada", "Bo", "Cy"}, nil)
	st := g.State()
	ada, cy := st.Players[0].ID, st.Players[2].ID

	_, err := g.ApplyDrawPenalty()
	require.NoError(t, err)
	require.NoError(t, g.JumpToPlayer(cy))
	st = g.State()
	assert.Equal(t, 2, st.CurrentPlayerIndex)
	assert.Equal(t, 0, st.DrawCount)
	assertTurnInvariant(t, g)

	require.NoError(t, g.EndPlayerTurn(cy))
	assert.Equal(t, 0, g.State().CurrentPlayerIndex)

	// the seat after the named player is taken literally, passed or not
	require.NoError(t, g.Pass(ada))
	require.NoError(t, g.EndPlayerTurn(cy))
	st = g.State()
	assert.Equal(t, 0, st.CurrentPlayerIndex)
	assert.False(t, st.Players[0].IsActive)
	assertTurnInvariant(t, g)

	assert.ErrorIs(t, g.JumpToPlayer(uuid.New()), ErrPlayerNotFound)
	assert.ErrorIs(t, g.EndPlayerTurn(uuid.New()), ErrPlayerNotFound)
	assert.Len(t, g.History(), 1)
}

func TestTurnInvariantAcrossScript(t *testing.T) {
	g, _ := setupTestGame(t, []string{"Ada", "Bo", "Cy", "Di"}, nil)
	steps := []func() error{
		func() error { _, err := g.ScoreTile(models.Tile{1, 2, 3}); return err },
		func() error { _, err := g.ApplyDrawPenalty(); return err },
		func() error { return g.Pass(g.CurrentPlayerID()) },
		func() error { _, err := g.ScoreManual(9); return err },
		func() error { return g.Pass(g.CurrentPlayerID()) },
		func() error {
			for i := 0; i < 4; i++ {
				if _, err := g.ApplyDrawPenalty(); err != nil {
					return err
				}
			}
			return nil
		},
		// the final draw lands on Bo, who passed; nobody is active
		func() error { return g.JumpToPlayer(g.State().Players[2].ID) },
		func() error { return g.Pass(g.CurrentPlayerID()) },
		func() error { return g.Pass(g.CurrentPlayerID()) },
		func() error { return g.AnotherPassLap() },
		func() error { _, err := g.DeclareVictory(nil); return err },
		func() error { return g.StartNextRound() },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		assertTurnInvariant(t, g)
	}
}

func TestTimestampsStrictlyIncrease(t *testing.T) {
	g, _ := setupTestGame(t, []string{"Ada", "Bo"}, nil)
	fixed := time.UnixMilli(1_700_000_000_000)
	g.now = func() time.Time { return fixed }

	for i := 0; i < 5; i++ {
		_, err := g.ScoreManual(1)
		require.NoError(t, err)
	}
	h := g.History()
	for i := 1; i < len(h); i++ {
		assert.Greater(t, h[i].Timestamp, h[i-1].Timestamp)
	}
}

func TestPersisterReceivesEverySnapshot(t *testing.T) {
	g, _ := setupTestGame(t, []string{"Ada", "Bo"}, nil)
	p := &recordingPersister{}
	g.Persister = p

	_, err := g.ScoreManual(4)
	require.NoError(t, err)
	_, err = g.ScoreManualInput("bad")
	require.Error(t, err)
	_, err = g.ApplyDrawPenalty()
	require.NoError(t, err)

	require.Len(t, p.states, 2)
	assert.Equal(t, g.State(), p.states[1])
}

func TestRestore(t *testing.T) {
	g, _ := setupTestGame(t, []string{"Ada", "Bo", "Cy"}, nil)
	_, err := g.ScoreTile(models.Tile{2, 3, 4})
	require.NoError(t, err)
	require.NoError(t, g.Pass(g.CurrentPlayerID()))

	restored, err := Restore(g.State(), g.History())
	require.NoError(t, err)
	assert.Equal(t, g.State(), restored.State())
	assert.Equal(t, g.History(), restored.History())

	// play continues from the restored turn
	_, err = restored.ScoreManual(2)
	require.NoError(t, err)
	assert.Equal(t, 0, restored.State().CurrentPlayerIndex)

	st := g.State()
	st.Phase = ""
	legacy, err := Restore(st, nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseRoundActive, legacy.State().Phase)

	st.IsRoundActive = false
	legacy, err = Restore(st, nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseRoundSummary, legacy.State().Phase)

	bad := g.State()
	bad.CurrentPlayerIndex = 7
	_, err = Restore(bad, nil)
	assert.ErrorIs(t, err, ErrInvalidState)

	bad = g.State()
	bad.Players = bad.Players[:1]
	_, err = Restore(bad, nil)
	assert.ErrorIs(t, err, ErrInvalidState)

	bad = g.State()
	bad.Players[1].ID = bad.Players[0].ID
	_, err = Restore(bad, nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRestoreRecomputesActiveFlags(t *testing.T) {
	g, _ := setupTestGame(t, []string{"Ada", "Bo", "Cy"}, nil)
	_, err := g.ScoreManual(3)
	require.NoError(t, err)

	st := g.State()
	st.Players[0].IsActive = true // two active players
	restored, err := Restore(st, nil)
	require.NoError(t, err)
	assertTurnInvariant(t, restored)
	assert.Equal(t, g.State().Players, restored.State().Players)

	st = g.State()
	st.Players[1].HasPassed = true // active but passed
	restored, err = Restore(st, nil)
	require.NoError(t, err)
	assertTurnInvariant(t, restored)
	for _, p := range restored.State().Players {
		assert.False(t, p.IsActive, "%s is active", p.Name)
	}
}

func TestRestoreRejectsInconsistentRound(t *testing.T) {
	g, _ := setupTestGame(t, []string{"Ada", "Bo"}, nil)

	bad := g.State()
	bad.DrawCount = -1
	_, err := Restore(bad, nil)
	assert.ErrorIs(t, err, ErrInvalidState)

	bad = g.State()
	bad.IsRoundActive = false
	_, err = Restore(bad, nil)
	assert.ErrorIs(t, err, ErrInvalidState)

	bad = g.State()
	bad.Phase = PhaseRoundSummary
	_, err = Restore(bad, nil)
	assert.ErrorIs(t, err, ErrInvalidState)

	bad = g.State()
	bad.Phase = PhaseAllPassedPending
	bad.IsRoundActive = false
	_, err = Restore(bad, nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPlayerHistory(t *testing.T) {
	g, _ := setupTestGame(t, []string{"Ada", "Bo"}, nil)
	ada := g.State().Players[0].ID

	_, err := g.ScoreManual(1)
	require.NoError(t, err)
	_, err = g.ScoreManual(2)
	require.NoError(t, err)
	_, err = g.ScoreManual(3)
	require.NoError(t, err)

	h, err := g.PlayerHistory(ada)
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, 3, h[0].Points)
	assert.Equal(t, 1, h[1].Points)

	_, err = g.PlayerHistory(uuid.New())
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestGameStore(t *testing.T) {
	s := NewGameStore()
	g, _ := setupTestGame(t, []string{"Ada", "Bo"}, nil)
	s.AddGame(g)

	got, ok := s.GetGame(g.ID)
	require.True(t, ok)
	assert.Same(t, g, got)
	assert.Equal(t, []uuid.UUID{g.ID}, s.IDs())

	s.DeleteGame(g.ID)
	_, ok = s.GetGame(g.ID)
	assert.False(t, ok)
	assert.Empty(t, s.IDs())
}

func TestWithStateHoldsOffChanges(t *testing.T) {
	g, mb := setupTestGame(t, []string{"Ada", "Bo"}, nil)
	done := make(chan struct{})

	g.WithState(func(st State) {
		assert.Equal(t, 0, st.Players[0].TotalPoints)
		go func() {
			defer close(done)
			_, err := g.ScoreManual(6)
			assert.NoError(t, err)
		}()
		select {
		case <-done:
			t.Error("change committed while the snapshot was held")
		case <-time.After(50 * time.Millisecond):
		}
		assert.Empty(t, mb.types())
	})

	<-done
	assert.Equal(t, 6, g.State().Players[0].TotalPoints)
}
