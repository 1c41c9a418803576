// internal/game/round.go
package game

import (
	"fmt"
	"sort"

	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/google/uuid"
)

// closeRound moves the round into its summary. Assumes lock is held.
func (g *Game) closeRound() {
	g.IsRoundActive = false
	g.Phase = PhaseRoundSummary
	g.log.WithField("round", g.RoundNumber).Info("round over")
	g.fireEvent(GameEvent{Type: EventRoundSummary, Players: g.standings()})
}

// ResolveRoundEnd subtracts the tile points each player was left holding after everyone
// passed, one round_end entry per player with a positive loss, then closes the round.
func (g *Game) ResolveRoundEnd(losses map[uuid.UUID]int) ([]models.HistoryEntry, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseAllPassedPending {
		return nil, ErrNotAllPassed
	}
	for id, pts := range losses {
		if g.getPlayerByID(id) == nil {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
		}
		if pts < 0 {
			return nil, fmt.Errorf("%w: round-end points must be non-negative", ErrInvalidNumber)
		}
	}

	var entries []models.HistoryEntry
	// seat order keeps the ledger deterministic
	for _, p := range g.Players {
		pts := losses[p.ID]
		if pts <= 0 {
			continue
		}
		prev := p.TotalPoints
		p.CurrentPoints -= pts
		p.TotalPoints -= pts
		entry := g.newEntry(p, models.EntryRoundEnd, pts, fmt.Sprintf("Round end - tile points: -%d pts", pts), prev)
		g.record(entry)
		entries = append(entries, entry)
	}

	g.closeRound()
	g.commit()
	return entries, nil
}

// AnotherPassLap backs out of the all-passed state: pass flags are cleared and the turn moves
// one seat on. Scores and the round number are kept.
func (g *Game) AnotherPassLap() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseAllPassedPending {
		return ErrNotAllPassed
	}
	for _, p := range g.Players {
		p.HasPassed = false
	}
	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.Players)
	g.DrawCount = 0
	g.syncActive()
	g.Phase = PhaseRoundActive
	g.log.Info("another pass lap")
	g.commit()
	return nil
}

// StartNextRound confirms the round summary and starts a fresh round with the first seat active.
func (g *Game) StartNextRound() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseRoundSummary {
		return ErrRoundNotOver
	}
	g.RoundNumber++
	g.CurrentPlayerIndex = 0
	g.DrawCount = 0
	g.IsRoundActive = true
	g.Phase = PhaseRoundActive
	g.SelectedFormation = FormationNone
	for _, p := range g.Players {
		p.CurrentPoints = 0
		p.HasPassed = false
	}
	g.syncActive()
	g.log.WithField("round", g.RoundNumber).Info("round started")
	g.commit()
	return nil
}

// Standings returns the players ordered by total, highest first; ties keep seat order.
func (g *Game) Standings() []models.Player {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.standings()
}

func (g *Game) standings() []models.Player {
	out := make([]models.Player, len(g.Players))
	for i, p := range g.Players {
		out[i] = *p
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalPoints > out[j].TotalPoints
	})
	return out
}

// SetPanels records which operator panels are open so a resumed session reopens them.
func (g *Game) SetPanels(tileSelector, victoryInputs bool) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.ShowTileSelector = tileSelector
	g.ShowVictoryInputs = victoryInputs
	g.commit()
}
