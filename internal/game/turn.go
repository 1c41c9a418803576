// internal/game/turn.go
package game

import "github.com/google/uuid"

// syncActive marks exactly the player at CurrentPlayerIndex active, unless that player passed.
func (g *Game) syncActive() {
	for i, p := range g.Players {
		p.IsActive = i == g.CurrentPlayerIndex && !p.HasPassed
	}
}

// allPassed reports whether every player has passed this round.
func (g *Game) allPassed() bool {
	for _, p := range g.Players {
		if !p.HasPassed {
			return false
		}
	}
	return true
}

// advanceTurn moves exactly one seat on and resets the draw counter. A passed player
// landed on stays inactive; the operator jumps to continue.
func (g *Game) advanceTurn() {
	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.Players)
	g.DrawCount = 0
	g.syncActive()
}

// advanceToOpenSeat moves to the next player who has not passed, wrapping around the table.
// Only used by Pass; callers ensure someone is still in.
func (g *Game) advanceToOpenSeat() {
	n := len(g.Players)
	for step := 1; step <= n; step++ {
		idx := (g.CurrentPlayerIndex + step) % n
		if !g.Players[idx].HasPassed {
			g.CurrentPlayerIndex = idx
			break
		}
	}
	g.DrawCount = 0
	g.syncActive()
}

func (g *Game) playerIndex(playerID uuid.UUID) int {
	for i, p := range g.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// JumpToPlayer hands the turn directly to playerID. It is an operator override for a
// mis-clicked turn; no history entry is written.
func (g *Game) JumpToPlayer(playerID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	idx := g.playerIndex(playerID)
	if idx == -1 {
		return ErrPlayerNotFound
	}
	if g.Phase != PhaseRoundActive {
		return ErrRoundNotActive
	}
	g.CurrentPlayerIndex = idx
	g.DrawCount = 0
	g.syncActive()
	g.log.WithField("player", playerID).Info("turn jumped")
	g.commit()
	return nil
}

// EndPlayerTurn ends playerID's turn by moving to the seat right after that player,
// whoever currently holds the turn. The next seat is taken literally, passed or not.
func (g *Game) EndPlayerTurn(playerID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	idx := g.playerIndex(playerID)
	if idx == -1 {
		return ErrPlayerNotFound
	}
	if g.Phase != PhaseRoundActive {
		return ErrRoundNotActive
	}
	g.CurrentPlayerIndex = (idx + 1) % len(g.Players)
	g.DrawCount = 0
	g.syncActive()
	g.log.WithField("player", playerID).Info("turn ended by operator")
	g.commit()
	return nil
}
