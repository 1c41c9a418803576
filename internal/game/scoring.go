// internal/game/scoring.go
package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/google/uuid"
)

// ParseInt converts operator text input into an integer. Anything that is not a plain
// base-10 integer is ErrInvalidNumber.
func ParseInt(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	return n, nil
}

// actingPlayer returns the active player, or an error when nobody may score right now.
func (g *Game) actingPlayer() (*models.Player, error) {
	if g.Phase != PhaseRoundActive {
		return nil, ErrRoundNotActive
	}
	p := g.currentPlayer()
	if !p.IsActive {
		return nil, ErrPlayerNotActive
	}
	return p, nil
}

// selectedBonus resolves the pending formation bonus, if any.
func (g *Game) selectedBonus() (int, string, error) {
	if g.SelectedFormation == FormationNone {
		return 0, "", nil
	}
	amount, err := g.Rules.FormationBonus(g.SelectedFormation)
	if err != nil {
		return 0, "", err
	}
	return amount, fmt.Sprintf(" + %s (+%d pts)", g.SelectedFormation.Label(), amount), nil
}

// startBonus is the opening-triple bonus for p placing tile, if it applies.
func (g *Game) startBonus(p *models.Player, tile models.Tile) (int, string) {
	if p.CurrentPoints != 0 || !tile.IsTriple() {
		return 0, ""
	}
	if tile[0] == 0 && g.Rules.ZeroStartBonus {
		return ZeroStartBonusPoints, fmt.Sprintf(" + opening 0-0-0 bonus (+%d pts)", ZeroStartBonusPoints)
	}
	if g.Rules.TripleStartBonus {
		return TripleStartBonusPoints, fmt.Sprintf(" + opening triple bonus (+%d pts)", TripleStartBonusPoints)
	}
	return 0, ""
}

// addPoints credits the acting player, records an add entry, clears the formation and
// passes the turn on.
func (g *Game) addPoints(p *models.Player, delta int, desc string) models.HistoryEntry {
	prev := p.TotalPoints
	p.CurrentPoints += delta
	p.TotalPoints += delta
	entry := g.newEntry(p, models.EntryAdd, delta, desc, prev)
	g.record(entry)
	g.SelectedFormation = FormationNone
	g.ShowTileSelector = false
	g.advanceTurn()
	g.commit()
	return entry
}

// ScoreTile credits the active player with a placed tile: its sum, the opening-triple bonus
// when this is their first score of the round, and the selected formation bonus.
func (g *Game) ScoreTile(tile models.Tile) (models.HistoryEntry, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if !tile.Valid() {
		return models.HistoryEntry{}, ErrInvalidTile
	}
	p, err := g.actingPlayer()
	if err != nil {
		return models.HistoryEntry{}, err
	}
	formation, formationDesc, err := g.selectedBonus()
	if err != nil {
		return models.HistoryEntry{}, err
	}
	start, startDesc := g.startBonus(p, tile)

	sum := tile.Sum()
	desc := fmt.Sprintf("Tile %s (%d pts)%s%s", tile, sum, formationDesc, startDesc)
	return g.addPoints(p, sum+start+formation, desc), nil
}

// ScoreManual credits the active player with operator-entered points plus the selected
// formation bonus.
func (g *Game) ScoreManual(points int) (models.HistoryEntry, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p, err := g.actingPlayer()
	if err != nil {
		return models.HistoryEntry{}, err
	}
	formation, formationDesc, err := g.selectedBonus()
	if err != nil {
		return models.HistoryEntry{}, err
	}
	desc := fmt.Sprintf("Manual points (%d pts)%s", points, formationDesc)
	return g.addPoints(p, points+formation, desc), nil
}

// ScoreManualInput parses raw operator input and scores it. Unparseable input changes nothing.
func (g *Game) ScoreManualInput(raw string) (models.HistoryEntry, error) {
	points, err := ParseInt(raw)
	if err != nil {
		return models.HistoryEntry{}, err
	}
	return g.ScoreManual(points)
}

// ApplyDrawPenalty charges the active player for drawing a tile. Up to MaxDraws draws cost
// DrawPenalty and keep the turn; the next one costs FinalDrawPenalty and ends the turn.
func (g *Game) ApplyDrawPenalty() (models.HistoryEntry, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p, err := g.actingPlayer()
	if err != nil {
		return models.HistoryEntry{}, err
	}

	draws := g.DrawCount + 1
	exceeded := draws > g.Rules.MaxDraws
	penalty := g.Rules.DrawPenalty
	desc := fmt.Sprintf("Draw penalty (%d/%d): -%d pts", draws, g.Rules.MaxDraws, penalty)
	if exceeded {
		penalty = g.Rules.FinalDrawPenalty
		desc = fmt.Sprintf("Draw limit exceeded penalty: -%d pts", penalty)
	}

	prev := p.TotalPoints
	p.CurrentPoints -= penalty
	p.TotalPoints -= penalty
	entry := g.newEntry(p, models.EntryPenalty, penalty, desc, prev)
	g.record(entry)

	if exceeded {
		g.advanceTurn()
	} else {
		g.DrawCount = draws
	}
	g.commit()
	return entry, nil
}

// Pass marks the active player as passed. Once everyone has passed the round waits for
// round-end losses (or another pass lap) instead of moving the turn.
func (g *Game) Pass(playerID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p := g.getPlayerByID(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if g.Phase != PhaseRoundActive {
		return ErrRoundNotActive
	}
	if p.HasPassed {
		return ErrAlreadyPassed
	}
	if p != g.currentPlayer() || !p.IsActive {
		return ErrPlayerNotActive
	}

	p.HasPassed = true
	p.IsActive = false
	g.log.WithField("player", p.ID).Info("player passed")

	if g.allPassed() {
		g.Phase = PhaseAllPassedPending
		g.fireEvent(GameEvent{Type: EventAllPassed})
	} else {
		g.advanceToOpenSeat()
	}
	g.commit()
	return nil
}

// DeclareVictory credits the active player with the win bonus plus the points the operator
// collected from each opponent, and closes the round.
func (g *Game) DeclareVictory(opponents map[uuid.UUID]int) (models.HistoryEntry, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p, err := g.actingPlayer()
	if err != nil {
		return models.HistoryEntry{}, err
	}
	collected := 0
	for id, pts := range opponents {
		if id == p.ID || g.getPlayerByID(id) == nil {
			return models.HistoryEntry{}, fmt.Errorf("%w: opponent %s", ErrPlayerNotFound, id)
		}
		if pts < 0 {
			return models.HistoryEntry{}, fmt.Errorf("%w: opponent points must be non-negative", ErrInvalidNumber)
		}
		collected += pts
	}

	delta := g.Rules.WinBonus + collected
	prev := p.TotalPoints
	p.CurrentPoints += delta
	p.TotalPoints += delta
	desc := fmt.Sprintf("Victory: +%d pts + %d pts from opponents", g.Rules.WinBonus, collected)
	entry := g.newEntry(p, models.EntryVictory, delta, desc, prev)
	g.record(entry)

	g.ShowVictoryInputs = false
	g.closeRound()
	g.commit()
	return entry, nil
}

// ManualEdit overwrites a player's total. The entry records the absolute difference; the
// round score and the turn are left alone.
func (g *Game) ManualEdit(playerID uuid.UUID, newTotal int) (models.HistoryEntry, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p := g.getPlayerByID(playerID)
	if p == nil {
		return models.HistoryEntry{}, ErrPlayerNotFound
	}
	prev := p.TotalPoints
	p.TotalPoints = newTotal
	desc := fmt.Sprintf("Manual edit: %d -> %d pts", prev, newTotal)
	entry := g.newEntry(p, models.EntryManualEdit, newTotal-prev, desc, prev)
	g.record(entry)
	g.commit()
	return entry, nil
}

// ManualEditInput parses raw operator input and applies it as a manual edit.
func (g *Game) ManualEditInput(playerID uuid.UUID, raw string) (models.HistoryEntry, error) {
	total, err := ParseInt(raw)
	if err != nil {
		return models.HistoryEntry{}, err
	}
	return g.ManualEdit(playerID, total)
}

// SelectFormation arms a formation bonus for the next tile or manual-points action.
func (g *Game) SelectFormation(f Formation) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if !f.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFormation, string(f))
	}
	g.SelectedFormation = f
	g.commit()
	return nil
}

// ClearFormation disarms the selected formation bonus.
func (g *Game) ClearFormation() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.SelectedFormation = FormationNone
	g.commit()
}

// SetWinLimit is the operator override of the win-limit notification threshold.
func (g *Game) SetWinLimit(limit int) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if limit < MinWinLimit {
		return ErrInvalidWinLimit
	}
	g.Rules.WinLimit = limit
	g.log.WithField("winLimit", limit).Info("win limit changed")
	g.commit()
	return nil
}

// SetWinLimitInput parses raw operator input and applies it as the new win limit.
func (g *Game) SetWinLimitInput(raw string) error {
	limit, err := ParseInt(raw)
	if err != nil {
		return ErrInvalidWinLimit
	}
	return g.SetWinLimit(limit)
}
