// internal/game/state.go
package game

import (
	"fmt"
	"strings"

	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/google/uuid"
)

// RoundPhase is where the round lifecycle currently stands.
type RoundPhase string

const (
	PhaseRoundActive      RoundPhase = "round_active"
	PhaseAllPassedPending RoundPhase = "all_passed_pending" // waiting for round-end losses or another pass lap
	PhaseRoundSummary     RoundPhase = "round_summary"      // waiting for the operator to start the next round
)

// State is the game-state record: the current snapshot only, without history.
// It is what gets persisted and what clients receive after every change.
type State struct {
	ID                 uuid.UUID       `json:"id"`
	Rules              Rules           `json:"rules"`
	Players            []models.Player `json:"players"`
	CurrentPlayerIndex int             `json:"currentPlayerIndex"`
	RoundNumber        int             `json:"roundNumber"`
	DrawCount          int             `json:"drawCount"`
	IsRoundActive      bool            `json:"isRoundActive"`
	Phase              RoundPhase      `json:"phase"`

	// Transient operator-surface flags; carried so a resumed session looks the same.
	SelectedFormation Formation `json:"selectedFormation"`
	ShowTileSelector  bool      `json:"showTileSelector"`
	ShowVictoryInputs bool      `json:"showVictoryInputs"`
	ShowRoundSummary  bool      `json:"showRoundSummary"`

	// PinHash is the argon2id hash of the optional table PIN used to reissue operator tokens.
	PinHash string `json:"pinHash,omitempty"`
}

// Validate checks that a decoded record describes a playable game.
func (s State) Validate() error {
	if s.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrInvalidState)
	}
	if len(s.Players) < MinPlayers || len(s.Players) > MaxPlayers {
		return fmt.Errorf("%w: %d players", ErrInvalidState, len(s.Players))
	}
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return fmt.Errorf("%w: current player index %d out of range", ErrInvalidState, s.CurrentPlayerIndex)
	}
	if s.RoundNumber < 1 {
		return fmt.Errorf("%w: round number %d", ErrInvalidState, s.RoundNumber)
	}
	if err := s.Rules.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	seen := make(map[uuid.UUID]bool, len(s.Players))
	for _, p := range s.Players {
		if p.ID == uuid.Nil || seen[p.ID] {
			return fmt.Errorf("%w: duplicate or missing player id", ErrInvalidState)
		}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: empty player name", ErrInvalidState)
		}
		seen[p.ID] = true
	}
	if s.DrawCount < 0 {
		return fmt.Errorf("%w: draw count %d", ErrInvalidState, s.DrawCount)
	}
	switch s.Phase {
	case PhaseRoundActive, PhaseAllPassedPending:
		if !s.IsRoundActive {
			return fmt.Errorf("%w: phase %q with the round closed", ErrInvalidState, s.Phase)
		}
	case PhaseRoundSummary:
		if s.IsRoundActive {
			return fmt.Errorf("%w: phase %q with the round open", ErrInvalidState, s.Phase)
		}
	case "":
		// records written before phases existed
	default:
		return fmt.Errorf("%w: unknown phase %q", ErrInvalidState, s.Phase)
	}
	return nil
}

// snapshot copies the live game into a State. Assumes lock is held.
func (g *Game) snapshot() State {
	players := make([]models.Player, len(g.Players))
	for i, p := range g.Players {
		players[i] = *p
	}
	return State{
		ID:                 g.ID,
		Rules:              g.Rules,
		Players:            players,
		CurrentPlayerIndex: g.CurrentPlayerIndex,
		RoundNumber:        g.RoundNumber,
		DrawCount:          g.DrawCount,
		IsRoundActive:      g.IsRoundActive,
		Phase:              g.Phase,
		SelectedFormation:  g.SelectedFormation,
		ShowTileSelector:   g.ShowTileSelector,
		ShowVictoryInputs:  g.ShowVictoryInputs,
		ShowRoundSummary:   g.Phase == PhaseRoundSummary,
		PinHash:            g.PinHash,
	}
}

// State returns a copy of the current game-state record.
func (g *Game) State() State {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.snapshot()
}

// WithState calls fn with a snapshot while holding the game lock. No change is committed
// or broadcast until fn returns, so fn must not call back into the game.
func (g *Game) WithState(fn func(State)) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	fn(g.snapshot())
}
