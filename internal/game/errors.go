package game

import "errors"

// Every operation validates before it mutates: an error means no state change and no history entry.
var (
	ErrInvalidNumber      = errors.New("invalid number")
	ErrInvalidTile        = errors.New("tile values must be in [0,9]")
	ErrInvalidPlayerCount = errors.New("player count must be between 2 and 6")
	ErrEmptyPlayerName    = errors.New("every player needs a name")
	ErrInvalidRules       = errors.New("invalid rules")
	ErrInvalidWinLimit    = errors.New("win limit must be an integer of at least 100")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrRoundNotActive     = errors.New("round is not active")
	ErrNotAllPassed       = errors.New("round is not waiting for round-end losses")
	ErrRoundNotOver       = errors.New("round is not over")
	ErrAlreadyPassed      = errors.New("player has already passed")
	ErrPlayerNotActive    = errors.New("player is not the active player")
	ErrUnknownFormation   = errors.New("unknown formation")
	ErrInvalidState       = errors.New("invalid game state")
)
