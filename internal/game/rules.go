// internal/game/rules.go
package game

import "fmt"

// Fixed opening bonuses. The rules only toggle them.
const (
	ZeroStartBonusPoints   = 30
	TripleStartBonusPoints = 10

	// MinWinLimit is the lowest accepted win limit.
	MinWinLimit = 100
)

// Rules is the scoring configuration chosen at setup. Only WinLimit may change afterwards.
type Rules struct {
	TripleStartBonus   bool `json:"tripleStartBonus"`   // opening triple earns TripleStartBonusPoints
	ZeroStartBonus     bool `json:"zeroStartBonus"`     // opening 0-0-0 earns ZeroStartBonusPoints
	BridgeBonus        int  `json:"bridgeBonus"`        // flat bonus for a bridge
	HexagonBonus       int  `json:"hexagonBonus"`       // flat bonus for a hexagon
	DoubleHexagonBonus int  `json:"doubleHexagonBonus"` // flat bonus for a double hexagon
	TripleHexagonBonus int  `json:"tripleHexagonBonus"` // flat bonus for a triple hexagon
	DrawPenalty        int  `json:"drawPenalty"`        // per draw while drawCount <= MaxDraws
	MaxDraws           int  `json:"maxDraws"`           // draws allowed before FinalDrawPenalty
	FinalDrawPenalty   int  `json:"finalDrawPenalty"`   // applied once MaxDraws is exceeded; ends the turn
	WinBonus           int  `json:"winBonus"`           // flat bonus for the round winner
	WinLimit           int  `json:"winLimit"`           // total that raises the win-limit notification
}

// DefaultRules returns the rule set offered on the setup screen.
func DefaultRules() Rules {
	return Rules{
		TripleStartBonus:   false,
		ZeroStartBonus:     false,
		BridgeBonus:        40,
		HexagonBonus:       50,
		DoubleHexagonBonus: 60,
		TripleHexagonBonus: 70,
		DrawPenalty:        5,
		MaxDraws:           3,
		FinalDrawPenalty:   10,
		WinBonus:           25,
		WinLimit:           400,
	}
}

// Validate checks the numeric constraints of a rule set.
func (rules Rules) Validate() error {
	nonNegative := map[string]int{
		"bridgeBonus":        rules.BridgeBonus,
		"hexagonBonus":       rules.HexagonBonus,
		"doubleHexagonBonus": rules.DoubleHexagonBonus,
		"tripleHexagonBonus": rules.TripleHexagonBonus,
		"drawPenalty":        rules.DrawPenalty,
		"finalDrawPenalty":   rules.FinalDrawPenalty,
		"winBonus":           rules.WinBonus,
	}
	for key, v := range nonNegative {
		if v < 0 {
			return fmt.Errorf("%w: %s must be non-negative", ErrInvalidRules, key)
		}
	}
	if rules.MaxDraws < 1 {
		return fmt.Errorf("%w: maxDraws must be positive", ErrInvalidRules)
	}
	if rules.WinLimit < MinWinLimit {
		return fmt.Errorf("%w: winLimit must be at least %d", ErrInvalidRules, MinWinLimit)
	}
	return nil
}

// Update will update the rules with the new values provided.
// If a rule is not set or defined, it will be ignored, and the old value will persist.
// On error the receiver may be partially updated; use ParseRules to work on a copy.
func (rules *Rules) Update(newRules map[string]interface{}) error {
	assignBool := func(field *bool, key string) error {
		if val, exists := newRules[key]; exists && val != nil {
			b, ok := val.(bool)
			if !ok {
				return fmt.Errorf("%w: invalid type for %s", ErrInvalidRules, key)
			}
			*field = b
		}
		return nil
	}

	assignInt := func(field *int, key string, minVal int) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		// JSON numbers decode as float64
		var n int
		switch v := val.(type) {
		case float64:
			if v != float64(int(v)) {
				return fmt.Errorf("%w: %s must be an integer", ErrInvalidRules, key)
			}
			n = int(v)
		case int:
			n = v
		default:
			return fmt.Errorf("%w: invalid type for %s", ErrInvalidRules, key)
		}
		if n < minVal {
			return fmt.Errorf("%w: %s must be at least %d", ErrInvalidRules, key, minVal)
		}
		*field = n
		return nil
	}

	if err := assignBool(&rules.TripleStartBonus, "tripleStartBonus"); err != nil {
		return err
	}
	if err := assignBool(&rules.ZeroStartBonus, "zeroStartBonus"); err != nil {
		return err
	}

	ints := []struct {
		field  *int
		key    string
		minVal int
	}{
		{&rules.BridgeBonus, "bridgeBonus", 0},
		{&rules.HexagonBonus, "hexagonBonus", 0},
		{&rules.DoubleHexagonBonus, "doubleHexagonBonus", 0},
		{&rules.TripleHexagonBonus, "tripleHexagonBonus", 0},
		{&rules.DrawPenalty, "drawPenalty", 0},
		{&rules.MaxDraws, "maxDraws", 1},
		{&rules.FinalDrawPenalty, "finalDrawPenalty", 0},
		{&rules.WinBonus, "winBonus", 0},
		{&rules.WinLimit, "winLimit", MinWinLimit},
	}
	for _, it := range ints {
		if err := assignInt(it.field, it.key, it.minVal); err != nil {
			return err
		}
	}
	return nil
}

// ParseRules applies a partial rule map on top of current and returns the result.
// current is left untouched.
func ParseRules(rules map[string]interface{}, current Rules) (Rules, error) {
	parsed := current
	if err := parsed.Update(rules); err != nil {
		return current, err
	}
	return parsed, nil
}

// FormationBonus returns the configured amount for a formation.
func (rules Rules) FormationBonus(f Formation) (int, error) {
	switch f {
	case FormationBridge:
		return rules.BridgeBonus, nil
	case FormationHexagon:
		return rules.HexagonBonus, nil
	case FormationDoubleHexagon:
		return rules.DoubleHexagonBonus, nil
	case FormationTripleHexagon:
		return rules.TripleHexagonBonus, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormation, string(f))
}
