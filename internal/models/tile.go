package models

import "fmt"

// Tile is a triomino read clockwise from the top corner.
type Tile [3]int

// Sum is the tile's score contribution.
func (t Tile) Sum() int {
	return t[0] + t[1] + t[2]
}

// IsTriple reports whether all three corners carry the same value.
func (t Tile) IsTriple() bool {
	return t[0] == t[1] && t[1] == t[2]
}

// Valid reports whether every corner is in [0,9].
func (t Tile) Valid() bool {
	for _, v := range t {
		if v < 0 || v > 9 {
			return false
		}
	}
	return true
}

func (t Tile) String() string {
	return fmt.Sprintf("[%d,%d,%d]", t[0], t[1], t[2])
}
