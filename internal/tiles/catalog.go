// Package tiles is the read-only catalog of Triominos pieces the operator browses when
// recording a placement. Scoring never consults it.
package tiles

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/Lukasz11111/triominos/internal/models"
)

// MaxValue is the highest corner value printed on a standard piece.
const MaxValue = 5

var catalog = build()

// build enumerates every piece a <= b <= c over 0..MaxValue: 56 tiles.
func build() []models.Tile {
	var out []models.Tile
	for a := 0; a <= MaxValue; a++ {
		for b := a; b <= MaxValue; b++ {
			for c := b; c <= MaxValue; c++ {
				out = append(out, models.Tile{a, b, c})
			}
		}
	}
	return out
}

// All returns a copy of the full catalog in canonical order.
func All() []models.Tile {
	out := make([]models.Tile, len(catalog))
	copy(out, catalog)
	return out
}

// ParseFilter turns operator filter text into the numbers a tile must contain.
// Text with whitespace, or longer than three characters, is split on whitespace;
// shorter text is read digit by digit. Anything that is not a number is ignored.
func ParseFilter(filter string) []int {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil
	}
	var parts []string
	if strings.IndexFunc(filter, unicode.IsSpace) >= 0 || len(filter) > 3 {
		parts = strings.Fields(filter)
	} else {
		for _, r := range filter {
			parts = append(parts, string(r))
		}
	}
	var nums []int
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	return nums
}

// Filter returns the catalog tiles containing every number of the filter text.
// An empty or unusable filter returns the whole catalog.
func Filter(filter string) []models.Tile {
	nums := ParseFilter(filter)
	if len(nums) == 0 {
		return All()
	}
	out := []models.Tile{}
	for _, t := range catalog {
		if containsAll(t, nums) {
			out = append(out, t)
		}
	}
	return out
}

// containsAll checks each number independently, so "0 0" matches any tile with a 0.
func containsAll(t models.Tile, nums []int) bool {
	for _, n := range nums {
		if t[0] != n && t[1] != n && t[2] != n {
			return false
		}
	}
	return true
}
