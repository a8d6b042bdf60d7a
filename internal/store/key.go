package store

import (
	"fmt"
	"math"
	"strings"

	"github.com/i474232898/historical-risk-explorer/internal/weather"
)

// Key derives the cache key for (location, variable, date, source).
// Coordinates are fixed to 4 decimal places.
func Key(loc weather.Location, variable, date, source string) string {
	return fmt.Sprintf("%s_%s_%s_%s_%s",
		sanitize(variable),
		coord(loc.Lat),
		coord(loc.Lon),
		sanitize(date),
		sanitize(strings.ToLower(source)),
	)
}

func coord(v float64) string {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		// -0.00001 and 0.00001 share an entry.
		r = 0
	}
	return fmt.Sprintf("%.4f", r)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
