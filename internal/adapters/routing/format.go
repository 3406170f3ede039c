package routing

import (
	"fmt"
	"math"
)

const metersPerMile = 1609.344

// FormatDuration renders seconds the way directions services do:
// "1 min", "5 mins", "1 hour 5 mins". Anything under a minute rounds up.
func FormatDuration(seconds float64) string {
	mins := int(math.Round(seconds / 60))
	if mins < 1 {
		mins = 1
	}

	hours := mins / 60
	mins %= 60

	switch {
	case hours == 0:
		return plural(mins, "min")
	case mins == 0:
		return plural(hours, "hour")
	default:
		return plural(hours, "hour") + " " + plural(mins, "min")
	}
}

// FormatDistance renders meters in imperial units: feet below 0.1 mi,
// otherwise miles with one decimal.
func FormatDistance(meters float64) string {
	miles := meters / metersPerMile
	if miles < 0.1 {
		return fmt.Sprintf("%d ft", int(math.Round(meters*3.28084)))
	}
	return fmt.Sprintf("%.1f mi", miles)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
