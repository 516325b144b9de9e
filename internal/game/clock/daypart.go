package clock

import "fmt"

// DayPart is a named phase of the game day.
type DayPart string

const (
	PartDawn      DayPart = "Dawn"
	PartMorning   DayPart = "Morning"
	PartAfternoon DayPart = "Afternoon"
	PartDusk      DayPart = "Dusk"
	PartNight     DayPart = "Night"
)

// PartOf returns the day part for a world-seconds value.
//
// Postcondition: Returns one of the five DayPart constants.
func PartOf(worldSeconds int64) DayPart {
	hour := Hour(worldSeconds)
	switch {
	case hour >= 5 && hour < 8:
		return PartDawn
	case hour >= 8 && hour < 12:
		return PartMorning
	case hour >= 12 && hour < 17:
		return PartAfternoon
	case hour >= 17 && hour < 20:
		return PartDusk
	default: // 20:00–04:59
		return PartNight
	}
}

// flavor lines appended to the friendly time string per day part.
var partFlavor = map[DayPart]string{
	PartDawn:      "The sky lightens in the east.",
	PartMorning:   "The town stirs to life.",
	PartAfternoon: "The day is in full swing.",
	PartDusk:      "Shadows lengthen as daylight fades.",
	PartNight:     "The docks are lit by lanterns.",
}

// TimeString renders the friendly bells-based time description shown to
// players, e.g. "It is Morning, 2 bells past dawn. (Day 4)".
//
// Postcondition: Returns a non-empty two-line string.
func TimeString(worldSeconds int64) string {
	part := PartOf(worldSeconds)
	hour := Hour(worldSeconds)

	var desc string
	switch part {
	case PartDawn:
		desc = bells(hour-5, "sunrise", "past sunrise")
	case PartMorning:
		desc = bells(hour-8, "early morning", "past dawn")
	case PartAfternoon:
		desc = bells(hour-12, "midday", "past noon")
	case PartDusk:
		desc = bells(hour-17, "sunset", "past sunset")
	default:
		n := hour - 20
		if hour < 20 {
			n = hour + 4
		}
		desc = bells(n, "deep night", "into the night")
	}

	return fmt.Sprintf("It is %s, %s. (Day %d)\n%s", part, desc, Day(worldSeconds), partFlavor[part])
}

// bells formats "N bell(s) <suffix>" or the zero-hour anchor phrase.
func bells(n int, zero, suffix string) string {
	if n <= 0 {
		return zero
	}
	plural := ""
	if n > 1 {
		plural = "s"
	}
	return fmt.Sprintf("%d bell%s %s", n, plural, suffix)
}
