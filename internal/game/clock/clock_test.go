package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/saltmere/mud/internal/game/clock"
)

// stepper is a controllable time function.
type stepper struct{ t time.Time }

func (s *stepper) now() time.Time               { return s.t }
func (s *stepper) advance(d time.Duration)      { s.t = s.t.Add(d) }
func newStepper() *stepper                      { return &stepper{t: time.Unix(1_000_000, 0)} }

func TestWorldClock_AdvancesAtRatio(t *testing.T) {
	s := newStepper()
	c := clock.NewFixed(0, 3, s.now)

	assert.Equal(t, int64(0), c.WorldSeconds())
	s.advance(10 * time.Second)
	assert.Equal(t, int64(30), c.WorldSeconds())
	s.advance(50 * time.Second)
	assert.Equal(t, int64(180), c.WorldSeconds())
}

func TestWorldClock_SetWorldSeconds(t *testing.T) {
	s := newStepper()
	c := clock.NewFixed(0, 3, s.now)
	s.advance(time.Minute)

	c.SetWorldSeconds(500)
	assert.Equal(t, int64(500), c.WorldSeconds())
	s.advance(time.Second)
	assert.Equal(t, int64(503), c.WorldSeconds())
}

func TestWorldClock_DurationConversions(t *testing.T) {
	c := clock.New(0, 3)
	assert.Equal(t, 9*time.Second, c.GameDuration(3*time.Second))
	assert.Equal(t, time.Second, c.RealDuration(3*time.Second))
}

func TestCalendarFields_PureFunctions(t *testing.T) {
	// Day 2, 07:30:15.
	ws := int64(2*86400 + 7*3600 + 30*60 + 15)
	assert.Equal(t, int64(2), clock.Day(ws))
	assert.Equal(t, 7, clock.Hour(ws))
	assert.Equal(t, 30, clock.Minute(ws))
	assert.Equal(t, 7*60+30, clock.MinuteOfDay(ws))
}

func TestPartOf_Boundaries(t *testing.T) {
	cases := []struct {
		hour int
		want clock.DayPart
	}{
		{0, clock.PartNight},
		{4, clock.PartNight},
		{5, clock.PartDawn},
		{7, clock.PartDawn},
		{8, clock.PartMorning},
		{11, clock.PartMorning},
		{12, clock.PartAfternoon},
		{16, clock.PartAfternoon},
		{17, clock.PartDusk},
		{19, clock.PartDusk},
		{20, clock.PartNight},
		{23, clock.PartNight},
	}
	for _, tc := range cases {
		got := clock.PartOf(int64(tc.hour) * 3600)
		assert.Equal(t, tc.want, got, "hour %d", tc.hour)
	}
}

func TestTimeString_AnchorsAndBells(t *testing.T) {
	assert.Contains(t, clock.TimeString(5*3600), "sunrise")
	assert.Contains(t, clock.TimeString(7*3600), "2 bells past sunrise")
	assert.Contains(t, clock.TimeString(12*3600), "midday")
	assert.Contains(t, clock.TimeString(13*3600), "1 bell past noon")
	assert.Contains(t, clock.TimeString(0), "4 bells into the night")
}
