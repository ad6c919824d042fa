package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func TestGenerate_PartitionsWindowIntoHourSlots(t *testing.T) {
	loc := berlin(t)
	date := time.Date(2026, 10, 19, 0, 0, 0, 0, loc)

	slots, err := Generate(Window{Start: "09:00", End: "12:00", Available: true}, date, nil, time.Hour)
	require.NoError(t, err)
	require.Len(t, slots, 3)

	assert.Equal(t, time.Date(2026, 10, 19, 9, 0, 0, 0, loc), slots[0].Start)
	assert.Equal(t, time.Date(2026, 10, 19, 10, 0, 0, 0, loc), slots[0].End)
	assert.Equal(t, time.Date(2026, 10, 19, 11, 0, 0, 0, loc), slots[2].Start)
	for _, s := range slots {
		assert.True(t, s.Available)
	}
}

func TestGenerate_DropsTrailingRemainder(t *testing.T) {
	date := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	slots, err := Generate(Window{Start: "09:00", End: "11:30", Available: true}, date, nil, time.Hour)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 10, slots[1].Start.Hour())
}

func TestGenerate_MarksOverlappingSlotsUnavailable(t *testing.T) {
	date := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	booked := []Interval{
		// 30 minute booking inside the 10:00 slot
		{Start: date.Add(10*time.Hour + 15*time.Minute), End: date.Add(10*time.Hour + 45*time.Minute)},
		// touching the end of the 11:00 slot does not overlap it
		{Start: date.Add(12 * time.Hour), End: date.Add(13 * time.Hour)},
	}

	slots, err := Generate(Window{Start: "09:00", End: "12:00", Available: true}, date, booked, time.Hour)
	require.NoError(t, err)
	require.Len(t, slots, 3)

	assert.True(t, slots[0].Available)
	assert.False(t, slots[1].Available)
	assert.True(t, slots[2].Available)

	selectable := Selectable(slots)
	assert.Len(t, selectable, 2)
}

func TestGenerate_UnavailableDayIsEmpty(t *testing.T) {
	date := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	slots, err := Generate(Window{Start: "09:00", End: "17:00", Available: false}, date, nil, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.Equal(t, ViewEmpty, StateOf(slots, true))
}

func TestGenerate_RejectsBadInput(t *testing.T) {
	date := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	_, err := Generate(Window{Start: "17:00", End: "09:00", Available: true}, date, nil, time.Hour)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Generate(Window{Start: "9am", End: "17:00", Available: true}, date, nil, time.Hour)
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)

	_, err = Generate(Window{Start: "09:00", End: "17:00", Available: true}, date, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestGenerate_HandlesDSTChange(t *testing.T) {
	loc := berlin(t)
	// clocks go back on 2026-10-25 in Berlin; working hours are wall-clock times
	date := time.Date(2026, 10, 25, 0, 0, 0, 0, loc)

	slots, err := Generate(Window{Start: "09:00", End: "11:00", Available: true}, date, nil, time.Hour)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 9, slots[0].Start.Hour())
}

func TestFindAvailable(t *testing.T) {
	date := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	slots := []TimeSlot{
		{Start: date.Add(9 * time.Hour), End: date.Add(10 * time.Hour), Available: false},
		{Start: date.Add(10 * time.Hour), End: date.Add(11 * time.Hour), Available: true},
	}

	_, ok := FindAvailable(slots, date.Add(9*time.Hour))
	assert.False(t, ok)

	s, ok := FindAvailable(slots, date.Add(10*time.Hour).In(time.FixedZone("x", 3600)))
	assert.True(t, ok)
	assert.Equal(t, date.Add(11*time.Hour), s.End)
}

func TestDateOptions_FourteenDaysFromToday(t *testing.T) {
	today := time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC)

	opts := DateOptions(today, 0)
	require.Len(t, opts, DefaultWindowDays)
	assert.Equal(t, "2026-10-19", opts[0].Date)
	assert.True(t, opts[0].IsToday)
	assert.Equal(t, "2026-11-01", opts[13].Date)
	assert.False(t, opts[13].IsToday)
}

func TestValidateDate(t *testing.T) {
	today := time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateDate(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), today))
	assert.NoError(t, ValidateDate(time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), today))
	assert.ErrorIs(t, ValidateDate(time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), today), ErrDateInPast)
}

func TestParseDate(t *testing.T) {
	loc := berlin(t)

	d, err := ParseDate("2026-10-19", loc)
	require.NoError(t, err)
	assert.Equal(t, loc, d.Location())
	assert.Equal(t, 0, d.Hour())

	_, err = ParseDate("19.10.2026", loc)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, ViewLoading, StateOf(nil, false))
	assert.Equal(t, ViewEmpty, StateOf([]TimeSlot{}, true))
	assert.Equal(t, ViewEmpty, StateOf([]TimeSlot{{Available: false}}, true))
	assert.Equal(t, ViewSlots, StateOf([]TimeSlot{{Available: true}}, true))
}
