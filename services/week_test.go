package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekBoundariesMidweek(t *testing.T) {
	start, end := WeekBoundaries(time.Date(2024, 6, 12, 15, 30, 0, 0, time.UTC)) // Wednesday

	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 6, 16, 23, 59, 59, 999_000_000, time.UTC), end)
}

func TestWeekBoundariesSunday(t *testing.T) {
	// Sunday belongs to the week that started the previous Monday.
	start, end := WeekBoundaries(time.Date(2024, 6, 16, 1, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 6, 16, 23, 59, 59, 999_000_000, time.UTC), end)
}

func TestWeekBoundariesMonday(t *testing.T) {
	start, _ := WeekBoundaries(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), start)
}

func TestWeekInfoUsesISOWeekYear(t *testing.T) {
	// Dec 30 2024 is a Monday in week 1 of ISO year 2025.
	year, week := WeekInfo(time.Date(2024, 12, 30, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, 2025, year)
	assert.Equal(t, 1, week)

	// Jan 1 2021 is a Friday still in week 53 of ISO year 2020.
	year, week = WeekInfo(time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, 2020, year)
	assert.Equal(t, 53, week)
}

func TestIsWeekOver(t *testing.T) {
	wednesday := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)

	assert.False(t, IsWeekOver(wednesday, time.Date(2024, 6, 16, 23, 59, 59, 0, time.UTC)))
	assert.True(t, IsWeekOver(wednesday, time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)))
}
