package analysis

import (
	"sort"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// -----------------------------------------------------------------------------

// DayIndex converts a time to whole days since the unix epoch (UTC calendar date).
func DayIndex(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

// -----------------------------------------------------------------------------

// SearchSorted mirrors numpy's searchsorted on an ascending slice.
func SearchSorted(arr []int64, value int64, side string) int {
	if side == "left" {
		return sort.Search(len(arr), func(i int) bool {
			return arr[i] >= value
		})
	}
	return sort.Search(len(arr), func(i int) bool {
		return arr[i] > value
	})
}

// -----------------------------------------------------------------------------

// TrailingWindow returns the half-open index range [start, end) of days that fall
// in [anchor-windowDays, anchor]. days must be sorted ascending.
func TrailingWindow(days []int64, anchor int64, windowDays int64) (int, int) {
	start := SearchSorted(days, anchor-windowDays, "left")
	end := SearchSorted(days, anchor, "right")
	if start > end {
		start = end
	}
	return start, end
}

// -----------------------------------------------------------------------------

// Slice extracts [start, end) from each of the given series.
func Slice(start, end int, series ...[]float64) [][]float64 {
	out := make([][]float64, len(series))
	for i, s := range series {
		out[i] = s[start:end]
	}
	return out
}
