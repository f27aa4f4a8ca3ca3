package fertility

import (
	"math"
	"sort"
)

type Regularity string

const (
	RegularityUnknown     Regularity = "unknown"
	RegularityVeryRegular Regularity = "very_regular"
	RegularityRegular     Regularity = "regular"
	RegularityVariable    Regularity = "variable"
	RegularityIrregular   Regularity = "irregular"
)

// minRegularitySamples is the number of measured cycles needed before
// spread says anything.
const minRegularitySamples = 3

type HistoryStats struct {
	Tracked       int        `json:"total_tracked"`
	Measured      int        `json:"measured"`
	AverageLength float64    `json:"average_cycle_length"`
	MedianLength  int        `json:"median_cycle_length"`
	Shortest      int        `json:"shortest_cycle"`
	Longest       int        `json:"longest_cycle"`
	StdDev        float64    `json:"std_dev"`
	Regularity    Regularity `json:"regularity"`
}

// SummarizeCycleLengths aggregates measured cycle lengths; non-positive
// entries are ignored. tracked is the number of recorded periods,
// including those without a measured length.
func SummarizeCycleLengths(tracked int, lengths []int) HistoryStats {
	stats := HistoryStats{Tracked: tracked, Regularity: RegularityUnknown}

	measured := make([]int, 0, len(lengths))
	for _, length := range lengths {
		if length > 0 {
			measured = append(measured, length)
		}
	}
	if len(measured) == 0 {
		return stats
	}

	sort.Ints(measured)
	stats.Measured = len(measured)
	stats.Shortest = measured[0]
	stats.Longest = measured[len(measured)-1]

	var total int
	for _, length := range measured {
		total += length
	}
	mean := float64(total) / float64(len(measured))
	stats.AverageLength = math.Round(mean*10) / 10
	stats.MedianLength = medianOfSorted(measured)

	if len(measured) < minRegularitySamples {
		return stats
	}

	var variance float64
	for _, length := range measured {
		delta := float64(length) - mean
		variance += delta * delta
	}
	stdDev := math.Sqrt(variance / float64(len(measured)))
	stats.StdDev = math.Round(stdDev*100) / 100

	switch {
	case stdDev <= 2:
		stats.Regularity = RegularityVeryRegular
	case stdDev <= 4:
		stats.Regularity = RegularityRegular
	case stdDev <= 7:
		stats.Regularity = RegularityVariable
	default:
		stats.Regularity = RegularityIrregular
	}
	return stats
}

// RoundedAverage is the mean cycle length rounded half-up, or zero when
// fewer than minSamples lengths are measured.
func RoundedAverage(lengths []int, minSamples int) int {
	var total, count int
	for _, length := range lengths {
		if length <= 0 {
			continue
		}
		total += length
		count++
	}
	if count == 0 || count < minSamples {
		return 0
	}
	return int(float64(total)/float64(count) + 0.5)
}

func medianOfSorted(sorted []int) int {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return int(float64(sorted[mid-1]+sorted[mid])/2 + 0.5)
}
