package history

import (
	"math"
	"time"
)

// DefaultSummaryWindow is the trailing window for dashboard summaries.
const DefaultSummaryWindow = 7 * 24 * time.Hour

// DeepWorkThreshold is the average flow score at or above which a session
// counts as deep work.
const DeepWorkThreshold = 70.0

// Summary aggregates the records inside a trailing window.
type Summary struct {
	Sessions         int
	TotalDuration    time.Duration
	MeanFlowScore    float64
	DeepWorkCount    int
	MeanProductivity float64
}

// Summarize filters records within the trailing window ending at now and
// computes the dashboard summary statistics.
func Summarize(records []Record, window time.Duration, now time.Time) Summary {
	if window <= 0 {
		window = DefaultSummaryWindow
	}
	cutoff := now.Add(-window)

	var s Summary
	var flowSum, prodSum float64

	for _, r := range records {
		if !r.Timestamp.After(cutoff) {
			continue
		}
		s.Sessions++
		s.TotalDuration += time.Duration(r.DurationSeconds) * time.Second
		flowSum += r.AvgFlowScore
		prodSum += r.ProductivityIndex
		if r.AvgFlowScore >= DeepWorkThreshold {
			s.DeepWorkCount++
		}
	}

	if s.Sessions > 0 {
		s.MeanFlowScore = flowSum / float64(s.Sessions)
		s.MeanProductivity = prodSum / float64(s.Sessions)
	}

	return s
}

// HourRank is one entry of the best-hours ranking.
type HourRank struct {
	Hour     int
	MeanFlow float64
	Sessions int
}

// RankBestHours groups records by hour of day, averages the flow score per
// hour and sorts descending. Ties keep the order in which the hour first
// appeared in the record sequence.
func RankBestHours(records []Record) []HourRank {
	type bucket struct {
		sum   float64
		count int
		order int
	}

	buckets := make(map[int]*bucket)
	order := 0
	for _, r := range records {
		b, ok := buckets[r.HourOfDay]
		if !ok {
			b = &bucket{order: order}
			order++
			buckets[r.HourOfDay] = b
		}
		b.sum += r.AvgFlowScore
		b.count++
	}

	ranks := make([]HourRank, 0, len(buckets))
	orders := make(map[int]int, len(buckets))
	for hour, b := range buckets {
		ranks = append(ranks, HourRank{
			Hour:     hour,
			MeanFlow: b.sum / float64(b.count),
			Sessions: b.count,
		})
		orders[hour] = b.order
	}

	// Insertion sort keeps the tie-break stable on first-occurrence order
	for i := 1; i < len(ranks); i++ {
		for j := i; j > 0; j-- {
			a, b := ranks[j-1], ranks[j]
			if b.MeanFlow > a.MeanFlow || (b.MeanFlow == a.MeanFlow && orders[b.Hour] < orders[a.Hour]) {
				ranks[j-1], ranks[j] = ranks[j], ranks[j-1]
			} else {
				break
			}
		}
	}

	return ranks
}

// Metric selects the record field compared by TrendChange.
type Metric string

const (
	MetricDuration     Metric = "duration"
	MetricAvgFlow      Metric = "avg_flow"
	MetricProductivity Metric = "productivity"
	MetricTabSwitches  Metric = "tab_switches"
)

func (m Metric) value(r Record) float64 {
	switch m {
	case MetricDuration:
		return float64(r.DurationSeconds)
	case MetricAvgFlow:
		return r.AvgFlowScore
	case MetricProductivity:
		return r.ProductivityIndex
	case MetricTabSwitches:
		return float64(r.TabSwitches)
	default:
		return 0
	}
}

// TrendChange splits the subset in half by position and returns the signed
// percentage change of the metric mean from the first half to the second.
// Fewer than two records, or a zero first-half mean, yields 0% rather than
// a division error.
func TrendChange(records []Record, metric Metric) float64 {
	if len(records) < 2 {
		return 0
	}

	mid := len(records) / 2
	first := mean(records[:mid], metric)
	second := mean(records[mid:], metric)

	if first == 0 {
		return 0
	}

	return (second - first) / first * 100
}

func mean(records []Record, metric Metric) float64 {
	if len(records) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range records {
		sum += metric.value(r)
	}
	return sum / float64(len(records))
}

// WeeklyFlow buckets the trailing week's records by weekday and returns the
// rounded mean flow score per day, keyed by time.Weekday.
func WeeklyFlow(records []Record, now time.Time) map[time.Weekday]int {
	cutoff := now.Add(-DefaultSummaryWindow)

	sums := make(map[time.Weekday]float64)
	counts := make(map[time.Weekday]int)
	for _, r := range records {
		if !r.Timestamp.After(cutoff) {
			continue
		}
		day := r.Timestamp.Weekday()
		sums[day] += r.AvgFlowScore
		counts[day]++
	}

	out := make(map[time.Weekday]int, len(sums))
	for day, sum := range sums {
		out[day] = int(math.Round(sum / float64(counts[day])))
	}
	return out
}

// TotalTabSwitches tallies tab switches across all records.
func TotalTabSwitches(records []Record) int {
	total := 0
	for _, r := range records {
		total += r.TabSwitches
	}
	return total
}
