// Package stats holds the pure calculations behind the dashboard. Inputs come
// from repository queries; nothing here is cached.
package stats

import (
	"math"
	"sort"
	"time"
)

// AcceptanceRate is accepted / (accepted + rejected) * 100, rounded to two
// decimals, and 0 when nothing was decided yet.
func AcceptanceRate(accepted, rejected int64) float64 {
	total := accepted + rejected
	if total <= 0 {
		return 0
	}
	rate := float64(accepted) / float64(total) * 100
	return math.Round(rate*100) / 100
}

// Span is the submission and processing time of one request.
type Span struct {
	SubmittedAt time.Time
	ProcessedAt time.Time
}

const secondsPerDay = 24 * 60 * 60

// MeanProcessingDays averages processing durations and truncates the mean to
// whole days. Durations are summed in whole seconds, not as time.Duration,
// which overflows past 292 years of cumulated processing.
func MeanProcessingDays(spans []Span) int {
	if len(spans) == 0 {
		return 0
	}
	var total int64
	for _, s := range spans {
		total += s.ProcessedAt.Unix() - s.SubmittedAt.Unix()
	}
	mean := total / int64(len(spans))
	return int(mean / secondsPerDay)
}

type MonthCount struct {
	Month string `json:"mois"`
	Count int64  `json:"total"`
}

// MonthlyCounts buckets dates into the trailing months calendar months ending
// with the month of now, oldest first. Empty months are present with 0.
func MonthlyCounts(now time.Time, dates []time.Time, months int) []MonthCount {
	if months <= 0 {
		return nil
	}
	loc := now.Location()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(months - 1), 0)

	out := make([]MonthCount, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		key := first.AddDate(0, i, 0).Format("2006-01")
		out[i] = MonthCount{Month: key}
		index[key] = i
	}
	for _, d := range dates {
		if i, ok := index[d.In(loc).Format("2006-01")]; ok {
			out[i].Count++
		}
	}
	return out
}

type AgentCount struct {
	AgentID uint   `json:"agent_id"`
	Name    string `json:"nom"`
	Count   int64  `json:"demandes_traitees"`
}

// TopAgents sorts by count descending, then by id, and keeps at most n.
func TopAgents(counts []AgentCount, n int) []AgentCount {
	out := append([]AgentCount(nil), counts...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].AgentID < out[j].AgentID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
