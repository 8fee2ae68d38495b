package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptanceRate(t *testing.T) {
	tests := []struct {
		name               string
		accepted, rejected int64
		want               float64
	}{
		{"nothing decided", 0, 0, 0},
		{"all accepted", 4, 0, 100},
		{"all rejected", 0, 3, 0},
		{"two thirds", 2, 1, 66.67},
		{"half", 5, 5, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AcceptanceRate(tt.accepted, tt.rejected))
		})
	}
}

func TestMeanProcessingDays(t *testing.T) {
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, MeanProcessingDays(nil))

	spans := []Span{
		{SubmittedAt: base, ProcessedAt: base.Add(2 * 24 * time.Hour)},
		{SubmittedAt: base, ProcessedAt: base.Add(5*24*time.Hour + 12*time.Hour)},
	}
	// mean is 3 days 18 hours
	assert.Equal(t, 3, MeanProcessingDays(spans))

	same := []Span{{SubmittedAt: base, ProcessedAt: base.Add(20 * time.Hour)}}
	assert.Equal(t, 0, MeanProcessingDays(same))
}

func TestMeanProcessingDays_LongSpans(t *testing.T) {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	spans := make([]Span, 1000)
	for i := range spans {
		submitted := base.AddDate(0, 0, i)
		spans[i] = Span{SubmittedAt: submitted, ProcessedAt: submitted.Add(120 * 24 * time.Hour)}
	}
	assert.Equal(t, 120, MeanProcessingDays(spans))
}

func TestMonthlyCounts(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	dates := []time.Time{
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC), // outside the window
	}

	got := MonthlyCounts(now, dates, 12)
	require.Len(t, got, 12)
	assert.Equal(t, "2024-04", got[0].Month)
	assert.Equal(t, int64(1), got[0].Count)
	assert.Equal(t, "2025-03", got[11].Month)
	assert.Equal(t, int64(2), got[11].Count)
	assert.Equal(t, "2025-01", got[9].Month)
	assert.Equal(t, int64(1), got[9].Count)
	assert.Equal(t, int64(0), got[10].Count)

	var total int64
	for _, m := range got {
		total += m.Count
	}
	assert.Equal(t, int64(4), total)

	assert.Nil(t, MonthlyCounts(now, dates, 0))
}

func TestTopAgents(t *testing.T) {
	counts := []AgentCount{
		{AgentID: 3, Count: 2},
		{AgentID: 1, Count: 7},
		{AgentID: 2, Count: 2},
		{AgentID: 4, Count: 1},
	}
	top := TopAgents(counts, 3)
	require.Len(t, top, 3)
	assert.Equal(t, []uint{1, 2, 3}, []uint{top[0].AgentID, top[1].AgentID, top[2].AgentID})
	assert.Equal(t, uint(3), counts[0].AgentID, "input is not reordered")

	assert.Len(t, TopAgents(counts, 10), 4)
}
