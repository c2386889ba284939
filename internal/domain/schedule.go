package domain

import (
	"sort"
	"time"
)

// Gap is a contiguous unscheduled interval within the work day. Gaps are
// derived on demand and never stored.
type Gap struct {
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes int       `json:"duration"`
}

// SortBlocks returns the blocks ordered by start time. The input is not
// modified.
func SortBlocks(blocks []TimeBlock) []TimeBlock {
	sorted := make([]TimeBlock, len(blocks))
	copy(sorted, blocks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})
	return sorted
}

// HasOverlap reports whether any two blocks overlap. Overlapping input is a
// caller error; gap computation assumes it has been ruled out.
func HasOverlap(blocks []TimeBlock) bool {
	sorted := SortBlocks(blocks)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].StartTime.Before(sorted[i-1].EndTime) {
			return true
		}
	}
	return false
}

// Overlaps reports whether the [start, end) interval intersects the block.
func (b TimeBlock) Overlaps(start, end time.Time) bool {
	return start.Before(b.EndTime) && b.StartTime.Before(end)
}

// ComputeGaps finds unscheduled intervals of at least minGapMinutes between
// dayStart and dayEnd, given the day's blocks. Sub-threshold gaps are
// invisible to callers: they are too small to act on.
func ComputeGaps(blocks []TimeBlock, dayStart, dayEnd time.Time, minGapMinutes int) []Gap {
	sorted := SortBlocks(blocks)

	var gaps []Gap
	cursor := dayStart
	for _, block := range sorted {
		if block.StartTime.After(cursor) {
			appendGap(&gaps, cursor, block.StartTime, minGapMinutes)
		}
		if block.EndTime.After(cursor) {
			cursor = block.EndTime
		}
	}
	if dayEnd.After(cursor) {
		appendGap(&gaps, cursor, dayEnd, minGapMinutes)
	}
	return gaps
}

func appendGap(gaps *[]Gap, start, end time.Time, minMinutes int) {
	minutes := int(end.Sub(start).Minutes())
	if minutes < minMinutes {
		return
	}
	*gaps = append(*gaps, Gap{StartTime: start, EndTime: end, DurationMinutes: minutes})
}

// ScheduledMinutes sums block durations.
func ScheduledMinutes(blocks []TimeBlock) int {
	total := 0
	for _, b := range blocks {
		total += b.DurationMinutes()
	}
	return total
}

// Utilization derives the percentage of an 8-hour day that is scheduled,
// rounded and capped at 100.
func Utilization(blocks []TimeBlock) int {
	pct := int(float64(ScheduledMinutes(blocks))/(8*60)*100 + 0.5)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// CountByType returns the number of blocks of each type.
func CountByType(blocks []TimeBlock) map[BlockType]int {
	counts := make(map[BlockType]int)
	for _, b := range blocks {
		counts[b.Type]++
	}
	return counts
}
