package scheduling

import (
	"context"
	"strings"

	"dayflow/internal/domain"
)

// protectInvariants is stage 6. Lunch protection is a hard invariant, not a
// strategy-dependent suggestion: it runs unconditionally after strategy
// execution and overrides any gap in the strategy's own output.
func (p *Pipeline) protectInvariants(_ context.Context, s *State) error {
	if s.Data.Preferences.LunchStartTime == "" {
		return nil
	}
	if hasLunchBlock(s.Data.CurrentSchedule) || hasProposedLunch(s.ProposedChanges) {
		return nil
	}

	lunchStart := domain.ClockTime(s.Data.Date, s.Data.Preferences.LunchStartTime, 12)
	s.ProposedChanges = append(s.ProposedChanges, lunchChange(lunchStart))
	s.addInsight(InsightRecommendation, "Added a protected lunch block", 0.95)
	return nil
}

func hasLunchBlock(blocks []domain.TimeBlock) bool {
	for _, b := range blocks {
		if b.Type == domain.BlockBreak && strings.Contains(strings.ToLower(b.Title), "lunch") {
			return true
		}
	}
	return false
}

func hasProposedLunch(changes []Change) bool {
	for _, ch := range changes {
		if ch.Type == ChangeCreate && ch.Data.BlockType == domain.BlockBreak &&
			strings.Contains(strings.ToLower(ch.Data.Title), "lunch") {
			return true
		}
	}
	return false
}

// isLunchChange reports whether a change is the protected lunch proposal.
func isLunchChange(ch Change) bool {
	return ch.Type == ChangeCreate && ch.Data.BlockType == domain.BlockBreak &&
		strings.Contains(strings.ToLower(ch.Data.Title), "lunch")
}
