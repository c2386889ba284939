package scheduling

import (
	"context"
	"fmt"

	"dayflow/internal/domain"
)

// validate is stage 7: structural sanity over the proposed changes. A change
// whose interval overlaps an existing block or an already-accepted proposal
// is rejected, except the protected lunch, which is kept and flagged so the
// confirmation boundary can resolve the conflict instead of this core
// silently dropping a hard invariant.
func (p *Pipeline) validate(_ context.Context, s *State) error {
	accepted := make([]Change, 0, len(s.ProposedChanges))
	occupied := make([]domain.TimeBlock, len(s.Data.CurrentSchedule))
	copy(occupied, s.Data.CurrentSchedule)

	for _, ch := range s.ProposedChanges {
		interval, hasInterval := changeInterval(ch)
		if hasInterval && interval.EndTime.Before(interval.StartTime) {
			s.addInsight(InsightWarning,
				fmt.Sprintf("Rejected %s change %q: negative duration", ch.Type, ch.Data.Title), 0.9)
			continue
		}

		// Consolidations replace their sources, so they only conflict with
		// blocks outside the merged set.
		conflictsWith := occupied
		if ch.Type == ChangeConsolidate {
			conflictsWith = excludeBlocks(occupied, ch.Data.MergedBlockIDs)
		}

		if hasInterval && ch.Type != ChangeAssign && overlapsAny(conflictsWith, interval) {
			if isLunchChange(ch) {
				s.addInsight(InsightWarning,
					"Proposed lunch overlaps an existing block; needs manual placement", 0.8)
				accepted = append(accepted, ch)
				continue
			}
			s.addInsight(InsightWarning,
				fmt.Sprintf("Rejected %s change %q: overlaps an existing block", ch.Type, ch.Data.Title), 0.9)
			continue
		}

		accepted = append(accepted, ch)
		if hasInterval && (ch.Type == ChangeCreate || ch.Type == ChangeMove || ch.Type == ChangeConsolidate) {
			occupied = append(occupied, interval)
		}
	}

	s.ProposedChanges = accepted
	s.addInsight(InsightObservation,
		fmt.Sprintf("Validated %d proposed changes", len(accepted)), 0.95)
	return nil
}

// changeInterval extracts the time interval a change occupies, if any.
func changeInterval(ch Change) (domain.TimeBlock, bool) {
	if ch.Data.StartTime.IsZero() || ch.Data.EndTime.IsZero() {
		return domain.TimeBlock{}, false
	}
	return domain.TimeBlock{
		ID:        ch.Data.BlockID,
		Type:      ch.Data.BlockType,
		Title:     ch.Data.Title,
		StartTime: ch.Data.StartTime,
		EndTime:   ch.Data.EndTime,
	}, true
}

func overlapsAny(blocks []domain.TimeBlock, interval domain.TimeBlock) bool {
	for _, b := range blocks {
		if b.Overlaps(interval.StartTime, interval.EndTime) {
			return true
		}
	}
	return false
}

func excludeBlocks(blocks []domain.TimeBlock, ids []string) []domain.TimeBlock {
	excluded := make(map[string]bool, len(ids))
	for _, id := range ids {
		excluded[id] = true
	}
	var out []domain.TimeBlock
	for _, b := range blocks {
		if !excluded[b.ID] {
			out = append(out, b)
		}
	}
	return out
}
