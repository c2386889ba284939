package scheduling

import (
	"context"
	"fmt"
	"strings"

	"dayflow/internal/domain"
)

// analyzeState is stage 2: derive gaps and inefficiencies from the fetched
// schedule. Overlapping input blocks are a caller error; they are flagged,
// never silently repaired.
func (p *Pipeline) analyzeState(_ context.Context, s *State) error {
	if domain.HasOverlap(s.Data.CurrentSchedule) {
		s.addInsight(InsightWarning, "Schedule contains overlapping blocks; gap analysis may be unreliable", 0.6)
	}

	dayStart, dayEnd := p.dayBounds(s.Data.Date)
	s.Data.Gaps = domain.ComputeGaps(s.Data.CurrentSchedule, dayStart, dayEnd, p.minGap())
	s.Data.Inefficiencies = p.findInefficiencies(s.Data.CurrentSchedule, s.Data.Gaps)

	if len(s.Data.Gaps) > 0 {
		s.addInsight(InsightObservation,
			fmt.Sprintf("Found %d usable gaps in the schedule", len(s.Data.Gaps)), 0.9)
	}
	for _, ineff := range s.Data.Inefficiencies {
		if ineff.Severity == SeverityHigh {
			s.addInsight(InsightWarning, ineff.Description, 0.8)
		}
	}

	return nil
}

func (p *Pipeline) findInefficiencies(blocks []domain.TimeBlock, gaps []domain.Gap) []Inefficiency {
	var found []Inefficiency

	// Gaps of 15-29 minutes are too short to schedule anything useful into.
	for _, gap := range gaps {
		if gap.DurationMinutes >= 15 && gap.DurationMinutes < 30 {
			found = append(found, Inefficiency{
				Type:     IneffGap,
				Severity: SeverityMedium,
				Description: fmt.Sprintf("%d-minute gap at %s is too short to be useful",
					gap.DurationMinutes, gap.StartTime.Format("15:04")),
			})
		}
	}

	workBlocks := blocksOfType(blocks, domain.BlockWork)
	if len(workBlocks) > 3 {
		found = append(found, Inefficiency{
			Type:     IneffFragmentation,
			Severity: SeverityHigh,
			Description: fmt.Sprintf("Work time is fragmented across %d separate blocks",
				len(workBlocks)),
			AffectedBlocks: blockIDs(workBlocks),
		})
	}

	for _, block := range workBlocks {
		if block.StartTime.Hour() >= 16 {
			found = append(found, Inefficiency{
				Type:     IneffPoorTiming,
				Severity: SeverityMedium,
				Description: fmt.Sprintf("Work block %q starts at %s, past peak focus hours",
					block.Title, block.StartTime.Format("15:04")),
				AffectedBlocks: []string{block.ID},
			})
		}
	}

	return found
}

func blocksOfType(blocks []domain.TimeBlock, blockType domain.BlockType) []domain.TimeBlock {
	var out []domain.TimeBlock
	for _, b := range blocks {
		if b.Type == blockType {
			out = append(out, b)
		}
	}
	return out
}

func blockIDs(blocks []domain.TimeBlock) []string {
	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.ID)
	}
	return ids
}

// fetchHistoricalContext is stage 3: the user-pattern retrieval hook.
// Unavailable or failing retrieval degrades to empty pattern sets.
func (p *Pipeline) fetchHistoricalContext(ctx context.Context, s *State) error {
	if p.patterns == nil {
		return nil
	}
	patterns, err := p.patterns.HistoricalPatterns(ctx, s.UserID)
	if err != nil {
		p.logger.Debug("historical pattern fetch failed: %v", err)
		return nil
	}
	if patterns.PreferredStrategy != "" {
		s.RAGContext = fmt.Sprintf("preferred strategy: %s", patterns.PreferredStrategy)
		s.preferredStrategy = patterns.PreferredStrategy
	}
	if len(patterns.CommonRequests) > 0 {
		s.addInsight(InsightObservation,
			fmt.Sprintf("User frequently asks for: %v", patterns.CommonRequests), 0.6)
	}

	if source, ok := p.patterns.(SimilaritySource); ok {
		similar, err := source.SimilarRequests(ctx, s.UserID, s.Intent, 3)
		if err != nil {
			p.logger.Debug("similar request lookup failed: %v", err)
		} else if len(similar) > 0 {
			precedent := fmt.Sprintf("similar past requests: %s", strings.Join(similar, "; "))
			if s.RAGContext != "" {
				s.RAGContext += "; " + precedent
			} else {
				s.RAGContext = precedent
			}
		}
	}
	return nil
}
