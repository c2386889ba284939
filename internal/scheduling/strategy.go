package scheduling

import (
	"context"
	"fmt"
)

// determineStrategy is stage 4: a decision table evaluated in priority
// order. Exactly one strategy is chosen per run.
func (p *Pipeline) determineStrategy(_ context.Context, s *State) error {
	s.Data.Strategy = chooseStrategy(s, p.workday.UsableGapMin)
	s.addInsight(InsightObservation,
		fmt.Sprintf("Selected %s planning strategy", s.Data.Strategy), 0.85)
	return nil
}

func chooseStrategy(s *State, usableGapMin int) Strategy {
	if usableGapMin <= 0 {
		usableGapMin = 30
	}

	if len(s.Data.CurrentSchedule) == 0 {
		return StrategyFull
	}

	if len(s.Data.Inefficiencies) >= 3 && hasHighSeverity(s.Data.Inefficiencies) {
		return StrategyOptimize
	}

	if len(s.Data.AvailableTasks) > 0 && maxGapMinutes(s) >= usableGapMin {
		return StrategyTaskOnly
	}

	if maxGapMinutes(s) >= 60 {
		return StrategyPartial
	}

	if s.preferredStrategy == StrategyOptimize {
		return StrategyOptimize
	}
	return StrategyTaskOnly
}

func hasHighSeverity(inefficiencies []Inefficiency) bool {
	for _, ineff := range inefficiencies {
		if ineff.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

func maxGapMinutes(s *State) int {
	longest := 0
	for _, gap := range s.Data.Gaps {
		if gap.DurationMinutes > longest {
			longest = gap.DurationMinutes
		}
	}
	return longest
}
