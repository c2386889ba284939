package scheduling

import (
	"context"
	"fmt"
	"strings"

	"dayflow/internal/domain"
)

// generateProposal is stage 8: compute metrics, build the optimized preview,
// and phrase the summary and next steps. It is a pure function of the state,
// so running it twice yields identical metrics.
func (p *Pipeline) generateProposal(_ context.Context, s *State) error {
	s.Result = p.buildProposal(s)
	return nil
}

func (p *Pipeline) buildProposal(s *State) *Proposal {
	preview := applyChangesPreview(s.Data.CurrentSchedule, s.ProposedChanges)

	return &Proposal{
		Date:              s.Data.Date.Format("2006-01-02"),
		Strategy:          s.Data.Strategy,
		CurrentSchedule:   s.Data.CurrentSchedule,
		OptimizedSchedule: preview,
		ProposedChanges:   s.ProposedChanges,
		Metrics:           computeMetrics(s, preview),
		Summary:           buildSummary(s.ProposedChanges),
		Insights:          s.Insights,
		NextSteps:         buildNextSteps(s),
		ExecutionTime:     p.now().Sub(s.StartTime),
	}
}

// applyChangesPreview returns what the schedule would look like if every
// proposed change were confirmed. Preview only; nothing is applied here.
func applyChangesPreview(current []domain.TimeBlock, changes []Change) []domain.TimeBlock {
	preview := make([]domain.TimeBlock, len(current))
	copy(preview, current)

	for i, ch := range changes {
		switch ch.Type {
		case ChangeCreate:
			preview = append(preview, domain.TimeBlock{
				ID:        fmt.Sprintf("proposed-%d", i+1),
				Type:      ch.Data.BlockType,
				Title:     ch.Data.Title,
				StartTime: ch.Data.StartTime,
				EndTime:   ch.Data.EndTime,
				TaskIDs:   ch.Data.TaskIDs,
			})
		case ChangeDelete:
			preview = excludeBlocks(preview, []string{ch.Data.BlockID})
		case ChangeMove:
			for j := range preview {
				if preview[j].ID == ch.Data.BlockID {
					preview[j].StartTime = ch.Data.StartTime
					preview[j].EndTime = ch.Data.EndTime
				}
			}
		case ChangeConsolidate:
			preview = excludeBlocks(preview, ch.Data.MergedBlockIDs)
			preview = append(preview, domain.TimeBlock{
				ID:        fmt.Sprintf("proposed-%d", i+1),
				Type:      ch.Data.BlockType,
				Title:     ch.Data.Title,
				StartTime: ch.Data.StartTime,
				EndTime:   ch.Data.EndTime,
			})
		case ChangeAssign:
			for j := range preview {
				if preview[j].ID == ch.Data.BlockID {
					// Copy before append so the current schedule's backing
					// array is never mutated by the preview.
					preview[j].TaskIDs = append(append([]string(nil), preview[j].TaskIDs...), ch.Data.TaskID)
				}
			}
		}
	}

	return domain.SortBlocks(preview)
}

func computeMetrics(s *State, preview []domain.TimeBlock) ScheduleMetrics {
	var metrics ScheduleMetrics
	metrics.TotalBlocks = len(preview)

	// Focus time: existing plus proposed work minutes.
	for _, b := range preview {
		if b.Type == domain.BlockWork {
			metrics.FocusTimeMinutes += b.DurationMinutes()
		}
	}

	counts := countChanges(s.ProposedChanges)

	// Fragmentation baseline grows with the current work-block count; each
	// consolidation improves it by 0.2, floored at 0.1.
	workBlocks := len(blocksOfType(s.Data.CurrentSchedule, domain.BlockWork))
	fragmentation := 0.25 * float64(workBlocks)
	if fragmentation > 1.0 {
		fragmentation = 1.0
	}
	fragmentation -= 0.2 * float64(counts[ChangeConsolidate])
	if fragmentation < 0.1 {
		fragmentation = 0.1
	}
	metrics.FragmentationScore = fragmentation

	metrics.TasksAssigned = counts[ChangeAssign]
	for _, ch := range s.ProposedChanges {
		if ch.Type == ChangeCreate {
			metrics.TasksAssigned += len(ch.Data.TaskIDs)
		}
	}

	gain := 10*counts[ChangeMove] + 5*counts[ChangeCreate] + 8*counts[ChangeAssign]
	if gain > 50 {
		gain = 50
	}
	metrics.EfficiencyGain = gain

	// Energy alignment: share of work blocks inside the 9-12 peak window.
	workTotal, workAligned := 0, 0
	for _, b := range preview {
		if b.Type != domain.BlockWork {
			continue
		}
		workTotal++
		if h := b.StartTime.Hour(); h >= 9 && h < 12 {
			workAligned++
		}
	}
	if workTotal > 0 {
		metrics.EnergyAlignment = workAligned * 100 / workTotal
	}

	return metrics
}

func countChanges(changes []Change) map[ChangeType]int {
	counts := make(map[ChangeType]int)
	for _, ch := range changes {
		counts[ch.Type]++
	}
	return counts
}

// buildSummary phrases the grouped changes as a human sentence.
func buildSummary(changes []Change) string {
	if len(changes) == 0 {
		return "No changes needed - your schedule looks good"
	}

	counts := countChanges(changes)
	var parts []string
	if n := counts[ChangeCreate]; n > 0 {
		parts = append(parts, fmt.Sprintf("Creating %d new time %s", n, plural(n, "block", "blocks")))
	}
	if n := counts[ChangeAssign]; n > 0 {
		parts = append(parts, fmt.Sprintf("Assigning %d %s to blocks", n, plural(n, "task", "tasks")))
	}
	if n := counts[ChangeConsolidate]; n > 0 {
		parts = append(parts, fmt.Sprintf("Consolidating %d fragmented %s", n, plural(n, "block", "blocks")))
	}
	if n := counts[ChangeMove]; n > 0 {
		parts = append(parts, fmt.Sprintf("Moving %d %s", n, plural(n, "block", "blocks")))
	}
	if n := counts[ChangeDelete]; n > 0 {
		parts = append(parts, fmt.Sprintf("Removing %d %s", n, plural(n, "block", "blocks")))
	}
	return strings.Join(parts, ", ")
}

func buildNextSteps(s *State) []string {
	var steps []string
	if len(s.ProposedChanges) > 0 {
		steps = append(steps, "Review and confirm the proposed changes")
	}
	if countUrgentEmails(s.Data.EmailBacklog) > 0 {
		steps = append(steps, "Process urgent emails during email blocks")
	}
	assigned := countChanges(s.ProposedChanges)[ChangeAssign]
	if unassigned := len(tasksByPriority(s.Data.AvailableTasks, domain.PriorityHigh)) - assigned; unassigned > 0 {
		steps = append(steps, fmt.Sprintf("%d high-priority %s still need a slot",
			unassigned, plural(unassigned, "task", "tasks")))
	}
	if len(steps) == 0 {
		steps = append(steps, "Your schedule is already well optimized")
	}
	return steps
}

func plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
