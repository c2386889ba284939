package scheduling

import (
	"context"
	"fmt"
	"time"

	"dayflow/internal/domain"
)

// executeStrategy is stage 5: strategy-specific generation of proposed
// changes. Every change carries a confidence and an impact estimate.
func (p *Pipeline) executeStrategy(_ context.Context, s *State) error {
	switch s.Data.Strategy {
	case StrategyFull:
		p.executeFull(s)
	case StrategyOptimize:
		p.executeOptimize(s)
	case StrategyPartial:
		p.executePartial(s)
	case StrategyTaskOnly:
		p.executeTaskOnly(s)
	default:
		return fmt.Errorf("unknown strategy %q", s.Data.Strategy)
	}
	return nil
}

// executeFull lays out a canonical day skeleton on an empty schedule:
// morning deep work in peak cognitive hours, an email-triage block sized by
// urgent-email volume, a protected lunch, and an afternoon task block.
func (p *Pipeline) executeFull(s *State) {
	date := s.Data.Date
	prefs := s.Data.Preferences

	workStart := domain.ClockTime(date, prefs.WorkStartTime, 9)
	deepWorkEnd := workStart.Add(2 * time.Hour)
	s.ProposedChanges = append(s.ProposedChanges, Change{
		Type:   ChangeCreate,
		Entity: EntityBlock,
		Data: ChangeData{
			BlockType: domain.BlockWork,
			Title:     "Deep Work",
			StartTime: workStart,
			EndTime:   deepWorkEnd,
			TaskIDs:   taskIDsByPriority(s.Data.AvailableTasks, domain.PriorityHigh, 2),
		},
		Reason:     "Morning hours are peak cognitive time; protect them for focused work",
		Impact:     "+120min focus",
		Confidence: 0.9,
	})

	emailMinutes := emailBlockMinutes(countUrgentEmails(s.Data.EmailBacklog))
	s.ProposedChanges = append(s.ProposedChanges, Change{
		Type:   ChangeCreate,
		Entity: EntityBlock,
		Data: ChangeData{
			BlockType: domain.BlockEmail,
			Title:     "Email Triage",
			StartTime: deepWorkEnd,
			EndTime:   deepWorkEnd.Add(time.Duration(emailMinutes) * time.Minute),
		},
		Reason:     fmt.Sprintf("Batch email processing sized for %d urgent messages", countUrgentEmails(s.Data.EmailBacklog)),
		Impact:     fmt.Sprintf("clears inbox in %dmin", emailMinutes),
		Confidence: 0.85,
	})

	if prefs.LunchStartTime != "" {
		lunchStart := domain.ClockTime(date, prefs.LunchStartTime, 12)
		s.ProposedChanges = append(s.ProposedChanges, lunchChange(lunchStart))
	}

	afternoonStart := domain.ClockTime(date, prefs.LunchStartTime, 12).Add(time.Hour)
	s.ProposedChanges = append(s.ProposedChanges, Change{
		Type:   ChangeCreate,
		Entity: EntityBlock,
		Data: ChangeData{
			BlockType: domain.BlockWork,
			Title:     "Task Block",
			StartTime: afternoonStart,
			EndTime:   afternoonStart.Add(2 * time.Hour),
			TaskIDs:   taskIDsByPriority(s.Data.AvailableTasks, "", 3),
		},
		Reason:     "Afternoon block for working through the backlog",
		Impact:     "+120min task time",
		Confidence: 0.8,
	})
}

// executeOptimize consolidates fragmented work blocks into one contiguous
// span when more than two exist.
func (p *Pipeline) executeOptimize(s *State) {
	workBlocks := blocksOfType(s.Data.CurrentSchedule, domain.BlockWork)
	if len(workBlocks) <= 2 {
		s.addInsight(InsightObservation, "Work blocks are already reasonably consolidated", 0.7)
		return
	}

	totalMinutes := domain.ScheduledMinutes(workBlocks)
	start := workBlocks[0].StartTime
	s.ProposedChanges = append(s.ProposedChanges, Change{
		Type:   ChangeConsolidate,
		Entity: EntityBlock,
		Data: ChangeData{
			BlockType:      domain.BlockWork,
			Title:          "Consolidated Focus Time",
			StartTime:      start,
			EndTime:        start.Add(time.Duration(totalMinutes) * time.Minute),
			MergedBlockIDs: blockIDs(workBlocks),
		},
		Reason:     fmt.Sprintf("Merging %d scattered work blocks cuts context switching", len(workBlocks)),
		Impact:     fmt.Sprintf("+%dmin uninterrupted focus", totalMinutes),
		Confidence: 0.75,
	})
}

// executePartial fills gaps of an hour or more. Content selection follows a
// fixed priority: a morning gap with a high-priority task available becomes
// a focus block, heavy urgent email becomes an email block, otherwise a
// generic task block. The confidences step down with certainty of fit.
func (p *Pipeline) executePartial(s *State) {
	highPriority := tasksByPriority(s.Data.AvailableTasks, domain.PriorityHigh)
	urgentEmails := countUrgentEmails(s.Data.EmailBacklog)

	for _, gap := range s.Data.Gaps {
		if gap.DurationMinutes < 60 {
			continue
		}

		switch {
		case gap.StartTime.Hour() < 12 && len(highPriority) > 0:
			task := highPriority[0]
			highPriority = highPriority[1:]
			s.ProposedChanges = append(s.ProposedChanges, Change{
				Type:   ChangeCreate,
				Entity: EntityBlock,
				Data: ChangeData{
					BlockType: domain.BlockWork,
					Title:     "Focus: " + task.Title,
					StartTime: gap.StartTime,
					EndTime:   gap.EndTime,
					TaskIDs:   []string{task.ID},
				},
				Reason:     fmt.Sprintf("Morning gap suits high-priority task %q", task.Title),
				Impact:     fmt.Sprintf("+%dmin focus", gap.DurationMinutes),
				Confidence: 0.9,
			})
		case urgentEmails > 3:
			s.ProposedChanges = append(s.ProposedChanges, Change{
				Type:   ChangeCreate,
				Entity: EntityBlock,
				Data: ChangeData{
					BlockType: domain.BlockEmail,
					Title:     "Email Catch-up",
					StartTime: gap.StartTime,
					EndTime:   gap.EndTime,
				},
				Reason:     fmt.Sprintf("%d urgent emails are waiting", urgentEmails),
				Impact:     fmt.Sprintf("+%dmin email processing", gap.DurationMinutes),
				Confidence: 0.8,
			})
		default:
			s.ProposedChanges = append(s.ProposedChanges, Change{
				Type:   ChangeCreate,
				Entity: EntityBlock,
				Data: ChangeData{
					BlockType: domain.BlockWork,
					Title:     "Task Block",
					StartTime: gap.StartTime,
					EndTime:   gap.EndTime,
					TaskIDs:   taskIDsByPriority(s.Data.AvailableTasks, "", 2),
				},
				Reason:     "Open gap large enough for backlog work",
				Impact:     fmt.Sprintf("+%dmin task time", gap.DurationMinutes),
				Confidence: 0.7,
			})
		}
	}
}

// executeTaskOnly matches high-priority tasks to morning work blocks
// pairwise by index. Greedy, not an optimal assignment; it ignores task
// duration versus block capacity.
func (p *Pipeline) executeTaskOnly(s *State) {
	morningWork := morningWorkBlocks(s.Data.CurrentSchedule)
	highPriority := tasksByPriority(s.Data.AvailableTasks, domain.PriorityHigh)

	pairs := len(morningWork)
	if len(highPriority) < pairs {
		pairs = len(highPriority)
	}
	for i := 0; i < pairs; i++ {
		s.ProposedChanges = append(s.ProposedChanges, Change{
			Type:   ChangeAssign,
			Entity: EntityTask,
			Data: ChangeData{
				BlockID: morningWork[i].ID,
				TaskID:  highPriority[i].ID,
			},
			Reason:     fmt.Sprintf("High-priority task %q fits morning block %q", highPriority[i].Title, morningWork[i].Title),
			Impact:     "task scheduled into peak hours",
			Confidence: 0.8,
		})
	}

	if countUrgentEmails(s.Data.EmailBacklog) > 5 && !hasBlockOfType(s.Data.CurrentSchedule, domain.BlockEmail) {
		s.addInsight(InsightWarning,
			"More than 5 urgent emails but no email block scheduled today", 0.85)
	}
}

// lunchChange builds the one-hour protected lunch proposal.
func lunchChange(start time.Time) Change {
	return Change{
		Type:   ChangeCreate,
		Entity: EntityBlock,
		Data: ChangeData{
			BlockType: domain.BlockBreak,
			Title:     "Lunch",
			StartTime: start,
			EndTime:   start.Add(time.Hour),
		},
		Reason:     "Lunch is protected time",
		Impact:     "sustained afternoon energy",
		Confidence: 0.95,
	}
}

func emailBlockMinutes(urgentCount int) int {
	switch {
	case urgentCount > 8:
		return 60
	case urgentCount > 3:
		return 45
	default:
		return 30
	}
}

func countUrgentEmails(emails []domain.EmailSummary) int {
	count := 0
	for _, e := range emails {
		if e.Urgent {
			count++
		}
	}
	return count
}

func tasksByPriority(tasks []domain.Task, priority domain.Priority) []domain.Task {
	var out []domain.Task
	for _, t := range tasks {
		if priority == "" || t.Priority == priority {
			out = append(out, t)
		}
	}
	return out
}

func taskIDsByPriority(tasks []domain.Task, priority domain.Priority, limit int) []string {
	var ids []string
	for _, t := range tasksByPriority(tasks, priority) {
		ids = append(ids, t.ID)
		if len(ids) >= limit {
			break
		}
	}
	return ids
}

func morningWorkBlocks(blocks []domain.TimeBlock) []domain.TimeBlock {
	var out []domain.TimeBlock
	for _, b := range blocks {
		if b.Type == domain.BlockWork && b.StartTime.Hour() < 12 {
			out = append(out, b)
		}
	}
	return out
}
