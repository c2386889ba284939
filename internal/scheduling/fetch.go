package scheduling

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"dayflow/internal/domain"
)

// fetchData is stage 1: concurrently pull the full schedule, preferences,
// unassigned tasks, and a recent-email digest for the target date. Failures
// degrade to empty datasets plus an insight; the stage itself never fails.
func (p *Pipeline) fetchData(ctx context.Context, s *State) error {
	// Each branch writes only its own locals; results fold into State after
	// Wait so the goroutines never touch shared memory.
	var (
		blocks   []domain.TimeBlock
		prefs    domain.Preferences
		havePref bool
		tasks    []domain.Task
		emails   []domain.EmailSummary

		scheduleWarn, prefWarn, taskWarn, emailWarn bool
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fetched, err := p.services.Schedule.GetScheduleForDate(gctx, s.Data.Date)
		if err != nil {
			p.logger.Warn("schedule fetch failed: %v", err)
			scheduleWarn = true
			return nil
		}
		blocks = fetched
		return nil
	})

	g.Go(func() error {
		fetched, err := p.services.Preferences.GetUserPreferences(gctx)
		if err != nil {
			p.logger.Warn("preference fetch failed: %v", err)
			prefWarn = true
			return nil
		}
		prefs = fetched
		havePref = true
		return nil
	})

	g.Go(func() error {
		fetched, err := p.services.Tasks.GetUnassignedTasks(gctx)
		if err != nil {
			p.logger.Warn("task fetch failed: %v", err)
			taskWarn = true
			return nil
		}
		tasks = fetched
		return nil
	})

	g.Go(func() error {
		if p.services.Email == nil {
			return nil
		}
		fetched, err := p.services.Email.ListRecent(gctx, domain.EmailFilter{UnreadOnly: false, Limit: 50})
		if err != nil {
			p.logger.Warn("email fetch failed: %v", err)
			emailWarn = true
			return nil
		}
		emails = fetched
		return nil
	})

	_ = g.Wait()

	if scheduleWarn {
		s.addInsight(InsightWarning, "Could not load the schedule; planning from an empty day", 0.5)
	} else {
		s.Data.CurrentSchedule = domain.SortBlocks(blocks)
	}
	if prefWarn {
		s.addInsight(InsightWarning, "Could not load preferences; using defaults", 0.5)
		s.Data.Preferences.LunchStartTime = p.workday.LunchTime
	} else if havePref {
		s.Data.Preferences = prefs
		if s.Data.Preferences.LunchStartTime == "" {
			// The configured lunch time stands in when the preference
			// service does not set one.
			s.Data.Preferences.LunchStartTime = p.workday.LunchTime
		}
	}
	if taskWarn {
		s.addInsight(InsightWarning, "Could not load the task backlog", 0.5)
	} else {
		s.Data.AvailableTasks = tasks
	}
	if emailWarn {
		s.addInsight(InsightWarning, "Could not load recent email", 0.5)
	} else {
		s.Data.EmailBacklog = emails
	}

	// Initial observations over the fetched dataset.
	attention := 0
	for _, e := range s.Data.EmailBacklog {
		if e.Unread || e.Starred {
			attention++
		}
	}
	if attention > 10 {
		s.addInsight(InsightObservation,
			fmt.Sprintf("%d unread or starred emails need attention", attention), 0.9)
	}

	if len(s.Data.AvailableTasks) > 0 && !hasBlockOfType(s.Data.CurrentSchedule, domain.BlockWork) {
		s.addInsight(InsightObservation,
			fmt.Sprintf("No focus blocks scheduled but %d tasks are pending", len(s.Data.AvailableTasks)), 0.9)
	}

	return nil
}

func hasBlockOfType(blocks []domain.TimeBlock, blockType domain.BlockType) bool {
	for _, b := range blocks {
		if b.Type == blockType {
			return true
		}
	}
	return false
}
