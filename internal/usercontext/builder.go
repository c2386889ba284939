package usercontext

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"dayflow/internal/config"
	"dayflow/internal/domain"
	"dayflow/internal/logging"
)

// PatternSource supplies observed user behaviour for a snapshot. Optional;
// the builder degrades to no patterns when absent or failing.
type PatternSource interface {
	PatternsFor(ctx context.Context, userID string) (*UserPatterns, error)
}

// Builder assembles Context snapshots. Collaborator fetches run
// concurrently; each source is independent I/O.
type Builder struct {
	services domain.Services
	patterns PatternSource
	workday  config.WorkDayConfig
	logger   logging.Logger
	now      func() time.Time
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithPatternSource attaches a pattern source to built snapshots.
func WithPatternSource(src PatternSource) BuilderOption {
	return func(b *Builder) { b.patterns = src }
}

// WithClock overrides the time source. Tests use this to pin currentTime.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// NewBuilder constructs a Builder over the given collaborator services.
func NewBuilder(services domain.Services, workday config.WorkDayConfig, logger logging.Logger, opts ...BuilderOption) *Builder {
	b := &Builder{
		services: services,
		workday:  workday,
		logger:   logging.OrNop(logger),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles a snapshot for userID in the given timezone. It never
// returns an error: on any collaborator failure the affected state degrades
// to empty counts so routing can always proceed.
func (b *Builder) Build(ctx context.Context, userID, timezone string) *Context {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		b.logger.Warn("unknown timezone %q, using UTC", timezone)
		loc = time.UTC
		timezone = "UTC"
	}
	now := b.now().In(loc)

	snapshot := &Context{
		UserID:      userID,
		CurrentTime: now,
		Timezone:    timezone,
	}

	var (
		blocks       []domain.TimeBlock
		tasks        []domain.Task
		emails       []domain.EmailSummary
		typicalStart string

		scheduleFailed, taskFailed, prefFailed, emailFailed bool
	)

	// Independent fetches fan out; each branch writes only its own locals and
	// returns nil so one bad collaborator cannot sink the rest. Shared
	// snapshot fields are set after Wait, once the branches are done.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetched, err := b.services.Schedule.GetScheduleForDate(gctx, now)
		if err != nil {
			b.logger.Warn("schedule fetch failed for %s: %v", userID, err)
			scheduleFailed = true
			return nil
		}
		blocks = fetched
		return nil
	})
	g.Go(func() error {
		fetched, err := b.services.Tasks.GetTaskBacklog(gctx)
		if err != nil {
			b.logger.Warn("task fetch failed for %s: %v", userID, err)
			taskFailed = true
			return nil
		}
		tasks = fetched
		return nil
	})
	g.Go(func() error {
		prefs, err := b.services.Preferences.GetUserPreferences(gctx)
		if err != nil {
			b.logger.Warn("preference fetch failed for %s: %v", userID, err)
			prefFailed = true
			return nil
		}
		typicalStart = prefs.TypicalStart
		return nil
	})
	if b.services.Email != nil {
		g.Go(func() error {
			fetched, err := b.services.Email.ListRecent(gctx, domain.EmailFilter{Limit: 50})
			if err != nil {
				b.logger.Warn("email fetch failed for %s: %v", userID, err)
				emailFailed = true
				return nil
			}
			emails = fetched
			return nil
		})
	}
	_ = g.Wait()

	snapshot.Degraded = scheduleFailed || taskFailed || prefFailed || emailFailed
	if typicalStart != "" {
		snapshot.UserPatterns = &UserPatterns{TypicalStartTime: typicalStart}
	}

	snapshot.ScheduleState = b.buildScheduleState(blocks, now)
	snapshot.TaskState = buildTaskState(tasks)
	snapshot.EmailState = buildEmailState(emails)
	snapshot.ViewingContext = &ViewingContext{
		IsViewingToday:   true,
		ScheduleDateStr:  now.Format("2006-01-02"),
		ViewDateSchedule: domain.SortBlocks(blocks),
	}

	if b.patterns != nil {
		patterns, err := b.patterns.PatternsFor(ctx, userID)
		if err != nil {
			b.logger.Debug("pattern fetch failed for %s: %v", userID, err)
		} else if patterns != nil {
			if snapshot.UserPatterns != nil && snapshot.UserPatterns.TypicalStartTime != "" && patterns.TypicalStartTime == "" {
				patterns.TypicalStartTime = snapshot.UserPatterns.TypicalStartTime
			}
			snapshot.UserPatterns = patterns
		}
	}

	return snapshot
}

// WithViewingDate attaches a non-today viewing context fetched for the given
// date. Failures leave the today-based viewing context in place.
func (b *Builder) WithViewingDate(ctx context.Context, snapshot *Context, date time.Time) *Context {
	blocks, err := b.services.Schedule.GetScheduleForDate(ctx, date)
	if err != nil {
		b.logger.Warn("viewing schedule fetch failed: %v", err)
		return snapshot
	}
	snapshot.ViewingContext = &ViewingContext{
		IsViewingToday:   date.Format("2006-01-02") == snapshot.CurrentTime.Format("2006-01-02"),
		ScheduleDateStr:  date.Format("2006-01-02"),
		ViewDateSchedule: domain.SortBlocks(blocks),
	}
	return snapshot
}

func (b *Builder) buildScheduleState(blocks []domain.TimeBlock, now time.Time) ScheduleState {
	state := ScheduleState{HasBlocksToday: len(blocks) > 0}
	if len(blocks) == 0 {
		return state
	}

	sorted := domain.SortBlocks(blocks)
	state.Utilization = domain.Utilization(sorted)

	for i := range sorted {
		if sorted[i].StartTime.After(now) {
			next := sorted[i]
			state.NextBlock = &next
			break
		}
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), b.workday.StartHour, 0, 0, 0, now.Location())
	dayEnd := time.Date(now.Year(), now.Month(), now.Day(), b.workday.EndHour, 0, 0, 0, now.Location())
	minGap := b.workday.MinGapMin
	if minGap <= 0 {
		minGap = 15
	}
	state.Gaps = domain.ComputeGaps(sorted, dayStart, dayEnd, minGap)
	return state
}

func buildTaskState(tasks []domain.Task) TaskState {
	state := TaskState{PendingCount: len(tasks)}
	scored := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsUrgent() {
			state.UrgentCount++
		}
		if t.IsOverdue() {
			state.OverdueCount++
		}
		// Tasks without a resolvable title are excluded from the top list,
		// not defaulted.
		if t.Title != "" {
			scored = append(scored, t)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > 5 {
		scored = scored[:5]
	}
	state.TopTasks = scored
	return state
}

func buildEmailState(emails []domain.EmailSummary) EmailState {
	var state EmailState
	for _, e := range emails {
		if e.Unread {
			state.UnreadCount++
		}
		if e.Urgent {
			state.UrgentCount++
		}
		if e.Important {
			state.ImportantCount++
		}
	}
	return state
}
