package intent

import (
	"fmt"
	"strings"

	"dayflow/internal/usercontext"
)

const systemPrompt = `You are the intent classifier for a personal productivity assistant.
Classify the user's message into exactly one category:
- "workflow": multi-step scheduling work (plan the day, optimize the schedule, fill a block, triage email, assign tasks)
- "tool": a single direct action (view schedule, create/move/delete a block, list tasks)
- "conversation": anything else, including questions and chit-chat

Respond with a single JSON object:
{"category": "...", "confidence": 0.0-1.0, "subcategory": "...",
 "entities": {"dates": [], "times": [], "people": [], "duration": 0},
 "suggestedHandler": {"type": "workflow|tool|direct", "name": "...", "params": {}},
 "reasoning": "one sentence"}

Known workflows: adaptive-day-planning, schedule-optimization, email-triage,
fill-work-block, fill-email-block, task-assignment.
Known tools: schedule_viewSchedule, schedule_createBlock, schedule_deleteBlock,
schedule_moveBlock, tasks_listBacklog.`

// renderUserPrompt summarizes the snapshot alongside the raw message so the
// model classifies against live user state, not the message alone.
func renderUserPrompt(message string, snapshot *usercontext.Context, entities Entities) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Message: %s\n\n", message)
	fmt.Fprintf(&b, "Current time: %s (%s)\n",
		snapshot.CurrentTime.Format("Mon 15:04"), snapshot.Timezone)

	fmt.Fprintf(&b, "Schedule: ")
	if snapshot.ScheduleState.HasBlocksToday {
		fmt.Fprintf(&b, "%d%% utilized", snapshot.ScheduleState.Utilization)
		if next := snapshot.ScheduleState.NextBlock; next != nil {
			fmt.Fprintf(&b, ", next block %q at %s", next.Title, next.StartTime.Format("15:04"))
		}
		fmt.Fprintf(&b, ", %d usable gaps\n", len(snapshot.ScheduleState.Gaps))
	} else {
		b.WriteString("empty today\n")
	}

	fmt.Fprintf(&b, "Tasks: %d pending, %d urgent, %d overdue\n",
		snapshot.TaskState.PendingCount, snapshot.TaskState.UrgentCount, snapshot.TaskState.OverdueCount)
	fmt.Fprintf(&b, "Email: %d unread, %d urgent\n",
		snapshot.EmailState.UnreadCount, snapshot.EmailState.UrgentCount)

	if vc := snapshot.ViewingContext; vc != nil && !vc.IsViewingToday {
		fmt.Fprintf(&b, "User is viewing the schedule for %s\n", vc.ScheduleDateStr)
	}

	if snapshot.UserPatterns != nil && len(snapshot.UserPatterns.CommonRequests) > 0 {
		fmt.Fprintf(&b, "Common requests: %s\n",
			strings.Join(snapshot.UserPatterns.CommonRequests, "; "))
	}

	if len(entities.Dates) > 0 || len(entities.Times) > 0 || len(entities.People) > 0 || entities.DurationMinutes > 0 {
		fmt.Fprintf(&b, "\nPre-extracted entities: dates=%v times=%v people=%v duration=%dmin\n",
			entities.Dates, entities.Times, entities.People, entities.DurationMinutes)
	}

	return b.String()
}
