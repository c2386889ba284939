package router

import "dayflow/internal/intent"

// toolAliases canonicalizes the short tool names the model tends to emit.
// The serve-layer dispatcher uses the same table; the two must stay in sync,
// which is why it lives here and is exported read-only via ToolAliases.
var toolAliases = map[string]string{
	"viewSchedule":  intent.ToolViewSchedule,
	"view_schedule": intent.ToolViewSchedule,
	"showSchedule":  intent.ToolViewSchedule,
	"createBlock":   intent.ToolCreateBlock,
	"create_block":  intent.ToolCreateBlock,
	"addBlock":      intent.ToolCreateBlock,
	"deleteBlock":   intent.ToolDeleteBlock,
	"delete_block":  intent.ToolDeleteBlock,
	"removeBlock":   intent.ToolDeleteBlock,
	"moveBlock":     intent.ToolMoveBlock,
	"move_block":    intent.ToolMoveBlock,
	"listTasks":     intent.ToolListTasks,
	"list_tasks":    intent.ToolListTasks,
	"taskBacklog":   intent.ToolListTasks,
}

// CanonicalToolName maps an alias to its canonical tool name. Unknown names
// pass through unchanged.
func CanonicalToolName(name string) string {
	if canonical, ok := toolAliases[name]; ok {
		return canonical
	}
	return name
}

// ToolAliases returns a copy of the alias table for the dispatcher.
func ToolAliases() map[string]string {
	out := make(map[string]string, len(toolAliases))
	for k, v := range toolAliases {
		out[k] = v
	}
	return out
}
