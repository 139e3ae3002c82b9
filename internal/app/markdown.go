package app

import (
	"fmt"
	"strings"

	"github.com/hylla/fomo/internal/domain"
)

// BoardMarkdown renders the board as a markdown outline: the inbox first, then each group in order.
func BoardMarkdown(board domain.Board) string {
	var b strings.Builder
	b.WriteString("# Board\n")
	writeColumnMarkdown(&b, "Inbox", board.InboxCount, board.TasksForGroup(domain.InboxID))
	for _, group := range board.SortedGroups() {
		writeColumnMarkdown(&b, group.Name, group.TaskCount, board.TasksForGroup(group.ID))
	}
	return b.String()
}

func writeColumnMarkdown(b *strings.Builder, name string, count int, tasks []domain.Task) {
	fmt.Fprintf(b, "\n## %s (%d)\n\n", name, count)
	if len(tasks) == 0 {
		b.WriteString("_empty_\n")
		return
	}
	for _, task := range tasks {
		check := " "
		if task.Completed {
			check = "x"
		}
		fmt.Fprintf(b, "- [%s] %s", check, task.Title)
		var tags []string
		if task.Priority != "" && task.Priority != domain.PriorityMedium {
			tags = append(tags, string(task.Priority))
		}
		if task.Repeat != "" && task.Repeat != domain.RepeatNone {
			tags = append(tags, "repeats "+string(task.Repeat))
		}
		if len(tags) > 0 {
			fmt.Fprintf(b, " `%s`", strings.Join(tags, ", "))
		}
		b.WriteString("\n")
	}
}
