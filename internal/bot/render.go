package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nhle/taskbot/internal/model"
)

// renderList formats the numbered task summary. The numbers are the
// ordinals accepted by /done and /skip.
func renderList(tasks []model.Task) string {
	var sb strings.Builder
	sb.WriteString("Here are your tasks 📋:\n\n")
	for i, t := range tasks {
		mark := ""
		if t.Done() {
			mark = " ✅"
		}
		fmt.Fprintf(&sb, "%d. %s%s\n", i+1, t.Name, mark)
	}
	return sb.String()
}

// renderReport formats the progress report as Telegram Markdown.
func renderReport(r model.Report) string {
	return fmt.Sprintf(
		"📊 *Your progress*\n\n"+
			"📦 Total tasks: *%d*\n"+
			"✅ Done: *%d* (%s%%)\n"+
			"🟡 Active: *%d*\n\n"+
			"📅 *Today:* %d (%s%%)\n"+
			"📆 *This week:* %d (%s%%)\n\n"+
			"Keep the pace and carry on 🚀",
		r.Total,
		r.DoneTotal, formatPercent(r.PercentTotal),
		r.ActiveTotal,
		r.DoneToday, formatPercent(r.PercentToday),
		r.DoneWeek, formatPercent(r.PercentWeek),
	)
}

// renderDetails formats the single-task detail view.
func renderDetails(t model.Task) string {
	mark := "🟡 Active"
	if t.Done() {
		mark = "🟢 Done"
	}
	return fmt.Sprintf(
		"📎 *Task details*\n\n"+
			"Name: *%s*\n"+
			"Status: *%s*\n"+
			"Created: *%s*",
		t.Name, mark, t.CreatedDate,
	)
}

// formatPercent renders a percentage with one decimal, dropping the
// decimal entirely for an exact zero.
func formatPercent(p float64) string {
	if p == 0 {
		return "0"
	}
	return strconv.FormatFloat(p, 'f', 1, 64)
}
