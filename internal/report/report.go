package report

import (
	"fmt"
	"strings"

	"sharesync/internal/model"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	headStyle = lipgloss.NewStyle().Bold(true)
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// Render formats one package result for the terminal. Display only; nothing
// here feeds back into the engine.
func Render(result model.PackageResult) string {
	var sb strings.Builder

	sb.WriteString(headStyle.Render(result.Package))
	sb.WriteString(" " + statusBadge(result.Status) + "\n")

	for _, o := range result.Outcomes {
		sb.WriteString("  " + outcomeLine(o) + "\n")

		for _, msg := range o.Errors {
			sb.WriteString("      " + failStyle.Render(msg) + "\n")
		}
		for _, path := range o.SkippedConflicts {
			sb.WriteString("      " + warnStyle.Render("skipped conflict: "+path) + "\n")
		}
	}

	for _, label := range result.NotRun {
		sb.WriteString("  " + dimStyle.Render("- "+label+" (not run)") + "\n")
	}

	return sb.String()
}

func RenderAll(results []model.PackageResult) string {
	var sb strings.Builder
	for _, r := range results {
		sb.WriteString(Render(r))
	}

	return sb.String()
}

func statusBadge(status model.RunStatus) string {
	switch status {
	case model.RunSucceeded:
		return okStyle.Render("ok")
	case model.RunWarnings:
		return warnStyle.Render("completed with warnings")
	default:
		return failStyle.Render("failed")
	}
}

func outcomeLine(o model.SyncOutcome) string {
	symbol := okStyle.Render("✓")
	switch {
	case !o.Success:
		symbol = failStyle.Render("✗")
	case len(o.Errors) > 0 || len(o.SkippedConflicts) > 0:
		symbol = warnStyle.Render("!")
	}

	line := fmt.Sprintf("%s %s  →%d ←%d", symbol, o.Mapping.Label(),
		len(o.FilesToShared), len(o.FilesFromShared))

	if len(o.ConflictsResolved) > 0 {
		line += fmt.Sprintf(" (%d conflicts resolved)", len(o.ConflictsResolved))
	}
	if o.DryRun {
		line += dimStyle.Render(" [dry-run]")
	}

	return line
}
