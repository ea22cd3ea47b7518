package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"sharesync/internal/conflict"
	"sharesync/internal/model"

	"github.com/charmbracelet/huh"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	maxPreviewBytes = 256 * 1024
	maxPreviewLines = 40
)

// HuhPrompter asks the operator to pick a side for a conflicting file,
// preceded by a compact line-diff preview for small text files. The preview
// is display only; content is never merged.
type HuhPrompter struct {
	ShowDiff bool
}

func NewPrompter() *HuhPrompter {
	return &HuhPrompter{ShowDiff: true}
}

func (p *HuhPrompter) PickSide(c model.Conflict) (model.Decision, error) {
	description := fmt.Sprintf("project: %s\nshared:  %s", c.Source.Path, c.Dest.Path)
	if p.ShowDiff {
		if preview := diffPreview(c); preview != "" {
			description += "\n\n" + preview
		}
	}

	var choice model.Decision
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[model.Decision]().
			Title("Conflict: " + c.Path).
			Description(description).
			Options(
				huh.NewOption("Keep project side (overwrite shared)", model.DecisionOverwriteDest),
				huh.NewOption("Keep shared side", model.DecisionKeepDest),
				huh.NewOption("Skip this file", model.DecisionSkip),
			).
			Value(&choice),
	))

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", conflict.ErrPromptAborted
		}
		return "", fmt.Errorf("failed to run conflict prompt: %w", err)
	}

	return choice, nil
}

// diffPreview renders the first changed lines between the two sides, shared
// side as "-", project side as "+". Binary or oversized files yield nothing.
func diffPreview(c model.Conflict) string {
	project, ok := readText(c.Source.Path)
	if !ok {
		return ""
	}

	shared, ok := readText(c.Dest.Path)
	if !ok {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(shared, project)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var sb strings.Builder
	lines := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			continue
		}

		prefix := "+"
		if d.Type == diffmatchpatch.DiffDelete {
			prefix = "-"
		}

		for line := range strings.Lines(d.Text) {
			if lines >= maxPreviewLines {
				sb.WriteString("...\n")
				return sb.String()
			}
			sb.WriteString(prefix + " " + strings.TrimRight(line, "\n") + "\n")
			lines++
		}
	}

	return sb.String()
}

func readText(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.Size() > maxPreviewBytes {
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	if strings.ContainsRune(string(data), 0) {
		return "", false
	}

	return string(data), true
}
