package prompt

import (
	"errors"
	"fmt"

	"sharesync/internal/conflict"
	"sharesync/internal/model"

	"github.com/charmbracelet/huh"
)

// RunMenu gathers the three inputs of an interactive run: which packages,
// which direction, which strategy. Enabled packages are pre-selected.
func RunMenu(packages []model.Package) ([]string, model.Direction, model.Strategy, error) {
	if len(packages) == 0 {
		return nil, "", "", fmt.Errorf("no packages configured")
	}

	var selected []string
	options := make([]huh.Option[string], 0, len(packages))
	for _, pkg := range packages {
		label := fmt.Sprintf("%s (%d mappings)", pkg.Name, len(pkg.Mappings))
		options = append(options, huh.NewOption(label, pkg.Name).Selected(pkg.Enabled))
	}

	direction := model.DirectionBoth
	strategy := model.StrategyPrompt

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Packages to sync").
				Options(options...).
				Value(&selected),
		),
		huh.NewGroup(
			huh.NewSelect[model.Direction]().
				Title("Direction").
				Options(
					huh.NewOption("Both ways", model.DirectionBoth),
					huh.NewOption("Project -> shared", model.DirectionToShared),
					huh.NewOption("Shared -> project", model.DirectionFromShared),
				).
				Value(&direction),
			huh.NewSelect[model.Strategy]().
				Title("Conflict strategy").
				Options(
					huh.NewOption("Ask me per file", model.StrategyPrompt),
					huh.NewOption("Project side wins", model.StrategySourceWins),
					huh.NewOption("Shared side wins", model.StrategyTargetWins),
				).
				Value(&strategy),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, "", "", conflict.ErrPromptAborted
		}
		return nil, "", "", fmt.Errorf("failed to run menu: %w", err)
	}

	if len(selected) == 0 {
		return nil, "", "", fmt.Errorf("no packages selected")
	}

	return selected, direction, strategy, nil
}
