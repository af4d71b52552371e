package leadselect

import (
	"fmt"

	"github.com/manifoldco/promptui"

	"github.com/smartconvert/leadcrm/internal/models"
)

// Label is the one-line description of a lead shown in the selector
func Label(lead models.Lead) string {
	score := "unscored"
	if lead.PredictionScore != nil {
		score = fmt.Sprintf("%.0f%%", *lead.PredictionScore*100)
	}
	job := lead.Job
	if job == "" {
		job = "unknown job"
	}
	label := lead.PredictionLabel
	if label == "" {
		label = "-"
	}
	return fmt.Sprintf("#%d %s, %s (%s)", lead.ID, job, score, label)
}

// PromptLeadSelection shows an interactive prompt for the user to pick a lead
func PromptLeadSelection(leads []models.Lead) (*models.Lead, error) {
	if len(leads) == 0 {
		return nil, fmt.Errorf("no leads to choose from")
	}

	type leadOption struct {
		Label string
		Lead  *models.Lead
	}

	options := make([]leadOption, len(leads))
	for i := range leads {
		options[i] = leadOption{
			Label: Label(leads[i]),
			Lead:  &leads[i],
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a lead",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("lead selection cancelled: %w", err)
	}

	return options[index].Lead, nil
}
