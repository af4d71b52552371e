package leadselect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartconvert/leadcrm/internal/models"
)

func TestLabel(t *testing.T) {
	score := 0.873
	assert.Equal(t, "#3 management, 87% (High Potential)", Label(models.Lead{
		ID: 3, Job: "management", PredictionScore: &score, PredictionLabel: models.LabelHigh,
	}))
	assert.Equal(t, "#9 unknown job, unscored (-)", Label(models.Lead{ID: 9}))
}

func TestPromptLeadSelection_Empty(t *testing.T) {
	_, err := PromptLeadSelection(nil)
	assert.Error(t, err)
}
