package stubapi

import (
	"github.com/smartconvert/leadcrm/internal/models"
)

// Seeded development account
const (
	SeedUsername = "admin"
	SeedPassword = "password123"
)

// Seed adds the development account and a handful of scored leads
func Seed(s *Store) error {
	if err := s.CreateUser(SeedUsername, SeedPassword); err != nil {
		return err
	}
	_, err := s.AddLeads(seedLeads())
	return err
}

func seedLeads() []models.Lead {
	return []models.Lead{
		scored(models.Lead{Age: ptr(41), Job: "management", Marital: "married", Education: "university.degree",
			Housing: "yes", Loan: "no", Contact: "cellular", Month: "may", DayOfWeek: "mon",
			Campaign: ptr(1), PDays: ptr(999), Previous: ptr(0), POutcome: "nonexistent"}, 0.87,
			[]models.FeatureImpact{{Feature: "contact", Impact: 0.21}, {Feature: "euribor3m", Impact: 0.14}},
			"Call this week; responsive on mobile."),
		scored(models.Lead{Age: ptr(29), Job: "technician", Marital: "single", Education: "professional.course",
			Housing: "no", Loan: "no", Contact: "cellular", Month: "jun", DayOfWeek: "wed",
			Campaign: ptr(2), PDays: ptr(6), Previous: ptr(1), POutcome: "success"}, 0.64,
			[]models.FeatureImpact{{Feature: "poutcome", Impact: 0.18}, {Feature: "campaign", Impact: -0.05}},
			"Follow up on the previous campaign."),
		scored(models.Lead{Age: ptr(55), Job: "retired", Marital: "married", Education: "basic.9y",
			Housing: "yes", Loan: "yes", Contact: "telephone", Month: "nov", DayOfWeek: "fri",
			Campaign: ptr(4), PDays: ptr(999), Previous: ptr(0), POutcome: "nonexistent"}, 0.22,
			[]models.FeatureImpact{{Feature: "campaign", Impact: -0.16}, {Feature: "contact", Impact: -0.09}},
			"Low priority; avoid further calls this month."),
		scored(models.Lead{Age: ptr(36), Job: "admin.", Marital: "divorced", Education: "high.school",
			Housing: "no", Loan: "no", Contact: "cellular", Month: "aug", DayOfWeek: "thu",
			Campaign: ptr(1), PDays: ptr(999), Previous: ptr(0), POutcome: "nonexistent"}, 0.48,
			[]models.FeatureImpact{{Feature: "month", Impact: 0.04}, {Feature: "age", Impact: -0.02}},
			"Worth a second call."),
	}
}

func scored(lead models.Lead, score float64, impacts []models.FeatureImpact, recommendation string) models.Lead {
	lead.PredictionScore = &score
	lead.PredictionLabel = labelFor(score)
	lead.Explanation = &models.Explanation{ShapValues: impacts, Recommendation: recommendation}
	return lead
}

func labelFor(score float64) string {
	switch {
	case score >= 0.7:
		return models.LabelHigh
	case score >= 0.4:
		return models.LabelMedium
	}
	return models.LabelLow
}

func ptr[T any](v T) *T {
	return &v
}
