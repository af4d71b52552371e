package stubapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartconvert/leadcrm/internal/auth"
	"github.com/smartconvert/leadcrm/internal/models"
)

func mustIssuer(t *testing.T, secret string, ttl time.Duration) *auth.Issuer {
	t.Helper()
	issuer, err := auth.NewIssuer(secret, ttl)
	require.NoError(t, err)
	return issuer
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_Users(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.CreateUser("rep", "secret123"))
	assert.ErrorIs(t, s.CreateUser("rep", "other"), ErrUserExists)

	assert.True(t, s.Authenticate("rep", "secret123"))
	assert.False(t, s.Authenticate("rep", "other"))
	assert.False(t, s.Authenticate("ghost", "secret123"))
}

func TestStore_ListLeadsEmptyPage(t *testing.T) {
	s := newStore(t)
	leads, err := s.ListLeads(0, 10, "", false)
	require.NoError(t, err)
	assert.NotNil(t, leads)
	assert.Empty(t, leads)
}

func TestStore_UpdateKeepsStatusWhenEmpty(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.CreateUser("rep", "secret123"))
	lead, err := s.AddLead(models.Lead{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, lead.Status)

	updated, err := s.UpdateLead("rep", lead.ID, models.LeadUpdate{Notes: "voicemail"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, updated.Status)
	assert.Equal(t, "voicemail", updated.Notes)

	_, err = s.UpdateLead("rep", 42, models.LeadUpdate{})
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestStore_StatsEmpty(t *testing.T) {
	stats, err := newStore(t).Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.TotalLeads)
	assert.Zero(t, stats.ConversionRateEstimate)
}

func TestStore_StoresAreIsolated(t *testing.T) {
	a := newStore(t)
	require.NoError(t, Seed(a))

	b := newStore(t)
	assert.False(t, b.UserExists(SeedUsername))
	leads, err := b.ListLeads(0, 10, "", false)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestStore_ListLeadsSortAndPage(t *testing.T) {
	s := newStore(t)
	require.NoError(t, Seed(s))

	leads, err := s.ListLeads(0, 10, "", false)
	require.NoError(t, err)
	require.Len(t, leads, 4)
	assert.Equal(t, []int{4, 3, 2, 1}, leadIDs(leads))

	leads, err = s.ListLeads(0, 2, "prediction_score", true)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, leadIDs(leads))

	leads, err = s.ListLeads(1, 2, "age", false)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 1}, leadIDs(leads))

	leads, err = s.ListLeads(10, 2, "id", false)
	require.NoError(t, err)
	assert.Empty(t, leads)

	_, err = s.ListLeads(0, 10, "notes", false)
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestStore_LeadRoundTrip(t *testing.T) {
	s := newStore(t)
	require.NoError(t, Seed(s))

	lead, err := s.GetLead(1)
	require.NoError(t, err)
	require.NotNil(t, lead.Explanation)
	assert.Equal(t, "contact", lead.Explanation.ShapValues[0].Feature)
	assert.Equal(t, models.LabelHigh, lead.PredictionLabel)
	assert.Equal(t, 41, *lead.Age)
	assert.False(t, lead.CreatedAt.IsZero())

	_, err = s.GetLead(99)
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestStore_ProfileActivities(t *testing.T) {
	s := newStore(t)
	require.NoError(t, Seed(s))

	for i := 0; i < maxActivities+2; i++ {
		_, err := s.UpdateLead(SeedUsername, 1, models.LeadUpdate{Status: models.StatusContacted})
		require.NoError(t, err)
	}

	profile, err := s.Profile(SeedUsername)
	require.NoError(t, err)
	assert.Equal(t, maxActivities+2, profile.Stats.LeadsProcessed)
	assert.Len(t, profile.RecentActivities, maxActivities)
	assert.Equal(t, "EMP-001", profile.EmployeeID)

	require.NoError(t, s.UpdateProfile(SeedUsername, models.ProfileUpdate{Role: "Team Lead", MonthlyTarget: 10}))
	profile, err = s.Profile(SeedUsername)
	require.NoError(t, err)
	assert.Equal(t, "Team Lead", profile.Role)
	assert.Equal(t, SeedUsername, profile.Name)
	assert.Equal(t, 100, profile.Stats.CurrentProgress)

	assert.ErrorIs(t, s.UpdateProfile("ghost", models.ProfileUpdate{Name: "x"}), ErrUserNotFound)
}

func leadIDs(leads []models.Lead) []int {
	ids := make([]int, 0, len(leads))
	for _, lead := range leads {
		ids = append(ids, lead.ID)
	}
	return ids
}

func TestLabelFor(t *testing.T) {
	assert.Equal(t, models.LabelHigh, labelFor(0.9))
	assert.Equal(t, models.LabelMedium, labelFor(0.4))
	assert.Equal(t, models.LabelLow, labelFor(0.1))
}
