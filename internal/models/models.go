// Package models holds the payloads exchanged with the lead-scoring API. The
// backend owns all of this data; the client only displays and edits it.
package models

import "time"

// Prediction labels produced by the scoring service
const (
	LabelHigh   = "High Potential"
	LabelMedium = "Medium Potential"
	LabelLow    = "Low Potential"
)

// Follow-up statuses a salesperson can record on a lead
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusConverted = "converted"
	StatusRejected  = "rejected"
)

// Lead is one customer record from the bank marketing dataset together with
// its precomputed score
type Lead struct {
	ID int `json:"id"`

	// Client demographics
	Age       *int   `json:"age,omitempty"`
	Job       string `json:"job,omitempty"`
	Marital   string `json:"marital,omitempty"`
	Education string `json:"education,omitempty"`
	Default   string `json:"default,omitempty" gorm:"column:credit_default"`
	Housing   string `json:"housing,omitempty"`
	Loan      string `json:"loan,omitempty"`

	// Last contact
	Contact   string `json:"contact,omitempty"`
	Month     string `json:"month,omitempty"`
	DayOfWeek string `json:"day_of_week,omitempty"`

	// Campaign
	Campaign *int   `json:"campaign,omitempty"`
	PDays    *int   `json:"pdays,omitempty"`
	Previous *int   `json:"previous,omitempty"`
	POutcome string `json:"poutcome,omitempty"`

	// Socio-economic context
	EmpVarRate   *float64 `json:"emp_var_rate,omitempty"`
	ConsPriceIdx *float64 `json:"cons_price_idx,omitempty"`
	ConsConfIdx  *float64 `json:"cons_conf_idx,omitempty"`
	Euribor3m    *float64 `json:"euribor3m,omitempty"`
	NrEmployed   *float64 `json:"nr_employed,omitempty"`

	// Prediction results
	PredictionScore *float64     `json:"prediction_score,omitempty"`
	PredictionLabel string       `json:"prediction_label,omitempty"`
	Explanation     *Explanation `json:"explanation,omitempty" gorm:"serializer:json"`

	// Follow-up
	Status string `json:"status,omitempty"`
	Notes  string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Explanation lists the features that pushed a score up or down
type Explanation struct {
	ShapValues     []FeatureImpact `json:"shap_values"`
	Recommendation string          `json:"recommendation,omitempty"`
}

// FeatureImpact is a single SHAP contribution. Positive impact raises the score.
type FeatureImpact struct {
	Feature string  `json:"feature"`
	Impact  float64 `json:"impact"`
}

// LeadUpdate is the body of a lead follow-up update
type LeadUpdate struct {
	Status string `json:"status,omitempty"`
	Notes  string `json:"notes"`
}

// NameValue is one bar of a distribution chart
type NameValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// DashboardStats is the aggregated view of all scored leads
type DashboardStats struct {
	TotalLeads             int         `json:"total_leads"`
	HighPotential          int         `json:"high_potential"`
	MediumPotential        int         `json:"medium_potential"`
	LowPotential           int         `json:"low_potential"`
	ConversionRateEstimate float64     `json:"conversion_rate_estimate"`
	ScoreDist              []NameValue `json:"score_dist,omitempty"`
	JobDist                []NameValue `json:"job_dist,omitempty"`
	EducationDist          []NameValue `json:"edu_dist,omitempty"`
	MaritalDist            []NameValue `json:"marital_dist,omitempty"`
}

// Profile is the signed-in salesperson
type Profile struct {
	Name             string         `json:"name"`
	Role             string         `json:"role"`
	EmployeeID       string         `json:"id_emp"`
	Email            string         `json:"email"`
	JoinedDate       string         `json:"joined_date"`
	ActiveDays       int            `json:"active_days"`
	MonthlyTarget    int            `json:"monthly_target"`
	Stats            ProfileStats   `json:"stats"`
	RecentActivities []ActivityItem `json:"recent_activities"`
}

// ProfileStats summarises the salesperson's work this month
type ProfileStats struct {
	LeadsProcessed  int     `json:"leads_processed"`
	ConversionRate  float64 `json:"conversion_rate"`
	CurrentProgress int     `json:"current_progress"`
}

// ActivityItem is one entry of the recent activity feed
type ActivityItem struct {
	Time    string `json:"time"`
	Content string `json:"content"`
	LeadID  int    `json:"lead_id,omitempty"`
}

// ProfileUpdate is the editable subset of a Profile
type ProfileUpdate struct {
	Name          string `json:"name,omitempty"`
	Role          string `json:"role,omitempty"`
	MonthlyTarget int    `json:"monthly_target,omitempty"`
}

// UploadResult is returned after a CSV upload
type UploadResult struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// Credentials is the register request body
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token is the login response body
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}
