package stubapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/smartconvert/leadcrm/internal/auth"
	"github.com/smartconvert/leadcrm/internal/models"
)

var (
	ErrUserExists   = errors.New("username already registered")
	ErrUserNotFound = errors.New("user not found")
	ErrLeadNotFound = errors.New("lead not found")
	ErrInvalidSort  = errors.New("invalid sort field")
)

const (
	// maxActivities is how many recent activities a profile shows
	maxActivities = 10
	leadBatchSize = 200
)

// User is a sales rep account
type User struct {
	ID             uint   `gorm:"primaryKey"`
	Username       string `gorm:"uniqueIndex;not null"`
	PasswordHash   string `gorm:"not null"`
	Name           string
	Role           string
	EmployeeID     string
	Email          string
	JoinedDate     string
	MonthlyTarget  int `gorm:"not null;default:50"`
	LeadsProcessed int `gorm:"not null;default:0"`
}

// Activity is one entry of a rep's activity feed
type Activity struct {
	ID       uint   `gorm:"primaryKey"`
	Username string `gorm:"index;not null"`
	Time     string
	Content  string
	LeadID   int
}

// sortColumns maps the sort_by query values to lead columns
var sortColumns = map[string]string{
	"id":               "id",
	"prediction_score": "prediction_score",
	"age":              "age",
	"created_at":       "created_at",
}

// Store is the backing store of the stub backend. It lives in a private
// in-memory sqlite database, so every Store starts empty.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore opens an empty store
func NewStore() (*Store, error) {
	s := &Store{now: time.Now}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return s.now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// Each connection to :memory: is its own database
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := db.AutoMigrate(&User{}, &Activity{}, &models.Lead{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s.db = db
	return s, nil
}

// Close releases the database
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateUser registers username with a bcrypt hash of password
func (s *Store) CreateUser(username, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Count(&count).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&User{}).Where("username = ?", username).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrUserExists
		}

		return tx.Create(&User{
			Username:      username,
			PasswordHash:  hash,
			Name:          username,
			Role:          "Sales Executive",
			EmployeeID:    fmt.Sprintf("EMP-%03d", count+1),
			Email:         username + "@smartconvert.local",
			JoinedDate:    s.now().Format("2006-01-02"),
			MonthlyTarget: 50,
		}).Error
	})
}

// Authenticate reports whether username and password match a user
func (s *Store) Authenticate(username, password string) bool {
	user, err := s.findUser(s.db, username)
	if err != nil {
		return false
	}
	return auth.CheckPassword(user.PasswordHash, password)
}

// UserExists reports whether username is registered
func (s *Store) UserExists(username string) bool {
	_, err := s.findUser(s.db, username)
	return err == nil
}

func (s *Store) findUser(db *gorm.DB, username string) (*User, error) {
	var user User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// AddLead stores lead under a new id and returns it
func (s *Store) AddLead(lead models.Lead) (models.Lead, error) {
	leads, err := s.AddLeads([]models.Lead{lead})
	if err != nil {
		return models.Lead{}, err
	}
	return leads[0], nil
}

// AddLeads stores leads in one insert. Leads without a status start as new.
func (s *Store) AddLeads(leads []models.Lead) ([]models.Lead, error) {
	if len(leads) == 0 {
		return []models.Lead{}, nil
	}
	for i := range leads {
		leads[i].ID = 0
		if leads[i].Status == "" {
			leads[i].Status = models.StatusNew
		}
	}
	if err := s.db.CreateInBatches(&leads, leadBatchSize).Error; err != nil {
		return nil, fmt.Errorf("failed to add leads: %w", err)
	}
	return leads, nil
}

// ListLeads returns a page of leads. Without sortBy the newest lead comes first.
func (s *Store) ListLeads(skip, limit int, sortBy string, desc bool) ([]models.Lead, error) {
	if sortBy == "" {
		sortBy, desc = "id", true
	}
	column, ok := sortColumns[sortBy]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSort, sortBy)
	}
	order := column + " ASC"
	if desc {
		order = column + " DESC"
	}

	leads := []models.Lead{}
	err := s.db.Order(order).Order("id ASC").Offset(skip).Limit(limit).Find(&leads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

// GetLead returns lead id
func (s *Store) GetLead(id int) (models.Lead, error) {
	return s.getLead(s.db, id)
}

func (s *Store) getLead(db *gorm.DB, id int) (models.Lead, error) {
	var lead models.Lead
	if err := db.Where("id = ?", id).First(&lead).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Lead{}, ErrLeadNotFound
		}
		return models.Lead{}, err
	}
	return lead, nil
}

// UpdateLead records a follow-up on lead id and logs it on the user's
// activity feed
func (s *Store) UpdateLead(username string, id int, update models.LeadUpdate) (models.Lead, error) {
	var lead models.Lead
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		lead, err = s.getLead(tx, id)
		if err != nil {
			return err
		}

		if update.Status != "" {
			lead.Status = update.Status
		}
		lead.Notes = update.Notes
		if err := tx.Model(&lead).Select("status", "notes").Updates(&lead).Error; err != nil {
			return err
		}

		user, err := s.findUser(tx, username)
		if errors.Is(err, ErrUserNotFound) {
			return nil
		} else if err != nil {
			return err
		}

		if err := tx.Model(user).Update("leads_processed", gorm.Expr("leads_processed + 1")).Error; err != nil {
			return err
		}
		return tx.Create(&Activity{
			Username: username,
			Time:     s.now().Format(time.RFC3339),
			Content:  fmt.Sprintf("Updated lead #%d to %s", id, lead.Status),
			LeadID:   id,
		}).Error
	})
	if err != nil {
		return models.Lead{}, err
	}
	return lead, nil
}

// Stats aggregates all leads for the dashboard
func (s *Store) Stats() (models.DashboardStats, error) {
	var leads []models.Lead
	if err := s.db.Order("id ASC").Find(&leads).Error; err != nil {
		return models.DashboardStats{}, fmt.Errorf("failed to load leads: %w", err)
	}

	stats := models.DashboardStats{TotalLeads: len(leads)}
	scoreBuckets := []models.NameValue{{Name: "0-20"}, {Name: "20-40"}, {Name: "40-60"}, {Name: "60-80"}, {Name: "80-100"}}
	jobs := newCounter()
	education := newCounter()
	marital := newCounter()

	for _, lead := range leads {
		switch lead.PredictionLabel {
		case models.LabelHigh:
			stats.HighPotential++
		case models.LabelMedium:
			stats.MediumPotential++
		case models.LabelLow:
			stats.LowPotential++
		}
		if lead.PredictionScore != nil {
			bucket := min(int(*lead.PredictionScore*100)/20, len(scoreBuckets)-1)
			scoreBuckets[max(bucket, 0)].Value++
		}
		jobs.add(lead.Job)
		education.add(lead.Education)
		marital.add(lead.Marital)
	}

	if stats.TotalLeads > 0 {
		rate := float64(stats.HighPotential) / float64(stats.TotalLeads) * 100
		stats.ConversionRateEstimate = float64(int(rate*100+0.5)) / 100
	}
	stats.ScoreDist = scoreBuckets
	stats.JobDist = jobs.values()
	stats.EducationDist = education.values()
	stats.MaritalDist = marital.values()
	return stats, nil
}

// Profile returns the profile of username
func (s *Store) Profile(username string) (models.Profile, error) {
	user, err := s.findUser(s.db, username)
	if err != nil {
		return models.Profile{}, err
	}

	var activities []Activity
	err = s.db.Where("username = ?", username).Order("id DESC").Limit(maxActivities).Find(&activities).Error
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to load activities: %w", err)
	}

	p := models.Profile{
		Name:             user.Name,
		Role:             user.Role,
		EmployeeID:       user.EmployeeID,
		Email:            user.Email,
		JoinedDate:       user.JoinedDate,
		MonthlyTarget:    user.MonthlyTarget,
		Stats:            models.ProfileStats{LeadsProcessed: user.LeadsProcessed},
		RecentActivities: make([]models.ActivityItem, 0, len(activities)),
	}
	for _, a := range activities {
		p.RecentActivities = append(p.RecentActivities, models.ActivityItem{Time: a.Time, Content: a.Content, LeadID: a.LeadID})
	}
	if joined, err := time.Parse("2006-01-02", p.JoinedDate); err == nil {
		p.ActiveDays = int(s.now().Sub(joined).Hours()/24) + 1
	}
	if p.MonthlyTarget > 0 {
		p.Stats.CurrentProgress = min(p.Stats.LeadsProcessed*100/p.MonthlyTarget, 100)
	}
	return p, nil
}

// UpdateProfile applies the non-empty fields of update
func (s *Store) UpdateProfile(username string, update models.ProfileUpdate) error {
	user, err := s.findUser(s.db, username)
	if err != nil {
		return err
	}

	changes := map[string]any{}
	if update.Name != "" {
		changes["name"] = update.Name
	}
	if update.Role != "" {
		changes["role"] = update.Role
	}
	if update.MonthlyTarget > 0 {
		changes["monthly_target"] = update.MonthlyTarget
	}
	if len(changes) == 0 {
		return nil
	}
	return s.db.Model(user).Updates(changes).Error
}

type counter struct {
	order  []string
	counts map[string]float64
}

func newCounter() *counter {
	return &counter{counts: make(map[string]float64)}
}

func (c *counter) add(name string) {
	if name == "" {
		return
	}
	if _, ok := c.counts[name]; !ok {
		c.order = append(c.order, name)
	}
	c.counts[name]++
}

func (c *counter) values() []models.NameValue {
	out := make([]models.NameValue, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, models.NameValue{Name: name, Value: c.counts[name]})
	}
	return out
}
