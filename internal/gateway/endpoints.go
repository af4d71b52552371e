package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/smartconvert/leadcrm/internal/models"
)

// DefaultPageSize is the number of leads per page
const DefaultPageSize = 10

// Login exchanges credentials for an access token. The backend expects an
// OAuth2 password grant, so the body is form-url-encoded rather than JSON.
// Login does not touch the session store; see Authenticator.
func (c *Client) Login(ctx context.Context, username, password string) (*models.Token, error) {
	form := url.Values{
		"username": {username},
		"password": {password},
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/login", nil, strings.NewReader(form.Encode()), contentTypeForm)
	if err != nil {
		return nil, err
	}

	var token models.Token
	if err := c.Do(req, &token); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return &token, nil
}

// Register creates an account
func (c *Client) Register(ctx context.Context, username, password string) error {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/register", models.Credentials{
		Username: username,
		Password: password,
	})
	if err != nil {
		return err
	}

	if err := c.Do(req, nil); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return nil
}

// LeadQuery selects a page of leads
type LeadQuery struct {
	Page  int
	Limit int
	// SortBy is a lead field name, e.g. "prediction_score"
	SortBy string
	Desc   bool
}

func (q LeadQuery) values() url.Values {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	page := q.Page
	if page < 0 {
		page = 0
	}

	v := url.Values{
		"skip":  {strconv.Itoa(page * limit)},
		"limit": {strconv.Itoa(limit)},
	}
	if q.SortBy != "" {
		v.Set("sort_by", q.SortBy)
		if q.Desc {
			v.Set("order", "desc")
		} else {
			v.Set("order", "asc")
		}
	}
	return v
}

// ListLeads returns one page of leads
func (c *Client) ListLeads(ctx context.Context, q LeadQuery) ([]models.Lead, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/leads", q.values(), nil, "")
	if err != nil {
		return nil, err
	}

	var leads []models.Lead
	if err := c.Do(req, &leads); err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

// GetLead returns a lead with its explanation
func (c *Client) GetLead(ctx context.Context, id int) (*models.Lead, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/leads/%d", id), nil, nil, "")
	if err != nil {
		return nil, err
	}

	var lead models.Lead
	if err := c.Do(req, &lead); err != nil {
		return nil, fmt.Errorf("failed to get lead %d: %w", id, err)
	}
	return &lead, nil
}

// UpdateLead records a follow-up on a lead and returns the updated lead
func (c *Client) UpdateLead(ctx context.Context, id int, update models.LeadUpdate) (*models.Lead, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPut, fmt.Sprintf("/leads/%d", id), update)
	if err != nil {
		return nil, err
	}

	var lead models.Lead
	if err := c.Do(req, &lead); err != nil {
		return nil, fmt.Errorf("failed to update lead %d: %w", id, err)
	}
	return &lead, nil
}

// UploadCSV sends a dataset for batch scoring as multipart field "file"
func (c *Client) UploadCSV(ctx context.Context, filename string, r io.Reader) (*models.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/upload-csv", nil, &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var result models.UploadResult
	if err := c.Do(req, &result); err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	return &result, nil
}

// DashboardStats returns the aggregated dashboard figures
func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/dashboard/stats", nil, nil, "")
	if err != nil {
		return nil, err
	}

	var stats models.DashboardStats
	if err := c.Do(req, &stats); err != nil {
		return nil, fmt.Errorf("failed to fetch dashboard stats: %w", err)
	}
	return &stats, nil
}

// GetProfile returns the signed-in user's profile
func (c *Client) GetProfile(ctx context.Context) (*models.Profile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/user/profile", nil, nil, "")
	if err != nil {
		return nil, err
	}

	var profile models.Profile
	if err := c.Do(req, &profile); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &profile, nil
}

// UpdateProfile changes the editable profile fields
func (c *Client) UpdateProfile(ctx context.Context, update models.ProfileUpdate) error {
	req, err := c.newJSONRequest(ctx, http.MethodPut, "/user/profile", update)
	if err != nil {
		return err
	}

	if err := c.Do(req, nil); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
