package stubapi

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smartconvert/leadcrm/internal/models"
)

const maxPageSize = 100

func (s *Server) listLeads(c *gin.Context) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "skip must be a non-negative integer"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > maxPageSize {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "limit must be between 1 and 100"})
		return
	}
	order := c.DefaultQuery("order", "asc")
	if order != "asc" && order != "desc" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "order must be asc or desc"})
		return
	}

	leads, err := s.store.ListLeads(skip, limit, c.Query("sort_by"), order == "desc")
	if errors.Is(err, ErrInvalidSort) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	} else if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list leads")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list leads"})
		return
	}
	c.JSON(http.StatusOK, leads)
}

func (s *Server) getLead(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	lead, err := s.store.GetLead(id)
	if err != nil {
		s.leadError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (s *Server) updateLead(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		s.logger.Error().Msg("Session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	id, ok := leadID(c)
	if !ok {
		return
	}

	var update models.LeadUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Invalid request body"})
		return
	}
	if err := s.validator.Var(update.Status, "omitempty,oneof=new contacted converted rejected"); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "status must be one of new, contacted, converted, rejected"})
		return
	}

	lead, err := s.store.UpdateLead(sessionData.Username, id, update)
	if err != nil {
		s.leadError(c, err)
		return
	}

	s.logger.Info().Int("lead_id", id).Str("username", sessionData.Username).Msg("Lead updated")
	c.JSON(http.StatusOK, lead)
}

func (s *Server) leadError(c *gin.Context, err error) {
	if errors.Is(err, ErrLeadNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Lead not found"})
		return
	}
	s.logger.Error().Err(err).Msg("Failed to load lead")
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
}

// uploadCSV counts the data rows of the uploaded file and stores one
// unscored lead per row
func (s *Server) uploadCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "file is required"})
		return
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Only CSV files are accepted"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to open upload")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to read file"})
		return
	}
	defer f.Close()

	rows, err := countRows(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid CSV file"})
		return
	}

	if _, err := s.store.AddLeads(make([]models.Lead, rows)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store uploaded leads")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to store leads"})
		return
	}

	s.logger.Info().Str("file", fileHeader.Filename).Int("rows", rows).Msg("CSV uploaded")
	c.JSON(http.StatusOK, models.UploadResult{
		Message: "Successfully processed " + strconv.Itoa(rows) + " leads",
		Count:   rows,
	})
}

func (s *Server) dashboardStats(c *gin.Context) {
	stats, err := s.store.Stats()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute dashboard stats")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// countRows returns the number of records after the header row
func countRows(r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	count := 0
	for {
		_, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		count++
	}
	if count == 0 {
		return 0, nil
	}
	return count - 1, nil
}

func leadID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "lead id must be a positive integer"})
		return 0, false
	}
	return id, true
}
