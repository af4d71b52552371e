package stubapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartconvert/leadcrm/internal/models"
)

func (s *Server) getProfile(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	profile, err := s.store.Profile(sessionData.Username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) updateProfile(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Invalid request body"})
		return
	}
	if err := s.validator.Var(update.MonthlyTarget, "gte=0,lte=10000"); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "monthly_target must be between 0 and 10000"})
		return
	}

	if err := s.store.UpdateProfile(sessionData.Username, update); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}

	profile, err := s.store.Profile(sessionData.Username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	c.JSON(http.StatusOK, profile)
}
