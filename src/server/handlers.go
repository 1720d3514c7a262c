package server

import (
	"net/http"
	"strconv"

	"auction-predictor/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getRoot(c *gin.Context) {
	s.Logger.Info("Root endpoint accessed")
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the ML Auction Price Prediction API"})
}

// -----------------------------------------------------------------------------

func (s *APIServer) postPredict(c *gin.Context) {
	if s.predictor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "predictor not ready"})
		return
	}

	var req models.MPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.Logger.Info("Rejected prediction request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"detail": bindingMessage(err)})
		return
	}

	result, err := s.predictor.Predict(c.Request.Context(), req)
	if err != nil {
		status, detail := errorResponse(err)
		if status >= 500 {
			s.Logger.Error("Prediction error: %v", err)
		} else {
			s.Logger.Info("Prediction rejected: %v", err)
		}
		c.JSON(status, gin.H{"detail": detail})
		return
	}

	c.JSON(http.StatusOK, result)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	modelsLoaded := 0
	if s.predictor != nil {
		modelsLoaded = len(s.predictor.Models())
	}

	s.recentMutex.RLock()
	recent := s.recent.Size()
	s.recentMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":             "ok",
		"connections":        s.connections.Load(),
		"models_loaded":      modelsLoaded,
		"recent_predictions": recent,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getModels(c *gin.Context) {
	list := []models.MModelInfo{}
	if s.predictor != nil {
		list = s.predictor.Models()
	}
	c.JSON(http.StatusOK, gin.H{"models": list})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories":    s.Config.Models.Categories,
		"targets":       s.Config.Models.Targets,
		"quantiles":     s.Config.Models.Quantiles(),
		"history_years": s.Config.Features.HistoryYears,
		"ewm_span":      s.Config.Features.EWMSpan,
		"data_source":   s.Config.DataSource.Mode,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getRecent(c *gin.Context) {
	limit := s.Config.Feed.RecentCapacity
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	recent := filterGroups(s.Recent(), groupSet(c.QueryArray("product_group")))
	if len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}
	c.JSON(http.StatusOK, gin.H{"predictions": recent})
}
