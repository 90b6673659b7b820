package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tadeyemo32/lead-scraper/models"
	"github.com/tadeyemo32/lead-scraper/services"
	"go.uber.org/zap"
)

// Handler serves the lead search API.
type Handler struct {
	Engine *services.Engine
	// Downloads throttles /api/download-csv separately from searches.
	Downloads *services.RateLimiter
	Logger    *zap.Logger
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *Handler) searchHandler(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload."})
		return
	}

	h.logger().Info("[API] search request received",
		zap.String("website", req.Website),
		zap.String("city", req.City),
		zap.String("occupation", req.Occupation),
		zap.String("email_domain", req.EmailDomain),
		zap.String("client_ip", c.ClientIP()))

	resp, err := h.Engine.Run(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// writeError maps engine failures onto status codes. Anything unexpected
// becomes a generic 500 so no internal detail reaches the caller.
func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, services.ErrInvalidKey):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
	case errors.Is(err, services.ErrRateLimited), errors.Is(err, services.ErrUpstreamRateLimit):
		h.logger().Warn("[API] rate limit exceeded", zap.String("client_ip", c.ClientIP()), zap.Error(err))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
	default:
		h.logger().Error("[API] unexpected error during search", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred"})
	}
}

func (h *Handler) downloadCSVHandler(c *gin.Context) {
	if h.Downloads != nil && !h.Downloads.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
		return
	}

	var req models.DownloadCSVRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CSVData == "" {
		h.logger().Error("[API] download error: no CSV data provided")
		c.JSON(http.StatusBadRequest, gin.H{"error": "No CSV data provided"})
		return
	}
	if _, err := services.ParseCSV(strings.NewReader(req.CSVData)); err != nil {
		h.logger().Error("[API] download error: malformed CSV", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid CSV data"})
		return
	}

	h.logger().Info("[API] CSV download requested")
	c.Header("Content-Disposition", `attachment; filename="search_results.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(req.CSVData))
}

// runsHandler lists recent search runs from the audit store.
func (h *Handler) runsHandler(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	runs, err := h.Engine.Runs.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger().Error("[API] listing runs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list runs"})
		return
	}
	if runs == nil {
		runs = []models.RunRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "total": len(runs)})
}
