package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/linkpulse/internal/classifier"
	"github.com/jonesrussell/linkpulse/internal/domain"
	"github.com/jonesrussell/linkpulse/internal/logging"
	"github.com/jonesrussell/linkpulse/internal/stats"
	"github.com/jonesrussell/linkpulse/internal/storage"
	"github.com/jonesrussell/linkpulse/internal/trends"
)

// ClassifyHandler exposes the classification pipeline over HTTP.
type ClassifyHandler struct {
	runner       *classifier.Runner
	defaultLimit int
	defaultBatch int
	logger       logging.Logger
}

// NewClassifyHandler creates a ClassifyHandler.
func NewClassifyHandler(runner *classifier.Runner, defaultLimit, defaultBatch int, logger logging.Logger) *ClassifyHandler {
	return &ClassifyHandler{
		runner:       runner,
		defaultLimit: defaultLimit,
		defaultBatch: defaultBatch,
		logger:       logger,
	}
}

// HandleRun triggers a single classification pass and returns its counters.
func (h *ClassifyHandler) HandleRun(c *gin.Context) {
	limit := intQuery(c, "limit", h.defaultLimit)
	batchSize := intQuery(c, "batch_size", h.defaultBatch)

	counters, err := h.runner.Run(c.Request.Context(), limit, batchSize)
	if err != nil {
		h.logger.Error("classification run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "classification run failed"})
		return
	}

	c.JSON(http.StatusOK, counters)
}

// TrendsHandler exposes trend generation and retrieval over HTTP.
type TrendsHandler struct {
	service       *trends.Service
	defaultPeriod string
	logger        logging.Logger
}

// NewTrendsHandler creates a TrendsHandler.
func NewTrendsHandler(service *trends.Service, defaultPeriod string, logger logging.Logger) *TrendsHandler {
	return &TrendsHandler{
		service:       service,
		defaultPeriod: defaultPeriod,
		logger:        logger,
	}
}

// HandleRun triggers a single aggregate-and-summarize pass.
func (h *TrendsHandler) HandleRun(c *gin.Context) {
	period := c.DefaultQuery("period", h.defaultPeriod)

	record, err := h.service.Run(c.Request.Context(), period)
	if err != nil {
		h.logger.Error("trend run failed", "period", period, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "trend run failed"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// HandleLatest returns the most recent trend snapshot for a period,
// filtered for the requested view.
func (h *TrendsHandler) HandleLatest(c *gin.Context) {
	period := c.DefaultQuery("period", h.defaultPeriod)
	view := trends.ParseView(c.Query("view"))

	record, found, err := h.service.Latest(c.Request.Context(), period, view)
	if err != nil {
		h.logger.Error("trend lookup failed", "period", period, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "trend lookup failed"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "No trend data", "period": period})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period": period,
		"view":   string(view),
		"trend":  record,
	})
}

// statsPeriod names the rolling window the per-link breakdown covers.
const statsPeriod = "7d"

// LinkStatsHandler serves per-link click breakdowns.
type LinkStatsHandler struct {
	store  *storage.Store
	logger logging.Logger
}

// NewLinkStatsHandler creates a LinkStatsHandler.
func NewLinkStatsHandler(store *storage.Store, logger logging.Logger) *LinkStatsHandler {
	return &LinkStatsHandler{store: store, logger: logger}
}

// linkStatsResponse is the per-link stats payload. The breakdown covers the
// rolling window named by Period; TotalClicks is the lifetime counter.
type linkStatsResponse struct {
	ShortID         string           `json:"shortId"`
	URL             string           `json:"url"`
	Category        *domain.Category `json:"category,omitempty"`
	Period          string           `json:"period"`
	TotalClicks     int64            `json:"totalClicks"`
	ClicksByHour    map[string]int64 `json:"clicksByHour"`
	ClicksByDay     map[string]int64 `json:"clicksByDay"`
	ClicksByReferer map[string]int64 `json:"clicksByReferer"`
	PeakHour        string           `json:"peakHour,omitempty"`
	TopReferer      string           `json:"topReferer,omitempty"`
}

// HandleStats returns the click breakdown for a single short link.
func (h *LinkStatsHandler) HandleStats(c *gin.Context) {
	shortID := c.Param("shortId")

	record, found, err := h.store.GetURL(c.Request.Context(), shortID)
	if err != nil {
		h.logger.Error("link lookup failed", "short_id", shortID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "link lookup failed"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found", "shortId": shortID})
		return
	}

	clicks, err := h.store.QueryClicks(c.Request.Context(), shortID)
	if err != nil {
		h.logger.Error("click lookup failed", "short_id", shortID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "click lookup failed"})
		return
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -stats.WindowDays)
	buckets := stats.BucketClicks(clicks, cutoff)

	c.JSON(http.StatusOK, linkStatsResponse{
		ShortID:         record.ShortID,
		URL:             record.OriginalURL,
		Category:        record.Category,
		Period:          statsPeriod,
		TotalClicks:     domain.SafeCount(record.ClickCount),
		ClicksByHour:    buckets.ByHour,
		ClicksByDay:     buckets.ByDay,
		ClicksByReferer: buckets.ByReferer,
		PeakHour:        buckets.PeakHour,
		TopReferer:      buckets.TopReferer,
	})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
