package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"chartwatch/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetSignals returns recent signals, optionally filtered by ticker, direction,
// and status.
func (h *Handler) GetSignals(c *gin.Context) {
	if h.signalService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signals")
	defer span.End()

	filter := domain.SignalFilter{
		Ticker: strings.ToUpper(strings.TrimSpace(c.Query("ticker"))),
		Status: strings.ToLower(strings.TrimSpace(c.Query("status"))),
	}
	if filter.Ticker != "" {
		span.SetAttributes(attribute.String("ticker", filter.Ticker))
	}

	if rawDirection := strings.TrimSpace(c.Query("direction")); rawDirection != "" {
		direction := domain.Direction(strings.ToUpper(rawDirection))
		if !direction.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be LONG or SHORT"})
			return
		}
		filter.Direction = direction
	}

	limit := 50
	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}
		limit = n
	}
	filter.Limit = limit

	signals, err := h.signalService.ListSignals(ctx, filter)
	if err != nil {
		if strings.HasPrefix(err.Error(), "invalid status") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"signals": signals})
}

// GetSignal returns one signal by id.
func (h *Handler) GetSignal(c *gin.Context) {
	if h.signalService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signal")
	defer span.End()

	id, ok := signalID(c)
	if !ok {
		return
	}

	signal, err := h.signalService.GetSignal(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if signal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "signal not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"signal": signal})
}

// GetSignalChart returns the stored chart image for a signal id.
func (h *Handler) GetSignalChart(c *gin.Context) {
	if h.signalService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signal-chart")
	defer span.End()

	id, ok := signalID(c)
	if !ok {
		return
	}

	image, err := h.signalService.GetChartImage(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if image == nil || len(image.Bytes) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "chart image not found"})
		return
	}

	c.Data(http.StatusOK, image.MimeType, image.Bytes)
}

// GetStats summarizes signal activity over a window given in hours.
func (h *Handler) GetStats(c *gin.Context) {
	if h.signalService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-stats")
	defer span.End()

	hours := 24
	if rawHours := strings.TrimSpace(c.Query("hours")); rawHours != "" {
		n, err := strconv.Atoi(rawHours)
		if err != nil || n <= 0 || n > 24*30 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be between 1 and 720"})
			return
		}
		hours = n
	}

	stats, err := h.signalService.Stats(ctx, time.Duration(hours)*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats, "window_hours": hours})
}

// GetPrices returns the market feed's current reference prices.
func (h *Handler) GetPrices(c *gin.Context) {
	if h.prices == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market feed disabled"})
		return
	}

	_, span := h.tracer.Start(c.Request.Context(), "handler.get-prices")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{"prices": h.prices.Snapshot()})
}

func signalID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}
