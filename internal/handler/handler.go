package handler

import (
	"chartwatch/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// PriceView exposes the market feed's current prices. Nil when the feed is
// disabled.
type PriceView interface {
	Snapshot() map[string]float64
}

type Handler struct {
	tracer        trace.Tracer
	signalService *service.SignalService
	prices        PriceView
}

func New(tracer trace.Tracer, signalService *service.SignalService, prices PriceView) *Handler {
	return &Handler{
		tracer:        tracer,
		signalService: signalService,
		prices:        prices,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/signals", h.GetSignals)
	r.GET("/api/signals/:id", h.GetSignal)
	r.GET("/api/signals/:id/chart", h.GetSignalChart)
	r.GET("/api/stats", h.GetStats)
	r.GET("/api/prices", h.GetPrices)
}
