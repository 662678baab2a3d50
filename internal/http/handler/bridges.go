package handler

import (
	"net/http"
	"time"

	"github.com/edirooss/dabdns-bridge/internal/http/dto"
	"github.com/edirooss/dabdns-bridge/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BridgesHandler serves the read-only resolution views.
//
// Supported operations:
//   - GET /api/ensemble            → ensemble summary
//   - GET /api/services            → built services with bearer strings
//   - GET /api/bridges/slideshow   → slideshow bridge list
//   - GET /api/bridges/epg         → EPG bridge list
//   - GET /api/warnings            → consistency warnings
//
// Every response carries X-Generated-At with the snapshot timestamp.
type BridgesHandler struct {
	log *zap.Logger
	svc *service.BridgeService
}

// NewBridgesHandler constructs a BridgesHandler instance.
func NewBridgesHandler(log *zap.Logger, svc *service.BridgeService) *BridgesHandler {
	return &BridgesHandler{log: log.Named("bridges"), svc: svc}
}

func (h *BridgesHandler) snapshot(c *gin.Context) (*service.Snapshot, bool) {
	snap, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return nil, false
	}
	c.Header("X-Generated-At", snap.GeneratedAt.UTC().Format(time.RFC3339))
	return snap, true
}

// GetEnsemble handles GET /api/ensemble.
func (h *BridgesHandler) GetEnsemble(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap.Ensemble)
}

// GetServices handles GET /api/services.
func (h *BridgesHandler) GetServices(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.FromServices(snap.Services))
}

// GetSlideshowBridges handles GET /api/bridges/slideshow.
func (h *BridgesHandler) GetSlideshowBridges(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap.Result.Slideshow)
}

// GetEPGBridges handles GET /api/bridges/epg.
func (h *BridgesHandler) GetEPGBridges(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap.Result.EPG)
}

// GetWarnings handles GET /api/warnings.
func (h *BridgesHandler) GetWarnings(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap.Result.Warnings)
}
