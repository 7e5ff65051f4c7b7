package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/agamai/meet/internal/app"
	"github.com/agamai/meet/internal/collab"
	"github.com/agamai/meet/internal/config"
	"github.com/agamai/meet/internal/domain"
)

// Handlers serves the request/response query surface. Everything here is
// a read of derived state or a call-through to a collaborator; the
// streaming path lives on the websocket channel.
type Handlers struct {
	Coord *app.Coordinator
	Cfg   *config.Config
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.Coord.HealthStatus())
}

func (h *Handlers) Transcript(c *gin.Context) {
	room := domain.RoomID(c.Param("room"))
	entries, ok := h.Coord.Transcript(room)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"room":          string(room),
		"transcript":    entries,
		"total_entries": len(entries),
	})
}

func (h *Handlers) Engagement(c *gin.Context) {
	report, ok := h.Coord.Engagement(domain.RoomID(c.Param("room")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handlers) Sentiment(c *gin.Context) {
	report, ok := h.Coord.Sentiment(domain.RoomID(c.Param("room")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, report)
}

type roomRequest struct {
	Room string `json:"room" binding:"required"`
}

func (h *Handlers) Summarize(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid room"})
		return
	}

	result, err := h.Coord.Summarize(c.Request.Context(), domain.RoomID(req.Room))
	switch {
	case errors.Is(err, app.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case errors.Is(err, app.ErrEmptyTranscript):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no transcript available"})
	case errors.Is(err, collab.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "summarizer not available"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Str("room", req.Room).Msg("summarize")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, result)
	}
}

func (h *Handlers) Nudge(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid room"})
		return
	}
	nudged := h.Coord.NudgeQuiet(domain.RoomID(req.Room))
	if nudged == nil {
		nudged = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"nudged": nudged, "count": len(nudged)})
}

// WebRTCConfig hands browsers the ICE servers they need to negotiate
// their direct media path. Media itself never transits this server.
func (h *Handlers) WebRTCConfig(c *gin.Context) {
	servers := make([]webrtc.ICEServer, 0, len(h.Cfg.ICEServers))
	for _, url := range h.Cfg.ICEServers {
		servers = append(servers, webrtc.ICEServer{URLs: []string{url}})
	}
	c.JSON(http.StatusOK, gin.H{"iceServers": servers})
}
