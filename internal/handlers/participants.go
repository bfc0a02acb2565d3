package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-relay/internal/models"
	"chat-relay/internal/observability"
	"chat-relay/internal/presence"
	"chat-relay/internal/telemetry"
	"chat-relay/internal/ws"
)

// ParticipantHandler manages registration, listing and heartbeats.
type ParticipantHandler struct {
	svc     *presence.Service
	hub     *ws.Hub
	emitter *telemetry.PresenceEmitter
}

// NewParticipantHandler builds a ParticipantHandler.
func NewParticipantHandler(svc *presence.Service, hub *ws.Hub, emitter *telemetry.PresenceEmitter) *ParticipantHandler {
	return &ParticipantHandler{svc: svc, hub: hub, emitter: emitter}
}

// Join handles POST /participants.
func (h *ParticipantHandler) Join(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "name is required"})
		return
	}

	name, err := h.svc.Join(c.Request.Context(), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, presence.ErrInvalidName):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, presence.ErrNameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register participant"})
		}
		return
	}

	observability.IncParticipantsActive()
	if h.hub != nil {
		h.hub.BroadcastEvent(models.RelayEvent{Type: "participant_joined", Participant: name})
	}
	h.emitter.EmitJoined(c.Request.Context(), name, requestIDFromContext(c))

	c.Status(http.StatusCreated)
}

// List handles GET /participants.
func (h *ParticipantHandler) List(c *gin.Context) {
	participants, err := h.svc.Participants(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load participants"})
		return
	}
	if participants == nil {
		participants = []models.Participant{}
	}

	c.JSON(http.StatusOK, participants)
}

// Heartbeat handles POST /status.
func (h *ParticipantHandler) Heartbeat(c *gin.Context) {
	identity := identityFromContext(c)

	if err := h.svc.Heartbeat(c.Request.Context(), identity); err != nil {
		if errors.Is(err, presence.ErrUnknownParticipant) {
			c.JSON(http.StatusNotFound, gin.H{"error": "participant not registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record heartbeat"})
		return
	}

	c.Status(http.StatusOK)
}
