package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chat-relay/internal/models"
	"chat-relay/internal/presence"
	"chat-relay/internal/repositories"
	"chat-relay/internal/ws"
)

// MessageHandler manages posting, reading and retracting messages.
type MessageHandler struct {
	svc *presence.Service
	hub *ws.Hub
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(svc *presence.Service, hub *ws.Hub) *MessageHandler {
	return &MessageHandler{svc: svc, hub: hub}
}

type messageResponse struct {
	ID   int    `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

func toResponse(m models.Message) messageResponse {
	return messageResponse{
		ID:   m.ID,
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Type: m.Type,
		Time: m.Stamp(),
	}
}

// Post handles POST /messages. The sender comes from the User header.
func (h *MessageHandler) Post(c *gin.Context) {
	var req struct {
		To   string `json:"to" binding:"required"`
		Text string `json:"text" binding:"required"`
		Type string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "to, text and type are required"})
		return
	}

	from := identityFromContext(c)
	msg, err := h.svc.PostMessage(c.Request.Context(), from, req.To, req.Text, req.Type)
	if err != nil {
		switch {
		case errors.Is(err, presence.ErrInvalidMessage), errors.Is(err, presence.ErrSenderNotRegistered):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		}
		return
	}

	// Private messages stay off the shared feed.
	if h.hub != nil && msg.Type != models.TypePrivate {
		h.hub.BroadcastMessage(msg)
	}

	c.JSON(http.StatusCreated, toResponse(msg))
}

// List handles GET /messages?limit=N for the identity in the User header.
func (h *MessageHandler) List(c *gin.Context) {
	limitParam := c.Query("limit")
	limit, err := strconv.Atoi(limitParam)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "limit must be a positive number"})
		return
	}

	identity := identityFromContext(c)
	msgs, err := h.svc.Inbox(c.Request.Context(), identity, limit)
	if err != nil {
		if errors.Is(err, presence.ErrInvalidLimit) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	resp := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toResponse(m))
	}

	c.JSON(http.StatusOK, resp)
}

// Delete handles DELETE /messages/:message_id (sender only).
func (h *MessageHandler) Delete(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	requester := identityFromContext(c)
	if err := h.svc.DeleteMessage(c.Request.Context(), messageID, requester); err != nil {
		switch {
		case errors.Is(err, repositories.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		case errors.Is(err, presence.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "only the sender can delete a message"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete message"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
