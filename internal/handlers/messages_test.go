package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/middleware"
	"chat-relay/internal/mocks"
	"chat-relay/internal/models"
	"chat-relay/internal/presence"
	"chat-relay/internal/repositories"
)

func setupMessageRouter(handler *MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	identity := middleware.RequireIdentity()
	r.POST("/messages", identity, handler.Post)
	r.GET("/messages", identity, handler.List)
	r.DELETE("/messages/:message_id", identity, handler.Delete)
	return r
}

func TestPostMessageCreated(t *testing.T) {
	participants := new(mocks.ParticipantRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	svc := presence.NewService(participants, messages)
	handler := NewMessageHandler(svc, nil)
	router := setupMessageRouter(handler)

	participants.On("Exists", mock.Anything, "ana").Return(true, nil).Once()
	messages.On("Create", mock.Anything, "ana", "Todos", "oi", models.TypePublic).
		Return(models.Message{ID: 9, From: "ana", To: "Todos", Text: "oi", Type: models.TypePublic, Time: time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(`{"to":"Todos","text":"oi","type":"message"}`))
	req.Header.Set("User", "ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "09:30:00", resp["time"])
	participants.AssertExpectations(t)
	messages.AssertExpectations(t)
}

func TestPostMessageSenderNotRegistered(t *testing.T) {
	participants := new(mocks.ParticipantRepositoryMock)
	svc := presence.NewService(participants, new(mocks.MessageRepositoryMock))
	handler := NewMessageHandler(svc, nil)
	router := setupMessageRouter(handler)

	participants.On("Exists", mock.Anything, "ghost").Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(`{"to":"Todos","text":"oi","type":"message"}`))
	req.Header.Set("User", "ghost")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPostMessageValidation(t *testing.T) {
	svc := presence.NewService(new(mocks.ParticipantRepositoryMock), new(mocks.MessageRepositoryMock))
	handler := NewMessageHandler(svc, nil)
	router := setupMessageRouter(handler)

	bodies := []string{
		`{"text":"oi","type":"message"}`,
		`{"to":"Todos","type":"message"}`,
		`{"to":"Todos","text":"oi"}`,
	}
	for _, body := range bodies {
		req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(body))
		req.Header.Set("User", "ana")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "body %s", body)
	}
}

func TestPostMessageBadType(t *testing.T) {
	svc := presence.NewService(new(mocks.ParticipantRepositoryMock), new(mocks.MessageRepositoryMock))
	handler := NewMessageHandler(svc, nil)
	router := setupMessageRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(`{"to":"Todos","text":"oi","type":"shout"}`))
	req.Header.Set("User", "ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListMessages(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	svc := presence.NewService(new(mocks.ParticipantRepositoryMock), messages)
	handler := NewMessageHandler(svc, nil)
	router := setupMessageRouter(handler)

	messages.On("VisibleTo", mock.Anything, "bob", 10).
		Return([]models.Message{{ID: 2, From: "ana", To: "Todos", Text: "oi", Type: models.TypePublic}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages?limit=10", nil)
	req.Header.Set("User", "bob")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "oi", resp[0]["text"])
	messages.AssertExpectations(t)
}

func TestListMessagesMissingLimit(t *testing.T) {
	svc := presence.NewService(new(mocks.ParticipantRepositoryMock), new(mocks.MessageRepositoryMock))
	handler := NewMessageHandler(svc, nil)
	router := setupMessageRouter(handler)

	for _, target := range []string{"/messages", "/messages?limit=abc", "/messages?limit=0", "/messages?limit=-1"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("User", "bob")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "target %s", target)
	}
}

func TestDeleteMessageOwned(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	svc := presence.NewService(new(mocks.ParticipantRepositoryMock), messages)
	handler := NewMessageHandler(svc, nil)
	router := setupMessageRouter(handler)

	messages.On("Get", mock.Anything, 7).Return(models.Message{ID: 7, From: "ana"}, nil).Once()
	messages.On("Delete", mock.Anything, 7).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/7", nil)
	req.Header.Set("User", "ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	messages.AssertExpectations(t)
}

func TestDeleteMessageForbidden(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	svc := presence.NewService(new(mocks.ParticipantRepositoryMock), messages)
	handler := NewMessageHandler(svc, nil)
	router := setupMessageRouter(handler)

	messages.On("Get", mock.Anything, 7).Return(models.Message{ID: 7, From: "bob"}, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/7", nil)
	req.Header.Set("User", "ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteMessageNotFound(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	svc := presence.NewService(new(mocks.ParticipantRepositoryMock), messages)
	handler := NewMessageHandler(svc, nil)
	router := setupMessageRouter(handler)

	messages.On("Get", mock.Anything, 99).Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/99", nil)
	req.Header.Set("User", "ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteMessageInvalidID(t *testing.T) {
	svc := presence.NewService(new(mocks.ParticipantRepositoryMock), new(mocks.MessageRepositoryMock))
	handler := NewMessageHandler(svc, nil)
	router := setupMessageRouter(handler)

	req := httptest.NewRequest(http.MethodDelete, "/messages/abc", nil)
	req.Header.Set("User", "ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
