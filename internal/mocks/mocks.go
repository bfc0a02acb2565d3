package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"chat-relay/internal/models"
)

type ParticipantRepositoryMock struct {
	mock.Mock
}

func (m *ParticipantRepositoryMock) Add(ctx context.Context, name string, now time.Time) error {
	args := m.Called(ctx, name, now)
	return args.Error(0)
}

func (m *ParticipantRepositoryMock) Touch(ctx context.Context, name string, now time.Time) error {
	args := m.Called(ctx, name, now)
	return args.Error(0)
}

func (m *ParticipantRepositoryMock) List(ctx context.Context) ([]models.Participant, error) {
	args := m.Called(ctx)
	var list []models.Participant
	if val := args.Get(0); val != nil {
		list = val.([]models.Participant)
	}
	return list, args.Error(1)
}

func (m *ParticipantRepositoryMock) Exists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *ParticipantRepositoryMock) SweepExpired(ctx context.Context, cutoff time.Time) ([]models.Participant, error) {
	args := m.Called(ctx, cutoff)
	var removed []models.Participant
	if val := args.Get(0); val != nil {
		removed = val.([]models.Participant)
	}
	return removed, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, from, to, text, msgType string) (models.Message, error) {
	args := m.Called(ctx, from, to, text, msgType)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) CreateBatch(ctx context.Context, msgs []models.Message) ([]models.Message, error) {
	args := m.Called(ctx, msgs)
	var created []models.Message
	if val := args.Get(0); val != nil {
		created = val.([]models.Message)
	}
	return created, args.Error(1)
}

func (m *MessageRepositoryMock) VisibleTo(ctx context.Context, identity string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, identity, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) Get(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) Delete(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

// PublisherMock stands in for the event-bus publisher, covering both the
// presence emitter and the websocket feed event surfaces.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
