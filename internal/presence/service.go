package presence

import (
	"context"
	"errors"
	"strings"
	"time"

	"chat-relay/internal/models"
	"chat-relay/internal/repositories"
)

// Status texts recorded when a participant enters or is evicted.
const (
	joinedText = "entra na sala..."
	leftText   = "sai da sala..."
)

const minNameLength = 3

var (
	ErrInvalidName         = errors.New("name must have at least 3 characters")
	ErrNameTaken           = errors.New("name already in use")
	ErrSenderNotRegistered = errors.New("sender is not a registered participant")
	ErrUnknownParticipant  = errors.New("participant not registered")
	ErrInvalidMessage      = errors.New("invalid message payload")
	ErrInvalidLimit        = errors.New("limit must be a positive number")
	ErrNotOwner            = errors.New("message belongs to another participant")
)

// Service is the operation surface composing the participant registry and
// the message log. It owns cross-entity invariants; HTTP concepts never
// appear here.
type Service struct {
	participants repositories.ParticipantRepository
	messages     repositories.MessageRepository
	now          func() time.Time
}

// NewService builds a Service.
func NewService(participants repositories.ParticipantRepository, messages repositories.MessageRepository) *Service {
	return &Service{
		participants: participants,
		messages:     messages,
		now:          time.Now,
	}
}

// Join registers a new participant and records a public status notice. It
// returns the canonical name under which the participant was registered.
func (s *Service) Join(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) < minNameLength {
		return "", ErrInvalidName
	}

	if err := s.participants.Add(ctx, name, s.now()); err != nil {
		if errors.Is(err, repositories.ErrParticipantExists) {
			return "", ErrNameTaken
		}
		return "", err
	}

	if _, err := s.messages.Create(ctx, name, models.Broadcast, joinedText, models.TypeStatus); err != nil {
		return "", err
	}
	return name, nil
}

// Heartbeat refreshes the liveness timestamp of a registered participant.
func (s *Service) Heartbeat(ctx context.Context, name string) error {
	err := s.participants.Touch(ctx, name, s.now())
	if errors.Is(err, repositories.ErrParticipantNotFound) {
		return ErrUnknownParticipant
	}
	return err
}

// Participants lists everyone currently registered.
func (s *Service) Participants(ctx context.Context) ([]models.Participant, error) {
	return s.participants.List(ctx)
}

// PostMessage validates and appends a message. The sender must be a
// currently registered participant.
func (s *Service) PostMessage(ctx context.Context, from, to, text, msgType string) (models.Message, error) {
	if from == "" || strings.TrimSpace(to) == "" || strings.TrimSpace(text) == "" || !models.ValidType(msgType) {
		return models.Message{}, ErrInvalidMessage
	}

	active, err := s.participants.Exists(ctx, from)
	if err != nil {
		return models.Message{}, err
	}
	if !active {
		return models.Message{}, ErrSenderNotRegistered
	}

	return s.messages.Create(ctx, from, to, text, msgType)
}

// Inbox returns the newest messages visible to the identity, bounded by
// limit. A missing or non-positive limit is rejected rather than treated
// as "all rows".
func (s *Service) Inbox(ctx context.Context, identity string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	return s.messages.VisibleTo(ctx, identity, limit)
}

// DeleteMessage removes a message when the requester is its sender.
func (s *Service) DeleteMessage(ctx context.Context, messageID int, requester string) error {
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.From != requester {
		return ErrNotOwner
	}
	return s.messages.Delete(ctx, messageID)
}

// SweepOnce evicts every participant whose heartbeat is older than the
// expiry window and appends one departure notice per eviction. It returns
// the removed participants so callers can fan the evictions out.
func (s *Service) SweepOnce(ctx context.Context, window time.Duration) ([]models.Participant, error) {
	removed, err := s.participants.SweepExpired(ctx, s.now().Add(-window))
	if err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		return nil, nil
	}

	notices := make([]models.Message, 0, len(removed))
	for _, p := range removed {
		notices = append(notices, models.Message{
			From: p.Name,
			To:   models.Broadcast,
			Text: leftText,
			Type: models.TypeStatus,
		})
	}

	if _, err := s.messages.CreateBatch(ctx, notices); err != nil {
		// Participants are already gone; the departure notices are lost.
		return removed, err
	}
	return removed, nil
}
