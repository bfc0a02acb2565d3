package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"chat-relay/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions with the relay message log.
type MessageRepository interface {
	Create(ctx context.Context, from, to, text, msgType string) (models.Message, error)
	CreateBatch(ctx context.Context, msgs []models.Message) ([]models.Message, error)
	VisibleTo(ctx context.Context, identity string, limit int) ([]models.Message, error)
	Get(ctx context.Context, messageID int) (models.Message, error)
	Delete(ctx context.Context, messageID int) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create appends a message to the log, assigning id and timestamp.
func (r *MessageRepo) Create(ctx context.Context, from, to, text, msgType string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (from_name, to_name, text, type) VALUES ($1, $2, $3, $4)
        RETURNING id, from_name, to_name, text, type, created_at`, from, to, text, msgType).
		Scan(&msg.ID, &msg.From, &msg.To, &msg.Text, &msg.Type, &msg.Time)
	return msg, err
}

// CreateBatch appends several messages in a single transaction. The batch is
// all-or-nothing per attempt; a retried batch may append duplicates.
func (r *MessageRepo) CreateBatch(ctx context.Context, msgs []models.Message) ([]models.Message, error) {
	if len(msgs) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	created := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		var out models.Message
		err := tx.QueryRowxContext(ctx, `INSERT INTO messages (from_name, to_name, text, type) VALUES ($1, $2, $3, $4)
            RETURNING id, from_name, to_name, text, type, created_at`, m.From, m.To, m.Text, m.Type).
			Scan(&out.ID, &out.From, &out.To, &out.Text, &out.Type, &out.Time)
		if err != nil {
			return nil, err
		}
		created = append(created, out)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

// VisibleTo returns the newest messages the identity may read: messages it
// sent, messages addressed to it or to everyone, and public messages.
func (r *MessageRepo) VisibleTo(ctx context.Context, identity string, limit int) ([]models.Message, error) {
	query := `SELECT id, from_name, to_name, text, type, created_at
        FROM messages
        WHERE from_name=$1 OR to_name IN ($1, $2) OR type=$3
        ORDER BY created_at DESC, id DESC
        LIMIT $4`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, identity, models.Broadcast, models.TypePublic, limit)
	return msgs, err
}

// Get retrieves a single message.
func (r *MessageRepo) Get(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT id, from_name, to_name, text, type, created_at FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// Delete removes a message by id.
func (r *MessageRepo) Delete(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
