package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"chat-relay/internal/models"
)

var (
	ErrParticipantExists   = errors.New("participant already registered")
	ErrParticipantNotFound = errors.New("participant not found")
)

// ParticipantRepository abstracts the live-participant registry.
type ParticipantRepository interface {
	Add(ctx context.Context, name string, now time.Time) error
	Touch(ctx context.Context, name string, now time.Time) error
	List(ctx context.Context) ([]models.Participant, error)
	Exists(ctx context.Context, name string) (bool, error)
	SweepExpired(ctx context.Context, cutoff time.Time) ([]models.Participant, error)
}

// ParticipantRepo is a sqlx implementation of ParticipantRepository.
type ParticipantRepo struct {
	db *sqlx.DB
}

// NewParticipantRepo constructs a ParticipantRepo.
func NewParticipantRepo(db *sqlx.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// Add registers a participant. The insert and the uniqueness check are a
// single statement, so two concurrent joins for the same name cannot both
// succeed.
func (r *ParticipantRepo) Add(ctx context.Context, name string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO participants (name, last_heartbeat) VALUES ($1, $2)
        ON CONFLICT (name) DO NOTHING`, name, now)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrParticipantExists
	}
	return nil
}

// Touch refreshes the liveness timestamp of a registered participant.
func (r *ParticipantRepo) Touch(ctx context.Context, name string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE participants SET last_heartbeat=$2 WHERE name=$1`, name, now)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

// List returns all live participants in store order.
func (r *ParticipantRepo) List(ctx context.Context) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.SelectContext(ctx, &participants, `SELECT name, last_heartbeat FROM participants`)
	return participants, err
}

// Exists checks whether a participant is currently registered.
func (r *ParticipantRepo) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM participants WHERE name=$1)`, name)
	return exists, err
}

// SweepExpired removes every participant whose heartbeat is older than
// cutoff and returns the removed set. Selection and removal are one
// conditional delete, so a heartbeat that lands first keeps its row alive.
func (r *ParticipantRepo) SweepExpired(ctx context.Context, cutoff time.Time) ([]models.Participant, error) {
	rows, err := r.db.QueryxContext(ctx, `DELETE FROM participants WHERE last_heartbeat < $1
        RETURNING name, last_heartbeat`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var removed []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.StructScan(&p); err != nil {
			return nil, err
		}
		removed = append(removed, p)
	}
	return removed, rows.Err()
}
