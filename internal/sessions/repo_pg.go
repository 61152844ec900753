package sessions

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres. Per-session serialization is done
// with SELECT ... FOR UPDATE on the session row.
type PGRepo struct {
	DB *sql.DB
}

const sessionColumns = `
id, session_code, participant_id, status, start_time, end_time, total_duration,
current_image_index, total_image_count, last_activity_at, created_at, updated_at`

// Create inserts a new session.
func (r *PGRepo) Create(ctx context.Context, session Session) error {
	const query = `
INSERT INTO experiment_sessions (
	id, session_code, participant_id, status, start_time, end_time, total_duration,
	current_image_index, total_image_count, last_activity_at, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`
	_, err := r.DB.ExecContext(ctx, query,
		session.ID,
		session.SessionCode,
		session.ParticipantID,
		session.Status,
		session.StartTime,
		session.EndTime,
		session.TotalDuration,
		session.CurrentImageIndex,
		session.TotalImageCount,
		session.LastActivityAt,
		session.CreatedAt,
	)
	return err
}

// GetByID returns a session by surrogate id.
func (r *PGRepo) GetByID(ctx context.Context, sessionID string) (Session, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM experiment_sessions WHERE id = $1 LIMIT 1`, sessionID)
	return scanSession(row)
}

// GetByCode returns a session by its public code.
func (r *PGRepo) GetByCode(ctx context.Context, sessionCode string) (Session, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM experiment_sessions WHERE session_code = $1 LIMIT 1`, sessionCode)
	return scanSession(row)
}

// LatestActiveByParticipant returns the most recent non-terminal session for
// a participant. This is the resume path after a client disconnect.
func (r *PGRepo) LatestActiveByParticipant(ctx context.Context, participantID string) (Session, error) {
	const query = `
SELECT ` + sessionColumns + `
FROM experiment_sessions
WHERE participant_id = $1 AND status IN ('created', 'in_progress')
ORDER BY created_at DESC
LIMIT 1`
	session, err := scanSession(r.DB.QueryRowContext(ctx, query, participantID))
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrNoActiveSession
	}
	return session, err
}

// Transition applies mutate to a row-locked snapshot of the session and
// persists the result in the same transaction.
func (r *PGRepo) Transition(ctx context.Context, sessionID string, mutate func(*Session) error) (Session, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback()

	session, err := lockSession(ctx, tx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if err := mutate(&session); err != nil {
		return Session{}, err
	}
	if err := updateSession(ctx, tx, session); err != nil {
		return Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return Session{}, err
	}
	return session, nil
}

// AppendResponse runs build against a row-locked snapshot, inserts the
// returned response, and persists the advanced session atomically. The
// unique (session_id, image_index) index backstops duplicate submissions.
func (r *PGRepo) AppendResponse(ctx context.Context, sessionID string, build func(*Session) (Response, error)) (Session, Response, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, Response{}, err
	}
	defer tx.Rollback()

	session, err := lockSession(ctx, tx, sessionID)
	if err != nil {
		return Session{}, Response{}, err
	}
	response, err := build(&session)
	if err != nil {
		return Session{}, Response{}, err
	}
	if response.ID == "" {
		response.ID = uuid.NewString()
	}

	const insert = `
INSERT INTO tat_responses (id, session_id, image_index, image_file, story_text, word_count, response_time, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := tx.ExecContext(ctx, insert,
		response.ID,
		response.SessionID,
		response.ImageIndex,
		response.ImageFile,
		response.StoryText,
		response.WordCount,
		response.ResponseTime,
		response.CreatedAt,
	); err != nil {
		return Session{}, Response{}, err
	}
	if err := updateSession(ctx, tx, session); err != nil {
		return Session{}, Response{}, err
	}
	if err := tx.Commit(); err != nil {
		return Session{}, Response{}, err
	}
	return session, response, nil
}

// ListResponses returns a session's responses in image-index order.
func (r *PGRepo) ListResponses(ctx context.Context, sessionID string) ([]Response, error) {
	const query = `
SELECT id, session_id, image_index, image_file, story_text, word_count, response_time, created_at
FROM tat_responses
WHERE session_id = $1
ORDER BY image_index ASC`
	rows, err := r.DB.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Response
	for rows.Next() {
		response, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, response)
	}
	return out, rows.Err()
}

// GetResponse returns one response scoped to a session.
func (r *PGRepo) GetResponse(ctx context.Context, sessionID, responseID string) (Response, error) {
	const query = `
SELECT id, session_id, image_index, image_file, story_text, word_count, response_time, created_at
FROM tat_responses
WHERE session_id = $1 AND id = $2
LIMIT 1`
	response, err := scanResponse(r.DB.QueryRowContext(ctx, query, sessionID, responseID))
	if errors.Is(err, sql.ErrNoRows) {
		return Response{}, ErrNotFound
	}
	return response, err
}

// SweepAbandoned marks sessions with no activity since cutoff as abandoned.
// The conditional UPDATE makes the sweep idempotent and safe to run
// concurrently with a participant resuming.
func (r *PGRepo) SweepAbandoned(ctx context.Context, cutoff, now time.Time) (int, error) {
	const query = `
UPDATE experiment_sessions
SET status = 'abandoned',
    end_time = $1,
    total_duration = CASE WHEN start_time IS NOT NULL
        THEN CAST(EXTRACT(EPOCH FROM ($1::timestamptz - start_time)) AS INT)
        ELSE total_duration END,
    updated_at = $1
WHERE status IN ('created', 'in_progress') AND last_activity_at < $2`
	result, err := r.DB.ExecContext(ctx, query, now, cutoff)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

// CountByStatus returns session counts grouped by status.
func (r *PGRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM experiment_sessions GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// CountResponses returns the total number of stored responses.
func (r *PGRepo) CountResponses(ctx context.Context) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM tat_responses`).Scan(&count)
	return count, err
}

func lockSession(ctx context.Context, tx *sql.Tx, sessionID string) (Session, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM experiment_sessions WHERE id = $1 FOR UPDATE`, sessionID)
	return scanSession(row)
}

func updateSession(ctx context.Context, tx *sql.Tx, session Session) error {
	const query = `
UPDATE experiment_sessions
SET status = $2, start_time = $3, end_time = $4, total_duration = $5,
    current_image_index = $6, last_activity_at = $7, updated_at = $8
WHERE id = $1`
	_, err := tx.ExecContext(ctx, query,
		session.ID,
		session.Status,
		session.StartTime,
		session.EndTime,
		session.TotalDuration,
		session.CurrentImageIndex,
		session.LastActivityAt,
		session.UpdatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	var startTime, endTime sql.NullTime
	var totalDuration sql.NullInt64
	err := row.Scan(
		&s.ID,
		&s.SessionCode,
		&s.ParticipantID,
		&s.Status,
		&startTime,
		&endTime,
		&totalDuration,
		&s.CurrentImageIndex,
		&s.TotalImageCount,
		&s.LastActivityAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	if startTime.Valid {
		t := startTime.Time
		s.StartTime = &t
	}
	if endTime.Valid {
		t := endTime.Time
		s.EndTime = &t
	}
	if totalDuration.Valid {
		d := int(totalDuration.Int64)
		s.TotalDuration = &d
	}
	return s, nil
}

func scanResponse(row rowScanner) (Response, error) {
	var resp Response
	var responseTime sql.NullFloat64
	err := row.Scan(
		&resp.ID,
		&resp.SessionID,
		&resp.ImageIndex,
		&resp.ImageFile,
		&resp.StoryText,
		&resp.WordCount,
		&responseTime,
		&resp.CreatedAt,
	)
	if err != nil {
		return Response{}, err
	}
	resp.ResponseTime = responseTime.Float64
	return resp, nil
}
