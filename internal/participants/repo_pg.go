package participants

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new participant.
func (r *PGRepo) Create(ctx context.Context, participant Participant) error {
	const query = `
INSERT INTO participants (
	id, participant_code, age, gender, education_level, occupation, contact_info, consent_given, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		participant.ID,
		participant.ParticipantCode,
		participant.Age,
		nullIfEmpty(participant.Gender),
		nullIfEmpty(participant.EducationLevel),
		nullIfEmpty(participant.Occupation),
		nullIfEmpty(participant.ContactInfo),
		participant.ConsentGiven,
		participant.CreatedAt,
	)
	return err
}

// GetByID returns a participant by surrogate id.
func (r *PGRepo) GetByID(ctx context.Context, participantID string) (Participant, error) {
	return r.getOne(ctx, `WHERE id = $1`, participantID)
}

// GetByCode returns a participant by their public code.
func (r *PGRepo) GetByCode(ctx context.Context, participantCode string) (Participant, error) {
	return r.getOne(ctx, `WHERE participant_code = $1`, participantCode)
}

// Count returns the number of registered participants.
func (r *PGRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&count)
	return count, err
}

func (r *PGRepo) getOne(ctx context.Context, where string, arg any) (Participant, error) {
	query := `
SELECT id, participant_code, age, gender, education_level, occupation, contact_info, consent_given, created_at, updated_at
FROM participants ` + where + ` LIMIT 1`

	var p Participant
	var age sql.NullInt64
	var gender, education, occupation, contact sql.NullString
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&p.ID,
		&p.ParticipantCode,
		&age,
		&gender,
		&education,
		&occupation,
		&contact,
		&p.ConsentGiven,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Participant{}, ErrNotFound
	}
	if err != nil {
		return Participant{}, err
	}
	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	p.Gender = gender.String
	p.EducationLevel = education.String
	p.Occupation = occupation.String
	p.ContactInfo = contact.String
	return p, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
