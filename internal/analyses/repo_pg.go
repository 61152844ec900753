package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

const analysisColumns = `id, session_id, response_id, analysis_type, provider, model, prompt_text,
       themes, personality_traits, emotional_patterns, recommendations, confidence,
       raw_analysis, degraded, created_at`

// Create inserts a new analysis row.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	const query = `
INSERT INTO analyses (
	id, session_id, response_id, analysis_type, provider, model, prompt_text,
	themes, personality_traits, emotional_patterns, recommendations, confidence,
	raw_analysis, degraded, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	themes, err := marshalList(analysis.Themes)
	if err != nil {
		return err
	}
	traits, err := marshalList(analysis.PersonalityTraits)
	if err != nil {
		return err
	}
	patterns, err := marshalList(analysis.EmotionalPatterns)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		analysis.ID,
		analysis.SessionID,
		analysis.ResponseID,
		analysis.Type,
		analysis.Provider,
		analysis.Model,
		analysis.PromptText,
		themes,
		traits,
		patterns,
		analysis.Recommendations,
		analysis.Confidence,
		analysis.RawAnalysis,
		analysis.Degraded,
		analysis.CreatedAt,
	)
	return err
}

// GetByID returns an analysis by ID.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE id = $1 LIMIT 1`
	analysis, err := scanAnalysis(r.DB.QueryRowContext(ctx, query, analysisID))
	if errors.Is(err, sql.ErrNoRows) {
		return Analysis{}, ErrNotFound
	}
	return analysis, err
}

// ListBySession returns all analyses for a session, newest first.
func (r *PGRepo) ListBySession(ctx context.Context, sessionID string) ([]Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE session_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, analysis)
	}
	return out, rows.Err()
}

// Count returns the total number of analyses.
func (r *PGRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var a Analysis
	var responseID sql.NullString
	var themes, traits, patterns []byte
	var recommendations sql.NullString
	if err := row.Scan(
		&a.ID,
		&a.SessionID,
		&responseID,
		&a.Type,
		&a.Provider,
		&a.Model,
		&a.PromptText,
		&themes,
		&traits,
		&patterns,
		&recommendations,
		&a.Confidence,
		&a.RawAnalysis,
		&a.Degraded,
		&a.CreatedAt,
	); err != nil {
		return Analysis{}, err
	}
	if responseID.Valid {
		a.ResponseID = &responseID.String
	}
	a.Recommendations = recommendations.String
	var err error
	if a.Themes, err = unmarshalList(themes); err != nil {
		return Analysis{}, err
	}
	if a.PersonalityTraits, err = unmarshalList(traits); err != nil {
		return Analysis{}, err
	}
	if a.EmotionalPatterns, err = unmarshalList(patterns); err != nil {
		return Analysis{}, err
	}
	return a, nil
}

func marshalList(values []string) ([]byte, error) {
	if values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(values)
}

func unmarshalList(payload []byte) ([]string, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
