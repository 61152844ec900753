package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func sessionRows(s Session) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "session_code", "participant_id", "status", "start_time", "end_time",
		"total_duration", "current_image_index", "total_image_count",
		"last_activity_at", "created_at", "updated_at",
	}).AddRow(
		s.ID, s.SessionCode, s.ParticipantID, s.Status, timeOrNil(s.StartTime), timeOrNil(s.EndTime),
		intOrNil(s.TotalDuration), s.CurrentImageIndex, s.TotalImageCount,
		s.LastActivityAt, s.CreatedAt, s.UpdatedAt,
	)
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func intOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func TestPGRepoGetByCodeNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT (.+) FROM experiment_sessions WHERE session_code =").
		WithArgs("SESSION_MISSING").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByCode(context.Background(), "SESSION_MISSING"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoTransitionLocksRowAndCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	stored := Session{
		ID: "sess-1", SessionCode: "SESSION_AAAABBBBCCCC", ParticipantID: "part-1",
		Status: StatusCreated, TotalImageCount: 10,
		LastActivityAt: now, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM experiment_sessions WHERE id = (.+) FOR UPDATE").
		WithArgs("sess-1").
		WillReturnRows(sessionRows(stored))
	mock.ExpectExec("UPDATE experiment_sessions").
		WithArgs("sess-1", StatusInProgress, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	updated, err := repo.Transition(context.Background(), "sess-1", func(current *Session) error {
		return current.Start(time.Now().UTC())
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.Status != StatusInProgress {
		t.Fatalf("status = %q", updated.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoTransitionRollsBackOnCallbackError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	stored := Session{
		ID: "sess-1", SessionCode: "SESSION_AAAABBBBCCCC", ParticipantID: "part-1",
		Status: StatusCompleted, TotalImageCount: 10,
		LastActivityAt: now, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM experiment_sessions WHERE id = (.+) FOR UPDATE").
		WithArgs("sess-1").
		WillReturnRows(sessionRows(stored))
	mock.ExpectRollback()

	repo := &PGRepo{DB: db}
	_, err = repo.Transition(context.Background(), "sess-1", func(current *Session) error {
		return current.Start(time.Now().UTC())
	})
	var invalid *InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoAppendResponseInsertsAndUpdatesAtomically(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	start := time.Now().UTC().Add(-time.Minute)
	now := time.Now().UTC()
	stored := Session{
		ID: "sess-1", SessionCode: "SESSION_AAAABBBBCCCC", ParticipantID: "part-1",
		Status: StatusInProgress, StartTime: &start, TotalImageCount: 2,
		LastActivityAt: now, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM experiment_sessions WHERE id = (.+) FOR UPDATE").
		WithArgs("sess-1").
		WillReturnRows(sessionRows(stored))
	mock.ExpectExec("INSERT INTO tat_responses").
		WithArgs(sqlmock.AnyArg(), "sess-1", 0, "tat_01.jpg", sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE experiment_sessions").
		WithArgs("sess-1", StatusInProgress, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	session, response, err := repo.AppendResponse(context.Background(), "sess-1", func(current *Session) (Response, error) {
		return current.ApplyResponse(SubmitInput{
			ImageIndex: 0,
			ImageFile:  "tat_01.jpg",
			StoryText:  "a story long enough to pass validation",
		}, 20, time.Now().UTC())
	})
	if err != nil {
		t.Fatalf("AppendResponse: %v", err)
	}
	if response.ID == "" {
		t.Fatalf("response must be assigned an ID")
	}
	if session.CurrentImageIndex != 1 {
		t.Fatalf("session index = %d", session.CurrentImageIndex)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSweepAbandonedReturnsAffected(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("UPDATE experiment_sessions").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	swept, err := repo.SweepAbandoned(context.Background(), now.Add(-time.Hour), now)
	if err != nil {
		t.Fatalf("SweepAbandoned: %v", err)
	}
	if swept != 3 {
		t.Fatalf("swept = %d, want 3", swept)
	}
}

func TestPGRepoLatestActiveMapsNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT (.+) FROM experiment_sessions").
		WithArgs("part-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &PGRepo{DB: db}
	if _, err := repo.LatestActiveByParticipant(context.Background(), "part-1"); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}
