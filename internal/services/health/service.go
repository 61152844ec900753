package health

import (
	"context"
	"database/sql"
	"time"
)

// Service reports process and dependency health.
type Service struct {
	DB *sql.DB
}

// NewService constructs a health service. DB may be nil when the process
// runs on in-memory repositories.
func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// Status returns the health payload. The process is considered healthy even
// when the database check fails; the payload reports the dependency state so
// probes can distinguish the two.
func (s *Service) Status(ctx context.Context) map[string]any {
	payload := map[string]any{"ok": true}
	if s.DB == nil {
		payload["database"] = "memory"
		return payload
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		payload["database"] = "unavailable"
		return payload
	}
	payload["database"] = "ok"
	return payload
}
