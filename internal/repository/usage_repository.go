package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cycle-stand-reservation/internal/model"
)

// UsageRepo persists completed rides in the append-only usage_records
// table.  Rows are inserted once and never updated.
type UsageRepo struct{ DB *sql.DB }

func NewUsageRepo(db *sql.DB) *UsageRepo { return &UsageRepo{DB: db} }

// Insert appends one usage record.  A UUID is assigned when the record
// carries none.
func (r *UsageRepo) Insert(ctx context.Context, rec model.UsageRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO usage_records (id, user_id, cycle_id, started_at, ended_at) VALUES (?,?,?,?,?)",
		rec.ID, rec.UserID, rec.CycleID,
		rec.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		rec.EndedAt.UTC().Format("2006-01-02 15:04:05"))
	return err
}

// UsageDetail is one history entry as returned to riders, joined with
// the cycle's display name and stand.
type UsageDetail struct {
	ID              string `json:"id"`
	CycleID         string `json:"cycle_id"`
	CycleName       string `json:"cycle_name"`
	StandID         string `json:"stand_id"`
	StartedAt       string `json:"started_at"`
	EndedAt         string `json:"ended_at"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// ListByUser returns the user's ride history, newest first.
func (r *UsageRepo) ListByUser(ctx context.Context, userID uint64) ([]UsageDetail, error) {
	const q = `SELECT u.id, u.cycle_id, c.name, c.stand_id, u.started_at, u.ended_at
	           FROM usage_records u
	           JOIN cycles c ON c.id = u.cycle_id
	           WHERE u.user_id = ?
	           ORDER BY u.started_at DESC`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]UsageDetail, 0)
	for rows.Next() {
		var d UsageDetail
		var started, ended time.Time
		if err := rows.Scan(&d.ID, &d.CycleID, &d.CycleName, &d.StandID, &started, &ended); err != nil {
			return nil, err
		}
		d.StartedAt = started.UTC().Format(time.RFC3339)
		d.EndedAt = ended.UTC().Format(time.RFC3339)
		d.DurationSeconds = int64(ended.Sub(started) / time.Second)
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
