package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/cycle-stand-reservation/internal/model"
)

// StandRepo reads the provisioned stand and cycle inventory.  The tables
// are written at provisioning time only; at startup the server loads
// them once and seeds the in-memory engine store, which owns all live
// state from then on.
type StandRepo struct{ DB *sql.DB }

func NewStandRepo(db *sql.DB) *StandRepo { return &StandRepo{DB: db} }

// LoadInventory returns every stand and every cycle, ordered by ID so
// seeding is deterministic.
func (r *StandRepo) LoadInventory(ctx context.Context) ([]model.Stand, []model.Cycle, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, name, created_at FROM stands ORDER BY id")
	if err != nil {
		return nil, nil, err
	}
	var stands []model.Stand
	for rows.Next() {
		var s model.Stand
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			rows.Close()
			return nil, nil, err
		}
		stands = append(stands, s)
	}
	if err := rows.Close(); err != nil {
		return nil, nil, err
	}

	rows, err = r.DB.QueryContext(ctx, "SELECT id, stand_id, name, created_at FROM cycles ORDER BY id")
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var cycles []model.Cycle
	for rows.Next() {
		var c model.Cycle
		if err := rows.Scan(&c.ID, &c.StandID, &c.Name, &c.CreatedAt); err != nil {
			return nil, nil, err
		}
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return stands, cycles, nil
}
