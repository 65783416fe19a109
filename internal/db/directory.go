package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/interview-scheduler/internal/interviews"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
)

var (
	_ interviews.PartyDirectory = (*DB)(nil)
	_ interviews.JobDirectory   = (*DB)(nil)
)

// CreateUser inserts a user and returns its ID
func (db *DB) CreateUser(ctx context.Context, name, email string, role scheduling.PartyRole) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, role) VALUES ($1, $2, $3) RETURNING id`,
		name, email, string(role),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// GetParty returns the user or (nil, nil) when unknown.
func (db *DB) GetParty(ctx context.Context, id uuid.UUID) (*interviews.Party, error) {
	var p interviews.Party
	var role string
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, email, role FROM users WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Email, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	p.Role = scheduling.PartyRole(role)
	return &p, nil
}

// CreateJob inserts a job posting owned by recruiterID.
func (db *DB) CreateJob(ctx context.Context, title, company string, recruiterID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO jobs (title, company, recruiter_id) VALUES ($1, $2, $3) RETURNING id`,
		title, company, recruiterID,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create job: %w", err)
	}
	return id, nil
}

// GetJob returns the job or (nil, nil) when unknown.
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*interviews.Job, error) {
	var j interviews.Job
	err := db.pool.QueryRow(ctx,
		`SELECT id, title, company, recruiter_id FROM jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.Title, &j.Company, &j.RecruiterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &j, nil
}
