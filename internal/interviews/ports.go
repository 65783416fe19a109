package interviews

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
)

// Actor is the authenticated caller.
type Actor struct {
	ID   uuid.UUID
	Role scheduling.PartyRole
}

// Party is a user as the directory knows it.
type Party struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  scheduling.PartyRole
}

// Job is the posting an interview is for.
type Job struct {
	ID          uuid.UUID
	Title       string
	Company     string
	RecruiterID uuid.UUID
}

// Store persists interviews. Get returns (nil, nil) for a missing record.
type Store interface {
	Create(ctx context.Context, iv *scheduling.Interview) error
	Get(ctx context.Context, id uuid.UUID) (*scheduling.Interview, error)
	Update(ctx context.Context, iv *scheduling.Interview) error
	FindConflicts(ctx context.Context, q scheduling.ConflictQuery) ([]scheduling.Interview, error)
	List(ctx context.Context, q scheduling.ListQuery) ([]scheduling.Interview, int, error)
	Stats(ctx context.Context, q scheduling.StatsQuery) (*scheduling.Stats, error)
}

// PartyDirectory looks up users. GetParty returns (nil, nil) when unknown.
type PartyDirectory interface {
	GetParty(ctx context.Context, id uuid.UUID) (*Party, error)
}

// JobDirectory looks up job postings. GetJob returns (nil, nil) when unknown.
type JobDirectory interface {
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
}
