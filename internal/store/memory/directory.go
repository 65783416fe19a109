package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/interview-scheduler/internal/interviews"
)

// Directory is an in-memory party and job directory.
type Directory struct {
	mu      sync.RWMutex
	parties map[uuid.UUID]interviews.Party
	jobs    map[uuid.UUID]interviews.Job
}

var (
	_ interviews.PartyDirectory = (*Directory)(nil)
	_ interviews.JobDirectory   = (*Directory)(nil)
)

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		parties: make(map[uuid.UUID]interviews.Party),
		jobs:    make(map[uuid.UUID]interviews.Job),
	}
}

// AddParty registers or replaces a party.
func (d *Directory) AddParty(p interviews.Party) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.parties[p.ID] = p
}

// AddJob registers or replaces a job.
func (d *Directory) AddJob(j interviews.Job) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs[j.ID] = j
}

// GetParty returns the party or (nil, nil) when unknown.
func (d *Directory) GetParty(_ context.Context, id uuid.UUID) (*interviews.Party, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.parties[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// GetJob returns the job or (nil, nil) when unknown.
func (d *Directory) GetJob(_ context.Context, id uuid.UUID) (*interviews.Job, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	j, ok := d.jobs[id]
	if !ok {
		return nil, nil
	}
	return &j, nil
}
