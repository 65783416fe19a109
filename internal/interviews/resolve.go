package interviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
	"github.com/jonathan/interview-scheduler/internal/types"
	"golang.org/x/sync/errgroup"
)

// resolveConcurrency bounds directory lookups per response.
const resolveConcurrency = 8

// Resolve looks up the recruiters, candidates, interviewers and jobs that ivs
// reference. Each id is fetched once; ids unknown to the directories are
// left out of the result.
func (s *Service) Resolve(ctx context.Context, ivs []scheduling.Interview) (*types.Included, error) {
	userIDs := uniqueIDs(ivs, func(iv scheduling.Interview) []uuid.UUID {
		ids := []uuid.UUID{iv.RecruiterID, iv.CandidateID}
		for _, in := range iv.Interviewers {
			ids = append(ids, in.UserID)
		}
		return ids
	})
	jobIDs := uniqueIDs(ivs, func(iv scheduling.Interview) []uuid.UUID {
		return []uuid.UUID{iv.JobID}
	})

	users := make([]*Party, len(userIDs))
	jobs := make([]*Job, len(jobIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, id := range userIDs {
		g.Go(func() error {
			p, err := s.parties.GetParty(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to look up user %s: %w", id, err)
			}
			users[i] = p
			return nil
		})
	}
	for i, id := range jobIDs {
		g.Go(func() error {
			j, err := s.jobs.GetJob(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to look up job %s: %w", id, err)
			}
			jobs[i] = j
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &types.Included{
		Users: make(map[uuid.UUID]types.PartySummary, len(users)),
		Jobs:  make(map[uuid.UUID]types.JobSummary, len(jobs)),
	}
	for _, p := range users {
		if p != nil {
			out.Users[p.ID] = types.PartySummary{ID: p.ID, Name: p.Name, Email: p.Email, Role: p.Role}
		}
	}
	for _, j := range jobs {
		if j != nil {
			out.Jobs[j.ID] = types.JobSummary{ID: j.ID, Title: j.Title, Company: j.Company}
		}
	}
	return out, nil
}

func uniqueIDs(ivs []scheduling.Interview, refs func(scheduling.Interview) []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, iv := range ivs {
		for _, id := range refs(iv) {
			if id == uuid.Nil {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
