package memory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/interview-scheduler/internal/interviews"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInterview(recruiter, candidate uuid.UUID, start time.Time) scheduling.Interview {
	return scheduling.New(scheduling.Draft{
		RecruiterID:   recruiter,
		CandidateID:   candidate,
		ScheduledDate: start,
		Duration:      60,
	}, start.Add(-24*time.Hour))
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	iv := newInterview(uuid.New(), uuid.New(), time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC))

	require.NoError(t, s.Create(ctx, &iv))
	assert.Error(t, s.Create(ctx, &iv), "duplicate ids are rejected")

	got, err := s.Get(ctx, iv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, iv.ID, got.ID)

	// mutating the returned copy does not touch the stored record
	got.Interviewers = append(got.Interviewers, scheduling.Interviewer{UserID: uuid.New()})
	again, err := s.Get(ctx, iv.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Interviewers)

	got.Title = "renamed"
	require.NoError(t, s.Update(ctx, got))
	again, err = s.Get(ctx, iv.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", again.Title)

	missing, err := s.Get(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	ghost := newInterview(uuid.New(), uuid.New(), time.Now())
	assert.Error(t, s.Update(ctx, &ghost))
}

func TestStore_FindConflictsSortedByStart(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	party := uuid.New()
	late := newInterview(party, uuid.New(), time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC))
	early := newInterview(uuid.New(), party, time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC))
	require.NoError(t, s.Create(ctx, &late))
	require.NoError(t, s.Create(ctx, &early))

	found, err := s.FindConflicts(ctx, scheduling.ConflictQuery{
		PartyID: party,
		Role:    scheduling.AnyRole,
		Start:   time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, early.ID, found[0].ID)
	assert.Equal(t, late.ID, found[1].ID)
}

func TestStore_ListPaging(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	recruiter := uuid.New()
	for i := 0; i < 5; i++ {
		iv := newInterview(recruiter, uuid.New(), time.Date(2024, 6, 3+i, 10, 0, 0, 0, time.UTC))
		require.NoError(t, s.Create(ctx, &iv))
	}

	q := scheduling.ListQuery{PartyID: recruiter, Role: scheduling.RoleRecruiter, Page: 2, Limit: 2}
	page, total, err := s.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, 5, page[0].ScheduledDate.Day())

	q.Page = 4
	page, total, err = s.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, page)

	q = scheduling.ListQuery{PartyID: recruiter, Role: scheduling.RoleRecruiter, Page: math.MaxInt/10 + 1, Limit: 10}
	assert.NotPanics(t, func() {
		page, total, err = s.List(ctx, q)
	})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, page)
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory()
	p := interviews.Party{ID: uuid.New(), Name: "Cal", Role: scheduling.RoleCandidate}
	j := interviews.Job{ID: uuid.New(), Title: "SRE", RecruiterID: uuid.New()}
	d.AddParty(p)
	d.AddJob(j)

	gotP, err := d.GetParty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, &p, gotP)

	gotJ, err := d.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, &j, gotJ)

	none, err := d.GetParty(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, none)
}
