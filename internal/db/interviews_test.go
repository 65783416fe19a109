package db

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictFilter(t *testing.T) {
	party := uuid.New()
	start := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	t.Run("any role matches both columns", func(t *testing.T) {
		where, args, err := conflictFilter(scheduling.ConflictQuery{PartyID: party, Role: scheduling.AnyRole, Start: start, End: end})
		require.NoError(t, err)
		assert.Contains(t, where, "(recruiter_id = $2 OR candidate_id = $2)")
		assert.Contains(t, where, "scheduled_date < $3")
		assert.Contains(t, where, endExpr+" > $4")
		assert.NotContains(t, where, "id <>")
		require.Len(t, args, 4)
		assert.Equal(t, []string{"scheduled", "confirmed", "in-progress", "rescheduled"}, args[0])
		assert.Equal(t, end, args[2])
		assert.Equal(t, start, args[3])
	})

	t.Run("concrete role and exclusion", func(t *testing.T) {
		exclude := uuid.New()
		where, args, err := conflictFilter(scheduling.ConflictQuery{
			PartyID: party, Role: scheduling.RoleCandidate, Start: start, End: end, ExcludeID: &exclude,
		})
		require.NoError(t, err)
		assert.Contains(t, where, "candidate_id = $2")
		assert.NotContains(t, where, "recruiter_id")
		assert.True(t, strings.HasSuffix(where, "id <> $5"))
		assert.Equal(t, exclude, args[4])
	})

	t.Run("unknown role", func(t *testing.T) {
		_, _, err := conflictFilter(scheduling.ConflictQuery{PartyID: party, Role: "interviewer"})
		assert.Error(t, err)
	})
}

func TestListFilter(t *testing.T) {
	party := uuid.New()
	now := time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)

	where, args, err := listFilter(scheduling.ListQuery{PartyID: party, Role: scheduling.RoleRecruiter})
	require.NoError(t, err)
	assert.Equal(t, "is_active AND recruiter_id = $1", where)
	assert.Len(t, args, 1)

	where, args, err = listFilter(scheduling.ListQuery{PartyID: party, Role: scheduling.RoleCandidate, Status: scheduling.StatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, "is_active AND candidate_id = $1 AND status = ANY($2)", where)
	assert.Equal(t, []string{"cancelled"}, args[1])

	where, args, err = listFilter(scheduling.ListQuery{
		PartyID: party, Role: scheduling.RoleCandidate, Upcoming: true, Now: now, Horizon: now.AddDate(0, 0, 7),
		Status: scheduling.StatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, "is_active AND candidate_id = $1 AND status = ANY($2) AND scheduled_date >= $3 AND scheduled_date <= $4", where)
	assert.Equal(t, []string{"scheduled", "confirmed"}, args[1], "upcoming overrides the status filter")
	assert.Equal(t, now, args[2])

	_, _, err = listFilter(scheduling.ListQuery{PartyID: party})
	assert.Error(t, err)
}

func TestEncodeInterview(t *testing.T) {
	iv := scheduling.New(scheduling.Draft{
		RecruiterID:   uuid.New(),
		CandidateID:   uuid.New(),
		ScheduledDate: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		Format:        scheduling.FormatVideoCall,
		VideoCall:     &scheduling.VideoCall{MeetingURL: "https://meet.example.com/abc"},
	}, time.Now())
	iv.RescheduleHistory = nil

	doc, err := encodeInterview(&iv)
	require.NoError(t, err)
	assert.Nil(t, doc.location, "absent nested objects are stored as NULL")
	assert.Nil(t, doc.cancellation)
	assert.JSONEq(t, `[]`, string(doc.history))
	assert.JSONEq(t, `[]`, string(doc.interviewers))
	assert.JSONEq(t, `{}`, string(doc.feedback))

	var vc scheduling.VideoCall
	require.NoError(t, json.Unmarshal(doc.videoCall, &vc))
	assert.Equal(t, "zoom", vc.Platform)
}
