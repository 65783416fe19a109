package scheduling

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInterview(t *testing.T) Interview {
	t.Helper()
	return New(Draft{
		RecruiterID:   uuid.New(),
		CandidateID:   uuid.New(),
		JobID:         uuid.New(),
		JobTitle:      "Backend Engineer",
		ScheduledDate: at(10, 0),
	}, at(8, 0))
}

func TestNew_Defaults(t *testing.T) {
	iv := newTestInterview(t)

	assert.NotEqual(t, uuid.Nil, iv.ID)
	assert.Equal(t, StatusScheduled, iv.Status)
	assert.Equal(t, DefaultDurationMinutes, iv.Duration)
	assert.Equal(t, "UTC", iv.TimeZone)
	assert.Equal(t, FormatVideoCall, iv.Format)
	assert.Equal(t, TypeScreening, iv.InterviewType)
	assert.Equal(t, StageInitial, iv.InterviewStage)
	assert.Equal(t, "screening Interview - Backend Engineer", iv.Title)
	assert.True(t, iv.IsActive)
	assert.False(t, iv.RecruiterConfirmed)
	assert.False(t, iv.CandidateConfirmed)
	assert.NotNil(t, iv.RescheduleHistory)
	assert.Empty(t, iv.RescheduleHistory)
	assert.Equal(t, at(11, 0), iv.EndTime())
}

func TestNew_PrunesMeetingDetailsByFormat(t *testing.T) {
	loc := &Location{Address: "1 Main St"}
	vc := &VideoCall{MeetingURL: "https://meet.example.com/abc"}

	inPerson := New(Draft{Format: FormatInPerson, Location: loc, VideoCall: vc, ScheduledDate: at(10, 0)}, at(8, 0))
	assert.NotNil(t, inPerson.Location)
	assert.Nil(t, inPerson.VideoCall)

	video := New(Draft{Format: FormatVideoCall, Location: loc, VideoCall: vc, ScheduledDate: at(10, 0)}, at(8, 0))
	assert.Nil(t, video.Location)
	require.NotNil(t, video.VideoCall)
	assert.Equal(t, DefaultVideoPlatform, video.VideoCall.Platform)
	assert.Equal(t, "", vc.Platform, "draft must not be mutated")

	phone := New(Draft{Format: FormatPhone, Location: loc, VideoCall: vc, ScheduledDate: at(10, 0)}, at(8, 0))
	assert.Nil(t, phone.Location)
	assert.Nil(t, phone.VideoCall)
}

func TestNew_TitleAndInterviewers(t *testing.T) {
	panelist := uuid.New()
	iv := New(Draft{
		Title:         "Onsite loop",
		InterviewType: TypeTechnical,
		ScheduledDate: at(10, 0),
		Interviewers:  []Interviewer{{UserID: panelist, Role: "lead", Confirmed: true}},
	}, at(8, 0))

	assert.Equal(t, "Onsite loop", iv.Title)
	require.Len(t, iv.Interviewers, 1)
	assert.False(t, iv.Interviewers[0].Confirmed, "new panelists start unconfirmed")
	assert.True(t, iv.HasInterviewer(panelist))

	assert.Equal(t, "technical Interview", DefaultTitle(TypeTechnical, ""))
}

func TestConfirmAttendance(t *testing.T) {
	iv := newTestInterview(t)

	afterRecruiter := ConfirmAttendance(iv, iv.RecruiterID, RoleRecruiter, at(9, 0))
	assert.True(t, afterRecruiter.RecruiterConfirmed)
	assert.Equal(t, at(9, 0), afterRecruiter.UpdatedAt)
	assert.Equal(t, at(8, 0), iv.UpdatedAt)
	assert.Equal(t, StatusScheduled, afterRecruiter.Status)
	assert.False(t, iv.RecruiterConfirmed, "input record must not change")

	both := ConfirmAttendance(afterRecruiter, iv.CandidateID, RoleCandidate, at(9, 0))
	assert.True(t, both.IsConfirmed())
	assert.Equal(t, StatusConfirmed, both.Status)
}

func TestConfirmAttendance_WrongPartyIsNoop(t *testing.T) {
	iv := newTestInterview(t)

	out := ConfirmAttendance(iv, uuid.New(), RoleRecruiter, at(9, 0))
	assert.False(t, out.RecruiterConfirmed)
	assert.Equal(t, iv.UpdatedAt, out.UpdatedAt, "a rejected confirmation does not touch the record")

	// right id, wrong side
	out = ConfirmAttendance(iv, iv.CandidateID, RoleRecruiter, at(9, 0))
	assert.False(t, out.RecruiterConfirmed)
	assert.False(t, out.CandidateConfirmed)
}

func TestConfirmAttendance_PromotesRescheduled(t *testing.T) {
	iv := newTestInterview(t)
	moved, err := Reschedule(iv, at(14, 0), "conflict", iv.RecruiterID, at(9, 0))
	require.NoError(t, err)

	moved = ConfirmAttendance(moved, iv.RecruiterID, RoleRecruiter, at(9, 0))
	moved = ConfirmAttendance(moved, iv.CandidateID, RoleCandidate, at(9, 0))
	assert.Equal(t, StatusConfirmed, moved.Status)
}

func TestConfirmAttendance_InProgressKeepsStatus(t *testing.T) {
	iv := newTestInterview(t)
	iv.Status = StatusInProgress

	iv = ConfirmAttendance(iv, iv.RecruiterID, RoleRecruiter, at(9, 0))
	iv = ConfirmAttendance(iv, iv.CandidateID, RoleCandidate, at(9, 0))
	assert.Equal(t, StatusInProgress, iv.Status)
}

func TestReschedule(t *testing.T) {
	iv := newTestInterview(t)
	iv = ConfirmAttendance(iv, iv.RecruiterID, RoleRecruiter, at(9, 0))
	iv = ConfirmAttendance(iv, iv.CandidateID, RoleCandidate, at(9, 0))
	require.Equal(t, StatusConfirmed, iv.Status)

	now := at(9, 0)
	out, err := Reschedule(iv, at(14, 0), "late flight", iv.CandidateID, now)
	require.NoError(t, err)

	assert.Equal(t, iv.ID, out.ID)
	assert.Equal(t, StatusRescheduled, out.Status)
	assert.False(t, out.RecruiterConfirmed)
	assert.False(t, out.CandidateConfirmed)
	assert.Equal(t, at(14, 0), out.ScheduledDate)
	assert.Equal(t, now, out.UpdatedAt)

	require.Len(t, out.RescheduleHistory, 1)
	entry := out.RescheduleHistory[0]
	assert.Equal(t, at(10, 0), entry.OriginalDate)
	assert.Equal(t, at(14, 0), entry.NewDate)
	assert.Equal(t, "late flight", entry.Reason)
	assert.Equal(t, iv.CandidateID, entry.RequestedBy)
	assert.Empty(t, iv.RescheduleHistory, "input history must not change")

	again, err := Reschedule(out, at(16, 0), "", iv.RecruiterID, now)
	require.NoError(t, err)
	require.Len(t, again.RescheduleHistory, 2)
	assert.Equal(t, at(14, 0), again.RescheduleHistory[1].OriginalDate)
}

func TestReschedule_TerminalRejected(t *testing.T) {
	for _, st := range []Status{StatusCancelled, StatusCompleted} {
		iv := newTestInterview(t)
		iv.Status = st

		_, err := Reschedule(iv, at(14, 0), "", iv.RecruiterID, at(9, 0))
		var te *TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, st, te.From)
		assert.Equal(t, "reschedule", te.Action)
		assert.True(t, errors.Is(err, ErrInvalidTransition))
	}
}

func TestCancel(t *testing.T) {
	iv := newTestInterview(t)
	now := at(9, 0)

	out, err := Cancel(iv, "position filled", iv.RecruiterID, now)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, out.Status)
	require.NotNil(t, out.Cancellation)
	assert.Equal(t, "position filled", out.Cancellation.Reason)
	assert.Equal(t, iv.RecruiterID, out.Cancellation.CancelledBy)
	assert.Equal(t, now, out.Cancellation.CancelledAt)
	assert.False(t, out.Blocks())

	_, err = Cancel(out, "again", iv.CandidateID, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStartAndComplete(t *testing.T) {
	iv := newTestInterview(t)
	now := at(10, 0)

	_, err := Complete(iv, now)
	require.ErrorIs(t, err, ErrInvalidTransition, "scheduled cannot complete")

	started, err := Start(iv, now)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, started.Status)
	assert.True(t, started.Blocks())

	_, err = Start(started, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	done, err := Complete(started, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.True(t, done.Status.IsTerminal())

	_, err = Start(done, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDeactivate(t *testing.T) {
	iv := newTestInterview(t)
	out := Deactivate(iv, at(9, 0))

	assert.False(t, out.IsActive)
	assert.False(t, out.Blocks())
	assert.True(t, iv.IsActive)
}

func TestSubmitFeedback(t *testing.T) {
	iv := newTestInterview(t)
	now := at(12, 0)

	withRecruiter := SubmitRecruiterFeedback(iv, RecruiterFeedback{Rating: 4}, iv.RecruiterID, now)
	require.NotNil(t, withRecruiter.Feedback.Recruiter)
	assert.Equal(t, RecommendMaybe, withRecruiter.Feedback.Recruiter.Recommendation)
	assert.Equal(t, iv.RecruiterID, withRecruiter.Feedback.Recruiter.SubmittedBy)
	assert.Equal(t, now, withRecruiter.Feedback.Recruiter.SubmittedAt)
	assert.Equal(t, iv.Status, withRecruiter.Status)
	assert.Nil(t, iv.Feedback.Recruiter)

	withBoth := SubmitCandidateFeedback(withRecruiter, CandidateFeedback{Rating: 5}, now)
	require.NotNil(t, withBoth.Feedback.Candidate)
	assert.Equal(t, ExperienceGood, withBoth.Feedback.Candidate.Experience)
	assert.NotNil(t, withBoth.Feedback.Recruiter)
}

func TestClone_DoesNotAlias(t *testing.T) {
	iv := newTestInterview(t)
	iv.Interviewers = []Interviewer{{UserID: uuid.New()}}
	iv.Location = &Location{Address: "a"}

	c := iv.Clone()
	c.Interviewers[0].Confirmed = true
	c.Location.Address = "b"

	assert.False(t, iv.Interviewers[0].Confirmed)
	assert.Equal(t, "a", iv.Location.Address)
}
