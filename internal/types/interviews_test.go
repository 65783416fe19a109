//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScheduleRequest() ScheduleInterviewRequest {
	return ScheduleInterviewRequest{
		CandidateID:   uuid.NewString(),
		JobID:         uuid.NewString(),
		ScheduledDate: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestScheduleInterviewRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *ScheduleInterviewRequest)
		wantErr bool
		errMsg  string
	}{
		{name: "valid minimal request", mutate: func(_ *ScheduleInterviewRequest) {}},
		{
			name:    "missing candidate",
			mutate:  func(r *ScheduleInterviewRequest) { r.CandidateID = "" },
			wantErr: true,
			errMsg:  "required",
		},
		{
			name:    "malformed job id",
			mutate:  func(r *ScheduleInterviewRequest) { r.JobID = "job-1" },
			wantErr: true,
			errMsg:  "uuid",
		},
		{
			name:    "missing date",
			mutate:  func(r *ScheduleInterviewRequest) { r.ScheduledDate = time.Time{} },
			wantErr: true,
			errMsg:  "required",
		},
		{
			name:    "duration too short",
			mutate:  func(r *ScheduleInterviewRequest) { r.Duration = 10 },
			wantErr: true,
			errMsg:  "min",
		},
		{
			name:    "duration too long",
			mutate:  func(r *ScheduleInterviewRequest) { r.Duration = 241 },
			wantErr: true,
			errMsg:  "max",
		},
		{
			name:    "unknown format",
			mutate:  func(r *ScheduleInterviewRequest) { r.Format = "carrier-pigeon" },
			wantErr: true,
			errMsg:  "oneof",
		},
		{
			name: "video call with bad platform",
			mutate: func(r *ScheduleInterviewRequest) {
				r.VideoCall = &VideoCallInput{Platform: "myspace"}
			},
			wantErr: true,
			errMsg:  "oneof",
		},
		{
			name: "interviewer without id",
			mutate: func(r *ScheduleInterviewRequest) {
				r.Interviewers = []InterviewerInput{{Role: "panel"}}
			},
			wantErr: true,
			errMsg:  "required",
		},
		{
			name: "full request",
			mutate: func(r *ScheduleInterviewRequest) {
				r.Duration = 45
				r.Format = "video-call"
				r.InterviewType = "technical"
				r.InterviewStage = "second"
				r.VideoCall = &VideoCallInput{Platform: "google-meet", MeetingURL: "https://meet.example.com/x"}
				r.Interviewers = []InterviewerInput{{UserID: uuid.NewString(), Role: "lead"}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validScheduleRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRescheduleRequest_Validation(t *testing.T) {
	req := RescheduleRequest{}
	assert.Error(t, req.Validate())

	req.NewDate = time.Now()
	assert.NoError(t, req.Validate())
}

func TestScheduleInterviewRequest_JSON(t *testing.T) {
	body := `{"candidate_id":"` + uuid.NewString() + `","job_id":"` + uuid.NewString() + `","scheduled_date":"2024-06-01T10:00:00Z","video_call":{"platform":"zoom"}}`

	var req ScheduleInterviewRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), req.ScheduledDate.UTC())
	require.NotNil(t, req.VideoCall)
	assert.Equal(t, "zoom", req.VideoCall.Platform)
	assert.NoError(t, req.Validate())
}

func TestDescribeValidation(t *testing.T) {
	req := validScheduleRequest()
	req.Duration = 5
	field, msg := DescribeValidation(req.Validate())
	assert.Equal(t, "duration", field)
	assert.Equal(t, "must be at least 15", msg)

	req = validScheduleRequest()
	req.Interviewers = []InterviewerInput{{UserID: "nope"}}
	field, msg = DescribeValidation(req.Validate())
	assert.Equal(t, "interviewers[0].user_id", field)
	assert.Equal(t, "must be a UUID", msg)

	field, msg = DescribeValidation(assert.AnError)
	assert.Equal(t, "body", field)
	assert.Equal(t, assert.AnError.Error(), msg)
}
