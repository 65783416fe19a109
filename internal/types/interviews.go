// Package types provides the request and response shapes of the interview scheduling API.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	return validate
}

// ScheduleInterviewRequest is the body of POST /interviews.
type ScheduleInterviewRequest struct {
	CandidateID   string    `json:"candidate_id" validate:"required,uuid"`
	JobID         string    `json:"job_id" validate:"required,uuid"`
	ApplicationID string    `json:"application_id,omitempty" validate:"omitempty,uuid"`
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
	Duration      int       `json:"duration,omitempty" validate:"omitempty,min=15,max=240"`
	TimeZone      string    `json:"time_zone,omitempty" validate:"omitempty,max=64"`

	Format         string `json:"format,omitempty" validate:"omitempty,oneof=in-person video-call phone online-assessment"`
	InterviewType  string `json:"interview_type,omitempty" validate:"omitempty,oneof=technical behavioral hr panel screening final"`
	InterviewStage string `json:"interview_stage,omitempty" validate:"omitempty,oneof=initial second final follow-up"`

	Title        string `json:"title,omitempty" validate:"max=200"`
	Description  string `json:"description,omitempty" validate:"max=1000"`
	Requirements string `json:"requirements,omitempty" validate:"max=500"`
	Notes        string `json:"notes,omitempty" validate:"max=2000"`

	Location     *LocationInput     `json:"location,omitempty"`
	VideoCall    *VideoCallInput    `json:"video_call,omitempty"`
	Interviewers []InterviewerInput `json:"interviewers,omitempty" validate:"omitempty,max=20,dive"`
}

// LocationInput describes an in-person venue.
type LocationInput struct {
	Address      string `json:"address,omitempty" validate:"max=500"`
	Instructions string `json:"instructions,omitempty" validate:"max=1000"`
}

// VideoCallInput describes an online meeting.
type VideoCallInput struct {
	Platform   string `json:"platform,omitempty" validate:"omitempty,oneof=zoom google-meet microsoft-teams skype other"`
	MeetingURL string `json:"meeting_url,omitempty" validate:"omitempty,url"`
	MeetingID  string `json:"meeting_id,omitempty" validate:"max=100"`
	Passcode   string `json:"passcode,omitempty" validate:"max=100"`
}

// InterviewerInput adds a panel member.
type InterviewerInput struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role,omitempty" validate:"max=100"`
}

// RescheduleRequest is the body of PATCH /interviews/{id}/reschedule.
type RescheduleRequest struct {
	NewDate time.Time `json:"new_date" validate:"required"`
	Reason  string    `json:"reason,omitempty" validate:"max=500"`
}

// CancelRequest is the body of PATCH /interviews/{id}/cancel.
type CancelRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// FeedbackRequest is the body of POST /interviews/{id}/feedback. The payload
// shape depends on the caller's role and is checked against a JSON schema.
type FeedbackRequest struct {
	Feedback json.RawMessage `json:"feedback" validate:"required"`
}

// PartySummary is how a referenced user is shown alongside interviews.
type PartySummary struct {
	ID    uuid.UUID            `json:"id"`
	Name  string               `json:"name"`
	Email string               `json:"email"`
	Role  scheduling.PartyRole `json:"role"`
}

// JobSummary is how a referenced job is shown alongside interviews.
type JobSummary struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Company string    `json:"company,omitempty"`
}

// Included holds the users and jobs referenced by a response, keyed by id.
type Included struct {
	Users map[uuid.UUID]PartySummary `json:"users"`
	Jobs  map[uuid.UUID]JobSummary   `json:"jobs"`
}

// InterviewResponse wraps a single interview.
type InterviewResponse struct {
	Interview scheduling.Interview `json:"interview"`
	Included  *Included            `json:"included,omitempty"`
	Message   string               `json:"message,omitempty"`
}

// InterviewListResponse is a page of interviews.
type InterviewListResponse struct {
	Interviews []scheduling.Interview `json:"interviews"`
	Included   *Included              `json:"included,omitempty"`
	Pagination scheduling.Page        `json:"pagination"`
}

// AvailableSlotsResponse lists the free slots on a day.
type AvailableSlotsResponse struct {
	Date           time.Time         `json:"date"`
	AvailableSlots []scheduling.Slot `json:"available_slots"`
	TotalSlots     int               `json:"total_slots"`
}

// Validate validates the ScheduleInterviewRequest using the validator.
func (r *ScheduleInterviewRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the RescheduleRequest using the validator.
func (r *RescheduleRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the CancelRequest using the validator.
func (r *CancelRequest) Validate() error {
	return validate.Struct(r)
}

// DescribeValidation turns the first validator failure into a field name and
// a readable message. Errors that did not come from the validator are
// reported against the request body.
func DescribeValidation(err error) (field, message string) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "body", err.Error()
	}

	fe := verrs[0]
	// strip the struct prefix but keep nested paths such as interviewers[0].user_id
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return path, "is required"
	case "uuid":
		return path, "must be a UUID"
	case "url":
		return path, "must be a URL"
	case "min":
		return path, fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return path, fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return path, fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return path, fmt.Sprintf("failed %s validation", fe.Tag())
}
