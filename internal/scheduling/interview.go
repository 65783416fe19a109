// Package scheduling holds the interview domain model, the interval overlap
// predicate, the slot generator and the lifecycle transition functions.
//
// Everything in this package is pure: functions take a record and inputs and
// return a new record. Persistence lives in the store implementations.
package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an interview.
type Status string

// Status constants
const (
	StatusScheduled   Status = "scheduled"
	StatusConfirmed   Status = "confirmed"
	StatusInProgress  Status = "in-progress"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusRescheduled Status = "rescheduled"
)

// BlockingStatuses are the statuses that occupy a party's calendar: every
// non-terminal status, including rescheduled.
var BlockingStatuses = []Status{StatusScheduled, StatusConfirmed, StatusInProgress, StatusRescheduled}

// UpcomingStatuses are the statuses counted as upcoming in listings and stats.
var UpcomingStatuses = []Status{StatusScheduled, StatusConfirmed}

// IsTerminal reports whether no further transitions are permitted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusRescheduled:
		return true
	}
	return false
}

// Format is how the interview is conducted.
type Format string

// Format constants
const (
	FormatInPerson         Format = "in-person"
	FormatVideoCall        Format = "video-call"
	FormatPhone            Format = "phone"
	FormatOnlineAssessment Format = "online-assessment"
)

// InterviewType classifies the interview content.
type InterviewType string

// InterviewType constants
const (
	TypeTechnical  InterviewType = "technical"
	TypeBehavioral InterviewType = "behavioral"
	TypeHR         InterviewType = "hr"
	TypePanel      InterviewType = "panel"
	TypeScreening  InterviewType = "screening"
	TypeFinal      InterviewType = "final"
)

// Stage is the position of the interview in the hiring pipeline.
type Stage string

// Stage constants
const (
	StageInitial  Stage = "initial"
	StageSecond   Stage = "second"
	StageFinal    Stage = "final"
	StageFollowUp Stage = "follow-up"
)

// Duration bounds in minutes.
const (
	MinDurationMinutes     = 15
	MaxDurationMinutes     = 240
	DefaultDurationMinutes = 60
)

// Interview is the central scheduling record.
type Interview struct {
	ID            uuid.UUID     `json:"id"`
	Title         string        `json:"title"`
	RecruiterID   uuid.UUID     `json:"recruiter_id"`
	CandidateID   uuid.UUID     `json:"candidate_id"`
	Interviewers  []Interviewer `json:"interviewers"`
	JobID         uuid.UUID     `json:"job_id"`
	ApplicationID *uuid.UUID    `json:"application_id,omitempty"`

	ScheduledDate time.Time `json:"scheduled_date"`
	Duration      int       `json:"duration"` // minutes
	TimeZone      string    `json:"time_zone"`

	Format         Format        `json:"format"`
	InterviewType  InterviewType `json:"interview_type"`
	InterviewStage Stage         `json:"interview_stage"`

	Status             Status `json:"status"`
	RecruiterConfirmed bool   `json:"recruiter_confirmed"`
	CandidateConfirmed bool   `json:"candidate_confirmed"`

	Location  *Location  `json:"location,omitempty"`
	VideoCall *VideoCall `json:"video_call,omitempty"`

	Description  string `json:"description,omitempty"`
	Requirements string `json:"requirements,omitempty"`
	Notes        string `json:"notes,omitempty"`

	RescheduleHistory []RescheduleEntry `json:"reschedule_history"`
	Cancellation      *Cancellation     `json:"cancellation,omitempty"`
	Feedback          Feedback          `json:"feedback"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Interviewer is an additional panel member.
type Interviewer struct {
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role,omitempty"`
	Confirmed bool      `json:"confirmed"`
}

// Location describes an in-person venue.
type Location struct {
	Address      string `json:"address,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// VideoCall describes an online meeting.
type VideoCall struct {
	Platform   string `json:"platform"`
	MeetingURL string `json:"meeting_url,omitempty"`
	MeetingID  string `json:"meeting_id,omitempty"`
	Passcode   string `json:"passcode,omitempty"`
}

// DefaultVideoPlatform is used when a video call omits the platform.
const DefaultVideoPlatform = "zoom"

// RescheduleEntry is one append-only history record.
type RescheduleEntry struct {
	OriginalDate time.Time `json:"original_date"`
	NewDate      time.Time `json:"new_date"`
	Reason       string    `json:"reason,omitempty"`
	RequestedBy  uuid.UUID `json:"requested_by"`
	RequestedAt  time.Time `json:"requested_at"`
}

// Cancellation records who cancelled and why.
type Cancellation struct {
	Reason      string    `json:"reason,omitempty"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// EndTime is ScheduledDate plus Duration.
func (iv Interview) EndTime() time.Time {
	return iv.ScheduledDate.Add(time.Duration(iv.Duration) * time.Minute)
}

// Interval returns the half-open interval the interview occupies.
func (iv Interview) Interval() Interval {
	return Interval{Start: iv.ScheduledDate, End: iv.EndTime()}
}

// IsConfirmed reports whether both parties confirmed attendance.
func (iv Interview) IsConfirmed() bool {
	return iv.RecruiterConfirmed && iv.CandidateConfirmed
}

// HasInterviewer reports whether userID is listed on the panel.
func (iv Interview) HasInterviewer(userID uuid.UUID) bool {
	for _, in := range iv.Interviewers {
		if in.UserID == userID {
			return true
		}
	}
	return false
}

// Blocks reports whether the interview occupies a calendar for conflict purposes.
func (iv Interview) Blocks() bool {
	if !iv.IsActive {
		return false
	}
	for _, s := range BlockingStatuses {
		if iv.Status == s {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so transitions never alias the caller's slices.
func (iv Interview) Clone() Interview {
	out := iv
	if iv.Interviewers != nil {
		out.Interviewers = append([]Interviewer(nil), iv.Interviewers...)
	}
	if iv.RescheduleHistory != nil {
		out.RescheduleHistory = append([]RescheduleEntry(nil), iv.RescheduleHistory...)
	}
	if iv.ApplicationID != nil {
		id := *iv.ApplicationID
		out.ApplicationID = &id
	}
	if iv.Location != nil {
		loc := *iv.Location
		out.Location = &loc
	}
	if iv.VideoCall != nil {
		vc := *iv.VideoCall
		out.VideoCall = &vc
	}
	if iv.Cancellation != nil {
		c := *iv.Cancellation
		out.Cancellation = &c
	}
	out.Feedback = iv.Feedback.clone()
	return out
}

// DefaultTitle builds the title used when the scheduler omits one.
func DefaultTitle(t InterviewType, jobTitle string) string {
	if jobTitle == "" {
		return fmt.Sprintf("%s Interview", t)
	}
	return fmt.Sprintf("%s Interview - %s", t, jobTitle)
}
