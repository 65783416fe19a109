package scheduling

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransition is matched by every TransitionError.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// TransitionError reports a lifecycle action that the current status forbids.
type TransitionError struct {
	From   Status
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s an interview that is %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Draft carries the fields needed to create an interview.
type Draft struct {
	Title          string
	RecruiterID    uuid.UUID
	CandidateID    uuid.UUID
	JobID          uuid.UUID
	JobTitle       string
	ApplicationID  *uuid.UUID
	ScheduledDate  time.Time
	Duration       int
	TimeZone       string
	Format         Format
	InterviewType  InterviewType
	InterviewStage Stage
	Description    string
	Requirements   string
	Notes          string
	Location       *Location
	VideoCall      *VideoCall
	Interviewers   []Interviewer
}

// New builds an interview in the scheduled state, applying defaults and
// keeping only the meeting details that match the format.
func New(d Draft, now time.Time) Interview {
	iv := Interview{
		ID:                uuid.New(),
		Title:             d.Title,
		RecruiterID:       d.RecruiterID,
		CandidateID:       d.CandidateID,
		JobID:             d.JobID,
		ApplicationID:     d.ApplicationID,
		ScheduledDate:     d.ScheduledDate.UTC(),
		Duration:          d.Duration,
		TimeZone:          d.TimeZone,
		Format:            d.Format,
		InterviewType:     d.InterviewType,
		InterviewStage:    d.InterviewStage,
		Status:            StatusScheduled,
		Description:       d.Description,
		Requirements:      d.Requirements,
		Notes:             d.Notes,
		Interviewers:      make([]Interviewer, 0, len(d.Interviewers)),
		RescheduleHistory: []RescheduleEntry{},
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if iv.Duration == 0 {
		iv.Duration = DefaultDurationMinutes
	}
	if iv.TimeZone == "" {
		iv.TimeZone = "UTC"
	}
	if iv.Format == "" {
		iv.Format = FormatVideoCall
	}
	if iv.InterviewType == "" {
		iv.InterviewType = TypeScreening
	}
	if iv.InterviewStage == "" {
		iv.InterviewStage = StageInitial
	}
	if iv.Title == "" {
		iv.Title = DefaultTitle(iv.InterviewType, d.JobTitle)
	}

	switch iv.Format {
	case FormatInPerson:
		if d.Location != nil {
			loc := *d.Location
			iv.Location = &loc
		}
	case FormatVideoCall:
		if d.VideoCall != nil {
			vc := *d.VideoCall
			if vc.Platform == "" {
				vc.Platform = DefaultVideoPlatform
			}
			iv.VideoCall = &vc
		}
	}

	for _, in := range d.Interviewers {
		iv.Interviewers = append(iv.Interviewers, Interviewer{UserID: in.UserID, Role: in.Role})
	}
	return iv
}

// ConfirmAttendance sets the confirmation flag for the party holding role.
// A caller who is not that party leaves the record unchanged. Once both
// sides have confirmed, a scheduled or rescheduled interview becomes confirmed.
func ConfirmAttendance(iv Interview, partyID uuid.UUID, role PartyRole, now time.Time) Interview {
	out := iv.Clone()
	if !IsParty(out, partyID, role) {
		return out
	}

	switch role {
	case RoleRecruiter:
		out.RecruiterConfirmed = true
	case RoleCandidate:
		out.CandidateConfirmed = true
	}

	if out.IsConfirmed() && (out.Status == StatusScheduled || out.Status == StatusRescheduled) {
		out.Status = StatusConfirmed
	}
	out.UpdatedAt = now
	return out
}

// Reschedule moves the interview to newStart, records the move and clears
// both confirmations. It performs no conflict detection.
func Reschedule(iv Interview, newStart time.Time, reason string, requestedBy uuid.UUID, now time.Time) (Interview, error) {
	if iv.Status.IsTerminal() {
		return iv, &TransitionError{From: iv.Status, Action: "reschedule"}
	}

	out := iv.Clone()
	out.RescheduleHistory = append(out.RescheduleHistory, RescheduleEntry{
		OriginalDate: iv.ScheduledDate,
		NewDate:      newStart.UTC(),
		Reason:       reason,
		RequestedBy:  requestedBy,
		RequestedAt:  now,
	})
	out.ScheduledDate = newStart.UTC()
	out.Status = StatusRescheduled
	out.RecruiterConfirmed = false
	out.CandidateConfirmed = false
	out.UpdatedAt = now
	return out, nil
}

// Cancel marks the interview cancelled and records the cancellation.
func Cancel(iv Interview, reason string, cancelledBy uuid.UUID, now time.Time) (Interview, error) {
	if iv.Status.IsTerminal() {
		return iv, &TransitionError{From: iv.Status, Action: "cancel"}
	}

	out := iv.Clone()
	out.Status = StatusCancelled
	out.Cancellation = &Cancellation{
		Reason:      reason,
		CancelledBy: cancelledBy,
		CancelledAt: now,
	}
	out.UpdatedAt = now
	return out, nil
}

// Start moves a pending interview into progress.
func Start(iv Interview, now time.Time) (Interview, error) {
	switch iv.Status {
	case StatusScheduled, StatusConfirmed, StatusRescheduled:
	default:
		return iv, &TransitionError{From: iv.Status, Action: "start"}
	}
	out := iv.Clone()
	out.Status = StatusInProgress
	out.UpdatedAt = now
	return out, nil
}

// Complete closes an interview that is running or confirmed.
func Complete(iv Interview, now time.Time) (Interview, error) {
	if iv.Status != StatusInProgress && iv.Status != StatusConfirmed {
		return iv, &TransitionError{From: iv.Status, Action: "complete"}
	}
	out := iv.Clone()
	out.Status = StatusCompleted
	out.UpdatedAt = now
	return out, nil
}

// Deactivate soft-deletes the interview. It no longer blocks calendars or
// appears in listings.
func Deactivate(iv Interview, now time.Time) Interview {
	out := iv.Clone()
	out.IsActive = false
	out.UpdatedAt = now
	return out
}
