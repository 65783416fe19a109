package interviews

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
)

// ValidationError indicates malformed or out-of-range input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// NotFoundError indicates a missing interview, party or job.
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ForbiddenError indicates the actor may not perform the operation.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return "access denied: " + e.Reason
}

// ConflictError reports the interviews that overlap the requested interval
// for one party.
type ConflictError struct {
	Party     uuid.UUID
	Role      scheduling.PartyRole
	Start     time.Time
	End       time.Time
	Conflicts []scheduling.Interview
}

func (e *ConflictError) Error() string {
	who := "the candidate is"
	if e.Role == scheduling.RoleRecruiter {
		who = "the recruiter is"
	}
	return fmt.Sprintf("scheduling conflict: %s not available between %s and %s (%d overlapping)",
		who, e.Start.UTC().Format(time.RFC3339), e.End.UTC().Format(time.RFC3339), len(e.Conflicts))
}

// InvalidStateError indicates the interview's status forbids the action.
type InvalidStateError struct {
	Status scheduling.Status
	Action string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s an interview that is %s", e.Action, e.Status)
}
