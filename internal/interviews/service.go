// Package interviews orchestrates interview scheduling: authorization,
// per-party locking, conflict detection, persistence and notification.
package interviews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/interview-scheduler/internal/lock"
	"github.com/jonathan/interview-scheduler/internal/notify"
	"github.com/jonathan/interview-scheduler/internal/observability"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
	"github.com/jonathan/interview-scheduler/internal/schemas"
	"github.com/jonathan/interview-scheduler/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultNotifyTimeout bounds a single notification delivery.
const DefaultNotifyTimeout = 5 * time.Second

// Config wires the service's collaborators. Store, Parties and Jobs are required.
type Config struct {
	Store    Store
	Parties  PartyDirectory
	Jobs     JobDirectory
	Notifier notify.Notifier
	Locker   lock.Locker
	Logger   *zap.Logger
	Metrics  *observability.Metrics

	Clock         func() time.Time
	NotifyTimeout time.Duration
}

// Service implements the scheduling operations.
type Service struct {
	store    Store
	parties  PartyDirectory
	jobs     JobDirectory
	notifier notify.Notifier
	locker   lock.Locker
	logger   *zap.Logger
	metrics  *observability.Metrics

	now           func() time.Time
	notifyTimeout time.Duration
	inflight      sync.WaitGroup
}

// NewService creates a Service, filling in defaults for optional collaborators.
func NewService(cfg Config) *Service {
	s := &Service{
		store:         cfg.Store,
		parties:       cfg.Parties,
		jobs:          cfg.Jobs,
		notifier:      cfg.Notifier,
		locker:        cfg.Locker,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		now:           cfg.Clock,
		notifyTimeout: cfg.NotifyTimeout,
	}
	if s.notifier == nil {
		s.notifier = notify.Discard
	}
	if s.locker == nil {
		s.locker = lock.NewKeyedMutex()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.notifyTimeout <= 0 {
		s.notifyTimeout = DefaultNotifyTimeout
	}
	return s
}

// Wait blocks until in-flight notifications have finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

// Schedule books a new interview for the acting recruiter.
func (s *Service) Schedule(ctx context.Context, actor Actor, req *types.ScheduleInterviewRequest) (*scheduling.Interview, error) {
	if actor.Role != scheduling.RoleRecruiter {
		return nil, &ForbiddenError{Reason: "only recruiters can schedule interviews"}
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	if req.TimeZone != "" {
		if _, err := time.LoadLocation(req.TimeZone); err != nil {
			return nil, &ValidationError{Field: "time_zone", Message: "unknown time zone"}
		}
	}

	draft, err := draftFrom(actor.ID, req)
	if err != nil {
		return nil, err
	}

	job, err := s.jobs.GetJob(ctx, draft.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return nil, &NotFoundError{Resource: "job", ID: draft.JobID}
	}
	if job.RecruiterID != actor.ID {
		return nil, &ForbiddenError{Reason: "job belongs to another recruiter"}
	}
	draft.JobTitle = job.Title

	candidate, err := s.parties.GetParty(ctx, draft.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate: %w", err)
	}
	if candidate == nil || candidate.Role != scheduling.RoleCandidate {
		return nil, &NotFoundError{Resource: "candidate", ID: draft.CandidateID}
	}

	if draft.Duration == 0 {
		draft.Duration = scheduling.DefaultDurationMinutes
	}
	start := draft.ScheduledDate
	end := start.Add(time.Duration(draft.Duration) * time.Minute)

	unlock, err := s.acquire(ctx, lock.PartyKey(actor.ID), lock.PartyKey(draft.CandidateID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.checkConflicts(ctx, "schedule", start, end, nil,
		side{actor.ID, scheduling.RoleRecruiter},
		side{draft.CandidateID, scheduling.RoleCandidate},
	); err != nil {
		return nil, err
	}

	iv := scheduling.New(draft, s.now())
	if err := s.store.Create(ctx, &iv); err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}
	s.metrics.Scheduled()
	s.logger.Info("interview scheduled",
		zap.String("interview_id", iv.ID.String()),
		zap.String("recruiter_id", iv.RecruiterID.String()),
		zap.String("candidate_id", iv.CandidateID.String()),
		zap.Time("start", iv.ScheduledDate),
	)

	s.dispatch(iv.CandidateID, notify.Event{
		Type:      notify.EventScheduled,
		Interview: iv,
		Message:   "New interview scheduled: " + iv.Title,
		ActorRole: scheduling.RoleRecruiter,
	})
	return &iv, nil
}

// Get returns an interview visible to the actor.
func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*scheduling.Interview, error) {
	iv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scheduling.IsParty(*iv, actor.ID, actor.Role) && !iv.HasInterviewer(actor.ID) {
		return nil, &ForbiddenError{Reason: "not a participant of this interview"}
	}
	return iv, nil
}

// ListParams are the caller-facing listing filters.
type ListParams struct {
	Status   string
	Upcoming bool
	Days     int
	Page     int
	Limit    int
}

// List returns one page of the actor's interviews.
func (s *Service) List(ctx context.Context, actor Actor, p ListParams) ([]scheduling.Interview, scheduling.Page, error) {
	if !actor.Role.Valid() {
		return nil, scheduling.Page{}, &ForbiddenError{Reason: "unknown role"}
	}
	status := scheduling.Status(p.Status)
	if status != "" && !status.Valid() {
		return nil, scheduling.Page{}, &ValidationError{Field: "status", Message: "unknown status"}
	}
	if p.Days < 0 {
		return nil, scheduling.Page{}, &ValidationError{Field: "days", Message: "must not be negative"}
	}
	if p.Page > scheduling.MaxPage {
		return nil, scheduling.Page{}, &ValidationError{Field: "page", Message: fmt.Sprintf("must be at most %d", scheduling.MaxPage)}
	}

	now := s.now()
	q := scheduling.ListQuery{
		PartyID:  actor.ID,
		Role:     actor.Role,
		Status:   status,
		Upcoming: p.Upcoming,
		Now:      now,
		Page:     p.Page,
		Limit:    p.Limit,
	}.Normalize()
	if p.Upcoming && p.Days > 0 {
		q.Horizon = now.AddDate(0, 0, p.Days)
	}

	ivs, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, scheduling.Page{}, fmt.Errorf("failed to list interviews: %w", err)
	}
	if ivs == nil {
		ivs = []scheduling.Interview{}
	}
	return ivs, scheduling.NewPage(q, total), nil
}

// Stats summarizes the actor's interviews.
func (s *Service) Stats(ctx context.Context, actor Actor) (*scheduling.Stats, error) {
	if !actor.Role.Valid() {
		return nil, &ForbiddenError{Reason: "unknown role"}
	}
	st, err := s.store.Stats(ctx, scheduling.StatsQuery{PartyID: actor.ID, Role: actor.Role, Now: s.now()})
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return st, nil
}

// AvailableSlots lists the working-hour slots on date that are free for both
// the acting recruiter and the candidate.
func (s *Service) AvailableSlots(ctx context.Context, actor Actor, candidateID uuid.UUID, date time.Time, durationMinutes int) ([]scheduling.Slot, error) {
	if actor.Role != scheduling.RoleRecruiter {
		return nil, &ForbiddenError{Reason: "only recruiters can look up availability"}
	}
	if candidateID == uuid.Nil {
		return nil, &ValidationError{Field: "candidate_id", Message: "is required"}
	}

	window := scheduling.WorkingWindow(date)
	var recruiterBusy, candidateBusy []scheduling.Interview

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recruiterBusy, err = s.store.FindConflicts(gctx, scheduling.ConflictQuery{
			PartyID: actor.ID, Role: scheduling.AnyRole, Start: window.Start, End: window.End,
		})
		return err
	})
	g.Go(func() error {
		var err error
		candidateBusy, err = s.store.FindConflicts(gctx, scheduling.ConflictQuery{
			PartyID: candidateID, Role: scheduling.AnyRole, Start: window.Start, End: window.End,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load busy intervals: %w", err)
	}

	busy := append(scheduling.Intervals(recruiterBusy), scheduling.Intervals(candidateBusy)...)
	return scheduling.GenerateSlots(date, durationMinutes, busy), nil
}

// Confirm records the actor's attendance confirmation.
func (s *Service) Confirm(ctx context.Context, actor Actor, id uuid.UUID) (*scheduling.Interview, error) {
	var out scheduling.Interview
	err := s.mutate(ctx, id, func(iv scheduling.Interview) error {
		if !scheduling.IsParty(iv, actor.ID, actor.Role) {
			return &ForbiddenError{Reason: "not a party to this interview"}
		}
		if iv.Status.IsTerminal() {
			return &InvalidStateError{Status: iv.Status, Action: "confirm"}
		}
		out = scheduling.ConfirmAttendance(iv, actor.ID, actor.Role, s.now())
		return nil
	}, &out)
	if err != nil {
		return nil, err
	}

	s.metrics.Transition("confirm")
	s.dispatch(scheduling.OtherParty(out, actor.Role), notify.Event{
		Type:      notify.EventConfirmed,
		Interview: out,
		Message:   fmt.Sprintf("Interview confirmed by %s", actor.Role),
		ActorRole: actor.Role,
	})
	return &out, nil
}

// Reschedule moves an interview owned by the acting recruiter.
func (s *Service) Reschedule(ctx context.Context, actor Actor, id uuid.UUID, req *types.RescheduleRequest) (*scheduling.Interview, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(*current, actor, "reschedule"); err != nil {
		return nil, err
	}

	unlock, err := s.acquire(ctx,
		lock.InterviewKey(id),
		lock.PartyKey(current.RecruiterID),
		lock.PartyKey(current.CandidateID),
	)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// reload under the lock
	current, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, &InvalidStateError{Status: current.Status, Action: "reschedule"}
	}

	start := req.NewDate.UTC()
	end := start.Add(time.Duration(current.Duration) * time.Minute)
	if err := s.checkConflicts(ctx, "reschedule", start, end, &id,
		side{current.RecruiterID, scheduling.RoleRecruiter},
		side{current.CandidateID, scheduling.RoleCandidate},
	); err != nil {
		return nil, err
	}

	out, err := scheduling.Reschedule(*current, start, req.Reason, actor.ID, s.now())
	if err != nil {
		return nil, stateError(err)
	}
	if err := s.store.Update(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to update interview: %w", err)
	}

	s.metrics.Transition("reschedule")
	s.dispatch(out.CandidateID, notify.Event{
		Type:      notify.EventRescheduled,
		Interview: out,
		Message:   "Interview rescheduled to " + start.Format(time.RFC3339),
		ActorRole: actor.Role,
		Reason:    req.Reason,
	})
	return &out, nil
}

// Cancel cancels an interview on behalf of either party.
func (s *Service) Cancel(ctx context.Context, actor Actor, id uuid.UUID, req *types.CancelRequest) (*scheduling.Interview, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	var out scheduling.Interview
	err := s.mutate(ctx, id, func(iv scheduling.Interview) error {
		if !scheduling.IsParty(iv, actor.ID, actor.Role) {
			return &ForbiddenError{Reason: "not a party to this interview"}
		}
		var err error
		out, err = scheduling.Cancel(iv, req.Reason, actor.ID, s.now())
		return stateError(err)
	}, &out)
	if err != nil {
		return nil, err
	}

	s.metrics.Transition("cancel")
	s.dispatch(scheduling.OtherParty(out, actor.Role), notify.Event{
		Type:      notify.EventCancelled,
		Interview: out,
		Message:   fmt.Sprintf("Interview cancelled by %s", actor.Role),
		ActorRole: actor.Role,
		Reason:    req.Reason,
	})
	return &out, nil
}

// Start marks an interview owned by the acting recruiter as in progress.
func (s *Service) Start(ctx context.Context, actor Actor, id uuid.UUID) (*scheduling.Interview, error) {
	return s.advance(ctx, actor, id, "start", scheduling.Start, notify.EventStarted, "Interview started")
}

// Complete closes an interview owned by the acting recruiter.
func (s *Service) Complete(ctx context.Context, actor Actor, id uuid.UUID) (*scheduling.Interview, error) {
	return s.advance(ctx, actor, id, "complete", scheduling.Complete, notify.EventCompleted, "Interview completed")
}

func (s *Service) advance(
	ctx context.Context,
	actor Actor,
	id uuid.UUID,
	action string,
	transition func(scheduling.Interview, time.Time) (scheduling.Interview, error),
	evType notify.EventType,
	message string,
) (*scheduling.Interview, error) {
	var out scheduling.Interview
	err := s.mutate(ctx, id, func(iv scheduling.Interview) error {
		if err := s.requireOwner(iv, actor, action); err != nil {
			return err
		}
		var err error
		out, err = transition(iv, s.now())
		return stateError(err)
	}, &out)
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(action)
	s.dispatch(out.CandidateID, notify.Event{
		Type:      evType,
		Interview: out,
		Message:   message,
		ActorRole: actor.Role,
	})
	return &out, nil
}

// SubmitFeedback stores the actor's feedback. The payload shape depends on
// the actor's role and is checked against the role's JSON schema.
func (s *Service) SubmitFeedback(ctx context.Context, actor Actor, id uuid.UUID, payload json.RawMessage) (*scheduling.Interview, error) {
	if len(payload) == 0 {
		return nil, &ValidationError{Field: "feedback", Message: "is required"}
	}
	if err := schemas.ValidateFeedback(actor.Role, payload); err != nil {
		var verr *schemas.ValidationError
		if errors.As(err, &verr) {
			if fe, ok := verr.First(); ok {
				return nil, &ValidationError{Field: "feedback." + fe.Field, Message: fe.Message}
			}
		}
		return nil, &ValidationError{Field: "feedback", Message: err.Error()}
	}

	var out scheduling.Interview
	err := s.mutate(ctx, id, func(iv scheduling.Interview) error {
		if !scheduling.IsParty(iv, actor.ID, actor.Role) {
			return &ForbiddenError{Reason: "not a party to this interview"}
		}
		now := s.now()
		switch actor.Role {
		case scheduling.RoleRecruiter:
			var fb scheduling.RecruiterFeedback
			if err := json.Unmarshal(payload, &fb); err != nil {
				return &ValidationError{Field: "feedback", Message: err.Error()}
			}
			out = scheduling.SubmitRecruiterFeedback(iv, fb, actor.ID, now)
		default:
			var fb scheduling.CandidateFeedback
			if err := json.Unmarshal(payload, &fb); err != nil {
				return &ValidationError{Field: "feedback", Message: err.Error()}
			}
			out = scheduling.SubmitCandidateFeedback(iv, fb, now)
		}
		return nil
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Deactivate soft-deletes an interview owned by the acting recruiter.
func (s *Service) Deactivate(ctx context.Context, actor Actor, id uuid.UUID) error {
	var out scheduling.Interview
	return s.mutate(ctx, id, func(iv scheduling.Interview) error {
		if err := s.requireOwner(iv, actor, "delete"); err != nil {
			return err
		}
		out = scheduling.Deactivate(iv, s.now())
		return nil
	}, &out)
}

// mutate locks the interview, loads it, lets apply compute the new record
// into *out and persists it.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, apply func(scheduling.Interview) error, out *scheduling.Interview) error {
	unlock, err := s.acquire(ctx, lock.InterviewKey(id))
	if err != nil {
		return err
	}
	defer unlock()

	iv, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := apply(*iv); err != nil {
		return err
	}
	if err := s.store.Update(ctx, out); err != nil {
		return fmt.Errorf("failed to update interview: %w", err)
	}
	return nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*scheduling.Interview, error) {
	iv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load interview: %w", err)
	}
	if iv == nil || !iv.IsActive {
		return nil, &NotFoundError{Resource: "interview", ID: id}
	}
	return iv, nil
}

func (s *Service) requireOwner(iv scheduling.Interview, actor Actor, action string) error {
	if actor.Role != scheduling.RoleRecruiter || iv.RecruiterID != actor.ID {
		return &ForbiddenError{Reason: "only the scheduling recruiter can " + action + " this interview"}
	}
	return nil
}

func (s *Service) acquire(ctx context.Context, keys ...string) (lock.Unlock, error) {
	started := time.Now()
	unlock, err := lock.LockAll(ctx, s.locker, keys...)
	s.metrics.LockWaited(time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("failed to acquire scheduling lock: %w", err)
	}
	return unlock, nil
}

type side struct {
	id   uuid.UUID
	role scheduling.PartyRole
}

// checkConflicts queries each side in order and fails on the first party
// with an overlapping interview. Parties are matched on either column.
func (s *Service) checkConflicts(ctx context.Context, op string, start, end time.Time, exclude *uuid.UUID, sides ...side) error {
	for _, sd := range sides {
		found, err := s.store.FindConflicts(ctx, scheduling.ConflictQuery{
			PartyID:   sd.id,
			Role:      scheduling.AnyRole,
			Start:     start,
			End:       end,
			ExcludeID: exclude,
		})
		if err != nil {
			return fmt.Errorf("failed to check conflicts: %w", err)
		}
		if len(found) > 0 {
			s.metrics.Conflict(op, string(sd.role))
			s.logger.Info("scheduling conflict",
				zap.String("operation", op),
				zap.String("party_id", sd.id.String()),
				zap.String("role", string(sd.role)),
				zap.Int("overlapping", len(found)),
			)
			return &ConflictError{Party: sd.id, Role: sd.role, Start: start, End: end, Conflicts: found}
		}
	}
	return nil
}

// dispatch delivers ev in the background. Failures are logged, never returned.
func (s *Service) dispatch(partyID uuid.UUID, ev notify.Event) {
	if partyID == uuid.Nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now()
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.notifier.Notify(ctx, partyID, ev); err != nil {
			s.metrics.NotifyFailed(string(ev.Type))
			s.logger.Warn("notification failed",
				zap.String("type", string(ev.Type)),
				zap.String("party_id", partyID.String()),
				zap.String("interview_id", ev.Interview.ID.String()),
				zap.Error(err),
			)
		}
	}()
}

func draftFrom(recruiterID uuid.UUID, req *types.ScheduleInterviewRequest) (scheduling.Draft, error) {
	d := scheduling.Draft{
		Title:          req.Title,
		RecruiterID:    recruiterID,
		CandidateID:    uuid.MustParse(req.CandidateID),
		JobID:          uuid.MustParse(req.JobID),
		ScheduledDate:  req.ScheduledDate.UTC(),
		Duration:       req.Duration,
		TimeZone:       req.TimeZone,
		Format:         scheduling.Format(req.Format),
		InterviewType:  scheduling.InterviewType(req.InterviewType),
		InterviewStage: scheduling.Stage(req.InterviewStage),
		Description:    req.Description,
		Requirements:   req.Requirements,
		Notes:          req.Notes,
	}
	if req.ApplicationID != "" {
		appID := uuid.MustParse(req.ApplicationID)
		d.ApplicationID = &appID
	}
	if req.Location != nil {
		d.Location = &scheduling.Location{Address: req.Location.Address, Instructions: req.Location.Instructions}
	}
	if req.VideoCall != nil {
		d.VideoCall = &scheduling.VideoCall{
			Platform:   req.VideoCall.Platform,
			MeetingURL: req.VideoCall.MeetingURL,
			MeetingID:  req.VideoCall.MeetingID,
			Passcode:   req.VideoCall.Passcode,
		}
	}
	for i, in := range req.Interviewers {
		uid, err := uuid.Parse(in.UserID)
		if err != nil {
			return d, &ValidationError{Field: fmt.Sprintf("interviewers[%d].user_id", i), Message: "must be a UUID"}
		}
		d.Interviewers = append(d.Interviewers, scheduling.Interviewer{UserID: uid, Role: in.Role})
	}
	return d, nil
}

func invalid(err error) error {
	field, msg := types.DescribeValidation(err)
	return &ValidationError{Field: field, Message: msg}
}

// stateError turns a lifecycle rejection into an InvalidStateError.
func stateError(err error) error {
	var te *scheduling.TransitionError
	if errors.As(err, &te) {
		return &InvalidStateError{Status: te.From, Action: te.Action}
	}
	return err
}
