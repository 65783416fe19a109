package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/interview-scheduler/internal/interviews"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
	"github.com/jonathan/interview-scheduler/internal/server/middleware"
	"github.com/jonathan/interview-scheduler/internal/types"
)

const maxBodyBytes = 1 << 20

// actorFrom converts the authenticated identity into a service actor.
func actorFrom(r *http.Request) (interviews.Actor, error) {
	id, err := middleware.GetIdentity(r)
	if err != nil {
		return interviews.Actor{}, err
	}
	return interviews.Actor{ID: id.UserID, Role: scheduling.PartyRole(id.Role)}, nil
}

// within runs fn with the caller as actor, writing any error it returns.
func (s *Server) within(w http.ResponseWriter, r *http.Request, fn func(interviews.Actor) error) {
	actor, err := actorFrom(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := fn(actor); err != nil {
		s.writeError(w, r, err)
	}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &interviews.ValidationError{Field: "id", Message: "must be a UUID"}
	}
	return id, nil
}

// decodeJSON reads a bounded JSON body into dst. An empty body leaves dst
// untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil
	case errors.Is(err, io.EOF):
		return &interviews.ValidationError{Field: "body", Message: "request body is required"}
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &interviews.ValidationError{Field: "body", Message: "request body too large"}
	}
	return &interviews.ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &interviews.ValidationError{Field: name, Message: "must be an integer"}
	}
	return n, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &interviews.ValidationError{Field: name, Message: "must be true or false"}
	}
	return b, nil
}

// slotDate resolves the date and tz query parameters to midnight in the
// requested zone. A full timestamp keeps only its calendar date.
func slotDate(r *http.Request) (time.Time, error) {
	q := r.URL.Query()
	loc := time.Local
	if tz := q.Get("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return time.Time{}, &interviews.ValidationError{Field: "tz", Message: "unknown time zone"}
		}
		loc = l
	}

	raw := q.Get("date")
	if raw == "" {
		return time.Time{}, &interviews.ValidationError{Field: "date", Message: "is required"}
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339, raw)
		if tsErr != nil {
			return time.Time{}, &interviews.ValidationError{Field: "date", Message: "must be YYYY-MM-DD or RFC 3339"}
		}
		y, m, d := ts.Date()
		t = time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	return t, nil
}

func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	s.within(w, r, func(actor interviews.Actor) error {
		upcoming, err := queryBool(r, "upcoming")
		if err != nil {
			return err
		}
		p := interviews.ListParams{Status: r.URL.Query().Get("status"), Upcoming: upcoming}
		if p.Days, err = queryInt(r, "days", 0); err != nil {
			return err
		}
		if p.Page, err = queryInt(r, "page", 1); err != nil {
			return err
		}
		if p.Limit, err = queryInt(r, "limit", scheduling.DefaultPageSize); err != nil {
			return err
		}

		ivs, page, err := s.svc.List(r.Context(), actor, p)
		if err != nil {
			return err
		}
		included, err := s.svc.Resolve(r.Context(), ivs)
		if err != nil {
			return err
		}
		s.jsonResponse(w, http.StatusOK, types.InterviewListResponse{Interviews: ivs, Included: included, Pagination: page})
		return nil
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.within(w, r, func(actor interviews.Actor) error {
		st, err := s.svc.Stats(r.Context(), actor)
		if err != nil {
			return err
		}
		s.jsonResponse(w, http.StatusOK, st)
		return nil
	})
}

func (s *Server) handleAvailableSlots(w http.ResponseWriter, r *http.Request) {
	s.within(w, r, func(actor interviews.Actor) error {
		q := r.URL.Query()
		rawCandidate := q.Get("candidate_id")
		if rawCandidate == "" {
			rawCandidate = q.Get("candidateId")
		}
		if rawCandidate == "" {
			return &interviews.ValidationError{Field: "candidate_id", Message: "is required"}
		}
		candidateID, err := uuid.Parse(rawCandidate)
		if err != nil {
			return &interviews.ValidationError{Field: "candidate_id", Message: "must be a UUID"}
		}
		date, err := slotDate(r)
		if err != nil {
			return err
		}
		duration, err := queryInt(r, "duration", scheduling.DefaultDurationMinutes)
		if err != nil {
			return err
		}

		slots, err := s.svc.AvailableSlots(r.Context(), actor, candidateID, date, duration)
		if err != nil {
			return err
		}
		s.jsonResponse(w, http.StatusOK, types.AvailableSlotsResponse{
			Date:           date,
			AvailableSlots: slots,
			TotalSlots:     len(slots),
		})
		return nil
	})
}

func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	s.within(w, r, func(actor interviews.Actor) error {
		id, err := pathID(r)
		if err != nil {
			return err
		}
		iv, err := s.svc.Get(r.Context(), actor, id)
		if err != nil {
			return err
		}
		included, err := s.svc.Resolve(r.Context(), []scheduling.Interview{*iv})
		if err != nil {
			return err
		}
		s.jsonResponse(w, http.StatusOK, types.InterviewResponse{Interview: *iv, Included: included})
		return nil
	})
}

func (s *Server) handleScheduleInterview(w http.ResponseWriter, r *http.Request) {
	s.within(w, r, func(actor interviews.Actor) error {
		var req types.ScheduleInterviewRequest
		if err := decodeJSON(w, r, &req, false); err != nil {
			return err
		}
		iv, err := s.svc.Schedule(r.Context(), actor, &req)
		if err != nil {
			return err
		}
		s.jsonResponse(w, http.StatusCreated, types.InterviewResponse{
			Interview: *iv,
			Message:   "Interview scheduled successfully",
		})
		return nil
	})
}

func (s *Server) handleConfirmInterview(w http.ResponseWriter, r *http.Request) {
	s.within(w, r, func(actor interviews.Actor) error {
		id, err := pathID(r)
		if err != nil {
			return err
		}
		iv, err := s.svc.Confirm(r.Context(), actor, id)
		if err != nil {
			return err
		}
		s.jsonResponse(w, http.StatusOK, types.InterviewResponse{Interview: *iv, Message: "Attendance confirmed"})
		return nil
	})
}

func (s *Server) handleRescheduleInterview(w http.ResponseWriter, r *http.Request) {
	s.within(w, r, func(actor interviews.Actor) error {
		id, err := pathID(r)
		if err != nil {
			return err
		}
		var req types.RescheduleRequest
		if err := decodeJSON(w, r, &req, false); err != nil {
			return err
		}
		iv, err := s.svc.Reschedule(r.Context(), actor, id, &req)
		if err != nil {
			return err
		}
		s.jsonResponse(w, http.StatusOK, types.InterviewResponse{Interview: *iv, Message: "Interview rescheduled successfully"})
		return nil
	})
}

func (s *Server) handleCancelInterview(w http.ResponseWriter, r *http.Request) {
	s.within(w, r, func(actor interviews.Actor) error {
		id, err := pathID(r)
		if err != nil {
			return err
		}
		var req types.CancelRequest
		if err := decodeJSON(w, r, &req, true); err != nil {
			return err
		}
		iv, err := s.svc.Cancel(r.Context(), actor, id, &req)
		if err != nil {
			return err
		}
		s.jsonResponse(w, http.StatusOK, types.InterviewResponse{Interview: *iv, Message: "Interview cancelled successfully"})
		return nil
	})
}

func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	s.advance(w, r, s.svc.Start, "Interview started")
}

func (s *Server) handleCompleteInterview(w http.ResponseWriter, r *http.Request) {
	s.advance(w, r, s.svc.Complete, "Interview completed")
}

type transitionFunc func(ctx context.Context, actor interviews.Actor, id uuid.UUID) (*scheduling.Interview, error)

func (s *Server) advance(w http.ResponseWriter, r *http.Request, fn transitionFunc, message string) {
	s.within(w, r, func(actor interviews.Actor) error {
		id, err := pathID(r)
		if err != nil {
			return err
		}
		iv, err := fn(r.Context(), actor, id)
		if err != nil {
			return err
		}
		s.jsonResponse(w, http.StatusOK, types.InterviewResponse{Interview: *iv, Message: message})
		return nil
	})
}

func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	s.within(w, r, func(actor interviews.Actor) error {
		id, err := pathID(r)
		if err != nil {
			return err
		}
		var req types.FeedbackRequest
		if err := decodeJSON(w, r, &req, false); err != nil {
			return err
		}
		iv, err := s.svc.SubmitFeedback(r.Context(), actor, id, req.Feedback)
		if err != nil {
			return err
		}
		s.jsonResponse(w, http.StatusOK, types.InterviewResponse{Interview: *iv, Message: "Feedback submitted successfully"})
		return nil
	})
}

func (s *Server) handleDeactivateInterview(w http.ResponseWriter, r *http.Request) {
	s.within(w, r, func(actor interviews.Actor) error {
		id, err := pathID(r)
		if err != nil {
			return err
		}
		if err := s.svc.Deactivate(r.Context(), actor, id); err != nil {
			return err
		}
		s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Interview deleted successfully"})
		return nil
	})
}
