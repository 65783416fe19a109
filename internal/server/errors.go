package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/interview-scheduler/internal/interviews"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
	"go.uber.org/zap"
)

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		validation *interviews.ValidationError
		notFound   *interviews.NotFoundError
		forbidden  *interviews.ForbiddenError
		conflict   *interviews.ConflictError
		state      *interviews.InvalidStateError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &conflict), errors.As(err, &state):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// conflictSummary is how an overlapping interview is reported to the caller.
type conflictSummary struct {
	ID            uuid.UUID         `json:"id"`
	Title         string            `json:"title"`
	ScheduledDate time.Time         `json:"scheduled_date"`
	EndDate       time.Time         `json:"end_date"`
	Duration      int               `json:"duration"`
	Status        scheduling.Status `json:"status"`
}

func errorBody(err error) map[string]any {
	body := map[string]any{"error": err.Error()}

	var validation *interviews.ValidationError
	if errors.As(err, &validation) {
		body["field"] = validation.Field
		body["message"] = validation.Message
	}

	var conflict *interviews.ConflictError
	if errors.As(err, &conflict) {
		summaries := make([]conflictSummary, 0, len(conflict.Conflicts))
		for _, iv := range conflict.Conflicts {
			summaries = append(summaries, conflictSummary{
				ID:            iv.ID,
				Title:         iv.Title,
				ScheduledDate: iv.ScheduledDate,
				EndDate:       iv.EndTime(),
				Duration:      iv.Duration,
				Status:        iv.Status,
			})
		}
		body["party"] = conflict.Party
		body["role"] = conflict.Role
		body["start"] = conflict.Start
		body["end"] = conflict.End
		body["conflicts"] = summaries
	}

	var state *interviews.InvalidStateError
	if errors.As(err, &state) {
		body["status"] = state.Status
	}
	return body
}

// writeError maps err to a status and JSON body. Unexpected errors are logged
// and replaced with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		s.errorResponse(w, status, "internal server error")
		return
	}
	s.jsonResponse(w, status, errorBody(err))
}
