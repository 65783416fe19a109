package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/interview-scheduler/internal/interviews"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
	"golang.org/x/sync/errgroup"
)

var _ interviews.Store = (*DB)(nil)

const interviewColumns = `id, title, recruiter_id, candidate_id, job_id, application_id,
	scheduled_date, duration, time_zone, format, interview_type, interview_stage,
	status, recruiter_confirmed, candidate_confirmed, location, video_call,
	description, requirements, notes, interviewers, reschedule_history,
	cancellation, feedback, is_active, created_at, updated_at`

// endExpr is the end of an interview's occupied interval.
const endExpr = "scheduled_date + duration * INTERVAL '1 minute'"

// Create inserts a new interview.
func (db *DB) Create(ctx context.Context, iv *scheduling.Interview) error {
	doc, err := encodeInterview(iv)
	if err != nil {
		return err
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO interviews (`+interviewColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		         $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)`,
		iv.ID, iv.Title, iv.RecruiterID, iv.CandidateID, iv.JobID, iv.ApplicationID,
		iv.ScheduledDate, iv.Duration, iv.TimeZone, string(iv.Format), string(iv.InterviewType), string(iv.InterviewStage),
		string(iv.Status), iv.RecruiterConfirmed, iv.CandidateConfirmed, doc.location, doc.videoCall,
		iv.Description, iv.Requirements, iv.Notes, doc.interviewers, doc.history,
		doc.cancellation, doc.feedback, iv.IsActive, iv.CreatedAt, iv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert interview: %w", err)
	}
	return nil
}

// Get returns the interview or (nil, nil) when missing.
func (db *DB) Get(ctx context.Context, id uuid.UUID) (*scheduling.Interview, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id)
	iv, err := scanInterview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	return iv, nil
}

// Update overwrites the mutable columns of an interview.
func (db *DB) Update(ctx context.Context, iv *scheduling.Interview) error {
	doc, err := encodeInterview(iv)
	if err != nil {
		return err
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE interviews SET
		    title = $2, scheduled_date = $3, duration = $4, status = $5,
		    recruiter_confirmed = $6, candidate_confirmed = $7,
		    interviewers = $8, reschedule_history = $9, cancellation = $10,
		    feedback = $11, is_active = $12, updated_at = $13
		 WHERE id = $1`,
		iv.ID, iv.Title, iv.ScheduledDate, iv.Duration, string(iv.Status),
		iv.RecruiterConfirmed, iv.CandidateConfirmed,
		doc.interviewers, doc.history, doc.cancellation,
		doc.feedback, iv.IsActive, iv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update interview: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("interview %s does not exist", iv.ID)
	}
	return nil
}

// FindConflicts returns the blocking interviews that overlap q, earliest first.
func (db *DB) FindConflicts(ctx context.Context, q scheduling.ConflictQuery) ([]scheduling.Interview, error) {
	where, args, err := conflictFilter(q)
	if err != nil {
		return nil, err
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE `+where+` ORDER BY scheduled_date`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conflicts: %w", err)
	}
	return collectInterviews(rows)
}

// List returns one page of the party's interviews and the total match count.
func (db *DB) List(ctx context.Context, q scheduling.ListQuery) ([]scheduling.Interview, int, error) {
	q = q.Normalize()
	where, args, err := listFilter(q)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM interviews WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count interviews: %w", err)
	}

	order := "DESC"
	if q.Upcoming {
		order = "ASC"
	}
	n := len(args)
	args = append(args, q.Limit, q.Offset())
	rows, err := db.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM interviews WHERE %s ORDER BY scheduled_date %s LIMIT $%d OFFSET $%d`,
		interviewColumns, where, order, n+1, n+2,
	), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list interviews: %w", err)
	}
	ivs, err := collectInterviews(rows)
	if err != nil {
		return nil, 0, err
	}
	return ivs, total, nil
}

// Stats aggregates the party's active interviews. The breakdown and the
// counters are independent queries and run concurrently.
func (db *DB) Stats(ctx context.Context, q scheduling.StatsQuery) (*scheduling.Stats, error) {
	col, err := roleColumn(q.Role)
	if err != nil {
		return nil, err
	}
	weekStart, weekEnd := scheduling.WeekBounds(q.Now)
	st := &scheduling.Stats{StatusBreakdown: []scheduling.StatusCount{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := db.pool.Query(gctx, fmt.Sprintf(
			`SELECT status, COUNT(*) FROM interviews
			 WHERE is_active AND %s = $1
			 GROUP BY status ORDER BY status`, col), q.PartyID)
		if err != nil {
			return fmt.Errorf("failed to query status breakdown: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var status string
			var count int
			if err := rows.Scan(&status, &count); err != nil {
				return err
			}
			st.StatusBreakdown = append(st.StatusBreakdown, scheduling.StatusCount{Status: scheduling.Status(status), Count: count})
		}
		return rows.Err()
	})
	g.Go(func() error {
		err := db.pool.QueryRow(gctx, fmt.Sprintf(
			`SELECT
			    COUNT(*) FILTER (WHERE scheduled_date >= $2 AND status = ANY($3)),
			    COUNT(*) FILTER (WHERE scheduled_date >= $4 AND scheduled_date <= $5),
			    COUNT(*)
			 FROM interviews
			 WHERE is_active AND %s = $1`, col),
			q.PartyID, q.Now, statusStrings(scheduling.UpcomingStatuses), weekStart, weekEnd,
		).Scan(&st.UpcomingInterviews, &st.ThisWeekInterviews, &st.TotalInterviews)
		if err != nil {
			return fmt.Errorf("failed to query interview counts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return st, nil
}

// conflictFilter builds the WHERE clause shared with the in-memory predicate:
// active, blocking status, same party, not excluded, overlapping [Start, End).
func conflictFilter(q scheduling.ConflictQuery) (string, []any, error) {
	conds := []string{"is_active", "status = ANY($1)"}
	args := []any{statusStrings(scheduling.BlockingStatuses), q.PartyID, q.End, q.Start}

	if q.Role == scheduling.AnyRole {
		conds = append(conds, "(recruiter_id = $2 OR candidate_id = $2)")
	} else {
		col, err := roleColumn(q.Role)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, col+" = $2")
	}
	conds = append(conds, "scheduled_date < $3", endExpr+" > $4")

	if q.ExcludeID != nil {
		args = append(args, *q.ExcludeID)
		conds = append(conds, fmt.Sprintf("id <> $%d", len(args)))
	}
	return strings.Join(conds, " AND "), args, nil
}

// listFilter builds the WHERE clause for a listing, ignoring paging.
func listFilter(q scheduling.ListQuery) (string, []any, error) {
	col, err := roleColumn(q.Role)
	if err != nil {
		return "", nil, err
	}
	conds := []string{"is_active", col + " = $1"}
	args := []any{q.PartyID}

	if st := q.Statuses(); st != nil {
		args = append(args, statusStrings(st))
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if q.Upcoming {
		args = append(args, q.Now)
		conds = append(conds, fmt.Sprintf("scheduled_date >= $%d", len(args)))
		if !q.Horizon.IsZero() {
			args = append(args, q.Horizon)
			conds = append(conds, fmt.Sprintf("scheduled_date <= $%d", len(args)))
		}
	}
	return strings.Join(conds, " AND "), args, nil
}

func roleColumn(role scheduling.PartyRole) (string, error) {
	switch role {
	case scheduling.RoleRecruiter:
		return "recruiter_id", nil
	case scheduling.RoleCandidate:
		return "candidate_id", nil
	}
	return "", fmt.Errorf("no party column for role %q", role)
}

func statusStrings(statuses []scheduling.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// interviewDoc holds the JSONB-encoded nested fields of an interview.
type interviewDoc struct {
	location     []byte
	videoCall    []byte
	interviewers []byte
	history      []byte
	cancellation []byte
	feedback     []byte
}

func encodeInterview(iv *scheduling.Interview) (interviewDoc, error) {
	var doc interviewDoc
	var err error

	if iv.Location != nil {
		if doc.location, err = json.Marshal(iv.Location); err != nil {
			return doc, fmt.Errorf("failed to marshal location: %w", err)
		}
	}
	if iv.VideoCall != nil {
		if doc.videoCall, err = json.Marshal(iv.VideoCall); err != nil {
			return doc, fmt.Errorf("failed to marshal video call: %w", err)
		}
	}
	if iv.Cancellation != nil {
		if doc.cancellation, err = json.Marshal(iv.Cancellation); err != nil {
			return doc, fmt.Errorf("failed to marshal cancellation: %w", err)
		}
	}

	interviewers := iv.Interviewers
	if interviewers == nil {
		interviewers = []scheduling.Interviewer{}
	}
	if doc.interviewers, err = json.Marshal(interviewers); err != nil {
		return doc, fmt.Errorf("failed to marshal interviewers: %w", err)
	}
	history := iv.RescheduleHistory
	if history == nil {
		history = []scheduling.RescheduleEntry{}
	}
	if doc.history, err = json.Marshal(history); err != nil {
		return doc, fmt.Errorf("failed to marshal reschedule history: %w", err)
	}
	if doc.feedback, err = json.Marshal(iv.Feedback); err != nil {
		return doc, fmt.Errorf("failed to marshal feedback: %w", err)
	}
	return doc, nil
}

func scanInterview(row pgx.Row) (*scheduling.Interview, error) {
	var iv scheduling.Interview
	var format, ivType, stage, status string
	var doc interviewDoc

	err := row.Scan(
		&iv.ID, &iv.Title, &iv.RecruiterID, &iv.CandidateID, &iv.JobID, &iv.ApplicationID,
		&iv.ScheduledDate, &iv.Duration, &iv.TimeZone, &format, &ivType, &stage,
		&status, &iv.RecruiterConfirmed, &iv.CandidateConfirmed, &doc.location, &doc.videoCall,
		&iv.Description, &iv.Requirements, &iv.Notes, &doc.interviewers, &doc.history,
		&doc.cancellation, &doc.feedback, &iv.IsActive, &iv.CreatedAt, &iv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	iv.Format = scheduling.Format(format)
	iv.InterviewType = scheduling.InterviewType(ivType)
	iv.InterviewStage = scheduling.Stage(stage)
	iv.Status = scheduling.Status(status)
	iv.ScheduledDate = iv.ScheduledDate.UTC()

	// Parse JSONB fields
	if doc.location != nil {
		iv.Location = &scheduling.Location{}
		if err := json.Unmarshal(doc.location, iv.Location); err != nil {
			return nil, fmt.Errorf("failed to decode location: %w", err)
		}
	}
	if doc.videoCall != nil {
		iv.VideoCall = &scheduling.VideoCall{}
		if err := json.Unmarshal(doc.videoCall, iv.VideoCall); err != nil {
			return nil, fmt.Errorf("failed to decode video call: %w", err)
		}
	}
	if doc.cancellation != nil {
		iv.Cancellation = &scheduling.Cancellation{}
		if err := json.Unmarshal(doc.cancellation, iv.Cancellation); err != nil {
			return nil, fmt.Errorf("failed to decode cancellation: %w", err)
		}
	}
	if err := json.Unmarshal(doc.interviewers, &iv.Interviewers); err != nil {
		return nil, fmt.Errorf("failed to decode interviewers: %w", err)
	}
	if err := json.Unmarshal(doc.history, &iv.RescheduleHistory); err != nil {
		return nil, fmt.Errorf("failed to decode reschedule history: %w", err)
	}
	if err := json.Unmarshal(doc.feedback, &iv.Feedback); err != nil {
		return nil, fmt.Errorf("failed to decode feedback: %w", err)
	}
	return &iv, nil
}

func collectInterviews(rows pgx.Rows) ([]scheduling.Interview, error) {
	defer rows.Close()
	out := []scheduling.Interview{}
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		out = append(out, *iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interviews: %w", err)
	}
	return out, nil
}
