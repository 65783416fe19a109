package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation values for recruiter feedback.
const (
	RecommendHire      = "hire"
	RecommendNoHire    = "no-hire"
	RecommendMaybe     = "maybe"
	RecommendNextRound = "next-round"
)

// Experience values for candidate feedback.
const (
	ExperienceExcellent = "excellent"
	ExperienceGood      = "good"
	ExperienceAverage   = "average"
	ExperiencePoor      = "poor"
)

// Feedback holds the per-role feedback side channel.
type Feedback struct {
	Recruiter *RecruiterFeedback `json:"recruiter_feedback,omitempty"`
	Candidate *CandidateFeedback `json:"candidate_feedback,omitempty"`
}

func (f Feedback) clone() Feedback {
	out := Feedback{}
	if f.Recruiter != nil {
		r := *f.Recruiter
		out.Recruiter = &r
	}
	if f.Candidate != nil {
		c := *f.Candidate
		out.Candidate = &c
	}
	return out
}

// RecruiterFeedback is the evaluation submitted by the recruiter.
// Scores are 1-5; zero means not given.
type RecruiterFeedback struct {
	Rating          int       `json:"rating,omitempty"`
	TechnicalSkills int       `json:"technical_skills,omitempty"`
	Communication   int       `json:"communication,omitempty"`
	CulturalFit     int       `json:"cultural_fit,omitempty"`
	Comments        string    `json:"comments,omitempty"`
	Recommendation  string    `json:"recommendation"`
	SubmittedAt     time.Time `json:"submitted_at"`
	SubmittedBy     uuid.UUID `json:"submitted_by"`
}

// CandidateFeedback is the candidate's view of the interview.
type CandidateFeedback struct {
	Rating      int       `json:"rating,omitempty"`
	Experience  string    `json:"experience"`
	Comments    string    `json:"comments,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SubmitRecruiterFeedback replaces the recruiter feedback. It does not touch status.
func SubmitRecruiterFeedback(iv Interview, fb RecruiterFeedback, submittedBy uuid.UUID, now time.Time) Interview {
	out := iv.Clone()
	if fb.Recommendation == "" {
		fb.Recommendation = RecommendMaybe
	}
	fb.SubmittedAt = now
	fb.SubmittedBy = submittedBy
	out.Feedback.Recruiter = &fb
	out.UpdatedAt = now
	return out
}

// SubmitCandidateFeedback replaces the candidate feedback. It does not touch status.
func SubmitCandidateFeedback(iv Interview, fb CandidateFeedback, now time.Time) Interview {
	out := iv.Clone()
	if fb.Experience == "" {
		fb.Experience = ExperienceGood
	}
	fb.SubmittedAt = now
	out.Feedback.Candidate = &fb
	out.UpdatedAt = now
	return out
}
