// Package schemas embeds the JSON Schemas for structured payloads accepted by the API.
package schemas

import "embed"

// FS holds every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS

// Schema file names.
const (
	RecruiterFeedback = "recruiter_feedback.schema.json"
	CandidateFeedback = "candidate_feedback.schema.json"
)
