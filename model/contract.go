package model

import (
	"time"
)

// Contract represents a contract document moving through the signature workflow
type Contract struct {
	ID           string            `json:"id"`
	SubjectName  string            `json:"subject_name"`
	SubjectEmail string            `json:"subject_email"`
	Status       string            `json:"status"`
	ArtifactRef  string            `json:"artifact_ref"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Analysis     *Analysis         `json:"analysis,omitempty"`
	EnvelopeID   string            `json:"envelope_id,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Contract status constants. A contract only ever moves forward:
// DRAFT -> ANALYZED -> SENT_FOR_SIGNATURE -> SIGNED -> ARCHIVED
const (
	StatusDraft            = "DRAFT"
	StatusAnalyzed         = "ANALYZED"
	StatusSentForSignature = "SENT_FOR_SIGNATURE"
	StatusSigned           = "SIGNED"
	StatusArchived         = "ARCHIVED"
)

// Analysis holds the structured result of AI contract analysis.
// Degraded marks a placeholder produced when the AI backend failed;
// the workflow treats it as a valid (low-confidence) result.
type Analysis struct {
	Summary    string      `json:"summary"`
	KeyClauses []KeyClause `json:"key_clauses"`
	Degraded   bool        `json:"degraded,omitempty"`
}

// KeyClause is a single clause highlighted by the analysis
type KeyClause struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	RiskLevel   string `json:"risk_level"`
}

// CanSend reports whether a contract in the given status may be
// submitted to the signing provider
func CanSend(status string) bool {
	return status == StatusDraft || status == StatusAnalyzed
}

// CanAnalyze reports whether a contract in the given status may be
// analyzed. Once submitted the record is frozen; re-analysis would move
// a signed contract backwards.
func CanAnalyze(status string) bool {
	return status == StatusDraft || status == StatusAnalyzed
}

// Clone returns a deep copy of the contract so callers can mutate it
// and commit the whole record back atomically
func (c *Contract) Clone() *Contract {
	cp := *c
	if c.Metadata != nil {
		cp.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			cp.Metadata[k] = v
		}
	}
	if c.Analysis != nil {
		a := *c.Analysis
		a.KeyClauses = append([]KeyClause(nil), c.Analysis.KeyClauses...)
		cp.Analysis = &a
	}
	return &cp
}
