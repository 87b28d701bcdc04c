package model

import "time"

// SourceReport is the per-source breakdown inside a run report.
type SourceReport struct {
	SourceID      string `json:"source_id"`
	Candidates    int    `json:"candidates"`
	Rejected      int    `json:"rejected"`
	Duplicates    int    `json:"duplicates"`
	Admitted      int    `json:"admitted"`
	AnswerKeySize int    `json:"answer_key_size"`
	Failed        bool   `json:"failed"`
	FailureReason string `json:"failure_reason,omitempty"`
	NoAnswerKey   bool   `json:"no_answer_key"`
}

// RunReport aggregates the counters of one import run. A run always
// completes and reports counts; inputs are never silently lost between
// "seen" and "admitted".
type RunReport struct {
	SourcesProcessed  int                     `json:"sources_processed"`
	SourcesFailed     int                     `json:"sources_failed"`
	CandidatesFound   int                     `json:"candidates_found"`
	RecordsRejected   int                     `json:"records_rejected"`
	DuplicatesDropped int                     `json:"duplicates_dropped"`
	RecordsAdmitted   int                     `json:"records_admitted"`
	Sources           map[string]SourceReport `json:"sources"`
	StartedAt         time.Time               `json:"started_at"`
	FinishedAt        time.Time               `json:"finished_at"`
}

// NewRunReport returns an empty report with the source map initialized.
func NewRunReport() *RunReport {
	return &RunReport{
		Sources:   make(map[string]SourceReport),
		StartedAt: time.Now().UTC(),
	}
}

// AddSource folds one source's outcome into the run totals.
func (r *RunReport) AddSource(sr SourceReport) {
	r.Sources[sr.SourceID] = sr
	if sr.Failed {
		r.SourcesFailed++
		return
	}
	r.SourcesProcessed++
	r.CandidatesFound += sr.Candidates
	r.RecordsRejected += sr.Rejected
	r.DuplicatesDropped += sr.Duplicates
	r.RecordsAdmitted += sr.Admitted
}
