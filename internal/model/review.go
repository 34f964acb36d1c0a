package model

import "time"

// ReviewStatus is the lifecycle state of a review job.
type ReviewStatus string

const (
	ReviewStatusPending   ReviewStatus = "pending"
	ReviewStatusCloning   ReviewStatus = "cloning"
	ReviewStatusRunning   ReviewStatus = "running"
	ReviewStatusCompleted ReviewStatus = "completed"
	ReviewStatusFailed    ReviewStatus = "failed"
)

// IsTerminal reports whether the status will never transition again.
func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewStatusCompleted || s == ReviewStatusFailed
}

func (s ReviewStatus) String() string {
	return string(s)
}

// Severity is the level of a Diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) String() string {
	return string(s)
}

// Diagnostic is a machine-checkable finding about one file/line produced by
// a checker. FilePath is always relative to the workspace root; Line is
// 1-based.
type Diagnostic struct {
	Checker  string   `json:"checker"`
	Severity Severity `json:"severity"`
	FilePath string   `json:"file_path"`
	Line     int      `json:"line"`
	Column   int      `json:"column,omitempty"`
	Message  string   `json:"message"`
	Rule     string   `json:"rule"`
}

// CodeReference points a Suggestion at a specific region of a file in the
// reviewed workspace.
type CodeReference struct {
	FilePath string `json:"file_path"`
	Line     int    `json:"line,omitempty"`
	Snippet  string `json:"snippet,omitempty"`
}

// Suggestion is a free-form, reviewer-produced recommendation spanning the
// repository. Body must be non-empty.
type Suggestion struct {
	Reviewer   string          `json:"reviewer"`
	Category   string          `json:"category"`
	Title      string          `json:"title"`
	Body       string          `json:"body"`
	References []CodeReference `json:"references,omitempty"`
}

// ReviewJob is the terminal-or-in-progress record for one review invocation.
// Diagnostics and Suggestions are only populated once Status is terminal;
// intermediate stages publish them on the event bus only.
type ReviewJob struct {
	ID          string       `json:"id"`
	RepoURL     string       `json:"repo_url"`
	Status      ReviewStatus `json:"status"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	Error       string       `json:"error,omitempty"`
	ErrorKind   string       `json:"error_kind,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt time.Time    `json:"completed_at,omitempty"`
	Usage       ModelUsage   `json:"model_usage,omitempty"`
}

// Snapshot returns a shallow copy safe to hand to a caller outside the
// owning goroutine's lock.
func (j *ReviewJob) Snapshot() ReviewJob {
	cp := *j
	cp.Diagnostics = append([]Diagnostic(nil), j.Diagnostics...)
	cp.Suggestions = append([]Suggestion(nil), j.Suggestions...)
	return cp
}

// RecordID, RecordStatus, RecordCreatedAt and Clone satisfy the registry's
// Record constraint so ReviewJob and GradeJob can share one generic
// implementation.
func (j ReviewJob) RecordID() string          { return j.ID }
func (j ReviewJob) RecordStatus() string      { return j.Status.String() }
func (j ReviewJob) RecordCreatedAt() time.Time { return j.CreatedAt }
func (j ReviewJob) Clone() ReviewJob           { return (&j).Snapshot() }
