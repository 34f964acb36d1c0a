package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// GradeStatus is the lifecycle state of a grade job.
type GradeStatus string

const (
	GradeStatusPending   GradeStatus = "pending"
	GradeStatusCloning   GradeStatus = "cloning"
	GradeStatusAnalyzing GradeStatus = "analyzing"
	GradeStatusGrading   GradeStatus = "grading"
	GradeStatusCompleted GradeStatus = "completed"
	GradeStatusFailed    GradeStatus = "failed"
)

func (s GradeStatus) IsTerminal() bool {
	return s == GradeStatusCompleted || s == GradeStatusFailed
}

func (s GradeStatus) String() string {
	return string(s)
}

// TaskStatus is the outcome bucket for one graded task.
type TaskStatus string

const (
	TaskStatusPassed  TaskStatus = "passed"
	TaskStatusPartial TaskStatus = "partial"
	TaskStatusFailed  TaskStatus = "failed"
)

func (s TaskStatus) String() string {
	return string(s)
}

// GradeTier is the Korean-labeled bucket derived from the overall
// percentage (§4.2).
type GradeTier string

const (
	GradeTierExcellent GradeTier = "우수"
	GradeTierGood      GradeTier = "양호"
	GradeTierAverage   GradeTier = "보통"
	GradeTierPoor      GradeTier = "미흡"
	GradeTierFail      GradeTier = "불합격"
)

func (t GradeTier) String() string {
	return string(t)
}

// TierForPercentage implements the boundary table in §4.2, exactly at
// 40/60/75/90.
func TierForPercentage(percentage int) GradeTier {
	switch {
	case percentage >= 90:
		return GradeTierExcellent
	case percentage >= 75:
		return GradeTierGood
	case percentage >= 60:
		return GradeTierAverage
	case percentage >= 40:
		return GradeTierPoor
	default:
		return GradeTierFail
	}
}

// Criterion is one atomic acceptance statement for a task, weighted and
// checked individually. Weight defaults to 1.0 when zero.
type Criterion struct {
	ID          string  `json:"id,omitempty" validate:"omitempty"`
	Description string  `json:"description" validate:"required"`
	Weight      float64 `json:"weight" validate:"gte=0"`
}

// EffectiveWeight returns Weight, substituting the 1.0 default when unset.
func (c Criterion) EffectiveWeight() float64 {
	if c.Weight <= 0 {
		return 1.0
	}
	return c.Weight
}

// GradeTask is one unit of submission work graded against its Criteria.
type GradeTask struct {
	Title            string      `json:"title" validate:"required"`
	Description      string      `json:"description,omitempty"`
	Criteria         []Criterion `json:"acceptance_criteria" validate:"required,min=1,dive"`
	EstimatedMinutes int         `json:"estimated_minutes,omitempty" validate:"omitempty,gt=0"`
}

// CodeRef points a CriterionResult at a specific line range in the
// reviewed workspace. LineStart must be <= LineEnd; File must be relative
// and may not escape the workspace root.
type CodeRef struct {
	File      string `json:"file"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
	Snippet   string `json:"snippet,omitempty"`
}

// CriterionResult is the verdict for one Criterion, derived from a single
// model response. Confidence is clamped to [0,1]; on total model failure,
// Passed=false, Confidence=0, Evidence holds the error message and
// References is empty (§3 invariant).
type CriterionResult struct {
	Description string    `json:"description"`
	Passed      bool      `json:"passed"`
	Confidence  float64   `json:"confidence"`
	Evidence    string    `json:"evidence"`
	References  []CodeRef `json:"references,omitempty"`
	Weight      float64   `json:"weight"`
}

// TaskGradeResult is the aggregated outcome for one GradeTask. CriteriaResults
// preserves input criterion order regardless of completion order.
type TaskGradeResult struct {
	Title            string             `json:"title"`
	Score            float64            `json:"score"`
	Status           TaskStatus         `json:"status"`
	CriteriaResults  []CriterionResult  `json:"criteria_results"`
	PassedCount      int                `json:"passed_count"`
	TotalCount       int                `json:"total_count"`
}

// ModelUsage is a per-job token accounting record (§4.4) carried on
// ReviewJob and GradeJob. The orchestrators do not fill it in and no event
// payload includes it, so it stays zero.
type ModelUsage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	Provider         string `json:"provider,omitempty"`
	Model            string `json:"model,omitempty"`
}

// GradeConfig carries the per-grade-request overrides listed in §6. Zero
// values mean "use the default".
type GradeConfig struct {
	MaxFiles            int `json:"max_files,omitempty" validate:"omitempty,gt=0"`
	MaxCharsPerFile      int `json:"max_chars_per_file,omitempty" validate:"omitempty,gt=0"`
	MaxParallelTasks    int `json:"max_parallel_tasks,omitempty" validate:"omitempty,gt=0"`
	MaxParallelCriteria int `json:"max_parallel_criteria,omitempty" validate:"omitempty,gt=0"`
}

// GradeInput is the request body accepted by GradeOrchestrator.Start.
type GradeInput struct {
	RepoURL       string       `json:"repo_url" validate:"required"`
	Tasks         []GradeTask  `json:"tasks" validate:"required,min=1,dive"`
	Config        *GradeConfig `json:"config,omitempty"`
	CurriculumID  string       `json:"curriculum_id,omitempty"`
	TaskID        string       `json:"task_id,omitempty"`
}

// GradeJob is the terminal-or-in-progress record for one grade invocation.
type GradeJob struct {
	ID           string            `json:"id"`
	RepoURL      string            `json:"repo_url"`
	CurriculumID string            `json:"curriculum_id,omitempty"`
	TaskID       string            `json:"task_id,omitempty"`
	Status       GradeStatus       `json:"status"`
	Tasks        []TaskGradeResult `json:"tasks,omitempty"`
	OverallScore float64           `json:"overall_score"`
	Percentage   int               `json:"percentage"`
	Grade        GradeTier         `json:"grade,omitempty"`
	Summary      string            `json:"summary,omitempty"`
	Error        string            `json:"error,omitempty"`
	ErrorKind    string            `json:"error_kind,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	CompletedAt  time.Time         `json:"completed_at,omitempty"`
	Usage        ModelUsage        `json:"model_usage,omitempty"`
}

// Snapshot returns a shallow copy safe to hand to a caller outside the
// owning goroutine's lock.
func (j *GradeJob) Snapshot() GradeJob {
	cp := *j
	cp.Tasks = append([]TaskGradeResult(nil), j.Tasks...)
	return cp
}

// RecordID, RecordStatus, RecordCreatedAt and Clone satisfy the registry's
// Record constraint so ReviewJob and GradeJob can share one generic
// implementation.
func (j GradeJob) RecordID() string          { return j.ID }
func (j GradeJob) RecordStatus() string      { return j.Status.String() }
func (j GradeJob) RecordCreatedAt() time.Time { return j.CreatedAt }
func (j GradeJob) Clone() GradeJob           { return (&j).Snapshot() }

var validate = validator.New()

// Validate runs struct-tag validation over the request and translates the
// first failure into a human message. Empty Tasks and negative weights
// are both surfaced here (a zero weight means the 1.0 default), matching
// §4.2's "fails before cloning" rule.
func (in GradeInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("field %s failed validation %q", fe.Namespace(), fe.Tag())
		}
		return err
	}
	for i, task := range in.Tasks {
		for j, c := range task.Criteria {
			if c.Weight < 0 {
				return fmt.Errorf("task[%d].criteria[%d]: weight must be >= 0", i, j)
			}
		}
	}
	return nil
}
