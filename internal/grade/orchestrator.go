package grade

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/semaphore"

	"github.com/ternarybob/reviewsvc/internal/apperr"
	"github.com/ternarybob/reviewsvc/internal/codecontext"
	"github.com/ternarybob/reviewsvc/internal/concurrency"
	"github.com/ternarybob/reviewsvc/internal/eventbus"
	"github.com/ternarybob/reviewsvc/internal/model"
	"github.com/ternarybob/reviewsvc/internal/modelclient"
	"github.com/ternarybob/reviewsvc/internal/registry"
	"github.com/ternarybob/reviewsvc/internal/workspace"
)

// Options configures an Orchestrator's defaults (§6).
type Options struct {
	TTL                 time.Duration
	SweepIntervalSecs   int
	MaxFiles            int
	MaxCharsPerFile     int
	MaxParallelTasks    int
	MaxParallelCriteria int
}

// Orchestrator drives the grade pipeline described in §4.2.
type Orchestrator struct {
	registry    *registry.Registry[model.GradeJob]
	workspace   *workspace.Manager
	modelClient modelclient.Client
	opts        Options
	logger      arbor.ILogger
}

func classify(status string) registry.Class {
	switch model.GradeStatus(status) {
	case model.GradeStatusCompleted:
		return registry.ClassCompleted
	case model.GradeStatusFailed:
		return registry.ClassFailed
	default:
		return registry.ClassActive
	}
}

// New constructs an Orchestrator.
func New(ws *workspace.Manager, modelClient modelclient.Client, opts Options, logger arbor.ILogger) *Orchestrator {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = 50
	}
	if opts.MaxCharsPerFile <= 0 {
		opts.MaxCharsPerFile = 4000
	}
	if opts.MaxParallelTasks <= 0 {
		opts.MaxParallelTasks = 3
	}
	if opts.MaxParallelCriteria <= 0 {
		opts.MaxParallelCriteria = 5
	}
	return &Orchestrator{
		registry:    registry.New[model.GradeJob]("grade", opts.TTL, opts.SweepIntervalSecs, classify, logger),
		workspace:   ws,
		modelClient: modelClient,
		opts:        opts,
		logger:      logger,
	}
}

// StartSweep begins the TTL sweep on the registry.
func (o *Orchestrator) StartSweep() error { return o.registry.StartSweep(o.opts.SweepIntervalSecs) }

// Stop stops the TTL sweep.
func (o *Orchestrator) Stop() { o.registry.Stop() }

// Start registers a new grade job and returns its id; input is validated
// on the spawned goroutine, where an empty tasks list fails the job before
// cloning, per §4.2.
func (o *Orchestrator) Start(input model.GradeInput) string {
	id := model.NewGradeID()
	job := model.GradeJob{
		ID:           id,
		RepoURL:      input.RepoURL,
		CurriculumID: input.CurriculumID,
		TaskID:       input.TaskID,
		Status:       model.GradeStatusPending,
		CreatedAt:    time.Now(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := o.registry.Create(job, cancel)

	concurrency.SafeGo(o.logger, "grade:"+id, func() {
		o.run(ctx, id, input, bus)
	})

	return id
}

// Get returns the current snapshot for id.
func (o *Orchestrator) Get(id string) (model.GradeJob, bool) { return o.registry.Get(id) }

// Subscribe returns the event stream for id, or false if unknown/reaped.
func (o *Orchestrator) Subscribe(id string) (<-chan model.Event, bool) {
	bus, ok := o.registry.Bus(id)
	if !ok {
		return nil, false
	}
	return bus.Subscribe(), true
}

// Cancel requests cancellation of an in-flight job.
func (o *Orchestrator) Cancel(id string) bool { return o.registry.Cancel(id) }

func (o *Orchestrator) run(ctx context.Context, id string, input model.GradeInput, bus *eventbus.Bus) {
	start := time.Now()

	totalCriteria := 0
	for _, task := range input.Tasks {
		totalCriteria += len(task.Criteria)
	}
	bus.Publish(model.NewEvent(start, id, model.EventGradeStarted, map[string]any{
		"task_count":     len(input.Tasks),
		"total_criteria": totalCriteria,
	}))

	if err := input.Validate(); err != nil {
		o.fail(id, bus, apperr.Wrap(apperr.KindInvalidInput, err.Error(), err))
		return
	}

	var handle *workspace.Handle
	defer func() {
		if handle != nil {
			handle.Release()
		}
	}()

	if err := o.checkCancelled(ctx, id, bus, handle); err != nil {
		return
	}

	o.registry.Update(id, func(j *model.GradeJob) { j.Status = model.GradeStatusCloning })
	bus.Publish(model.NewEvent(time.Now(), id, model.EventCloningStarted, nil))

	cloneStart := time.Now()
	if err := o.workspace.CheckExists(ctx, input.RepoURL); err != nil {
		o.fail(id, bus, err)
		return
	}
	h, err := o.workspace.Acquire(ctx, id, input.RepoURL)
	if err != nil {
		o.fail(id, bus, err)
		return
	}
	handle = h
	bus.Publish(model.NewEvent(time.Now(), id, model.EventCloningCompleted, map[string]any{
		"duration_ms": time.Since(cloneStart).Milliseconds(),
	}))

	if err := o.checkCancelled(ctx, id, bus, handle); err != nil {
		return
	}

	o.registry.Update(id, func(j *model.GradeJob) { j.Status = model.GradeStatusAnalyzing })
	bus.Publish(model.NewEvent(time.Now(), id, model.EventAnalysisStarted, nil))

	cc, totalLines, err := codecontext.Build(handle.Root, input.RepoURL, codecontext.Options{
		MaxFiles:        o.effectiveMaxFiles(input),
		MaxCharsPerFile: o.effectiveMaxCharsPerFile(input),
	})
	handle.Release()
	if err != nil {
		o.fail(id, bus, apperr.Wrap(apperr.KindAnalyze, "workspace analysis failed", err))
		return
	}
	bus.Publish(model.NewEvent(time.Now(), id, model.EventAnalysisCompleted, map[string]any{
		"file_count":  len(cc.Files),
		"total_lines": totalLines,
	}))

	if err := o.checkCancelled(ctx, id, bus, nil); err != nil {
		return
	}

	o.registry.Update(id, func(j *model.GradeJob) { j.Status = model.GradeStatusGrading })
	taskResults, cancelled := o.gradeTasks(ctx, id, cc, input, bus)
	if cancelled {
		o.fail(id, bus, apperr.Cancelled())
		return
	}

	overall := AggregateOverall(taskResults)
	o.registry.Complete(id, func(j *model.GradeJob) {
		j.Status = model.GradeStatusCompleted
		j.Tasks = taskResults
		j.OverallScore = overall.Score
		j.Percentage = overall.Percentage
		j.Grade = overall.Tier
		j.Summary = overall.Summary
		j.CompletedAt = time.Now()
	})
	bus.Publish(model.NewEvent(time.Now(), id, model.EventGradeCompleted, map[string]any{
		"overall_score": overall.Score,
		"percentage":    overall.Percentage,
		"grade":         string(overall.Tier),
		"summary":       overall.Summary,
	}))
	_ = time.Since(start)
}

func (o *Orchestrator) effectiveMaxFiles(input model.GradeInput) int {
	if input.Config != nil && input.Config.MaxFiles > 0 {
		return input.Config.MaxFiles
	}
	return o.opts.MaxFiles
}

func (o *Orchestrator) effectiveMaxCharsPerFile(input model.GradeInput) int {
	if input.Config != nil && input.Config.MaxCharsPerFile > 0 {
		return input.Config.MaxCharsPerFile
	}
	return o.opts.MaxCharsPerFile
}

func (o *Orchestrator) effectiveMaxParallelTasks(input model.GradeInput) int {
	if input.Config != nil && input.Config.MaxParallelTasks > 0 {
		return input.Config.MaxParallelTasks
	}
	return o.opts.MaxParallelTasks
}

func (o *Orchestrator) effectiveMaxParallelCriteria(input model.GradeInput) int {
	if input.Config != nil && input.Config.MaxParallelCriteria > 0 {
		return input.Config.MaxParallelCriteria
	}
	return o.opts.MaxParallelCriteria
}

// gradeTasks fans out over tasks then, within each task, over criteria,
// with two independent semaphores (§4.2 step 4, §5). It returns
// cancelled=true if ctx was cancelled before all tasks completed.
func (o *Orchestrator) gradeTasks(ctx context.Context, id string, cc *codecontext.Context, input model.GradeInput, bus *eventbus.Bus) ([]model.TaskGradeResult, bool) {
	results := make([]model.TaskGradeResult, len(input.Tasks))
	taskSem := semaphore.NewWeighted(int64(o.effectiveMaxParallelTasks(input)))
	maxParallelCriteria := int64(o.effectiveMaxParallelCriteria(input))
	checker := &CriteriaChecker{Client: o.modelClient}

	var wg sync.WaitGroup
	for taskIndex, task := range input.Tasks {
		wg.Add(1)
		go func(taskIndex int, task model.GradeTask) {
			defer wg.Done()
			defer concurrency.Guard(o.logger, "grade:task:"+id)
			if err := taskSem.Acquire(ctx, 1); err != nil {
				return
			}
			defer taskSem.Release(1)

			bus.Publish(model.NewEvent(time.Now(), id, model.EventTaskStarted, map[string]any{
				"task_index":     taskIndex,
				"task_title":     task.Title,
				"criteria_count": len(task.Criteria),
			}))

			// Each task gets its own criterion semaphore so the per-task
			// budget (§5) is not shared across concurrently running tasks.
			criterionSem := semaphore.NewWeighted(maxParallelCriteria)
			criterionResults := make([]model.CriterionResult, len(task.Criteria))
			var cwg sync.WaitGroup
			for critIndex, criterion := range task.Criteria {
				cwg.Add(1)
				go func(critIndex int, criterion model.Criterion) {
					defer cwg.Done()
					defer concurrency.Guard(o.logger, "grade:criterion:"+id)
					if err := criterionSem.Acquire(ctx, 1); err != nil {
						return
					}
					defer criterionSem.Release(1)

					result := checker.Check(ctx, cc, task, criterion)
					criterionResults[critIndex] = result
					bus.Publish(model.NewEvent(time.Now(), id, model.EventCriterionChecked, map[string]any{
						"task_index":      taskIndex,
						"criterion_index": critIndex,
						"passed":          result.Passed,
						"confidence":      result.Confidence,
					}))
				}(critIndex, criterion)
			}
			cwg.Wait()

			taskResult := AggregateTask(task.Title, criterionResults)
			results[taskIndex] = taskResult
			bus.Publish(model.NewEvent(time.Now(), id, model.EventTaskCompleted, map[string]any{
				"task_index":   taskIndex,
				"score":        taskResult.Score,
				"status":       string(taskResult.Status),
				"passed_count": taskResult.PassedCount,
				"total_count":  taskResult.TotalCount,
			}))
		}(taskIndex, task)
	}
	wg.Wait()

	return results, ctx.Err() != nil
}

func (o *Orchestrator) checkCancelled(ctx context.Context, id string, bus *eventbus.Bus, handle *workspace.Handle) error {
	if ctx.Err() == nil {
		return nil
	}
	if handle != nil {
		handle.Release()
	}
	o.fail(id, bus, apperr.Cancelled())
	return ctx.Err()
}

func (o *Orchestrator) fail(id string, bus *eventbus.Bus, err error) {
	msg := apperr.MessageOf(err)
	kind := apperr.KindOf(err)
	o.registry.Complete(id, func(j *model.GradeJob) {
		j.Status = model.GradeStatusFailed
		j.Error = msg
		j.ErrorKind = kind.String()
		j.CompletedAt = time.Now()
	})
	bus.Publish(model.NewEvent(time.Now(), id, model.EventGradeFailed, map[string]any{"error": msg, "kind": kind.String()}))
}
