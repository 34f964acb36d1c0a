// Package review implements the ReviewOrchestrator pipeline described in
// §4.1: create, validate & clone, rule-based checkers, AI validators, AI
// reviewers, complete.
package review

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/semaphore"

	"github.com/ternarybob/reviewsvc/internal/apperr"
	"github.com/ternarybob/reviewsvc/internal/checkers"
	"github.com/ternarybob/reviewsvc/internal/codecontext"
	"github.com/ternarybob/reviewsvc/internal/concurrency"
	"github.com/ternarybob/reviewsvc/internal/eventbus"
	"github.com/ternarybob/reviewsvc/internal/model"
	"github.com/ternarybob/reviewsvc/internal/modelclient"
	"github.com/ternarybob/reviewsvc/internal/registry"
	"github.com/ternarybob/reviewsvc/internal/reviewers"
	"github.com/ternarybob/reviewsvc/internal/validators"
	"github.com/ternarybob/reviewsvc/internal/workspace"
)

// Options configures an Orchestrator's defaults (§6).
type Options struct {
	TTL                 time.Duration
	SweepIntervalSecs   int
	MaxConcurrentChecks int
}

// Orchestrator drives the review pipeline. The zero value is not usable;
// construct with New.
type Orchestrator struct {
	registry    *registry.Registry[model.ReviewJob]
	workspace   *workspace.Manager
	modelClient modelclient.Client // nil when no provider is configured
	checkers    []checkers.Checker
	validators  []validators.Validator
	reviewers   []reviewers.Reviewer
	opts        Options
	logger      arbor.ILogger
}

func classify(status string) registry.Class {
	switch model.ReviewStatus(status) {
	case model.ReviewStatusCompleted:
		return registry.ClassCompleted
	case model.ReviewStatusFailed:
		return registry.ClassFailed
	default:
		return registry.ClassActive
	}
}

// New constructs an Orchestrator. modelClient may be nil, in which case
// the AI validator and reviewer stages are skipped entirely (§8 "model
// not configured").
func New(ws *workspace.Manager, modelClient modelclient.Client, opts Options, logger arbor.ILogger) *Orchestrator {
	if opts.MaxConcurrentChecks <= 0 {
		opts.MaxConcurrentChecks = 4
	}
	return &Orchestrator{
		registry:    registry.New[model.ReviewJob]("review", opts.TTL, opts.SweepIntervalSecs, classify, logger),
		workspace:   ws,
		modelClient: modelClient,
		checkers:    checkers.Registry(),
		validators:  validators.Registry(),
		reviewers:   reviewers.Registry(),
		opts:        opts,
		logger:      logger,
	}
}

// StartSweep begins the TTL sweep on the registry.
func (o *Orchestrator) StartSweep() error { return o.registry.StartSweep(o.opts.SweepIntervalSecs) }

// Stop stops the TTL sweep.
func (o *Orchestrator) Stop() { o.registry.Stop() }

// Start registers a new review job and returns its id immediately. The
// pipeline runs on a spawned goroutine; Start never fails at the API
// level, per §4.1 - invalid input surfaces as a Failed job instead.
func (o *Orchestrator) Start(repoURL string) string {
	id := model.NewReviewID()
	job := model.ReviewJob{ID: id, RepoURL: repoURL, Status: model.ReviewStatusPending, CreatedAt: time.Now()}

	ctx, cancel := context.WithCancel(context.Background())
	bus := o.registry.Create(job, cancel)

	concurrency.SafeGo(o.logger, "review:"+id, func() {
		o.run(ctx, id, repoURL, bus)
	})

	return id
}

// Get returns the current snapshot for id.
func (o *Orchestrator) Get(id string) (model.ReviewJob, bool) {
	return o.registry.Get(id)
}

// Subscribe returns the event stream for id, or false if unknown/reaped.
func (o *Orchestrator) Subscribe(id string) (<-chan model.Event, bool) {
	bus, ok := o.registry.Bus(id)
	if !ok {
		return nil, false
	}
	return bus.Subscribe(), true
}

// Cancel requests cancellation of an in-flight job.
func (o *Orchestrator) Cancel(id string) bool {
	return o.registry.Cancel(id)
}

func (o *Orchestrator) run(ctx context.Context, id, repoURL string, bus *eventbus.Bus) {
	start := time.Now()
	bus.Publish(model.NewEvent(start, id, model.EventReviewStarted, nil))

	var handle *workspace.Handle
	defer func() {
		if handle != nil {
			handle.Release()
		}
	}()

	if err := o.checkCancelled(ctx, id, bus, handle); err != nil {
		return
	}

	o.registry.Update(id, func(j *model.ReviewJob) { j.Status = model.ReviewStatusCloning })

	if err := o.workspace.CheckExists(ctx, repoURL); err != nil {
		o.fail(id, bus, err)
		return
	}
	h, err := o.workspace.Acquire(ctx, id, repoURL)
	if err != nil {
		o.fail(id, bus, err)
		return
	}
	handle = h

	if err := o.checkCancelled(ctx, id, bus, handle); err != nil {
		return
	}

	o.registry.Update(id, func(j *model.ReviewJob) { j.Status = model.ReviewStatusRunning })
	diagnostics := o.runCheckers(ctx, id, handle.Root, bus)

	if err := o.checkCancelled(ctx, id, bus, handle); err != nil {
		return
	}

	if o.modelClient != nil {
		diagnostics = o.runValidators(ctx, id, diagnostics, bus)
	}

	if err := o.checkCancelled(ctx, id, bus, handle); err != nil {
		return
	}

	var suggestions []model.Suggestion
	if o.modelClient != nil {
		suggestions = o.runReviewers(ctx, id, repoURL, handle.Root, diagnostics, bus)
	}

	handle.Release()
	duration := time.Since(start)
	o.registry.Complete(id, func(j *model.ReviewJob) {
		j.Status = model.ReviewStatusCompleted
		j.Diagnostics = diagnostics
		j.Suggestions = suggestions
		j.CompletedAt = time.Now()
	})
	bus.Publish(model.NewEvent(time.Now(), id, model.EventReviewCompleted, map[string]any{
		"diagnostic_count": len(diagnostics),
		"suggestion_count": len(suggestions),
		"duration_ms":      duration.Milliseconds(),
	}))
}

// checkCancelled observes the cancellation token at a pipeline suspension
// point (§4.1, §5) and finalizes the job as Failed if it fired, releasing
// handle (when non-nil) before the terminal event is published.
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
	o.registry.Complete(id, func(j *model.ReviewJob) {
		j.Status = model.ReviewStatusFailed
		j.Error = msg
		j.ErrorKind = kind.String()
		j.CompletedAt = time.Now()
	})
	bus.Publish(model.NewEvent(time.Now(), id, model.EventReviewFailed, map[string]any{"error": msg, "kind": kind.String()}))
}

func (o *Orchestrator) runCheckers(ctx context.Context, id, root string, bus *eventbus.Bus) []model.Diagnostic {
	results := make([][]model.Diagnostic, len(o.checkers))
	sem := semaphore.NewWeighted(int64(o.opts.MaxConcurrentChecks))
	var wg sync.WaitGroup

	for i, c := range o.checkers {
		wg.Add(1)
		go func(i int, c checkers.Checker) {
			defer wg.Done()
			defer concurrency.Guard(o.logger, "review:checker:"+id)
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			bus.Publish(model.NewEvent(time.Now(), id, model.EventCheckStarted, map[string]any{"checker": c.Name()}))
			diags, err := c.Run(root)
			if err != nil {
				diags = []model.Diagnostic{{
					Checker:  c.Name(),
					Severity: model.SeverityInfo,
					Rule:     "checker_failed",
					Message:  err.Error(),
				}}
			}
			results[i] = diags
			bus.Publish(model.NewEvent(time.Now(), id, model.EventCheckCompleted, map[string]any{
				"checker":          c.Name(),
				"diagnostic_count": len(diags),
			}))
		}(i, c)
	}
	wg.Wait()

	var all []model.Diagnostic
	for _, diags := range results {
		all = append(all, diags...)
	}
	return all
}

func (o *Orchestrator) runValidators(ctx context.Context, id string, diags []model.Diagnostic, bus *eventbus.Bus) []model.Diagnostic {
	for _, v := range o.validators {
		if ctx.Err() != nil {
			return diags
		}
		bus.Publish(model.NewEvent(time.Now(), id, model.EventValidationStarted, map[string]any{"validator": v.Name()}))

		updated, err := v.Apply(ctx, o.modelClient, diags)
		payload := map[string]any{"validator": v.Name(), "diagnostic_count": len(diags)}
		if err != nil {
			payload["warning"] = fmt.Sprintf("%s failed: %v", v.Name(), err)
			if o.logger != nil {
				o.logger.Warn().Str("validator", v.Name()).Err(err).Msg("validator failed, diagnostics unchanged")
			}
		} else {
			diags = updated
			payload["diagnostic_count"] = len(diags)
		}
		bus.Publish(model.NewEvent(time.Now(), id, model.EventValidationCompleted, payload))
	}
	return diags
}

func (o *Orchestrator) runReviewers(ctx context.Context, id, repoURL, root string, diags []model.Diagnostic, bus *eventbus.Bus) []model.Suggestion {
	cc, _, err := codecontext.Build(root, repoURL, codecontext.Options{MaxFiles: 20, MaxCharsPerFile: 4000})
	if err != nil {
		if o.logger != nil {
			o.logger.Warn().Err(err).Msg("failed to build code context for reviewers")
		}
		return nil
	}

	var suggestions []model.Suggestion
	for _, r := range o.reviewers {
		if ctx.Err() != nil {
			return suggestions
		}
		bus.Publish(model.NewEvent(time.Now(), id, model.EventReviewerStarted, map[string]any{"reviewer": r.Name()}))

		result, err := r.Review(ctx, o.modelClient, cc, diags)
		payload := map[string]any{"reviewer": r.Name()}
		if err != nil {
			payload["warning"] = fmt.Sprintf("%s failed: %v", r.Name(), err)
			if o.logger != nil {
				o.logger.Warn().Str("reviewer", r.Name()).Err(err).Msg("reviewer failed, skipping")
			}
		} else {
			suggestions = append(suggestions, result...)
			payload["suggestion_count"] = len(result)
		}
		bus.Publish(model.NewEvent(time.Now(), id, model.EventReviewerCompleted, payload))
	}
	return suggestions
}
