package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/reviewsvc/internal/model"
)

func classifyReview(status string) Class {
	switch status {
	case model.ReviewStatusCompleted.String():
		return ClassCompleted
	case model.ReviewStatusFailed.String():
		return ClassFailed
	default:
		return ClassActive
	}
}

func TestRegistry_CreateGetUpdate(t *testing.T) {
	r := New[model.ReviewJob]("review", time.Hour, 0, classifyReview, nil)

	job := model.ReviewJob{ID: "job-1", Status: model.ReviewStatusPending, CreatedAt: time.Now()}
	_, cancel := context.WithCancel(context.Background())
	bus := r.Create(job, cancel)
	require.NotNil(t, bus)

	got, ok := r.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, model.ReviewStatusPending, got.Status)

	updated, ok := r.Update("job-1", func(j *model.ReviewJob) {
		j.Status = model.ReviewStatusRunning
	})
	require.True(t, ok)
	assert.Equal(t, model.ReviewStatusRunning, updated.Status)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_CompleteMarksTerminalAndStats(t *testing.T) {
	r := New[model.ReviewJob]("review", time.Hour, 0, classifyReview, nil)
	job := model.ReviewJob{ID: "job-2", Status: model.ReviewStatusRunning, CreatedAt: time.Now()}
	r.Create(job, func() {})

	completed, ok := r.Complete("job-2", func(j *model.ReviewJob) {
		j.Status = model.ReviewStatusCompleted
	})
	require.True(t, ok)
	assert.Equal(t, model.ReviewStatusCompleted, completed.Status)

	stats := r.Stats()
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 0, stats.Active)
}

func TestRegistry_CancelInvokesStoredFunc(t *testing.T) {
	r := New[model.ReviewJob]("review", time.Hour, 0, classifyReview, nil)
	job := model.ReviewJob{ID: "job-3", Status: model.ReviewStatusRunning, CreatedAt: time.Now()}

	called := false
	r.Create(job, func() { called = true })

	ok := r.Cancel("job-3")
	assert.True(t, ok)
	assert.True(t, called)

	assert.False(t, r.Cancel("nope"))
}

func TestRegistry_SweepRemovesExpiredTerminalEntries(t *testing.T) {
	r := New[model.ReviewJob]("review", time.Millisecond, 0, classifyReview, nil)
	job := model.ReviewJob{ID: "job-4", Status: model.ReviewStatusRunning, CreatedAt: time.Now()}
	r.Create(job, func() {})

	r.Complete("job-4", func(j *model.ReviewJob) {
		j.Status = model.ReviewStatusCompleted
	})

	time.Sleep(5 * time.Millisecond)
	r.sweep()

	_, ok := r.Get("job-4")
	assert.False(t, ok)
}

func TestRegistry_ListReturnsAllRecords(t *testing.T) {
	r := New[model.ReviewJob]("review", time.Hour, 0, classifyReview, nil)
	r.Create(model.ReviewJob{ID: "a", CreatedAt: time.Now()}, func() {})
	r.Create(model.ReviewJob{ID: "b", CreatedAt: time.Now()}, func() {})

	list := r.List()
	assert.Len(t, list, 2)
}
