package grade

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/reviewsvc/internal/model"
)

func TestAggregateTask_WeightedScoringAndStatusBuckets(t *testing.T) {
	results := []model.CriterionResult{
		{Passed: true, Weight: 2},
		{Passed: true, Weight: 1},
		{Passed: false, Weight: 1},
	}
	task := AggregateTask("Build a CLI", results)
	assert.InDelta(t, 0.75, task.Score, 0.0001)
	assert.Equal(t, model.TaskStatusPartial, task.Status)
	assert.Equal(t, 2, task.PassedCount)
	assert.Equal(t, 3, task.TotalCount)
}

func TestAggregateTask_AllPassedIsPassedStatus(t *testing.T) {
	task := AggregateTask("t", []model.CriterionResult{{Passed: true, Weight: 1}})
	assert.Equal(t, model.TaskStatusPassed, task.Status)
}

func TestAggregateTask_MostlyFailedIsFailedStatus(t *testing.T) {
	task := AggregateTask("t", []model.CriterionResult{
		{Passed: false, Weight: 1},
		{Passed: false, Weight: 1},
		{Passed: true, Weight: 1},
	})
	assert.Equal(t, model.TaskStatusFailed, task.Status)
}

func TestAggregateOverall_ComputesPercentageAndKoreanSummary(t *testing.T) {
	tasks := []model.TaskGradeResult{
		{Score: 1.0, Status: model.TaskStatusPassed, PassedCount: 2, TotalCount: 2},
		{Score: 0.5, Status: model.TaskStatusPartial, PassedCount: 1, TotalCount: 2},
	}
	overall := AggregateOverall(tasks)
	assert.Equal(t, 75, overall.Percentage)
	assert.Equal(t, model.GradeTierGood, overall.Tier)
	assert.Contains(t, overall.Summary, "과제 1/2 완료")
	assert.Contains(t, overall.Summary, "기준 3/4 충족")
}

func TestAggregateOverall_TierBoundaries(t *testing.T) {
	cases := []struct {
		pct  int
		tier model.GradeTier
	}{
		{90, model.GradeTierExcellent},
		{89, model.GradeTierGood},
		{75, model.GradeTierGood},
		{74, model.GradeTierAverage},
		{60, model.GradeTierAverage},
		{59, model.GradeTierPoor},
		{40, model.GradeTierPoor},
		{39, model.GradeTierFail},
	}
	for _, c := range cases {
		assert.Equal(t, c.tier, model.TierForPercentage(c.pct), c.pct)
	}
}
