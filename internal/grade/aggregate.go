package grade

import (
	"fmt"
	"math"

	"github.com/ternarybob/reviewsvc/internal/model"
)

// AggregateTask implements §4.2 step 5: weighted score, pass/fail counts,
// and status bucket for one task's criterion results. results must already
// be in input criterion order.
func AggregateTask(title string, results []model.CriterionResult) model.TaskGradeResult {
	var weightedPassed, totalWeight float64
	passedCount := 0
	for _, r := range results {
		totalWeight += r.Weight
		if r.Passed {
			weightedPassed += r.Weight
			passedCount++
		}
	}

	score := 0.0
	if totalWeight > 0 {
		score = weightedPassed / totalWeight
	}

	status := model.TaskStatusPartial
	switch {
	case score >= 0.9:
		status = model.TaskStatusPassed
	case score < 0.4:
		status = model.TaskStatusFailed
	}

	return model.TaskGradeResult{
		Title:           title,
		Score:           score,
		Status:          status,
		CriteriaResults: results,
		PassedCount:     passedCount,
		TotalCount:      len(results),
	}
}

// Overall is the §4.2 step 6 aggregation across all tasks.
type Overall struct {
	Score      float64
	Percentage int
	Tier       model.GradeTier
	Summary    string
}

// AggregateOverall computes the unweighted mean across tasks and the
// Korean-labeled summary string defined in §4.2.
func AggregateOverall(tasks []model.TaskGradeResult) Overall {
	if len(tasks) == 0 {
		return Overall{Tier: model.TierForPercentage(0), Summary: "전체 점수: 0점 (불합격) - 과제 0/0 완료, 기준 0/0 충족"}
	}

	var sum float64
	passedTasks := 0
	sumPassedCriteria, sumTotalCriteria := 0, 0
	for _, t := range tasks {
		sum += t.Score
		if t.Status == model.TaskStatusPassed {
			passedTasks++
		}
		sumPassedCriteria += t.PassedCount
		sumTotalCriteria += t.TotalCount
	}

	score := sum / float64(len(tasks))
	percentage := int(math.Round(score * 100))
	tier := model.TierForPercentage(percentage)

	summary := fmt.Sprintf(
		"전체 점수: %d점 (%s) - 과제 %d/%d 완료, 기준 %d/%d 충족",
		percentage, tier, passedTasks, len(tasks), sumPassedCriteria, sumTotalCriteria,
	)

	return Overall{Score: score, Percentage: percentage, Tier: tier, Summary: summary}
}
