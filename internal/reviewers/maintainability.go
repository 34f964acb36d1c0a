package reviewers

import (
	"context"

	"github.com/ternarybob/reviewsvc/internal/codecontext"
	"github.com/ternarybob/reviewsvc/internal/model"
	"github.com/ternarybob/reviewsvc/internal/modelclient"
)

// MaintainabilityReviewer flags readability, testability, and long-term
// maintenance concerns not already caught by the rule-based checkers.
type MaintainabilityReviewer struct{}

func (r *MaintainabilityReviewer) Name() string { return "maintainability_reviewer" }

func (r *MaintainabilityReviewer) Review(ctx context.Context, client modelclient.Client, cc *codecontext.Context, diags []model.Diagnostic) ([]model.Suggestion, error) {
	return runReviewPrompt(ctx, client, r.Name(), "maintainability and readability", cc, diags)
}
