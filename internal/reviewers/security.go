package reviewers

import (
	"context"

	"github.com/ternarybob/reviewsvc/internal/codecontext"
	"github.com/ternarybob/reviewsvc/internal/model"
	"github.com/ternarybob/reviewsvc/internal/modelclient"
)

// SecurityReviewer flags injection risks, unsafe deserialization, secret
// handling, and other security-relevant patterns.
type SecurityReviewer struct{}

func (r *SecurityReviewer) Name() string { return "security_reviewer" }

func (r *SecurityReviewer) Review(ctx context.Context, client modelclient.Client, cc *codecontext.Context, diags []model.Diagnostic) ([]model.Suggestion, error) {
	return runReviewPrompt(ctx, client, r.Name(), "security", cc, diags)
}
