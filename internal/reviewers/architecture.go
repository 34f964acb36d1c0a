package reviewers

import (
	"context"

	"github.com/ternarybob/reviewsvc/internal/codecontext"
	"github.com/ternarybob/reviewsvc/internal/model"
	"github.com/ternarybob/reviewsvc/internal/modelclient"
)

// ArchitectureReviewer flags structural concerns: layering violations,
// misplaced responsibilities, missing abstractions.
type ArchitectureReviewer struct{}

func (r *ArchitectureReviewer) Name() string { return "architecture_reviewer" }

func (r *ArchitectureReviewer) Review(ctx context.Context, client modelclient.Client, cc *codecontext.Context, diags []model.Diagnostic) ([]model.Suggestion, error) {
	return runReviewPrompt(ctx, client, r.Name(), "architecture and module structure", cc, diags)
}
