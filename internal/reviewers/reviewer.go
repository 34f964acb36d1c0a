// Package reviewers implements the AI reviewer stage described in §4.1
// stage 5: each reviewer consumes a CodeContext plus the current
// diagnostic list and produces zero or more free-form Suggestions. They
// run sequentially, in registration order, since output is small and
// order-dependent for display.
package reviewers

import (
	"context"

	"github.com/ternarybob/reviewsvc/internal/codecontext"
	"github.com/ternarybob/reviewsvc/internal/model"
	"github.com/ternarybob/reviewsvc/internal/modelclient"
)

// Reviewer produces Suggestions from a built CodeContext and the current
// diagnostic list. A failure is non-fatal per reviewer (§4.1).
type Reviewer interface {
	Name() string
	Review(ctx context.Context, client modelclient.Client, cc *codecontext.Context, diags []model.Diagnostic) ([]model.Suggestion, error)
}

// Registry returns the reviewers in a fixed registration order:
// ArchitectureReviewer, SecurityReviewer, MaintainabilityReviewer.
func Registry() []Reviewer {
	return []Reviewer{
		&ArchitectureReviewer{},
		&SecurityReviewer{},
		&MaintainabilityReviewer{},
	}
}
