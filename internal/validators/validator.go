// Package validators implements the AI-assisted diagnostic transforms run
// after the rule-based checkers, each applied in registration order
// (§4.1 stage 4): TypoValidator, CommentValidator, Prioritizer.
package validators

import (
	"context"

	"github.com/ternarybob/reviewsvc/internal/model"
	"github.com/ternarybob/reviewsvc/internal/modelclient"
)

// Validator transforms the current diagnostic list using a model call. A
// failure must be non-fatal to the pipeline; callers pass the list through
// unchanged and log the failure as a warning (§4.1).
type Validator interface {
	Name() string
	Apply(ctx context.Context, client modelclient.Client, diags []model.Diagnostic) ([]model.Diagnostic, error)
}

// Registry returns the validators in the fixed registration order named in
// §4.1: TypoValidator, CommentValidator, Prioritizer.
func Registry() []Validator {
	return []Validator{
		&TypoValidator{},
		&CommentValidator{},
		&Prioritizer{},
	}
}
