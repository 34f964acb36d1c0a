package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/reviewsvc/internal/model"
	"github.com/ternarybob/reviewsvc/internal/modelclient"
)

// Prioritizer asks the model to re-label diagnostic severities so the most
// impactful findings surface first, leaving anything it can't parse
// unchanged.
type Prioritizer struct{}

func (v *Prioritizer) Name() string { return "prioritizer" }

func (v *Prioritizer) Apply(ctx context.Context, client modelclient.Client, diags []model.Diagnostic) ([]model.Diagnostic, error) {
	if len(diags) == 0 {
		return diags, nil
	}

	var prompt strings.Builder
	prompt.WriteString("Re-prioritize the severity of each finding below. Reply with a JSON object ")
	prompt.WriteString("{\"severities\": [\"info\"|\"warning\"|\"error\", ...]} with exactly one entry per finding, in order.\n\n")
	for i, d := range diags {
		fmt.Fprintf(&prompt, "%d: [%s] %s\n", i, d.Severity, d.Message)
	}

	resp, err := client.Generate(ctx, modelclient.Request{
		SystemPrompt: "You prioritize code review findings by real-world impact.",
		UserPrompt:   prompt.String(),
		MaxTokens:    512,
	})
	if err != nil {
		return diags, err
	}

	obj, err := modelclient.ExtractJSONObject(resp.Text)
	if err != nil {
		return diags, err
	}

	severities := modelclient.Get(obj, "severities").Array()
	if len(severities) != len(diags) {
		// Model didn't return one entry per finding; leave unchanged
		// rather than guess at a partial re-labeling.
		return diags, nil
	}

	out := make([]model.Diagnostic, len(diags))
	copy(out, diags)
	for i, v := range severities {
		if sev := toSeverity(v.String()); sev != "" {
			out[i].Severity = sev
		}
	}
	return out, nil
}

func toSeverity(s string) model.Severity {
	switch model.Severity(strings.ToLower(s)) {
	case model.SeverityInfo, model.SeverityWarning, model.SeverityError:
		return model.Severity(strings.ToLower(s))
	default:
		return ""
	}
}

