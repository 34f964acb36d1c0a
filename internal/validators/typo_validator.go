package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ternarybob/reviewsvc/internal/model"
	"github.com/ternarybob/reviewsvc/internal/modelclient"
)

// TypoValidator asks the model to confirm each typos_checker finding is a
// genuine misspelling rather than an intentional identifier or loanword,
// dropping the false positives.
type TypoValidator struct{}

func (v *TypoValidator) Name() string { return "typo_validator" }

func (v *TypoValidator) Apply(ctx context.Context, client modelclient.Client, diags []model.Diagnostic) ([]model.Diagnostic, error) {
	var candidates []int
	for i, d := range diags {
		if d.Rule == "typo" {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return diags, nil
	}

	var prompt strings.Builder
	prompt.WriteString("The following are candidate typo findings from a static scanner. ")
	prompt.WriteString("Reply with a JSON object {\"false_positive_indices\": [...]}\" listing the 0-based indices (within this list) that are NOT real misspellings.\n\n")
	for i, idx := range candidates {
		fmt.Fprintf(&prompt, "%d: %s\n", i, diags[idx].Message)
	}

	resp, err := client.Generate(ctx, modelclient.Request{
		SystemPrompt: "You review static analysis findings for accuracy.",
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

	falsePositive := make(map[int]bool)
	modelclient.Get(obj, "false_positive_indices").ForEach(func(_, v gjson.Result) bool {
		falsePositive[int(v.Int())] = true
		return true
	})

	skip := make(map[int]bool)
	for i, idx := range candidates {
		if falsePositive[i] {
			skip[idx] = true
		}
	}

	out := make([]model.Diagnostic, 0, len(diags))
	for i, d := range diags {
		if skip[i] {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
