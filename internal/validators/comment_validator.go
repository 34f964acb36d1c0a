package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ternarybob/reviewsvc/internal/model"
	"github.com/ternarybob/reviewsvc/internal/modelclient"
)

// CommentValidator asks the model which todo_comment findings are trivial
// (e.g. a TODO in a test fixture or generated file) and drops those.
type CommentValidator struct{}

func (v *CommentValidator) Name() string { return "comment_validator" }

func (v *CommentValidator) Apply(ctx context.Context, client modelclient.Client, diags []model.Diagnostic) ([]model.Diagnostic, error) {
	var candidates []int
	for i, d := range diags {
		if d.Rule == "todo_comment" {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return diags, nil
	}

	var prompt strings.Builder
	prompt.WriteString("The following are TODO/FIXME markers found in a codebase. ")
	prompt.WriteString("Reply with a JSON object {\"trivial_indices\": [...]} listing the 0-based indices (within this list) that are trivial and not worth flagging.\n\n")
	for i, idx := range candidates {
		fmt.Fprintf(&prompt, "%d: %s (%s)\n", i, diags[idx].Message, diags[idx].FilePath)
	}

	resp, err := client.Generate(ctx, modelclient.Request{
		SystemPrompt: "You triage code review findings.",
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

	trivial := make(map[int]bool)
	modelclient.Get(obj, "trivial_indices").ForEach(func(_, v gjson.Result) bool {
		trivial[int(v.Int())] = true
		return true
	})

	skip := make(map[int]bool)
	for i, idx := range candidates {
		if trivial[i] {
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
