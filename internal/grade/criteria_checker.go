// Package grade implements the GradeOrchestrator pipeline described in
// §4.2: clone, deterministic analysis, two-level fanned-out criteria
// grading, and weighted aggregation.
package grade

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ternarybob/reviewsvc/internal/codecontext"
	"github.com/ternarybob/reviewsvc/internal/model"
	"github.com/ternarybob/reviewsvc/internal/modelclient"
)

// CriteriaChecker evaluates one acceptance criterion against a task and
// its code context via a single model call, retried once on a malformed
// response (§4.6).
type CriteriaChecker struct {
	Client modelclient.Client
}

// Check implements the §4.6 contract. On total failure (after the retry),
// it returns a CriterionResult recording the failure rather than an error,
// since a per-criterion model failure must never fail the job (§4.2).
func (c *CriteriaChecker) Check(ctx context.Context, cc *codecontext.Context, task model.GradeTask, criterion model.Criterion) model.CriterionResult {
	result, err := c.attempt(ctx, cc, task, criterion, false)
	if err != nil {
		result, err = c.attempt(ctx, cc, task, criterion, true)
	}
	if err != nil {
		return model.CriterionResult{
			Description: criterion.Description,
			Passed:      false,
			Confidence:  0,
			Evidence:    err.Error(),
			Weight:      criterion.EffectiveWeight(),
		}
	}
	result.Weight = criterion.EffectiveWeight()
	return result
}

func (c *CriteriaChecker) attempt(ctx context.Context, cc *codecontext.Context, task model.GradeTask, criterion model.Criterion, strict bool) (model.CriterionResult, error) {
	prompt := buildPrompt(cc, task, criterion, strict)

	resp, err := c.Client.Generate(ctx, modelclient.Request{
		SystemPrompt: "You grade a code submission against one acceptance criterion. Respond with JSON only.",
		UserPrompt:   prompt,
		MaxTokens:    1024,
	})
	if err != nil {
		return model.CriterionResult{}, err
	}

	obj, err := modelclient.ExtractJSONObject(resp.Text)
	if err != nil {
		return model.CriterionResult{}, err
	}

	passedResult := modelclient.Get(obj, "passed")
	evidenceResult := modelclient.Get(obj, "evidence")
	if !passedResult.Exists() || !evidenceResult.Exists() {
		return model.CriterionResult{}, fmt.Errorf("response missing required fields")
	}

	confidence := modelclient.Get(obj, "confidence").Float()
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	var refs []model.CodeRef
	modelclient.Get(obj, "code_references").ForEach(func(_, r gjson.Result) bool {
		if ref, ok := safeCodeRef(r); ok {
			refs = append(refs, ref)
		}
		return true
	})

	return model.CriterionResult{
		Description: criterion.Description,
		Passed:      passedResult.Bool(),
		Confidence:  confidence,
		Evidence:    evidenceResult.String(),
		References:  refs,
	}, nil
}

func safeCodeRef(r gjson.Result) (model.CodeRef, bool) {
	file := strings.ReplaceAll(r.Get("file").String(), "\\", "/")
	file = path.Clean(file)
	if file == "" || file == "." || path.IsAbs(file) || strings.HasPrefix(file, "..") {
		return model.CodeRef{}, false
	}

	start := int(r.Get("line_start").Int())
	end := int(r.Get("line_end").Int())
	if end < start {
		end = start
	}

	return model.CodeRef{
		File:      file,
		LineStart: start,
		LineEnd:   end,
		Snippet:   r.Get("snippet").String(),
	}, true
}

func buildPrompt(cc *codecontext.Context, task model.GradeTask, criterion model.Criterion, strict bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", task.Title)
	if task.Description != "" {
		fmt.Fprintf(&b, "Task description: %s\n", task.Description)
	}
	fmt.Fprintf(&b, "Acceptance criterion: %s\n\n", criterion.Description)
	b.WriteString(cc.Render())

	b.WriteString("\nReply with a JSON object: {\"passed\": bool, \"confidence\": number in [0,1], \"evidence\": string, ")
	b.WriteString("\"code_references\": [{\"file\": string, \"line_start\": number, \"line_end\": number, \"snippet\": string}]}.\n")
	b.WriteString("\"passed\" and \"evidence\" are required.\n")
	if strict {
		b.WriteString("Your previous response was missing required fields. Respond with ONLY the JSON object, no prose, no markdown fences, and include every required field.\n")
	}
	return b.String()
}
