package reviewers

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

// runReviewPrompt issues one model call asking for suggestions framed by
// focus (e.g. "architecture", "security") and parses the response into
// Suggestions, dropping any reference whose file path is absolute or
// escapes the workspace root (same rule as CriteriaChecker, §4.6).
func runReviewPrompt(ctx context.Context, client modelclient.Client, reviewerName, focus string, cc *codecontext.Context, diags []model.Diagnostic) ([]model.Suggestion, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "You are reviewing the repository %s with a focus on %s.\n", cc.RepoURL, focus)
	prompt.WriteString("Existing automated findings:\n")
	for _, d := range diags {
		fmt.Fprintf(&prompt, "- [%s] %s:%d %s\n", d.Severity, d.FilePath, d.Line, d.Message)
	}
	prompt.WriteString("\nCode context:\n")
	prompt.WriteString(cc.Render())
	prompt.WriteString("\nReply with a JSON object {\"suggestions\": [{\"category\": string, \"title\": string, \"body\": string, \"references\": [{\"file\": string, \"line\": number, \"snippet\": string}]}]}. Omit suggestions with an empty body.\n")

	resp, err := client.Generate(ctx, modelclient.Request{
		SystemPrompt: "You are an experienced software reviewer focused on " + focus + ".",
		UserPrompt:   prompt.String(),
		MaxTokens:    1024,
	})
	if err != nil {
		return nil, err
	}

	obj, err := modelclient.ExtractJSONObject(resp.Text)
	if err != nil {
		return nil, err
	}

	var suggestions []model.Suggestion
	modelclient.Get(obj, "suggestions").ForEach(func(_, s gjson.Result) bool {
		body := s.Get("body").String()
		if body == "" {
			return true
		}
		suggestion := model.Suggestion{
			Reviewer: reviewerName,
			Category: s.Get("category").String(),
			Title:    s.Get("title").String(),
			Body:     body,
		}
		s.Get("references").ForEach(func(_, r gjson.Result) bool {
			ref, ok := safeReference(r)
			if ok {
				suggestion.References = append(suggestion.References, ref)
			}
			return true
		})
		suggestions = append(suggestions, suggestion)
		return true
	})
	return suggestions, nil
}

func safeReference(r gjson.Result) (model.CodeReference, bool) {
	file := path.Clean(filepathToSlash(r.Get("file").String()))
	if file == "" || file == "." || path.IsAbs(file) || strings.HasPrefix(file, "..") {
		return model.CodeReference{}, false
	}
	return model.CodeReference{
		FilePath: file,
		Line:     int(r.Get("line").Int()),
		Snippet:  r.Get("snippet").String(),
	}, true
}

func filepathToSlash(s string) string {
	return strings.ReplaceAll(s, "\\", "/")
}
