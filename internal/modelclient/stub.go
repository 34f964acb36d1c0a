package modelclient

import "context"

// Stub is a deterministic, in-memory Client for tests: it never makes a
// network call and returns either a fixed response or a fixed error.
type Stub struct {
	ResponseText string
	Err          error
	Calls        int
}

func (s *Stub) Provider() string { return "stub" }

func (s *Stub) Generate(ctx context.Context, req Request) (*Response, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return &Response{
		Text:             s.ResponseText,
		Provider:         "stub",
		Model:            "stub-model",
		PromptTokens:     len(req.UserPrompt) / 4,
		CompletionTokens: len(s.ResponseText) / 4,
	}, nil
}
