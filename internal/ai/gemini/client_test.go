package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"
)

type modelCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type fakeModels struct {
	calls []modelCall
	resp  *genai.GenerateContentResponse
	err   error
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, modelCall{model: model, contents: contents, config: config})
	return f.resp, f.err
}

func textResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: parts},
		}},
	}
}

func TestCompleteSendsSystemInstruction(t *testing.T) {
	models := &fakeModels{resp: textResponse(&genai.Part{Text: " MATCH "})}
	gen := newGenerator(models, "")

	out, err := gen.Complete(context.Background(), "You are an analyst.", "Project Title: Logo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "MATCH" {
		t.Fatalf("unexpected output %q", out)
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected one call, got %d", len(models.calls))
	}
	call := models.calls[0]
	if call.model != defaultModel {
		t.Fatalf("expected default model, got %q", call.model)
	}
	if call.config == nil || call.config.SystemInstruction == nil {
		t.Fatal("expected system instruction to be set")
	}
	if got := call.config.SystemInstruction.Parts[0].Text; got != "You are an analyst." {
		t.Fatalf("unexpected system instruction %q", got)
	}
	if got := call.contents[0].Parts[0].Text; got != "Project Title: Logo" {
		t.Fatalf("unexpected user prompt %q", got)
	}
}

func TestCompleteWithoutSystemPrompt(t *testing.T) {
	models := &fakeModels{resp: textResponse(&genai.Part{Text: "ok"})}
	gen := newGenerator(models, "gemini-pro")

	if _, err := gen.Complete(context.Background(), "  ", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if models.calls[0].config != nil {
		t.Fatalf("expected nil config without system prompt")
	}
	if gen.Model() != "gemini-pro" {
		t.Fatalf("unexpected model %q", gen.Model())
	}
}

func TestCompleteJoinsPartsAndSkipsThoughts(t *testing.T) {
	models := &fakeModels{resp: textResponse(
		&genai.Part{Text: "thinking...", Thought: true},
		&genai.Part{Text: "first"},
		&genai.Part{Text: "  "},
		&genai.Part{Text: "second"},
	)}
	gen := newGenerator(models, "")

	out, err := gen.Complete(context.Background(), "", "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "first\nsecond" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name   string
		models *fakeModels
		user   string
		want   string
	}{
		{name: "empty prompt", models: &fakeModels{}, user: " ", want: "prompt must not be empty"},
		{name: "api error", models: &fakeModels{err: errors.New("boom")}, user: "x", want: "generate content: boom"},
		{name: "empty response", models: &fakeModels{resp: textResponse()}, user: "x", want: "empty response"},
		{name: "nil response", models: &fakeModels{}, user: "x", want: "empty response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newGenerator(tt.models, "").Complete(context.Background(), "", tt.user)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	if _, err := NewGenerator(context.Background(), " ", ""); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
