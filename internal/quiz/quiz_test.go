package quiz

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func validQuiz() *Quiz {
	return &Quiz{
		Question: "What does 'monde' mean?",
		Options:  []string{"world", "hello", "house", "cat"},
		Answer:   "world",
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validQuiz().Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Quiz)
	}{
		{"empty_question", func(q *Quiz) { q.Question = " " }},
		{"single_option", func(q *Quiz) { q.Options = []string{"world"} }},
		{"empty_option", func(q *Quiz) { q.Options[2] = "" }},
		{"duplicate_option", func(q *Quiz) { q.Options[1] = "world" }},
		{"answer_not_in_options", func(q *Quiz) { q.Answer = "bonjour" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := validQuiz()
			tc.mutate(q)
			if err := q.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestParse_MalformedJSONIsError(t *testing.T) {
	if _, err := Parse([]byte("not-json")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParse_ContainmentViolationRejected(t *testing.T) {
	raw := []byte(`{"question":"q?","options":["a","b"],"answer":"c"}`)
	if _, err := Parse(raw); err == nil {
		t.Fatalf("expected containment violation to be rejected")
	}
}

type fakeJSONGen struct {
	raw    []byte
	err    error
	prompt string
}

func (f *fakeJSONGen) GenerateJSON(ctx context.Context, prompt string, schema map[string]any) ([]byte, error) {
	f.prompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return f.raw, nil
}

func TestGenerator_Generate(t *testing.T) {
	gen := &fakeJSONGen{raw: []byte(`{"question":"q?","options":["a","b"],"answer":"b"}`)}
	g := NewGenerator(gen)
	q, err := g.Generate(context.Background(), "Bonjour le monde", "French")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if q.Answer != "b" {
		t.Fatalf("answer = %q", q.Answer)
	}
	if !strings.Contains(gen.prompt, "French") || !strings.Contains(gen.prompt, "Bonjour le monde") {
		t.Fatalf("prompt missing language or sentence: %q", gen.prompt)
	}
}

func TestGenerator_EmptySentenceRejected(t *testing.T) {
	g := NewGenerator(&fakeJSONGen{raw: []byte(`{}`)})
	if _, err := g.Generate(context.Background(), "  ", "French"); err == nil {
		t.Fatalf("expected error for empty sentence")
	}
}

func TestGenerator_ProviderErrorPropagates(t *testing.T) {
	g := NewGenerator(&fakeJSONGen{err: errors.New("boom")})
	if _, err := g.Generate(context.Background(), "text", "French"); err == nil {
		t.Fatalf("expected provider error")
	}
}
