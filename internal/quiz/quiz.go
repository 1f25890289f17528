package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Quiz is one vocabulary question with its ordered answer options and the
// designated correct answer. Answer must be an element of Options.
type Quiz struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Validate defensively checks the containment and uniqueness invariants the
// external schema promises. A malformed quiz must surface as an error, never
// render.
func (q *Quiz) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("quiz: empty question")
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("quiz: need at least 2 options, got %d", len(q.Options))
	}
	seen := make(map[string]struct{}, len(q.Options))
	answerFound := false
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("quiz: option %d is empty", i)
		}
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("quiz: duplicate option %q", opt)
		}
		seen[opt] = struct{}{}
		if opt == q.Answer {
			answerFound = true
		}
	}
	if !answerFound {
		return fmt.Errorf("quiz: answer %q is not among the options", q.Answer)
	}
	return nil
}

// Parse decodes and validates a quiz JSON document.
func Parse(raw []byte) (*Quiz, error) {
	var q Quiz
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("quiz: parse response: %w", err)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return &q, nil
}

// JSONGenerator produces a schema-constrained JSON document for a prompt.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema map[string]any) ([]byte, error)
}

// responseSchema fixes the quiz shape the model must produce.
var responseSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"question": map[string]any{"type": "STRING"},
		"options": map[string]any{
			"type":  "ARRAY",
			"items": map[string]any{"type": "STRING"},
		},
		"answer": map[string]any{"type": "STRING"},
	},
	"required": []string{"question", "options", "answer"},
}

// Generator builds vocabulary quizzes from a sentence via a structured
// generation endpoint.
type Generator struct {
	gen JSONGenerator
}

// NewGenerator constructs a Generator.
func NewGenerator(gen JSONGenerator) *Generator {
	return &Generator{gen: gen}
}

// Generate asks for a multiple-choice vocabulary question about the sentence,
// tagged with its language for context, and validates the result locally.
func (g *Generator) Generate(ctx context.Context, sentence, language string) (*Quiz, error) {
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return nil, fmt.Errorf("quiz: empty source sentence")
	}
	prompt := fmt.Sprintf(
		"Create one multiple-choice vocabulary question about this %s sentence: %q. "+
			"Give 4 options. The answer field must exactly match one of the options.",
		language, sentence,
	)
	raw, err := g.gen.GenerateJSON(ctx, prompt, responseSchema)
	if err != nil {
		return nil, fmt.Errorf("quiz: %w", err)
	}
	return Parse(raw)
}
