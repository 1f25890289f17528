package translate

import (
	"context"
	"fmt"
	"strings"
)

// Language is one of the closed set of supported target languages.
type Language string

const (
	French   Language = "French"
	Spanish  Language = "Spanish"
	German   Language = "German"
	Italian  Language = "Italian"
	Japanese Language = "Japanese"
)

// Languages lists the supported targets in display order.
func Languages() []Language {
	return []Language{French, Spanish, German, Italian, Japanese}
}

// Parse returns the Language matching name (case-insensitive), or an error
// for anything outside the supported set.
func Parse(name string) (Language, error) {
	for _, l := range Languages() {
		if strings.EqualFold(string(l), name) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unsupported target language %q", name)
}

// TextGenerator produces a plain completion for a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Translator converts English text into a target language.
type Translator interface {
	Translate(ctx context.Context, text string, target Language) (string, error)
}

// LLMTranslator asks a text generator for a bare translation. Formatting is
// suppressed by instruction rather than enforced parsing; the result is
// trimmed and unwrapped of stray quotes.
type LLMTranslator struct {
	gen TextGenerator
}

// New constructs a Translator over the given text generator.
func New(gen TextGenerator) *LLMTranslator {
	return &LLMTranslator{gen: gen}
}

// Translate sends the source text with a natural-language instruction.
func (t *LLMTranslator) Translate(ctx context.Context, text string, target Language) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("translate: empty source text")
	}
	if _, err := Parse(string(target)); err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	prompt := fmt.Sprintf(
		"Translate the following English text to %s. Respond with the translation only, no preamble, no quotes, no formatting.\n\n%s",
		target, text,
	)
	out, err := t.gen.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	out = strings.TrimSpace(strings.Trim(strings.TrimSpace(out), `"`))
	if out == "" {
		return "", fmt.Errorf("translate: empty translation")
	}
	return out, nil
}
