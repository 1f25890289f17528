package synth

import (
	"context"
	"fmt"
	"strings"
)

// SpeechGenerator produces raw PCM speech for text with a prebuilt voice.
type SpeechGenerator interface {
	GenerateSpeech(ctx context.Context, text, voice string) (pcm []byte, sampleRate int, err error)
}

// GeminiSynthesizer synthesizes with the Gemini TTS endpoint using a single
// designated voice. Output is 16-bit little-endian PCM, mono, 24 kHz.
type GeminiSynthesizer struct {
	gen   SpeechGenerator
	voice string
}

// NewGemini constructs the synthesizer with its designated voice.
func NewGemini(gen SpeechGenerator, voice string) *GeminiSynthesizer {
	return &GeminiSynthesizer{gen: gen, voice: voice}
}

// Synthesize returns the audio segment for the text. An empty payload in the
// provider response is an error, not a silent no-op.
func (s *GeminiSynthesizer) Synthesize(ctx context.Context, text string) (Segment, error) {
	if strings.TrimSpace(text) == "" {
		return Segment{}, fmt.Errorf("synth: empty text")
	}
	pcm, rate, err := s.gen.GenerateSpeech(ctx, text, s.voice)
	if err != nil {
		return Segment{}, fmt.Errorf("synth: %w", err)
	}
	if len(pcm) == 0 {
		return Segment{}, fmt.Errorf("synth: provider returned empty audio payload")
	}
	return Segment{PCM: pcm, SampleRate: rate, Channels: 1}, nil
}
