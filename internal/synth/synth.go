package synth

import "context"

// Segment is one synthesized utterance: raw little-endian 16-bit PCM samples
// at the stated sample rate and channel count. Segments are ephemeral; they
// are decoded and played once, never persisted.
type Segment struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Synthesizer converts text to speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Segment, error)
}
