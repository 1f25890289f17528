package audio

import (
	"encoding/binary"
	"fmt"
)

// Buffer is decoded audio: per-channel float32 samples in [-1, 1].
type Buffer struct {
	SampleRate int
	Channels   int
	// Data holds one slice per channel, each Frames() long.
	Data [][]float32
}

// Frames returns the frame count of the buffer.
func (b *Buffer) Frames() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// DecodePCM16 reinterprets data as little-endian signed 16-bit samples,
// de-interleaves them per channel and normalizes each sample by 1/32768.
// Trailing bytes that do not form a whole frame (an odd byte, or a sample
// count not divisible by the channel count) are dropped; source payloads
// carry no alignment guarantee, and truncating under one frame of tail beats
// failing the whole clip. Pure function: same input, same output.
func DecodePCM16(data []byte, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audio: invalid sample rate %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("audio: invalid channel count %d", channels)
	}

	totalSamples := len(data) / 2
	frames := totalSamples / channels

	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			i := (f*channels + ch) * 2
			v := int16(binary.LittleEndian.Uint16(data[i : i+2]))
			out[ch][f] = float32(v) / 32768
		}
	}
	return &Buffer{SampleRate: sampleRate, Channels: channels, Data: out}, nil
}
