package synth

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/websocket/interfaces"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces/v1"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/speak"
)

// DeepgramSynthesizer is the alternate provider: Deepgram Aura streaming
// speech collected into a single segment. Output is linear16 mono at 48 kHz.
type DeepgramSynthesizer struct {
	apiKey     string
	model      string
	sampleRate int
	encoding   string
}

// NewDeepgram constructs the synthesizer. An empty model selects a default
// Aura voice.
func NewDeepgram(apiKey, model string) *DeepgramSynthesizer {
	if model == "" {
		model = "aura-2-thalia-en"
	}
	return &DeepgramSynthesizer{apiKey: apiKey, model: model, sampleRate: 48000, encoding: "linear16"}
}

// Synthesize streams the utterance over the speak WebSocket and returns the
// collected PCM once the stream goes idle.
func (d *DeepgramSynthesizer) Synthesize(ctx context.Context, text string) (Segment, error) {
	if d.apiKey == "" {
		return Segment{}, fmt.Errorf("deepgram: API key missing")
	}
	if strings.TrimSpace(text) == "" {
		return Segment{}, fmt.Errorf("synth: empty text")
	}

	options := &clientinterfaces.WSSpeakOptions{
		Model:      d.model,
		Encoding:   d.encoding,
		SampleRate: d.sampleRate,
	}

	var buf bytes.Buffer
	var bufMu sync.Mutex
	var lastRecvUnix int64
	var seenAudio int32

	cb := &speakCallback{onBinary: func(data []byte) error {
		if len(data) == 0 {
			return nil
		}
		atomic.StoreInt64(&lastRecvUnix, time.Now().UnixNano())
		atomic.StoreInt32(&seenAudio, 1)
		bufMu.Lock()
		_, _ = buf.Write(data)
		bufMu.Unlock()
		return nil
	}}

	dg, err := speak.NewWSUsingCallback(ctx, d.apiKey, &clientinterfaces.ClientOptions{}, options, cb)
	if err != nil {
		return Segment{}, fmt.Errorf("deepgram: create ws client: %w", err)
	}

	stopped := false
	stopClient := func() {
		if !stopped {
			stopped = true
			dg.Stop()
		}
	}
	defer stopClient()

	if ok := dg.Connect(); !ok {
		return Segment{}, fmt.Errorf("deepgram: connect failed")
	}

	if err := dg.SpeakWithText(text); err != nil {
		return Segment{}, fmt.Errorf("deepgram: speak text: %w", err)
	}
	if err := dg.Flush(); err != nil {
		log.Printf("deepgram: flush error: %v", err)
	}

	idleWindow := 400 * time.Millisecond
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.Now().Add(12 * time.Second)
	for {
		select {
		case <-ctx.Done():
			return Segment{}, ctx.Err()
		case <-ticker.C:
			if atomic.LoadInt32(&seenAudio) == 1 {
				last := time.Unix(0, atomic.LoadInt64(&lastRecvUnix))
				if !last.IsZero() && time.Since(last) > idleWindow {
					stopClient()
					bufMu.Lock()
					pcm := append([]byte(nil), buf.Bytes()...)
					bufMu.Unlock()
					return Segment{PCM: pcm, SampleRate: d.sampleRate, Channels: 1}, nil
				}
			}
			if time.Now().After(deadline) {
				stopClient()
				if atomic.LoadInt32(&seenAudio) == 0 {
					return Segment{}, fmt.Errorf("deepgram: no audio received before deadline")
				}
				bufMu.Lock()
				pcm := append([]byte(nil), buf.Bytes()...)
				bufMu.Unlock()
				return Segment{PCM: pcm, SampleRate: d.sampleRate, Channels: 1}, nil
			}
		}
	}
}

type speakCallback struct{ onBinary func([]byte) error }

func (s *speakCallback) Open(*msginterfaces.OpenResponse) error         { return nil }
func (s *speakCallback) Metadata(*msginterfaces.MetadataResponse) error { return nil }
func (s *speakCallback) Flush(*msginterfaces.FlushedResponse) error     { return nil }
func (s *speakCallback) Clear(*msginterfaces.ClearedResponse) error     { return nil }
func (s *speakCallback) Close(*msginterfaces.CloseResponse) error       { return nil }
func (s *speakCallback) Warning(*msginterfaces.WarningResponse) error   { return nil }
func (s *speakCallback) Error(*msginterfaces.ErrorResponse) error       { return nil }
func (s *speakCallback) UnhandledEvent([]byte) error                    { return nil }
func (s *speakCallback) Binary(byMsg []byte) error {
	if s.onBinary != nil {
		return s.onBinary(byMsg)
	}
	return nil
}
