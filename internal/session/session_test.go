package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ekow24/Digi-Francais/internal/quiz"
	"github.com/Ekow24/Digi-Francais/internal/synth"
	"github.com/Ekow24/Digi-Francais/internal/transcript"
	"github.com/Ekow24/Digi-Francais/internal/translate"
)

type fakeTranslator struct {
	mu      sync.Mutex
	calls   []string
	replies chan string
	err     error
}

func newFakeTranslator() *fakeTranslator {
	return &fakeTranslator{replies: make(chan string, 16)}
}

func (f *fakeTranslator) Translate(ctx context.Context, text string, target translate.Language) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	select {
	case r := <-f.replies:
		return r, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (f *fakeTranslator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSynth struct {
	seg synth.Segment
	err error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) (synth.Segment, error) {
	if f.err != nil {
		return synth.Segment{}, f.err
	}
	return f.seg, nil
}

type fakeQuizGen struct {
	q        *quiz.Quiz
	err      error
	lastText string
	lastLang string
}

func (f *fakeQuizGen) Generate(ctx context.Context, sentence, language string) (*quiz.Quiz, error) {
	f.lastText = sentence
	f.lastLang = language
	if f.err != nil {
		return nil, f.err
	}
	return f.q, nil
}

type countingSink struct{ writes int32 }

func (c *countingSink) WritePCM(pcm []byte, sampleRate int) { atomic.AddInt32(&c.writes, 1) }

func testQuiz() *quiz.Quiz {
	return &quiz.Quiz{Question: "q?", Options: []string{"a", "b"}, Answer: "a"}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func TestSession_DebouncedTranslationFiresOnceWithFinalTranscript(t *testing.T) {
	tr := newFakeTranslator()
	tr.replies <- "Bonjour le monde"
	s := New(Config{Translator: tr, Debounce: 80 * time.Millisecond})
	defer s.Close()

	s.OnRecognition(transcript.Event{Final: []string{"Hello"}})
	time.Sleep(30 * time.Millisecond) // inside the quiet period
	s.OnRecognition(transcript.Event{Final: []string{"world"}})

	waitFor(t, func() bool { return tr.callCount() == 1 }, "translation call")
	time.Sleep(150 * time.Millisecond)
	if got := tr.callCount(); got != 1 {
		t.Fatalf("expected exactly one translation call, got %d", got)
	}
	tr.mu.Lock()
	text := tr.calls[0]
	tr.mu.Unlock()
	if text != "Hello world" {
		t.Fatalf("translated text = %q, want %q", text, "Hello world")
	}
	waitFor(t, func() bool { return s.Snapshot().Translation == "Bonjour le monde" }, "translation applied")
}

func TestSession_InterimDoesNotScheduleTranslation(t *testing.T) {
	tr := newFakeTranslator()
	s := New(Config{Translator: tr, Debounce: 40 * time.Millisecond})
	defer s.Close()

	s.OnRecognition(transcript.Event{Interim: "Hel"})
	s.OnRecognition(transcript.Event{Interim: "Hello"})
	time.Sleep(100 * time.Millisecond)
	if got := tr.callCount(); got != 0 {
		t.Fatalf("expected no translation calls for interim-only events, got %d", got)
	}
}

func TestSession_OverlappingResponsesLastReceivedWins(t *testing.T) {
	tr := newFakeTranslator()
	s := New(Config{Translator: tr, Debounce: 30 * time.Millisecond})
	defer s.Close()

	s.OnRecognition(transcript.Event{Final: []string{"Hello"}})
	waitFor(t, func() bool { return tr.callCount() == 1 }, "first translation call")

	// second commit fires a second request while the first is still blocked
	s.OnRecognition(transcript.Event{Final: []string{"world"}})
	waitFor(t, func() bool { return tr.callCount() == 2 }, "second translation call")

	// the newer request resolves first, the stale one resolves last: the
	// stale value overwrites. Accepted behavior, asserted here on purpose.
	tr.replies <- "newer"
	waitFor(t, func() bool { return s.Snapshot().Translation == "newer" }, "newer response applied")
	tr.replies <- "stale"
	waitFor(t, func() bool { return s.Snapshot().Translation == "stale" }, "stale response overwrites")
}

func TestSession_TranslateErrorSurfacesAndClearsLoading(t *testing.T) {
	tr := newFakeTranslator()
	tr.err = errors.New("api down")
	s := New(Config{Translator: tr, Debounce: 20 * time.Millisecond})
	defer s.Close()

	s.OnRecognition(transcript.Event{Final: []string{"Hello"}})
	waitFor(t, func() bool { return s.Snapshot().Error != "" }, "error surfaced")
	snap := s.Snapshot()
	if snap.Translating {
		t.Fatalf("loading state not cleared on error")
	}
	if snap.Translation != "" {
		t.Fatalf("translation should stay empty on error, got %q", snap.Translation)
	}
}

func TestSession_CommitClearsDisplayedQuiz(t *testing.T) {
	tr := newFakeTranslator()
	gen := &fakeQuizGen{q: testQuiz()}
	s := New(Config{Translator: tr, QuizGenerator: gen, Debounce: time.Hour})
	defer s.Close()

	s.OnRecognition(transcript.Event{Final: []string{"Hello"}})
	if err := s.GenerateQuiz(context.Background()); err != nil {
		t.Fatalf("generate quiz: %v", err)
	}
	if s.Snapshot().Quiz == nil {
		t.Fatalf("expected quiz to be shown")
	}
	s.OnRecognition(transcript.Event{Final: []string{"world"}})
	if s.Snapshot().Quiz != nil {
		t.Fatalf("expected new finalized fragment to clear the quiz")
	}
}

func TestSession_QuizPrefersTranslationFallsBackToTranscript(t *testing.T) {
	tr := newFakeTranslator()
	tr.replies <- "Bonjour"
	gen := &fakeQuizGen{q: testQuiz()}
	s := New(Config{Translator: tr, QuizGenerator: gen, Language: translate.French, Debounce: 20 * time.Millisecond})
	defer s.Close()

	// no translation yet: falls back to recognized text
	s.OnRecognition(transcript.Event{Final: []string{"Hello"}})
	if err := s.GenerateQuiz(context.Background()); err != nil {
		t.Fatalf("generate quiz: %v", err)
	}
	if gen.lastText != "Hello" || gen.lastLang != "English" {
		t.Fatalf("fallback used %q/%q", gen.lastText, gen.lastLang)
	}

	waitFor(t, func() bool { return s.Snapshot().Translation == "Bonjour" }, "translation applied")
	if err := s.GenerateQuiz(context.Background()); err != nil {
		t.Fatalf("generate quiz: %v", err)
	}
	if gen.lastText != "Bonjour" || gen.lastLang != "French" {
		t.Fatalf("expected translated source, got %q/%q", gen.lastText, gen.lastLang)
	}
}

func TestSession_SelectOptionDrivesStateMachineAndCelebrates(t *testing.T) {
	var celebrations int32
	gen := &fakeQuizGen{q: testQuiz()}
	s := New(Config{
		Translator:    newFakeTranslator(),
		QuizGenerator: gen,
		Debounce:      time.Hour,
		Events:        Events{OnCelebrate: func() { atomic.AddInt32(&celebrations, 1) }},
	})
	defer s.Close()

	s.OnRecognition(transcript.Event{Final: []string{"Hello"}})
	if err := s.GenerateQuiz(context.Background()); err != nil {
		t.Fatalf("generate quiz: %v", err)
	}
	if got := s.SelectOption(1); got != quiz.AnsweredIncorrect {
		t.Fatalf("state = %v, want answered-incorrect", got)
	}
	if got := s.SelectOption(0); got != quiz.AnsweredCorrect {
		t.Fatalf("state = %v, want answered-correct", got)
	}
	if got := s.SelectOption(1); got != quiz.AnsweredCorrect {
		t.Fatalf("terminal state broken, got %v", got)
	}
	if atomic.LoadInt32(&celebrations) != 1 {
		t.Fatalf("celebrations = %d, want 1", celebrations)
	}
}

func TestSession_SnapshotRacesOptionSelection(t *testing.T) {
	gen := &fakeQuizGen{q: testQuiz()}
	s := New(Config{
		Translator:    newFakeTranslator(),
		QuizGenerator: gen,
		Debounce:      time.Hour,
	})
	defer s.Close()

	s.OnRecognition(transcript.Event{Final: []string{"Hello"}})
	if err := s.GenerateQuiz(context.Background()); err != nil {
		t.Fatalf("generate quiz: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = s.Snapshot()
				}
			}
		}()
	}
	// incorrect picks keep mutating quiz state under the readers
	for i := 0; i < 500; i++ {
		s.SelectOption(1)
	}
	close(stop)
	wg.Wait()

	snap := s.Snapshot()
	if snap.QuizState != quiz.AnsweredIncorrect.String() || snap.Selected != 1 {
		t.Fatalf("quizState = %q selected = %d, want answered-incorrect/1", snap.QuizState, snap.Selected)
	}
}

func TestSession_MalformedQuizRejected(t *testing.T) {
	gen := &fakeQuizGen{err: errors.New("quiz: answer \"x\" is not among the options")}
	s := New(Config{Translator: newFakeTranslator(), QuizGenerator: gen, Debounce: time.Hour})
	defer s.Close()

	s.OnRecognition(transcript.Event{Final: []string{"Hello"}})
	if err := s.GenerateQuiz(context.Background()); err == nil {
		t.Fatalf("expected error for malformed quiz")
	}
	snap := s.Snapshot()
	if snap.Quiz != nil {
		t.Fatalf("malformed quiz must not render")
	}
	if snap.Error == "" {
		t.Fatalf("expected visible error")
	}
}

func TestSession_SpeakPlaysThroughPacedSink(t *testing.T) {
	sink := &countingSink{}
	// ~100ms of 24kHz mono
	pcm := make([]byte, 24000/10*2)
	syn := &fakeSynth{seg: synth.Segment{PCM: pcm, SampleRate: 24000, Channels: 1}}
	tr := newFakeTranslator()
	tr.replies <- "Bonjour"
	s := New(Config{Translator: tr, Synthesizer: syn, Sink: sink, Debounce: 20 * time.Millisecond})
	defer s.Close()

	s.OnRecognition(transcript.Event{Final: []string{"Hello"}})
	waitFor(t, func() bool { return s.Snapshot().Translation == "Bonjour" }, "translation applied")
	if err := s.Speak(context.Background()); err != nil {
		t.Fatalf("speak: %v", err)
	}
	waitFor(t, func() bool { return atomic.LoadInt32(&sink.writes) > 0 }, "paced audio writes")
}

func TestSession_SpeakRecreatesContextOnSampleRateChange(t *testing.T) {
	sink := &countingSink{}
	syn := &fakeSynth{seg: synth.Segment{PCM: make([]byte, 2400), SampleRate: 24000, Channels: 1}}
	tr := newFakeTranslator()
	tr.replies <- "Bonjour"
	s := New(Config{Translator: tr, Synthesizer: syn, Sink: sink, Debounce: 20 * time.Millisecond})
	defer s.Close()

	s.OnRecognition(transcript.Event{Final: []string{"Hello"}})
	waitFor(t, func() bool { return s.Snapshot().Translation == "Bonjour" }, "translation applied")
	if err := s.Speak(context.Background()); err != nil {
		t.Fatalf("speak 24k: %v", err)
	}
	syn.seg = synth.Segment{PCM: make([]byte, 4800), SampleRate: 48000, Channels: 1}
	if err := s.Speak(context.Background()); err != nil {
		t.Fatalf("speak 48k after rate change: %v", err)
	}
}

func TestSession_SpeakWithoutTranslationFails(t *testing.T) {
	s := New(Config{Translator: newFakeTranslator(), Synthesizer: &fakeSynth{}, Debounce: time.Hour})
	defer s.Close()
	if err := s.Speak(context.Background()); err == nil {
		t.Fatalf("expected error when nothing to speak")
	}
}

func TestSession_SynthesisErrorSurfaces(t *testing.T) {
	tr := newFakeTranslator()
	tr.replies <- "Bonjour"
	syn := &fakeSynth{err: errors.New("synth: provider returned empty audio payload")}
	s := New(Config{Translator: tr, Synthesizer: syn, Debounce: 20 * time.Millisecond})
	defer s.Close()

	s.OnRecognition(transcript.Event{Final: []string{"Hello"}})
	waitFor(t, func() bool { return s.Snapshot().Translation == "Bonjour" }, "translation applied")
	if err := s.Speak(context.Background()); err == nil {
		t.Fatalf("expected synthesis error")
	}
	if s.Snapshot().Error == "" {
		t.Fatalf("expected visible error")
	}
}

func TestSession_ResetClearsEverythingAtomically(t *testing.T) {
	tr := newFakeTranslator()
	tr.replies <- "Bonjour"
	gen := &fakeQuizGen{q: testQuiz()}
	s := New(Config{Translator: tr, QuizGenerator: gen, Debounce: 20 * time.Millisecond})
	defer s.Close()

	s.SetListening(true)
	s.OnRecognition(transcript.Event{Final: []string{"Hello"}, Interim: "wor"})
	waitFor(t, func() bool { return s.Snapshot().Translation == "Bonjour" }, "translation applied")
	if err := s.GenerateQuiz(context.Background()); err != nil {
		t.Fatalf("generate quiz: %v", err)
	}

	var last Snapshot
	s.events.OnState = func(snap Snapshot) { last = snap }
	s.Reset()

	if last.Listening || last.Committed != "" || last.Display != "" ||
		last.Translation != "" || last.Translating || last.Quiz != nil || last.Error != "" {
		t.Fatalf("reset left residual state: %+v", last)
	}
	// debounce timer from the earlier commit must not fire after reset
	time.Sleep(60 * time.Millisecond)
	snap := s.Snapshot()
	if snap.Translating || snap.Translation != "" {
		t.Fatalf("translation fired after reset: %+v", snap)
	}
}

func TestSession_SetLanguage(t *testing.T) {
	s := New(Config{Translator: newFakeTranslator(), Debounce: time.Hour})
	defer s.Close()
	if err := s.SetLanguage("Spanish"); err != nil {
		t.Fatalf("set language: %v", err)
	}
	if s.Snapshot().Language != translate.Spanish {
		t.Fatalf("language = %q", s.Snapshot().Language)
	}
	if err := s.SetLanguage("Klingon"); err == nil {
		t.Fatalf("expected error for unsupported language")
	}
}
