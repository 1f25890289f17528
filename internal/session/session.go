package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Ekow24/Digi-Francais/internal/audio"
	"github.com/Ekow24/Digi-Francais/internal/debounce"
	"github.com/Ekow24/Digi-Francais/internal/quiz"
	"github.com/Ekow24/Digi-Francais/internal/synth"
	"github.com/Ekow24/Digi-Francais/internal/transcript"
	"github.com/Ekow24/Digi-Francais/internal/translate"
)

// Translator converts English text into a target language.
type Translator interface {
	Translate(ctx context.Context, text string, target translate.Language) (string, error)
}

// Synthesizer converts text to a PCM speech segment.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (synth.Segment, error)
}

// QuizGenerator builds a validated quiz from a sentence.
type QuizGenerator interface {
	Generate(ctx context.Context, sentence, language string) (*quiz.Quiz, error)
}

// Snapshot is the full UI-visible state of a session. A fresh snapshot is
// emitted on every change.
type Snapshot struct {
	Listening   bool               `json:"listening"`
	Committed   string             `json:"committed"`
	Display     string             `json:"display"`
	Language    translate.Language `json:"language"`
	Translation string             `json:"translation"`
	Translating bool               `json:"translating"`
	Quiz        *quiz.Quiz         `json:"quiz,omitempty"`
	QuizState   string             `json:"quizState"`
	Selected    int                `json:"selected"`
	Error       string             `json:"error,omitempty"`
}

// Events carries the session's outbound callbacks. Any field may be nil.
type Events struct {
	// OnState receives a snapshot after every state change.
	OnState func(Snapshot)
	// OnCelebrate fires once per quiz on the transition to answered-correct.
	OnCelebrate func()
}

// Session owns the state of one learner: transcript, debounce trigger,
// translation, playback context and quiz. It is explicitly constructed and
// disposed; all providers are injected. Provider responses are applied as
// they arrive: overlapping requests resolve last-response-wins, which is
// accepted behavior, not serialized away.
type Session struct {
	translator Translator
	synth      Synthesizer
	quizzes    QuizGenerator
	sink       audio.Sink
	events     Events

	acc *transcript.Accumulator
	deb *debounce.Debouncer

	mu          sync.Mutex
	listening   bool
	language    translate.Language
	translation string
	translating bool
	errMsg      string
	quizSess    *quiz.Session
	audioCtx    *audio.Context
	closed      bool
}

// Config bundles the session dependencies.
type Config struct {
	Translator    Translator
	Synthesizer   Synthesizer
	QuizGenerator QuizGenerator
	Sink          audio.Sink
	Language      translate.Language
	Debounce      time.Duration
	Events        Events
}

// New constructs a Session. The debounce delay defaults to 2s when unset.
func New(cfg Config) *Session {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}
	if cfg.Language == "" {
		cfg.Language = translate.French
	}
	s := &Session{
		translator: cfg.Translator,
		synth:      cfg.Synthesizer,
		quizzes:    cfg.QuizGenerator,
		sink:       cfg.Sink,
		events:     cfg.Events,
		language:   cfg.Language,
		deb:        debounce.New(cfg.Debounce),
	}
	s.acc = transcript.NewAccumulator(s.onCommit)
	return s
}

// onCommit runs after each finalized append: the displayed quiz is stale and
// the translation trigger is pushed out.
func (s *Session) onCommit(string) {
	s.mu.Lock()
	s.quizSess = nil
	s.mu.Unlock()
	s.deb.Schedule(s.translateNow)
	s.emit()
}

// OnRecognition folds one recognition event into the transcript. Events are
// processed in arrival order.
func (s *Session) OnRecognition(ev transcript.Event) {
	s.acc.Apply(ev)
	s.emit()
}

// SetListening toggles the capture state flag.
func (s *Session) SetListening(on bool) {
	s.mu.Lock()
	s.listening = on
	s.mu.Unlock()
	s.emit()
}

// SetLanguage switches the target language. The next translation uses it;
// an in-flight request is not re-issued.
func (s *Session) SetLanguage(name string) error {
	lang, err := translate.Parse(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.language = lang
	s.mu.Unlock()
	s.emit()
	return nil
}

// translateNow fires on debounce expiry with the transcript state at fire
// time. The previous translation is cleared up front to show loading.
func (s *Session) translateNow() {
	text := s.acc.Committed()
	if text == "" {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	lang := s.language
	s.translation = ""
	s.translating = true
	s.errMsg = ""
	s.mu.Unlock()
	s.emit()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		out, err := s.translator.Translate(ctx, text, lang)
		s.mu.Lock()
		s.translating = false
		if err != nil {
			s.errMsg = err.Error()
			s.mu.Unlock()
			log.Printf("session: translate error: %v", err)
			s.emit()
			return
		}
		// last response received wins, even if a newer request is racing
		s.translation = out
		s.mu.Unlock()
		s.emit()
	}()
}

// Speak synthesizes the current translation and plays it through the paced
// context, recreating the context when the segment's sample rate differs
// from the one it was built for.
func (s *Session) Speak(ctx context.Context) error {
	s.mu.Lock()
	text := s.translation
	s.mu.Unlock()
	if text == "" {
		return s.fail(fmt.Errorf("nothing to speak yet"))
	}

	seg, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return s.fail(err)
	}
	// decode validates the payload shape and drops any partial tail frame
	buf, err := audio.DecodePCM16(seg.PCM, seg.SampleRate, seg.Channels)
	if err != nil {
		return s.fail(err)
	}
	playable := seg.PCM[:buf.Frames()*seg.Channels*2]

	s.mu.Lock()
	if s.audioCtx != nil && s.audioCtx.SampleRate() != seg.SampleRate {
		s.audioCtx.Close()
		s.audioCtx = nil
	}
	if s.audioCtx == nil {
		actx, cerr := audio.NewContext(seg.SampleRate, s.sink)
		if cerr != nil {
			s.mu.Unlock()
			return s.fail(cerr)
		}
		s.audioCtx = actx
	}
	actx := s.audioCtx
	s.errMsg = ""
	s.mu.Unlock()

	actx.Resume()
	actx.Play(playable)
	actx.FlushTail()
	s.emit()
	return nil
}

// GenerateQuiz builds a quiz from the translated text, falling back to the
// recognized transcript. Prior selection state is cleared before the new
// quiz appears.
func (s *Session) GenerateQuiz(ctx context.Context) error {
	s.mu.Lock()
	source := s.translation
	lang := string(s.language)
	s.quizSess = nil
	s.mu.Unlock()
	if source == "" {
		source = s.acc.Committed()
		lang = "English"
	}
	s.emit()

	q, err := s.quizzes.Generate(ctx, source, lang)
	if err != nil {
		return s.fail(err)
	}
	s.mu.Lock()
	s.quizSess = quiz.NewSession(q, s.events.OnCelebrate)
	s.errMsg = ""
	s.mu.Unlock()
	s.emit()
	return nil
}

// SelectOption drives the quiz answer state machine.
func (s *Session) SelectOption(i int) quiz.AnswerState {
	s.mu.Lock()
	sess := s.quizSess
	s.mu.Unlock()
	if sess == nil {
		return quiz.Unanswered
	}
	state := sess.Select(i)
	s.emit()
	return state
}

// Reset stops capture and clears transcript, translation, quiz, loading and
// error state in one update.
func (s *Session) Reset() {
	s.deb.Stop()
	s.acc.Reset()
	s.mu.Lock()
	s.listening = false
	s.translation = ""
	s.translating = false
	s.errMsg = ""
	s.quizSess = nil
	if s.audioCtx != nil {
		s.audioCtx.Reset()
	}
	s.mu.Unlock()
	s.emit()
}

// Close disposes the session. It is not reusable afterwards.
func (s *Session) Close() {
	s.deb.Stop()
	s.mu.Lock()
	s.closed = true
	if s.audioCtx != nil {
		s.audioCtx.Close()
		s.audioCtx = nil
	}
	s.mu.Unlock()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Listening:   s.listening,
		Committed:   s.acc.Committed(),
		Display:     s.acc.Display(),
		Language:    s.language,
		Translation: s.translation,
		Translating: s.translating,
		QuizState:   quiz.Unanswered.String(),
		Selected:    -1,
		Error:       s.errMsg,
	}
	if s.quizSess != nil {
		snap.Quiz = s.quizSess.Quiz()
		snap.QuizState = s.quizSess.State().String()
		snap.Selected = s.quizSess.Selected()
	}
	return snap
}

func (s *Session) emit() {
	if s.events.OnState != nil {
		s.events.OnState(s.Snapshot())
	}
}

// fail records the error for the UI, clears loading state and returns it.
// Every failure leaves the session usable for a retry.
func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.errMsg = err.Error()
	s.translating = false
	s.mu.Unlock()
	log.Printf("session: %v", err)
	s.emit()
	return err
}
