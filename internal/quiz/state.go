package quiz

import "sync"

// AnswerState tracks progress on one quiz instance.
type AnswerState int

const (
	Unanswered AnswerState = iota
	AnsweredIncorrect
	AnsweredCorrect
)

func (s AnswerState) String() string {
	switch s {
	case Unanswered:
		return "unanswered"
	case AnsweredIncorrect:
		return "answered-incorrect"
	case AnsweredCorrect:
		return "answered-correct"
	}
	return "unknown"
}

// Session is the answer state machine for a single quiz instance. A correct
// selection is terminal: options lock and further selections are no-ops. An
// incorrect selection leaves the options selectable for retry. Safe for
// concurrent use: selections arrive from the client while state snapshots
// are read from response goroutines.
type Session struct {
	mu       sync.Mutex
	quiz     *Quiz
	state    AnswerState
	selected int

	// onCorrect fires exactly once, on the transition into AnsweredCorrect.
	onCorrect func()
}

// NewSession wraps a validated quiz. onCorrect may be nil.
func NewSession(q *Quiz, onCorrect func()) *Session {
	return &Session{quiz: q, state: Unanswered, selected: -1, onCorrect: onCorrect}
}

// Quiz returns the underlying quiz.
func (s *Session) Quiz() *Quiz { return s.quiz }

// State returns the current answer state.
func (s *Session) State() AnswerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Selected returns the index of the last selected option, or -1.
func (s *Session) Selected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Select records picking option i. Out-of-range indices and selections after
// a correct answer are no-ops. Returns the resulting state. onCorrect is
// invoked outside the lock.
func (s *Session) Select(i int) AnswerState {
	s.mu.Lock()
	if s.state == AnsweredCorrect || i < 0 || i >= len(s.quiz.Options) {
		state := s.state
		s.mu.Unlock()
		return state
	}
	s.selected = i
	correct := s.quiz.Options[i] == s.quiz.Answer
	if correct {
		s.state = AnsweredCorrect
	} else {
		s.state = AnsweredIncorrect
	}
	state := s.state
	s.mu.Unlock()

	if correct && s.onCorrect != nil {
		s.onCorrect()
	}
	return state
}
