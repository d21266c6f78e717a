package quiz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type manualScheduler struct {
	mu      sync.Mutex
	tick    func()
	stopped bool
	starts  int
	stops   int
}

func (m *manualScheduler) Every(_ time.Duration, tick func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tick = tick
	m.stopped = false
	m.starts++

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.stops++
			m.stopped = true
		})
	}
}

// fire runs the most recently scheduled tick n times, even after stop, so
// tests can exercise stale deliveries.
func (m *manualScheduler) fire(n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		tick := m.tick
		m.mu.Unlock()
		if tick == nil {
			return
		}
		tick()
	}
}

func (m *manualScheduler) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

type recordingCues struct {
	mu   sync.Mutex
	cues []Cue
	err  error
}

func (r *recordingCues) Play(_ context.Context, cue Cue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, cue)
	return r.err
}

func (r *recordingCues) played() []Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Cue(nil), r.cues...)
}

type recordingEvents struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingEvents) record(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEvents) ofType(eventType EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for _, event := range r.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

type fakeKV struct {
	mu       sync.Mutex
	values   map[string]string
	getErr   error
	setErr   error
	setCalls int
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	value, ok := f.values[key]
	return value, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

var errStoreDown = errors.New("store down")

// makeQuestions builds n questions with four options each; option 0 is
// correct.
func makeQuestions(n int) []Question {
	questions := make([]Question, 0, n)
	for i := 1; i <= n; i++ {
		options := make([]Option, 0, 4)
		for j := 0; j < 4; j++ {
			options = append(options, Option{
				ID:         i*10 + j,
				QuestionID: i,
				Body:       []Segment{{Order: 1, Kind: SegmentText, Value: fmt.Sprintf("answer %d", j)}},
				Correct:    j == 0,
			})
		}
		questions = append(questions, Question{
			ID:          i,
			Body:        []Segment{{Order: 1, Kind: SegmentText, Value: fmt.Sprintf("question %d", i)}},
			Explanation: fmt.Sprintf("because %d", i),
			Options:     options,
		})
	}
	return questions
}

type controllerFixture struct {
	controller *Controller
	scheduler  *manualScheduler
	cues       *recordingCues
	events     *recordingEvents
	kv         *fakeKV
}

func newControllerFixture(t *testing.T, questionCount int, kv *fakeKV) *controllerFixture {
	t.Helper()

	if kv == nil {
		kv = newFakeKV()
	}
	fixture := &controllerFixture{
		scheduler: &manualScheduler{},
		cues:      &recordingCues{},
		events:    &recordingEvents{},
		kv:        kv,
	}

	stats := NewStatStore(kv, DefaultStatKeys(), zerolog.Nop())
	fixture.controller = NewController(context.Background(), NewCatalog(makeQuestions(questionCount), DefaultGroupSize), stats, Options{
		Scheduler: fixture.scheduler,
		Cues:      fixture.cues,
		OnEvent:   fixture.events.record,
		Logger:    zerolog.Nop(),
	})
	t.Cleanup(fixture.controller.Close)
	return fixture
}

// answerCurrent selects the correct option when correct is true and a
// wrong one otherwise, then moves to the next question.
func (f *controllerFixture) answerCurrent(t *testing.T, correct bool) SessionView {
	t.Helper()

	option := 1
	if correct {
		option = 0
	}
	if _, err := f.controller.SelectAnswer(option); err != nil {
		t.Fatalf("SelectAnswer failed: %v", err)
	}
	view, err := f.controller.GoNext()
	if err != nil {
		t.Fatalf("GoNext failed: %v", err)
	}
	return view
}
