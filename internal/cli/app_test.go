package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"quiz-trainer/internal/quiz"
	"quiz-trainer/internal/storage"
)

type idleScheduler struct{}

func (idleScheduler) Every(time.Duration, func()) func() { return func() {} }

// burstScheduler delivers n ticks right away on its own goroutine.
type burstScheduler struct {
	n int
}

func (b burstScheduler) Every(_ time.Duration, tick func()) func() {
	done := make(chan struct{})
	go func() {
		for i := 0; i < b.n; i++ {
			select {
			case <-done:
				return
			default:
				tick()
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testCatalog(n int) *quiz.Catalog {
	questions := make([]quiz.Question, 0, n)
	for i := 1; i <= n; i++ {
		questions = append(questions, quiz.Question{
			ID:          i,
			Body:        []quiz.Segment{{Order: 1, Kind: quiz.SegmentText, Value: fmt.Sprintf("Question text %d", i)}},
			Explanation: fmt.Sprintf("Explanation %d", i),
			Options: []quiz.Option{
				{ID: 1, Body: []quiz.Segment{{Order: 1, Kind: quiz.SegmentText, Value: "Right"}}, Correct: true},
				{ID: 2, Body: []quiz.Segment{{Order: 1, Kind: quiz.SegmentText, Value: "Wrong"}}},
			},
		})
	}
	return quiz.NewCatalog(questions, 20)
}

func runScript(t *testing.T, deps Deps, script string) string {
	t.Helper()

	var out lockedBuffer
	if err := Run(context.Background(), strings.NewReader(script), &out, deps); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return out.String()
}

func newDeps(kv quiz.KV, catalog *quiz.Catalog, scheduler quiz.Scheduler) Deps {
	return Deps{
		Catalog: catalog,
		Stats:   quiz.NewStatStore(kv, quiz.DefaultStatKeys(), zerolog.Nop()),
		Options: quiz.Options{Scheduler: scheduler, Logger: zerolog.Nop()},
	}
}

func TestRunGroupSessionScript(t *testing.T) {
	kv := storage.NewMemoryKV()
	script := strings.Join([]string{
		"start 1",
		"finish",
		"answer b",
		"explain",
		"next",
		"a",
		"finish",
		"back",
		"exit",
	}, "\n")

	out := runScript(t, newDeps(kv, testCatalog(2), idleScheduler{}), script)

	for _, want := range []string{
		"2 questions, total attempts: 0",
		"Group 1 (2 questions)  not taken",
		"Question 1/2   Answered 0/2   Time 10:00",
		"Please answer all questions before finishing (2 remaining).",
		"B. Wrong  (your answer)",
		"A. Right  (correct)",
		"Explanation: Explanation 1",
		"Question 2/2   Answered 1/2",
		"All questions answered. Type 'finish' to see your result.",
		"Result: 1/2 (50%)",
		"Time spent: 0:00",
		"Group 1 history: 1/2 correct, taken 1 times, average 50%",
		"Group 1 (2 questions)  1/2 (1 times)",
		"total attempts: 1",
		"Bye.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q\n%s", want, out)
		}
	}

	value, ok, _ := kv.Get(context.Background(), quiz.TotalAttemptsKey)
	if !ok || value != "1" {
		t.Fatalf("expected persisted total attempts, got %q", value)
	}
}

func TestRunReportsInputErrors(t *testing.T) {
	script := strings.Join([]string{
		"show",
		"start 9",
		"start x",
		"random 0",
		"start 1",
		"answer z",
		"bogus",
		"exit",
	}, "\n")

	out := runScript(t, newDeps(storage.NewMemoryKV(), testCatalog(2), idleScheduler{}), script)

	for _, want := range []string{
		"No active test.",
		"No such group.",
		"Group number must be an integer.",
		"Question count must be a positive integer.",
		"Invalid input. Please enter a letter A-B.",
		`Unknown command "bogus".`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q\n%s", want, out)
		}
	}
}

func TestRunRandomOnEmptyCatalog(t *testing.T) {
	out := runScript(t, newDeps(storage.NewMemoryKV(), testCatalog(0), idleScheduler{}), "random\nexit\n")
	if !strings.Contains(out, "There are no questions to draw from.") {
		t.Fatalf("expected empty catalog message\n%s", out)
	}
}

func TestRunPrintsForcedCompletion(t *testing.T) {
	in, writer := io.Pipe()
	defer in.Close()

	var out lockedBuffer
	deps := newDeps(storage.NewMemoryKV(), testCatalog(3), burstScheduler{n: quiz.DefaultSessionSeconds})

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), in, &out, deps)
	}()

	if _, err := io.WriteString(writer, "random 2\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for !strings.Contains(out.String(), "Total attempts: 1") {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for forced result\n%s", out.String())
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, _ = io.WriteString(writer, "exit\n")
	_ = writer.Close()
	if err := <-done; err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{"Less than 1:00 left!", "Time is up!", "Result: 0/2 (0%)", "Time spent: 10:00"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q\n%s", want, text)
		}
	}
	if strings.Contains(text, "\a") {
		t.Fatalf("bell must not ring without a terminal")
	}
}

func TestRunRingsBellOnTerminal(t *testing.T) {
	deps := newDeps(storage.NewMemoryKV(), testCatalog(1), idleScheduler{})
	deps.Terminal = true

	out := runScript(t, deps, "start 1\na\nfinish\nexit\n")
	if !strings.Contains(out, "\a") {
		t.Fatalf("expected bell on completion")
	}
}

func TestParseLetter(t *testing.T) {
	tests := []struct {
		input string
		count int
		want  int
		ok    bool
	}{
		{"a", 4, 0, true},
		{" D ", 4, 3, true},
		{"e", 4, -1, false},
		{"ab", 4, -1, false},
		{"a", 0, -1, false},
	}
	for _, tc := range tests {
		got, ok := parseLetter(tc.input, tc.count)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("parseLetter(%q, %d) = (%d, %v), want (%d, %v)", tc.input, tc.count, got, ok, tc.want, tc.ok)
		}
	}
}
