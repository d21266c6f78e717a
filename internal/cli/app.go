package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"quiz-trainer/internal/quiz"
)

const (
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
	bell       = "\a"
)

type Deps struct {
	Catalog *quiz.Catalog
	Stats   *quiz.StatStore
	// Options configures the controller. Cues and OnEvent are set by Run.
	Options quiz.Options
	// Terminal enables the bell and colored warnings.
	Terminal bool
}

// syncWriter serializes writes from the command loop and the timer.
type syncWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.Write(p)
}

type app struct {
	out        *syncWriter
	controller *quiz.Controller
	terminal   bool
}

// Run drives a quiz session from line commands until "exit", end of input or
// ctx cancellation.
func Run(ctx context.Context, in io.Reader, out io.Writer, deps Deps) error {
	a := &app{
		out:      &syncWriter{out: out},
		terminal: deps.Terminal,
	}

	opts := deps.Options
	opts.Cues = quiz.CueFunc(a.playCue)
	opts.OnEvent = a.onEvent
	a.controller = quiz.NewController(ctx, deps.Catalog, deps.Stats, opts)
	defer a.controller.Close()

	fmt.Fprintln(a.out, "Quiz trainer. Type 'help' for commands.")
	a.printCatalog()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		a.prompt()
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			if quit := a.handle(ctx, line); quit {
				return nil
			}
		}
	}
}

func (a *app) prompt() {
	fmt.Fprint(a.out, "> ")
}

func (a *app) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return false
	}
	command := strings.ToLower(fields[0])
	args := fields[1:]

	switch command {
	case "help", "?":
		a.printHelp()
	case "groups", "catalog":
		a.printCatalog()
	case "start":
		a.startGroup(args)
	case "random":
		a.startRandom(args)
	case "show":
		a.show()
	case "answer":
		if len(args) != 1 {
			fmt.Fprintln(a.out, "Usage: answer <letter>")
			return false
		}
		a.answer(args[0])
	case "next":
		a.printView(a.controller.GoNext())
	case "prev":
		a.printView(a.controller.GoPrev())
	case "explain":
		a.printView(a.controller.ToggleExplanation())
	case "time":
		a.printTime()
	case "finish":
		a.finish(ctx)
	case "back":
		a.controller.ReturnToCatalog()
		a.printCatalog()
	case "exit", "quit":
		fmt.Fprintln(a.out, "Bye.")
		return true
	default:
		if len(command) == 1 {
			a.answer(command)
			return false
		}
		fmt.Fprintf(a.out, "Unknown command %q. Type 'help' for commands.\n", command)
	}
	return false
}

func (a *app) startGroup(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: start <group number>")
		return
	}
	number, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintln(a.out, "Group number must be an integer.")
		return
	}
	a.printView(a.controller.StartGroup(number - 1))
}

func (a *app) startRandom(args []string) {
	count := 0
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed <= 0 {
			fmt.Fprintln(a.out, "Question count must be a positive integer.")
			return
		}
		count = parsed
	}
	a.printView(a.controller.StartRandom(count))
}

func (a *app) show() {
	view, ok := a.controller.Session()
	if !ok {
		a.printError(quiz.ErrNoSession)
		return
	}
	a.printSession(view)
}

func (a *app) answer(input string) {
	view, ok := a.controller.Session()
	if !ok {
		a.printError(quiz.ErrNoSession)
		return
	}

	optionCount := len(view.Question.Options)
	index, ok := parseLetter(input, optionCount)
	if !ok {
		fmt.Fprintf(a.out, "Invalid input. Please enter a letter A-%c.\n", byte('A'+optionCount-1))
		return
	}
	a.printView(a.controller.SelectAnswer(index))
}

func (a *app) finish(ctx context.Context) {
	result, err := a.controller.FinishTest(ctx)
	if err != nil {
		a.printError(err)
		return
	}
	a.printResult(result)
}

func (a *app) printTime() {
	view, ok := a.controller.Session()
	if !ok {
		a.printError(quiz.ErrNoSession)
		return
	}
	fmt.Fprintf(a.out, "Time left: %s\n", quiz.FormatClock(view.RemainingSeconds))
}

func (a *app) printView(view quiz.SessionView, err error) {
	if err != nil {
		a.printError(err)
		return
	}
	a.printSession(view)
}

func (a *app) printError(err error) {
	var incomplete *quiz.IncompleteAnswersError
	switch {
	case errors.As(err, &incomplete):
		fmt.Fprintf(a.out, "Please answer all questions before finishing (%d remaining).\n", incomplete.Remaining)
	case errors.Is(err, quiz.ErrNoSession):
		fmt.Fprintln(a.out, "No active test. Type 'groups' to pick one or 'random' for a mixed test.")
	case errors.Is(err, quiz.ErrGroupNotFound):
		fmt.Fprintln(a.out, "No such group. Type 'groups' to list them.")
	case errors.Is(err, quiz.ErrEmptyCatalog):
		fmt.Fprintln(a.out, "There are no questions to draw from.")
	case errors.Is(err, quiz.ErrOptionOutOfRange):
		fmt.Fprintln(a.out, "That option does not exist.")
	default:
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
}

// onEvent runs on the timer goroutine for ticks, so it only prints what the
// user could not have asked for: the warning and a timed-out result.
func (a *app) onEvent(event quiz.Event) {
	switch event.Type {
	case quiz.EventWarning:
		fmt.Fprintln(a.out)
		a.printWarning(fmt.Sprintf("Less than %s left!", quiz.FormatClock(event.RemainingSeconds)))
		a.prompt()
	case quiz.EventCompleted:
		if event.Result != nil && event.Result.Forced {
			fmt.Fprintln(a.out)
			a.printWarning("Time is up!")
			a.printResult(*event.Result)
			a.prompt()
		}
	}
}

func (a *app) playCue(_ context.Context, _ quiz.Cue) error {
	if !a.terminal {
		return nil
	}
	_, err := io.WriteString(a.out, bell)
	return err
}

func (a *app) printWarning(message string) {
	if a.terminal {
		fmt.Fprintf(a.out, "%s%s%s\n", ansiYellow, message, ansiReset)
		return
	}
	fmt.Fprintln(a.out, message)
}

func (a *app) printHelp() {
	fmt.Fprintln(a.out, `Commands:
  groups            list question groups and your stats
  start <n>         start group n
  random [n]        start a test with n random questions (default 20)
  show              show the current question
  answer <letter>   answer the current question (or just type the letter)
  next, prev        move between questions
  explain           show or hide the explanation of an answered question
  time              show the time left
  finish            finish the test
  back              return to the group list
  exit              quit`)
}

func (a *app) printCatalog() {
	catalog := a.controller.Catalog()

	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "%d questions, total attempts: %d\n", catalog.QuestionCount, catalog.TotalAttempts)
	for _, group := range catalog.Groups {
		status := "not taken"
		if group.Stat != nil {
			status = fmt.Sprintf("%d/%d (%d times)", group.Stat.Correct, group.Stat.Attempted, group.Stat.TimesTaken)
		}
		fmt.Fprintf(a.out, "  %2d. Group %d (%d questions)  %s\n", group.Index+1, group.Index+1, group.Size, status)
	}
	fmt.Fprintln(a.out)
}

func (a *app) printSession(view quiz.SessionView) {
	if view.ResultVisible && view.Result != nil {
		a.printResult(*view.Result)
		return
	}

	question := view.Question
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "Question %d/%d   Answered %d/%d   Time %s\n",
		view.Current+1, view.Total, view.AnsweredCount, view.Total, quiz.FormatClock(view.RemainingSeconds))
	if view.Warning {
		a.printWarning("Less than a minute left!")
	}
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, question.Text())
	for _, image := range question.Images() {
		fmt.Fprintf(a.out, "[image: %s]\n", image)
	}
	fmt.Fprintln(a.out)

	for idx, option := range question.Options {
		marker := ""
		if view.IsAnswered() {
			switch {
			case option.Correct:
				marker = "  (correct)"
			case idx == view.Selected:
				marker = "  (your answer)"
			}
		}
		fmt.Fprintf(a.out, "%c. %s%s\n", byte('A'+idx), option.Text(), marker)
	}

	if view.IsAnswered() {
		fmt.Fprintln(a.out)
		if question.Options[view.Selected].Correct {
			fmt.Fprintln(a.out, "Correct!")
		} else {
			fmt.Fprintln(a.out, "Wrong.")
		}
		if view.ExplanationExpanded && question.Explanation != "" {
			fmt.Fprintf(a.out, "\nExplanation: %s\n", question.Explanation)
		}
	}

	if view.AllAnswered {
		fmt.Fprintln(a.out, "\nAll questions answered. Type 'finish' to see your result.")
	}
	fmt.Fprintln(a.out)
}

func (a *app) printResult(result quiz.Result) {
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "Result: %d/%d (%d%%)\n", result.Score, result.Total, result.Percentage)
	fmt.Fprintf(a.out, "Answered: %d/%d\n", result.Attempted, result.Total)
	fmt.Fprintf(a.out, "Time spent: %s\n", result.TimeSpent())
	if result.GroupStat != nil {
		fmt.Fprintf(a.out, "Group %d history: %d/%d correct, taken %d times, average %d%%\n",
			result.GroupIndex+1, result.GroupStat.Correct, result.GroupStat.Attempted,
			result.GroupStat.TimesTaken, result.GroupStat.Average())
	}
	fmt.Fprintf(a.out, "Total attempts: %d\n", result.TotalAttempts)
	fmt.Fprintln(a.out, "Type 'back' to return to the group list.")
}

func parseLetter(input string, optionCount int) (int, bool) {
	if optionCount < 1 {
		return -1, false
	}
	input = strings.ToUpper(strings.TrimSpace(input))
	if len(input) != 1 {
		return -1, false
	}

	maxLetter := byte('A' + optionCount - 1)
	letter := input[0]
	if letter < 'A' || letter > maxLetter {
		return -1, false
	}
	return int(letter - 'A'), true
}
