package userclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultServer      = "http://127.0.0.1:8080"
	defaultHTTPTimeout = 5 * time.Second
)

type Config struct {
	// PlayerID resumes an existing player. Empty registers a new one.
	PlayerID    string
	ServerURL   string
	HTTPTimeout time.Duration
}

type session struct {
	client    *HTTPClient
	out       io.Writer
	playerID  string
	serverURL string
	// options of the question on screen, for letter validation
	optionCount int
}

// Run plays quizzes against a remote quiz service. The timer runs on the
// server, so a timed-out test shows up as a finished result on the next command.
func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultServer
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	s := &session{
		client:    NewHTTPClient(serverURL, &http.Client{Timeout: timeout}),
		out:       out,
		playerID:  strings.TrimSpace(cfg.PlayerID),
		serverURL: serverURL,
	}
	if s.playerID == "" {
		id, err := s.client.CreatePlayer(ctx)
		if err != nil {
			return describeClientError(err, serverURL)
		}
		s.playerID = id
	}

	fmt.Fprintf(out, "quiz-user-client\nplayer=%s\nserver=%s\n\n", s.playerID, serverURL)
	printHelp(out)
	if err := s.printCatalog(ctx); err != nil {
		return err
	}

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "\n> ")
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		if fields := strings.Fields(line); len(fields) > 0 {
			if quit := s.handle(ctx, fields); quit {
				return nil
			}
		}
		if err != nil {
			fmt.Fprintln(out)
			return nil
		}
	}
}

func (s *session) handle(ctx context.Context, args []string) bool {
	command := strings.ToLower(args[0])

	var err error
	switch command {
	case "help":
		printHelp(s.out)
	case "exit", "quit":
		return true
	case "groups":
		err = s.printCatalog(ctx)
	case "start":
		if len(args) != 2 {
			fmt.Fprintln(s.out, "usage: start <group number>")
			return false
		}
		number, parseErr := strconv.Atoi(args[1])
		if parseErr != nil || number <= 0 {
			fmt.Fprintln(s.out, "invalid group number: must be a positive integer")
			return false
		}
		err = s.show(s.client.StartGroup(ctx, s.playerID, number-1))
	case "random":
		count, parseErr := parsePositiveCount(args, 1, 0)
		if parseErr != nil {
			fmt.Fprintf(s.out, "invalid question count: %v\n", parseErr)
			return false
		}
		err = s.show(s.client.StartRandom(ctx, s.playerID, count))
	case "show", "time":
		err = s.show(s.client.Session(ctx, s.playerID))
	case "answer":
		if len(args) != 2 {
			fmt.Fprintln(s.out, "usage: answer <letter>")
			return false
		}
		err = s.answer(ctx, args[1])
	case "next":
		err = s.show(s.client.Next(ctx, s.playerID))
	case "prev":
		err = s.show(s.client.Prev(ctx, s.playerID))
	case "explain":
		err = s.show(s.client.ToggleExplanation(ctx, s.playerID))
	case "finish":
		var result resultPayload
		result, err = s.client.Finish(ctx, s.playerID)
		if err == nil {
			printResult(s.out, result)
		}
	case "back":
		if err = s.client.ReturnToCatalog(ctx, s.playerID); err == nil {
			err = s.printCatalog(ctx)
		}
	default:
		if len(command) == 1 {
			err = s.answer(ctx, command)
			break
		}
		fmt.Fprintln(s.out, "unknown command. type 'help' for usage.")
	}

	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", describeClientError(err, s.serverURL))
	}
	return false
}

func (s *session) answer(ctx context.Context, input string) error {
	if s.optionCount == 0 {
		current, err := s.client.Session(ctx, s.playerID)
		if err != nil {
			return err
		}
		s.optionCount = len(current.Question.Options)
	}

	option, ok := parseLetter(input, s.optionCount)
	if !ok {
		fmt.Fprintf(s.out, "Invalid input. Please enter a letter A-%c.\n", byte('A'+s.optionCount-1))
		return nil
	}
	return s.show(s.client.Answer(ctx, s.playerID, option))
}

func (s *session) show(payload sessionPayload, err error) error {
	if err != nil {
		return err
	}
	s.optionCount = len(payload.Question.Options)
	printSession(s.out, payload)
	return nil
}

func (s *session) printCatalog(ctx context.Context) error {
	catalog, err := s.client.Catalog(ctx, s.playerID)
	if err != nil {
		return describeClientError(err, s.serverURL)
	}
	s.optionCount = 0
	printCatalog(s.out, catalog)
	return nil
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  groups")
	fmt.Fprintln(out, "  start <group number>")
	fmt.Fprintln(out, "  random [count]")
	fmt.Fprintln(out, "  show | time")
	fmt.Fprintln(out, "  answer <letter>")
	fmt.Fprintln(out, "  next | prev | explain")
	fmt.Fprintln(out, "  finish")
	fmt.Fprintln(out, "  back")
	fmt.Fprintln(out, "  exit")
}

func printCatalog(out io.Writer, catalog catalogPayload) {
	fmt.Fprintf(out, "%d questions, total attempts: %d\n", catalog.QuestionCount, catalog.TotalAttempts)
	if len(catalog.Groups) == 0 {
		fmt.Fprintln(out, "No question groups.")
		return
	}
	for _, group := range catalog.Groups {
		status := "not taken"
		if group.Stat != nil {
			status = fmt.Sprintf("%d/%d (%d times, avg %d%%)",
				group.Stat.Correct, group.Stat.Attempted, group.Stat.TimesTaken, group.Stat.Average)
		}
		fmt.Fprintf(out, "%d. %s (%d questions) %s\n", group.Index+1, group.Label, group.Size, status)
	}
}

func printSession(out io.Writer, payload sessionPayload) {
	if payload.Result != nil {
		if payload.Result.Forced {
			fmt.Fprintln(out, "Time is up!")
		}
		printResult(out, *payload.Result)
		return
	}

	fmt.Fprintf(out, "Question %d/%d  answered %d  time %s\n",
		payload.Current+1, payload.Total, payload.AnsweredCount, payload.Clock)
	if payload.Warning {
		fmt.Fprintln(out, "Less than a minute left!")
	}
	fmt.Fprintf(out, "\n%s\n", payload.Question.Text)
	for _, image := range payload.Question.Images {
		fmt.Fprintf(out, "[image: %s]\n", image)
	}
	fmt.Fprintln(out)
	for _, option := range payload.Question.Options {
		marker := ""
		switch {
		case option.Correct != nil && *option.Correct:
			marker = " (correct)"
		case option.Picked:
			marker = " (your answer)"
		}
		fmt.Fprintf(out, "%s. %s%s\n", option.Letter, option.Text, marker)
	}

	if payload.Answered && payload.ExplanationExpanded && payload.Question.Explanation != "" {
		fmt.Fprintf(out, "\nExplanation: %s\n", payload.Question.Explanation)
	}
	if payload.AllAnswered {
		fmt.Fprintln(out, "\nAll questions answered. Type 'finish' to see your result.")
	}
}

func printResult(out io.Writer, result resultPayload) {
	fmt.Fprintf(out, "Result: %d/%d (%d%%) in %s\n", result.Score, result.Total, result.Percentage, result.TimeSpent)
	if result.GroupStat != nil {
		fmt.Fprintf(out, "Group %d history: %d/%d correct, taken %d times\n",
			result.GroupIndex+1, result.GroupStat.Correct, result.GroupStat.Attempted, result.GroupStat.TimesTaken)
	}
	fmt.Fprintf(out, "Total attempts: %d\n", result.TotalAttempts)
}

func parsePositiveCount(args []string, index int, defaultValue int) (int, error) {
	if len(args) <= index {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(args[index])
	if err != nil || value <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return value, nil
}

func parseLetter(input string, optionCount int) (int, bool) {
	if optionCount < 1 {
		return -1, false
	}
	answer := strings.ToUpper(strings.TrimSpace(input))
	if len(answer) != 1 {
		return -1, false
	}
	letter := answer[0]
	if letter < 'A' || letter > byte('A'+optionCount-1) {
		return -1, false
	}
	return int(letter - 'A'), true
}

func describeClientError(err error, serverURL string) error {
	if errors.Is(err, ErrServiceUnavailable) {
		return fmt.Errorf("quiz service unavailable at %s", serverURL)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Remaining > 0 {
		return fmt.Errorf("%s (%d remaining)", apiErr.Message, apiErr.Remaining)
	}
	return err
}
