package quiz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultGroupSize      = 20
	DefaultRandomCount    = 20
	DefaultSessionSeconds = 10 * 60
	DefaultWarningSeconds = 60

	defaultTickInterval = time.Second
	persistTimeout      = 2 * time.Second
	cueTimeout          = 2 * time.Second
)

type Options struct {
	SessionSeconds int
	WarningSeconds int
	RandomCount    int
	TickInterval   time.Duration
	Scheduler      Scheduler
	Cues           Cues
	// OnEvent is called outside the controller lock and must not block.
	OnEvent func(Event)
	Logger  zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.SessionSeconds <= 0 {
		o.SessionSeconds = DefaultSessionSeconds
	}
	if o.WarningSeconds <= 0 {
		o.WarningSeconds = DefaultWarningSeconds
	}
	if o.RandomCount <= 0 {
		o.RandomCount = DefaultRandomCount
	}
	if o.TickInterval <= 0 {
		o.TickInterval = defaultTickInterval
	}
	if o.Scheduler == nil {
		o.Scheduler = ClockScheduler{}
	}
	if o.Cues == nil {
		o.Cues = NopCues{}
	}
	return o
}

// Controller owns the catalog statistics and at most one session. All
// transitions, user actions and timer ticks alike, are serialized by mu.
type Controller struct {
	catalog *Catalog
	stats   *StatStore
	opts    Options
	log     zerolog.Logger

	mu            sync.Mutex
	groupStats    map[int]GroupStat
	totalAttempts int
	session       *session
	seq           uint64
	stopTick      func()
}

// NewController loads persisted statistics and returns an idle controller.
func NewController(ctx context.Context, catalog *Catalog, stats *StatStore, opts Options) *Controller {
	opts = opts.withDefaults()
	groupStats, total := stats.Load(ctx)

	return &Controller{
		catalog:       catalog,
		stats:         stats,
		opts:          opts,
		log:           opts.Logger.With().Str("component", "quiz_controller").Logger(),
		groupStats:    groupStats,
		totalAttempts: total,
	}
}

func (c *Controller) StartGroup(index int) (SessionView, error) {
	group, ok := c.catalog.Group(index)
	if !ok {
		return SessionView{}, fmt.Errorf("%w: %d", ErrGroupNotFound, index)
	}

	c.mu.Lock()
	view := c.startLocked(ModeGroup, index, group)
	c.mu.Unlock()

	c.emit(Event{Type: EventStarted, RemainingSeconds: view.RemainingSeconds})
	return view, nil
}

// StartRandom draws count questions (the configured default when count <= 0).
func (c *Controller) StartRandom(count int) (SessionView, error) {
	if count <= 0 {
		count = c.opts.RandomCount
	}
	subset := c.catalog.RandomSubset(count)
	if len(subset) == 0 {
		return SessionView{}, ErrEmptyCatalog
	}

	c.mu.Lock()
	view := c.startLocked(ModeRandom, -1, subset)
	c.mu.Unlock()

	c.emit(Event{Type: EventStarted, RemainingSeconds: view.RemainingSeconds})
	return view, nil
}

func (c *Controller) startLocked(mode Mode, groupIndex int, questions []Question) SessionView {
	c.cancelTickLocked()

	c.seq++
	seq := c.seq
	c.session = newSession(seq, mode, groupIndex, questions, c.opts.SessionSeconds)
	c.stopTick = c.opts.Scheduler.Every(c.opts.TickInterval, func() { c.tick(seq) })

	c.log.Info().
		Str("mode", string(mode)).
		Int("group", groupIndex).
		Int("questions", len(questions)).
		Msg("Session started")

	return c.session.view()
}

// SelectAnswer records the first choice for the current question. Later
// choices for the same question are ignored.
func (c *Controller) SelectAnswer(option int) (SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil {
		return SessionView{}, ErrNoSession
	}
	if !s.running() || s.selected[s.current] != unanswered {
		return s.view(), nil
	}

	question := s.questions[s.current]
	if option < 0 || option >= len(question.Options) {
		return s.view(), fmt.Errorf("%w: %d", ErrOptionOutOfRange, option)
	}

	s.selected[s.current] = option
	if question.Options[option].Correct {
		s.score++
	}
	return s.view(), nil
}

func (c *Controller) GoNext() (SessionView, error) {
	return c.move(1)
}

func (c *Controller) GoPrev() (SessionView, error) {
	return c.move(-1)
}

func (c *Controller) move(delta int) (SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil {
		return SessionView{}, ErrNoSession
	}

	target := s.current + delta
	if s.running() && target >= 0 && target < len(s.questions) {
		s.current = target
		s.explanation = false
	}
	return s.view(), nil
}

// ToggleExplanation flips the explanation panel of the current question.
// Unanswered questions keep it collapsed.
func (c *Controller) ToggleExplanation() (SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil {
		return SessionView{}, ErrNoSession
	}
	if s.running() && s.selected[s.current] != unanswered {
		s.explanation = !s.explanation
	}
	return s.view(), nil
}

// FinishTest completes the session when every question is answered. A
// second call after completion returns the stored result without side
// effects.
func (c *Controller) FinishTest(ctx context.Context) (Result, error) {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return Result{}, ErrNoSession
	}
	if s.resultVisible {
		result := *s.result
		c.mu.Unlock()
		return result, nil
	}
	if remaining := len(s.questions) - s.answeredCount(); remaining > 0 {
		c.mu.Unlock()
		return Result{}, &IncompleteAnswersError{Remaining: remaining}
	}

	result := c.completeLocked(ctx, s, false)
	c.mu.Unlock()

	c.afterComplete(result)
	return result, nil
}

// ReturnToCatalog discards the session. Statistics were already persisted
// at completion, so nothing is written here.
func (c *Controller) ReturnToCatalog() {
	c.mu.Lock()
	hadSession := c.session != nil
	c.cancelTickLocked()
	c.session = nil
	c.mu.Unlock()

	if hadSession {
		c.emit(Event{Type: EventClosed})
	}
}

// Close stops any pending tick. The controller stays usable.
func (c *Controller) Close() {
	c.mu.Lock()
	c.cancelTickLocked()
	c.mu.Unlock()
}

func (c *Controller) tick(seq uint64) {
	c.mu.Lock()
	s := c.session
	if s == nil || s.seq != seq || !s.running() {
		c.mu.Unlock()
		return
	}

	if s.remaining > 0 {
		s.remaining--
	}
	remaining := s.remaining

	warn := false
	if remaining <= c.opts.WarningSeconds && !s.warned {
		s.warned = true
		warn = true
	}

	var result *Result
	if remaining == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		completed := c.completeLocked(ctx, s, true)
		cancel()
		result = &completed
	}
	c.mu.Unlock()

	c.emit(Event{Type: EventTick, RemainingSeconds: remaining})
	if warn {
		c.playCue(CueWarning)
		c.emit(Event{Type: EventWarning, RemainingSeconds: remaining})
	}
	if result != nil {
		c.afterComplete(*result)
	}
}

// completeLocked marks the result visible and folds it into the in-memory
// statistics before writing them out. A failed write is logged and the
// in-memory values stay authoritative.
func (c *Controller) completeLocked(ctx context.Context, s *session, forced bool) Result {
	c.cancelTickLocked()
	s.resultVisible = true
	s.explanation = false

	attempted := s.answeredCount()
	result := Result{
		Mode:           s.mode,
		GroupIndex:     s.groupIndex,
		Score:          s.score,
		Total:          len(s.questions),
		Attempted:      attempted,
		Percentage:     Percentage(s.score, len(s.questions)),
		ElapsedSeconds: s.sessionSeconds - s.remaining,
		Forced:         forced,
	}

	if s.mode == ModeGroup {
		stat := c.groupStats[s.groupIndex].merge(s.score, attempted)
		c.groupStats[s.groupIndex] = stat
		result.GroupStat = &stat
	}
	c.totalAttempts++
	result.TotalAttempts = c.totalAttempts
	s.result = &result

	if err := c.stats.Save(ctx, c.groupStats, c.totalAttempts); err != nil {
		c.log.Error().Err(err).Msg("Persist stats failed")
	}

	c.log.Info().
		Str("mode", string(s.mode)).
		Int("group", s.groupIndex).
		Int("score", result.Score).
		Int("total", result.Total).
		Int("attempted", attempted).
		Bool("forced", forced).
		Msg("Session completed")

	return result
}

func (c *Controller) afterComplete(result Result) {
	c.playCue(CueCompletion)
	c.emit(Event{Type: EventCompleted, Result: &result})
}

func (c *Controller) cancelTickLocked() {
	if c.stopTick != nil {
		c.stopTick()
		c.stopTick = nil
	}
}

func (c *Controller) playCue(cue Cue) {
	ctx, cancel := context.WithTimeout(context.Background(), cueTimeout)
	defer cancel()

	if err := c.opts.Cues.Play(ctx, cue); err != nil {
		c.log.Warn().Err(err).Str("cue", string(cue)).Msg("Cue playback failed")
	}
}

func (c *Controller) emit(event Event) {
	if c.opts.OnEvent != nil {
		c.opts.OnEvent(event)
	}
}

// Session returns a snapshot of the current session, if any.
func (c *Controller) Session() (SessionView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return SessionView{}, false
	}
	return c.session.view(), true
}

func (c *Controller) Catalog() CatalogView {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := CatalogView{
		QuestionCount: c.catalog.Len(),
		GroupSize:     c.catalog.GroupSize(),
		Groups:        make([]GroupView, 0, c.catalog.GroupCount()),
		TotalAttempts: c.totalAttempts,
	}
	for idx := 0; idx < c.catalog.GroupCount(); idx++ {
		group, _ := c.catalog.Group(idx)
		item := GroupView{Index: idx, Size: len(group)}
		if stat, ok := c.groupStats[idx]; ok {
			statCopy := stat
			item.Stat = &statCopy
		}
		view.Groups = append(view.Groups, item)
	}
	return view
}

func (c *Controller) GroupStat(index int) (GroupStat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stat, ok := c.groupStats[index]
	return stat, ok
}

func (c *Controller) TotalAttempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.totalAttempts
}
